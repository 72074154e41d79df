package proxy

import "io"

// Buffer accumulates bytes read from a connection.
type Buffer struct {
	b []byte
}

// Len returns the number of buffered bytes.
func (b *Buffer) Len() int {
	return len(b.b)
}

// Bytes returns the buffered bytes. The slice is valid until the next
// mutation.
func (b *Buffer) Bytes() []byte {
	return b.b
}

// Slice returns bytes [from, to), clamped to the buffered range.
func (b *Buffer) Slice(from, to int) []byte {
	to = min(to, len(b.b))
	if from >= to {
		return nil
	}
	return b.b[max(from, 0):to]
}

// Consume drops the first n bytes and returns them.
func (b *Buffer) Consume(n int) []byte {
	n = min(max(n, 0), len(b.b))
	head := b.b[:n:n]
	b.b = b.b[n:]
	return head
}

// ReadOnce performs a single Read of up to n bytes from r and appends what
// was read.
func (b *Buffer) ReadOnce(r io.Reader, n int) (int, error) {
	if cap(b.b)-len(b.b) < n {
		grown := make([]byte, len(b.b), len(b.b)+n)
		copy(grown, b.b)
		b.b = grown
	}
	read, err := r.Read(b.b[len(b.b) : len(b.b)+n])
	b.b = b.b[:len(b.b)+read]
	return read, err
}
