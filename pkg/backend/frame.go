package backend

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"slices"
)

// FrameHeaderSize is the width of the big-endian length prefix.
const FrameHeaderSize = 8

// MaxFrameSize bounds the payload accepted by ReadFrame and DecodeFrame.
const MaxFrameSize = 256 * 1024 * 1024

var (
	// ErrFrameTooLarge is returned for payloads above MaxFrameSize.
	ErrFrameTooLarge = errors.New("frame exceeds maximum size")

	// ErrShortFrame is returned when a frame or payload ends early.
	ErrShortFrame = errors.New("truncated frame")
)

// EncodePayload serializes req without the length prefix.
func EncodePayload(req *Request) []byte {
	e := &encoder{}
	e.string(req.Method)
	e.string(req.Host)
	e.string(req.Path)
	e.string(req.SessionID)
	e.stringMap(req.Query)
	e.string(req.BodyString)
	e.stringMap(req.Route)

	e.u64(uint64(len(req.Files)))
	for _, k := range sortedKeys(req.Files) {
		f := req.Files[k]
		e.string(k)
		e.string(f.Name)
		e.bytes(f.Content)
	}
	return e.buf
}

// EncodeFrame serializes req into a length-prefixed frame.
func EncodeFrame(req *Request) ([]byte, error) {
	payload := EncodePayload(req)
	if len(payload) > MaxFrameSize {
		return nil, fmt.Errorf("encode frame: %w (%d bytes)", ErrFrameTooLarge, len(payload))
	}
	frame := make([]byte, FrameHeaderSize, FrameHeaderSize+len(payload))
	binary.BigEndian.PutUint64(frame, uint64(len(payload)))
	return append(frame, payload...), nil
}

// WriteFrame encodes req and writes it to w.
func WriteFrame(w io.Writer, req *Request) error {
	frame, err := EncodeFrame(req)
	if err != nil {
		return err
	}
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// DecodeFrame parses one complete frame.
func DecodeFrame(frame []byte) (*Request, error) {
	if len(frame) < FrameHeaderSize {
		return nil, ErrShortFrame
	}
	n := binary.BigEndian.Uint64(frame)
	if n > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}
	if uint64(len(frame)-FrameHeaderSize) != n {
		return nil, fmt.Errorf("%w: header says %d bytes, got %d", ErrShortFrame, n, len(frame)-FrameHeaderSize)
	}
	return DecodePayload(frame[FrameHeaderSize:])
}

// ReadFrame reads one frame from r.
func ReadFrame(r io.Reader) (*Request, error) {
	var hdr [FrameHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("read frame header: %w", err)
	}
	n := binary.BigEndian.Uint64(hdr[:])
	if n > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("read frame payload: %w", err)
	}
	return DecodePayload(payload)
}

// DecodePayload parses a payload produced by EncodePayload.
func DecodePayload(payload []byte) (*Request, error) {
	d := &decoder{buf: payload}
	req := &Request{}
	req.Method = d.string()
	req.Host = d.string()
	req.Path = d.string()
	req.SessionID = d.string()
	req.Query = d.stringMap()
	req.BodyString = d.string()
	req.Route = d.stringMap()

	count := d.u64()
	if d.err == nil {
		req.Files = make(map[string]File, min(count, 64))
	}
	for i := uint64(0); i < count && d.err == nil; i++ {
		k := d.string()
		name := d.string()
		content := d.bytes()
		req.Files[k] = File{Name: name, Content: content}
	}

	if d.err != nil {
		return nil, d.err
	}
	if len(d.buf) != 0 {
		return nil, fmt.Errorf("decode payload: %d trailing bytes", len(d.buf))
	}
	return req, nil
}

type encoder struct {
	buf []byte
}

func (e *encoder) u64(v uint64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, v)
}

func (e *encoder) bytes(b []byte) {
	e.u64(uint64(len(b)))
	e.buf = append(e.buf, b...)
}

func (e *encoder) string(s string) {
	e.u64(uint64(len(s)))
	e.buf = append(e.buf, s...)
}

func (e *encoder) stringMap(m map[string]string) {
	e.u64(uint64(len(m)))
	for _, k := range sortedKeys(m) {
		e.string(k)
		e.string(m[k])
	}
}

type decoder struct {
	buf []byte
	err error
}

func (d *decoder) u64() uint64 {
	if d.err != nil {
		return 0
	}
	if len(d.buf) < 8 {
		d.err = ErrShortFrame
		return 0
	}
	v := binary.LittleEndian.Uint64(d.buf)
	d.buf = d.buf[8:]
	return v
}

func (d *decoder) bytes() []byte {
	n := d.u64()
	if d.err != nil {
		return nil
	}
	if uint64(len(d.buf)) < n {
		d.err = ErrShortFrame
		return nil
	}
	b := make([]byte, n)
	copy(b, d.buf)
	d.buf = d.buf[n:]
	return b
}

func (d *decoder) string() string {
	return string(d.bytes())
}

func (d *decoder) stringMap() map[string]string {
	count := d.u64()
	if d.err != nil {
		return nil
	}
	m := make(map[string]string, min(count, 64))
	for i := uint64(0); i < count && d.err == nil; i++ {
		k := d.string()
		m[k] = d.string()
	}
	return m
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
