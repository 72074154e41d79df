package multipart

import (
	"errors"
	"strings"
	"testing"
)

func body(parts ...string) []byte {
	return []byte(strings.Join(parts, ""))
}

func TestDecode_TextAndFile(t *testing.T) {
	b := body(
		"--X\r\n",
		"Content-Disposition: form-data; name=\"a\"\r\n\r\n",
		"1\r\n",
		"--X\r\n",
		"Content-Disposition: form-data; name=\"f\"; filename=\"file.txt\"\r\n",
		"Content-Type: text/plain\r\n\r\n",
		"hi\r\n",
		"--X--\r\n",
	)

	res, err := Decode(b, "X")
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !strings.Contains(res.BodyString, `"a": 1`) {
		t.Errorf("expected body string to contain %q, got %q", `"a": 1`, res.BodyString)
	}
	f, ok := res.Files["f"]
	if !ok {
		t.Fatalf("expected file f, got %v", res.Files)
	}
	if f.Name != "file.txt" {
		t.Errorf("expected filename file.txt, got %q", f.Name)
	}
	if string(f.Content) != "hi" {
		t.Errorf("expected content hi, got %q", f.Content)
	}
}

func TestDecode_BodyStringShape(t *testing.T) {
	b := body(
		"preamble\r\n",
		"--B\r\n",
		"Content-Disposition: form-data; name=\"title\"\r\n\r\n",
		"Hello world\r\n",
		"--B\r\n",
		"Content-Disposition: form-data; name=\"count\"\r\n\r\n",
		"3.5\r\n",
		"--B\r\n",
		"Content-Disposition: form-data; name=\"quote\"\r\n\r\n",
		"say \"hi\"\r\n",
		"--B--\r\n",
	)

	res, err := Decode(b, "B")
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	want := `{"title": "Hello world" ,"count": 3.5 ,"quote": "say "hi"" }`
	if res.BodyString != want {
		t.Errorf("expected %q, got %q", want, res.BodyString)
	}
	if len(res.Files) != 0 {
		t.Errorf("expected no files, got %d", len(res.Files))
	}
}

func TestDecode_DropsNonTextValues(t *testing.T) {
	b := body(
		"--B\r\n",
		"Content-Disposition: form-data; name=\"blob\"\r\n",
		"Content-Type: application/octet-stream\r\n\r\n",
		"\x00\x01\r\n",
		"--B\r\n",
		"Content-Disposition: form-data; name=\"ok\"\r\n\r\n",
		"yes\r\n",
		"--B--\r\n",
	)

	res, err := Decode(b, "B")
	if err != nil {
		t.Fatal(err)
	}
	if res.BodyString != `{"ok": "yes" }` {
		t.Errorf("unexpected body string %q", res.BodyString)
	}
	if _, ok := res.Files["blob"]; ok {
		t.Error("non-text value part must not become a file")
	}
}

func TestDecode_BinaryFileContent(t *testing.T) {
	content := "\x89PNG\r\n\x1a\n\x00data"
	b := body(
		"--abc\r\n",
		"Content-Disposition: form-data; name=\"img\"; filename=\"a.png\"\r\n",
		"Content-Type: image/png\r\n\r\n",
		content, "\r\n",
		"--abc--\r\n",
	)

	res, err := Decode(b, "abc")
	if err != nil {
		t.Fatal(err)
	}
	if got := string(res.Files["img"].Content); got != content {
		t.Errorf("expected %q, got %q", content, got)
	}
	if res.BodyString != "}" {
		t.Errorf("expected }, got %q", res.BodyString)
	}
}

func TestDecode_FoldPositions(t *testing.T) {
	file := "--B\r\nContent-Disposition: form-data; name=\"f\"; filename=\"f.txt\"\r\n\r\nx\r\n"
	text := func(name, value string) string {
		return "--B\r\nContent-Disposition: form-data; name=\"" + name + "\"\r\n\r\n" + value + "\r\n"
	}

	tests := []struct {
		name string
		body []byte
		want string
	}{
		{"no parts", body("--B--\r\n"), "}"},
		{"text only", body(text("a", "1"), "--B--\r\n"), `{"a": 1 }`},
		{"file then text", body(file, text("a", "1"), "--B--\r\n"), `,"a": 1 }`},
		{"text then file then text", body(text("a", "1"), file, text("b", "x"), "--B--\r\n"), `{"a": 1 ,"b": "x" }`},
		{"file only", body(file, "--B--\r\n"), "}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Decode(tt.body, "B")
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if res.BodyString != tt.want {
				t.Errorf("expected %q, got %q", tt.want, res.BodyString)
			}
		})
	}
}

func TestDecode_EmptyBoundary(t *testing.T) {
	if _, err := Decode([]byte("x"), ""); !errors.Is(err, ErrNoBoundary) {
		t.Errorf("expected ErrNoBoundary, got %v", err)
	}
}

func TestSplit_MalformedParts(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"no boundary", "just text", 0},
		{"single boundary", "--B\r\nContent-Disposition: form-data; name=\"a\"\r\n\r\nv\r\n", 0},
		{"missing header terminator", "--B\r\nContent-Disposition: form-data; name=\"a\"\r\n--B--", 0},
		{"missing name", "--B\r\nContent-Disposition: form-data\r\n\r\nv\r\n--B--", 0},
		{"one part", "--B\r\nContent-Disposition: form-data; name=\"a\"\r\n\r\nv\r\n--B--", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts, err := Split([]byte(tt.body), "B")
			if err != nil {
				t.Fatal(err)
			}
			if len(parts) != tt.want {
				t.Errorf("expected %d parts, got %d", tt.want, len(parts))
			}
		})
	}
}

func TestSplit_PartFields(t *testing.T) {
	b := "--B\r\nContent-Disposition: form-data; name=\"doc\"; filename=\"r.pdf\"\r\nContent-Type: application/pdf\r\n\r\n%PDF\r\n--B--"
	parts, err := Split([]byte(b), "B")
	if err != nil {
		t.Fatal(err)
	}
	if len(parts) != 1 {
		t.Fatalf("expected 1 part, got %d", len(parts))
	}
	p := parts[0]
	if p.Name != "doc" || p.Filename != "r.pdf" || !p.IsFile {
		t.Errorf("unexpected part %+v", p)
	}
	if p.ContentType != "application/pdf" {
		t.Errorf("expected application/pdf, got %q", p.ContentType)
	}
	if string(p.Value) != "%PDF" {
		t.Errorf("expected %%PDF, got %q", p.Value)
	}
}
