package proxy

import "testing"

func TestResponses(t *testing.T) {
	tests := []struct {
		name string
		got  []byte
		want string
	}{
		{
			name: "not found",
			got:  NotFound(),
			want: "HTTP/1.1 404 Not Found\r\nContent-Length: 9\r\nContent-Type: text/html\r\n\r\nNot found",
		},
		{
			name: "too large",
			got:  TooLarge(),
			want: "HTTP/1.1 413 Request Entity Too Large\r\nContent-Length: 25\r\nContent-Type: text/html\r\n\r\nRequest entity too large.",
		},
		{
			name: "redirect",
			got:  Redirect("example.com", "/a?b=c"),
			want: "HTTP/1.1 301 Moved Permanently\r\nLocation: https://example.com:443/a?b=c\r\nContent-length: 0\r\n\r\n",
		},
		{
			name: "static compressed",
			got:  StaticResponse([]byte("xyz"), "text/css", true),
			want: "HTTP/1.1 200 OK\r\nContent-Length: 3\r\nContent-Encoding: br\r\nContent-Type: text/css\r\n\r\nxyz",
		},
		{
			name: "static without type",
			got:  StaticResponse([]byte("xyz"), "", false),
			want: "HTTP/1.1 200 OK\r\nContent-Length: 3\r\n\r\nxyz",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if string(tt.got) != tt.want {
				t.Errorf("expected %q, got %q", tt.want, tt.got)
			}
		})
	}
}
