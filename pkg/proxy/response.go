package proxy

import (
	"fmt"
	"net/http"
	"strconv"
)

// Response bodies for the error statuses the gateway emits.
const (
	NotFoundText = "Not found"
	TooLargeText = "Request entity too large."
)

// RedirectPort is the HTTPS port named in redirect locations.
const RedirectPort = 443

// statusLine returns "HTTP/1.1 <code> <reason>\r\n".
func statusLine(code int) string {
	return "HTTP/1.1 " + strconv.Itoa(code) + " " + http.StatusText(code) + "\r\n"
}

// TextResponse builds a complete text/html response with an exact
// Content-Length.
func TextResponse(code int, text string) []byte {
	return fmt.Appendf(nil, "%sContent-Length: %d\r\nContent-Type: text/html\r\n\r\n%s",
		statusLine(code), len(text), text)
}

// NotFound is the 404 response.
func NotFound() []byte {
	return TextResponse(http.StatusNotFound, NotFoundText)
}

// TooLarge is the 413 response.
func TooLarge() []byte {
	return TextResponse(http.StatusRequestEntityTooLarge, TooLargeText)
}

// Redirect is the 301 response pointing host and path at the HTTPS origin.
func Redirect(host, path string) []byte {
	return fmt.Appendf(nil, "%sLocation: https://%s:%d%s\r\nContent-length: 0\r\n\r\n",
		statusLine(http.StatusMovedPermanently), host, RedirectPort, path)
}

// StaticResponse builds a 200 response for a static file. Content-Encoding
// is set when brotli is true; Content-Type is omitted when contentType is
// empty.
func StaticResponse(body []byte, contentType string, brotli bool) []byte {
	head := statusLine(http.StatusOK) + "Content-Length: " + strconv.Itoa(len(body)) + "\r\n"
	if brotli {
		head += "Content-Encoding: br\r\n"
	}
	if contentType != "" {
		head += "Content-Type: " + contentType + "\r\n"
	}
	head += "\r\n"

	out := make([]byte, 0, len(head)+len(body))
	out = append(out, head...)
	return append(out, body...)
}
