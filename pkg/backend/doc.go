// Package backend forwards dynamic requests to application servers over
// Unix-domain sockets.
//
// Each virtual host owns one backend socket. A request is sent as a single
// frame: an 8-byte big-endian payload length followed by the payload. The
// payload uses the bincode v1 default layout (little-endian u64 length
// prefixes for strings, byte slices and maps) so that existing backends
// decode it unchanged. Map entries are written in sorted key order.
//
// The backend reply is not framed. The dispatcher half-closes its write
// side after the frame and reads until the backend closes the connection;
// the bytes are relayed to the client verbatim as a complete HTTP response.
package backend
