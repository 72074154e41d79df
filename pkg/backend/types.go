package backend

// File is one uploaded multipart file part.
type File struct {
	// Name is the client-supplied filename.
	Name string

	// Content is the raw file bytes.
	Content []byte
}

// Request is the payload sent to a backend for one dynamic request.
type Request struct {
	Method     string
	Host       string
	Path       string
	SessionID  string
	Query      map[string]string
	BodyString string
	Route      map[string]string

	// Files maps form field names to uploaded files.
	Files map[string]File
}
