// Package mediatype resolves the MIME type of an uploaded file.
//
// A declared type (from a multipart part header or similar) wins unless it is
// missing, malformed or the generic octet-stream type; then the content is
// sniffed.
package mediatype

import (
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// OctetStream is the generic binary MIME type that carries no information.
const OctetStream = "application/octet-stream"

// Detect returns the effective MIME type of a file without parameters.
func Detect(declared string, data []byte) string {
	if mediaType, ok := parse(declared); ok && mediaType != OctetStream {
		return mediaType
	}

	if mediaType, ok := parse(mimetype.Detect(data).String()); ok {
		return mediaType
	}

	return OctetStream
}

// FromFilename returns the MIME type registered for the file's extension, or
// "" when the extension is unknown.
func FromFilename(filename string) string {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return ""
	}

	mediaType, _ := parse(mime.TypeByExtension(filename[i:]))

	return mediaType
}

func parse(value string) (string, bool) {
	if strings.TrimSpace(value) == "" {
		return "", false
	}

	mediaType, _, err := mime.ParseMediaType(value)
	if err != nil {
		return "", false
	}

	return mediaType, true
}
