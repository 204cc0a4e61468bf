package domain

import (
	"crypto/sha256"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/mkrupp/mediagate/internal/util/encoding"
)

// MIMEPrefixVideo is the MIME type prefix of files that are subject to
// resolution gating.
const MIMEPrefixVideo = "video/"

// MediaFile is a user-selected file submitted for admission.
// The content is opaque to the admission pipeline; only the MIME type
// prefix decides whether a file is probed.
type MediaFile struct {
	data []byte
	meta MediaFileMeta
}

// MediaFileMeta contains metadata about a media file.
type MediaFileMeta struct {
	Filename string `json:"filename"` // Original filename
	MIMEType string `json:"mimeType"` // Declared or sniffed MIME type
	Size     int64  `json:"size"`     // Size in bytes
	Hash     string `json:"hash"`     // Content hash (Crockford Base32)
}

// NewMediaFile creates a new MediaFile with the given name, MIME type and content.
// The name is stored in Unicode NFC form. Size and hash are derived from the content.
func NewMediaFile(filename string, mimeType string, data []byte) MediaFile {
	file := MediaFile{
		data: data,
		meta: MediaFileMeta{ //nolint:exhaustruct
			Filename: norm.NFC.String(filename),
			MIMEType: mimeType,
		},
	}

	file.meta.update(data)

	return file
}

// Name returns the file's original name.
func (f MediaFile) Name() string {
	return f.meta.Filename
}

// MIMEType returns the file's MIME type.
func (f MediaFile) MIMEType() string {
	return f.meta.MIMEType
}

// IsVideo reports whether the file's MIME type begins with the video prefix.
func (f MediaFile) IsVideo() bool {
	return strings.HasPrefix(f.meta.MIMEType, MIMEPrefixVideo)
}

// Meta returns the file's metadata.
func (f MediaFile) Meta() MediaFileMeta {
	return f.meta
}

// Hash returns the content hash of the file.
func (f MediaFile) Hash() string {
	return f.meta.Hash
}

// Size returns the size of the file's content in bytes.
func (f MediaFile) Size() int64 {
	return int64(len(f.data))
}

// WriteTo writes the file's content to the given writer.
// Returns the number of bytes written and any error encountered.
func (f MediaFile) WriteTo(writer io.Writer) (int64, error) {
	n, err := writer.Write(f.data)
	if err != nil {
		return int64(n), fmt.Errorf("write: %w", err)
	}

	return int64(n), nil
}

func (meta *MediaFileMeta) update(data []byte) {
	sum := sha256.Sum256(data)
	meta.Hash = encoding.EncodeCrockfordB32LC(sum[:])
	meta.Size = int64(len(data))
}
