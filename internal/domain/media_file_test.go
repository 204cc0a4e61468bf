package domain_test

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/mkrupp/mediagate/internal/domain"
)

func TestMediaFile(t *testing.T) {
	t.Parallel()

	data := []byte("some video bytes")
	file := domain.NewMediaFile("clip.mp4", "video/mp4", data)

	if file.Name() != "clip.mp4" || file.MIMEType() != "video/mp4" {
		t.Errorf("name/type = %s/%s", file.Name(), file.MIMEType())
	}

	if file.Size() != int64(len(data)) || file.Meta().Size != int64(len(data)) {
		t.Errorf("Size() = %d, Meta().Size = %d, want %d", file.Size(), file.Meta().Size, len(data))
	}

	if file.Hash() == "" || file.Hash() != file.Meta().Hash {
		t.Errorf("Hash() = %q, Meta().Hash = %q", file.Hash(), file.Meta().Hash)
	}

	if other := domain.NewMediaFile("other.mp4", "video/mp4", data); other.Hash() != file.Hash() {
		t.Errorf("same content hashed differently: %s != %s", other.Hash(), file.Hash())
	}

	if other := domain.NewMediaFile("clip.mp4", "video/mp4", []byte("different")); other.Hash() == file.Hash() {
		t.Error("different content has the same hash")
	}

	var buf bytes.Buffer
	if n, err := file.WriteTo(&buf); err != nil || n != int64(len(data)) || !bytes.Equal(buf.Bytes(), data) {
		t.Errorf("WriteTo() = %d, %v, wrote %q", n, err, buf.Bytes())
	}
}

func TestMediaFile_IsVideo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mimeType string
		want     bool
	}{
		{mimeType: "video/mp4", want: true},
		{mimeType: "video/quicktime", want: true},
		{mimeType: "video/", want: true},
		{mimeType: "image/png", want: false},
		{mimeType: "application/octet-stream", want: false},
		{mimeType: "", want: false},
		{mimeType: "Video/MP4", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.mimeType, func(t *testing.T) {
			t.Parallel()

			if got := domain.NewMediaFile("f", tt.mimeType, nil).IsVideo(); got != tt.want {
				t.Errorf("IsVideo(%q) = %v, want %v", tt.mimeType, got, tt.want)
			}
		})
	}
}

func TestProbeError(t *testing.T) {
	t.Parallel()

	cause := errors.New("moov atom not found")
	wrapped := fmt.Errorf("decide: %w", domain.NewProbeError("clip.mp4", cause))

	if !errors.Is(wrapped, domain.ErrProbe) {
		t.Error("errors.Is(err, ErrProbe) = false")
	}

	if !errors.Is(wrapped, cause) {
		t.Error("errors.Is(err, cause) = false")
	}

	if errors.Is(wrapped, domain.ErrNoVideoStream) {
		t.Error("errors.Is(err, ErrNoVideoStream) = true")
	}

	var probeErr *domain.ProbeError
	if !errors.As(wrapped, &probeErr) || probeErr.Filename != "clip.mp4" {
		t.Errorf("errors.As() = %v", probeErr)
	}

	if got, want := probeErr.Error(), `probe "clip.mp4": moov atom not found`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestNewMediaFile_NormalizesName(t *testing.T) {
	t.Parallel()

	decomposed := "cafe\u0301.mp4"
	composed := "caf\u00e9.mp4"

	if got := domain.NewMediaFile(decomposed, "video/mp4", nil).Name(); got != composed {
		t.Errorf("Name() = %q, want %q", got, composed)
	}
}
