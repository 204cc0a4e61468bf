package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/mkrupp/mediagate/internal/domain"
	"github.com/mkrupp/mediagate/internal/infra/logging"
)

// ErrBinaryNotFound is returned by CheckBinary when ffprobe cannot be executed.
var ErrBinaryNotFound = errors.New("ffprobe binary not found")

const (
	tempFilePattern = "mediagate-probe-*"

	// waitDelay bounds how long a killed ffprobe may keep its output pipes open.
	waitDelay = 2 * time.Second
)

//nolint:gochecknoglobals
var safeExt = regexp.MustCompile(`^\.[A-Za-z0-9]{1,10}$`)

// FFprobeConfig holds configuration for the ffprobe based prober.
type FFprobeConfig struct {
	// Binary is the ffprobe executable name or path
	Binary string `env:"BINARY" default:"ffprobe"`
	// TempDir is where per-file probe handles are created; empty uses os.TempDir()
	TempDir string `env:"TEMP_DIR" default:""`
}

// FFprobeProber implements Prober by running ffprobe against a temporary
// copy of the file's bytes.
type FFprobeProber struct {
	cfg FFprobeConfig
	log logging.Logger
}

var _ Prober = (*FFprobeProber)(nil)

// NewFFprobeProber creates a new FFprobeProber with the given configuration.
func NewFFprobeProber(cfg FFprobeConfig) *FFprobeProber {
	if strings.TrimSpace(cfg.Binary) == "" {
		cfg.Binary = "ffprobe"
	}

	return &FFprobeProber{
		cfg: cfg,
		log: logging.GetLogger("infra.probe.ffprobe_prober"),
	}
}

// CheckBinary reports whether the configured ffprobe binary can be found.
func (p *FFprobeProber) CheckBinary() error {
	if _, err := exec.LookPath(p.cfg.Binary); err != nil {
		return fmt.Errorf("%w: %q: %w", ErrBinaryNotFound, p.cfg.Binary, err)
	}

	return nil
}

// Probe implements Prober.Probe.
// The file's bytes are written to a temporary file that is removed on every
// exit path, including context cancellation.
func (p *FFprobeProber) Probe(ctx context.Context, file domain.MediaFile) (res domain.Resolution, err error) {
	log := p.log.With(logging.Group("file",
		"name", file.Name(),
		"type", file.MIMEType(),
		"size", file.Size(),
	))

	defer func() {
		if err != nil {
			log.DebugContext(ctx, "probe failed", "error", err)
		} else {
			log.DebugContext(ctx, "probed", logging.Group("resolution",
				"width", res.Width,
				"height", res.Height,
			))
		}
	}()

	path, release, err := p.acquireHandle(ctx, file)
	if err != nil {
		return domain.Resolution{}, domain.NewProbeError(file.Name(), fmt.Errorf("acquire handle: %w", err))
	}
	defer release()

	output, err := p.run(ctx, path)
	if err != nil {
		return domain.Resolution{}, domain.NewProbeError(file.Name(), err)
	}

	res, err = ParseResolution(output)
	if err != nil {
		return domain.Resolution{}, domain.NewProbeError(file.Name(), err)
	}

	return res, nil
}

// acquireHandle writes the file's bytes to a temporary file and returns its
// path together with a function that removes it.
func (p *FFprobeProber) acquireHandle(
	ctx context.Context,
	file domain.MediaFile,
) (path string, release func(), err error) {
	pattern := tempFilePattern
	if ext := filepath.Ext(file.Name()); safeExt.MatchString(ext) {
		pattern += strings.ToLower(ext)
	}

	handle, err := os.CreateTemp(p.cfg.TempDir, pattern)
	if err != nil {
		return "", nil, fmt.Errorf("create temp: %w", err)
	}

	path = handle.Name()
	release = func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			p.log.WarnContext(ctx, "probe handle not removed", "path", path, "error", err)

			return
		}

		p.log.DebugContext(ctx, "probe handle released", "path", path)
	}

	if _, err := file.WriteTo(handle); err != nil {
		_ = handle.Close()
		release()

		return "", nil, fmt.Errorf("write temp: %w", err)
	}

	if err := handle.Close(); err != nil {
		release()

		return "", nil, fmt.Errorf("close temp: %w", err)
	}

	return path, release, nil
}

func (p *FFprobeProber) run(ctx context.Context, path string) ([]byte, error) {
	//nolint:gosec
	cmd := exec.CommandContext(ctx, p.cfg.Binary,
		"-v", "error",
		"-hide_banner",
		"-select_streams", "v:0",
		"-show_entries", "stream=codec_type,width,height",
		"-of", "json",
		"--", path,
	)

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("ffprobe: %w", ctxErr)
		}

		return nil, fmt.Errorf("ffprobe: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return stdout.Bytes(), nil
}

type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeStream struct {
	CodecType string `json:"codec_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// ParseResolution extracts the first video stream's dimensions from ffprobe
// JSON output. Missing video streams and non-positive dimensions are
// reported as domain.ErrNoVideoStream.
func ParseResolution(data []byte) (domain.Resolution, error) {
	var out ffprobeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return domain.Resolution{}, fmt.Errorf("parse ffprobe json: %w", err)
	}

	for _, stream := range out.Streams {
		if stream.CodecType != "" && !strings.EqualFold(stream.CodecType, "video") {
			continue
		}

		if stream.Width <= 0 || stream.Height <= 0 {
			return domain.Resolution{}, fmt.Errorf("%w: invalid dimensions %dx%d",
				domain.ErrNoVideoStream, stream.Width, stream.Height)
		}

		return domain.Resolution{Width: stream.Width, Height: stream.Height}, nil
	}

	return domain.Resolution{}, domain.ErrNoVideoStream
}
