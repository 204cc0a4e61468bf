package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"github.com/mkrupp/mediagate/internal/domain"
)

// mp4Header is an ftyp box that content sniffing recognises as MP4.
const mp4Header = "\x00\x00\x00\x18ftypmp42\x00\x00\x00\x00mp42isom"

// fakeFFprobe answers with whatever follows the ftyp box of the probed file.
const fakeFFprobe = `#!/bin/sh
for last; do :; done
tail -c +25 "$last"
`

type cliTestEnv struct {
	dir     string
	ffprobe string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("fake ffprobe needs a POSIX shell")
	}

	t.Setenv("MEDIAGATE_CLI_LOG_OUTPUT", "discard")

	dir := t.TempDir()
	binary := filepath.Join(dir, "ffprobe")

	if err := os.WriteFile(binary, []byte(fakeFFprobe), 0o755); err != nil {
		t.Fatalf("write fake ffprobe: %v", err)
	}

	return &cliTestEnv{dir: dir, ffprobe: binary}
}

func (env *cliTestEnv) writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(env.dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}

	return path
}

func (env *cliTestEnv) writeVideo(t *testing.T, name string, width, height int) string {
	t.Helper()

	streams := `{"streams":[{"codec_type":"video","width":` + strconv.Itoa(width) + `,"height":` + strconv.Itoa(height) + `}]}`

	return env.writeFile(t, name, mp4Header+streams)
}

func runCLI(t *testing.T, args ...string) (code int, stdout string, stderr string) {
	t.Helper()

	var out, errOut bytes.Buffer

	code = execute(context.Background(), args, &out, &errOut)

	return code, out.String(), errOut.String()
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()

	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected %q in output:\n%s", needle, haystack)
	}
}

func TestCheck_AllAllowed(t *testing.T) {
	env := setupCLITestEnv(t)

	hd := env.writeVideo(t, "hd.mp4", 1920, 1080)
	portrait := env.writeVideo(t, "portrait.mp4", 1080, 1920)
	notes := env.writeFile(t, "notes.txt", "just some notes\n")

	code, out, stderr := runCLI(t, "check", "--ffprobe", env.ffprobe, hd, portrait, notes)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0; stderr: %s", code, stderr)
	}

	requireContains(t, out, "hd.mp4")
	requireContains(t, out, "portrait.mp4")
	requireContains(t, out, "allowed")

	if strings.Contains(out, "blocked") {
		t.Errorf("unexpected blocked file:\n%s", out)
	}
}

func TestCheck_BlockedExitCode(t *testing.T) {
	env := setupCLITestEnv(t)

	uhd := env.writeVideo(t, "uhd.mp4", 3840, 2160)
	hd := env.writeVideo(t, "hd.mp4", 1280, 720)

	code, out, stderr := runCLI(t, "check", "--ffprobe", env.ffprobe, uhd, hd)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1; stderr: %s", code, stderr)
	}

	requireContains(t, out, "blocked")
	requireContains(t, out, "Video resolution too high (3840×2160). Max allowed is 1920×1080.")
}

func TestCheck_JSON(t *testing.T) {
	env := setupCLITestEnv(t)

	uhd := env.writeVideo(t, "uhd.mp4", 3840, 2160)
	broken := env.writeFile(t, "broken.mp4", mp4Header+"garbage")
	hd := env.writeVideo(t, "hd.mp4", 1280, 720)

	code, out, stderr := runCLI(t, "check", "--json", "--workers", "3", "--ffprobe", env.ffprobe, uhd, broken, hd)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1; stderr: %s", code, stderr)
	}

	var report checkReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}

	if len(report.Files) != 3 {
		t.Fatalf("got %d files, want 3", len(report.Files))
	}

	wants := []struct {
		name    string
		allowed bool
		reason  string
	}{
		{name: "uhd.mp4", allowed: false, reason: "Video resolution too high (3840×2160). Max allowed is 1920×1080."},
		{name: "broken.mp4", allowed: false, reason: "Unable to read video resolution metadata."},
		{name: "hd.mp4", allowed: true, reason: ""},
	}

	for i, want := range wants {
		got := report.Files[i]
		if got.Filename != want.name || got.Allowed != want.allowed || got.Reason != want.reason {
			t.Errorf("file %d = %+v, want %+v", i, got, want)
		}
	}
}

func TestCheck_PolicyFile(t *testing.T) {
	env := setupCLITestEnv(t)

	uhd := env.writeVideo(t, "uhd.mp4", 3840, 2160)
	broken := env.writeFile(t, "broken.mp4", mp4Header+"garbage")

	policy := env.writeFile(t, "policy.toml", "max_video_width = 3840\nmax_video_height = 2160\nblock_on_video_meta_fail = false\n")

	code, out, stderr := runCLI(t, "check", "--policy", policy, "--ffprobe", env.ffprobe, uhd, broken)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0; stderr: %s\n%s", code, stderr, out)
	}
}

func TestCheck_PolicyFileBoundsOnly(t *testing.T) {
	env := setupCLITestEnv(t)

	broken := env.writeFile(t, "broken.mp4", mp4Header+"garbage")
	policy := env.writeFile(t, "bounds.toml", "max_video_width = 3840\nmax_video_height = 2160\n")

	code, out, stderr := runCLI(t, "check", "--policy", policy, "--ffprobe", env.ffprobe, broken)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1; stderr: %s\n%s", code, stderr, out)
	}

	requireContains(t, out, "Unable to read video resolution metadata.")
}

func TestLoadPolicy_KeepsBase(t *testing.T) {
	env := setupCLITestEnv(t)

	base := domain.ValidationPolicy{MaxWidth: 1280, MaxHeight: 720, AdmitOnProbeFailure: true}

	tests := []struct {
		name    string
		content string
		want    domain.ValidationPolicy
	}{
		{name: "empty", content: "", want: base},
		{
			name:    "width only",
			content: "max_video_width = 640\n",
			want:    domain.ValidationPolicy{MaxWidth: 640, MaxHeight: 720, AdmitOnProbeFailure: true},
		},
		{
			name:    "flag only",
			content: "block_on_video_meta_fail = true\n",
			want:    domain.ValidationPolicy{MaxWidth: 1280, MaxHeight: 720},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := env.writeFile(t, strings.ReplaceAll(tt.name, " ", "_")+".toml", tt.content)

			got, err := loadPolicy(path, base)
			if err != nil {
				t.Fatalf("loadPolicy() error = %v", err)
			}

			if got != tt.want {
				t.Errorf("loadPolicy() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCheck_InvalidPolicyFile(t *testing.T) {
	env := setupCLITestEnv(t)

	hd := env.writeVideo(t, "hd.mp4", 1280, 720)

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "negative bound", content: "max_video_width = -1\n", want: "invalid validation policy"},
		{name: "unknown key", content: "max_duration = 10\n", want: "invalid validation policy"},
		{name: "malformed", content: "max_video_width = \n", want: "parse policy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := env.writeFile(t, strings.ReplaceAll(tt.name, " ", "_")+".toml", tt.content)

			code, _, stderr := runCLI(t, "check", "--policy", policy, "--ffprobe", env.ffprobe, hd)
			if code != 2 {
				t.Fatalf("exit code = %d, want 2", code)
			}

			requireContains(t, stderr, tt.want)
		})
	}
}

func TestCheck_MissingFile(t *testing.T) {
	env := setupCLITestEnv(t)

	code, _, stderr := runCLI(t, "check", "--ffprobe", env.ffprobe, filepath.Join(env.dir, "missing.mp4"))
	if code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}

	requireContains(t, stderr, "read file")
}

func TestCheck_RequiresFiles(t *testing.T) {
	setupCLITestEnv(t)

	if code, _, _ := runCLI(t, "check"); code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
}
