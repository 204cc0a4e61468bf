package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"slices"
	"strconv"
	"strings"
)

const (
	ansiCodeReset     = "\033[0m"
	ansiCodeRed       = "\033[31m"
	ansiCodeGreen     = "\033[32m"
	ansiCodeYellow    = "\033[33m"
	ansiCodeCyan      = "\033[36m"
	ansiCodeGray      = "\033[90m"
	ansiCodeUnderline = "\033[4m"
)

const (
	ansiCodeDebug = ansiCodeCyan
	ansiCodeInfo  = ansiCodeGreen
	ansiCodeWarn  = ansiCodeYellow
	ansiCodeError = ansiCodeRed
)

//nolint:gochecknoglobals
var ansiCodeMap = map[slog.Level]string{
	slog.LevelDebug: ansiCodeDebug,
	slog.LevelInfo:  ansiCodeInfo,
	slog.LevelWarn:  ansiCodeWarn,
	slog.LevelError: ansiCodeError,
}

// ConsoleHandler implements slog.Handler to format log records with ansiCodes
// and human-readable output suitable for development environments.
type ConsoleHandler struct {
	// Output is the destination for log output (typically os.Stdout or os.Stderr)
	Output io.Writer
	// Level is the minimum level for log records to be processed
	Level slog.Leveler
	// PkgLevels maps package names to minimum log levels
	PkgLevels map[string]slog.Level
	// NoColor disables ANSI escape codes, e.g. when Output is not a terminal
	NoColor bool

	attrs  []slog.Attr
	groups []string
}

var _ slog.Handler = (*ConsoleHandler)(nil)

// Handle implements slog.Handler by formatting the log record with ansiCodes,
// timestamps, and source file information.
//
//nolint:funlen
func (h *ConsoleHandler) Handle(ctx context.Context, r slog.Record) error {
	// collect attrs
	var attrs []slog.Attr

	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)

		return true
	})

	attrs = append(attrs, h.attrs...)

	// determine pkg
	var pkg string

	for _, attr := range attrs {
		if attr.Key == loggerNameKey {
			pkg = attr.Value.String()

			break
		}
	}

	// abort if pkg level is too low
	if level, ok := h.pkgLevel(pkg); ok && r.Level < level {
		return nil
	}

	// format log message
	logMessage := h.paint(ansiCodeGray, r.Time.Format("15:04:05.000000"))
	logMessage += " " + h.paint(ansiCodeMap[r.Level], "["+r.Level.String()+"]")
	logMessage += " " + r.Message

	var prefix string

	if len(h.groups) > 0 {
		prefix = strings.Join(h.groups, ".") + "."
	}

	if len(attrs) > 0 {
		logMessage += " " + h.paint(ansiCodeGray, "|")
		logMessage += h.renderAttrs(prefix, attrs)
	}

	// format caller
	if r.PC != 0 {
		fs := runtime.CallersFrames([]uintptr{r.PC})
		f, _ := fs.Next()
		fn := strings.Split(f.Function, string(os.PathSeparator))

		logMessage += "\n-> " + h.paint(ansiCodeGray, fn[len(fn)-1]+"()")
		logMessage += h.paint(ansiCodeGray, " in ") + h.paint(ansiCodeUnderline, f.File+":"+strconv.Itoa(f.Line))
	}

	fmt.Fprintln(h.Output, logMessage)

	return nil
}

func (h *ConsoleHandler) renderAttrs(prefix string, attrs []slog.Attr) (out string) {
	for _, attr := range attrs {
		if attr.Value.Kind() == slog.KindGroup {
			out += h.renderAttrs(prefix+attr.Key+".", attr.Value.Group())

			continue
		}

		out += " " + prefix + attr.Key
		out += "=" + h.paint(ansiCodeGray, attr.Value.String())
	}

	return
}

// pkgLevel returns the level of the most specific PkgLevels entry matching
// the dotted logger name. The empty key matches every logger.
func (h *ConsoleHandler) pkgLevel(pkg string) (slog.Level, bool) {
	for name := pkg; ; {
		if level, ok := h.PkgLevels[name]; ok {
			return level, true
		}

		if name == "" {
			return 0, false
		}

		if i := strings.LastIndex(name, "."); i >= 0 {
			name = name[:i]
		} else {
			name = ""
		}
	}
}

func (h *ConsoleHandler) paint(code string, text string) string {
	if h.NoColor || code == "" {
		return text
	}

	return code + text + ansiCodeReset
}

// WithAttrs implements slog.Handler.WithAttrs.
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) Handler {
	return &ConsoleHandler{
		Output:    h.Output,
		Level:     h.Level,
		PkgLevels: h.PkgLevels,
		NoColor:   h.NoColor,
		attrs:     append(slices.Clip(h.attrs), attrs...),
		groups:    h.groups,
	}
}

// WithGroup implements slog.Handler.WithGroup.
func (h *ConsoleHandler) WithGroup(name string) Handler {
	return &ConsoleHandler{
		Output:    h.Output,
		Level:     h.Level,
		PkgLevels: h.PkgLevels,
		NoColor:   h.NoColor,
		attrs:     h.attrs,
		groups:    append(slices.Clip(h.groups), name),
	}
}

// Enabled implements slog.Handler.Enabled.
func (h *ConsoleHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.Level.Level() <= level
}
