package logging

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Options select level, format and an optional log file. An empty File
// disables file logging.
type Options struct {
	Level  string
	Format string
	File   string
}

// teeWriter holds log output back while the terminal is owned by the TUI
// and replays it to the next target. The file, if any, always gets every
// line immediately.
type teeWriter struct {
	mu        sync.Mutex   // Guards every field below
	pending   bytes.Buffer // Terminal output held back while buffering
	target    io.Writer    // Live terminal destination, nil while buffering
	file      *os.File     // Optional log file, gets every line
	buffering bool
}

func (w *teeWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var errs []error
	switch {
	case w.buffering:
		// bytes.Buffer.Write never fails.
		w.pending.Write(p)
	case w.target != nil:
		if _, err := w.target.Write(p); err != nil {
			errs = append(errs, err)
		}
	}

	// The file is written independent of buffering.
	if w.file != nil {
		if _, err := w.file.Write(p); err != nil {
			errs = append(errs, err)
		}
	}
	return len(p), errors.Join(errs...)
}

var (
	// mu guards swapping writer in Init.
	mu sync.Mutex
	// Before Init everything goes to stderr.
	writer = &teeWriter{target: os.Stderr}
)

// ParseLevel maps DEBUG, INFO, WARN and ERROR to slog levels. Anything
// else yields info.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		// INFO and anything unknown
		return slog.LevelInfo
	}
}

// Init installs the default slog logger. With bufferOutput set nothing is
// written to a terminal until SetOutput is called.
func Init(bufferOutput bool, opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	w := &teeWriter{buffering: bufferOutput}
	if !bufferOutput {
		// No TUI, log straight to the terminal.
		w.target = os.Stderr
	}
	if opts.File != "" {
		file, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		w.file = file
	}
	writer = w

	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}
	var handler slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// For returns the default logger tagged with a module attribute.
func For(module string) *slog.Logger {
	return slog.Default().With("module", module)
}

func current() *teeWriter {
	mu.Lock()
	defer mu.Unlock()
	return writer
}

// SetOutput replays anything buffered to target and switches to live
// output.
func SetOutput(target io.Writer) error {
	w := current()
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending.Len() > 0 {
		if _, err := target.Write(w.pending.Bytes()); err != nil {
			return err // Keep the buffer, nothing was replayed
		}
		w.pending.Reset()
	}
	w.target = target
	w.buffering = false
	return nil
}

// BufferOutput stops live output and starts buffering again.
func BufferOutput() {
	w := current()
	w.mu.Lock()
	defer w.mu.Unlock()
	w.target = nil
	w.buffering = true
}

// Close flushes buffered output to stderr and closes the log file. Lines
// held back while buffering already reached the file when they were
// written, only the terminal copy is replayed.
func Close() error {
	w := current()
	w.mu.Lock()
	defer w.mu.Unlock()

	var errs []error
	// Whatever the TUI never showed ends up on the terminal after it exits.
	if w.pending.Len() > 0 {
		if _, err := os.Stderr.Write(w.pending.Bytes()); err != nil {
			errs = append(errs, err)
		}
		w.pending.Reset()
	}
	if w.file != nil {
		errs = append(errs, w.file.Close())
		w.file = nil
	}
	// Late log lines after Close still reach stderr.
	w.target = os.Stderr
	w.buffering = false
	return errors.Join(errs...)
}
