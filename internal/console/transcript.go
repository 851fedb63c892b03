package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/x/ansi"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/GriffinCanCode/buildwatch/internal/domain/router"
)

// Compression selects the transcript encoding
type Compression int

const (
	CompressNone Compression = iota
	CompressGzip
	CompressZstd
)

// CompressionFor picks the encoding from a file name: .gz, .zst or plain
func CompressionFor(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".gzip":
		return CompressGzip
	case ".zst", ".zstd":
		return CompressZstd
	default:
		return CompressNone
	}
}

// Transcript records everything the sinks saw as text in the tagged-line
// format, so a transcript can be fed back through the router. Clear is not
// recorded.
type Transcript struct {
	mu     sync.Mutex
	buf    *bufio.Writer
	enc    io.WriteCloser
	file   io.Closer
	err    error
	closed bool
}

// CreateTranscript creates path, compressing by its extension
func CreateTranscript(path string) (*Transcript, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create transcript: %w", err)
	}
	t, err := NewTranscript(f, CompressionFor(path))
	if err != nil {
		f.Close()
		return nil, err
	}
	t.file = f
	return t, nil
}

// NewTranscript writes to w. Close does not close w.
func NewTranscript(w io.Writer, c Compression) (*Transcript, error) {
	var enc io.WriteCloser
	switch c {
	case CompressGzip:
		enc = gzip.NewWriter(w)
	case CompressZstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("zstd writer: %w", err)
		}
		enc = zw
	default:
		enc = nopWriteCloser{w}
	}
	return &Transcript{buf: bufio.NewWriter(enc), enc: enc}, nil
}

// Append implements LogSink. Plain text that would read back as a sigil or
// a logger line is written with an empty tab, which routes as plain text.
func (t *Transcript) Append(tab, text string, ch router.Channel) {
	text = ansi.Strip(text)
	switch {
	case ch == router.Logger:
		t.writeLine("# " + Label(tab, text))
	case tab != "" || strings.HasPrefix(text, "@") || strings.HasPrefix(text, ":") || strings.HasPrefix(text, "#"):
		t.writeLine(":" + tab + ">" + text)
	default:
		t.writeLine(text)
	}
}

// Upsert implements WatchSink
func (t *Transcript) Upsert(tab, tag, value string) {
	key := tag
	if tab != "" || strings.Contains(tag, ":") {
		key = tab + ":" + tag
	}
	t.writeLine("@" + key + ">" + ansi.Strip(value))
}

// Clear implements LogSink and WatchSink
func (t *Transcript) Clear() {}

// Flush pushes buffered lines to the encoder
func (t *Transcript) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err == nil && !t.closed {
		t.err = t.buf.Flush()
	}
	return t.err
}

// Close flushes and finalises the compressed stream
func (t *Transcript) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return t.err
	}
	t.closed = true

	errs := []error{t.err, t.buf.Flush(), t.enc.Close()}
	if t.file != nil {
		errs = append(errs, t.file.Close())
	}
	t.err = errors.Join(errs...)
	return t.err
}

func (t *Transcript) writeLine(s string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil || t.closed {
		return
	}
	if _, err := t.buf.WriteString(s); err != nil {
		t.err = err
		return
	}
	t.err = t.buf.WriteByte('\n')
}

// OpenTranscript opens a transcript for reading, decompressing by extension.
// Plain files and stdin ("-") are returned as is.
func OpenTranscript(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript: %w", err)
	}

	switch CompressionFor(path) {
	case CompressGzip:
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("gzip failed: %w", err)
		}
		return readCloser{Reader: zr, closers: []io.Closer{zr, f}}, nil
	case CompressZstd:
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("zstd failed: %w", err)
		}
		return readCloser{Reader: zr, closers: []io.Closer{zstdCloser{zr}, f}}, nil
	default:
		return f, nil
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

type zstdCloser struct{ d *zstd.Decoder }

func (z zstdCloser) Close() error {
	z.d.Close()
	return nil
}

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r readCloser) Close() error {
	var errs []error
	for _, c := range r.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
