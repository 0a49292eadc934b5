package quads

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/triplewalk/internal/models"
)

// maxLineBytes bounds a single statement.
const maxLineBytes = 1 << 20

// Options configures a Reader.
type Options struct {
	// Lang keeps only literals in this language; empty keeps all.
	Lang string

	// Lenient skips malformed statements instead of failing. Skipped lines
	// are counted and logged at debug level.
	Lenient bool

	Log *logrus.Logger
}

// Reader yields triples from an N-Triples or N-Quads stream.
type Reader struct {
	scanner *bufio.Scanner
	parser  Parser
	opts    Options
	line    int
	skipped int
}

// NewReader reads statements from r.
func NewReader(r io.Reader, opts Options) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}

	return &Reader{scanner: sc, parser: Parser{Lang: opts.Lang}, opts: opts}
}

// Next returns the next triple, or io.EOF when the stream is exhausted.
func (r *Reader) Next() (models.Triple, error) {
	for r.scanner.Scan() {
		r.line++

		t, ok, err := r.parser.ParseLine(r.scanner.Text())
		if err != nil {
			if !r.opts.Lenient {
				return models.Triple{}, fmt.Errorf("line %d: %w", r.line, err)
			}

			r.skipped++
			r.opts.Log.WithFields(logrus.Fields{"line": r.line, "error": err}).Debug("skipping malformed statement")

			continue
		}

		if ok {
			return t, nil
		}
	}

	if err := r.scanner.Err(); err != nil {
		return models.Triple{}, fmt.Errorf("reading line %d: %w", r.line+1, err)
	}

	return models.Triple{}, io.EOF
}

// Line returns the number of lines consumed so far.
func (r *Reader) Line() int { return r.line }

// Skipped returns the number of malformed lines skipped in lenient mode.
func (r *Reader) Skipped() int { return r.skipped }

// File is a Reader over a file on disk.
type File struct {
	*Reader
	closers []io.Closer
}

// Open opens path for reading. Files ending in .gz or .zst are
// decompressed on the fly.
func Open(path string, opts Options) (*File, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from operator config or CLI args.
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	var (
		src     io.Reader = f
		closers           = []io.Closer{f}
	)

	switch {
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()

			return nil, fmt.Errorf("opening gzip stream %s: %w", path, err)
		}

		src = gz
		closers = append([]io.Closer{gz}, closers...)
	case strings.HasSuffix(path, ".zst"):
		dec, err := zstd.NewReader(f)
		if err != nil {
			f.Close()

			return nil, fmt.Errorf("opening zstd stream %s: %w", path, err)
		}

		src = dec
		closers = append([]io.Closer{zstdCloser{dec}}, closers...)
	}

	return &File{Reader: NewReader(src, opts), closers: closers}, nil
}

// Close releases the decompressor and the file.
func (f *File) Close() error {
	var errs []error

	for _, c := range f.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// zstdCloser adapts zstd.Decoder, whose Close returns nothing.
type zstdCloser struct{ d *zstd.Decoder }

func (z zstdCloser) Close() error {
	z.d.Close()

	return nil
}
