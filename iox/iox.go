// Package iox implements the IO layer of spec §4.1: transparent
// decompression/compression over byte streams, and a line-oriented reader
// with 1-based line-number tracking. It is the leaf dependency of every
// format parser and writer in this module.
package iox

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"io"
	"os"
	"strings"

	"github.com/grailbio/base/log"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// ErrCodecUnavailable is returned when a path's extension names a codec this
// build has no library for. xz is sniffed (per spec §4.1) but no xz library
// appears anywhere in this module's dependency pack, and hand-rolling LZMA
// would defeat the point of building on a grounded ecosystem library; see
// DESIGN.md.
var ErrCodecUnavailable = errors.New("iox: codec not available in this build")

// ErrWriteUnsupported is returned by OpenWrite for codecs this module can
// only decode, never encode (bzip2: the Go ecosystem has no commonly used
// bzip2 encoder, stdlib's compress/bzip2 is decode-only).
var ErrWriteUnsupported = errors.New("iox: write not supported for this codec")

func codecForPath(path string) string {
	switch {
	case strings.HasSuffix(path, ".gz"):
		return "gz"
	case strings.HasSuffix(path, ".bz2"):
		return "bz2"
	case strings.HasSuffix(path, ".xz"):
		return "xz"
	default:
		return ""
	}
}

// LineSource is a line-iterating byte source with 1-based line-number
// tracking (spec §4.1). Readers built on a LineSource never look ahead more
// than one line, except the MAF block reader which reads until a blank line
// or EOF as the format requires.
type LineSource struct {
	path   string
	r      *bufio.Reader
	closer io.Closer
	lineNo int

	peeked    bool
	peekLine  string
	peekErr   error
}

// OpenRead opens path ("-" means stdin) for line-oriented reading,
// transparently inserting a decompressing codec chosen by the path's
// extension suffix (spec §4.1).
func OpenRead(path string) (*LineSource, error) {
	if path == "-" {
		return &LineSource{path: path, r: bufio.NewReaderSize(os.Stdin, 1<<20)}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "iox: open %s", path)
	}
	var r io.Reader = f
	var closer io.Closer = f
	switch codecForPath(path) {
	case "gz":
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "iox: %s: not a valid gzip stream", path)
		}
		r = gz
		closer = multiCloser{gz, f}
	case "bz2":
		r = bzip2.NewReader(f)
		closer = f
	case "xz":
		f.Close()
		return nil, errors.Wrapf(ErrCodecUnavailable, "iox: %s", path)
	}
	return &LineSource{
		path:   path,
		r:      bufio.NewReaderSize(r, 1<<20),
		closer: closer,
	}, nil
}

type multiCloser struct {
	first, second io.Closer
}

func (m multiCloser) Close() error {
	err := m.first.Close()
	if e := m.second.Close(); err == nil {
		err = e
	}
	return err
}

// NewLineSourceFromBytes wraps an in-memory byte slice as a LineSource,
// labeled with path for error messages. Used by mafindex to reparse a block
// read back from a seeked byte range without re-deriving the MAF grammar.
func NewLineSourceFromBytes(path string, data []byte) *LineSource {
	return &LineSource{path: path, r: bufio.NewReaderSize(bytes.NewReader(data), len(data)+1)}
}

// Path returns the path this source was opened from.
func (s *LineSource) Path() string { return s.path }

// LineNo returns the 1-based line number of the line last returned by Next.
func (s *LineSource) LineNo() int { return s.lineNo }

func (s *LineSource) readLine() (string, error) {
	line, err := s.r.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	if err == io.EOF && line == "" {
		return "", io.EOF
	}
	line = strings.TrimRight(line, "\r\n")
	return line, nil
}

// Next returns the next line, sans trailing newline, and advances LineNo. It
// returns io.EOF (with an empty string) once the stream is exhausted.
func (s *LineSource) Next() (string, error) {
	if s.peeked {
		s.peeked = false
		if s.peekErr == nil {
			s.lineNo++
		}
		return s.peekLine, s.peekErr
	}
	line, err := s.readLine()
	if err == nil {
		s.lineNo++
	}
	return line, err
}

// Peek returns the next line without consuming it. A second call to Peek
// without an intervening Next returns the same result.
func (s *LineSource) Peek() (string, error) {
	if !s.peeked {
		s.peekLine, s.peekErr = s.readLine()
		s.peeked = true
	}
	return s.peekLine, s.peekErr
}

// Close releases the underlying file and any codec resources. Closing a
// stdin-backed LineSource is a no-op.
func (s *LineSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// Sink is a byte sink with an optional compressing codec (spec §4.1).
type Sink struct {
	path   string
	w      *bufio.Writer
	flush  []func() error
	closer io.Closer
}

// OpenWrite opens path ("-" means stdout) for writing. If path already
// exists and rewrite is false, OpenWrite fails (spec §7 "Conflict" error).
// The codec is chosen by the path's extension suffix, symmetric with
// OpenRead.
func OpenWrite(path string, rewrite bool) (*Sink, error) {
	if path == "-" {
		return &Sink{path: path, w: bufio.NewWriterSize(os.Stdout, 1<<20)}, nil
	}
	if !rewrite {
		if _, err := os.Stat(path); err == nil {
			return nil, errors.Errorf("iox: %s already exists; pass -r to allow overwrite", path)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "iox: create %s", path)
	}
	sink := &Sink{path: path, closer: f}
	switch codecForPath(path) {
	case "gz":
		gz := gzip.NewWriter(f)
		sink.w = bufio.NewWriterSize(gz, 1<<20)
		sink.flush = []func() error{gz.Close}
	case "bz2":
		f.Close()
		return nil, errors.Wrapf(ErrWriteUnsupported, "iox: %s", path)
	case "xz":
		f.Close()
		return nil, errors.Wrapf(ErrCodecUnavailable, "iox: %s", path)
	default:
		sink.w = bufio.NewWriterSize(f, 1<<20)
	}
	return sink, nil
}

// Write implements io.Writer.
func (s *Sink) Write(p []byte) (int, error) { return s.w.Write(p) }

// WriteString writes a string without a copy through []byte where avoidable.
func (s *Sink) WriteString(str string) (int, error) { return s.w.WriteString(str) }

// Close flushes buffered output, runs any codec finalizers (e.g. the gzip
// trailer), and closes the underlying file. Closing a stdout-backed Sink
// flushes but does not close os.Stdout.
func (s *Sink) Close() error {
	if err := s.w.Flush(); err != nil {
		return err
	}
	for _, fn := range s.flush {
		if err := fn(); err != nil {
			return err
		}
	}
	if s.closer == nil {
		return nil
	}
	if err := s.closer.Close(); err != nil {
		log.Error.Printf("iox: close %s: %v", s.path, err)
		return err
	}
	return nil
}
