// Package maf implements the streaming MAF block reader and writer of spec
// §4.3.1: a block opens with an 'a' line, is followed by two or more 's'
// lines and optional 'i'/'q'/'e' annotation lines, and is terminated by a
// blank line or EOF.
package maf

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aligntool/aligntool/align"
	"github.com/aligntool/aligntool/iox"
	"github.com/pkg/errors"
)

// Reader reads MAF blocks from a LineSource, reading ahead only as far as a
// single block's worth of lines per spec §4.1's lookahead guarantee.
type Reader struct {
	src    *iox.LineSource
	header []string
	read   bool
}

// NewReader returns a Reader over src.
func NewReader(src *iox.LineSource) *Reader {
	return &Reader{src: src}
}

// Header returns the leading '#' comment lines, preserved verbatim for
// pass-through (spec §4.3.1). It is only valid after the first call to
// ReadBlock (or after ReadBlock first returns io.EOF on an empty/comment-only
// file).
func (r *Reader) Header() []string { return r.header }

func splitFields(line string) []string {
	return strings.Fields(line)
}

// ReadBlock reads and returns the next block, or io.EOF when the stream is
// exhausted.
func (r *Reader) ReadBlock() (*align.MAFBlock, error) {
	// Skip blank lines and collect leading comments before the first block.
	for {
		line, err := r.src.Peek()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			return nil, errors.Wrapf(err, "maf: %s:%d", r.src.Path(), r.src.LineNo()+1)
		}
		if line == "" {
			if _, err := r.src.Next(); err != nil {
				return nil, err
			}
			continue
		}
		if strings.HasPrefix(line, "#") {
			if !r.read {
				r.header = append(r.header, line)
			}
			if _, err := r.src.Next(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	r.read = true

	aLine, err := r.src.Next()
	if err != nil {
		return nil, err
	}
	fields := splitFields(aLine)
	if len(fields) == 0 || fields[0] != "a" {
		return nil, r.parseErr("expected 'a' line, got %q", aLine)
	}
	block := &align.MAFBlock{}
	for _, tag := range fields[1:] {
		if strings.HasPrefix(tag, "score=") {
			v, err := strconv.ParseFloat(strings.TrimPrefix(tag, "score="), 64)
			if err != nil {
				return nil, r.parseErr("bad score tag %q", tag)
			}
			block.Score = &v
		}
	}

	for {
		line, err := r.src.Peek()
		if err == io.EOF || line == "" {
			if _, err2 := r.src.Next(); err2 != nil && err2 != io.EOF {
				return nil, err2
			}
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "maf: %s:%d", r.src.Path(), r.src.LineNo()+1)
		}
		line, _ = r.src.Next()
		fields = splitFields(line)
		if len(fields) == 0 {
			break
		}
		switch fields[0] {
		case "s":
			sl, err := parseSeqLine(fields)
			if err != nil {
				return nil, r.parseErr("%v", err)
			}
			block.Lines = append(block.Lines, sl)
		case "i":
			il, err := parseInfoLine(fields)
			if err != nil {
				return nil, r.parseErr("%v", err)
			}
			block.Info = append(block.Info, il)
		case "q":
			if len(fields) != 3 {
				return nil, r.parseErr("malformed q line %q", line)
			}
			block.Quality = append(block.Quality, align.MAFQualityLine{Name: fields[1], Quality: fields[2]})
		case "e":
			el, err := parseEmptyLine(fields)
			if err != nil {
				return nil, r.parseErr("%v", err)
			}
			block.Empty = append(block.Empty, el)
		default:
			return nil, r.parseErr("unknown MAF line type %q", fields[0])
		}
	}

	if len(block.Lines) < 2 {
		return nil, r.parseErr("block has %d sequence lines, need at least 2", len(block.Lines))
	}
	if err := block.CheckGapped(); err != nil {
		return nil, r.parseErr("%v", err)
	}
	return block, nil
}

func (r *Reader) parseErr(format string, args ...interface{}) error {
	return errors.Errorf("maf: %s:%d: %s", r.src.Path(), r.src.LineNo(), fmt.Sprintf(format, args...))
}

func parseSeqLine(f []string) (align.MAFSeqLine, error) {
	if len(f) != 7 {
		return align.MAFSeqLine{}, errors.Errorf("malformed s line, want 7 fields, got %d", len(f))
	}
	start, err := strconv.Atoi(f[2])
	if err != nil {
		return align.MAFSeqLine{}, errors.Wrap(err, "bad start")
	}
	size, err := strconv.Atoi(f[3])
	if err != nil {
		return align.MAFSeqLine{}, errors.Wrap(err, "bad size")
	}
	strand, ok := align.ParseStrand(f[4])
	if !ok {
		return align.MAFSeqLine{}, errors.Errorf("bad strand %q", f[4])
	}
	srcSize, err := strconv.Atoi(f[5])
	if err != nil {
		return align.MAFSeqLine{}, errors.Wrap(err, "bad srcSize")
	}
	return align.MAFSeqLine{
		Name:    f[1],
		Start:   start,
		Size:    size,
		Strand:  strand,
		SrcSize: srcSize,
		Seq:     f[6],
	}, nil
}

func parseInfoLine(f []string) (align.MAFInfoLine, error) {
	if len(f) != 6 {
		return align.MAFInfoLine{}, errors.Errorf("malformed i line, want 6 fields, got %d", len(f))
	}
	leftCount, err := strconv.Atoi(f[3])
	if err != nil {
		return align.MAFInfoLine{}, errors.Wrap(err, "bad leftCount")
	}
	rightCount, err := strconv.Atoi(f[5])
	if err != nil {
		return align.MAFInfoLine{}, errors.Wrap(err, "bad rightCount")
	}
	return align.MAFInfoLine{
		Name:        f[1],
		LeftStatus:  f[2][0],
		LeftCount:   leftCount,
		RightStatus: f[4][0],
		RightCount:  rightCount,
	}, nil
}

func parseEmptyLine(f []string) (align.MAFEmptyLine, error) {
	if len(f) != 7 {
		return align.MAFEmptyLine{}, errors.Errorf("malformed e line, want 7 fields, got %d", len(f))
	}
	start, err := strconv.Atoi(f[2])
	if err != nil {
		return align.MAFEmptyLine{}, errors.Wrap(err, "bad start")
	}
	size, err := strconv.Atoi(f[3])
	if err != nil {
		return align.MAFEmptyLine{}, errors.Wrap(err, "bad size")
	}
	strand, ok := align.ParseStrand(f[4])
	if !ok {
		return align.MAFEmptyLine{}, errors.Errorf("bad strand %q", f[4])
	}
	srcSize, err := strconv.Atoi(f[5])
	if err != nil {
		return align.MAFEmptyLine{}, errors.Wrap(err, "bad srcSize")
	}
	return align.MAFEmptyLine{
		Name:    f[1],
		Start:   start,
		Size:    size,
		Strand:  strand,
		SrcSize: srcSize,
		Status:  f[6][0],
	}, nil
}
