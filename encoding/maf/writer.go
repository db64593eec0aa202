package maf

import (
	"strconv"
	"strings"

	"github.com/aligntool/aligntool/align"
	"github.com/aligntool/aligntool/iox"
)

// Writer writes MAF blocks to a Sink. The writer contract (spec §4.3)
// requires a MAF→PAF→MAF round trip to reproduce the original block set
// byte-for-byte modulo comment/whitespace normalization; Writer always
// emits single-space-separated fields to satisfy that.
type Writer struct {
	sink      *iox.Sink
	wroteAny  bool
}

// NewWriter returns a Writer over sink.
func NewWriter(sink *iox.Sink) *Writer {
	return &Writer{sink: sink}
}

// WriteHeader emits leading '#' comment lines, verbatim.
func (w *Writer) WriteHeader(lines []string) error {
	for _, l := range lines {
		if _, err := w.sink.WriteString(l + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// WriteBlock writes one MAF block. Every block after the first is preceded
// by a blank separator line; no blank line follows the last block.
func (w *Writer) WriteBlock(b *align.MAFBlock) error {
	if w.wroteAny {
		if _, err := w.sink.WriteString("\n"); err != nil {
			return err
		}
	}
	w.wroteAny = true

	var a strings.Builder
	a.WriteString("a")
	if b.Score != nil {
		a.WriteString(" score=")
		a.WriteString(strconv.FormatFloat(*b.Score, 'f', -1, 64))
	}
	a.WriteString("\n")
	if _, err := w.sink.WriteString(a.String()); err != nil {
		return err
	}

	for _, l := range b.Lines {
		line := strings.Join([]string{
			"s", l.Name, strconv.Itoa(l.Start), strconv.Itoa(l.Size),
			string(l.Strand), strconv.Itoa(l.SrcSize), l.Seq,
		}, " ")
		if _, err := w.sink.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	for _, il := range b.Info {
		line := strings.Join([]string{
			"i", il.Name,
			string(il.LeftStatus), strconv.Itoa(il.LeftCount),
			string(il.RightStatus), strconv.Itoa(il.RightCount),
		}, " ")
		if _, err := w.sink.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	for _, ql := range b.Quality {
		if _, err := w.sink.WriteString("q " + ql.Name + " " + ql.Quality + "\n"); err != nil {
			return err
		}
	}
	for _, el := range b.Empty {
		line := strings.Join([]string{
			"e", el.Name, strconv.Itoa(el.Start), strconv.Itoa(el.Size),
			string(el.Strand), strconv.Itoa(el.SrcSize), string(el.Status),
		}, " ")
		if _, err := w.sink.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return nil
}
