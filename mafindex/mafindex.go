// Package mafindex implements the MAF random-access index of spec §4.5: a
// sparse table of (sequence name, target interval, byte offset, byte length)
// built by a single scan of a MAF file, then queried by binary search and
// used to extract column-clipped sub-blocks without rereading the file.
package mafindex

import (
	"bufio"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	farm "github.com/dgryski/go-farm"
	"github.com/aligntool/aligntool/align"
	"github.com/aligntool/aligntool/encoding/maf"
	"github.com/aligntool/aligntool/iox"
	"github.com/biogo/store/llrb"
	"github.com/grailbio/base/log"
	"github.com/pkg/errors"
)

// Entry is one row of the index: the target span of a block, keyed by the
// name of the block's first sequence line (spec §4.5 "Build").
type Entry struct {
	Name   string
	Start  int
	End    int
	Offset int64
	Length int64
	Digest uint64
}

// key adapts an *Entry for ordering in an llrb.Tree by (Name, Start),
// grounded on encoding/bampair/shard_info.go's key/Compare pattern.
type key struct {
	entry *Entry
}

func (k key) Compare(c llrb.Comparable) int {
	o := c.(key)
	if d := strings.Compare(k.entry.Name, o.entry.Name); d != 0 {
		return d
	}
	return k.entry.Start - o.entry.Start
}

// Index is the built, queryable table: entries sorted by (Name, Start),
// flattened from the llrb.Tree used to accumulate them during Build so that
// Query can binary-search per spec §4.5.
type Index struct {
	entries []*Entry
	byName  map[string][]*Entry
}

// Build scans path (which must be an uncompressed, seekable MAF file — the
// index stores byte offsets for later os.File.Seek, which transparent
// decompression cannot support) and returns a sorted Index. For each block
// it records the target span taken from the block's first sequence line,
// the block's byte extent, and a farm.Hash64 digest of the block's raw
// bytes, used by Verify to detect a stale index.
func Build(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "mafindex: open %s", path)
	}
	defer f.Close()

	cr := &countingReader{r: bufio.NewReaderSize(f, 1<<20)}
	tree := llrb.Tree{}

	var blockStart int64
	var buf strings.Builder
	inBlock := false
	var firstName string
	var firstStart, firstEnd int

	flush := func(blockEnd int64) error {
		if !inBlock {
			return nil
		}
		e := &Entry{
			Name:   firstName,
			Start:  firstStart,
			End:    firstEnd,
			Offset: blockStart,
			Length: blockEnd - blockStart,
			Digest: farm.Hash64([]byte(buf.String())),
		}
		tree.Insert(key{e})
		buf.Reset()
		inBlock = false
		return nil
	}

	for {
		lineStart := cr.n
		line, err := cr.readLine()
		if err != nil && err != io.EOF {
			return nil, errors.Wrapf(err, "mafindex: reading %s", path)
		}
		atEOF := err == io.EOF
		trimmed := strings.TrimRight(line, "\r\n")

		if trimmed == "" {
			if err := flush(lineStart); err != nil {
				return nil, err
			}
			if atEOF {
				break
			}
			continue
		}
		fields := strings.Fields(trimmed)
		if fields[0] == "a" {
			if err := flush(lineStart); err != nil {
				return nil, err
			}
			inBlock = true
			blockStart = lineStart
			buf.WriteString(line)
			firstName = ""
		} else if inBlock {
			buf.WriteString(line)
			if fields[0] == "s" && firstName == "" && len(fields) == 7 {
				firstName = fields[1]
				if firstStart, err = strconv.Atoi(fields[2]); err != nil {
					return nil, errors.Wrapf(err, "mafindex: %s: bad s-line start", path)
				}
				size, err := strconv.Atoi(fields[3])
				if err != nil {
					return nil, errors.Wrapf(err, "mafindex: %s: bad s-line size", path)
				}
				firstEnd = firstStart + size
			}
		}
		if atEOF {
			if err := flush(cr.n); err != nil {
				return nil, err
			}
			break
		}
	}

	idx := &Index{byName: make(map[string][]*Entry)}
	tree.Do(func(c llrb.Comparable) bool {
		e := c.(key).entry
		idx.entries = append(idx.entries, e)
		idx.byName[e.Name] = append(idx.byName[e.Name], e)
		return false // not done: visit every entry
	})
	return idx, nil
}

// countingReader wraps a *bufio.Reader, tracking the absolute byte offset of
// the next unread byte so block boundaries can be recorded for later Seek.
type countingReader struct {
	r *bufio.Reader
	n int64
}

func (c *countingReader) readLine() (string, error) {
	line, err := c.r.ReadString('\n')
	c.n += int64(len(line))
	if err != nil {
		return line, err
	}
	return line, nil
}

// Query returns every entry for name whose interval overlaps [start, end),
// found by binary search over the per-name sorted slice (spec §4.5 "Query").
// Unknown names or an empty/inverted request range return nil — the
// caller is expected to warn and skip per spec §4.5 "Edge cases".
func (idx *Index) Query(name string, start, end int) []*Entry {
	if start >= end {
		return nil
	}
	entries, ok := idx.byName[name]
	if !ok {
		return nil
	}
	// entries are sorted by Start; find the first entry whose End could
	// overlap start, then scan forward while entries still start before end.
	i := sort.Search(len(entries), func(i int) bool { return entries[i].End > start })
	var hits []*Entry
	for ; i < len(entries) && entries[i].Start < end; i++ {
		hits = append(hits, entries[i])
	}
	return hits
}

// Entries returns all entries in (Name, Start) order, for persistence.
func (idx *Index) Entries() []*Entry { return idx.entries }

// WriteTable persists idx as a tab-separated companion file (spec §6: "a
// tab-separated companion file so long as lookup is O(log N)").
func WriteTable(sink *iox.Sink, idx *Index) error {
	for _, e := range idx.entries {
		line := strings.Join([]string{
			e.Name,
			strconv.Itoa(e.Start),
			strconv.Itoa(e.End),
			strconv.FormatInt(e.Offset, 10),
			strconv.FormatInt(e.Length, 10),
			strconv.FormatUint(e.Digest, 16),
		}, "\t")
		if _, err := sink.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// ReadTable loads an Index previously written by WriteTable.
func ReadTable(src *iox.LineSource) (*Index, error) {
	idx := &Index{byName: make(map[string][]*Entry)}
	for {
		line, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if line == "" {
			continue
		}
		f := strings.Split(line, "\t")
		if len(f) != 6 {
			return nil, errors.Errorf("mafindex: %s:%d: malformed row, want 6 fields, got %d", src.Path(), src.LineNo(), len(f))
		}
		e := &Entry{Name: f[0]}
		var err2 error
		if e.Start, err2 = strconv.Atoi(f[1]); err2 != nil {
			return nil, err2
		}
		if e.End, err2 = strconv.Atoi(f[2]); err2 != nil {
			return nil, err2
		}
		if e.Offset, err2 = strconv.ParseInt(f[3], 10, 64); err2 != nil {
			return nil, err2
		}
		if e.Length, err2 = strconv.ParseInt(f[4], 10, 64); err2 != nil {
			return nil, err2
		}
		if e.Digest, err2 = strconv.ParseUint(f[5], 16, 64); err2 != nil {
			return nil, err2
		}
		idx.entries = append(idx.entries, e)
		idx.byName[e.Name] = append(idx.byName[e.Name], e)
	}
	return idx, nil
}

// Verify recomputes the digest of every entry against the MAF file at path
// and returns the entries whose bytes no longer match, indicating a
// stale index (spec §4.5 supplement; see SPEC_FULL.md's MAF Index Entry
// digest addition).
func Verify(path string, idx *Index) ([]*Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "mafindex: open %s", path)
	}
	defer f.Close()

	var stale []*Entry
	for _, e := range idx.entries {
		buf := make([]byte, e.Length)
		if _, err := f.ReadAt(buf, e.Offset); err != nil {
			return nil, errors.Wrapf(err, "mafindex: reading block at offset %d", e.Offset)
		}
		if farm.Hash64(buf) != e.Digest {
			stale = append(stale, e)
		}
	}
	return stale, nil
}

// Extract seeks to e's block in path, reads it, and clips it by column to
// cover exactly [reqStart, reqEnd) of e's target interval: every 's' line's
// start/size is adjusted and its gapped sequence trimmed on both sides (spec
// §4.5 "Extraction"). Extract clamps reqStart/reqEnd to [e.Start, e.End) and
// returns an error if the clamped range is empty.
func Extract(path string, e *Entry, reqStart, reqEnd int) (*align.MAFBlock, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "mafindex: open %s", path)
	}
	defer f.Close()

	buf := make([]byte, e.Length)
	if _, err := f.ReadAt(buf, e.Offset); err != nil {
		return nil, errors.Wrapf(err, "mafindex: reading block at offset %d", e.Offset)
	}

	src := iox.NewLineSourceFromBytes(path, buf)
	block, err := maf.NewReader(src).ReadBlock()
	if err != nil && err != io.EOF {
		return nil, errors.Wrapf(err, "mafindex: reparsing extracted block at offset %d", e.Offset)
	}
	if block == nil {
		return nil, errors.Errorf("mafindex: empty block at offset %d", e.Offset)
	}

	clipStart := reqStart
	if clipStart < e.Start {
		clipStart = e.Start
	}
	clipEnd := reqEnd
	if clipEnd > e.End {
		clipEnd = e.End
	}
	if clipStart >= clipEnd {
		return nil, errors.Errorf("mafindex: requested range [%d,%d) does not overlap block [%d,%d)", reqStart, reqEnd, e.Start, e.End)
	}

	return clipBlock(block, e, clipStart, clipEnd)
}

// clipBlock trims every sequence line of block to the reference columns
// spanning [clipStart, clipEnd) of the reference line's target coordinates,
// walking gapped columns in lockstep across all lines.
func clipBlock(block *align.MAFBlock, ref *Entry, clipStart, clipEnd int) (*align.MAFBlock, error) {
	gappedLen := block.GappedLen()
	refSeq := block.Lines[0].Seq

	// Walk reference columns, tracking ungapped target position, to find the
	// gapped column range [colStart, colEnd) covering [clipStart, clipEnd).
	pos := ref.Start
	colStart, colEnd := -1, gappedLen
	for col := 0; col < gappedLen; col++ {
		if colStart == -1 && pos >= clipStart {
			colStart = col
		}
		if refSeq[col] != '-' {
			pos++
		}
		if pos >= clipEnd {
			colEnd = col + 1
			break
		}
	}
	if colStart == -1 {
		return nil, errors.Errorf("mafindex: clip range [%d,%d) not found in reference columns", clipStart, clipEnd)
	}

	out := &align.MAFBlock{Score: block.Score}
	for _, l := range block.Lines {
		clipped := l.Seq[colStart:colEnd]
		leading := align.UngappedSize(l.Seq[:colStart])
		kept := align.UngappedSize(clipped)
		newStart := l.Start + leading
		out.Lines = append(out.Lines, align.MAFSeqLine{
			Name:    l.Name,
			Start:   newStart,
			Size:    kept,
			Strand:  l.Strand,
			SrcSize: l.SrcSize,
			Seq:     clipped,
		})
	}
	log.Debug.Printf("mafindex: clipped block %s:%d-%d to columns [%d,%d)", ref.Name, ref.Start, ref.End, colStart, colEnd)
	return out, nil
}
