// Package aux implements the auxiliary MAF/PAF passes of spec §4.8: chunk,
// filter, rename, stat, pafcov, and pafpseudo, plus the experimental
// maf2sam pass-through.
package aux

import (
	"github.com/aligntool/aligntool/align"
)

// Chunk splits b into sub-blocks of at most maxCols aligned (gapped)
// columns, adjusting each sub-block's s-line Start/Size to the bases it
// actually carries (spec §4.8 "Chunk"). Info/Quality/Empty annotation lines
// are dropped from sub-blocks past the first, since they describe the
// block's flanks as a whole and don't have a natural per-chunk meaning.
func Chunk(b *align.MAFBlock, maxCols int) []*align.MAFBlock {
	total := b.GappedLen()
	if total == 0 || maxCols <= 0 || total <= maxCols {
		return []*align.MAFBlock{b}
	}

	starts := make([]int, len(b.Lines))
	for i, l := range b.Lines {
		starts[i] = l.Start
	}

	var out []*align.MAFBlock
	for col := 0; col < total; col += maxCols {
		end := col + maxCols
		if end > total {
			end = total
		}
		sub := &align.MAFBlock{Score: b.Score}
		for i, l := range b.Lines {
			seg := l.Seq[col:end]
			consumed := align.UngappedSize(l.Seq[:col])
			sub.Lines = append(sub.Lines, align.MAFSeqLine{
				Name: l.Name, Strand: l.Strand, SrcSize: l.SrcSize,
				Start: starts[i] + consumed,
				Size:  align.UngappedSize(seg),
				Seq:   seg,
			})
		}
		if col == 0 {
			sub.Info = b.Info
			sub.Quality = b.Quality
			sub.Empty = b.Empty
		}
		out = append(out, sub)
	}
	return out
}
