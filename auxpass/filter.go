package aux

import (
	"github.com/grailbio/base/log"
)

// FilterThresholds configures Filter (spec §4.8 "Filter" / §6 `filter -q`,
// `filter -a`).
type FilterThresholds struct {
	MinBlockLength int // minimum gapped block length
	MinQuerySize   int // minimum ungapped query sequence size
	MinAlignSize   int // minimum ungapped target (alignment) size
	Lenient        bool
}

// Passable is satisfied by any record shape Filter can threshold: MAF
// blocks and PAF/CHAIN-derived normalized records all expose the same three
// lengths once projected through these three functions.
type Passable struct {
	BlockLength int
	QuerySize   int
	AlignSize   int
}

// Keep reports whether a record described by p clears every configured
// threshold (spec §4.8 "drop records below thresholds").
func (t FilterThresholds) Keep(p Passable) bool {
	if t.MinBlockLength > 0 && p.BlockLength < t.MinBlockLength {
		return false
	}
	if t.MinQuerySize > 0 && p.QuerySize < t.MinQuerySize {
		return false
	}
	if t.MinAlignSize > 0 && p.AlignSize < t.MinAlignSize {
		return false
	}
	return true
}

// Degrade reports the lenient-mode behavior for a record-level error (spec
// §7 "record-level parse errors in filter/stat with --lenient degrade to
// skip+warn"): when lenient, the error is logged and the caller should skip
// the record rather than abort; otherwise the error is fatal to the pass.
func (t FilterThresholds) Degrade(context string, err error) (skip bool) {
	if !t.Lenient {
		return false
	}
	log.Error.Printf("%s: skipping record: %v", context, err)
	return true
}
