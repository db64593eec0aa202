package aux

import (
	"sort"
	"strconv"
	"strings"
)

// covEvent is a start (+1) or end (-1) delta at a target position, the
// sweep-line primitive behind Coverage. The flattened-sorted-event
// technique is grounded on interval/bedunion.go's searchPosType array,
// adapted here to a running-sum sweep rather than an in/out parity test.
type covEvent struct {
	pos   int
	delta int
}

// CoverageInterval is one constant-depth run in the swept coverage profile.
type CoverageInterval struct {
	Chrom      string
	Start, End int
	Depth      int
}

// BEDLine renders c as a BED4 line ("chrom\tstart\tend\tdepth").
func (c CoverageInterval) BEDLine() string {
	return strings.Join([]string{c.Chrom, strconv.Itoa(c.Start), strconv.Itoa(c.End), strconv.Itoa(c.Depth)}, "\t")
}

// Coverage sweeps target intervals [start,end) per chromosome and emits
// BED-style per-base coverage depth (spec §4.8 "PAF Coverage": "emit
// BED-style per-base coverage per sequence by sweeping record intervals").
// Depth-0 gaps between intervals are omitted.
func Coverage(chrom string, intervals [][2]int) []CoverageInterval {
	events := make([]covEvent, 0, 2*len(intervals))
	for _, iv := range intervals {
		events = append(events, covEvent{iv[0], 1}, covEvent{iv[1], -1})
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].pos != events[j].pos {
			return events[i].pos < events[j].pos
		}
		return events[i].delta < events[j].delta // ends before starts at the same position
	})

	var out []CoverageInterval
	depth := 0
	for i := 0; i < len(events); {
		pos := events[i].pos
		for i < len(events) && events[i].pos == pos {
			depth += events[i].delta
			i++
		}
		if i < len(events) && depth > 0 {
			out = append(out, CoverageInterval{Chrom: chrom, Start: pos, End: events[i].pos, Depth: depth})
		}
	}
	return out
}
