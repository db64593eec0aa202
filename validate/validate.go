// Package validate implements the PAF coordinate validator of spec §4.7:
// recompute target/query spans from a record's CIGAR and compare them
// against the header's declared tStart/tEnd/qStart/qEnd, optionally
// rewriting a record in place to the computed spans.
package validate

import (
	"github.com/aligntool/aligntool/encoding/paf"
)

// Result is one record's validation outcome.
type Result struct {
	Record        *paf.Record
	TargetInvalid bool
	QueryInvalid  bool
	WantTargetEnd int
	WantQueryEnd  int
}

// Invalid reports whether either span disagreed with the CIGAR.
func (r Result) Invalid() bool { return r.TargetInvalid || r.QueryInvalid }

// Check recomputes r's target and query spans from its CIGAR (spec §4.2's
// consumption table, via cigar.Ops.TargetSpan/QuerySpan) and compares them
// against the declared header fields.
func Check(r *paf.Record) (Result, error) {
	cig, err := r.Cigar()
	if err != nil {
		return Result{}, err
	}
	wantTargetSpan := cig.TargetSpan()
	wantQuerySpan := cig.QuerySpan()
	res := Result{
		Record:        r,
		WantTargetEnd: r.TargetStart + wantTargetSpan,
		WantQueryEnd:  r.QueryStart + wantQuerySpan,
	}
	res.TargetInvalid = res.WantTargetEnd != r.TargetEnd
	res.QueryInvalid = res.WantQueryEnd != r.QueryEnd
	return res, nil
}

// Fix rewrites r's TargetEnd/QueryEnd to the CIGAR-derived values in place,
// leaving the CIGAR and all tags untouched (spec §4.7 "preserving the CIGAR
// and all tags"). Calling Fix on an already-fixed record is a no-op —
// satisfies "validate --fix is idempotent after one application" (spec §8).
func Fix(res Result) {
	res.Record.TargetEnd = res.WantTargetEnd
	res.Record.QueryEnd = res.WantQueryEnd
}

// Summary aggregates counts across a validation run (spec §4.7 "Report
// counts of target-invalid and query-invalid records").
type Summary struct {
	Total         int
	TargetInvalid int
	QueryInvalid  int
}

// Add folds one record's Result into the running Summary.
func (s *Summary) Add(res Result) {
	s.Total++
	if res.TargetInvalid {
		s.TargetInvalid++
	}
	if res.QueryInvalid {
		s.QueryInvalid++
	}
}
