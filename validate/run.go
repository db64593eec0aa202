package validate

import (
	"io"

	"github.com/aligntool/aligntool/encoding/paf"
)

// Run validates every record read from r, reporting each Result to report
// and folding it into the returned Summary. When w is non-nil, every record
// is rewritten to computed spans (spec §4.7 "--fix") before being written to
// w, whether or not it was invalid — matching "validate --fix is idempotent
// after one application" (spec §8 S2): fixing an already-valid record is a
// no-op on its spans.
func Run(r *paf.Reader, w *paf.Writer, report func(Result)) (Summary, error) {
	var sum Summary
	for {
		rec, err := r.ReadRecord()
		if err == io.EOF {
			break
		}
		if err != nil {
			return sum, err
		}
		res, err := Check(rec)
		if err != nil {
			return sum, err
		}
		sum.Add(res)
		if report != nil {
			report(res)
		}
		if w != nil {
			Fix(res)
			if err := w.WriteRecord(rec); err != nil {
				return sum, err
			}
		}
	}
	return sum, nil
}
