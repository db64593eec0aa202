package convert

import (
	"github.com/aligntool/aligntool/align"
	"github.com/aligntool/aligntool/encoding/chain"
	"github.com/aligntool/aligntool/encoding/maf"
	"github.com/aligntool/aligntool/encoding/paf"
	"github.com/aligntool/aligntool/fetcher"
)

// MAF2PAF converts every block read from r into a PAF record written to w,
// in input order, across threads parallel workers (spec §4.4 "MAF → PAF").
func MAF2PAF(r *maf.Reader, w *paf.Writer, threads int) error {
	return run(threads,
		func() (interface{}, error) { return r.ReadBlock() },
		func(_ int, rec interface{}) (interface{}, error) {
			norm, err := maf.ToNormalized(rec.(*align.MAFBlock))
			if err != nil {
				return nil, err
			}
			if err := norm.CheckSpans(); err != nil {
				return nil, err
			}
			return paf.FromNormalized(norm), nil
		},
		func(out interface{}) error { return w.WriteRecord(out.(*paf.Record)) },
	)
}

// MAF2Chain converts every block read from r into a Chain written to w (spec
// §4.4 "MAF → CHAIN"). Chain IDs are assigned sequentially by input order.
func MAF2Chain(r *maf.Reader, w *chain.Writer, threads int) error {
	return run(threads,
		func() (interface{}, error) { return r.ReadBlock() },
		func(idx int, rec interface{}) (interface{}, error) {
			norm, err := maf.ToNormalized(rec.(*align.MAFBlock))
			if err != nil {
				return nil, err
			}
			if err := norm.CheckSpans(); err != nil {
				return nil, err
			}
			return chain.FromNormalized(norm, idx), nil
		},
		func(out interface{}) error { return w.WriteChain(out.(*align.Chain)) },
	)
}

// PAF2MAF converts every record read from r into a MAF block written to w
// (spec §4.4 "PAF → MAF"). It requires both a target and a query
// SequenceFetcher to materialize gapped bases — MAF, unlike PAF, carries
// actual sequence (spec §7 "Capability-missing" error if absent is enforced
// by the caller before invoking this function).
func PAF2MAF(r *paf.Reader, w *maf.Writer, targetFetcher, queryFetcher fetcher.Fetcher, threads int) error {
	return run(threads,
		func() (interface{}, error) { return r.ReadRecord() },
		func(_ int, rec interface{}) (interface{}, error) {
			pr := rec.(*paf.Record)
			norm, err := pr.ToNormalized()
			if err != nil {
				return nil, err
			}
			tSeq, err := targetFetcher.Fetch(norm.TargetName, norm.TargetStart, norm.TargetEnd, align.Forward)
			if err != nil {
				return nil, err
			}
			qSeq, err := queryFetcher.Fetch(norm.QueryName, norm.QueryStart, norm.QueryEnd, norm.QueryStrand)
			if err != nil {
				return nil, err
			}
			return maf.FromNormalized(norm, tSeq, qSeq)
		},
		func(out interface{}) error { return w.WriteBlock(out.(*align.MAFBlock)) },
	)
}

// PAF2Chain converts every record read from r into a Chain written to w
// (spec §4.4 "PAF → CHAIN").
func PAF2Chain(r *paf.Reader, w *chain.Writer, threads int) error {
	return run(threads,
		func() (interface{}, error) { return r.ReadRecord() },
		func(idx int, rec interface{}) (interface{}, error) {
			norm, err := rec.(*paf.Record).ToNormalized()
			if err != nil {
				return nil, err
			}
			return chain.FromNormalized(norm, idx), nil
		},
		func(out interface{}) error { return w.WriteChain(out.(*align.Chain)) },
	)
}

// Chain2MAF converts every Chain read from r into a MAF block written to w
// (spec §4.4 "CHAIN → MAF"), using the §4.4 literal CIGAR reconstruction
// (size×'=', dt×'D', dq×'I') and fetching bases as PAF2MAF does.
func Chain2MAF(r *chain.Reader, w *maf.Writer, targetFetcher, queryFetcher fetcher.Fetcher, threads int) error {
	return run(threads,
		func() (interface{}, error) { return r.ReadChain() },
		func(_ int, rec interface{}) (interface{}, error) {
			norm := chain.ToNormalized(rec.(*align.Chain))
			if err := norm.CheckSpans(); err != nil {
				return nil, err
			}
			tSeq, err := targetFetcher.Fetch(norm.TargetName, norm.TargetStart, norm.TargetEnd, align.Forward)
			if err != nil {
				return nil, err
			}
			qSeq, err := queryFetcher.Fetch(norm.QueryName, norm.QueryStart, norm.QueryEnd, norm.QueryStrand)
			if err != nil {
				return nil, err
			}
			return maf.FromNormalized(norm, tSeq, qSeq)
		},
		func(out interface{}) error { return w.WriteBlock(out.(*align.MAFBlock)) },
	)
}

// Chain2PAF converts every Chain read from r into a PAF record written to w
// (spec §4.4 "CHAIN → PAF").
func Chain2PAF(r *chain.Reader, w *paf.Writer, threads int) error {
	return run(threads,
		func() (interface{}, error) { return r.ReadChain() },
		func(_ int, rec interface{}) (interface{}, error) {
			norm := chain.ToNormalized(rec.(*align.Chain))
			if err := norm.CheckSpans(); err != nil {
				return nil, err
			}
			return paf.FromNormalized(norm), nil
		},
		func(out interface{}) error { return w.WriteRecord(out.(*paf.Record)) },
	)
}
