package aux

import (
	"io"

	"github.com/aligntool/aligntool/align"
	"github.com/aligntool/aligntool/encoding/maf"
	"github.com/aligntool/aligntool/encoding/paf"
	"github.com/aligntool/aligntool/fetcher"
)

// PseudoMAF reads an all-vs-all PAF from r and a multi-FASTA accessible
// through targetFetcher/queryFetcher, bucketing each record's MAF block
// under its target sequence name (spec §4.8 "Pseudo-MAF": "bucket records
// per reference sequence... emit one MAF per reference with all queries
// projected"). The same Fetcher serves both roles when target and query
// share one multi-FASTA, as an all-vs-all alignment typically does.
func PseudoMAF(r *paf.Reader, targetFetcher, queryFetcher fetcher.Fetcher) (map[string][]*align.MAFBlock, error) {
	buckets := make(map[string][]*align.MAFBlock)
	for {
		pr, err := r.ReadRecord()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
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
		block, err := maf.FromNormalized(norm, tSeq, qSeq)
		if err != nil {
			return nil, err
		}
		buckets[norm.TargetName] = append(buckets[norm.TargetName], block)
	}
	return buckets, nil
}

// WriteBuckets writes each reference's blocks to the *maf.Writer returned
// by open(refName), closing every writer it opens.
func WriteBuckets(buckets map[string][]*align.MAFBlock, open func(refName string) (*maf.Writer, io.Closer, error)) error {
	for ref, blocks := range buckets {
		w, closer, err := open(ref)
		if err != nil {
			return err
		}
		if err := w.WriteHeader([]string{"##maf version=1"}); err != nil {
			closer.Close()
			return err
		}
		for _, b := range blocks {
			if err := w.WriteBlock(b); err != nil {
				closer.Close()
				return err
			}
		}
		if err := closer.Close(); err != nil {
			return err
		}
	}
	return nil
}
