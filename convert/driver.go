// Package convert implements the six directed converters of spec §4.4 (MAF,
// PAF, CHAIN, pairwise), each built on the normalized alignment record and
// run through the ordered-commit parallel pipeline of spec §5: a single
// reader feeds a bounded worker pool, and a single committer writes results
// back in input order via a syncqueue.OrderedQueue — grounded on
// cmd/bio-pamtool/cmd/view.go's viewShards and encoding/bam/shardedbam.go's
// ShardedBAMWriter.
package convert

import (
	"io"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/syncqueue"
)

// result pairs a transformed value with any error transform produced for
// it, so the committer can surface errors in input order too.
type result struct {
	val interface{}
	err error
}

// run drives read/transform/write through threads parallel workers while
// preserving input order on write (spec §5 "Ordering guarantees"). read
// returns io.EOF to signal a clean end of input.
func run(threads int, read func() (interface{}, error), transform func(idx int, rec interface{}) (interface{}, error), write func(interface{}) error) error {
	if threads < 1 {
		threads = 1
	}
	oq := syncqueue.NewOrderedQueue(threads * 4)
	e := errors.Once{}

	type job struct {
		idx int
		rec interface{}
	}
	jobs := make(chan job, threads*4)

	var wgW sync.WaitGroup
	for i := 0; i < threads; i++ {
		wgW.Add(1)
		go func() {
			defer wgW.Done()
			for j := range jobs {
				out, terr := transform(j.idx, j.rec)
				if ierr := oq.Insert(j.idx, result{out, terr}); ierr != nil {
					e.Set(ierr)
				}
			}
		}()
	}

	var wgR sync.WaitGroup
	wgR.Add(1)
	go func() {
		defer wgR.Done()
		for {
			val, ok, err := oq.Next()
			if err != nil {
				e.Set(err)
				return
			}
			if !ok {
				return
			}
			r := val.(result)
			if r.err != nil {
				e.Set(r.err)
				continue
			}
			if werr := write(r.val); werr != nil {
				e.Set(werr)
			}
		}
	}()

	idx := 0
	for {
		rec, err := read()
		if err == io.EOF {
			break
		}
		if err != nil {
			e.Set(err)
			break
		}
		jobs <- job{idx, rec}
		idx++
	}
	close(jobs)
	wgW.Wait()
	if err := oq.Close(nil); err != nil {
		e.Set(err)
	}
	wgR.Wait()
	return e.Err()
}
