package dotplot

import (
	"bytes"
	"context"
	"runtime"
	"sync"

	"github.com/inodb/bidali/internal/dna"
)

// probeItem is a single probe start position in seq1.
type probeItem struct {
	Seq   int
	Start int
}

// probeResult holds the seq2 hit positions of one probe.
type probeResult struct {
	Seq     int
	Start   int
	Row     int
	Skipped bool
	Same    []int
	Reverse []int
}

// findAll returns every occurrence of kmer in seq, resuming each search
// step bases after the previous hit. Searching runs to the end of seq, not
// to the length of the probed genome, so hits past that point are kept
// when seq2 is the longer genome.
func findAll(seq, kmer []byte, step int) []int {
	var hits []int
	start := 0
	for start < len(seq) {
		idx := bytes.Index(seq[start:], kmer)
		if idx < 0 {
			break
		}
		pos := start + idx
		hits = append(hits, pos)
		start = pos + step
	}
	return hits
}

// probe searches seq2 for the window starting at start in seq1, on both strands.
func probe(seq1, seq2 []byte, start, window int) probeResult {
	r := probeResult{Start: start, Row: start / window}
	if start+window > len(seq1) {
		r.Skipped = true
		return r
	}
	kmer := seq1[start : start+window]
	if !dna.IsACGT(kmer) {
		r.Skipped = true
		return r
	}
	r.Same = findAll(seq2, kmer, window)
	r.Reverse = findAll(seq2, dna.RevComp(kmer), window)
	return r
}

// parallelProbe runs probes using a pool of workers.
// Results are sent to the returned channel in arrival order (not sequence order).
// If workers is 0, runtime.NumCPU() is used. Items received after ctx is
// cancelled are drained without being probed.
func parallelProbe(ctx context.Context, seq1, seq2 []byte, window int, items <-chan probeItem, workers int) <-chan probeResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan probeResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for item := range items {
				if ctx.Err() != nil {
					continue
				}
				r := probe(seq1, seq2, item.Start, window)
				r.Seq = item.Seq
				results <- r
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// orderedCollect calls fn for each result in sequence-number order.
// It buffers out-of-order results and emits them as soon as the next
// expected sequence number is available. Blocks until results is closed.
func orderedCollect(results <-chan probeResult, fn func(probeResult) error) error {
	pending := make(map[int]probeResult)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				// Drain remaining results to unblock workers.
				for range results {
				}
				return err
			}
		}
	}

	return nil
}
