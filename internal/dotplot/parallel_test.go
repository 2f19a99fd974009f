package dotplot

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeItems(n, spacer int) <-chan probeItem {
	ch := make(chan probeItem, n)
	for i := 0; i < n; i++ {
		ch <- probeItem{Seq: i, Start: i * spacer}
	}
	close(ch)
	return ch
}

func TestFindAll(t *testing.T) {
	seq := []byte("ACGTACGTTTACGT")
	assert.Equal(t, []int{0, 4, 10}, findAll(seq, []byte("ACGT"), 1))
	// After a hit the search resumes step bases later.
	assert.Equal(t, []int{0, 10}, findAll(seq, []byte("ACGT"), 8))
	assert.Nil(t, findAll(seq, []byte("GGGG"), 4))
	assert.Equal(t, []int{0, 2}, findAll([]byte("AAAA"), []byte("AA"), 2))
}

func TestProbe(t *testing.T) {
	seq1 := []byte("ACGTNNNNACG")
	seq2 := []byte("TTACGTAA")

	r := probe(seq1, seq2, 0, 4)
	assert.False(t, r.Skipped)
	assert.Equal(t, 0, r.Row)
	assert.Equal(t, []int{2}, r.Same)
	assert.Equal(t, []int{2}, r.Reverse, "ACGT is its own reverse complement")

	r = probe(seq1, seq2, 4, 4)
	assert.True(t, r.Skipped, "probes with N are skipped")
	assert.Equal(t, 1, r.Row)

	r = probe(seq1, seq2, 8, 4)
	assert.True(t, r.Skipped, "probes past the end are skipped")
}

func TestSearch_HitsBeyondSeq1(t *testing.T) {
	seq1 := []byte("GATTACA")
	seq2 := []byte("CCCCCCCCCCCCCCGATT")

	r := probe(seq1, seq2, 0, 4)
	assert.Equal(t, []int{14}, r.Same, "hits beyond len(seq1) are kept")
}

func TestParallelProbe_OrderPreservation(t *testing.T) {
	seq := bytes.Repeat([]byte("ACGTTGCA"), 100)
	results := parallelProbe(context.Background(), seq, seq, 4, makeItems(200, 4), 8)

	var collected []int
	err := orderedCollect(results, func(r probeResult) error {
		collected = append(collected, r.Seq)
		return nil
	})
	require.NoError(t, err)

	assert.Len(t, collected, 200)
	for i, seq := range collected {
		assert.Equal(t, i, seq, "result %d out of order", i)
	}
}

func TestParallelProbe_SingleWorker(t *testing.T) {
	seq := []byte("ACGTTGCAACGTTGCA")
	results := parallelProbe(context.Background(), seq, seq, 4, makeItems(4, 4), 1)

	var starts []int
	err := orderedCollect(results, func(r probeResult) error {
		starts = append(starts, r.Start)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 4, 8, 12}, starts)
}

func TestParallelProbe_EmptyInput(t *testing.T) {
	ch := make(chan probeItem)
	close(ch)
	results := parallelProbe(context.Background(), nil, nil, 4, ch, 4)

	count := 0
	err := orderedCollect(results, func(probeResult) error {
		count++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestParallelProbe_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	seq := bytes.Repeat([]byte("ACGT"), 50)
	results := parallelProbe(ctx, seq, seq, 4, makeItems(50, 4), 4)

	count := 0
	for range results {
		count++
	}
	assert.Equal(t, 0, count)
}

func TestOrderedCollect_EarlyError(t *testing.T) {
	seq := bytes.Repeat([]byte("ACGT"), 100)
	results := parallelProbe(context.Background(), seq, seq, 4, makeItems(100, 4), 4)

	count := 0
	err := orderedCollect(results, func(probeResult) error {
		count++
		if count == 5 {
			return fmt.Errorf("stop at 5")
		}
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, 5, count)
}
