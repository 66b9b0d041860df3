package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/backmassage/galleryscan/internal/config"
	"github.com/backmassage/galleryscan/internal/naming"
	"github.com/backmassage/galleryscan/internal/probe"
)

// Request describes one discovery scan.
type Request struct {
	Base        string
	Extensions  []string // precedence order
	MaxIndex    int
	BatchSize   int // <= 0 uses config.DefaultBatchSize; clamped to config.MaxBatchSize; 1 stops at the first gap
	MaxInFlight int // 0 = every probe of a batch at once
}

// Item is one discovered candidate: the first extension in precedence order
// that exists for its index.
type Item struct {
	Index int         `json:"index"`
	Ext   string      `json:"ext"`
	Path  string      `json:"path"`
	Kind  naming.Kind `json:"kind"`
	MIME  string      `json:"mime,omitempty"`
}

// StopReason records why a scan ended.
type StopReason string

const (
	StopBound        StopReason = "bound"         // every index up to MaxIndex was probed
	StopGap          StopReason = "gap"           // a whole batch came back empty
	StopCanceled     StopReason = "canceled"      // context done before the bound or a gap
	StopNoCandidates StopReason = "no-candidates" // no usable extensions or MaxIndex <= 0
)

// BatchReport describes one resolved batch. Found is in index order.
type BatchReport struct {
	Number  int           `json:"number"`
	First   int           `json:"first"`
	Last    int           `json:"last"`
	Probes  int           `json:"probes"`
	Found   []Item        `json:"found"`
	Elapsed time.Duration `json:"elapsed"`
}

// Result is the outcome of a scan. Items are ordered by increasing index
// with gaps omitted.
type Result struct {
	Items []Item     `json:"items"`
	Stats RunStats   `json:"stats"`
	Stop  StopReason `json:"stop"`
}

// Discover probes base/<i>.<ext> for i in 1..MaxIndex in consecutive batches.
// All probes of a batch run concurrently and are joined before the batch's
// finds are appended; the scan stops after a batch in which no index exists,
// or at MaxIndex. Probe failures count as absent, so Discover never fails.
//
// observe, if non-nil, is called from the calling goroutine after each
// resolved batch. On cancellation the interrupted batch is discarded and
// items from earlier batches are kept.
func Discover(ctx context.Context, checker probe.Checker, req Request, observe func(BatchReport)) Result {
	start := time.Now()
	res := Result{Items: []Item{}}

	exts := naming.SafeExtensions(req.Extensions)
	if len(exts) == 0 || req.MaxIndex <= 0 {
		res.Stop = StopNoCandidates
		res.Stats.Elapsed = time.Since(start)
		return res
	}

	size := req.BatchSize
	if size <= 0 {
		size = config.DefaultBatchSize
	}
	size = min(size, req.MaxIndex, config.MaxBatchSize)

	var probes atomic.Int64
	for first := 1; ; first += size {
		if ctx.Err() != nil {
			res.Stop = StopCanceled
			break
		}
		// Computed as a remainder so first+size never overflows near MaxInt.
		last := req.MaxIndex
		if req.MaxIndex-first >= size {
			last = first + size - 1
		}

		batchStart := time.Now()
		before := probes.Load()
		found := probeBatch(ctx, checker, req.Base, exts, first, last, req.MaxInFlight, &probes)
		if ctx.Err() != nil {
			res.Stop = StopCanceled
			break
		}

		res.Stats.Batches++
		res.Stats.LastIndex = last
		res.Stats.Gaps += (last - first + 1) - len(found)
		res.Items = append(res.Items, found...)

		if observe != nil {
			observe(BatchReport{
				Number:  res.Stats.Batches,
				First:   first,
				Last:    last,
				Probes:  int(probes.Load() - before),
				Found:   found,
				Elapsed: time.Since(batchStart),
			})
		}

		if len(found) == 0 {
			res.Stop = StopGap
			break
		}
		if last == req.MaxIndex {
			res.Stop = StopBound
			break
		}
	}

	res.Stats.Probes = int(probes.Load())
	res.Stats.Found = len(res.Items)
	res.Stats.Elapsed = time.Since(start)
	return res
}

// probeBatch checks every (index, extension) pair in [first, last] and
// returns, per index, the first extension in precedence order that exists.
func probeBatch(
	ctx context.Context,
	checker probe.Checker,
	base string,
	exts []string,
	first, last, maxInFlight int,
	probes *atomic.Int64,
) []Item {
	hits := make([][]bool, last-first+1)

	var g errgroup.Group
	if maxInFlight > 0 {
		g.SetLimit(maxInFlight)
	}
	for i := range hits {
		hits[i] = make([]bool, len(exts))
		for j, ext := range exts {
			i, j := i, j
			target := naming.CandidatePath(base, first+i, ext)
			g.Go(func() error {
				probes.Add(1)
				hits[i][j] = checker.Exists(ctx, target)
				return nil
			})
		}
	}
	_ = g.Wait()

	var found []Item
	for i, row := range hits {
		for j, ok := range row {
			if !ok {
				continue
			}
			index, ext := first+i, exts[j]
			found = append(found, Item{
				Index: index,
				Ext:   ext,
				Path:  naming.CandidatePath(base, index, ext),
				Kind:  naming.KindOf(ext),
				MIME:  naming.ContentTypeFor(ext),
			})
			break
		}
	}
	return found
}
