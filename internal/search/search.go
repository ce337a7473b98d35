// Package search compares a query image against catalog records and
// aggregates the per-candidate results into a verdict.
package search

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"image"
	"iter"
	"log"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/kozaktomas/finder/internal/catalog"
	"github.com/kozaktomas/finder/internal/fingerprint"
	"github.com/kozaktomas/finder/internal/matcher"
	"golang.org/x/sync/errgroup"
)

// Orchestrator runs searches against a catalog. It holds no per-search
// state and is safe for concurrent use.
type Orchestrator struct {
	catalog   catalog.Reader
	extractor *fingerprint.Extractor
	workers   int
}

// NewOrchestrator creates an Orchestrator. workers is the default size of a
// parallel scan.
func NewOrchestrator(reader catalog.Reader, extractor *fingerprint.Extractor, workers int) *Orchestrator {
	return &Orchestrator{catalog: reader, extractor: extractor, workers: max(workers, 1)}
}

// Evaluate decodes a record and matches it against the query. Decoding and
// length problems are returned as *CandidateError.
func Evaluate(query fingerprint.DescriptorSet, rec catalog.Record, policy matcher.Policy) (matcher.MatchResult, error) {
	if rec.DecodeErr != nil {
		return matcher.MatchResult{}, &CandidateError{ID: rec.ID, Err: fmt.Errorf("%w: %w", fingerprint.ErrMalformedDescriptorData, rec.DecodeErr)}
	}

	length := rec.DescriptorLength
	if length == 0 {
		// Records written before the length was persisted.
		length = query.Length
		if length <= 0 {
			length = fingerprint.DescriptorLength
		}
	}

	candidate, err := fingerprint.Deserialize(rec.Descriptors, length)
	if err != nil {
		return matcher.MatchResult{}, &CandidateError{ID: rec.ID, Err: err}
	}

	res, err := matcher.Match(query, candidate, policy)
	if err != nil {
		return matcher.MatchResult{}, &CandidateError{ID: rec.ID, Err: err}
	}
	res.CandidateID = rec.ID
	return res, nil
}

// Results lazily evaluates candidates in order. A *CandidateError is yielded
// for a candidate that cannot be evaluated and iteration continues if the
// consumer keeps ranging. A catalog error, or cancellation of ctx, is yielded
// wrapped in ErrCatalogUnavailable and ends the sequence. Stopping the range stops
// pulling from candidates.
func (o *Orchestrator) Results(ctx context.Context, query fingerprint.DescriptorSet, candidates iter.Seq2[catalog.Record, error], policy matcher.Policy) iter.Seq2[matcher.MatchResult, error] {
	return func(yield func(matcher.MatchResult, error) bool) {
		for rec, err := range candidates {
			if err == nil {
				err = ctx.Err()
			}
			if err != nil {
				yield(matcher.MatchResult{}, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err))
				return
			}
			if !yield(Evaluate(query, rec, policy)) {
				return
			}
		}
	}
}

// Scan compares the query with every record in catalog order and stops at
// the first match.
func (o *Orchestrator) Scan(ctx context.Context, query fingerprint.DescriptorSet, policy matcher.Policy) (AggregateVerdict, error) {
	return o.scan(ctx, query, policy, true)
}

// ScanBest compares the query with every record and reports the best
// matching one.
func (o *Orchestrator) ScanBest(ctx context.Context, query fingerprint.DescriptorSet, policy matcher.Policy) (AggregateVerdict, error) {
	return o.scan(ctx, query, policy, false)
}

func (o *Orchestrator) scan(ctx context.Context, query fingerprint.DescriptorSet, policy matcher.Policy, firstMatch bool) (AggregateVerdict, error) {
	if query.Empty() {
		return AggregateVerdict{}, ErrNoFeaturesInQuery
	}

	var verdict AggregateVerdict
	for res, err := range o.Results(ctx, query, o.catalog.FetchAll(ctx), policy) {
		if err != nil {
			if errors.Is(err, ErrCatalogUnavailable) {
				return AggregateVerdict{}, err
			}
			log.Printf("search: skipping %v", err)
			verdict.skip(err)
			continue
		}

		verdict.add(res)
		if !res.IsMatch {
			continue
		}
		if verdict.Best == nil || better(res, *verdict.Best, policy.Mode()) {
			best := res
			verdict.Best = &best
			verdict.Matched = true
		}
		if firstMatch {
			break
		}
	}
	return verdict, nil
}

type indexedResult struct {
	index int
	res   matcher.MatchResult
	err   error
}

// ScanParallel evaluates candidates on up to workers goroutines. The first
// match stops fetching further records. Every record already dispatched is
// still evaluated, so the reported match is the earliest one in catalog
// order, the same one Scan reports.
func (o *Orchestrator) ScanParallel(ctx context.Context, query fingerprint.DescriptorSet, policy matcher.Policy, workers int) (AggregateVerdict, error) {
	if query.Empty() {
		return AggregateVerdict{}, ErrNoFeaturesInQuery
	}

	scanCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(scanCtx)
	g.SetLimit(max(workers, 1))

	var (
		mu      sync.Mutex
		results []indexedResult
		found   atomic.Bool
	)

	var fetchErr error
	index := 0
	for rec, err := range o.catalog.FetchAll(gctx) {
		if err != nil {
			if !found.Load() {
				fetchErr = err
			}
			break
		}
		if found.Load() {
			break
		}

		i := index
		index++
		g.Go(func() error {
			res, err := Evaluate(query, rec, policy)
			mu.Lock()
			results = append(results, indexedResult{index: i, res: res, err: err})
			mu.Unlock()
			if err == nil && res.IsMatch {
				found.Store(true)
				cancel()
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return AggregateVerdict{}, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	if fetchErr != nil {
		return AggregateVerdict{}, fmt.Errorf("%w: %w", ErrCatalogUnavailable, fetchErr)
	}

	slices.SortFunc(results, func(a, b indexedResult) int { return cmp.Compare(a.index, b.index) })

	var verdict AggregateVerdict
	for _, r := range results {
		if r.err != nil {
			log.Printf("search: skipping %v", r.err)
			verdict.skip(r.err)
			continue
		}
		verdict.add(r.res)
		if r.res.IsMatch && verdict.Best == nil {
			best := r.res
			verdict.Best = &best
			verdict.Matched = true
		}
	}
	return verdict, nil
}

// FindOne compares the query with a single record. Unlike a scan, a record
// whose descriptors cannot be decoded is an error.
func (o *Orchestrator) FindOne(ctx context.Context, query fingerprint.DescriptorSet, id string, policy matcher.Policy) (AggregateVerdict, error) {
	if query.Empty() {
		return AggregateVerdict{}, ErrNoFeaturesInQuery
	}

	rec, err := o.catalog.FetchOne(ctx, id)
	if errors.Is(err, catalog.ErrNotFound) {
		return AggregateVerdict{}, fmt.Errorf("item %s: %w", id, err)
	}
	if err != nil {
		return AggregateVerdict{}, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}

	res, err := Evaluate(query, *rec, policy)
	if err != nil {
		return AggregateVerdict{}, err
	}

	verdict := AggregateVerdict{}
	verdict.add(res)
	if res.IsMatch {
		verdict.Matched = true
		verdict.Best = &res
	}
	return verdict, nil
}

// Options selects how a search runs.
type Options struct {
	Target   string // compare with this record only
	Best     bool   // evaluate every record and report the best ranked match
	Parallel bool   // evaluate records concurrently
	Workers  int    // parallel workers, 0 uses the orchestrator default
}

// Search runs a single target lookup, a best match scan, a parallel scan or
// a sequential scan, in that order of precedence.
func (o *Orchestrator) Search(ctx context.Context, query fingerprint.DescriptorSet, policy matcher.Policy, opts Options) (AggregateVerdict, error) {
	switch {
	case opts.Target != "":
		return o.FindOne(ctx, query, opts.Target, policy)
	case opts.Best:
		return o.ScanBest(ctx, query, policy)
	case opts.Parallel:
		workers := opts.Workers
		if workers <= 0 {
			workers = o.workers
		}
		return o.ScanParallel(ctx, query, policy, workers)
	default:
		return o.Scan(ctx, query, policy)
	}
}

// SearchImage extracts the query descriptors from img and runs Search.
func (o *Orchestrator) SearchImage(ctx context.Context, img image.Image, policy matcher.Policy, opts Options) (AggregateVerdict, error) {
	query := o.extractor.Extract(img)
	if query.Empty() {
		return AggregateVerdict{}, ErrNoFeaturesInQuery
	}
	return o.Search(ctx, query, policy, opts)
}
