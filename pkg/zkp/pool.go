package zkp

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/secomuib/zkpSoulboundToken/pkg/logger"
)

// ProofRequest is one unit of work for a ProverPool.
type ProofRequest struct {
	Witness   Witness
	Predicate Predicate
	Root      Root
}

type ProofResult struct {
	Proof *Proof
	Err   error
}

// ProverPool bounds the number of proofs generated concurrently. Proving is
// CPU-bound, so the bound defaults to GOMAXPROCS.
type ProverPool struct {
	builder *ProofBuilder
	workers int
	sem     *semaphore.Weighted
	log     *logger.Logger
}

func NewProverPool(builder *ProofBuilder, workers int, log *logger.Logger) *ProverPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &ProverPool{
		builder: builder,
		workers: workers,
		sem:     semaphore.NewWeighted(int64(workers)),
		log:     logger.OrNop(log),
	}
}

func (p *ProverPool) Workers() int { return p.workers }

// Submit waits for a free slot and builds one proof. The slot stays taken until
// the prover stops, even when ctx is cancelled first.
func (p *ProverPool) Submit(ctx context.Context, req ProofRequest) (*Proof, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	var once sync.Once
	release := func() { once.Do(func() { p.sem.Release(1) }) }

	return p.builder.buildProof(ctx, req.Witness, req.Predicate, req.Root, release)
}

// BuildAll proves every request and returns results in request order. One failing
// request does not cancel the others.
func (p *ProverPool) BuildAll(ctx context.Context, reqs []ProofRequest) []ProofResult {
	results := make([]ProofResult, len(reqs))

	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, req := range reqs {
		g.Go(func() error {
			proof, err := p.Submit(ctx, req)
			results[i] = ProofResult{Proof: proof, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	p.log.Debugf("prover pool finished %d requests, %d failed", len(reqs), failed)
	return results
}

// BuildProof lets a pool stand in for a single ProofBuilder.
func (p *ProverPool) BuildProof(ctx context.Context, w Witness, pred Predicate, root Root) (*Proof, error) {
	return p.Submit(ctx, ProofRequest{Witness: w, Predicate: pred, Root: root})
}
