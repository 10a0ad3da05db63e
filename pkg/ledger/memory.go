package ledger

import (
	"context"
	"math/big"
	"sync"

	"github.com/secomuib/zkpSoulboundToken/pkg/ecies"
	"github.com/secomuib/zkpSoulboundToken/pkg/identity"
	"github.com/secomuib/zkpSoulboundToken/pkg/utilities/timeutil"
	"github.com/secomuib/zkpSoulboundToken/pkg/zkp"
)

// MemoryLedger keeps records in process memory.
type MemoryLedger struct {
	mu      sync.RWMutex
	records []Record
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{}
}

func (l *MemoryLedger) Mint(_ context.Context, owner identity.Identity, root zkp.Root, bundle *ecies.EncryptedBundle) (uint64, error) {
	if err := validateMint(owner, root, bundle); err != nil {
		return 0, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	id := uint64(len(l.records)) + 1
	l.records = append(l.records, Record{
		TokenID:  id,
		Owner:    owner,
		Root:     root,
		Bundle:   cloneBundle(bundle),
		MintedAt: timeutil.NowUTC(),
	})
	return id, nil
}

func (l *MemoryLedger) Record(_ context.Context, tokenID uint64) (*Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if tokenID == 0 || tokenID > uint64(len(l.records)) {
		return nil, unknownToken(tokenID)
	}
	rec := l.records[tokenID-1]
	rec.Bundle = cloneBundle(&rec.Bundle)
	return &rec, nil
}

func (l *MemoryLedger) Root(ctx context.Context, tokenID uint64) (zkp.Root, error) {
	rec, err := l.Record(ctx, tokenID)
	if err != nil {
		return zkp.Root{}, err
	}
	return rec.Root, nil
}

func (l *MemoryLedger) EncryptedData(ctx context.Context, tokenID uint64) (*ecies.EncryptedBundle, error) {
	rec, err := l.Record(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	return &rec.Bundle, nil
}

func (l *MemoryLedger) TokensOf(_ context.Context, owner identity.Identity) ([]uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []uint64
	for _, rec := range l.records {
		if rec.Owner == owner {
			out = append(out, rec.TokenID)
		}
	}
	return out, nil
}

func (l *MemoryLedger) TotalSupply(context.Context) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return uint64(len(l.records)), nil
}

type MemoryEligibilityStore struct {
	mu         sync.RWMutex
	thresholds map[identity.Identity]*big.Int
}

func NewMemoryEligibilityStore() *MemoryEligibilityStore {
	return &MemoryEligibilityStore{thresholds: make(map[identity.Identity]*big.Int)}
}

func (s *MemoryEligibilityStore) SetThreshold(_ context.Context, id identity.Identity, _ uint64, threshold *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thresholds[id] = new(big.Int).Set(threshold)
	return nil
}

func (s *MemoryEligibilityStore) Threshold(_ context.Context, id identity.Identity) (*big.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.thresholds[id]; ok {
		return new(big.Int).Set(t), nil
	}
	return new(big.Int), nil
}
