package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/secomuib/zkpSoulboundToken/pkg/ecies"
	"github.com/secomuib/zkpSoulboundToken/pkg/identity"
	"github.com/secomuib/zkpSoulboundToken/pkg/utilities/timeutil"
	"github.com/secomuib/zkpSoulboundToken/pkg/zkp"
)

type Attestation struct {
	TokenID  uint64 `gorm:"primaryKey;autoIncrement"`
	Owner    string `gorm:"index;size:42"`
	Root     string `gorm:"size:66"`
	Bundle   []byte // borsh encoded ecies.EncryptedBundle
	MintedAt int64
}

type Eligibility struct {
	Identity  string `gorm:"primaryKey;size:42"`
	TokenID   uint64
	Threshold string
	UpdatedAt int64
}

// Migrate creates the ledger tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Attestation{}, &Eligibility{})
}

// GormLedger persists records through gorm. The bundle is stored as one borsh blob.
type GormLedger struct {
	db *gorm.DB
}

func NewGormLedger(db *gorm.DB) *GormLedger {
	return &GormLedger{db: db}
}

func (l *GormLedger) Mint(ctx context.Context, owner identity.Identity, root zkp.Root, bundle *ecies.EncryptedBundle) (uint64, error) {
	if err := validateMint(owner, root, bundle); err != nil {
		return 0, err
	}
	blob, err := bundle.MarshalBorsh()
	if err != nil {
		return 0, fmt.Errorf("encode bundle: %w", err)
	}

	row := Attestation{
		Owner:    owner.Hex(),
		Root:     root.Hex(),
		Bundle:   blob,
		MintedAt: timeutil.NowUTC().T,
	}
	if err := l.db.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, fmt.Errorf("mint: %w", err)
	}
	return row.TokenID, nil
}

func (l *GormLedger) Record(ctx context.Context, tokenID uint64) (*Record, error) {
	var row Attestation
	err := l.db.WithContext(ctx).Where("token_id = ?", tokenID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, unknownToken(tokenID)
	}
	if err != nil {
		return nil, fmt.Errorf("load token %d: %w", tokenID, err)
	}
	return row.toRecord()
}

func (row *Attestation) toRecord() (*Record, error) {
	owner, err := identity.Parse(row.Owner)
	if err != nil {
		return nil, fmt.Errorf("token %d owner: %w", row.TokenID, err)
	}
	root, err := zkp.ParseRoot(row.Root)
	if err != nil {
		return nil, fmt.Errorf("token %d root: %w", row.TokenID, err)
	}
	bundle, err := ecies.UnmarshalBundle(row.Bundle)
	if err != nil {
		return nil, fmt.Errorf("token %d: %w", row.TokenID, err)
	}
	return &Record{
		TokenID:  row.TokenID,
		Owner:    owner,
		Root:     root,
		Bundle:   *bundle,
		MintedAt: timeutil.TimeUTC{T: row.MintedAt},
	}, nil
}

func (l *GormLedger) Root(ctx context.Context, tokenID uint64) (zkp.Root, error) {
	rec, err := l.Record(ctx, tokenID)
	if err != nil {
		return zkp.Root{}, err
	}
	return rec.Root, nil
}

func (l *GormLedger) EncryptedData(ctx context.Context, tokenID uint64) (*ecies.EncryptedBundle, error) {
	rec, err := l.Record(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	return &rec.Bundle, nil
}

func (l *GormLedger) TokensOf(ctx context.Context, owner identity.Identity) ([]uint64, error) {
	var ids []uint64
	err := l.db.WithContext(ctx).Model(&Attestation{}).
		Where("owner = ?", owner.Hex()).
		Order("token_id").
		Pluck("token_id", &ids).Error
	return ids, err
}

func (l *GormLedger) TotalSupply(ctx context.Context) (uint64, error) {
	var n int64
	if err := l.db.WithContext(ctx).Model(&Attestation{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return uint64(n), nil
}

type GormEligibilityStore struct {
	db *gorm.DB
}

func NewGormEligibilityStore(db *gorm.DB) *GormEligibilityStore {
	return &GormEligibilityStore{db: db}
}

func (s *GormEligibilityStore) SetThreshold(ctx context.Context, id identity.Identity, tokenID uint64, threshold *big.Int) error {
	row := Eligibility{
		Identity:  id.Hex(),
		TokenID:   tokenID,
		Threshold: threshold.String(),
		UpdatedAt: timeutil.NowUTC().T,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "identity"}},
		DoUpdates: clause.AssignmentColumns([]string{"token_id", "threshold", "updated_at"}),
	}).Create(&row).Error
}

func (s *GormEligibilityStore) Threshold(ctx context.Context, id identity.Identity) (*big.Int, error) {
	var row Eligibility
	err := s.db.WithContext(ctx).Where("identity = ?", id.Hex()).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return new(big.Int), nil
	}
	if err != nil {
		return nil, err
	}
	t, ok := new(big.Int).SetString(row.Threshold, 10)
	if !ok {
		return nil, fmt.Errorf("stored threshold %q for %s is not a number", row.Threshold, row.Identity)
	}
	return t, nil
}
