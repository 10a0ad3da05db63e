package ecies

import (
	"fmt"
	"math/big"

	"github.com/near/borsh-go"
)

// EncryptedBundle holds one ciphertext per attested attribute.
type EncryptedBundle struct {
	CreditScore []byte `json:"credit_score"`
	Income      []byte `json:"income"`
	ReportDate  []byte `json:"report_date"`
}

// EncryptAttributes seals each value independently for pub.
func EncryptAttributes(pub *PublicKey, creditScore, income, reportDate *big.Int) (*EncryptedBundle, error) {
	cs, err := Encrypt(pub, creditScore)
	if err != nil {
		return nil, fmt.Errorf("credit score: %w", err)
	}
	in, err := Encrypt(pub, income)
	if err != nil {
		return nil, fmt.Errorf("income: %w", err)
	}
	rd, err := Encrypt(pub, reportDate)
	if err != nil {
		return nil, fmt.Errorf("report date: %w", err)
	}
	return &EncryptedBundle{CreditScore: cs, Income: in, ReportDate: rd}, nil
}

// DecryptAttributes returns credit score, income and report date in that order.
func DecryptAttributes(priv *PrivateKey, b *EncryptedBundle) ([3]*big.Int, error) {
	var out [3]*big.Int
	if b == nil {
		return out, fmt.Errorf("%w: nil bundle", ErrDecryption)
	}
	for i, ct := range b.Ciphertexts() {
		v, err := Decrypt(priv, ct)
		if err != nil {
			return [3]*big.Int{}, fmt.Errorf("attribute %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func (b *EncryptedBundle) Ciphertexts() [3][]byte {
	return [3][]byte{b.CreditScore, b.Income, b.ReportDate}
}

type bundleBorsh struct {
	Ciphertexts [][]byte
}

// MarshalBorsh packs the bundle into the single blob stored alongside a token.
func (b *EncryptedBundle) MarshalBorsh() ([]byte, error) {
	cts := b.Ciphertexts()
	return borsh.Serialize(bundleBorsh{Ciphertexts: cts[:]})
}

func UnmarshalBundle(data []byte) (*EncryptedBundle, error) {
	var raw bundleBorsh
	if err := borsh.Deserialize(&raw, data); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	if len(raw.Ciphertexts) != 3 {
		return nil, fmt.Errorf("decode bundle: expected 3 ciphertexts, got %d", len(raw.Ciphertexts))
	}
	return &EncryptedBundle{
		CreditScore: raw.Ciphertexts[0],
		Income:      raw.Ciphertexts[1],
		ReportDate:  raw.Ciphertexts[2],
	}, nil
}
