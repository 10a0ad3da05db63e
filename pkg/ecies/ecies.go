// Package ecies encrypts attribute values to a subject's secp256k1 public key.
//
// Each value is sealed independently: an ephemeral key agrees a secret with the
// recipient, HKDF-SHA256 stretches it into a ChaCha20-Poly1305 key, and the header
// (version and ephemeral key) is authenticated as associated data. Ciphertexts made
// for another key, or modified in transit, fail to open.
package ecies

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/secp256k1"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	version byte = 0x01

	// PlaintextSize bounds the integers this layer encrypts: unsigned, at most 256 bits.
	PlaintextSize = 32

	headerSize = 1 + PublicKeySize
	nonceSize  = chacha20poly1305.NonceSize

	// CiphertextSize is constant for every plaintext.
	CiphertextSize = headerSize + nonceSize + PlaintextSize + chacha20poly1305.Overhead
)

var kdfInfo = []byte("zksbt/ecies/v1")

// Encrypt seals plaintext for pub.
func Encrypt(pub *PublicKey, plaintext *big.Int) ([]byte, error) {
	return encrypt(rand.Reader, pub, plaintext)
}

func encrypt(random io.Reader, pub *PublicKey, plaintext *big.Int) ([]byte, error) {
	if err := pub.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncryption, err)
	}
	if plaintext == nil || plaintext.Sign() < 0 || plaintext.BitLen() > 8*PlaintextSize {
		return nil, fmt.Errorf("%w: plaintext must be an unsigned integer of at most %d bits", ErrEncryption, 8*PlaintextSize)
	}

	ephemeral, err := GenerateKey(random)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncryption, err)
	}

	header := make([]byte, 0, headerSize)
	header = append(header, version)
	header = append(header, ephemeral.PublicKey.Bytes()...)

	aead, err := deriveAEAD(ephemeral.d, pub, header)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncryption, err)
	}

	out := make([]byte, headerSize+nonceSize, CiphertextSize)
	copy(out, header)
	nonce := out[headerSize:]
	if _, err := io.ReadFull(random, nonce); err != nil {
		return nil, fmt.Errorf("%w: nonce: %w", ErrEncryption, err)
	}

	msg := make([]byte, PlaintextSize)
	plaintext.FillBytes(msg)

	return aead.Seal(out, nonce, msg, header), nil
}

// Decrypt opens a ciphertext produced by Encrypt. It never returns a value when
// authentication fails.
func Decrypt(priv *PrivateKey, ciphertext []byte) (*big.Int, error) {
	if priv == nil || priv.d == nil {
		return nil, fmt.Errorf("%w: %w: nil private key", ErrDecryption, ErrMalformedKey)
	}
	if len(ciphertext) != CiphertextSize {
		return nil, fmt.Errorf("%w: ciphertext must be %d bytes, got %d", ErrDecryption, CiphertextSize, len(ciphertext))
	}
	if ciphertext[0] != version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrDecryption, ciphertext[0])
	}

	header := ciphertext[:headerSize]
	ephemeral, err := ParsePublicKey(header[1:])
	if err != nil {
		return nil, fmt.Errorf("%w: ephemeral key: %w", ErrDecryption, err)
	}

	aead, err := deriveAEAD(priv.d, ephemeral, header)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryption, err)
	}

	nonce := ciphertext[headerSize : headerSize+nonceSize]
	msg, err := aead.Open(nil, nonce, ciphertext[headerSize+nonceSize:], header)
	if err != nil {
		return nil, fmt.Errorf("%w: authentication failed", ErrDecryption)
	}
	return new(big.Int).SetBytes(msg), nil
}

// deriveAEAD computes the ECDH point d*P and keys the AEAD from its x coordinate.
// The header doubles as salt so every ciphertext gets its own key.
func deriveAEAD(d *big.Int, peer *PublicKey, header []byte) (cipher.AEAD, error) {
	var shared secp256k1.G1Affine
	shared.ScalarMultiplication(&peer.point, d)
	if shared.IsInfinity() {
		return nil, fmt.Errorf("degenerate shared secret")
	}
	secret := shared.X.Bytes()

	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, secret[:], header, kdfInfo)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return chacha20poly1305.New(key)
}
