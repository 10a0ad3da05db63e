package ecies

import "errors"

var (
	ErrEncryption   = errors.New("encryption failed")
	ErrDecryption   = errors.New("decryption failed")
	ErrMalformedKey = errors.New("malformed key")
)
