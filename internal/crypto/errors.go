package crypto

import "errors"

var (
	ErrHex              = errors.New("invalid hex")
	ErrSignature        = errors.New("signature error")
	ErrInvalidSeedSize  = errors.New("invalid secp256k1 seed size")
	ErrInvalidDigestLen = errors.New("invalid digest length")
)
