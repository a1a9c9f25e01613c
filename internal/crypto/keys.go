package crypto

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// PrivateKeyFromSeed builds a secp256k1 key from a 32-byte scalar.
func PrivateKeyFromSeed(seed []byte) (*ecdsa.PrivateKey, error) {
	if len(seed) != 32 {
		return nil, ErrInvalidSeedSize
	}
	return ethcrypto.ToECDSA(seed)
}

// AddressOf returns the address derived from key.
func AddressOf(key *ecdsa.PrivateKey) common.Address {
	return ethcrypto.PubkeyToAddress(key.PublicKey)
}

// LoadPrivateKey loads a secp256k1 private key from a file.
// Supported formats:
// - raw 32-byte scalar
// - hex, optionally prefixed with "hex:" or "0x"
func LoadPrivateKey(path string) (*ecdsa.PrivateKey, error) {
	// #nosec G304 -- path is operator-provided.
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	seed, err := decodeKey(raw)
	if err != nil {
		return nil, err
	}
	return PrivateKeyFromSeed(seed)
}

func decodeKey(raw []byte) ([]byte, error) {
	trim := strings.TrimSpace(string(raw))
	if trim == "" {
		return nil, fmt.Errorf("empty key file")
	}
	if strings.HasPrefix(trim, "hex:") {
		return hex.DecodeString(strings.TrimPrefix(trim, "hex:"))
	}

	// raw bytes first; a binary key file is exactly one scalar
	if len(raw) == 32 {
		return raw, nil
	}

	out, err := hex.DecodeString(strings.TrimPrefix(trim, "0x"))
	if err != nil {
		return nil, fmt.Errorf("unrecognized key encoding")
	}
	return out, nil
}
