package crypto

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// SignatureLength is r(32) || s(32) || v(1).
const SignatureLength = 65

// NormalizeHex drops a leading 0x and left-pads odd-length input with a
// single zero.
func NormalizeHex(s string) string {
	clean := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	clean = strings.TrimPrefix(clean, "0X")
	if len(clean)%2 == 1 {
		return "0" + clean
	}
	return clean
}

// DecodeHex decodes s after NormalizeHex.
func DecodeHex(s string) ([]byte, error) {
	out, err := hex.DecodeString(NormalizeHex(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHex, err)
	}
	return out, nil
}

// RecoveryID maps the trailing signature byte to a recovery id. 27 and 28
// are the Ethereum encoding; every other value is reduced mod 4.
//
// TODO: the mod-4 branch also accepts values such as 31 or 255. Decide with
// gateway operators whether to restrict v to {0,1,27,28}.
func RecoveryID(v byte) byte {
	if v == 27 || v == 28 {
		return v - 27
	}
	return v % 4
}

// RecoverAddress recovers the address that produced the 65-byte signature
// sigHex over digest. digest is used as-is and is not hashed again.
func RecoverAddress(sigHex string, digest []byte) (common.Address, error) {
	if len(digest) != DigestSize {
		return common.Address{}, fmt.Errorf("%w: %w", ErrSignature, ErrInvalidDigestLen)
	}

	sig, err := DecodeHex(sigHex)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %w", ErrSignature, err)
	}
	if len(sig) != SignatureLength {
		return common.Address{}, fmt.Errorf("%w: expected %d-byte signature, got %d", ErrSignature, SignatureLength, len(sig))
	}

	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	// v is checked separately; only r and s ranges (with low s) matter here.
	if !ethcrypto.ValidateSignatureValues(0, r, s, true) {
		return common.Address{}, fmt.Errorf("%w: r or s out of range", ErrSignature)
	}

	normalized := make([]byte, SignatureLength)
	copy(normalized, sig)
	normalized[64] = RecoveryID(sig[64])

	pub, err := ethcrypto.SigToPub(digest, normalized)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrSignature, err)
	}
	return ethcrypto.PubkeyToAddress(*pub), nil
}
