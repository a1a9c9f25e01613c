package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/davidahmann/relia-zk/internal/canonical"
)

// DigestSize is the length of both SHA-256 and Keccak-256 digests.
const DigestSize = 32

const personalPrefix = "\x19Ethereum Signed Message:\n"

// DigestBytes returns the raw SHA-256 digest bytes.
func DigestBytes(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

// DigestHex returns the SHA-256 digest as lowercase hex.
func DigestHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DigestWithPrefix returns the SHA-256 digest with the "sha256:" prefix.
func DigestWithPrefix(data []byte) string {
	return "sha256:" + DigestHex(data)
}

// Keccak256 hashes the concatenation of data.
func Keccak256(data ...[]byte) []byte {
	return ethcrypto.Keccak256(data...)
}

// PersonalDigest wraps msg in the EIP-191 personal-sign envelope and
// hashes it.
func PersonalDigest(msg []byte) []byte {
	prefix := personalPrefix + strconv.Itoa(len(msg))
	return Keccak256([]byte(prefix), msg)
}

// ReceiptHash is the SHA-256 of the canonical text of v, as lowercase hex
// with no prefix.
func ReceiptHash(v canonical.Value) (string, error) {
	text, err := canonical.Text(v)
	if err != nil {
		return "", err
	}
	return DigestHex([]byte(text)), nil
}
