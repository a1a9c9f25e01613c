package crypto

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/davidahmann/relia-zk/internal/canonical"
)

// SignDigest signs a 32-byte digest and returns r || s || v with v in
// {27, 28}.
func SignDigest(key *ecdsa.PrivateKey, digest []byte) ([]byte, error) {
	if len(digest) != DigestSize {
		return nil, ErrInvalidDigestLen
	}
	sig, err := ethcrypto.Sign(digest, key)
	if err != nil {
		return nil, err
	}
	sig[64] += 27
	return sig, nil
}

// SignReceipt signs receipt the way an issuing gateway does and returns
// the signature as 0x-prefixed hex.
func SignReceipt(receipt canonical.Value, key *ecdsa.PrivateKey) (string, error) {
	digest, _, err := SigningDigest(receipt)
	if err != nil {
		return "", err
	}
	sig, err := SignDigest(key, digest)
	if err != nil {
		return "", err
	}
	return hexutil.Encode(sig), nil
}
