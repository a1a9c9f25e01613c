// Package verifier checks signed gateway receipts and derives the public
// inputs and witness a downstream circuit consumes.
package verifier

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/davidahmann/relia-zk/internal/canonical"
	"github.com/davidahmann/relia-zk/internal/crypto"
)

const (
	FieldPolicyHash  = "policy_hash"
	FieldConsentHash = "consent_snapshot_hash"
	FieldReceiptID   = "receipt_id"
)

// Expectations are the values a receipt must match. A nil Gateway accepts
// whichever signer recovers.
type Expectations struct {
	Gateway     *common.Address
	PolicyHash  string
	ConsentHash string
}

type Result struct {
	// ReceiptHash is the SHA-256 of the canonical full receipt, lowercase
	// hex without prefix.
	ReceiptHash string
	Address     common.Address
}

func (r Result) AddressHex() string {
	return hexutil.Encode(r.Address[:])
}

// Verify recovers the signer of receipt and checks it, along with the
// embedded policy and consent hashes, against expected.
//
// The signature covers the receipt minus receipt_sig and anchor. The
// returned hash covers the receipt exactly as given.
func Verify(receipt canonical.Value, signatureHex string, expected Expectations) (Result, error) {
	digest, _, err := crypto.SigningDigest(receipt)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrSerialization, err)
	}

	addr, err := crypto.RecoverAddress(signatureHex, digest)
	if err != nil {
		return Result{}, err
	}

	if expected.Gateway != nil && addr != *expected.Gateway {
		return Result{}, fmt.Errorf("%w: recovered %s, expected %s",
			ErrAddressMismatch, hexutil.Encode(addr[:]), hexutil.Encode(expected.Gateway[:]))
	}

	// runs even when any signer is accepted
	policy, policyOK := canonical.StringAt(receipt, FieldPolicyHash)
	consent, consentOK := canonical.StringAt(receipt, FieldConsentHash)
	if !policyOK || !consentOK || policy != expected.PolicyHash || consent != expected.ConsentHash {
		return Result{}, ErrPolicyConsentMismatch
	}

	hash, err := crypto.ReceiptHash(receipt)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrSerialization, err)
	}

	return Result{ReceiptHash: hash, Address: addr}, nil
}
