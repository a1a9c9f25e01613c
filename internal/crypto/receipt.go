package crypto

import (
	"github.com/davidahmann/relia-zk/internal/canonical"
)

const (
	FieldSignature = "receipt_sig"
	FieldAnchor    = "anchor"
)

// UnsignedFields are the top-level receipt fields the gateway adds after
// signing.
var UnsignedFields = []string{FieldSignature, FieldAnchor}

// SignedPayload returns a shallow copy of receipt without UnsignedFields.
// Non-object documents are returned unchanged.
func SignedPayload(receipt canonical.Value) canonical.Value {
	obj, ok := receipt.(canonical.Object)
	if !ok {
		return receipt
	}
	return obj.Without(UnsignedFields...)
}

// SigningDigest builds the digest a gateway signs for receipt:
// keccak256 over the canonical signed payload, then the EIP-191 personal
// digest of that 32-byte hash. It also returns the canonical payload text.
func SigningDigest(receipt canonical.Value) ([]byte, string, error) {
	text, err := canonical.Text(SignedPayload(receipt))
	if err != nil {
		return nil, "", err
	}
	msg := Keccak256([]byte(text))
	return PersonalDigest(msg), text, nil
}
