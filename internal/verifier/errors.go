package verifier

import (
	"errors"

	"github.com/davidahmann/relia-zk/internal/crypto"
	"github.com/davidahmann/relia-zk/internal/prover"
)

var (
	ErrHex                   = crypto.ErrHex
	ErrSignature             = crypto.ErrSignature
	ErrSerialization         = errors.New("serialization error")
	ErrAddressMismatch       = errors.New("address mismatch")
	ErrPolicyConsentMismatch = errors.New("policy/consent mismatch")
	ErrGatewayParse          = errors.New("gateway parse error")
	ErrProver                = prover.ErrProver
)

// Kind names the failure class of err, or "" when err is not one of ours.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAddressMismatch):
		return "address_mismatch"
	case errors.Is(err, ErrPolicyConsentMismatch):
		return "policy_consent_mismatch"
	case errors.Is(err, ErrGatewayParse):
		return "gateway_parse"
	case errors.Is(err, ErrSignature):
		return "signature"
	case errors.Is(err, ErrHex):
		return "hex"
	case errors.Is(err, ErrSerialization):
		return "serialization"
	case errors.Is(err, ErrProver):
		return "prover"
	default:
		return ""
	}
}
