package trust

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/davidahmann/relia-zk/internal/crypto"
	"github.com/davidahmann/relia-zk/internal/verifier"
)

var ErrInvalidProfile = errors.New("invalid trust profile")

type Loaded struct {
	Profile Profile
	Hash    string
	Bytes   []byte
}

// Load loads a YAML trust profile and computes its hash from raw bytes.
func Load(path string) (Loaded, error) {
	// #nosec G304 -- path comes from the operator.
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, err
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Loaded{}, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	if err := p.Validate(); err != nil {
		return Loaded{}, err
	}

	return Loaded{
		Profile: p,
		Hash:    crypto.DigestWithPrefix(data),
		Bytes:   data,
	}, nil
}

func (p Profile) Validate() error {
	if p.PolicyHash == "" {
		return fmt.Errorf("%w: policy_hash is required", ErrInvalidProfile)
	}
	if p.ConsentHash == "" {
		return fmt.Errorf("%w: consent_hash is required", ErrInvalidProfile)
	}
	if _, err := verifier.ExpectedGateway(p.Gateway); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}
	return nil
}

// Expectations converts the profile into verifier input.
func (p Profile) Expectations() (verifier.Expectations, error) {
	gateway, err := verifier.ExpectedGateway(p.Gateway)
	if err != nil {
		return verifier.Expectations{}, err
	}
	return verifier.Expectations{
		Gateway:     gateway,
		PolicyHash:  p.PolicyHash,
		ConsentHash: p.ConsentHash,
	}, nil
}
