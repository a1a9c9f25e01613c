package trust

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/davidahmann/relia-zk/internal/crypto"
	"github.com/davidahmann/relia-zk/internal/verifier"
)

func TestLoad(t *testing.T) {
	loaded, err := Load("testdata/profile.yaml")
	if err != nil {
		t.Fatalf("load profile: %v", err)
	}

	if loaded.Profile.ProfileID != "local-dev" {
		t.Fatalf("unexpected profile id: %q", loaded.Profile.ProfileID)
	}

	data, err := os.ReadFile("testdata/profile.yaml")
	if err != nil {
		t.Fatalf("read profile: %v", err)
	}

	expected := crypto.DigestWithPrefix(data)
	if loaded.Hash != expected {
		t.Fatalf("profile hash mismatch: got %s want %s", loaded.Hash, expected)
	}
}

func TestExpectations(t *testing.T) {
	loaded, err := Load("testdata/profile.yaml")
	if err != nil {
		t.Fatalf("load profile: %v", err)
	}

	exp, err := loaded.Profile.Expectations()
	if err != nil {
		t.Fatalf("expectations: %v", err)
	}
	if exp.Gateway == nil || exp.Gateway.Hex() != "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266" {
		t.Fatalf("unexpected gateway: %v", exp.Gateway)
	}
	if exp.PolicyHash != "ph" || exp.ConsentHash != "ch" {
		t.Fatalf("unexpected hashes: %+v", exp)
	}

	exp, err = Profile{Gateway: "AUTO", PolicyHash: "ph", ConsentHash: "ch"}.Expectations()
	if err != nil {
		t.Fatalf("expectations: %v", err)
	}
	if exp.Gateway != nil {
		t.Fatalf("expected any-signer mode")
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]Profile{
		"missing policy":  {ConsentHash: "ch"},
		"missing consent": {PolicyHash: "ph"},
		"bad gateway":     {PolicyHash: "ph", ConsentHash: "ch", Gateway: "0x1234"},
	}
	for name, p := range cases {
		if err := p.Validate(); !errors.Is(err, ErrInvalidProfile) {
			t.Fatalf("%s: expected ErrInvalidProfile, got %v", name, err)
		}
	}

	err := cases["bad gateway"].Validate()
	if !errors.Is(err, verifier.ErrGatewayParse) {
		t.Fatalf("expected gateway parse error, got %v", err)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("policy_hash: [unterminated"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(bad); !errors.Is(err, ErrInvalidProfile) {
		t.Fatalf("expected ErrInvalidProfile, got %v", err)
	}

	incomplete := filepath.Join(dir, "incomplete.yaml")
	if err := os.WriteFile(incomplete, []byte("profile_id: x\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(incomplete); !errors.Is(err, ErrInvalidProfile) {
		t.Fatalf("expected ErrInvalidProfile, got %v", err)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
