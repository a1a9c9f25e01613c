package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/davidahmann/relia-zk/internal/prover"
	"github.com/davidahmann/relia-zk/pkg/types"
)

func request(t *testing.T) string {
	t.Helper()
	note := "n"
	payload, err := json.Marshal(types.ProverRequest{
		PublicInputs: types.PublicInputs{ReceiptHash: "0xfeed", PolicyHash: "ph", ConsentHash: "ch", GatewayAddress: "0x01", Note: &note},
		Witness:      types.Witness{CanonicalReceipt: `{"a":1}`, SignatureHex: "0xsig"},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(payload)
}

func runProver(t *testing.T, args []string, environ []string, stdin string) (int, types.Proof, string) {
	t.Helper()
	var stdout bytes.Buffer
	var stderr bytes.Buffer

	code := run(args, environ, strings.NewReader(stdin), &stdout, &stderr)
	var proof types.Proof
	if code == 0 {
		if err := json.Unmarshal(stdout.Bytes(), &proof); err != nil {
			t.Fatalf("decode proof: %v (%q)", err, stdout.String())
		}
	}
	return code, proof, stderr.String()
}

func TestProverStub(t *testing.T) {
	code, proof, stderr := runProver(t, []string{"--stub"}, nil, request(t))
	if code != 0 {
		t.Fatalf("expected code 0, got %d: %s", code, stderr)
	}
	if proof.Prover != prover.SubstituteLabel || proof.ProofID != "proof_feed" || proof.Proof != "0xsig" {
		t.Fatalf("unexpected proof: %+v", proof)
	}
	if proof.WitnessSummary.CanonicalLen != len(`{"a":1}`) {
		t.Fatalf("unexpected summary: %+v", proof.WitnessSummary)
	}
}

func TestProverFallsBack(t *testing.T) {
	environ := []string{"RECEIPT_PROVER_CMD=/nonexistent/prover"}
	code, proof, stderr := runProver(t, nil, environ, request(t))
	if code != 0 {
		t.Fatalf("expected code 0, got %d: %s", code, stderr)
	}
	if proof.Prover != prover.SubstituteLabel {
		t.Fatalf("unexpected prover: %q", proof.Prover)
	}
	if !strings.Contains(stderr, "falling back") {
		t.Fatalf("expected fallback warning, got %q", stderr)
	}
}

func TestProverNestedSkipsExternal(t *testing.T) {
	environ := []string{"RECEIPT_PROVER_CMD=/nonexistent/prover", prover.NestedEnv + "=1"}
	code, proof, stderr := runProver(t, nil, environ, request(t))
	if code != 0 {
		t.Fatalf("expected code 0, got %d: %s", code, stderr)
	}
	if proof.Prover != prover.SubstituteLabel {
		t.Fatalf("unexpected prover: %q", proof.Prover)
	}
	if strings.Contains(stderr, "falling back") {
		t.Fatalf("nested prover should not spawn: %q", stderr)
	}
}

func TestProverMalformedInput(t *testing.T) {
	code, _, stderr := runProver(t, []string{"--stub"}, nil, "{not json")
	if code != 1 {
		t.Fatalf("expected code 1, got %d", code)
	}
	if !strings.Contains(stderr, "decode prover request") {
		t.Fatalf("unexpected stderr: %q", stderr)
	}
}

func TestProverBadFlag(t *testing.T) {
	code, _, _ := runProver(t, []string{"--bogus"}, nil, request(t))
	if code != 2 {
		t.Fatalf("expected code 2, got %d", code)
	}
}

func TestProverRejectsTrailingInput(t *testing.T) {
	code, _, stderr := runProver(t, []string{"--stub"}, nil, request(t)+` {"proof_id":"x"}`)
	if code == 0 {
		t.Fatalf("expected failure for trailing input")
	}
	if !strings.Contains(stderr, "unexpected data after request") {
		t.Fatalf("unexpected stderr: %q", stderr)
	}
}
