package prover

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/davidahmann/relia-zk/pkg/types"
)

// DefaultTimeout bounds a single external prover run.
const DefaultTimeout = 2 * time.Minute

// NestedEnv is set in the environment of every spawned prover so a prover
// binary that itself honors the prover command does not recurse.
const NestedEnv = "RECEIPT_PROVER_NESTED"

// waitDelay is how long Wait keeps reading pipes after the child is killed.
const waitDelay = 2 * time.Second

var (
	requiredProofFields        = []string{"proof_id", "proof", "public_inputs", "witness_summary", "prover"}
	requiredPublicInputFields  = []string{"receipt_hash", "policy_hash", "consent_hash", "gateway_address"}
	requiredWitnessSummaryKeys = []string{"canonical_len"}
)

// External runs Command, writes a ProverRequest to its stdin and reads a
// Proof from its stdout.
type External struct {
	Command string
	Timeout time.Duration
}

func NewExternal(command string, timeout time.Duration) *External {
	return &External{Command: command, Timeout: timeout}
}

func (e *External) Prove(ctx context.Context, pub types.PublicInputs, witness types.Witness) (types.Proof, error) {
	fields := strings.Fields(e.Command)
	if len(fields) == 0 {
		return types.Proof{}, ErrNotConfigured
	}

	payload, err := json.Marshal(types.ProverRequest{PublicInputs: pub, Witness: witness})
	if err != nil {
		return types.Proof{}, fmt.Errorf("%w: encode request: %v", ErrSpawn, err)
	}

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// #nosec G204 -- the prover command is operator configuration.
	cmd := exec.CommandContext(ctx, fields[0], fields[1:]...)
	cmd.Env = append(os.Environ(), NestedEnv+"=1")
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	if err := cmd.Start(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return types.Proof{}, contextError(ctxErr)
		}
		return types.Proof{}, fmt.Errorf("%w: %v", ErrSpawn, err)
	}
	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return types.Proof{}, contextError(ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return types.Proof{}, fmt.Errorf("%w: %s: %s", ErrExit, exitErr, strings.TrimSpace(stderr.String()))
		}
		return types.Proof{}, fmt.Errorf("%w: %v", ErrExit, err)
	}

	return decodeProof(stdout.Bytes())
}

// contextError reports a deadline as ErrTimeout and a cancellation as a
// plain prover error that still matches context.Canceled.
func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrProver, err)
}

// decodeProof accepts only a complete proof: every required field present
// and non-null, at the top level and inside public_inputs and
// witness_summary.
func decodeProof(data []byte) (types.Proof, error) {
	present, err := requireFields(data, "proof", requiredProofFields)
	if err != nil {
		return types.Proof{}, err
	}
	if _, err := requireFields(present["public_inputs"], "public_inputs", requiredPublicInputFields); err != nil {
		return types.Proof{}, err
	}
	if _, err := requireFields(present["witness_summary"], "witness_summary", requiredWitnessSummaryKeys); err != nil {
		return types.Proof{}, err
	}

	var proof types.Proof
	if err := json.Unmarshal(data, &proof); err != nil {
		return types.Proof{}, fmt.Errorf("%w: %v", ErrOutput, err)
	}
	if proof.WitnessSummary.CanonicalLen < 0 {
		return types.Proof{}, fmt.Errorf("%w: negative canonical_len %d", ErrOutput, proof.WitnessSummary.CanonicalLen)
	}
	return proof, nil
}

func requireFields(data []byte, name string, fields []string) (map[string]json.RawMessage, error) {
	var present map[string]json.RawMessage
	if err := json.Unmarshal(data, &present); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrOutput, name, err)
	}
	if present == nil {
		return nil, fmt.Errorf("%w: %s is null", ErrOutput, name)
	}
	for _, field := range fields {
		raw, ok := present[field]
		if !ok {
			return nil, fmt.Errorf("%w: %s: missing field %q", ErrOutput, name, field)
		}
		if string(raw) == "null" {
			return nil, fmt.Errorf("%w: %s: field %q is null", ErrOutput, name, field)
		}
	}
	return present, nil
}
