package prover

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/davidahmann/relia-zk/pkg/types"
)

// ErrRequest marks a request Serve refuses to prove.
var ErrRequest = errors.New("invalid prover request")

var requiredWitnessFields = []string{"canonical_receipt", "signature_hex"}

// Serve is the prover side of the external protocol: it reads one
// ProverRequest from r, proves it with p and writes the Proof to w as a
// single JSON line. Anything but whitespace after the request is an error.
func Serve(ctx context.Context, r io.Reader, w io.Writer, p Provider) error {
	req, err := decodeRequest(r)
	if err != nil {
		return fmt.Errorf("decode prover request: %w", err)
	}

	proof, err := p.Prove(ctx, req.PublicInputs, req.Witness)
	if err != nil {
		return err
	}
	return json.NewEncoder(w).Encode(proof)
}

func decodeRequest(r io.Reader) (types.ProverRequest, error) {
	dec := json.NewDecoder(r)
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return types.ProverRequest{}, fmt.Errorf("%w: %v", ErrRequest, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return types.ProverRequest{}, fmt.Errorf("%w: unexpected data after request", ErrRequest)
	}

	var shape struct {
		Witness map[string]json.RawMessage `json:"witness"`
	}
	if err := json.Unmarshal(raw, &shape); err != nil {
		return types.ProverRequest{}, fmt.Errorf("%w: %v", ErrRequest, err)
	}
	for _, field := range requiredWitnessFields {
		value, ok := shape.Witness[field]
		if !ok || bytes.Equal(value, []byte("null")) {
			return types.ProverRequest{}, fmt.Errorf("%w: witness.%s is required", ErrRequest, field)
		}
	}

	var req types.ProverRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return types.ProverRequest{}, fmt.Errorf("%w: %v", ErrRequest, err)
	}
	return req, nil
}
