// Package prover turns public inputs and a witness into a proof artifact,
// either through an external prover process or a local stand-in.
package prover

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/davidahmann/relia-zk/pkg/types"
)

// SubstituteLabel marks proofs produced by Local.
const SubstituteLabel = "receipt_sig"

type Provider interface {
	Prove(ctx context.Context, pub types.PublicInputs, witness types.Witness) (types.Proof, error)
}

// Local is the stand-in prover. Its proof field is the receipt signature
// itself; it is not a zero-knowledge proof. It never fails.
type Local struct{}

func (Local) Prove(_ context.Context, pub types.PublicInputs, witness types.Witness) (types.Proof, error) {
	return Substitute(pub, witness), nil
}

// Substitute builds the stand-in proof for pub and witness.
func Substitute(pub types.PublicInputs, witness types.Witness) types.Proof {
	return types.Proof{
		ProofID:        "proof_" + strings.TrimPrefix(pub.ReceiptHash, "0x"),
		Proof:          witness.SignatureHex,
		PublicInputs:   pub,
		WitnessSummary: witness.Summarize(),
		Prover:         SubstituteLabel,
	}
}

// Fallback returns Primary's proof, or Secondary's when Primary fails.
type Fallback struct {
	Primary   Provider
	Secondary Provider
	Logger    *slog.Logger
}

func (f Fallback) Prove(ctx context.Context, pub types.PublicInputs, witness types.Witness) (types.Proof, error) {
	proof, err := f.Primary.Prove(ctx, pub, witness)
	if err == nil {
		return proof, nil
	}
	logger := f.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("external prover failed or not set; falling back", "error", err, "fallback", SubstituteLabel)
	return f.Secondary.Prove(ctx, pub, witness)
}

type Options struct {
	// Command is the external prover command line, split on whitespace.
	Command string
	Timeout time.Duration
	// ForceLocal skips the external prover entirely.
	ForceLocal bool
	Logger     *slog.Logger
}

// New composes the provider for opts: Local when forced, otherwise the
// external prover with Local as fallback.
func New(opts Options) Provider {
	if opts.ForceLocal {
		return Local{}
	}
	return Fallback{
		Primary:   &External{Command: opts.Command, Timeout: opts.Timeout},
		Secondary: Local{},
		Logger:    opts.Logger,
	}
}
