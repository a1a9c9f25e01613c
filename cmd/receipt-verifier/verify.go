package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/davidahmann/relia-zk/internal/canonical"
	"github.com/davidahmann/relia-zk/internal/crypto"
	"github.com/davidahmann/relia-zk/internal/prover"
	"github.com/davidahmann/relia-zk/internal/trust"
	"github.com/davidahmann/relia-zk/internal/verifier"
)

type verifyOptions struct {
	receipt     string
	signature   string
	gateway     string
	policyHash  string
	consentHash string
	trust       string
	outPublic   string
	outWitness  string
	outProof    string
	prove       bool
	stub        bool
}

func newVerifyCmd(g *globalOptions) *cobra.Command {
	opts := &verifyOptions{}
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a receipt signature and its policy/consent hashes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVerify(cmd, g, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.receipt, "receipt", "", "path to receipt JSON")
	f.StringVar(&opts.signature, "signature", "", "receipt signature hex, 65-byte r||s||v (default: the receipt's receipt_sig)")
	f.StringVar(&opts.gateway, "gateway", "", `gateway address (0x...), or "auto" to accept the recovered signer`)
	f.StringVar(&opts.policyHash, "policy-hash", "", "expected policy hash")
	f.StringVar(&opts.consentHash, "consent-hash", "", "expected consent hash")
	f.StringVar(&opts.trust, "trust", "", "trust profile supplying unset expectations")
	f.StringVar(&opts.outPublic, "out-public", "", "path to write public inputs JSON")
	f.StringVar(&opts.outWitness, "out-witness", "", "path to write witness JSON")
	f.StringVar(&opts.outProof, "out-proof", "", "path to write proof JSON")
	f.BoolVar(&opts.prove, "prove", false, "generate a proof (external prover, falling back to receipt_sig)")
	f.BoolVar(&opts.stub, "stub", false, "use the receipt_sig substitute even if a prover is configured")
	_ = cmd.MarkFlagRequired("receipt")
	return cmd
}

func runVerify(cmd *cobra.Command, g *globalOptions, opts *verifyOptions) error {
	cfg, err := g.config()
	if err != nil {
		return err
	}
	logger := g.logger()
	out := g.stdout

	gateway, policyHash, consentHash := opts.gateway, opts.policyHash, opts.consentHash
	if profilePath := firstNonEmpty(opts.trust, cfg.TrustProfile); profilePath != "" {
		loaded, err := trust.Load(profilePath)
		if err != nil {
			return failure("trust profile: %v", err)
		}
		logger.Debug("loaded trust profile", "profile_id", loaded.Profile.ProfileID, "profile_hash", loaded.Hash)
		gateway = firstNonEmpty(gateway, loaded.Profile.Gateway)
		policyHash = firstNonEmpty(policyHash, loaded.Profile.PolicyHash)
		consentHash = firstNonEmpty(consentHash, loaded.Profile.ConsentHash)
	}
	gateway = firstNonEmpty(gateway, cfg.Gateway.Address)

	switch {
	case gateway == "":
		return usageError("verify requires --gateway (use %q to accept any signer)", verifier.AnySigner)
	case policyHash == "":
		return usageError("verify requires --policy-hash")
	case consentHash == "":
		return usageError("verify requires --consent-hash")
	}

	receipt, err := readReceipt(opts.receipt)
	if err != nil {
		return failure("%v", err)
	}

	signature := opts.signature
	if signature == "" {
		embedded, ok := canonical.StringAt(receipt, crypto.FieldSignature)
		if !ok {
			return usageError("verify requires --signature (receipt has no %s field)", crypto.FieldSignature)
		}
		signature = embedded
	}

	expectedGateway, err := verifier.ExpectedGateway(gateway)
	if err != nil {
		return failure("verification failed: %v", err)
	}
	result, err := verifier.Verify(receipt, signature, verifier.Expectations{
		Gateway:     expectedGateway,
		PolicyHash:  policyHash,
		ConsentHash: consentHash,
	})
	if err != nil {
		logger.Debug("verification failed", "kind", verifier.Kind(err))
		return failure("verification failed: %v", err)
	}

	fmt.Fprintln(out, "signature ok, policy/consent ok")
	fmt.Fprintf(out, "receipt_hash (sha256 canonical): 0x%s\n", result.ReceiptHash)
	fmt.Fprintf(out, "recovered address: %s\n", result.AddressHex())

	pub, witness, err := verifier.Build(receipt, signature, gateway)
	if err != nil {
		return failure("build public inputs: %v", err)
	}
	if err := printJSON(out, "public inputs JSON:", pub); err != nil {
		return failure("%v", err)
	}
	if opts.outPublic != "" {
		if err := writeJSON(opts.outPublic, pub); err != nil {
			return failure("write public inputs: %v", err)
		}
		fmt.Fprintf(out, "saved public inputs to %s\n", opts.outPublic)
	}
	if opts.outWitness != "" {
		if err := writeJSON(opts.outWitness, witness); err != nil {
			return failure("write witness: %v", err)
		}
		fmt.Fprintf(out, "saved witness to %s\n", opts.outWitness)
	}

	if !opts.prove {
		return nil
	}
	p := prover.New(prover.Options{
		Command:    cfg.Prover.Command,
		Timeout:    cfg.Prover.Timeout,
		ForceLocal: opts.stub,
		Logger:     logger,
	})
	proof, err := p.Prove(cmd.Context(), pub, witness)
	if err != nil {
		return failure("prove: %v", err)
	}
	if err := printJSON(out, "proof:", proof); err != nil {
		return failure("%v", err)
	}
	if opts.outProof != "" {
		if err := writeJSON(opts.outProof, proof); err != nil {
			return failure("write proof: %v", err)
		}
		fmt.Fprintf(out, "saved proof to %s\n", opts.outProof)
	}
	return nil
}
