package types

// PublicInputs is the verified data exposed to a downstream circuit.
type PublicInputs struct {
	ReceiptHash    string  `json:"receipt_hash"`
	PolicyHash     string  `json:"policy_hash"`
	ConsentHash    string  `json:"consent_hash"`
	GatewayAddress string  `json:"gateway_address"`
	Note           *string `json:"note"`
}

// Witness carries the raw material a prover needs beside the public inputs.
type Witness struct {
	CanonicalReceipt string  `json:"canonical_receipt"`
	SignatureHex     string  `json:"signature_hex"`
	ReceiptID        *string `json:"receipt_id"`
	AnchorTxHash     *string `json:"anchor_tx_hash"`
}

type WitnessSummary struct {
	ReceiptID    *string `json:"receipt_id"`
	AnchorTxHash *string `json:"anchor_tx_hash"`
	CanonicalLen int     `json:"canonical_len"` // bytes
}

type Proof struct {
	ProofID        string         `json:"proof_id"`
	Proof          string         `json:"proof"`
	PublicInputs   PublicInputs   `json:"public_inputs"`
	WitnessSummary WitnessSummary `json:"witness_summary"`
	Prover         string         `json:"prover"`
}

// ProverRequest is the single JSON object written to an external prover's
// standard input.
type ProverRequest struct {
	PublicInputs PublicInputs `json:"public_inputs"`
	Witness      Witness      `json:"witness"`
}

// Summarize derives the witness summary embedded in a proof. CanonicalLen
// is the length of the canonical receipt in bytes, not characters.
func (w Witness) Summarize() WitnessSummary {
	return WitnessSummary{
		ReceiptID:    w.ReceiptID,
		AnchorTxHash: w.AnchorTxHash,
		CanonicalLen: len(w.CanonicalReceipt),
	}
}
