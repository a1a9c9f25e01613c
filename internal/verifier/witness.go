package verifier

import (
	"fmt"

	"github.com/davidahmann/relia-zk/internal/canonical"
	"github.com/davidahmann/relia-zk/pkg/types"
)

// PublicInputsNote is attached to every PublicInputs built here.
const PublicInputsNote = "Use these as public signals; feed canonical_receipt + sig as witness"

// Build verifies receipt and assembles the circuit's public inputs and
// witness. gateway is either AnySigner (or empty) or a hex address.
//
// The policy and consent hashes are checked against the receipt's own
// fields, so Build alone cannot catch a forged policy or consent value.
// Call Verify with independently known expectations first.
func Build(receipt canonical.Value, signatureHex string, gateway string) (types.PublicInputs, types.Witness, error) {
	expectedGateway, err := ExpectedGateway(gateway)
	if err != nil {
		return types.PublicInputs{}, types.Witness{}, err
	}

	policy, _ := canonical.StringAt(receipt, FieldPolicyHash)
	consent, _ := canonical.StringAt(receipt, FieldConsentHash)

	result, err := Verify(receipt, signatureHex, Expectations{
		Gateway:     expectedGateway,
		PolicyHash:  policy,
		ConsentHash: consent,
	})
	if err != nil {
		return types.PublicInputs{}, types.Witness{}, err
	}

	text, err := canonical.Text(receipt)
	if err != nil {
		return types.PublicInputs{}, types.Witness{}, fmt.Errorf("%w: %v", ErrSerialization, err)
	}

	note := PublicInputsNote
	pub := types.PublicInputs{
		ReceiptHash:    "0x" + result.ReceiptHash,
		PolicyHash:     policy,
		ConsentHash:    consent,
		GatewayAddress: result.AddressHex(),
		Note:           &note,
	}
	witness := types.Witness{
		CanonicalReceipt: text,
		SignatureHex:     signatureHex,
		ReceiptID:        optionalString(receipt, FieldReceiptID),
		AnchorTxHash:     optionalString(receipt, "anchor", "l2_tx", "tx_hash"),
	}
	return pub, witness, nil
}

func optionalString(v canonical.Value, path ...string) *string {
	s, ok := canonical.StringAt(v, path...)
	if !ok {
		return nil
	}
	return &s
}
