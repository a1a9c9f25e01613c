package verifier

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/text/cases"

	"github.com/davidahmann/relia-zk/internal/crypto"
)

// AnySigner is the gateway value that accepts whichever address recovers.
const AnySigner = "auto"

// IsAnySigner reports whether gateway selects accept-any-signer mode. An
// empty value counts as well.
func IsAnySigner(gateway string) bool {
	trimmed := strings.TrimSpace(gateway)
	return trimmed == "" || cases.Fold().String(trimmed) == AnySigner
}

// ParseGateway decodes a gateway address given either as 20 bytes or as a
// 32-byte field element whose first 12 bytes are padding.
func ParseGateway(gateway string) (common.Address, error) {
	raw, err := crypto.DecodeHex(gateway)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrGatewayParse, err)
	}

	switch len(raw) {
	case common.AddressLength:
		return common.BytesToAddress(raw), nil
	case 32:
		return common.BytesToAddress(raw[12:]), nil
	default:
		return common.Address{}, fmt.Errorf("%w: gateway must be 20 bytes (or 32 felt), got %d", ErrGatewayParse, len(raw))
	}
}

// ExpectedGateway resolves a gateway flag value: nil for accept-any-signer,
// otherwise the parsed address.
func ExpectedGateway(gateway string) (*common.Address, error) {
	if IsAnySigner(gateway) {
		return nil, nil
	}
	addr, err := ParseGateway(gateway)
	if err != nil {
		return nil, err
	}
	return &addr, nil
}
