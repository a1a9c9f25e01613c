package crypto

import (
	"bytes"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidahmann/relia-zk/internal/canonical"
)

func writeKey(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gateway.key")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestLoadPrivateKeyFormats(t *testing.T) {
	raw, err := hex.DecodeString(gatewayKeyHex)
	require.NoError(t, err)

	for name, data := range map[string][]byte{
		"bare hex":   []byte(gatewayKeyHex + "\n"),
		"0x hex":     []byte("0x" + gatewayKeyHex),
		"hex prefix": []byte("hex:" + gatewayKeyHex),
		"raw":        raw,
	} {
		key, err := LoadPrivateKey(writeKey(t, data))
		require.NoError(t, err, name)
		assert.Equal(t, common.HexToAddress(gatewayAddrHex), AddressOf(key), name)
	}
}

func TestLoadPrivateKeyErrors(t *testing.T) {
	_, err := LoadPrivateKey(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)

	_, err = LoadPrivateKey(writeKey(t, []byte("  ")))
	require.Error(t, err)

	_, err = LoadPrivateKey(writeKey(t, []byte("not-a-key")))
	require.Error(t, err)

	_, err = LoadPrivateKey(writeKey(t, []byte("abcd")))
	require.ErrorIs(t, err, ErrInvalidSeedSize)
}

func TestPrivateKeyFromSeedInvalidSize(t *testing.T) {
	_, err := PrivateKeyFromSeed([]byte{0x01})
	require.ErrorIs(t, err, ErrInvalidSeedSize)
}

func TestSignReceiptRecoversSigner(t *testing.T) {
	key, err := PrivateKeyFromSeed(bytes.Repeat([]byte{0x07}, 32))
	require.NoError(t, err)

	receipt, err := canonical.Parse([]byte(`{"receipt_id":"r1","policy_hash":"ph","consent_snapshot_hash":"ch"}`))
	require.NoError(t, err)

	sig, err := SignReceipt(receipt, key)
	require.NoError(t, err)
	assert.Len(t, sig, 2+2*SignatureLength)

	// attaching the signature and an anchor does not change the digest
	decorated := receipt.(canonical.Object).
		Set(FieldSignature, canonical.String(sig)).
		Set(FieldAnchor, canonical.Object{{Key: "anchor_id", Value: canonical.String("a1")}})
	digest, _, err := SigningDigest(decorated)
	require.NoError(t, err)

	addr, err := RecoverAddress(sig, digest)
	require.NoError(t, err)
	assert.Equal(t, AddressOf(key), addr)
}
