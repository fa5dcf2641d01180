package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerify(t *testing.T) {
	keyPair, err := GenerateKeyPair()
	require.NoError(t, err)

	message := []byte("credential payload")
	signature, err := Sign(message, keyPair.PrivateKeyHex)
	require.NoError(t, err)

	valid, err := VerifySignature(message, signature, keyPair.PublicKeyHex)
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = VerifySignature([]byte("tampered payload"), signature, keyPair.PublicKeyHex)
	require.NoError(t, err)
	assert.False(t, valid, "signature over different bytes must not verify")
}

func TestVerifySignatureWrongKey(t *testing.T) {
	signer, err := GenerateKeyPair()
	require.NoError(t, err)
	other, err := GenerateKeyPair()
	require.NoError(t, err)

	message := []byte("payload")
	signature, err := Sign(message, signer.PrivateKeyHex)
	require.NoError(t, err)

	valid, err := VerifySignature(message, signature, other.PublicKeyHex)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestVerifySignatureMalformedInputs(t *testing.T) {
	keyPair, err := GenerateKeyPair()
	require.NoError(t, err)

	_, err = VerifySignature([]byte("m"), "not-hex", keyPair.PublicKeyHex)
	assert.Error(t, err)

	_, err = VerifySignature([]byte("m"), "abcd", keyPair.PublicKeyHex)
	assert.Error(t, err, "truncated signature should be an error, not a mismatch")

	_, err = VerifySignature([]byte("m"), "", "abcd")
	assert.Error(t, err)

	_, err = Sign([]byte("m"), "abcd")
	assert.Error(t, err)
}

func TestSHA256Hex(t *testing.T) {
	// Known vector for the empty input.
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		SHA256Hex(nil))
	assert.Equal(t, SHA256Hex([]byte("abc")), SHA256HexString("abc"))
	assert.Len(t, SHA256HexString("recovery secret"), 64)
}

func TestConstantTimeEqual(t *testing.T) {
	assert.True(t, ConstantTimeEqual("deadbeef", "deadbeef"))
	assert.False(t, ConstantTimeEqual("deadbeef", "deadbeee"))
	assert.False(t, ConstantTimeEqual("short", "longer-value"))
}

func TestCanonicalizeJSONSortsKeys(t *testing.T) {
	first, err := CanonicalizeJSON(map[string]interface{}{
		"b": 2,
		"a": 1,
		"c": map[string]interface{}{"z": true, "y": "v"},
	})
	require.NoError(t, err)

	second, err := CanonicalizeJSON(map[string]interface{}{
		"c": map[string]interface{}{"y": "v", "z": true},
		"a": 1,
		"b": 2,
	})
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
	assert.Equal(t, `{"a":1,"b":2,"c":{"y":"v","z":true}}`, string(first))
}

func TestCanonicalizeJSONPreservesNumbers(t *testing.T) {
	out, err := CanonicalizeJSON(map[string]interface{}{"score": 850, "rate": 0.05})
	require.NoError(t, err)
	assert.Equal(t, `{"rate":0.05,"score":850}`, string(out))
}

func TestCanonicalizeJSONStruct(t *testing.T) {
	type proof struct {
		IdentityID    string `json:"identityID"`
		NewController string `json:"newController"`
		SecretHash    string `json:"secretHash"`
	}

	out, err := CanonicalizeJSON(proof{
		IdentityID:    "did:trust:alice",
		NewController: "did:trust:carol",
		SecretHash:    "aa11",
	})
	require.NoError(t, err)
	assert.Equal(t,
		`{"identityID":"did:trust:alice","newController":"did:trust:carol","secretHash":"aa11"}`,
		string(out))
}
