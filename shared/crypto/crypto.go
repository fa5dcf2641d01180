// Package crypto provides the cryptographic primitives used by the
// identity resolver and the credential verifier: Ed25519 signatures over
// canonical JSON, SHA-256 digests, and constant-time comparison.
package crypto

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// KeyPair holds a hex-encoded Ed25519 key pair.
type KeyPair struct {
	PublicKeyHex  string `json:"publicKeyHex"`
	PrivateKeyHex string `json:"privateKeyHex"`
}

// GenerateKeyPair creates a new Ed25519 key pair.
func GenerateKeyPair() (*KeyPair, error) {
	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key pair: %v", err)
	}

	return &KeyPair{
		PublicKeyHex:  hex.EncodeToString(publicKey),
		PrivateKeyHex: hex.EncodeToString(privateKey),
	}, nil
}

// Sign signs a message with a hex-encoded Ed25519 private key and returns
// the hex-encoded signature.
func Sign(message []byte, privateKeyHex string) (string, error) {
	keyBytes, err := hex.DecodeString(privateKeyHex)
	if err != nil {
		return "", fmt.Errorf("invalid private key encoding: %v", err)
	}
	if len(keyBytes) != ed25519.PrivateKeySize {
		return "", fmt.Errorf("invalid private key length: %d", len(keyBytes))
	}

	signature := ed25519.Sign(ed25519.PrivateKey(keyBytes), message)
	return hex.EncodeToString(signature), nil
}

// VerifySignature checks a hex-encoded Ed25519 signature over a message.
// Malformed keys or signatures are errors; a well-formed signature that
// does not match returns (false, nil).
func VerifySignature(message []byte, signatureHex, publicKeyHex string) (bool, error) {
	publicKey, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return false, fmt.Errorf("invalid public key encoding: %v", err)
	}
	if len(publicKey) != ed25519.PublicKeySize {
		return false, fmt.Errorf("invalid public key length: %d", len(publicKey))
	}

	signature, err := hex.DecodeString(signatureHex)
	if err != nil {
		return false, fmt.Errorf("invalid signature encoding: %v", err)
	}
	if len(signature) != ed25519.SignatureSize {
		return false, fmt.Errorf("invalid signature length: %d", len(signature))
	}

	return ed25519.Verify(ed25519.PublicKey(publicKey), message, signature), nil
}

// SHA256Hex returns the hex-encoded SHA-256 digest of data.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SHA256HexString returns the hex-encoded SHA-256 digest of a string.
func SHA256HexString(s string) string {
	return SHA256Hex([]byte(s))
}

// ConstantTimeEqual compares two strings without leaking the position of
// the first difference.
func ConstantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// CanonicalizeJSON renders a value as JSON with object keys sorted
// recursively. Signing payloads must be canonicalized so that signer and
// verifier hash identical bytes regardless of map iteration order.
func CanonicalizeJSON(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal value: %v", err)
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var parsed interface{}
	if err := decoder.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse value: %v", err)
	}

	var buf bytes.Buffer
	if err := writeCanonical(&buf, parsed); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v interface{}) error {
	switch value := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(value))
		for k := range value {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			keyBytes, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(keyBytes)
			buf.WriteByte(':')
			if err := writeCanonical(buf, value[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case []interface{}:
		buf.WriteByte('[')
		for i, item := range value {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case json.Number:
		buf.WriteString(value.String())
		return nil
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			return err
		}
		buf.Write(encoded)
		return nil
	}
}
