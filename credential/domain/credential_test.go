package domain

import (
	"testing"
	"time"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockchain-trust-platform/fabric-chaincode/shared/errors"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/validation"
)

func TestEffectiveCredentialStatus(t *testing.T) {
	now := time.Now()
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	tests := []struct {
		name       string
		stored     validation.CredentialStatus
		expiration time.Time
		expected   validation.CredentialStatus
	}{
		{
			name:       "valid before expiry stays valid",
			stored:     validation.CredentialStatusValid,
			expiration: future,
			expected:   validation.CredentialStatusValid,
		},
		{
			name:       "valid after expiry reads expired",
			stored:     validation.CredentialStatusValid,
			expiration: past,
			expected:   validation.CredentialStatusExpired,
		},
		{
			name:       "suspended after expiry reads expired",
			stored:     validation.CredentialStatusSuspended,
			expiration: past,
			expected:   validation.CredentialStatusExpired,
		},
		{
			name:       "revoked never reads expired",
			stored:     validation.CredentialStatusRevoked,
			expiration: past,
			expected:   validation.CredentialStatusRevoked,
		},
		{
			name:       "stored expired stays expired",
			stored:     validation.CredentialStatusExpired,
			expiration: past,
			expected:   validation.CredentialStatusExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := &CredentialRecord{Status: tt.stored, ExpirationDate: tt.expiration}
			assert.Equal(t, tt.expected, record.EffectiveStatus(now))
		})
	}
}

func TestEffectiveStatusExactBoundary(t *testing.T) {
	now := time.Now()
	record := &CredentialRecord{Status: validation.CredentialStatusValid, ExpirationDate: now}

	// The expiration instant itself is still inside the validity window.
	assert.Equal(t, validation.CredentialStatusValid, record.EffectiveStatus(now))
	assert.Equal(t, validation.CredentialStatusExpired, record.EffectiveStatus(now.Add(time.Nanosecond)))
}

func TestComputeVerifiabilityScore(t *testing.T) {
	schemaHash := digest.FromString("schema").String()

	tests := []struct {
		name       string
		proof      *CredentialProof
		schemaHash string
		expected   int
	}{
		{
			name:     "bare digest earns the base score",
			proof:    nil,
			expected: 250,
		},
		{
			name:       "schema binding only",
			proof:      nil,
			schemaHash: schemaHash,
			expected:   400,
		},
		{
			name: "evidence link only",
			proof: &CredentialProof{
				EvidenceURI: "https://evidence.example.com/report",
			},
			expected: 450,
		},
		{
			name: "signature needs its verification method",
			proof: &CredentialProof{
				ProofSignatureHex: "aa",
			},
			expected: 250,
		},
		{
			name: "signature with method",
			proof: &CredentialProof{
				ProofSignatureHex: "aa",
				ProofMethodID:     "key-1",
			},
			expected: 500,
		},
		{
			name: "complete proof reaches the cap",
			proof: &CredentialProof{
				ProofSignatureHex: "aa",
				ProofMethodID:     "key-1",
				EvidenceURI:       "https://evidence.example.com/report",
				TermsOfUseURI:     "https://issuer.example.com/terms",
			},
			schemaHash: schemaHash,
			expected:   1000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ComputeVerifiabilityScore(tt.proof, tt.schemaHash))
		})
	}
}

func validAnchorRequest() *CredentialAnchorRequest {
	return &CredentialAnchorRequest{
		CredentialHash: digest.FromString("credential content").String(),
		IssuerID:       "did:trust:issuer",
		SubjectID:      "did:trust:subject",
		CredentialType: "UniversityDegree",
		ExpirationDate: time.Now().Add(24 * time.Hour),
		ActorID:        "issuer-1",
	}
}

func TestValidateAnchorRequest(t *testing.T) {
	require.NoError(t, ValidateAnchorRequest(validAnchorRequest()))

	t.Run("rejects a malformed digest", func(t *testing.T) {
		req := validAnchorRequest()
		req.CredentialHash = "not-a-digest"
		err := ValidateAnchorRequest(req)
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
		assert.Contains(t, err.Error(), "credentialHash")
	})

	t.Run("collects multiple field problems", func(t *testing.T) {
		req := validAnchorRequest()
		req.CredentialType = ""
		req.ActorID = ""
		err := ValidateAnchorRequest(req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "credentialType is required")
		assert.Contains(t, err.Error(), "actorID is required")
	})

	t.Run("rejects a non-DID issuer", func(t *testing.T) {
		req := validAnchorRequest()
		req.IssuerID = "urn:uuid:1234"
		err := ValidateAnchorRequest(req)
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
	})

	t.Run("rejects a malformed schema digest", func(t *testing.T) {
		req := validAnchorRequest()
		req.SchemaHash = "sha256:short"
		err := ValidateAnchorRequest(req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "schemaHash")
	})

	t.Run("missing expiry is a validation problem", func(t *testing.T) {
		req := validAnchorRequest()
		req.ExpirationDate = time.Time{}
		err := ValidateAnchorRequest(req)
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
	})

	t.Run("past expiry is a policy violation", func(t *testing.T) {
		req := validAnchorRequest()
		req.ExpirationDate = time.Now().Add(-time.Hour)
		err := ValidateAnchorRequest(req)
		require.Error(t, err)
		assert.True(t, errors.IsPolicyViolation(err))
	})

	t.Run("proof signature without a method", func(t *testing.T) {
		req := validAnchorRequest()
		req.Proof = &CredentialProof{ProofSignatureHex: "aa"}
		err := ValidateAnchorRequest(req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "proofMethodID")
	})

	t.Run("evidence link must be a URI", func(t *testing.T) {
		req := validAnchorRequest()
		req.Proof = &CredentialProof{EvidenceURI: "evidence without scheme"}
		err := ValidateAnchorRequest(req)
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
	})
}

func TestValidateStatusRequest(t *testing.T) {
	req := &CredentialStatusRequest{
		CredentialHash: digest.FromString("credential").String(),
		ActorID:        "did:trust:issuer",
	}
	require.NoError(t, ValidateStatusRequest(req, false))

	err := ValidateStatusRequest(req, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reason is required")

	req.Reason = "key compromise"
	require.NoError(t, ValidateStatusRequest(req, true))

	req.CredentialHash = ""
	err = ValidateStatusRequest(req, true)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestValidateIssuerTrustRequest(t *testing.T) {
	req := &IssuerTrustRequest{
		IssuerID: "did:trust:issuer",
		Trusted:  true,
		ActorID:  "authority-1",
	}
	require.NoError(t, ValidateIssuerTrustRequest(req))

	req.Trusted = false
	err := ValidateIssuerTrustRequest(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reason is required")

	req.Reason = "fraudulent issuance pattern"
	require.NoError(t, ValidateIssuerTrustRequest(req))

	req.IssuerID = "not-a-did"
	err = ValidateIssuerTrustRequest(req)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}
