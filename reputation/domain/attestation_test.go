package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockchain-trust-platform/fabric-chaincode/shared/errors"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/validation"
)

func TestEffectiveAttestationStatus(t *testing.T) {
	now := time.Now()
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	tests := []struct {
		name       string
		stored     validation.AttestationStatus
		expiration time.Time
		expected   validation.AttestationStatus
	}{
		{
			name:       "valid before expiry stays valid",
			stored:     validation.AttestationStatusValid,
			expiration: future,
			expected:   validation.AttestationStatusValid,
		},
		{
			name:       "valid after expiry reads expired",
			stored:     validation.AttestationStatusValid,
			expiration: past,
			expected:   validation.AttestationStatusExpired,
		},
		{
			name:       "disputed after expiry stays disputed",
			stored:     validation.AttestationStatusDisputed,
			expiration: past,
			expected:   validation.AttestationStatusDisputed,
		},
		{
			name:       "revoked never reads expired",
			stored:     validation.AttestationStatusRevoked,
			expiration: past,
			expected:   validation.AttestationStatusRevoked,
		},
		{
			name:       "stored expired stays expired",
			stored:     validation.AttestationStatusExpired,
			expiration: past,
			expected:   validation.AttestationStatusExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := &AttestationRecord{Status: tt.stored, ExpirationDate: tt.expiration}
			assert.Equal(t, tt.expected, record.EffectiveStatus(now))
		})
	}
}

func TestEffectiveAttestationStatusBoundary(t *testing.T) {
	now := time.Now()
	record := &AttestationRecord{Status: validation.AttestationStatusValid, ExpirationDate: now}

	// The expiration instant itself is still inside the validity window.
	assert.Equal(t, validation.AttestationStatusValid, record.EffectiveStatus(now))
	assert.Equal(t, validation.AttestationStatusExpired, record.EffectiveStatus(now.Add(time.Nanosecond)))
}

func validAttestationRequest() *AttestationRequest {
	return &AttestationRequest{
		AttestationID:   "att-tx-001",
		AttesterID:      "did:trust:attester",
		SubjectID:       "did:trust:subject",
		AttestationType: "TransactionCompleted",
		Category:        "financial",
		Score:           850,
		ExpirationDate:  time.Now().Add(24 * time.Hour),
		ActorID:         "attester-1",
	}
}

func TestValidateAttestationRequest(t *testing.T) {
	require.NoError(t, ValidateAttestationRequest(validAttestationRequest()))

	t.Run("rejects a self attestation", func(t *testing.T) {
		req := validAttestationRequest()
		req.SubjectID = req.AttesterID
		err := ValidateAttestationRequest(req)
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
		assert.Contains(t, err.Error(), "attester and subject must be different identities")
	})

	t.Run("rejects an unknown category", func(t *testing.T) {
		req := validAttestationRequest()
		req.Category = "astrology"
		err := ValidateAttestationRequest(req)
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
		assert.Contains(t, err.Error(), "unknown attestation category 'astrology'")
	})

	t.Run("rejects a non-DID subject", func(t *testing.T) {
		req := validAttestationRequest()
		req.SubjectID = "urn:uuid:1234"
		err := ValidateAttestationRequest(req)
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
		assert.Contains(t, err.Error(), "subjectID")
	})

	t.Run("collects multiple field problems", func(t *testing.T) {
		req := validAttestationRequest()
		req.AttestationType = ""
		req.ActorID = ""
		err := ValidateAttestationRequest(req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "attestationType is required")
		assert.Contains(t, err.Error(), "actorID is required")
	})

	t.Run("rejects a malformed evidence uri", func(t *testing.T) {
		req := validAttestationRequest()
		req.EvidenceURI = "not a uri"
		err := ValidateAttestationRequest(req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "evidenceURI")
	})

	t.Run("missing expiry is a validation problem", func(t *testing.T) {
		req := validAttestationRequest()
		req.ExpirationDate = time.Time{}
		err := ValidateAttestationRequest(req)
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
	})

	t.Run("past expiry is a policy violation", func(t *testing.T) {
		req := validAttestationRequest()
		req.ExpirationDate = time.Now().Add(-time.Hour)
		err := ValidateAttestationRequest(req)
		require.Error(t, err)
		assert.True(t, errors.IsPolicyViolation(err))
	})

	t.Run("an out of range score is not a validation problem", func(t *testing.T) {
		req := validAttestationRequest()
		req.Score = 4200
		require.NoError(t, ValidateAttestationRequest(req))
	})
}

func TestValidateAttestationStatusRequest(t *testing.T) {
	require.NoError(t, ValidateAttestationStatusRequest(&AttestationStatusRequest{
		AttestationID: "att-1",
		ActorID:       "attester-1",
	}, false))

	err := ValidateAttestationStatusRequest(&AttestationStatusRequest{
		AttestationID: "att-1",
		ActorID:       "attester-1",
	}, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reason is required")

	err = ValidateAttestationStatusRequest(&AttestationStatusRequest{ActorID: "attester-1"}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "attestationID is required")
}
