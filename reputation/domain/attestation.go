package domain

import (
	"time"

	"github.com/blockchain-trust-platform/fabric-chaincode/shared/interfaces"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/validation"
)

// AttestationRecord is a scored reputation claim one party makes about
// another. The persisted score is always within [0, 1000]; out-of-range
// input is clamped at recording time, never rejected.
type AttestationRecord struct {
	AttestationID   string                       `json:"attestationID"`
	AttesterID      string                       `json:"attesterID"`
	SubjectID       string                       `json:"subjectID"`
	AttestationType string                       `json:"attestationType"`
	Category        string                       `json:"category"`
	Score           int                          `json:"score"`
	EvidenceURI     string                       `json:"evidenceURI,omitempty"`
	Timestamp       time.Time                    `json:"timestamp"`
	ExpirationDate  time.Time                    `json:"expirationDate"`
	Status          validation.AttestationStatus `json:"status"`
	StatusReason    string                       `json:"statusReason,omitempty"`
	LastUpdatedBy   string                       `json:"lastUpdatedBy"`
}

// EffectiveAttestationStatus derives the status a reader observes at a
// point in time. Only a stored VALID attestation flips to EXPIRED once its
// window lapses; a DISPUTED attestation stays DISPUTED until the dispute is
// resolved, and the terminal states are never overridden. Reads stay pure,
// the stored field only changes through TouchAttestation or a status
// operation.
func EffectiveAttestationStatus(stored validation.AttestationStatus, expirationDate, now time.Time) validation.AttestationStatus {
	if !now.After(expirationDate) {
		return stored
	}
	if stored == validation.AttestationStatusValid {
		return validation.AttestationStatusExpired
	}
	return stored
}

// IsExpired reports whether the expiration date has passed.
func (r *AttestationRecord) IsExpired(now time.Time) bool {
	return now.After(r.ExpirationDate)
}

// EffectiveStatus returns the status a reader should see at the given time.
func (r *AttestationRecord) EffectiveStatus(now time.Time) validation.AttestationStatus {
	return EffectiveAttestationStatus(r.Status, r.ExpirationDate, now)
}

// AttestationRequest carries the input for recording an attestation
type AttestationRequest struct {
	AttestationID   string                 `json:"attestationID"`
	AttesterID      string                 `json:"attesterID"`
	SubjectID       string                 `json:"subjectID"`
	AttestationType string                 `json:"attestationType"`
	Category        string                 `json:"category"`
	Score           int                    `json:"score"`
	EvidenceURI     string                 `json:"evidenceURI,omitempty"`
	ExpirationDate  time.Time              `json:"expirationDate"`
	Fee             *interfaces.FeePayment `json:"fee,omitempty"`
	ActorID         string                 `json:"actorID"`
}

// AttestationStatusRequest carries a revoke or touch request for a
// recorded attestation.
type AttestationStatusRequest struct {
	AttestationID string `json:"attestationID"`
	Reason        string `json:"reason,omitempty"`
	ActorID       string `json:"actorID"`
}

// TouchResult reports whether a touch persisted an expiration flip.
type TouchResult struct {
	AttestationID string                       `json:"attestationID"`
	Changed       bool                         `json:"changed"`
	Status        validation.AttestationStatus `json:"status"`
}
