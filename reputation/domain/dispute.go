package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/blockchain-trust-platform/fabric-chaincode/shared/interfaces"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/validation"
)

// DisputeCase tracks a challenge against an attestation from filing to
// resolution. Upheld records the authority's ruling on the ATTESTATION:
// true means the attestation stands and returns to VALID, false means the
// challenge succeeded and the attestation is revoked.
type DisputeCase struct {
	CaseID        string                   `json:"caseID"`
	AttestationID string                   `json:"attestationID"`
	DisputedBy    string                   `json:"disputedBy"`
	Reason        string                   `json:"reason"`
	EvidenceURI   string                   `json:"evidenceURI,omitempty"`
	Status        validation.DisputeStatus `json:"status"`
	FiledDate     time.Time                `json:"filedDate"`
	ResolvedDate  *time.Time               `json:"resolvedDate,omitempty"`
	ResolvedBy    string                   `json:"resolvedBy,omitempty"`
	Resolution    string                   `json:"resolution,omitempty"`
	Upheld        *bool                    `json:"upheld,omitempty"`
}

// NewDisputeCase opens a case against an attestation
func NewDisputeCase(attestationID, disputedBy, reason, evidenceURI string) *DisputeCase {
	return &DisputeCase{
		CaseID:        uuid.New().String(),
		AttestationID: attestationID,
		DisputedBy:    disputedBy,
		Reason:        reason,
		EvidenceURI:   evidenceURI,
		Status:        validation.DisputeStatusOpen,
		FiledDate:     time.Now(),
	}
}

// Resolve closes an open case with the authority's ruling. Resolving a
// case twice is a policy violation.
func (c *DisputeCase) Resolve(resolvedBy, resolution string, upheld bool) error {
	if err := validation.ValidateStatusTransition(string(c.Status), string(validation.DisputeStatusResolved), "Dispute"); err != nil {
		return err
	}

	now := time.Now()
	c.Status = validation.DisputeStatusResolved
	c.ResolvedDate = &now
	c.ResolvedBy = resolvedBy
	c.Resolution = resolution
	c.Upheld = &upheld
	return nil
}

// DisputeRequest carries the input for filing a dispute
type DisputeRequest struct {
	AttestationID string                 `json:"attestationID"`
	Reason        string                 `json:"reason"`
	EvidenceURI   string                 `json:"evidenceURI,omitempty"`
	Fee           *interfaces.FeePayment `json:"fee,omitempty"`
	ActorID       string                 `json:"actorID"`
}

// DisputeResolutionRequest carries the authority's ruling on an open case
type DisputeResolutionRequest struct {
	CaseID     string `json:"caseID"`
	Resolution string `json:"resolution"`
	Upheld     bool   `json:"upheld"`
	ActorID    string `json:"actorID"`
}
