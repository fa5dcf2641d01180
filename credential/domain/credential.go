package domain

import (
	"time"

	"github.com/blockchain-trust-platform/fabric-chaincode/shared/config"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/interfaces"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/validation"
)

// CredentialRecord anchors a credential issued off-chain. The ledger never
// holds credential content; CredentialHash is the content digest and the
// record tracks issuer, subject, validity window and revocation state.
type CredentialRecord struct {
	CredentialHash     string                      `json:"credentialHash"`
	IssuerID           string                      `json:"issuerID"`
	SubjectID          string                      `json:"subjectID"`
	CredentialType     string                      `json:"credentialType"`
	SchemaHash         string                      `json:"schemaHash,omitempty"`
	IssuanceDate       time.Time                   `json:"issuanceDate"`
	ExpirationDate     time.Time                   `json:"expirationDate"`
	Status             validation.CredentialStatus `json:"status"`
	StatusReason       string                      `json:"statusReason,omitempty"`
	StatusUpdated      time.Time                   `json:"statusUpdated"`
	VerifiabilityScore int                         `json:"verifiabilityScore"`
	Proof              *CredentialProof            `json:"proof,omitempty"`
	CreatedBy          string                      `json:"createdBy"`
	LastUpdatedBy      string                      `json:"lastUpdatedBy"`
}

// CredentialProof carries the verification material anchored alongside the
// digest: the issuer's signature over the credential content, the identity
// verification method that produced it, and optional evidence links.
type CredentialProof struct {
	ProofSignatureHex string `json:"proofSignatureHex,omitempty"`
	ProofMethodID     string `json:"proofMethodID,omitempty"`
	EvidenceURI       string `json:"evidenceURI,omitempty"`
	TermsOfUseURI     string `json:"termsOfUseURI,omitempty"`
}

// EffectiveCredentialStatus derives the status a reader observes at a point
// in time. A stored VALID or SUSPENDED credential whose expiration date has
// passed reports EXPIRED; REVOKED is never overridden. Reads stay pure, the
// stored field only changes through TouchCredential.
func EffectiveCredentialStatus(stored validation.CredentialStatus, expirationDate, now time.Time) validation.CredentialStatus {
	if !now.After(expirationDate) {
		return stored
	}
	if stored == validation.CredentialStatusValid || stored == validation.CredentialStatusSuspended {
		return validation.CredentialStatusExpired
	}
	return stored
}

// IsExpired reports whether the expiration date has passed.
func (r *CredentialRecord) IsExpired(now time.Time) bool {
	return now.After(r.ExpirationDate)
}

// EffectiveStatus returns the status a reader should see at the given time.
func (r *CredentialRecord) EffectiveStatus(now time.Time) validation.CredentialStatus {
	return EffectiveCredentialStatus(r.Status, r.ExpirationDate, now)
}

// ComputeVerifiabilityScore scores the evidence anchored with a credential.
// The anchored digest itself earns the base; the proof signature, external
// evidence, a schema binding and terms of use add bonuses, capped at the
// score ceiling.
func ComputeVerifiabilityScore(proof *CredentialProof, schemaHash string) int {
	score := config.VerifiabilityBase

	if schemaHash != "" {
		score += config.VerifiabilitySchemaBonus
	}
	if proof != nil {
		if proof.ProofSignatureHex != "" && proof.ProofMethodID != "" {
			score += config.VerifiabilitySignatureBonus
		}
		if proof.EvidenceURI != "" {
			score += config.VerifiabilityEvidenceBonus
		}
		if proof.TermsOfUseURI != "" {
			score += config.VerifiabilityTermsBonus
		}
	}

	if score > config.MaxScore {
		score = config.MaxScore
	}
	return score
}

// CredentialAnchorRequest carries the input for anchoring a credential
type CredentialAnchorRequest struct {
	CredentialHash string                 `json:"credentialHash"`
	IssuerID       string                 `json:"issuerID"`
	SubjectID      string                 `json:"subjectID"`
	CredentialType string                 `json:"credentialType"`
	SchemaHash     string                 `json:"schemaHash,omitempty"`
	ExpirationDate time.Time              `json:"expirationDate"`
	Proof          *CredentialProof       `json:"proof,omitempty"`
	Fee            *interfaces.FeePayment `json:"fee,omitempty"`
	ActorID        string                 `json:"actorID"`
}

// CredentialStatusRequest carries a revoke, suspend, reinstate or touch
// request for an anchored credential.
type CredentialStatusRequest struct {
	CredentialHash string `json:"credentialHash"`
	Reason         string `json:"reason,omitempty"`
	ActorID        string `json:"actorID"`
}

// TouchResult reports whether a touch persisted an expiration flip.
type TouchResult struct {
	CredentialHash string                      `json:"credentialHash"`
	Changed        bool                        `json:"changed"`
	Status         validation.CredentialStatus `json:"status"`
}

// CredentialStatusCheck is the read-only status report for a credential.
type CredentialStatusCheck struct {
	CredentialHash  string                      `json:"credentialHash"`
	StoredStatus    validation.CredentialStatus `json:"storedStatus"`
	EffectiveStatus validation.CredentialStatus `json:"effectiveStatus"`
	Expired         bool                        `json:"expired"`
	ExpirationDate  time.Time                   `json:"expirationDate"`
	CheckedAt       time.Time                   `json:"checkedAt"`
}
