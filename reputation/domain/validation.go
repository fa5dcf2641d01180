package domain

import (
	"fmt"
	"strings"

	"github.com/blockchain-trust-platform/fabric-chaincode/shared/config"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/errors"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/validation"
)

// ValidateAttestationRequest validates an attestation recording request.
// Field problems are collected into a single validation error; the
// expiration policy check runs last so a past expiry surfaces as a policy
// violation, not a missing field. The score is not validated here, it is
// clamped into range when the record is built.
func ValidateAttestationRequest(req *AttestationRequest) error {
	var problems []string

	if strings.TrimSpace(req.AttestationID) == "" {
		problems = append(problems, "attestationID is required")
	}
	if err := validation.ValidateDID(req.AttesterID); err != nil {
		problems = append(problems, fmt.Sprintf("attesterID: %v", err))
	}
	if err := validation.ValidateDID(req.SubjectID); err != nil {
		problems = append(problems, fmt.Sprintf("subjectID: %v", err))
	}
	if req.AttesterID != "" && req.AttesterID == req.SubjectID {
		problems = append(problems, "attester and subject must be different identities")
	}
	if strings.TrimSpace(req.AttestationType) == "" {
		problems = append(problems, "attestationType is required")
	}
	if err := validation.ValidateCategory(req.Category, config.AttestationCategories); err != nil {
		problems = append(problems, err.Error())
	}
	if req.EvidenceURI != "" {
		if err := validation.ValidateURI(req.EvidenceURI, "evidenceURI"); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if strings.TrimSpace(req.ActorID) == "" {
		problems = append(problems, "actorID is required")
	}
	if req.ExpirationDate.IsZero() {
		problems = append(problems, "expirationDate is required")
	}

	if len(problems) > 0 {
		return errors.NewValidation("validation errors: %s", strings.Join(problems, ", "))
	}

	return validation.ValidateFutureTimestamp(req.ExpirationDate, "expirationDate")
}

// ValidateAttestationStatusRequest validates a revoke or touch request.
func ValidateAttestationStatusRequest(req *AttestationStatusRequest, reasonRequired bool) error {
	if strings.TrimSpace(req.AttestationID) == "" {
		return errors.NewValidation("attestationID is required")
	}
	if strings.TrimSpace(req.ActorID) == "" {
		return errors.NewValidation("actorID is required")
	}
	if reasonRequired && strings.TrimSpace(req.Reason) == "" {
		return errors.NewValidation("reason is required")
	}
	return nil
}

// ValidateDisputeRequest validates a dispute filing.
func ValidateDisputeRequest(req *DisputeRequest) error {
	var problems []string

	if strings.TrimSpace(req.AttestationID) == "" {
		problems = append(problems, "attestationID is required")
	}
	if strings.TrimSpace(req.Reason) == "" {
		problems = append(problems, "reason is required")
	}
	if req.EvidenceURI != "" {
		if err := validation.ValidateURI(req.EvidenceURI, "evidenceURI"); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if strings.TrimSpace(req.ActorID) == "" {
		problems = append(problems, "actorID is required")
	}

	if len(problems) > 0 {
		return errors.NewValidation("validation errors: %s", strings.Join(problems, ", "))
	}
	return nil
}

// ValidateDisputeResolutionRequest validates an authority ruling.
func ValidateDisputeResolutionRequest(req *DisputeResolutionRequest) error {
	if strings.TrimSpace(req.CaseID) == "" {
		return errors.NewValidation("caseID is required")
	}
	if strings.TrimSpace(req.Resolution) == "" {
		return errors.NewValidation("resolution is required")
	}
	if strings.TrimSpace(req.ActorID) == "" {
		return errors.NewValidation("actorID is required")
	}
	return nil
}

// ValidateAnalysisRequest validates a reputation analysis request.
func ValidateAnalysisRequest(req *AnalysisRequest) error {
	if err := validation.ValidateDID(req.SubjectID); err != nil {
		return errors.NewValidation("subjectID: %v", err)
	}
	if strings.TrimSpace(req.ActorID) == "" {
		return errors.NewValidation("actorID is required")
	}
	return nil
}
