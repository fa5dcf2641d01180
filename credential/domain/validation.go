package domain

import (
	"fmt"
	"strings"

	"github.com/blockchain-trust-platform/fabric-chaincode/shared/errors"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/validation"
)

// ValidateAnchorRequest validates a credential anchor request. Field problems
// are collected into a single validation error; the expiration policy check
// runs last so a past expiry surfaces as a policy violation, not a missing
// field.
func ValidateAnchorRequest(req *CredentialAnchorRequest) error {
	var problems []string

	if strings.TrimSpace(req.CredentialHash) == "" {
		problems = append(problems, "credentialHash is required")
	} else if err := validation.DigestRule.Validator(req.CredentialHash); err != nil {
		problems = append(problems, fmt.Sprintf("credentialHash: %v", err))
	}
	if err := validation.ValidateDID(req.IssuerID); err != nil {
		problems = append(problems, fmt.Sprintf("issuerID: %v", err))
	}
	if err := validation.ValidateDID(req.SubjectID); err != nil {
		problems = append(problems, fmt.Sprintf("subjectID: %v", err))
	}
	if strings.TrimSpace(req.CredentialType) == "" {
		problems = append(problems, "credentialType is required")
	}
	if strings.TrimSpace(req.ActorID) == "" {
		problems = append(problems, "actorID is required")
	}
	if req.SchemaHash != "" {
		if err := validation.DigestRule.Validator(req.SchemaHash); err != nil {
			problems = append(problems, fmt.Sprintf("schemaHash: %v", err))
		}
	}
	if req.Proof != nil {
		if err := ValidateCredentialProof(req.Proof); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if req.ExpirationDate.IsZero() {
		problems = append(problems, "expirationDate is required")
	}

	if len(problems) > 0 {
		return errors.NewValidation("validation errors: %s", strings.Join(problems, ", "))
	}

	return validation.ValidateFutureTimestamp(req.ExpirationDate, "expirationDate")
}

// ValidateCredentialProof checks the proof material anchored with a
// credential. A proof signature without the verification method that
// produced it cannot be checked later, so the pair is required together.
func ValidateCredentialProof(proof *CredentialProof) error {
	if proof.ProofSignatureHex != "" && proof.ProofMethodID == "" {
		return errors.NewValidation("proof: proofMethodID is required when a proof signature is supplied")
	}
	if proof.EvidenceURI != "" {
		if err := validation.ValidateURI(proof.EvidenceURI, "evidenceURI"); err != nil {
			return err
		}
	}
	if proof.TermsOfUseURI != "" {
		if err := validation.ValidateURI(proof.TermsOfUseURI, "termsOfUseURI"); err != nil {
			return err
		}
	}
	return nil
}

// ValidateStatusRequest validates a credential status change request.
func ValidateStatusRequest(req *CredentialStatusRequest, reasonRequired bool) error {
	if strings.TrimSpace(req.CredentialHash) == "" {
		return errors.NewValidation("credentialHash is required")
	}
	if strings.TrimSpace(req.ActorID) == "" {
		return errors.NewValidation("actorID is required")
	}
	if reasonRequired && strings.TrimSpace(req.Reason) == "" {
		return errors.NewValidation("reason is required")
	}
	return nil
}

// ValidateIssuerTrustRequest validates a trust registry update.
func ValidateIssuerTrustRequest(req *IssuerTrustRequest) error {
	if err := validation.ValidateDID(req.IssuerID); err != nil {
		return errors.NewValidation("issuerID: %v", err)
	}
	if strings.TrimSpace(req.ActorID) == "" {
		return errors.NewValidation("actorID is required")
	}
	if !req.Trusted && strings.TrimSpace(req.Reason) == "" {
		return errors.NewValidation("reason is required when marking an issuer untrusted")
	}
	return nil
}
