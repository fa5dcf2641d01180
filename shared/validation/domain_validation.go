package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/blockchain-trust-platform/fabric-chaincode/shared/errors"
)

// ============================================================================
// DOMAIN-SPECIFIC VALIDATION UTILITIES
// ============================================================================

// IdentityStatus represents valid identity record statuses
type IdentityStatus string

const (
	IdentityStatusActive      IdentityStatus = "ACTIVE"
	IdentityStatusDeactivated IdentityStatus = "DEACTIVATED"
	IdentityStatusRevoked     IdentityStatus = "REVOKED"
)

// CredentialStatus represents valid credential statuses
type CredentialStatus string

const (
	CredentialStatusValid     CredentialStatus = "VALID"
	CredentialStatusSuspended CredentialStatus = "SUSPENDED"
	CredentialStatusRevoked   CredentialStatus = "REVOKED"
	CredentialStatusExpired   CredentialStatus = "EXPIRED"
)

// AttestationStatus represents valid attestation statuses
type AttestationStatus string

const (
	AttestationStatusValid    AttestationStatus = "VALID"
	AttestationStatusDisputed AttestationStatus = "DISPUTED"
	AttestationStatusRevoked  AttestationStatus = "REVOKED"
	AttestationStatusExpired  AttestationStatus = "EXPIRED"
)

// DisputeStatus represents valid dispute case statuses
type DisputeStatus string

const (
	DisputeStatusOpen     DisputeStatus = "OPEN"
	DisputeStatusResolved DisputeStatus = "RESOLVED"
)

// ValidateStatus checks if status is in allowed list
func ValidateStatus(status string, allowedStatuses []string) error {
	for _, allowed := range allowedStatuses {
		if status == allowed {
			return nil
		}
	}
	return errors.NewValidation("invalid status '%s', allowed values: %v", status, allowedStatuses)
}

// ValidateIdentityStatus checks if identity status is valid
func ValidateIdentityStatus(status string) error {
	validStatuses := []string{
		string(IdentityStatusActive),
		string(IdentityStatusDeactivated),
		string(IdentityStatusRevoked),
	}
	return ValidateStatus(status, validStatuses)
}

// ValidateCredentialStatus checks if credential status is valid
func ValidateCredentialStatus(status string) error {
	validStatuses := []string{
		string(CredentialStatusValid),
		string(CredentialStatusSuspended),
		string(CredentialStatusRevoked),
		string(CredentialStatusExpired),
	}
	return ValidateStatus(status, validStatuses)
}

// ValidateAttestationStatus checks if attestation status is valid
func ValidateAttestationStatus(status string) error {
	validStatuses := []string{
		string(AttestationStatusValid),
		string(AttestationStatusDisputed),
		string(AttestationStatusRevoked),
		string(AttestationStatusExpired),
	}
	return ValidateStatus(status, validStatuses)
}

// ValidateStatusTransition checks if a status transition is valid.
// Violations carry the policy-violation kind so callers can reject the
// operation without extra classification.
func ValidateStatusTransition(currentStatus, newStatus string, entityType string) error {
	var validTransitions map[string][]string

	switch entityType {
	case "Identity":
		validTransitions = map[string][]string{
			string(IdentityStatusActive):      {string(IdentityStatusDeactivated), string(IdentityStatusRevoked)},
			string(IdentityStatusDeactivated): {string(IdentityStatusActive), string(IdentityStatusRevoked)},
			string(IdentityStatusRevoked):     {}, // Terminal state
		}
	case "Credential":
		validTransitions = map[string][]string{
			string(CredentialStatusValid):     {string(CredentialStatusSuspended), string(CredentialStatusRevoked), string(CredentialStatusExpired)},
			string(CredentialStatusSuspended): {string(CredentialStatusValid), string(CredentialStatusRevoked), string(CredentialStatusExpired)},
			string(CredentialStatusRevoked):   {}, // Terminal state
			string(CredentialStatusExpired):   {}, // Terminal state
		}
	case "Attestation":
		validTransitions = map[string][]string{
			string(AttestationStatusValid):    {string(AttestationStatusDisputed), string(AttestationStatusRevoked), string(AttestationStatusExpired)},
			string(AttestationStatusDisputed): {string(AttestationStatusValid), string(AttestationStatusRevoked)},
			string(AttestationStatusRevoked):  {}, // Terminal state
			string(AttestationStatusExpired):  {}, // Terminal state
		}
	case "Dispute":
		validTransitions = map[string][]string{
			string(DisputeStatusOpen):     {string(DisputeStatusResolved)},
			string(DisputeStatusResolved): {}, // Terminal state
		}
	default:
		return fmt.Errorf("unknown entity type for status transition: %s", entityType)
	}

	allowedTransitions, exists := validTransitions[currentStatus]
	if !exists {
		return errors.NewPolicyViolation("unknown current status: %s", currentStatus)
	}

	for _, allowed := range allowedTransitions {
		if newStatus == allowed {
			return nil
		}
	}

	return errors.NewPolicyViolation("invalid status transition from %s to %s for %s", currentStatus, newStatus, entityType)
}

var didRegex = regexp.MustCompile(`^did:[a-z0-9]+:[A-Za-z0-9.\-_:%]+$`)

// ValidateDID validates decentralized identifier syntax (did:method:id)
func ValidateDID(id string) error {
	if id == "" {
		return errors.NewValidation("identifier cannot be empty")
	}
	if len(id) > 256 {
		return errors.NewValidation("identifier exceeds 256 characters")
	}
	if !didRegex.MatchString(id) {
		return errors.NewValidation("identifier %s is not a valid DID (expected did:<method>:<id>)", id)
	}
	return nil
}

var hexHashRegex = regexp.MustCompile(`^[a-f0-9]{64}$`)

// ValidateHexHash validates a lowercase 64-character hex SHA-256 digest
func ValidateHexHash(hash string) error {
	if !hexHashRegex.MatchString(hash) {
		return errors.NewValidation("hash must be a 64-character lowercase hex string")
	}
	return nil
}

// ValidateScore checks that a score lies within the 0-1000 bound
func ValidateScore(score int) error {
	if score < 0 || score > 1000 {
		return errors.NewValidation("score %d outside valid range [0, 1000]", score)
	}
	return nil
}

// ClampScore forces a score into the 0-1000 bound
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 1000 {
		return 1000
	}
	return score
}

// ValidateFutureTimestamp requires a timestamp strictly after now
func ValidateFutureTimestamp(t time.Time, fieldName string) error {
	if t.IsZero() {
		return errors.NewValidation("%s is required", fieldName)
	}
	if !t.After(time.Now()) {
		return errors.NewPolicyViolation("%s must be in the future", fieldName)
	}
	return nil
}

// ValidateURI checks that a URI parses and carries a scheme
func ValidateURI(uri string, fieldName string) error {
	if len(uri) > 500 {
		return errors.NewValidation("%s exceeds 500 characters", fieldName)
	}
	parsed, err := url.Parse(uri)
	if err != nil {
		return errors.NewValidation("%s is not a valid URI: %v", fieldName, err)
	}
	if parsed.Scheme == "" {
		return errors.NewValidation("%s must include a URI scheme", fieldName)
	}
	return nil
}

// ValidateDIDFragmentURL validates a DID URL with a fragment suffix
// (did:method:id#fragment) and returns the base DID and fragment.
func ValidateDIDFragmentURL(didURL string) (string, string, error) {
	parts := strings.SplitN(didURL, "#", 2)
	if err := ValidateDID(parts[0]); err != nil {
		return "", "", err
	}
	if len(parts) == 1 || parts[1] == "" {
		return parts[0], "", nil
	}
	return parts[0], parts[1], nil
}

// ValidateCategory checks an attestation category against the known set
func ValidateCategory(category string, known []string) error {
	for _, k := range known {
		if category == k {
			return nil
		}
	}
	return errors.NewValidation("unknown attestation category '%s', allowed values: %v", category, known)
}
