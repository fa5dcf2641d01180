package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/blockchain-trust-platform/fabric-chaincode/shared/config"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/errors"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/validation"
)

// ValidateIdentityRecord validates an identity record before it is stored.
func ValidateIdentityRecord(record *IdentityRecord) error {
	var problems []string

	if err := validation.ValidateDID(record.IdentityID); err != nil {
		problems = append(problems, fmt.Sprintf("identityID: %v", err))
	}
	if strings.TrimSpace(record.Controller) == "" {
		problems = append(problems, "controller is required")
	}
	if err := validation.ValidateIdentityStatus(string(record.Status)); err != nil {
		problems = append(problems, fmt.Sprintf("status: %v", err))
	}
	if record.Version < 1 {
		problems = append(problems, "version must be at least 1")
	}

	if err := validateDocumentSize(record.Document); err != nil {
		problems = append(problems, err.Error())
	}

	if len(record.VerificationMethods) > config.MaxVerificationMethods {
		problems = append(problems, fmt.Sprintf("verificationMethods exceeds the limit of %d", config.MaxVerificationMethods))
	}
	seenMethods := make(map[string]bool)
	for _, method := range record.VerificationMethods {
		if seenMethods[method.MethodID] {
			problems = append(problems, fmt.Sprintf("duplicate verification method %s", method.MethodID))
		}
		seenMethods[method.MethodID] = true
	}

	if len(record.Services) > config.MaxServiceEndpoints {
		problems = append(problems, fmt.Sprintf("services exceeds the limit of %d", config.MaxServiceEndpoints))
	}
	seenServices := make(map[string]bool)
	for _, service := range record.Services {
		if seenServices[service.ServiceID] {
			problems = append(problems, fmt.Sprintf("duplicate service %s", service.ServiceID))
		}
		seenServices[service.ServiceID] = true
	}

	if record.PortabilityScore < config.MinScore || record.PortabilityScore > config.MaxScore {
		problems = append(problems, "portabilityScore outside valid range")
	}

	if record.Recovery != nil {
		if err := ValidateRecoveryDescriptor(record.Recovery); err != nil {
			problems = append(problems, fmt.Sprintf("recovery: %v", err))
		}
	}

	if len(problems) > 0 {
		return errors.NewValidation("validation errors: %s", strings.Join(problems, ", "))
	}
	return nil
}

// ValidateRegistrationRequest validates an identity registration request.
func ValidateRegistrationRequest(req *IdentityRegistrationRequest) error {
	var problems []string

	if err := validation.ValidateDID(req.IdentityID); err != nil {
		problems = append(problems, fmt.Sprintf("identityID: %v", err))
	}
	if strings.TrimSpace(req.Controller) == "" {
		problems = append(problems, "controller is required")
	}
	if strings.TrimSpace(req.ActorID) == "" {
		problems = append(problems, "actorID is required")
	}

	if err := validateDocumentSize(req.Document); err != nil {
		problems = append(problems, err.Error())
	}

	if req.Recovery != nil {
		if err := ValidateRecoveryDescriptor(req.Recovery); err != nil {
			problems = append(problems, fmt.Sprintf("recovery: %v", err))
		}
	}

	for _, method := range req.VerificationMethods {
		if err := validateMethodFields(method.MethodID, method.MethodType, method.PublicKeyHex); err != nil {
			problems = append(problems, fmt.Sprintf("verificationMethods[%s]: %v", method.MethodID, err))
		}
	}

	if len(problems) > 0 {
		return errors.NewValidation("validation errors: %s", strings.Join(problems, ", "))
	}
	return nil
}

// ValidateRecoveryDescriptor checks the commitment hash and recovery key.
func ValidateRecoveryDescriptor(recovery *RecoveryDescriptor) error {
	if recovery.MethodType != RecoveryMethodSHA256Commitment {
		return errors.NewValidation("unsupported recovery method type %s", recovery.MethodType)
	}
	if err := validation.ValidateHexHash(recovery.CommitmentHash); err != nil {
		return errors.NewValidation("commitmentHash: %v", err)
	}
	if err := validateHexKey(recovery.RecoveryKeyHex); err != nil {
		return errors.NewValidation("recoveryKeyHex: %v", err)
	}
	return nil
}

// ValidateDelegationRequest checks the delegatee, the permission subset and
// the expiry of a delegation grant.
func ValidateDelegationRequest(req *DelegationRequest) error {
	if strings.TrimSpace(req.Delegatee) == "" {
		return errors.NewValidation("delegatee is required")
	}
	if len(req.Permissions) == 0 {
		return errors.NewValidation("delegation must grant at least one permission")
	}

	known := KnownDelegationPermissions()
	for _, permission := range req.Permissions {
		found := false
		for _, k := range known {
			if permission == k {
				found = true
				break
			}
		}
		if !found {
			return errors.NewValidation("unknown delegation permission '%s', allowed values: %v", permission, known)
		}
	}

	return validation.ValidateFutureTimestamp(req.ExpirationDate, "expirationDate")
}

// ValidateVerificationMethodRequest checks an add-method request.
func ValidateVerificationMethodRequest(req *VerificationMethodRequest) error {
	return validateMethodFields(req.MethodID, req.MethodType, req.PublicKeyHex)
}

// ValidateServiceRequest checks an add-service request.
func ValidateServiceRequest(req *ServiceEndpointRequest) error {
	if strings.TrimSpace(req.ServiceID) == "" {
		return errors.NewValidation("serviceID is required")
	}
	if strings.TrimSpace(req.ServiceType) == "" {
		return errors.NewValidation("serviceType is required")
	}
	return validation.ValidateURI(req.Endpoint, "endpoint")
}

func validateMethodFields(methodID, methodType, publicKeyHex string) error {
	if strings.TrimSpace(methodID) == "" {
		return errors.NewValidation("methodID is required")
	}
	if strings.TrimSpace(methodType) == "" {
		return errors.NewValidation("methodType is required")
	}
	return validateHexKey(publicKeyHex)
}

func validateHexKey(publicKeyHex string) error {
	if err := validation.HexKeyRule.Validator(publicKeyHex); err != nil {
		return errors.NewValidation("publicKey: %v", err)
	}
	return nil
}

func validateDocumentSize(document map[string]interface{}) error {
	if document == nil {
		return nil
	}
	raw, err := json.Marshal(document)
	if err != nil {
		return errors.NewValidation("document is not serializable: %v", err)
	}
	if len(raw) > config.MaxDocumentBytes {
		return errors.NewValidation("document exceeds %d bytes", config.MaxDocumentBytes)
	}
	return nil
}

