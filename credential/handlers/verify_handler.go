package handlers

import (
	"encoding/json"

	"github.com/hyperledger/fabric-chaincode-go/shim"

	"github.com/blockchain-trust-platform/fabric-chaincode/credential/domain"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/errors"
)

// VerifyHandler serves credential verification through the domain verifier
// wired to the production providers: registry reads for status and trust,
// a cross-chaincode call into the identity chaincode for signatures.
type VerifyHandler struct {
	verifier *domain.Verifier
}

// NewVerifyHandler creates a verify handler with production providers
func NewVerifyHandler() *VerifyHandler {
	return &VerifyHandler{
		verifier: domain.NewVerifier(
			domain.RegistryStatusProvider{},
			domain.NewChaincodeSignatureVerifier(),
			domain.RegistryTrustProvider{},
		),
	}
}

// BatchVerificationRequest lists the credential hashes to check.
type BatchVerificationRequest struct {
	CredentialHashes []string `json:"credentialHashes"`
}

// VerifyCredentialFull runs all five verification checks on an anchored
// credential and reports each one.
func (h *VerifyHandler) VerifyCredentialFull(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	var req domain.FullVerificationRequest
	if err := json.Unmarshal([]byte(args[0]), &req); err != nil {
		return nil, errors.NewValidation("failed to parse verification request: %v", err)
	}

	outcome, err := h.verifier.VerifyCredential(stub, &req)
	if err != nil {
		return nil, err
	}

	return json.Marshal(outcome)
}

// VerifyCredentialWithPolicy runs only the checks the relying party's
// policy requires, short-circuiting on the first failure.
func (h *VerifyHandler) VerifyCredentialWithPolicy(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	var req domain.PolicyVerificationRequest
	if err := json.Unmarshal([]byte(args[0]), &req); err != nil {
		return nil, errors.NewValidation("failed to parse policy verification request: %v", err)
	}

	outcome, err := h.verifier.VerifyWithPolicy(stub, &req)
	if err != nil {
		return nil, err
	}

	return json.Marshal(outcome)
}

// VerifyPresentation checks a holder's signed presentation of anchored
// credentials.
func (h *VerifyHandler) VerifyPresentation(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	var req domain.PresentationRequest
	if err := json.Unmarshal([]byte(args[0]), &req); err != nil {
		return nil, errors.NewValidation("failed to parse presentation request: %v", err)
	}

	outcome, err := h.verifier.VerifyPresentation(stub, &req)
	if err != nil {
		return nil, err
	}

	return json.Marshal(outcome)
}

// BatchVerifyCredentials reports the effective status of each listed
// credential in one call.
func (h *VerifyHandler) BatchVerifyCredentials(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	var req BatchVerificationRequest
	if err := json.Unmarshal([]byte(args[0]), &req); err != nil {
		return nil, errors.NewValidation("failed to parse batch verification request: %v", err)
	}

	summaries, err := h.verifier.BatchVerify(stub, req.CredentialHashes)
	if err != nil {
		return nil, err
	}

	return json.Marshal(summaries)
}
