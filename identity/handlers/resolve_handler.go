package handlers

import (
	"encoding/json"

	"github.com/hyperledger/fabric-chaincode-go/shim"

	"github.com/blockchain-trust-platform/fabric-chaincode/shared"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/errors"
)

// ResolveHandler serves cached identity resolution and signature checks
type ResolveHandler struct{}

// NewResolveHandler creates a new resolve handler
func NewResolveHandler() *ResolveHandler {
	return &ResolveHandler{}
}

// SignatureVerificationRequest asks whether a signature was produced by one
// of the identity's verification methods.
type SignatureVerificationRequest struct {
	IdentityID   string `json:"identityID"`
	MethodID     string `json:"methodID"`
	Message      string `json:"message"`
	SignatureHex string `json:"signatureHex"`
}

// SignatureVerificationResult is the verification outcome.
type SignatureVerificationResult struct {
	IdentityID string `json:"identityID"`
	MethodID   string `json:"methodID"`
	Valid      bool   `json:"valid"`
}

// ResolveIdentity resolves a DID through the TTL cache.
func (h *ResolveHandler) ResolveIdentity(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	record, err := identityResolver.Resolve(stub, args[0])
	if err != nil {
		return nil, err
	}

	return json.Marshal(record)
}

// ResolveIdentityUrl resolves a DID URL, narrowing to the verification
// method or service the fragment names.
func (h *ResolveHandler) ResolveIdentityUrl(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	result, err := identityResolver.ResolveUrl(stub, args[0])
	if err != nil {
		return nil, err
	}

	return json.Marshal(result)
}

// VerifySignature checks an Ed25519 signature against a verification method
// of an active identity.
func (h *ResolveHandler) VerifySignature(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	var req SignatureVerificationRequest
	if err := json.Unmarshal([]byte(args[0]), &req); err != nil {
		return nil, errors.NewValidation("failed to parse signature verification request: %v", err)
	}
	if err := shared.ValidateRequired(map[string]string{
		"identityID":   req.IdentityID,
		"methodID":     req.MethodID,
		"signatureHex": req.SignatureHex,
	}); err != nil {
		return nil, err
	}

	valid, err := identityResolver.VerifySignature(stub, req.IdentityID, req.MethodID, []byte(req.Message), req.SignatureHex)
	if err != nil {
		return nil, err
	}

	return json.Marshal(&SignatureVerificationResult{
		IdentityID: req.IdentityID,
		MethodID:   req.MethodID,
		Valid:      valid,
	})
}
