package handlers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hyperledger/fabric-chaincode-go/shim"

	"github.com/blockchain-trust-platform/fabric-chaincode/credential/domain"
	credentialServices "github.com/blockchain-trust-platform/fabric-chaincode/credential/services"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/errors"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/validation"
)

// TrustHandler manages the issuer trust registry. The registry is a deny
// list: issuers are trusted until an authority rules otherwise.
type TrustHandler struct {
	eventService *credentialServices.EventService
}

// NewTrustHandler creates a new trust handler
func NewTrustHandler() *TrustHandler {
	return &TrustHandler{
		eventService: credentialServices.NewEventService(),
	}
}

// SetIssuerTrust records an authority's ruling on an issuer
func (h *TrustHandler) SetIssuerTrust(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	var req domain.IssuerTrustRequest
	if err := json.Unmarshal([]byte(args[0]), &req); err != nil {
		return nil, errors.NewValidation("failed to parse issuer trust request: %v", err)
	}
	if err := domain.ValidateIssuerTrustRequest(&req); err != nil {
		return nil, err
	}

	if _, err := shared.ValidateActorAccess(stub, req.ActorID, shared.PermissionManageIssuerTrust); err != nil {
		return nil, err
	}

	previousTrusted := true
	var existing domain.IssuerTrustRecord
	err := shared.GetStateAsJSON(stub, issuerTrustKey(req.IssuerID), &existing)
	switch {
	case err == nil:
		previousTrusted = existing.Trusted
	case !errors.IsNotFound(err):
		return nil, err
	}

	record := &domain.IssuerTrustRecord{
		IssuerID:    req.IssuerID,
		Trusted:     req.Trusted,
		Reason:      req.Reason,
		UpdatedBy:   req.ActorID,
		UpdatedDate: time.Now(),
	}

	if err := shared.PutStateAsJSON(stub, issuerTrustKey(req.IssuerID), record); err != nil {
		return nil, fmt.Errorf("failed to store issuer trust for %s: %v", req.IssuerID, err)
	}

	if err := shared.RecordHistoryEntry(stub, req.IssuerID, "IssuerTrust", "UPDATE", "trusted",
		fmt.Sprintf("%t", previousTrusted), fmt.Sprintf("%t", req.Trusted), req.ActorID); err != nil {
		return nil, fmt.Errorf("failed to record history: %v", err)
	}

	if err := h.eventService.EmitIssuerTrustUpdated(stub, record, req.ActorID); err != nil {
		return nil, fmt.Errorf("failed to emit event: %v", err)
	}

	return json.Marshal(record)
}

// GetIssuerTrust reports the registry's ruling on an issuer. Issuers with
// no entry report as trusted.
func (h *TrustHandler) GetIssuerTrust(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	issuerID := args[0]
	if err := validation.ValidateDID(issuerID); err != nil {
		return nil, err
	}

	var record domain.IssuerTrustRecord
	err := shared.GetStateAsJSON(stub, issuerTrustKey(issuerID), &record)
	if errors.IsNotFound(err) {
		return json.Marshal(domain.ImplicitTrust(issuerID))
	}
	if err != nil {
		return nil, err
	}

	return json.Marshal(&record)
}
