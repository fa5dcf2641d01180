package handlers

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hyperledger/fabric-chaincode-go/shim"

	"github.com/blockchain-trust-platform/fabric-chaincode/identity/domain"
	identityServices "github.com/blockchain-trust-platform/fabric-chaincode/identity/services"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/errors"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/validation"
)

// DelegationHandler handles scoped control grants
type DelegationHandler struct {
	eventService *identityServices.EventService
}

// NewDelegationHandler creates a new delegation handler
func NewDelegationHandler() *DelegationHandler {
	return &DelegationHandler{
		eventService: identityServices.NewEventService(),
	}
}

// DelegateControl grants a delegatee a permission subset until the expiry.
// A new grant replaces any prior delegation.
func (h *DelegationHandler) DelegateControl(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	var req domain.DelegationRequest
	if err := json.Unmarshal([]byte(args[0]), &req); err != nil {
		return nil, errors.NewValidation("failed to parse delegation request: %v", err)
	}
	if err := shared.ValidateRequired(map[string]string{
		"identityID": req.IdentityID,
		"actorID":    req.ActorID,
	}); err != nil {
		return nil, err
	}
	if err := domain.ValidateDelegationRequest(&req); err != nil {
		return nil, err
	}

	record, err := loadIdentityRecord(stub, req.IdentityID)
	if err != nil {
		return nil, err
	}
	if err := record.RequireStatus(validation.IdentityStatusActive); err != nil {
		return nil, err
	}

	now := time.Now()
	if err := record.AuthorizeMutation(req.ActorID, "", now); err != nil {
		return nil, err
	}
	if req.Delegatee == record.Controller {
		return nil, errors.NewValidation("controller cannot delegate to itself")
	}

	previousDelegatee := ""
	if record.Delegation != nil {
		previousDelegatee = record.Delegation.Delegatee
	}

	record.Delegation = &domain.DelegationDescriptor{
		Delegatee:      req.Delegatee,
		Permissions:    req.Permissions,
		ExpirationDate: req.ExpirationDate,
		GrantedDate:    now,
		GrantedBy:      req.ActorID,
	}
	record.Touch(req.ActorID, now)

	if err := recordIdentityHistory(stub, req.IdentityID, "DELEGATE", "delegation", previousDelegatee,
		fmt.Sprintf("%s:%s", req.Delegatee, strings.Join(req.Permissions, "|")), req.ActorID); err != nil {
		return nil, err
	}

	if err := storeIdentityRecord(stub, record); err != nil {
		return nil, err
	}

	if err := h.eventService.EmitControlDelegated(stub, record, req.ActorID); err != nil {
		return nil, fmt.Errorf("failed to emit event: %v", err)
	}

	return json.Marshal(record)
}

// RevokeDelegation clears the active delegation.
func (h *DelegationHandler) RevokeDelegation(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	var req domain.IdentityLifecycleRequest
	if err := json.Unmarshal([]byte(args[0]), &req); err != nil {
		return nil, errors.NewValidation("failed to parse delegation revocation request: %v", err)
	}
	if err := shared.ValidateRequired(map[string]string{
		"identityID": req.IdentityID,
		"actorID":    req.ActorID,
	}); err != nil {
		return nil, err
	}

	record, err := loadIdentityRecord(stub, req.IdentityID)
	if err != nil {
		return nil, err
	}
	if err := record.RequireStatus(validation.IdentityStatusActive); err != nil {
		return nil, err
	}
	if err := record.AuthorizeMutation(req.ActorID, "", time.Now()); err != nil {
		return nil, err
	}
	if record.Delegation == nil {
		return nil, errors.NewNotFound("identity %s has no active delegation", req.IdentityID)
	}

	delegatee := record.Delegation.Delegatee
	if err := recordIdentityHistory(stub, req.IdentityID, "DELEGATE", "delegation", delegatee, "", req.ActorID); err != nil {
		return nil, err
	}

	record.Delegation = nil
	record.Touch(req.ActorID, time.Now())

	if err := storeIdentityRecord(stub, record); err != nil {
		return nil, err
	}

	if err := h.eventService.EmitDelegationRevoked(stub, record, delegatee, req.ActorID); err != nil {
		return nil, fmt.Errorf("failed to emit event: %v", err)
	}

	return json.Marshal(record)
}
