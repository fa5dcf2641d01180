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
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/config"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/crypto"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/errors"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/validation"
)

// LifecycleHandler handles identity status transitions, control transfer
// and recovery
type LifecycleHandler struct {
	eventService *identityServices.EventService
}

// NewLifecycleHandler creates a new lifecycle handler
func NewLifecycleHandler() *LifecycleHandler {
	return &LifecycleHandler{
		eventService: identityServices.NewEventService(),
	}
}

// DeactivateIdentity suspends an identity. Delegates holding DEACTIVATE may
// perform this; reactivation stays controller-only.
func (h *LifecycleHandler) DeactivateIdentity(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	req, record, err := h.loadLifecycleRequest(stub, args)
	if err != nil {
		return nil, err
	}

	if err := record.AuthorizeMutation(req.ActorID, domain.DelegationDeactivate, time.Now()); err != nil {
		return nil, err
	}

	return h.applyTransition(stub, record, validation.IdentityStatusDeactivated, config.EventIdentityDeactivated, req.Reason, req.ActorID)
}

// ReactivateIdentity returns a deactivated identity to service.
func (h *LifecycleHandler) ReactivateIdentity(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	req, record, err := h.loadLifecycleRequest(stub, args)
	if err != nil {
		return nil, err
	}

	if err := record.AuthorizeMutation(req.ActorID, "", time.Now()); err != nil {
		return nil, err
	}

	return h.applyTransition(stub, record, validation.IdentityStatusActive, config.EventIdentityReactivated, req.Reason, req.ActorID)
}

// RevokeIdentity tombstones an identity. The record stays on the ledger
// with REVOKED status and never accepts another mutation.
func (h *LifecycleHandler) RevokeIdentity(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	req, record, err := h.loadLifecycleRequest(stub, args)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Reason) == "" {
		return nil, errors.NewValidation("reason is required to revoke an identity")
	}
	if len(req.Reason) > config.MaxReasonLength {
		return nil, errors.NewValidation("reason exceeds %d characters", config.MaxReasonLength)
	}

	if err := record.AuthorizeMutation(req.ActorID, "", time.Now()); err != nil {
		return nil, err
	}

	return h.applyTransition(stub, record, validation.IdentityStatusRevoked, config.EventIdentityRevoked, req.Reason, req.ActorID)
}

// TransferControl hands the record to a new controller and clears any
// delegation the old controller granted.
func (h *LifecycleHandler) TransferControl(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	var req domain.ControlTransferRequest
	if err := json.Unmarshal([]byte(args[0]), &req); err != nil {
		return nil, errors.NewValidation("failed to parse transfer request: %v", err)
	}
	if err := shared.ValidateRequired(map[string]string{
		"identityID":    req.IdentityID,
		"newController": req.NewController,
		"actorID":       req.ActorID,
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
	if req.NewController == record.Controller {
		return nil, errors.NewValidation("newController must differ from the current controller")
	}

	previousController := record.Controller
	if err := h.reindexController(stub, record.IdentityID, previousController, req.NewController); err != nil {
		return nil, err
	}

	if err := recordIdentityHistory(stub, req.IdentityID, "CONTROL_TRANSFER", "controller", previousController, req.NewController, req.ActorID); err != nil {
		return nil, err
	}

	record.Controller = req.NewController
	record.Delegation = nil
	record.Touch(req.ActorID, time.Now())

	if err := storeIdentityRecord(stub, record); err != nil {
		return nil, err
	}

	if err := h.eventService.EmitControlTransferred(stub, record, previousController, req.ActorID); err != nil {
		return nil, fmt.Errorf("failed to emit event: %v", err)
	}

	return json.Marshal(record)
}

// RecoverIdentity reclaims control via the stored recovery descriptor. The
// caller proves knowledge of the committed secret and possession of the
// recovery key; no controller authorization applies. Descriptors are
// one-shot: the secret is public once the transaction lands, so the
// descriptor is cleared and the new controller must install a fresh one.
func (h *LifecycleHandler) RecoverIdentity(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	var req domain.RecoveryRequest
	if err := json.Unmarshal([]byte(args[0]), &req); err != nil {
		return nil, errors.NewValidation("failed to parse recovery request: %v", err)
	}
	if err := shared.ValidateRequired(map[string]string{
		"identityID":     req.IdentityID,
		"recoverySecret": req.RecoverySecret,
		"signatureHex":   req.SignatureHex,
		"newController":  req.NewController,
		"actorID":        req.ActorID,
	}); err != nil {
		return nil, err
	}

	record, err := loadIdentityRecord(stub, req.IdentityID)
	if err != nil {
		return nil, err
	}
	if record.Status == validation.IdentityStatusRevoked {
		return nil, errors.NewPolicyViolation("identity %s is REVOKED and cannot be recovered", req.IdentityID)
	}
	if record.Recovery == nil {
		return nil, errors.NewPolicyViolation("identity %s has no recovery descriptor", req.IdentityID)
	}

	secretHash := crypto.SHA256HexString(req.RecoverySecret)
	if !crypto.ConstantTimeEqual(secretHash, record.Recovery.CommitmentHash) {
		return nil, errors.NewAuthorization("recovery proof rejected for identity %s", req.IdentityID)
	}

	payload, err := crypto.CanonicalizeJSON(map[string]interface{}{
		"identityID":    req.IdentityID,
		"newController": req.NewController,
		"secretHash":    secretHash,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build recovery payload: %v", err)
	}

	valid, err := crypto.VerifySignature(payload, req.SignatureHex, record.Recovery.RecoveryKeyHex)
	if err != nil {
		return nil, errors.NewAuthorization("recovery proof rejected for identity %s: %v", req.IdentityID, err)
	}
	if !valid {
		return nil, errors.NewAuthorization("recovery proof rejected for identity %s", req.IdentityID)
	}

	previousController := record.Controller
	if req.NewController != previousController {
		if err := h.reindexController(stub, record.IdentityID, previousController, req.NewController); err != nil {
			return nil, err
		}
	}

	if err := recordIdentityHistory(stub, req.IdentityID, "RECOVER", "controller", previousController, req.NewController, req.ActorID); err != nil {
		return nil, err
	}

	record.Controller = req.NewController
	record.Delegation = nil
	record.Recovery = nil
	record.Touch(req.ActorID, time.Now())

	if err := storeIdentityRecord(stub, record); err != nil {
		return nil, err
	}

	if err := h.eventService.EmitIdentityRecovered(stub, record, previousController, req.ActorID); err != nil {
		return nil, fmt.Errorf("failed to emit event: %v", err)
	}

	return json.Marshal(record)
}

// Helper methods

func (h *LifecycleHandler) loadLifecycleRequest(stub shim.ChaincodeStubInterface, args []string) (*domain.IdentityLifecycleRequest, *domain.IdentityRecord, error) {
	if len(args) != 1 {
		return nil, nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	var req domain.IdentityLifecycleRequest
	if err := json.Unmarshal([]byte(args[0]), &req); err != nil {
		return nil, nil, errors.NewValidation("failed to parse lifecycle request: %v", err)
	}
	if err := shared.ValidateRequired(map[string]string{
		"identityID": req.IdentityID,
		"actorID":    req.ActorID,
	}); err != nil {
		return nil, nil, err
	}

	record, err := loadIdentityRecord(stub, req.IdentityID)
	if err != nil {
		return nil, nil, err
	}
	return &req, record, nil
}

func (h *LifecycleHandler) applyTransition(stub shim.ChaincodeStubInterface, record *domain.IdentityRecord, newStatus validation.IdentityStatus, eventName, reason, actorID string) ([]byte, error) {
	if err := validation.ValidateStatusTransition(string(record.Status), string(newStatus), "Identity"); err != nil {
		return nil, err
	}

	if err := recordIdentityHistory(stub, record.IdentityID, "STATUS_UPDATE", "status", string(record.Status), string(newStatus), actorID); err != nil {
		return nil, err
	}

	record.Status = newStatus
	record.Touch(actorID, time.Now())

	if err := storeIdentityRecord(stub, record); err != nil {
		return nil, err
	}

	if err := h.eventService.EmitLifecycleEvent(stub, eventName, record, reason, actorID); err != nil {
		return nil, fmt.Errorf("failed to emit event: %v", err)
	}

	return json.Marshal(record)
}

// reindexController moves the controller composite index entry when control
// changes hands.
func (h *LifecycleHandler) reindexController(stub shim.ChaincodeStubInterface, identityID, oldController, newController string) error {
	oldKey, err := stub.CreateCompositeKey(config.IdentityControllerIndex, []string{oldController, identityID})
	if err != nil {
		return fmt.Errorf("failed to create controller index key: %v", err)
	}
	if err := stub.DelState(oldKey); err != nil {
		return fmt.Errorf("failed to remove old controller index: %v", err)
	}

	newKey, err := stub.CreateCompositeKey(config.IdentityControllerIndex, []string{newController, identityID})
	if err != nil {
		return fmt.Errorf("failed to create controller index key: %v", err)
	}
	if err := stub.PutState(newKey, []byte{}); err != nil {
		return fmt.Errorf("failed to store controller index: %v", err)
	}
	return nil
}
