package handlers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hyperledger/fabric-chaincode-go/shim"

	"github.com/blockchain-trust-platform/fabric-chaincode/credential/domain"
	credentialServices "github.com/blockchain-trust-platform/fabric-chaincode/credential/services"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/config"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/errors"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/validation"
)

// StatusHandler handles credential lifecycle transitions. Transitions are
// checked against the effective status, so a credential whose validity
// window has lapsed behaves as EXPIRED even before the flip is persisted.
type StatusHandler struct {
	eventService *credentialServices.EventService
}

// NewStatusHandler creates a new status handler
func NewStatusHandler() *StatusHandler {
	return &StatusHandler{
		eventService: credentialServices.NewEventService(),
	}
}

// RevokeCredential permanently revokes a credential. Only the recorded
// issuer may revoke, and a reason is required.
func (h *StatusHandler) RevokeCredential(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	return h.applyStatusChange(stub, args, validation.CredentialStatusRevoked, config.EventCredentialRevoked, true)
}

// SuspendCredential temporarily suspends a valid credential
func (h *StatusHandler) SuspendCredential(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	return h.applyStatusChange(stub, args, validation.CredentialStatusSuspended, config.EventCredentialSuspended, false)
}

// ReinstateCredential returns a suspended credential to VALID
func (h *StatusHandler) ReinstateCredential(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	return h.applyStatusChange(stub, args, validation.CredentialStatusValid, config.EventCredentialReinstated, false)
}

func (h *StatusHandler) applyStatusChange(stub shim.ChaincodeStubInterface, args []string, newStatus validation.CredentialStatus, eventName string, reasonRequired bool) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	var req domain.CredentialStatusRequest
	if err := json.Unmarshal([]byte(args[0]), &req); err != nil {
		return nil, errors.NewValidation("failed to parse status request: %v", err)
	}
	if err := domain.ValidateStatusRequest(&req, reasonRequired); err != nil {
		return nil, err
	}

	record, err := loadCredentialRecord(stub, req.CredentialHash)
	if err != nil {
		return nil, err
	}
	if req.ActorID != record.IssuerID {
		return nil, errors.NewAuthorization("only issuer %s may change the status of credential %s", record.IssuerID, req.CredentialHash)
	}

	now := time.Now()
	effective := record.EffectiveStatus(now)
	if err := validation.ValidateStatusTransition(string(effective), string(newStatus), "Credential"); err != nil {
		return nil, err
	}

	if err := recordCredentialHistory(stub, req.CredentialHash, "STATUS_UPDATE", "status", string(record.Status), string(newStatus), req.ActorID); err != nil {
		return nil, fmt.Errorf("failed to record history: %v", err)
	}

	record.Status = newStatus
	record.StatusReason = req.Reason
	record.StatusUpdated = now
	record.LastUpdatedBy = req.ActorID

	if err := storeCredentialRecord(stub, record); err != nil {
		return nil, err
	}

	if err := h.eventService.EmitStatusEvent(stub, eventName, record, req.ActorID); err != nil {
		return nil, fmt.Errorf("failed to emit event: %v", err)
	}

	return json.Marshal(record)
}

// TouchCredential persists the expiration flip for a credential whose
// validity window has lapsed. Reads never write, so this is the explicit
// compaction path; touching an unexpired or terminal credential reports
// Changed false and writes nothing.
func (h *StatusHandler) TouchCredential(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	var req domain.CredentialStatusRequest
	if err := json.Unmarshal([]byte(args[0]), &req); err != nil {
		return nil, errors.NewValidation("failed to parse touch request: %v", err)
	}
	if err := domain.ValidateStatusRequest(&req, false); err != nil {
		return nil, err
	}

	record, err := loadCredentialRecord(stub, req.CredentialHash)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	effective := record.EffectiveStatus(now)
	if effective == record.Status {
		return json.Marshal(&domain.TouchResult{
			CredentialHash: record.CredentialHash,
			Changed:        false,
			Status:         record.Status,
		})
	}

	if err := recordCredentialHistory(stub, req.CredentialHash, "STATUS_UPDATE", "status", string(record.Status), string(effective), req.ActorID); err != nil {
		return nil, fmt.Errorf("failed to record history: %v", err)
	}

	record.Status = effective
	record.StatusReason = "validity window lapsed"
	record.StatusUpdated = now
	record.LastUpdatedBy = req.ActorID

	if err := storeCredentialRecord(stub, record); err != nil {
		return nil, err
	}

	if err := h.eventService.EmitStatusEvent(stub, config.EventCredentialExpired, record, req.ActorID); err != nil {
		return nil, fmt.Errorf("failed to emit event: %v", err)
	}

	return json.Marshal(&domain.TouchResult{
		CredentialHash: record.CredentialHash,
		Changed:        true,
		Status:         record.Status,
	})
}

// VerifyCredential reports the stored and effective status of a credential
// without writing state
func (h *StatusHandler) VerifyCredential(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	record, err := loadCredentialRecord(stub, args[0])
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return json.Marshal(&domain.CredentialStatusCheck{
		CredentialHash:  record.CredentialHash,
		StoredStatus:    record.Status,
		EffectiveStatus: record.EffectiveStatus(now),
		Expired:         record.IsExpired(now),
		ExpirationDate:  record.ExpirationDate,
		CheckedAt:       now,
	})
}
