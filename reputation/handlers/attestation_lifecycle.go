package handlers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hyperledger/fabric-chaincode-go/shim"

	"github.com/blockchain-trust-platform/fabric-chaincode/reputation/domain"
	reputationServices "github.com/blockchain-trust-platform/fabric-chaincode/reputation/services"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/config"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/errors"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/validation"
)

// LifecycleHandler handles attestation status transitions outside the
// dispute path. Transitions are checked against the effective status, so
// an attestation whose validity window has lapsed behaves as EXPIRED even
// before the flip is persisted.
type LifecycleHandler struct {
	repository   *domain.FabricReputationRepository
	eventService *reputationServices.EventService
}

// NewLifecycleHandler creates a new lifecycle handler
func NewLifecycleHandler() *LifecycleHandler {
	return &LifecycleHandler{
		repository:   domain.NewFabricReputationRepository(),
		eventService: reputationServices.NewEventService(),
	}
}

// RevokeAttestation permanently withdraws an attestation. Only the
// recorded attester may revoke, a reason is required, and a disputed
// attestation must go through resolution instead.
func (h *LifecycleHandler) RevokeAttestation(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	var req domain.AttestationStatusRequest
	if err := json.Unmarshal([]byte(args[0]), &req); err != nil {
		return nil, errors.NewValidation("failed to parse status request: %v", err)
	}
	if err := domain.ValidateAttestationStatusRequest(&req, true); err != nil {
		return nil, err
	}

	record, err := h.repository.Attestation(stub, req.AttestationID)
	if err != nil {
		return nil, err
	}
	if req.ActorID != record.AttesterID {
		return nil, errors.NewAuthorization("only attester %s may revoke attestation %s", record.AttesterID, req.AttestationID)
	}

	now := time.Now()
	effective := record.EffectiveStatus(now)
	if effective == validation.AttestationStatusDisputed {
		return nil, errors.NewPolicyViolation("attestation %s is under dispute and can only change status through resolution", req.AttestationID)
	}
	if err := validation.ValidateStatusTransition(string(effective), string(validation.AttestationStatusRevoked), "Attestation"); err != nil {
		return nil, err
	}

	if err := recordAttestationHistory(stub, req.AttestationID, "STATUS_UPDATE", "status", string(record.Status), string(validation.AttestationStatusRevoked), req.ActorID); err != nil {
		return nil, fmt.Errorf("failed to record history: %v", err)
	}

	record.Status = validation.AttestationStatusRevoked
	record.StatusReason = req.Reason
	record.LastUpdatedBy = req.ActorID

	if err := h.repository.SaveAttestation(stub, record); err != nil {
		return nil, err
	}

	if err := h.eventService.EmitAttestationStatusEvent(stub, config.EventAttestationRevoked, record, req.ActorID); err != nil {
		return nil, fmt.Errorf("failed to emit event: %v", err)
	}

	return json.Marshal(record)
}

// TouchAttestation persists the expiration flip for an attestation whose
// validity window has lapsed. Only VALID flips; a disputed attestation
// keeps its status until the dispute is resolved. Touching an unexpired
// or terminal attestation reports Changed false and writes nothing.
func (h *LifecycleHandler) TouchAttestation(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	var req domain.AttestationStatusRequest
	if err := json.Unmarshal([]byte(args[0]), &req); err != nil {
		return nil, errors.NewValidation("failed to parse touch request: %v", err)
	}
	if err := domain.ValidateAttestationStatusRequest(&req, false); err != nil {
		return nil, err
	}

	record, err := h.repository.Attestation(stub, req.AttestationID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	effective := record.EffectiveStatus(now)
	if effective == record.Status {
		return json.Marshal(&domain.TouchResult{
			AttestationID: record.AttestationID,
			Changed:       false,
			Status:        record.Status,
		})
	}

	if err := recordAttestationHistory(stub, req.AttestationID, "STATUS_UPDATE", "status", string(record.Status), string(effective), req.ActorID); err != nil {
		return nil, fmt.Errorf("failed to record history: %v", err)
	}

	record.Status = effective
	record.StatusReason = "validity window lapsed"
	record.LastUpdatedBy = req.ActorID

	if err := h.repository.SaveAttestation(stub, record); err != nil {
		return nil, err
	}

	if err := h.eventService.EmitAttestationStatusEvent(stub, config.EventAttestationExpired, record, req.ActorID); err != nil {
		return nil, fmt.Errorf("failed to emit event: %v", err)
	}

	return json.Marshal(&domain.TouchResult{
		AttestationID: record.AttestationID,
		Changed:       true,
		Status:        record.Status,
	})
}
