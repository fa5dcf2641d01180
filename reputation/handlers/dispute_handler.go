package handlers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hyperledger/fabric-chaincode-go/shim"

	"github.com/blockchain-trust-platform/fabric-chaincode/reputation/domain"
	reputationServices "github.com/blockchain-trust-platform/fabric-chaincode/reputation/services"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/config"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/errors"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/services"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/utils"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/validation"
)

// DisputeHandler handles challenges against recorded attestations. Filing
// a dispute parks the attestation in DISPUTED; only a registry authority
// ruling moves it out again.
type DisputeHandler struct {
	repository   *domain.FabricReputationRepository
	eventService *reputationServices.EventService
	feeValidator *services.ScheduleFeeValidator
}

// NewDisputeHandler creates a new dispute handler
func NewDisputeHandler() *DisputeHandler {
	return &DisputeHandler{
		repository:   domain.NewFabricReputationRepository(),
		eventService: reputationServices.NewEventService(),
		feeValidator: services.NewScheduleFeeValidator(),
	}
}

// DisputeAttestation opens a dispute case against a valid attestation.
// Anyone but the attester may file; the attester answers through the
// resolution path instead.
func (h *DisputeHandler) DisputeAttestation(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	var req domain.DisputeRequest
	if err := json.Unmarshal([]byte(args[0]), &req); err != nil {
		return nil, errors.NewValidation("failed to parse dispute request: %v", err)
	}
	if err := domain.ValidateDisputeRequest(&req); err != nil {
		return nil, err
	}

	record, err := h.repository.Attestation(stub, req.AttestationID)
	if err != nil {
		return nil, err
	}
	if req.ActorID == record.AttesterID {
		return nil, errors.NewAuthorization("attester %s cannot dispute their own attestation", req.ActorID)
	}

	if err := h.feeValidator.ValidateFee("DisputeAttestation", req.Fee); err != nil {
		return nil, err
	}

	now := time.Now()
	effective := record.EffectiveStatus(now)
	if err := validation.ValidateStatusTransition(string(effective), string(validation.AttestationStatusDisputed), "Attestation"); err != nil {
		return nil, err
	}

	dispute := domain.NewDisputeCase(req.AttestationID, req.ActorID, req.Reason, req.EvidenceURI)
	if err := storeDisputeCase(stub, dispute); err != nil {
		return nil, err
	}

	indexKey, err := stub.CreateCompositeKey(config.DisputeAttestationIndex, []string{req.AttestationID, dispute.CaseID})
	if err != nil {
		return nil, fmt.Errorf("failed to create dispute index key: %v", err)
	}
	if err := stub.PutState(indexKey, []byte(dispute.CaseID)); err != nil {
		return nil, fmt.Errorf("failed to store dispute index: %v", err)
	}

	if err := recordAttestationHistory(stub, req.AttestationID, "STATUS_UPDATE", "status", string(record.Status), string(validation.AttestationStatusDisputed), req.ActorID); err != nil {
		return nil, fmt.Errorf("failed to record history: %v", err)
	}

	record.Status = validation.AttestationStatusDisputed
	record.StatusReason = req.Reason
	record.LastUpdatedBy = req.ActorID

	if err := h.repository.SaveAttestation(stub, record); err != nil {
		return nil, err
	}

	disputeJSON, _ := utils.MarshalJSONString(dispute)
	if err := recordDisputeHistory(stub, dispute.CaseID, "CREATE", "dispute", "", disputeJSON, req.ActorID); err != nil {
		return nil, fmt.Errorf("failed to record history: %v", err)
	}

	if err := h.eventService.EmitAttestationDisputed(stub, record, dispute, req.ActorID); err != nil {
		return nil, fmt.Errorf("failed to emit event: %v", err)
	}

	return json.Marshal(dispute)
}

// ResolveDispute closes an open dispute case with a registry authority
// ruling. Upholding the attestation returns it to VALID; rejecting it
// revokes it.
func (h *DisputeHandler) ResolveDispute(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	var req domain.DisputeResolutionRequest
	if err := json.Unmarshal([]byte(args[0]), &req); err != nil {
		return nil, errors.NewValidation("failed to parse resolution request: %v", err)
	}
	if err := domain.ValidateDisputeResolutionRequest(&req); err != nil {
		return nil, err
	}

	if _, err := shared.ValidateActorAccess(stub, req.ActorID, shared.PermissionResolveDispute); err != nil {
		return nil, err
	}

	dispute, err := loadDisputeCase(stub, req.CaseID)
	if err != nil {
		return nil, err
	}
	record, err := h.repository.Attestation(stub, dispute.AttestationID)
	if err != nil {
		return nil, err
	}

	// Close the case first so a double resolve fails on the case state
	// regardless of the requested ruling.
	if err := dispute.Resolve(req.ActorID, req.Resolution, req.Upheld); err != nil {
		return nil, err
	}

	target := validation.AttestationStatusRevoked
	if req.Upheld {
		target = validation.AttestationStatusValid
	}
	if err := validation.ValidateStatusTransition(string(record.Status), string(target), "Attestation"); err != nil {
		return nil, err
	}

	if err := storeDisputeCase(stub, dispute); err != nil {
		return nil, err
	}

	if err := recordAttestationHistory(stub, dispute.AttestationID, "STATUS_UPDATE", "status", string(record.Status), string(target), req.ActorID); err != nil {
		return nil, fmt.Errorf("failed to record history: %v", err)
	}

	record.Status = target
	record.StatusReason = req.Resolution
	record.LastUpdatedBy = req.ActorID

	if err := h.repository.SaveAttestation(stub, record); err != nil {
		return nil, err
	}

	if err := recordDisputeHistory(stub, dispute.CaseID, "STATUS_UPDATE", "status", string(validation.DisputeStatusOpen), string(validation.DisputeStatusResolved), req.ActorID); err != nil {
		return nil, fmt.Errorf("failed to record history: %v", err)
	}

	if err := h.eventService.EmitDisputeResolved(stub, dispute, req.ActorID); err != nil {
		return nil, fmt.Errorf("failed to emit event: %v", err)
	}

	return json.Marshal(dispute)
}

// GetDisputeCase retrieves a dispute case by id
func (h *DisputeHandler) GetDisputeCase(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	dispute, err := loadDisputeCase(stub, args[0])
	if err != nil {
		return nil, err
	}

	return json.Marshal(dispute)
}

// GetDisputesByAttestation lists the dispute cases filed against an
// attestation in case id order
func (h *DisputeHandler) GetDisputesByAttestation(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	iterator, err := stub.GetStateByPartialCompositeKey(config.DisputeAttestationIndex, []string{args[0]})
	if err != nil {
		return nil, fmt.Errorf("failed to query %s index: %v", config.DisputeAttestationIndex, err)
	}
	defer iterator.Close()

	var cases []domain.DisputeCase
	for iterator.HasNext() {
		response, err := iterator.Next()
		if err != nil {
			return nil, fmt.Errorf("failed to iterate %s index: %v", config.DisputeAttestationIndex, err)
		}

		dispute, err := loadDisputeCase(stub, string(response.Value))
		if err != nil {
			continue
		}
		cases = append(cases, *dispute)
	}

	return json.Marshal(cases)
}
