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

// AttestationHandler handles attestation recording and registry queries
type AttestationHandler struct {
	repository   *domain.FabricReputationRepository
	eventService *reputationServices.EventService
	feeValidator *services.ScheduleFeeValidator
}

// NewAttestationHandler creates a new attestation handler
func NewAttestationHandler() *AttestationHandler {
	return &AttestationHandler{
		repository:   domain.NewFabricReputationRepository(),
		eventService: reputationServices.NewEventService(),
		feeValidator: services.NewScheduleFeeValidator(),
	}
}

// RecordAttestation records a scored reputation claim and folds it into
// the subject's running aggregates. An out-of-range score is clamped into
// [0, 1000] rather than rejected.
func (h *AttestationHandler) RecordAttestation(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	var req domain.AttestationRequest
	if err := json.Unmarshal([]byte(args[0]), &req); err != nil {
		return nil, errors.NewValidation("failed to parse attestation request: %v", err)
	}

	if err := domain.ValidateAttestationRequest(&req); err != nil {
		return nil, err
	}

	if _, err := shared.ValidateActorAccess(stub, req.ActorID, shared.PermissionRecordAttestation); err != nil {
		return nil, err
	}

	if err := h.feeValidator.ValidateFee("RecordAttestation", req.Fee); err != nil {
		return nil, err
	}

	if _, err := h.repository.Attestation(stub, req.AttestationID); err == nil {
		return nil, errors.NewConflict("attestation %s is already recorded", req.AttestationID)
	} else if !errors.IsNotFound(err) {
		return nil, fmt.Errorf("failed to check existing attestation: %v", err)
	}

	now := time.Now()
	record := &domain.AttestationRecord{
		AttestationID:   req.AttestationID,
		AttesterID:      req.AttesterID,
		SubjectID:       req.SubjectID,
		AttestationType: req.AttestationType,
		Category:        req.Category,
		Score:           validation.ClampScore(req.Score),
		EvidenceURI:     req.EvidenceURI,
		Timestamp:       now,
		ExpirationDate:  req.ExpirationDate,
		Status:          validation.AttestationStatusValid,
		LastUpdatedBy:   req.ActorID,
	}

	if err := h.repository.SaveAttestation(stub, record); err != nil {
		return nil, err
	}

	if err := h.writeIndexes(stub, record); err != nil {
		return nil, err
	}

	if err := h.updateAggregates(stub, record, now); err != nil {
		return nil, err
	}

	recordJSON, _ := utils.MarshalJSONString(record)
	if err := recordAttestationHistory(stub, req.AttestationID, "CREATE", "attestation", "", recordJSON, req.ActorID); err != nil {
		return nil, fmt.Errorf("failed to record history: %v", err)
	}

	if err := h.eventService.EmitAttestationRecorded(stub, record, req.ActorID); err != nil {
		return nil, fmt.Errorf("failed to emit event: %v", err)
	}

	return json.Marshal(record)
}

// writeIndexes stores the subject, attester and category lookups. The
// slice keeps the write order deterministic across endorsers.
func (h *AttestationHandler) writeIndexes(stub shim.ChaincodeStubInterface, record *domain.AttestationRecord) error {
	indexes := []struct {
		name       string
		attributes []string
	}{
		{config.AttestationSubjectIndex, []string{record.SubjectID, record.AttestationID}},
		{config.AttestationAttesterIndex, []string{record.AttesterID, record.AttestationID}},
		{config.AttestationCategoryIndex, []string{record.SubjectID, record.Category, record.AttestationID}},
	}

	for _, index := range indexes {
		indexKey, err := stub.CreateCompositeKey(index.name, index.attributes)
		if err != nil {
			return fmt.Errorf("failed to create %s index key: %v", index.name, err)
		}
		if err := stub.PutState(indexKey, []byte(record.AttestationID)); err != nil {
			return fmt.Errorf("failed to store %s index: %v", index.name, err)
		}
	}
	return nil
}

// updateAggregates folds the accepted score into the subject's overall and
// category aggregates under the smoothing rule.
func (h *AttestationHandler) updateAggregates(stub shim.ChaincodeStubInterface, record *domain.AttestationRecord, now time.Time) error {
	overall, err := h.repository.SubjectAggregate(stub, record.SubjectID)
	if errors.IsNotFound(err) {
		overall = &domain.SubjectAggregate{SubjectID: record.SubjectID}
	} else if err != nil {
		return err
	}
	overall.Absorb(record.Score, now)
	if err := h.repository.SaveAggregate(stub, overall); err != nil {
		return err
	}

	scoped, err := h.repository.CategoryAggregate(stub, record.SubjectID, record.Category)
	if errors.IsNotFound(err) {
		scoped = &domain.SubjectAggregate{SubjectID: record.SubjectID, Category: record.Category}
	} else if err != nil {
		return err
	}
	scoped.Absorb(record.Score, now)
	return h.repository.SaveAggregate(stub, scoped)
}

// GetAttestation retrieves a recorded attestation by id
func (h *AttestationHandler) GetAttestation(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	record, err := h.repository.Attestation(stub, args[0])
	if err != nil {
		return nil, err
	}

	return json.Marshal(record)
}

// GetAttestationHistory retrieves the mutation history of an attestation
func (h *AttestationHandler) GetAttestationHistory(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	history, err := shared.GetEntityHistory(stub, args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to get attestation history: %v", err)
	}

	return json.Marshal(history)
}

// GetAttestationsBySubject lists the attestations made about a subject
func (h *AttestationHandler) GetAttestationsBySubject(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	records, err := h.repository.SubjectAttestations(stub, args[0])
	if err != nil {
		return nil, err
	}

	return json.Marshal(records)
}

// GetAttestationsByAttester lists the attestations a party has made
func (h *AttestationHandler) GetAttestationsByAttester(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	records, err := h.repository.AttesterAttestations(stub, args[0])
	if err != nil {
		return nil, err
	}

	return json.Marshal(records)
}

// GetAttestationsByCategory lists the attestations made about a subject
// within one category
func (h *AttestationHandler) GetAttestationsByCategory(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	if len(args) != 2 {
		return nil, errors.NewValidation("incorrect number of arguments. Expected 2, got %d", len(args))
	}

	records, err := h.repository.CategoryAttestations(stub, args[0], args[1])
	if err != nil {
		return nil, err
	}

	return json.Marshal(records)
}

// GetSubjectAggregate retrieves a subject's overall running aggregate
func (h *AttestationHandler) GetSubjectAggregate(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	aggregate, err := h.repository.SubjectAggregate(stub, args[0])
	if err != nil {
		return nil, err
	}

	return json.Marshal(aggregate)
}
