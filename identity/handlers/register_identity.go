package handlers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hyperledger/fabric-chaincode-go/shim"

	"github.com/blockchain-trust-platform/fabric-chaincode/identity/domain"
	identityServices "github.com/blockchain-trust-platform/fabric-chaincode/identity/services"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/config"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/errors"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/services"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/utils"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/validation"
)

// IdentityHandler handles identity registration, updates and queries
type IdentityHandler struct {
	persistenceService *services.PersistenceService
	eventService       *identityServices.EventService
	feeValidator       *services.ScheduleFeeValidator
}

// NewIdentityHandler creates a new identity handler
func NewIdentityHandler() *IdentityHandler {
	return &IdentityHandler{
		persistenceService: services.NewPersistenceService(),
		eventService:       identityServices.NewEventService(),
		feeValidator:       services.NewScheduleFeeValidator(),
	}
}

// RegisterIdentity registers a new identity record
func (h *IdentityHandler) RegisterIdentity(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	var req domain.IdentityRegistrationRequest
	if err := json.Unmarshal([]byte(args[0]), &req); err != nil {
		return nil, errors.NewValidation("failed to parse registration request: %v", err)
	}

	if err := domain.ValidateRegistrationRequest(&req); err != nil {
		return nil, err
	}

	if _, err := shared.ValidateActorAccess(stub, req.ActorID, shared.PermissionRegisterIdentity); err != nil {
		return nil, err
	}

	if err := h.feeValidator.ValidateFee("RegisterIdentity", req.Fee); err != nil {
		return nil, err
	}

	identityKey := identityStateKey(req.IdentityID)
	exists, err := h.persistenceService.Exists(stub, identityKey)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing identity: %v", err)
	}
	if exists {
		return nil, errors.NewConflict("identity %s already exists", req.IdentityID)
	}

	now := time.Now()
	record := &domain.IdentityRecord{
		IdentityID:          req.IdentityID,
		Controller:          req.Controller,
		Document:            req.Document,
		Version:             1,
		Status:              validation.IdentityStatusActive,
		VerificationMethods: req.VerificationMethods,
		Recovery:            req.Recovery,
		PortabilityProof:    req.PortabilityProof,
		PortabilityScore:    domain.ComputePortabilityScore(req.PortabilityProof),
		CreatedDate:         now,
		LastUpdated:         now,
		CreatedBy:           req.ActorID,
		LastUpdatedBy:       req.ActorID,
	}

	for i := range record.VerificationMethods {
		record.VerificationMethods[i].AddedDate = now
		if record.VerificationMethods[i].Controller == "" {
			record.VerificationMethods[i].Controller = req.Controller
		}
	}
	if record.Recovery != nil {
		record.Recovery.UpdatedDate = now
	}

	if err := domain.ValidateIdentityRecord(record); err != nil {
		return nil, err
	}

	if err := storeIdentityRecord(stub, record); err != nil {
		return nil, err
	}

	controllerKey, err := stub.CreateCompositeKey(config.IdentityControllerIndex, []string{req.Controller, req.IdentityID})
	if err != nil {
		return nil, fmt.Errorf("failed to create controller index key: %v", err)
	}
	if err := stub.PutState(controllerKey, []byte{}); err != nil {
		return nil, fmt.Errorf("failed to store controller index: %v", err)
	}

	recordJSON, _ := utils.MarshalJSONString(record)
	if err := recordIdentityHistory(stub, req.IdentityID, "CREATE", "identity", "", recordJSON, req.ActorID); err != nil {
		return nil, fmt.Errorf("failed to record history: %v", err)
	}

	if err := h.eventService.EmitIdentityRegistered(stub, record, req.ActorID); err != nil {
		return nil, fmt.Errorf("failed to emit event: %v", err)
	}

	return json.Marshal(record)
}

// UpdateIdentity applies a kind-dispatched update to an identity record.
// Document updates are open to delegates holding UPDATE_DOCUMENT; recovery
// and portability updates are controller-only.
func (h *IdentityHandler) UpdateIdentity(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	var req domain.IdentityUpdateRequest
	if err := json.Unmarshal([]byte(args[0]), &req); err != nil {
		return nil, errors.NewValidation("failed to parse update request: %v", err)
	}

	if err := h.feeValidator.ValidateFee("UpdateIdentity", req.Fee); err != nil {
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
	switch req.UpdateKind {
	case domain.UpdateKindDocument:
		if err := record.AuthorizeMutation(req.ActorID, domain.DelegationUpdateDocument, now); err != nil {
			return nil, err
		}
		previousJSON, _ := utils.MarshalJSONString(record.Document)
		newJSON, _ := utils.MarshalJSONString(req.Document)
		if err := recordIdentityHistory(stub, req.IdentityID, "UPDATE", "document", previousJSON, newJSON, req.ActorID); err != nil {
			return nil, err
		}
		record.Document = req.Document

	case domain.UpdateKindRecovery:
		if err := record.AuthorizeMutation(req.ActorID, "", now); err != nil {
			return nil, err
		}
		if req.Recovery == nil {
			return nil, errors.NewValidation("recovery descriptor is required for a recovery update")
		}
		if err := domain.ValidateRecoveryDescriptor(req.Recovery); err != nil {
			return nil, err
		}
		req.Recovery.UpdatedDate = now
		if err := recordIdentityHistory(stub, req.IdentityID, "UPDATE", "recovery", "", req.Recovery.CommitmentHash, req.ActorID); err != nil {
			return nil, err
		}
		record.Recovery = req.Recovery

	case domain.UpdateKindPortability:
		if err := record.AuthorizeMutation(req.ActorID, "", now); err != nil {
			return nil, err
		}
		previousScore := record.PortabilityScore
		record.PortabilityProof = req.PortabilityProof
		record.PortabilityScore = domain.ComputePortabilityScore(req.PortabilityProof)
		if err := recordIdentityHistory(stub, req.IdentityID, "UPDATE", "portabilityScore",
			fmt.Sprintf("%d", previousScore), fmt.Sprintf("%d", record.PortabilityScore), req.ActorID); err != nil {
			return nil, err
		}

	default:
		return nil, errors.NewValidation("unknown update kind '%s'", req.UpdateKind)
	}

	record.Touch(req.ActorID, now)
	if err := domain.ValidateIdentityRecord(record); err != nil {
		return nil, err
	}

	if err := storeIdentityRecord(stub, record); err != nil {
		return nil, err
	}

	if err := h.eventService.EmitIdentityUpdated(stub, record, req.UpdateKind, req.ActorID); err != nil {
		return nil, fmt.Errorf("failed to emit event: %v", err)
	}

	return json.Marshal(record)
}

// GetIdentity retrieves an identity record by DID
func (h *IdentityHandler) GetIdentity(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	record, err := loadIdentityRecord(stub, args[0])
	if err != nil {
		return nil, err
	}

	return json.Marshal(record)
}

// GetIdentityHistory retrieves the mutation history of an identity
func (h *IdentityHandler) GetIdentityHistory(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	history, err := shared.GetEntityHistory(stub, args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to get identity history: %v", err)
	}

	return json.Marshal(history)
}

// GetIdentitiesByController lists the identities a controller holds, via
// the controller composite index.
func (h *IdentityHandler) GetIdentitiesByController(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	controller := args[0]
	iterator, err := stub.GetStateByPartialCompositeKey(config.IdentityControllerIndex, []string{controller})
	if err != nil {
		return nil, fmt.Errorf("failed to query controller index: %v", err)
	}
	defer iterator.Close()

	var records []domain.IdentityRecord
	for iterator.HasNext() {
		response, err := iterator.Next()
		if err != nil {
			return nil, fmt.Errorf("failed to iterate controller index: %v", err)
		}

		_, parts, err := stub.SplitCompositeKey(response.Key)
		if err != nil || len(parts) < 2 {
			continue
		}

		record, err := loadIdentityRecord(stub, parts[1])
		if err != nil {
			continue
		}
		records = append(records, *record)
	}

	return json.Marshal(records)
}
