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
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/validation"
)

// MethodHandler handles verification methods and service endpoints
type MethodHandler struct {
	eventService *identityServices.EventService
}

// NewMethodHandler creates a new method handler
func NewMethodHandler() *MethodHandler {
	return &MethodHandler{
		eventService: identityServices.NewEventService(),
	}
}

// AddVerificationMethod appends a public key to the identity record.
func (h *MethodHandler) AddVerificationMethod(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	req, record, err := h.loadMethodRequest(stub, args)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateVerificationMethodRequest(req); err != nil {
		return nil, err
	}

	if record.FindVerificationMethod(req.MethodID) != nil {
		return nil, errors.NewConflict("identity %s already has verification method %s", req.IdentityID, req.MethodID)
	}
	if len(record.VerificationMethods) >= config.MaxVerificationMethods {
		return nil, errors.NewPolicyViolation("identity %s has reached the limit of %d verification methods", req.IdentityID, config.MaxVerificationMethods)
	}

	now := time.Now()
	record.VerificationMethods = append(record.VerificationMethods, domain.VerificationMethod{
		MethodID:     req.MethodID,
		MethodType:   req.MethodType,
		Controller:   record.Controller,
		PublicKeyHex: req.PublicKeyHex,
		AddedDate:    now,
	})
	record.Touch(req.ActorID, now)

	if err := recordIdentityHistory(stub, req.IdentityID, "UPDATE", "verificationMethods", "", req.MethodID, req.ActorID); err != nil {
		return nil, err
	}
	if err := storeIdentityRecord(stub, record); err != nil {
		return nil, err
	}
	if err := h.eventService.EmitMethodEvent(stub, config.EventVerificationMethodAdded, record, req.MethodID, req.ActorID); err != nil {
		return nil, fmt.Errorf("failed to emit event: %v", err)
	}

	return json.Marshal(record)
}

// RemoveVerificationMethod drops a public key from the identity record.
func (h *MethodHandler) RemoveVerificationMethod(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	req, record, err := h.loadMethodRequest(stub, args)
	if err != nil {
		return nil, err
	}

	if record.FindVerificationMethod(req.MethodID) == nil {
		return nil, errors.NewNotFound("identity %s has no verification method %s", req.IdentityID, req.MethodID)
	}

	methods := record.VerificationMethods[:0]
	for _, method := range record.VerificationMethods {
		if method.MethodID != req.MethodID {
			methods = append(methods, method)
		}
	}
	record.VerificationMethods = methods
	record.Touch(req.ActorID, time.Now())

	if err := recordIdentityHistory(stub, req.IdentityID, "UPDATE", "verificationMethods", req.MethodID, "", req.ActorID); err != nil {
		return nil, err
	}
	if err := storeIdentityRecord(stub, record); err != nil {
		return nil, err
	}
	if err := h.eventService.EmitMethodEvent(stub, config.EventVerificationMethodRemoved, record, req.MethodID, req.ActorID); err != nil {
		return nil, fmt.Errorf("failed to emit event: %v", err)
	}

	return json.Marshal(record)
}

// AddService appends a service endpoint to the identity record.
func (h *MethodHandler) AddService(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	req, record, err := h.loadServiceRequest(stub, args)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateServiceRequest(req); err != nil {
		return nil, err
	}

	if record.FindService(req.ServiceID) != nil {
		return nil, errors.NewConflict("identity %s already has service %s", req.IdentityID, req.ServiceID)
	}
	if len(record.Services) >= config.MaxServiceEndpoints {
		return nil, errors.NewPolicyViolation("identity %s has reached the limit of %d services", req.IdentityID, config.MaxServiceEndpoints)
	}

	now := time.Now()
	record.Services = append(record.Services, domain.ServiceEndpoint{
		ServiceID:   req.ServiceID,
		ServiceType: req.ServiceType,
		Endpoint:    req.Endpoint,
		AddedDate:   now,
	})
	record.Touch(req.ActorID, now)

	if err := recordIdentityHistory(stub, req.IdentityID, "UPDATE", "services", "", req.ServiceID, req.ActorID); err != nil {
		return nil, err
	}
	if err := storeIdentityRecord(stub, record); err != nil {
		return nil, err
	}
	if err := h.eventService.EmitServiceEvent(stub, config.EventServiceAdded, record, req.ServiceID, req.ActorID); err != nil {
		return nil, fmt.Errorf("failed to emit event: %v", err)
	}

	return json.Marshal(record)
}

// RemoveService drops a service endpoint from the identity record.
func (h *MethodHandler) RemoveService(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	req, record, err := h.loadServiceRequest(stub, args)
	if err != nil {
		return nil, err
	}

	if record.FindService(req.ServiceID) == nil {
		return nil, errors.NewNotFound("identity %s has no service %s", req.IdentityID, req.ServiceID)
	}

	services := record.Services[:0]
	for _, service := range record.Services {
		if service.ServiceID != req.ServiceID {
			services = append(services, service)
		}
	}
	record.Services = services
	record.Touch(req.ActorID, time.Now())

	if err := recordIdentityHistory(stub, req.IdentityID, "UPDATE", "services", req.ServiceID, "", req.ActorID); err != nil {
		return nil, err
	}
	if err := storeIdentityRecord(stub, record); err != nil {
		return nil, err
	}
	if err := h.eventService.EmitServiceEvent(stub, config.EventServiceRemoved, record, req.ServiceID, req.ActorID); err != nil {
		return nil, fmt.Errorf("failed to emit event: %v", err)
	}

	return json.Marshal(record)
}

// Helper methods

func (h *MethodHandler) loadMethodRequest(stub shim.ChaincodeStubInterface, args []string) (*domain.VerificationMethodRequest, *domain.IdentityRecord, error) {
	if len(args) != 1 {
		return nil, nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	var req domain.VerificationMethodRequest
	if err := json.Unmarshal([]byte(args[0]), &req); err != nil {
		return nil, nil, errors.NewValidation("failed to parse verification method request: %v", err)
	}
	if err := shared.ValidateRequired(map[string]string{
		"identityID": req.IdentityID,
		"methodID":   req.MethodID,
		"actorID":    req.ActorID,
	}); err != nil {
		return nil, nil, err
	}

	record, err := h.loadAuthorized(stub, req.IdentityID, req.ActorID, domain.DelegationManageMethods)
	if err != nil {
		return nil, nil, err
	}
	return &req, record, nil
}

func (h *MethodHandler) loadServiceRequest(stub shim.ChaincodeStubInterface, args []string) (*domain.ServiceEndpointRequest, *domain.IdentityRecord, error) {
	if len(args) != 1 {
		return nil, nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	var req domain.ServiceEndpointRequest
	if err := json.Unmarshal([]byte(args[0]), &req); err != nil {
		return nil, nil, errors.NewValidation("failed to parse service request: %v", err)
	}
	if err := shared.ValidateRequired(map[string]string{
		"identityID": req.IdentityID,
		"serviceID":  req.ServiceID,
		"actorID":    req.ActorID,
	}); err != nil {
		return nil, nil, err
	}

	record, err := h.loadAuthorized(stub, req.IdentityID, req.ActorID, domain.DelegationManageServices)
	if err != nil {
		return nil, nil, err
	}
	return &req, record, nil
}

func (h *MethodHandler) loadAuthorized(stub shim.ChaincodeStubInterface, identityID, actorID, delegationPermission string) (*domain.IdentityRecord, error) {
	record, err := loadIdentityRecord(stub, identityID)
	if err != nil {
		return nil, err
	}
	if err := record.RequireStatus(validation.IdentityStatusActive); err != nil {
		return nil, err
	}
	if err := record.AuthorizeMutation(actorID, delegationPermission, time.Now()); err != nil {
		return nil, err
	}
	return record, nil
}
