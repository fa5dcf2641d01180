package services

import (
	"fmt"

	"github.com/hyperledger/fabric-chaincode-go/shim"

	"github.com/blockchain-trust-platform/fabric-chaincode/identity/domain"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/config"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/services"
)

// EventService handles event emission for identity operations
type EventService struct {
	*services.BaseEventService
}

// NewEventService creates a new event service
func NewEventService() *EventService {
	return &EventService{
		BaseEventService: services.NewBaseEventService(),
	}
}

// EmitIdentityRegistered emits an identity registered event
func (es *EventService) EmitIdentityRegistered(stub shim.ChaincodeStubInterface, record *domain.IdentityRecord, actorID string) error {
	metadata := map[string]string{
		"controller":       record.Controller,
		"status":           string(record.Status),
		"portabilityScore": fmt.Sprintf("%d", record.PortabilityScore),
	}

	payload := es.CreateEventPayloadWithMetadata(
		config.EventIdentityRegistered,
		record.IdentityID,
		"Identity",
		actorID,
		record,
		metadata,
	)

	return es.EmitEvent(stub, config.EventIdentityRegistered, payload)
}

// EmitIdentityUpdated emits an identity updated event
func (es *EventService) EmitIdentityUpdated(stub shim.ChaincodeStubInterface, record *domain.IdentityRecord, updateKind, actorID string) error {
	metadata := map[string]string{
		"updateKind": updateKind,
		"version":    fmt.Sprintf("%d", record.Version),
	}

	payload := es.CreateEventPayloadWithMetadata(
		config.EventIdentityUpdated,
		record.IdentityID,
		"Identity",
		actorID,
		record,
		metadata,
	)

	return es.EmitEvent(stub, config.EventIdentityUpdated, payload)
}

// EmitLifecycleEvent emits the event matching a lifecycle transition
// (deactivate, reactivate, revoke).
func (es *EventService) EmitLifecycleEvent(stub shim.ChaincodeStubInterface, eventName string, record *domain.IdentityRecord, reason, actorID string) error {
	metadata := map[string]string{
		"status": string(record.Status),
	}
	if reason != "" {
		metadata["reason"] = reason
	}

	payload := es.CreateEventPayloadWithMetadata(
		eventName,
		record.IdentityID,
		"Identity",
		actorID,
		record,
		metadata,
	)

	return es.EmitEvent(stub, eventName, payload)
}

// EmitControlTransferred emits a control transfer event
func (es *EventService) EmitControlTransferred(stub shim.ChaincodeStubInterface, record *domain.IdentityRecord, previousController, actorID string) error {
	metadata := map[string]string{
		"previousController": previousController,
		"newController":      record.Controller,
	}

	payload := es.CreateEventPayloadWithMetadata(
		config.EventControlTransferred,
		record.IdentityID,
		"Identity",
		actorID,
		record,
		metadata,
	)

	return es.EmitEvent(stub, config.EventControlTransferred, payload)
}

// EmitControlDelegated emits a delegation granted event
func (es *EventService) EmitControlDelegated(stub shim.ChaincodeStubInterface, record *domain.IdentityRecord, actorID string) error {
	metadata := map[string]string{}
	if record.Delegation != nil {
		metadata["delegatee"] = record.Delegation.Delegatee
		metadata["expirationDate"] = record.Delegation.ExpirationDate.Format("2006-01-02T15:04:05Z07:00")
	}

	payload := es.CreateEventPayloadWithMetadata(
		config.EventControlDelegated,
		record.IdentityID,
		"Identity",
		actorID,
		record,
		metadata,
	)

	return es.EmitEvent(stub, config.EventControlDelegated, payload)
}

// EmitDelegationRevoked emits a delegation revoked event
func (es *EventService) EmitDelegationRevoked(stub shim.ChaincodeStubInterface, record *domain.IdentityRecord, delegatee, actorID string) error {
	metadata := map[string]string{
		"delegatee": delegatee,
	}

	payload := es.CreateEventPayloadWithMetadata(
		config.EventDelegationRevoked,
		record.IdentityID,
		"Identity",
		actorID,
		record,
		metadata,
	)

	return es.EmitEvent(stub, config.EventDelegationRevoked, payload)
}

// EmitIdentityRecovered emits a recovery event
func (es *EventService) EmitIdentityRecovered(stub shim.ChaincodeStubInterface, record *domain.IdentityRecord, previousController, actorID string) error {
	metadata := map[string]string{
		"previousController": previousController,
		"newController":      record.Controller,
	}

	payload := es.CreateEventPayloadWithMetadata(
		config.EventIdentityRecovered,
		record.IdentityID,
		"Identity",
		actorID,
		record,
		metadata,
	)

	return es.EmitEvent(stub, config.EventIdentityRecovered, payload)
}

// EmitMethodEvent emits a verification method added or removed event
func (es *EventService) EmitMethodEvent(stub shim.ChaincodeStubInterface, eventName string, record *domain.IdentityRecord, methodID, actorID string) error {
	metadata := map[string]string{
		"methodID":    methodID,
		"methodCount": fmt.Sprintf("%d", len(record.VerificationMethods)),
	}

	payload := es.CreateEventPayloadWithMetadata(
		eventName,
		record.IdentityID,
		"Identity",
		actorID,
		record,
		metadata,
	)

	return es.EmitEvent(stub, eventName, payload)
}

// EmitServiceEvent emits a service endpoint added or removed event
func (es *EventService) EmitServiceEvent(stub shim.ChaincodeStubInterface, eventName string, record *domain.IdentityRecord, serviceID, actorID string) error {
	metadata := map[string]string{
		"serviceID":    serviceID,
		"serviceCount": fmt.Sprintf("%d", len(record.Services)),
	}

	payload := es.CreateEventPayloadWithMetadata(
		eventName,
		record.IdentityID,
		"Identity",
		actorID,
		record,
		metadata,
	)

	return es.EmitEvent(stub, eventName, payload)
}
