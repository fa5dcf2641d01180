package services

import (
	"fmt"

	"github.com/hyperledger/fabric-chaincode-go/shim"

	"github.com/blockchain-trust-platform/fabric-chaincode/credential/domain"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/config"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/services"
)

// EventService handles event emission for credential operations
type EventService struct {
	*services.BaseEventService
}

// NewEventService creates a new event service
func NewEventService() *EventService {
	return &EventService{
		BaseEventService: services.NewBaseEventService(),
	}
}

// EmitCredentialAnchored emits a credential anchored event
func (es *EventService) EmitCredentialAnchored(stub shim.ChaincodeStubInterface, record *domain.CredentialRecord, actorID string) error {
	metadata := map[string]string{
		"issuerID":           record.IssuerID,
		"subjectID":          record.SubjectID,
		"credentialType":     record.CredentialType,
		"verifiabilityScore": fmt.Sprintf("%d", record.VerifiabilityScore),
	}

	payload := es.CreateEventPayloadWithMetadata(
		config.EventCredentialAnchored,
		record.CredentialHash,
		"Credential",
		actorID,
		record,
		metadata,
	)

	return es.EmitEvent(stub, config.EventCredentialAnchored, payload)
}

// EmitStatusEvent emits the event matching a credential status transition
// (revoke, suspend, reinstate, expire).
func (es *EventService) EmitStatusEvent(stub shim.ChaincodeStubInterface, eventName string, record *domain.CredentialRecord, actorID string) error {
	metadata := map[string]string{
		"status": string(record.Status),
	}
	if record.StatusReason != "" {
		metadata["reason"] = record.StatusReason
	}

	payload := es.CreateEventPayloadWithMetadata(
		eventName,
		record.CredentialHash,
		"Credential",
		actorID,
		record,
		metadata,
	)

	return es.EmitEvent(stub, eventName, payload)
}

// EmitIssuerTrustUpdated emits an issuer trust registry update event
func (es *EventService) EmitIssuerTrustUpdated(stub shim.ChaincodeStubInterface, record *domain.IssuerTrustRecord, actorID string) error {
	metadata := map[string]string{
		"trusted": fmt.Sprintf("%t", record.Trusted),
	}
	if record.Reason != "" {
		metadata["reason"] = record.Reason
	}

	payload := es.CreateEventPayloadWithMetadata(
		config.EventIssuerTrustUpdated,
		record.IssuerID,
		"IssuerTrust",
		actorID,
		record,
		metadata,
	)

	return es.EmitEvent(stub, config.EventIssuerTrustUpdated, payload)
}
