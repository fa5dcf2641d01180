package services

import (
	"fmt"

	"github.com/hyperledger/fabric-chaincode-go/shim"

	"github.com/blockchain-trust-platform/fabric-chaincode/reputation/domain"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/config"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/services"
)

// EventService handles event emission for reputation operations
type EventService struct {
	*services.BaseEventService
}

// NewEventService creates a new event service
func NewEventService() *EventService {
	return &EventService{
		BaseEventService: services.NewBaseEventService(),
	}
}

// EmitAttestationRecorded emits an attestation recorded event
func (es *EventService) EmitAttestationRecorded(stub shim.ChaincodeStubInterface, record *domain.AttestationRecord, actorID string) error {
	metadata := map[string]string{
		"attesterID": record.AttesterID,
		"subjectID":  record.SubjectID,
		"category":   record.Category,
		"score":      fmt.Sprintf("%d", record.Score),
	}

	payload := es.CreateEventPayloadWithMetadata(
		config.EventAttestationRecorded,
		record.AttestationID,
		"Attestation",
		actorID,
		record,
		metadata,
	)

	return es.EmitEvent(stub, config.EventAttestationRecorded, payload)
}

// EmitAttestationStatusEvent emits the event matching an attestation
// status transition (revoke, expire).
func (es *EventService) EmitAttestationStatusEvent(stub shim.ChaincodeStubInterface, eventName string, record *domain.AttestationRecord, actorID string) error {
	metadata := map[string]string{
		"status": string(record.Status),
	}
	if record.StatusReason != "" {
		metadata["reason"] = record.StatusReason
	}

	payload := es.CreateEventPayloadWithMetadata(
		eventName,
		record.AttestationID,
		"Attestation",
		actorID,
		record,
		metadata,
	)

	return es.EmitEvent(stub, eventName, payload)
}

// EmitAttestationDisputed emits a dispute filing event
func (es *EventService) EmitAttestationDisputed(stub shim.ChaincodeStubInterface, record *domain.AttestationRecord, dispute *domain.DisputeCase, actorID string) error {
	metadata := map[string]string{
		"caseID":     dispute.CaseID,
		"disputedBy": dispute.DisputedBy,
	}

	payload := es.CreateEventPayloadWithMetadata(
		config.EventAttestationDisputed,
		record.AttestationID,
		"Attestation",
		actorID,
		record,
		metadata,
	)

	return es.EmitEvent(stub, config.EventAttestationDisputed, payload)
}

// EmitDisputeResolved emits a dispute resolution event
func (es *EventService) EmitDisputeResolved(stub shim.ChaincodeStubInterface, dispute *domain.DisputeCase, actorID string) error {
	metadata := map[string]string{
		"attestationID": dispute.AttestationID,
	}
	if dispute.Upheld != nil {
		metadata["upheld"] = fmt.Sprintf("%t", *dispute.Upheld)
	}

	payload := es.CreateEventPayloadWithMetadata(
		config.EventDisputeResolved,
		dispute.CaseID,
		"Dispute",
		actorID,
		dispute,
		metadata,
	)

	return es.EmitEvent(stub, config.EventDisputeResolved, payload)
}

// EmitReputationAnalyzed emits an analysis completion event
func (es *EventService) EmitReputationAnalyzed(stub shim.ChaincodeStubInterface, insight *domain.ReputationInsight, actorID string) error {
	metadata := map[string]string{
		"overallScore":     fmt.Sprintf("%d", insight.OverallScore),
		"trend":            string(insight.Trend),
		"reliability":      fmt.Sprintf("%d", insight.Reliability),
		"attestationCount": fmt.Sprintf("%d", insight.AttestationCount),
	}

	payload := es.CreateEventPayloadWithMetadata(
		config.EventReputationAnalyzed,
		insight.SubjectID,
		"ReputationInsight",
		actorID,
		insight,
		metadata,
	)

	return es.EmitEvent(stub, config.EventReputationAnalyzed, payload)
}
