package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hyperledger/fabric-chaincode-go/shim"

	"github.com/blockchain-trust-platform/fabric-chaincode/shared/config"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/errors"
)

// FabricReputationRepository reads and writes the reputation registry's
// state: attestations, running aggregates, the attester reliability cache
// and analysis insights. It implements AttestationSource, ReliabilityStore
// and InsightStore for the analyzer and backs the registry handlers.
type FabricReputationRepository struct{}

// NewFabricReputationRepository creates a repository over the caller's stub
func NewFabricReputationRepository() *FabricReputationRepository {
	return &FabricReputationRepository{}
}

// Attestation loads a recorded attestation by id.
func (r *FabricReputationRepository) Attestation(stub shim.ChaincodeStubInterface, attestationID string) (*AttestationRecord, error) {
	data, err := stub.GetState(fmt.Sprintf("%s_%s", config.AttestationPrefix, attestationID))
	if err != nil {
		return nil, fmt.Errorf("failed to read attestation %s: %v", attestationID, err)
	}
	if data == nil {
		return nil, errors.NewNotFound("attestation %s not found", attestationID)
	}

	var record AttestationRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode attestation %s: %v", attestationID, err)
	}
	return &record, nil
}

// SaveAttestation writes an attestation record.
func (r *FabricReputationRepository) SaveAttestation(stub shim.ChaincodeStubInterface, record *AttestationRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal attestation %s: %v", record.AttestationID, err)
	}
	if err := stub.PutState(fmt.Sprintf("%s_%s", config.AttestationPrefix, record.AttestationID), data); err != nil {
		return fmt.Errorf("failed to store attestation %s: %v", record.AttestationID, err)
	}
	return nil
}

// SubjectAttestations lists the attestations made about a subject, in
// index order.
func (r *FabricReputationRepository) SubjectAttestations(stub shim.ChaincodeStubInterface, subjectID string) ([]*AttestationRecord, error) {
	return r.attestationsByIndex(stub, config.AttestationSubjectIndex, subjectID)
}

// AttesterAttestations lists the attestations a party has made, in index
// order.
func (r *FabricReputationRepository) AttesterAttestations(stub shim.ChaincodeStubInterface, attesterID string) ([]*AttestationRecord, error) {
	return r.attestationsByIndex(stub, config.AttestationAttesterIndex, attesterID)
}

// CategoryAttestations lists the attestations made about a subject within
// one category, in index order.
func (r *FabricReputationRepository) CategoryAttestations(stub shim.ChaincodeStubInterface, subjectID, category string) ([]*AttestationRecord, error) {
	return r.attestationsByIndex(stub, config.AttestationCategoryIndex, subjectID, category)
}

func (r *FabricReputationRepository) attestationsByIndex(stub shim.ChaincodeStubInterface, indexName string, attributes ...string) ([]*AttestationRecord, error) {
	iterator, err := stub.GetStateByPartialCompositeKey(indexName, attributes)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s index: %v", indexName, err)
	}
	defer iterator.Close()

	var records []*AttestationRecord
	for iterator.HasNext() {
		response, err := iterator.Next()
		if err != nil {
			return nil, fmt.Errorf("failed to iterate %s index: %v", indexName, err)
		}

		record, err := r.Attestation(stub, string(response.Value))
		if err != nil {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

func (r *FabricReputationRepository) aggregateKey(stub shim.ChaincodeStubInterface, subjectID, category string) (string, error) {
	if category == "" {
		return fmt.Sprintf("%s_%s", config.AggregatePrefix, subjectID), nil
	}
	return stub.CreateCompositeKey(config.CategoryAggregateIndex, []string{subjectID, category})
}

// SubjectAggregate loads the subject's overall running aggregate.
func (r *FabricReputationRepository) SubjectAggregate(stub shim.ChaincodeStubInterface, subjectID string) (*SubjectAggregate, error) {
	return r.loadAggregate(stub, subjectID, "")
}

// CategoryAggregate loads the subject's running aggregate for one category.
func (r *FabricReputationRepository) CategoryAggregate(stub shim.ChaincodeStubInterface, subjectID, category string) (*SubjectAggregate, error) {
	return r.loadAggregate(stub, subjectID, category)
}

func (r *FabricReputationRepository) loadAggregate(stub shim.ChaincodeStubInterface, subjectID, category string) (*SubjectAggregate, error) {
	key, err := r.aggregateKey(stub, subjectID, category)
	if err != nil {
		return nil, fmt.Errorf("failed to build aggregate key for %s: %v", subjectID, err)
	}

	data, err := stub.GetState(key)
	if err != nil {
		return nil, fmt.Errorf("failed to read aggregate for %s: %v", subjectID, err)
	}
	if data == nil {
		return nil, errors.NewNotFound("no aggregate recorded for subject %s", subjectID)
	}

	var aggregate SubjectAggregate
	if err := json.Unmarshal(data, &aggregate); err != nil {
		return nil, fmt.Errorf("failed to decode aggregate for %s: %v", subjectID, err)
	}
	return &aggregate, nil
}

// SaveAggregate writes an aggregate under its overall or category key,
// depending on the Category field.
func (r *FabricReputationRepository) SaveAggregate(stub shim.ChaincodeStubInterface, aggregate *SubjectAggregate) error {
	key, err := r.aggregateKey(stub, aggregate.SubjectID, aggregate.Category)
	if err != nil {
		return fmt.Errorf("failed to build aggregate key for %s: %v", aggregate.SubjectID, err)
	}

	data, err := json.Marshal(aggregate)
	if err != nil {
		return fmt.Errorf("failed to marshal aggregate for %s: %v", aggregate.SubjectID, err)
	}
	if err := stub.PutState(key, data); err != nil {
		return fmt.Errorf("failed to store aggregate for %s: %v", aggregate.SubjectID, err)
	}
	return nil
}

// CategoryAggregates lists all category aggregates recorded for a subject.
func (r *FabricReputationRepository) CategoryAggregates(stub shim.ChaincodeStubInterface, subjectID string) ([]*SubjectAggregate, error) {
	iterator, err := stub.GetStateByPartialCompositeKey(config.CategoryAggregateIndex, []string{subjectID})
	if err != nil {
		return nil, fmt.Errorf("failed to query category aggregates for %s: %v", subjectID, err)
	}
	defer iterator.Close()

	var aggregates []*SubjectAggregate
	for iterator.HasNext() {
		response, err := iterator.Next()
		if err != nil {
			return nil, fmt.Errorf("failed to iterate category aggregates for %s: %v", subjectID, err)
		}

		var aggregate SubjectAggregate
		if err := json.Unmarshal(response.Value, &aggregate); err != nil {
			continue
		}
		aggregates = append(aggregates, &aggregate)
	}
	return aggregates, nil
}

// Reliability loads the cached reliability for an attester.
func (r *FabricReputationRepository) Reliability(stub shim.ChaincodeStubInterface, attesterID string) (*AttesterReliability, error) {
	data, err := stub.GetState(fmt.Sprintf("%s_%s", config.ReliabilityPrefix, attesterID))
	if err != nil {
		return nil, fmt.Errorf("failed to read reliability for %s: %v", attesterID, err)
	}
	if data == nil {
		return nil, errors.NewNotFound("no reliability cached for attester %s", attesterID)
	}

	var reliability AttesterReliability
	if err := json.Unmarshal(data, &reliability); err != nil {
		return nil, fmt.Errorf("failed to decode reliability for %s: %v", attesterID, err)
	}
	return &reliability, nil
}

// SaveReliability caches an attester's reliability.
func (r *FabricReputationRepository) SaveReliability(stub shim.ChaincodeStubInterface, reliability *AttesterReliability) error {
	data, err := json.Marshal(reliability)
	if err != nil {
		return fmt.Errorf("failed to marshal reliability for %s: %v", reliability.AttesterID, err)
	}
	if err := stub.PutState(fmt.Sprintf("%s_%s", config.ReliabilityPrefix, reliability.AttesterID), data); err != nil {
		return fmt.Errorf("failed to store reliability for %s: %v", reliability.AttesterID, err)
	}
	return nil
}

// Insight loads the last persisted analysis for a subject.
func (r *FabricReputationRepository) Insight(stub shim.ChaincodeStubInterface, subjectID string) (*ReputationInsight, error) {
	data, err := stub.GetState(fmt.Sprintf("%s_%s", config.InsightPrefix, subjectID))
	if err != nil {
		return nil, fmt.Errorf("failed to read insight for %s: %v", subjectID, err)
	}
	if data == nil {
		return nil, errors.NewNotFound("subject %s has not been analyzed", subjectID)
	}

	var insight ReputationInsight
	if err := json.Unmarshal(data, &insight); err != nil {
		return nil, fmt.Errorf("failed to decode insight for %s: %v", subjectID, err)
	}
	return &insight, nil
}

// SaveInsight writes the analysis result for a subject.
func (r *FabricReputationRepository) SaveInsight(stub shim.ChaincodeStubInterface, insight *ReputationInsight) error {
	data, err := json.Marshal(insight)
	if err != nil {
		return fmt.Errorf("failed to marshal insight for %s: %v", insight.SubjectID, err)
	}
	if err := stub.PutState(fmt.Sprintf("%s_%s", config.InsightPrefix, insight.SubjectID), data); err != nil {
		return fmt.Errorf("failed to store insight for %s: %v", insight.SubjectID, err)
	}
	return nil
}

// snapshotSortKey formats a timestamp so snapshot composite keys sort
// chronologically. RFC3339 trims trailing fractional zeros and would break
// the ordering, zero-padded nanoseconds do not.
func snapshotSortKey(timestamp time.Time) string {
	return fmt.Sprintf("%020d", timestamp.UnixNano())
}

// SaveSnapshot appends a score snapshot to the subject's history.
func (r *FabricReputationRepository) SaveSnapshot(stub shim.ChaincodeStubInterface, snapshot *ScoreSnapshot) error {
	key, err := stub.CreateCompositeKey(config.InsightHistoryIndex, []string{snapshot.SubjectID, snapshotSortKey(snapshot.Timestamp)})
	if err != nil {
		return fmt.Errorf("failed to create snapshot key for %s: %v", snapshot.SubjectID, err)
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot for %s: %v", snapshot.SubjectID, err)
	}
	if err := stub.PutState(key, data); err != nil {
		return fmt.Errorf("failed to store snapshot for %s: %v", snapshot.SubjectID, err)
	}
	return nil
}

// Snapshots lists a subject's score history oldest first.
func (r *FabricReputationRepository) Snapshots(stub shim.ChaincodeStubInterface, subjectID string) ([]*ScoreSnapshot, error) {
	iterator, err := stub.GetStateByPartialCompositeKey(config.InsightHistoryIndex, []string{subjectID})
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots for %s: %v", subjectID, err)
	}
	defer iterator.Close()

	var snapshots []*ScoreSnapshot
	for iterator.HasNext() {
		response, err := iterator.Next()
		if err != nil {
			return nil, fmt.Errorf("failed to iterate snapshots for %s: %v", subjectID, err)
		}

		var snapshot ScoreSnapshot
		if err := json.Unmarshal(response.Value, &snapshot); err != nil {
			continue
		}
		snapshots = append(snapshots, &snapshot)
	}
	return snapshots, nil
}

// SnapshotBefore returns the most recent snapshot taken at or before the
// cutoff, or nil when the history holds nothing that old.
func (r *FabricReputationRepository) SnapshotBefore(stub shim.ChaincodeStubInterface, subjectID string, cutoff time.Time) (*ScoreSnapshot, error) {
	snapshots, err := r.Snapshots(stub, subjectID)
	if err != nil {
		return nil, err
	}

	var baseline *ScoreSnapshot
	for _, snapshot := range snapshots {
		if snapshot.Timestamp.After(cutoff) {
			break
		}
		baseline = snapshot
	}
	return baseline, nil
}
