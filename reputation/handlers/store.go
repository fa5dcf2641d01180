package handlers

import (
	"fmt"

	"github.com/hyperledger/fabric-chaincode-go/shim"

	"github.com/blockchain-trust-platform/fabric-chaincode/reputation/domain"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/config"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/errors"
)

func disputeStateKey(caseID string) string {
	return fmt.Sprintf("%s_%s", config.DisputePrefix, caseID)
}

func loadDisputeCase(stub shim.ChaincodeStubInterface, caseID string) (*domain.DisputeCase, error) {
	var dispute domain.DisputeCase
	if err := shared.GetStateAsJSON(stub, disputeStateKey(caseID), &dispute); err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewNotFound("dispute case %s not found", caseID)
		}
		return nil, err
	}
	return &dispute, nil
}

func storeDisputeCase(stub shim.ChaincodeStubInterface, dispute *domain.DisputeCase) error {
	if err := shared.PutStateAsJSON(stub, disputeStateKey(dispute.CaseID), dispute); err != nil {
		return fmt.Errorf("failed to store dispute case %s: %v", dispute.CaseID, err)
	}
	return nil
}

func recordAttestationHistory(stub shim.ChaincodeStubInterface, attestationID, changeType, fieldName, previousValue, newValue, actorID string) error {
	return shared.RecordHistoryEntry(stub, attestationID, "Attestation", changeType, fieldName, previousValue, newValue, actorID)
}

func recordDisputeHistory(stub shim.ChaincodeStubInterface, caseID, changeType, fieldName, previousValue, newValue, actorID string) error {
	return shared.RecordHistoryEntry(stub, caseID, "Dispute", changeType, fieldName, previousValue, newValue, actorID)
}

func recordInsightHistory(stub shim.ChaincodeStubInterface, subjectID, changeType, fieldName, previousValue, newValue, actorID string) error {
	return shared.RecordHistoryEntry(stub, subjectID, "ReputationInsight", changeType, fieldName, previousValue, newValue, actorID)
}
