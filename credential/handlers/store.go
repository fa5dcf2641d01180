package handlers

import (
	"fmt"

	"github.com/hyperledger/fabric-chaincode-go/shim"

	"github.com/blockchain-trust-platform/fabric-chaincode/credential/domain"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/config"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/errors"
)

func credentialStateKey(credentialHash string) string {
	return fmt.Sprintf("%s_%s", config.CredentialPrefix, credentialHash)
}

func issuerTrustKey(issuerID string) string {
	return fmt.Sprintf("%s_%s", config.IssuerTrustPrefix, issuerID)
}

func loadCredentialRecord(stub shim.ChaincodeStubInterface, credentialHash string) (*domain.CredentialRecord, error) {
	var record domain.CredentialRecord
	if err := shared.GetStateAsJSON(stub, credentialStateKey(credentialHash), &record); err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewNotFound("credential %s not anchored", credentialHash)
		}
		return nil, err
	}
	return &record, nil
}

func storeCredentialRecord(stub shim.ChaincodeStubInterface, record *domain.CredentialRecord) error {
	if err := shared.PutStateAsJSON(stub, credentialStateKey(record.CredentialHash), record); err != nil {
		return fmt.Errorf("failed to store credential %s: %v", record.CredentialHash, err)
	}
	return nil
}

func recordCredentialHistory(stub shim.ChaincodeStubInterface, credentialHash, changeType, fieldName, previousValue, newValue, actorID string) error {
	return shared.RecordHistoryEntry(stub, credentialHash, "Credential", changeType, fieldName, previousValue, newValue, actorID)
}
