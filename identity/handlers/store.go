package handlers

import (
	"fmt"

	"github.com/hyperledger/fabric-chaincode-go/shim"

	"github.com/blockchain-trust-platform/fabric-chaincode/identity/domain"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/config"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/errors"
)

// identityResolver caches resolved records across invocations. Routers build
// fresh handlers per invoke, so the cache lives at package scope. Every
// mutation handler invalidates the entry it touched.
var identityResolver = domain.NewResolver()

func identityStateKey(identityID string) string {
	return fmt.Sprintf("%s_%s", config.IdentityPrefix, identityID)
}

// loadIdentityRecord fetches a record straight from the store, bypassing
// the resolver cache. Mutation paths must not act on cached state.
func loadIdentityRecord(stub shim.ChaincodeStubInterface, identityID string) (*domain.IdentityRecord, error) {
	var record domain.IdentityRecord
	if err := shared.GetStateAsJSON(stub, identityStateKey(identityID), &record); err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewNotFound("identity %s not found", identityID)
		}
		return nil, err
	}
	return &record, nil
}

func storeIdentityRecord(stub shim.ChaincodeStubInterface, record *domain.IdentityRecord) error {
	if err := shared.PutStateAsJSON(stub, identityStateKey(record.IdentityID), record); err != nil {
		return fmt.Errorf("failed to store identity %s: %v", record.IdentityID, err)
	}
	identityResolver.Invalidate(record.IdentityID)
	return nil
}

func recordIdentityHistory(stub shim.ChaincodeStubInterface, identityID, changeType, fieldName, previousValue, newValue, actorID string) error {
	return shared.RecordHistoryEntry(stub, identityID, "Identity", changeType, fieldName, previousValue, newValue, actorID)
}
