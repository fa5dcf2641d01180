package interfaces

import "github.com/hyperledger/fabric-chaincode-go/shim"

// PersistenceService defines common persistence operations
type PersistenceService interface {
	// Basic CRUD operations
	Get(stub shim.ChaincodeStubInterface, key string, result interface{}) error
	Put(stub shim.ChaincodeStubInterface, key string, value interface{}) error
	Delete(stub shim.ChaincodeStubInterface, key string) error
	Exists(stub shim.ChaincodeStubInterface, key string) (bool, error)

	// Query operations
	GetByCompositeKey(stub shim.ChaincodeStubInterface, objectType string, attributes []string, result interface{}) error
	GetByPartialCompositeKey(stub shim.ChaincodeStubInterface, objectType string, attributes []string) ([][]byte, error)
	CreateCompositeKey(stub shim.ChaincodeStubInterface, objectType string, attributes []string) (string, error)
	SplitCompositeKey(stub shim.ChaincodeStubInterface, compositeKey string) (string, []string, error)

	// History operations
	GetHistory(stub shim.ChaincodeStubInterface, key string) ([]HistoryEntry, error)
}
