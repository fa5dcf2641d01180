package chaincode

import (
	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-protos-go/peer"

	"github.com/blockchain-trust-platform/fabric-chaincode/shared/chaincode"
)

// CredentialContract implements the chaincode interface
type CredentialContract struct {
	chaincode.BaseContract
}

// NewCredentialContract creates a new credential contract
func NewCredentialContract() *CredentialContract {
	return &CredentialContract{
		BaseContract: chaincode.BaseContract{Name: "credential"},
	}
}

// Invoke handles chaincode invocations
func (cc *CredentialContract) Invoke(stub shim.ChaincodeStubInterface) peer.Response {
	router := NewRouter()
	return cc.InvokeWithRouter(stub, router)
}
