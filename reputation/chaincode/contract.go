package chaincode

import (
	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-protos-go/peer"

	"github.com/blockchain-trust-platform/fabric-chaincode/shared/chaincode"
)

// ReputationContract implements the chaincode interface
type ReputationContract struct {
	chaincode.BaseContract
}

// NewReputationContract creates a new reputation contract
func NewReputationContract() *ReputationContract {
	return &ReputationContract{
		BaseContract: chaincode.BaseContract{Name: "reputation"},
	}
}

// Invoke handles chaincode invocations
func (cc *ReputationContract) Invoke(stub shim.ChaincodeStubInterface) peer.Response {
	router := NewRouter()
	return cc.InvokeWithRouter(stub, router)
}
