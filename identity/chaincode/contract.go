package chaincode

import (
	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-protos-go/peer"

	"github.com/blockchain-trust-platform/fabric-chaincode/shared/chaincode"
)

// IdentityContract implements the chaincode interface
type IdentityContract struct {
	chaincode.BaseContract
}

// NewIdentityContract creates a new identity contract
func NewIdentityContract() *IdentityContract {
	return &IdentityContract{
		BaseContract: chaincode.BaseContract{Name: "identity"},
	}
}

// Invoke handles chaincode invocations
func (cc *IdentityContract) Invoke(stub shim.ChaincodeStubInterface) peer.Response {
	router := NewRouter()
	return cc.InvokeWithRouter(stub, router)
}
