package main

import (
	"log"

	"github.com/hyperledger/fabric-chaincode-go/shim"

	"github.com/blockchain-trust-platform/fabric-chaincode/identity/chaincode"
)

func main() {
	identityChaincode := chaincode.NewIdentityContract()

	if err := shim.Start(identityChaincode); err != nil {
		log.Fatalf("Error starting Identity chaincode: %v", err)
	}
}
