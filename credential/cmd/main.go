package main

import (
	"log"

	"github.com/hyperledger/fabric-chaincode-go/shim"

	"github.com/blockchain-trust-platform/fabric-chaincode/credential/chaincode"
)

func main() {
	credentialChaincode := chaincode.NewCredentialContract()

	if err := shim.Start(credentialChaincode); err != nil {
		log.Fatalf("Error starting Credential chaincode: %v", err)
	}
}
