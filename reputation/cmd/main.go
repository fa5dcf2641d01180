package main

import (
	"log"

	"github.com/hyperledger/fabric-chaincode-go/shim"

	"github.com/blockchain-trust-platform/fabric-chaincode/reputation/chaincode"
)

func main() {
	reputationChaincode := chaincode.NewReputationContract()

	if err := shim.Start(reputationChaincode); err != nil {
		log.Fatalf("Error starting Reputation chaincode: %v", err)
	}
}
