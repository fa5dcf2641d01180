package chaincode

import (
	"fmt"

	"github.com/hyperledger/fabric-chaincode-go/shim"

	"github.com/blockchain-trust-platform/fabric-chaincode/reputation/handlers"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/services"
)

// Router handles function routing for the reputation chaincode
type Router struct {
	handlers map[string]func(shim.ChaincodeStubInterface, []string) ([]byte, error)
}

// NewRouter creates a new router with all handler mappings
func NewRouter() *Router {
	attestationHandler := handlers.NewAttestationHandler()
	lifecycleHandler := handlers.NewLifecycleHandler()
	disputeHandler := handlers.NewDisputeHandler()
	insightHandler := handlers.NewInsightHandler()
	actorService := services.NewActorService()

	return &Router{
		handlers: map[string]func(shim.ChaincodeStubInterface, []string) ([]byte, error){
			// Recording and query functions
			"RecordAttestation":         attestationHandler.RecordAttestation,
			"GetAttestation":            attestationHandler.GetAttestation,
			"GetAttestationHistory":     attestationHandler.GetAttestationHistory,
			"GetAttestationsBySubject":  attestationHandler.GetAttestationsBySubject,
			"GetAttestationsByAttester": attestationHandler.GetAttestationsByAttester,
			"GetAttestationsByCategory": attestationHandler.GetAttestationsByCategory,
			"GetSubjectAggregate":       attestationHandler.GetSubjectAggregate,

			// Lifecycle functions
			"RevokeAttestation": lifecycleHandler.RevokeAttestation,
			"TouchAttestation":  lifecycleHandler.TouchAttestation,

			// Dispute functions
			"DisputeAttestation":       disputeHandler.DisputeAttestation,
			"ResolveDispute":           disputeHandler.ResolveDispute,
			"GetDisputeCase":           disputeHandler.GetDisputeCase,
			"GetDisputesByAttestation": disputeHandler.GetDisputesByAttestation,

			// Analyzer functions
			"AnalyzeReputation":     insightHandler.AnalyzeReputation,
			"GetReputationInsights": insightHandler.GetReputationInsights,
			"GetReputationHistory":  insightHandler.GetReputationHistory,

			// Actor registry functions
			"RegisterActor":   actorService.RegisterActor,
			"GetActor":        actorService.GetActor,
			"DeactivateActor": actorService.DeactivateActor,
		},
	}
}

// Route routes the function call to the appropriate handler
func (r *Router) Route(stub shim.ChaincodeStubInterface, function string, args []string) ([]byte, error) {
	handler, exists := r.handlers[function]
	if !exists {
		return nil, fmt.Errorf("function %s not found", function)
	}

	return handler(stub, args)
}
