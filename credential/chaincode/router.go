package chaincode

import (
	"fmt"

	"github.com/hyperledger/fabric-chaincode-go/shim"

	"github.com/blockchain-trust-platform/fabric-chaincode/credential/handlers"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/services"
)

// Router handles function routing for the credential chaincode
type Router struct {
	handlers map[string]func(shim.ChaincodeStubInterface, []string) ([]byte, error)
}

// NewRouter creates a new router with all handler mappings
func NewRouter() *Router {
	credentialHandler := handlers.NewCredentialHandler()
	statusHandler := handlers.NewStatusHandler()
	verifyHandler := handlers.NewVerifyHandler()
	trustHandler := handlers.NewTrustHandler()
	actorService := services.NewActorService()

	return &Router{
		handlers: map[string]func(shim.ChaincodeStubInterface, []string) ([]byte, error){
			// Anchoring and query functions
			"AnchorCredential":        credentialHandler.AnchorCredential,
			"GetCredential":           credentialHandler.GetCredential,
			"GetCredentialHistory":    credentialHandler.GetCredentialHistory,
			"GetCredentialsByIssuer":  credentialHandler.GetCredentialsByIssuer,
			"GetCredentialsBySubject": credentialHandler.GetCredentialsBySubject,
			"GetCredentialsBySchema":  credentialHandler.GetCredentialsBySchema,

			// Status lifecycle functions
			"RevokeCredential":    statusHandler.RevokeCredential,
			"SuspendCredential":   statusHandler.SuspendCredential,
			"ReinstateCredential": statusHandler.ReinstateCredential,
			"TouchCredential":     statusHandler.TouchCredential,
			"VerifyCredential":    statusHandler.VerifyCredential,

			// Verification functions
			"VerifyCredentialFull":       verifyHandler.VerifyCredentialFull,
			"VerifyCredentialWithPolicy": verifyHandler.VerifyCredentialWithPolicy,
			"VerifyPresentation":         verifyHandler.VerifyPresentation,
			"BatchVerifyCredentials":     verifyHandler.BatchVerifyCredentials,

			// Issuer trust registry functions
			"SetIssuerTrust": trustHandler.SetIssuerTrust,
			"GetIssuerTrust": trustHandler.GetIssuerTrust,

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
