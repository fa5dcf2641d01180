package chaincode

import (
	"fmt"

	"github.com/hyperledger/fabric-chaincode-go/shim"

	"github.com/blockchain-trust-platform/fabric-chaincode/identity/handlers"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/services"
)

// Router handles function routing for the identity chaincode
type Router struct {
	handlers map[string]func(shim.ChaincodeStubInterface, []string) ([]byte, error)
}

// NewRouter creates a new router with all handler mappings
func NewRouter() *Router {
	identityHandler := handlers.NewIdentityHandler()
	lifecycleHandler := handlers.NewLifecycleHandler()
	delegationHandler := handlers.NewDelegationHandler()
	methodHandler := handlers.NewMethodHandler()
	resolveHandler := handlers.NewResolveHandler()
	actorService := services.NewActorService()

	return &Router{
		handlers: map[string]func(shim.ChaincodeStubInterface, []string) ([]byte, error){
			// Identity management functions
			"RegisterIdentity":          identityHandler.RegisterIdentity,
			"UpdateIdentity":            identityHandler.UpdateIdentity,
			"GetIdentity":               identityHandler.GetIdentity,
			"GetIdentityHistory":        identityHandler.GetIdentityHistory,
			"GetIdentitiesByController": identityHandler.GetIdentitiesByController,

			// Lifecycle functions
			"DeactivateIdentity": lifecycleHandler.DeactivateIdentity,
			"ReactivateIdentity": lifecycleHandler.ReactivateIdentity,
			"RevokeIdentity":     lifecycleHandler.RevokeIdentity,
			"TransferControl":    lifecycleHandler.TransferControl,
			"RecoverIdentity":    lifecycleHandler.RecoverIdentity,

			// Delegation functions
			"DelegateControl":  delegationHandler.DelegateControl,
			"RevokeDelegation": delegationHandler.RevokeDelegation,

			// Verification method and service functions
			"AddVerificationMethod":    methodHandler.AddVerificationMethod,
			"RemoveVerificationMethod": methodHandler.RemoveVerificationMethod,
			"AddService":               methodHandler.AddService,
			"RemoveService":            methodHandler.RemoveService,

			// Resolver functions
			"ResolveIdentity":    resolveHandler.ResolveIdentity,
			"ResolveIdentityUrl": resolveHandler.ResolveIdentityUrl,
			"VerifySignature":    resolveHandler.VerifySignature,

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
