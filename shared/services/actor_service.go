package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hyperledger/fabric-chaincode-go/shim"

	"github.com/blockchain-trust-platform/fabric-chaincode/shared"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/config"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/errors"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/interfaces"
)

// authorityMarkerKey stores the actor ID of the first registry authority.
// Its presence ends the bootstrap window: after it is set, actor management
// requires the MANAGE_ACTORS permission.
const authorityMarkerKey = "ACTOR_AUTHORITY"

// ActorService manages the actors that privileged operations are checked
// against. Each chaincode carries its own actor registry because chaincodes
// do not share world state.
type ActorService struct {
	persistence  interfaces.PersistenceService
	eventService *BaseEventService
}

// NewActorService creates a new actor service
func NewActorService() *ActorService {
	return &ActorService{
		persistence:  NewPersistenceService(),
		eventService: NewBaseEventService(),
	}
}

// ActorRegistrationRequest carries the fields for registering an actor
type ActorRegistrationRequest struct {
	ActorID      string           `json:"actorID"`
	ActorType    shared.ActorType `json:"actorType"`
	ActorName    string           `json:"actorName"`
	Role         shared.ActorRole `json:"role"`
	RegisteredBy string           `json:"registeredBy"`
}

// RegisterActor registers an actor with the permissions of its role.
// The first registration on an empty ledger must create the registry
// authority; every later registration requires MANAGE_ACTORS.
func (s *ActorService) RegisterActor(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	var req ActorRegistrationRequest
	if err := json.Unmarshal([]byte(args[0]), &req); err != nil {
		return nil, errors.NewValidation("failed to parse actor registration request: %v", err)
	}

	if err := shared.ValidateRequired(map[string]string{
		"actorID":   req.ActorID,
		"actorName": req.ActorName,
		"role":      string(req.Role),
	}); err != nil {
		return nil, err
	}

	bootstrapped, err := s.persistence.Exists(stub, authorityMarkerKey)
	if err != nil {
		return nil, err
	}

	if bootstrapped {
		if _, err := shared.ValidateActorAccess(stub, req.RegisteredBy, shared.PermissionManageActors); err != nil {
			return nil, err
		}
	} else if req.Role != shared.RoleRegistryAuthority {
		return nil, errors.NewValidation("first registered actor must hold the %s role", shared.RoleRegistryAuthority)
	}

	actorKey := fmt.Sprintf("%s_%s", config.ActorPrefix, req.ActorID)
	exists, err := s.persistence.Exists(stub, actorKey)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.NewConflict("actor %s already exists", req.ActorID)
	}

	permissions := shared.GetRolePermissions(req.Role)
	if len(permissions) == 0 {
		return nil, errors.NewValidation("unknown actor role: %s", req.Role)
	}

	blockchainIdentity, err := shared.GetCallerIdentity(stub)
	if err != nil {
		return nil, err
	}

	actor := &shared.Actor{
		ActorID:            req.ActorID,
		ActorType:          req.ActorType,
		ActorName:          req.ActorName,
		Role:               req.Role,
		BlockchainIdentity: blockchainIdentity,
		Permissions:        permissions,
		IsActive:           true,
		CreatedDate:        time.Now(),
		LastUpdated:        time.Now(),
	}

	if err := s.persistence.Put(stub, actorKey, actor); err != nil {
		return nil, err
	}

	if !bootstrapped {
		if err := stub.PutState(authorityMarkerKey, []byte(req.ActorID)); err != nil {
			return nil, fmt.Errorf("failed to record authority marker: %v", err)
		}
	}

	payload := s.eventService.CreateEventPayload(config.EventActorRegistered, req.ActorID, "Actor", req.RegisteredBy, actor)
	if err := s.eventService.EmitEvent(stub, config.EventActorRegistered, payload); err != nil {
		return nil, err
	}

	return json.Marshal(actor)
}

// GetActor retrieves an actor by ID
func (s *ActorService) GetActor(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	actorKey := fmt.Sprintf("%s_%s", config.ActorPrefix, args[0])
	var actor shared.Actor
	if err := s.persistence.Get(stub, actorKey, &actor); err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewNotFound("actor %s not found", args[0])
		}
		return nil, err
	}

	return json.Marshal(&actor)
}

// DeactivateActor disables an actor. Deactivated actors fail every
// permission check until reactivated by a fresh registration.
func (s *ActorService) DeactivateActor(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	var req struct {
		ActorID       string `json:"actorID"`
		DeactivatedBy string `json:"deactivatedBy"`
	}
	if err := json.Unmarshal([]byte(args[0]), &req); err != nil {
		return nil, errors.NewValidation("failed to parse actor deactivation request: %v", err)
	}

	if _, err := shared.ValidateActorAccess(stub, req.DeactivatedBy, shared.PermissionManageActors); err != nil {
		return nil, err
	}
	if req.ActorID == req.DeactivatedBy {
		return nil, errors.NewValidation("actor cannot deactivate itself")
	}

	actorKey := fmt.Sprintf("%s_%s", config.ActorPrefix, req.ActorID)
	var actor shared.Actor
	if err := s.persistence.Get(stub, actorKey, &actor); err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewNotFound("actor %s not found", req.ActorID)
		}
		return nil, err
	}

	actor.IsActive = false
	actor.LastUpdated = time.Now()

	if err := s.persistence.Put(stub, actorKey, &actor); err != nil {
		return nil, err
	}

	return json.Marshal(&actor)
}
