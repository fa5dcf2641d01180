package shared

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hyperledger/fabric-chaincode-go/shim"

	"github.com/blockchain-trust-platform/fabric-chaincode/shared/errors"
)

// GenerateID creates a unique identifier using timestamp and random component
func GenerateID(prefix string) string {
	timestamp := time.Now().UnixNano()
	// Add a small random component to ensure uniqueness even with same timestamp
	hash := sha256.Sum256([]byte(fmt.Sprintf("%d_%d", timestamp, timestamp%1000)))
	hashStr := hex.EncodeToString(hash[:4]) // Use first 4 bytes for shorter ID
	return fmt.Sprintf("%s_%d_%s", prefix, timestamp, hashStr)
}

// HashString creates a SHA256 hash of the input string
func HashString(input string) string {
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])
}

// ValidateRequired checks if required fields are not empty
func ValidateRequired(fields map[string]string) error {
	for fieldName, value := range fields {
		if value == "" {
			return errors.NewValidation("required field '%s' is empty", fieldName)
		}
	}
	return nil
}

// ValidateStringLength checks if string length is within bounds
func ValidateStringLength(value string, minLength, maxLength int, fieldName string) error {
	length := len(value)
	if length < minLength {
		return errors.NewValidation("%s must be at least %d characters long", fieldName, minLength)
	}
	if length > maxLength {
		return errors.NewValidation("%s must be at most %d characters long", fieldName, maxLength)
	}
	return nil
}

// GetStateAsJSON retrieves and unmarshals JSON data from the ledger
func GetStateAsJSON(stub shim.ChaincodeStubInterface, key string, result interface{}) error {
	data, err := stub.GetState(key)
	if err != nil {
		return fmt.Errorf("failed to get state for key %s: %v", key, err)
	}
	if data == nil {
		return errors.NewNotFound("no data found for key %s", key)
	}
	return json.Unmarshal(data, result)
}

// PutStateAsJSON marshals and stores JSON data to the ledger
func PutStateAsJSON(stub shim.ChaincodeStubInterface, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %v", err)
	}
	return stub.PutState(key, data)
}

// ============================================================================
// ACCESS CONTROL UTILITIES
// ============================================================================

// ActorType represents the type of actor in the system
type ActorType string

const (
	ActorTypeIndividual   ActorType = "Individual"
	ActorTypeOrganization ActorType = "Organization"
	ActorTypeSystem       ActorType = "System"
)

// ActorRole represents the role of an actor
type ActorRole string

const (
	RoleIdentityOwner     ActorRole = "Identity_Owner"
	RoleCredentialIssuer  ActorRole = "Credential_Issuer"
	RoleAttester          ActorRole = "Attester"
	RoleRegistryAuthority ActorRole = "Registry_Authority"
	RoleAuditor           ActorRole = "Auditor"
)

// Permission represents a specific permission
type Permission string

const (
	PermissionRegisterIdentity  Permission = "REGISTER_IDENTITY"
	PermissionAnchorCredential  Permission = "ANCHOR_CREDENTIAL"
	PermissionRecordAttestation Permission = "RECORD_ATTESTATION"
	PermissionResolveDispute    Permission = "RESOLVE_DISPUTE"
	PermissionManageIssuerTrust Permission = "MANAGE_ISSUER_TRUST"
	PermissionManageActors      Permission = "MANAGE_ACTORS"
	PermissionAnalyzeReputation Permission = "ANALYZE_REPUTATION"
	PermissionViewRegistry      Permission = "VIEW_REGISTRY"
)

// Actor represents an actor in the system
type Actor struct {
	ActorID            string       `json:"actorID"`
	ActorType          ActorType    `json:"actorType"`
	ActorName          string       `json:"actorName"`
	Role               ActorRole    `json:"role"`
	BlockchainIdentity string       `json:"blockchainIdentity"`
	Permissions        []Permission `json:"permissions"`
	IsActive           bool         `json:"isActive"`
	CreatedDate        time.Time    `json:"createdDate"`
	LastUpdated        time.Time    `json:"lastUpdated"`
}

// GetRolePermissions returns default permissions for a given role
func GetRolePermissions(role ActorRole) []Permission {
	rolePermissions := map[ActorRole][]Permission{
		RoleIdentityOwner: {
			PermissionRegisterIdentity, PermissionViewRegistry,
		},
		RoleCredentialIssuer: {
			PermissionRegisterIdentity, PermissionAnchorCredential,
			PermissionAnalyzeReputation, PermissionViewRegistry,
		},
		RoleAttester: {
			PermissionRegisterIdentity, PermissionRecordAttestation,
			PermissionAnalyzeReputation, PermissionViewRegistry,
		},
		RoleRegistryAuthority: {
			PermissionRegisterIdentity, PermissionAnchorCredential,
			PermissionRecordAttestation, PermissionResolveDispute,
			PermissionManageIssuerTrust, PermissionManageActors,
			PermissionAnalyzeReputation, PermissionViewRegistry,
		},
		RoleAuditor: {
			PermissionViewRegistry,
		},
	}

	if permissions, exists := rolePermissions[role]; exists {
		return permissions
	}
	return []Permission{}
}

// HasPermission checks if an actor has a specific permission
func (a *Actor) HasPermission(permission Permission) bool {
	if !a.IsActive {
		return false
	}

	for _, p := range a.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// ValidateActorAccess validates if an actor can perform an action
func ValidateActorAccess(stub shim.ChaincodeStubInterface, actorID string, requiredPermission Permission) (*Actor, error) {
	var actor Actor
	if err := GetStateAsJSON(stub, "ACTOR_"+actorID, &actor); err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewAuthorization("actor %s is not registered", actorID)
		}
		return nil, fmt.Errorf("failed to get actor %s: %v", actorID, err)
	}

	if !actor.HasPermission(requiredPermission) {
		return nil, errors.NewAuthorization("actor %s does not have permission %s", actorID, requiredPermission)
	}

	return &actor, nil
}

// GetCallerIdentity extracts the caller's identity from the transaction context
func GetCallerIdentity(stub shim.ChaincodeStubInterface) (string, error) {
	creator, err := stub.GetCreator()
	if err != nil {
		return "", fmt.Errorf("failed to get transaction creator: %v", err)
	}

	// Hash of the creator certificate serves as a stable identifier
	return HashString(string(creator)), nil
}

// ============================================================================
// HISTORY TRACKING UTILITIES
// ============================================================================

// HistoryEntry represents a single history entry
type HistoryEntry struct {
	HistoryID     string    `json:"historyID"`
	EntityID      string    `json:"entityID"`
	EntityType    string    `json:"entityType"`
	Timestamp     time.Time `json:"timestamp"`
	ChangeType    string    `json:"changeType"`
	FieldName     string    `json:"fieldName"`
	PreviousValue string    `json:"previousValue"`
	NewValue      string    `json:"newValue"`
	ActorID       string    `json:"actorID"`
	TransactionID string    `json:"transactionID"`
}

// RecordHistoryEntry creates and stores a history entry under a composite
// key so that per-entity history can be read back with a partial key scan.
func RecordHistoryEntry(stub shim.ChaincodeStubInterface, entityID, entityType, changeType, fieldName, previousValue, newValue, actorID string) error {
	historyID := GenerateID("HIST")

	entry := HistoryEntry{
		HistoryID:     historyID,
		EntityID:      entityID,
		EntityType:    entityType,
		Timestamp:     time.Now(),
		ChangeType:    changeType,
		FieldName:     fieldName,
		PreviousValue: previousValue,
		NewValue:      newValue,
		ActorID:       actorID,
		TransactionID: stub.GetTxID(),
	}

	compositeKey, err := stub.CreateCompositeKey("HISTORY", []string{entityID, historyID})
	if err != nil {
		return fmt.Errorf("failed to create history key: %v", err)
	}

	return PutStateAsJSON(stub, compositeKey, entry)
}

// GetEntityHistory retrieves all history entries for an entity
func GetEntityHistory(stub shim.ChaincodeStubInterface, entityID string) ([]HistoryEntry, error) {
	iterator, err := stub.GetStateByPartialCompositeKey("HISTORY", []string{entityID})
	if err != nil {
		return nil, fmt.Errorf("failed to get history iterator: %v", err)
	}
	defer iterator.Close()

	var history []HistoryEntry
	for iterator.HasNext() {
		response, err := iterator.Next()
		if err != nil {
			return nil, fmt.Errorf("failed to iterate history: %v", err)
		}

		var entry HistoryEntry
		if err := json.Unmarshal(response.Value, &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal history entry: %v", err)
		}

		history = append(history, entry)
	}

	return history, nil
}
