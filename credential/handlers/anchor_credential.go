package handlers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hyperledger/fabric-chaincode-go/shim"

	"github.com/blockchain-trust-platform/fabric-chaincode/credential/domain"
	credentialServices "github.com/blockchain-trust-platform/fabric-chaincode/credential/services"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/config"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/errors"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/services"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/utils"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/validation"
)

// CredentialHandler handles credential anchoring and queries
type CredentialHandler struct {
	persistenceService *services.PersistenceService
	eventService       *credentialServices.EventService
	feeValidator       *services.ScheduleFeeValidator
}

// NewCredentialHandler creates a new credential handler
func NewCredentialHandler() *CredentialHandler {
	return &CredentialHandler{
		persistenceService: services.NewPersistenceService(),
		eventService:       credentialServices.NewEventService(),
		feeValidator:       services.NewScheduleFeeValidator(),
	}
}

// AnchorCredential anchors the digest of an off-chain credential. The
// ledger records issuer, subject, validity window and proof material; the
// credential content itself never touches the chain. Whether the named
// issuer identity exists is deliberately not checked here, issuer
// authenticity is the verifier's concern.
func (h *CredentialHandler) AnchorCredential(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	var req domain.CredentialAnchorRequest
	if err := json.Unmarshal([]byte(args[0]), &req); err != nil {
		return nil, errors.NewValidation("failed to parse anchor request: %v", err)
	}

	if err := domain.ValidateAnchorRequest(&req); err != nil {
		return nil, err
	}

	if _, err := shared.ValidateActorAccess(stub, req.ActorID, shared.PermissionAnchorCredential); err != nil {
		return nil, err
	}

	if err := h.feeValidator.ValidateFee("AnchorCredential", req.Fee); err != nil {
		return nil, err
	}

	credentialKey := credentialStateKey(req.CredentialHash)
	exists, err := h.persistenceService.Exists(stub, credentialKey)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing credential: %v", err)
	}
	if exists {
		return nil, errors.NewConflict("credential %s is already anchored", req.CredentialHash)
	}

	now := time.Now()
	record := &domain.CredentialRecord{
		CredentialHash:     req.CredentialHash,
		IssuerID:           req.IssuerID,
		SubjectID:          req.SubjectID,
		CredentialType:     req.CredentialType,
		SchemaHash:         req.SchemaHash,
		IssuanceDate:       now,
		ExpirationDate:     req.ExpirationDate,
		Status:             validation.CredentialStatusValid,
		StatusUpdated:      now,
		VerifiabilityScore: domain.ComputeVerifiabilityScore(req.Proof, req.SchemaHash),
		Proof:              req.Proof,
		CreatedBy:          req.ActorID,
		LastUpdatedBy:      req.ActorID,
	}

	if err := storeCredentialRecord(stub, record); err != nil {
		return nil, err
	}

	if err := h.writeIndexes(stub, record); err != nil {
		return nil, err
	}

	recordJSON, _ := utils.MarshalJSONString(record)
	if err := recordCredentialHistory(stub, req.CredentialHash, "CREATE", "credential", "", recordJSON, req.ActorID); err != nil {
		return nil, fmt.Errorf("failed to record history: %v", err)
	}

	if err := h.eventService.EmitCredentialAnchored(stub, record, req.ActorID); err != nil {
		return nil, fmt.Errorf("failed to emit event: %v", err)
	}

	return json.Marshal(record)
}

// writeIndexes stores the issuer, subject and schema lookups. The slice
// keeps the write order deterministic across endorsers. A credential
// without a schema binding skips the schema index.
func (h *CredentialHandler) writeIndexes(stub shim.ChaincodeStubInterface, record *domain.CredentialRecord) error {
	indexes := []struct {
		name     string
		firstKey string
	}{
		{config.CredentialIssuerIndex, record.IssuerID},
		{config.CredentialSubjectIndex, record.SubjectID},
		{config.CredentialSchemaIndex, record.SchemaHash},
	}

	for _, index := range indexes {
		if index.firstKey == "" {
			continue
		}
		indexKey, err := stub.CreateCompositeKey(index.name, []string{index.firstKey, record.CredentialHash})
		if err != nil {
			return fmt.Errorf("failed to create %s index key: %v", index.name, err)
		}
		if err := stub.PutState(indexKey, []byte(record.CredentialHash)); err != nil {
			return fmt.Errorf("failed to store %s index: %v", index.name, err)
		}
	}
	return nil
}

// GetCredential retrieves an anchored credential by its content hash
func (h *CredentialHandler) GetCredential(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	record, err := loadCredentialRecord(stub, args[0])
	if err != nil {
		return nil, err
	}

	return json.Marshal(record)
}

// GetCredentialHistory retrieves the mutation history of a credential
func (h *CredentialHandler) GetCredentialHistory(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	history, err := shared.GetEntityHistory(stub, args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to get credential history: %v", err)
	}

	return json.Marshal(history)
}

// GetCredentialsByIssuer lists the credentials an issuer has anchored
func (h *CredentialHandler) GetCredentialsByIssuer(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	return h.queryCredentialIndex(stub, config.CredentialIssuerIndex, args[0])
}

// GetCredentialsBySubject lists the credentials anchored about a subject
func (h *CredentialHandler) GetCredentialsBySubject(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	return h.queryCredentialIndex(stub, config.CredentialSubjectIndex, args[0])
}

// GetCredentialsBySchema lists the credentials bound to a schema digest
func (h *CredentialHandler) GetCredentialsBySchema(stub shim.ChaincodeStubInterface, args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.NewValidation("incorrect number of arguments. Expected 1, got %d", len(args))
	}

	return h.queryCredentialIndex(stub, config.CredentialSchemaIndex, args[0])
}

func (h *CredentialHandler) queryCredentialIndex(stub shim.ChaincodeStubInterface, indexName, key string) ([]byte, error) {
	iterator, err := stub.GetStateByPartialCompositeKey(indexName, []string{key})
	if err != nil {
		return nil, fmt.Errorf("failed to query %s index: %v", indexName, err)
	}
	defer iterator.Close()

	var records []domain.CredentialRecord
	for iterator.HasNext() {
		response, err := iterator.Next()
		if err != nil {
			return nil, fmt.Errorf("failed to iterate %s index: %v", indexName, err)
		}

		record, err := loadCredentialRecord(stub, string(response.Value))
		if err != nil {
			continue
		}
		records = append(records, *record)
	}

	return json.Marshal(records)
}
