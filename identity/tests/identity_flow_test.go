package tests

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-chaincode-go/shimtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockchain-trust-platform/fabric-chaincode/identity/chaincode"
	"github.com/blockchain-trust-platform/fabric-chaincode/identity/domain"
	"github.com/blockchain-trust-platform/fabric-chaincode/identity/handlers"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/crypto"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/interfaces"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/services"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/validation"
)

// The resolver cache is shared across invocations, so every test works on
// its own DIDs.

func newIdentityStub(t *testing.T) *shimtest.MockStub {
	t.Helper()

	stub := shimtest.NewMockStub("identity", chaincode.NewIdentityContract())
	registerTestActor(t, stub, "bootstrap", "authority-1", shared.RoleRegistryAuthority, "")
	return stub
}

func registerTestActor(t *testing.T, stub *shimtest.MockStub, txID, actorID string, role shared.ActorRole, registeredBy string) {
	t.Helper()

	req := services.ActorRegistrationRequest{
		ActorID:      actorID,
		ActorType:    shared.ActorTypeOrganization,
		ActorName:    actorID,
		Role:         role,
		RegisteredBy: registeredBy,
	}
	reqBytes, err := json.Marshal(req)
	require.NoError(t, err)

	response := stub.MockInvoke(txID, [][]byte{[]byte("RegisterActor"), reqBytes})
	require.Equal(t, int32(shim.OK), response.Status, response.Message)
}

func registrationFee() *interfaces.FeePayment {
	return &interfaces.FeePayment{Amount: 100, AssetCode: "TRST", PaymentRef: "PAY-REG"}
}

func updateFee() *interfaces.FeePayment {
	return &interfaces.FeePayment{Amount: 25, AssetCode: "TRST", PaymentRef: "PAY-UPD"}
}

func registerTestIdentity(t *testing.T, stub *shimtest.MockStub, txID string, req domain.IdentityRegistrationRequest) domain.IdentityRecord {
	t.Helper()

	if req.Fee == nil {
		req.Fee = registrationFee()
	}
	if req.ActorID == "" {
		req.ActorID = "authority-1"
	}
	reqBytes, err := json.Marshal(req)
	require.NoError(t, err)

	response := stub.MockInvoke(txID, [][]byte{[]byte("RegisterIdentity"), reqBytes})
	require.Equal(t, int32(shim.OK), response.Status, response.Message)

	var record domain.IdentityRecord
	require.NoError(t, json.Unmarshal(response.Payload, &record))
	return record
}

func TestIdentityRegistrationFlow(t *testing.T) {
	stub := newIdentityStub(t)

	keyPair, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	record := registerTestIdentity(t, stub, "1", domain.IdentityRegistrationRequest{
		IdentityID: "did:trust:flow-alice",
		Controller: "alice",
		Document:   map[string]interface{}{"profile": "https://alice.example.com"},
		VerificationMethods: []domain.VerificationMethod{
			{MethodID: "key-1", MethodType: "Ed25519VerificationKey2020", PublicKeyHex: keyPair.PublicKeyHex},
		},
	})

	assert.Equal(t, "did:trust:flow-alice", record.IdentityID)
	assert.Equal(t, "alice", record.Controller)
	assert.Equal(t, 1, record.Version)
	assert.Equal(t, validation.IdentityStatusActive, record.Status)
	assert.Equal(t, 250, record.PortabilityScore)
	assert.Equal(t, "authority-1", record.CreatedBy)
	assert.Len(t, record.VerificationMethods, 1)
	assert.Equal(t, "alice", record.VerificationMethods[0].Controller)

	// Read it back directly
	getResponse := stub.MockInvoke("2", [][]byte{
		[]byte("GetIdentity"),
		[]byte("did:trust:flow-alice"),
	})
	assert.Equal(t, int32(shim.OK), getResponse.Status)

	var retrieved domain.IdentityRecord
	require.NoError(t, json.Unmarshal(getResponse.Payload, &retrieved))
	assert.Equal(t, record.IdentityID, retrieved.IdentityID)
	assert.Equal(t, record.Version, retrieved.Version)

	// Resolve through the cache
	resolveResponse := stub.MockInvoke("3", [][]byte{
		[]byte("ResolveIdentity"),
		[]byte("did:trust:flow-alice"),
	})
	assert.Equal(t, int32(shim.OK), resolveResponse.Status)

	// A DID URL with a fragment narrows to the verification method
	urlResponse := stub.MockInvoke("4", [][]byte{
		[]byte("ResolveIdentityUrl"),
		[]byte("did:trust:flow-alice#key-1"),
	})
	assert.Equal(t, int32(shim.OK), urlResponse.Status)

	var result domain.ResolutionResult
	require.NoError(t, json.Unmarshal(urlResponse.Payload, &result))
	assert.Equal(t, "key-1", result.Fragment)
	require.NotNil(t, result.VerificationMethod)
	assert.Equal(t, keyPair.PublicKeyHex, result.VerificationMethod.PublicKeyHex)
	assert.Nil(t, result.Record)

	// The controller index finds the identity
	listResponse := stub.MockInvoke("5", [][]byte{
		[]byte("GetIdentitiesByController"),
		[]byte("alice"),
	})
	assert.Equal(t, int32(shim.OK), listResponse.Status)

	var owned []domain.IdentityRecord
	require.NoError(t, json.Unmarshal(listResponse.Payload, &owned))
	assert.Len(t, owned, 1)
	assert.Equal(t, "did:trust:flow-alice", owned[0].IdentityID)
}

func TestIdentityRegistrationValidation(t *testing.T) {
	stub := newIdentityStub(t)

	base := domain.IdentityRegistrationRequest{
		IdentityID: "did:trust:flow-reject",
		Controller: "bob",
		ActorID:    "authority-1",
		Fee:        registrationFee(),
	}

	// Missing fee
	noFee := base
	noFee.Fee = nil
	reqBytes, err := json.Marshal(noFee)
	require.NoError(t, err)

	response := stub.MockInvoke("1", [][]byte{[]byte("RegisterIdentity"), reqBytes})
	assert.Equal(t, int32(shim.ERROR), response.Status)
	assert.Contains(t, response.Message, "requires a fee")

	// Unregistered actor
	badActor := base
	badActor.ActorID = "nobody"
	reqBytes, err = json.Marshal(badActor)
	require.NoError(t, err)

	response = stub.MockInvoke("2", [][]byte{[]byte("RegisterIdentity"), reqBytes})
	assert.Equal(t, int32(shim.ERROR), response.Status)
	assert.Contains(t, response.Message, "not registered")

	// Malformed DID
	badDID := base
	badDID.IdentityID = "urn:uuid:not-a-did"
	reqBytes, err = json.Marshal(badDID)
	require.NoError(t, err)

	response = stub.MockInvoke("3", [][]byte{[]byte("RegisterIdentity"), reqBytes})
	assert.Equal(t, int32(shim.ERROR), response.Status)
	assert.Contains(t, response.Message, "not a valid DID")

	// Duplicate registration
	registerTestIdentity(t, stub, "4", base)

	reqBytes, err = json.Marshal(base)
	require.NoError(t, err)

	response = stub.MockInvoke("5", [][]byte{[]byte("RegisterIdentity"), reqBytes})
	assert.Equal(t, int32(shim.ERROR), response.Status)
	assert.Contains(t, response.Message, "already exists")
}

func TestIdentityUpdateFlow(t *testing.T) {
	stub := newIdentityStub(t)

	registerTestIdentity(t, stub, "1", domain.IdentityRegistrationRequest{
		IdentityID: "did:trust:flow-update",
		Controller: "carol",
		Document:   map[string]interface{}{"profile": "v1"},
	})

	updateReq := domain.IdentityUpdateRequest{
		IdentityID: "did:trust:flow-update",
		UpdateKind: domain.UpdateKindDocument,
		Document:   map[string]interface{}{"profile": "v2", "extra": true},
		Fee:        updateFee(),
		ActorID:    "carol",
	}
	updateBytes, err := json.Marshal(updateReq)
	require.NoError(t, err)

	response := stub.MockInvoke("2", [][]byte{[]byte("UpdateIdentity"), updateBytes})
	assert.Equal(t, int32(shim.OK), response.Status, response.Message)

	var updated domain.IdentityRecord
	require.NoError(t, json.Unmarshal(response.Payload, &updated))
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, "v2", updated.Document["profile"])
	assert.Equal(t, "carol", updated.LastUpdatedBy)

	// An update without the fee is rejected
	updateReq.Fee = nil
	updateBytes, err = json.Marshal(updateReq)
	require.NoError(t, err)

	response = stub.MockInvoke("3", [][]byte{[]byte("UpdateIdentity"), updateBytes})
	assert.Equal(t, int32(shim.ERROR), response.Status)
	assert.Contains(t, response.Message, "requires a fee")

	// Portability updates recompute the score
	portabilityReq := domain.IdentityUpdateRequest{
		IdentityID: "did:trust:flow-update",
		UpdateKind: domain.UpdateKindPortability,
		PortabilityProof: &domain.PortabilityProof{
			StandardCompliance: "did-core-1.0",
			ExportFormats:      []string{"jsonld", "jwt"},
			CrossChainAnchors:  []string{"chain-b"},
			DocumentationURI:   "https://docs.example.com/port",
		},
		Fee:     updateFee(),
		ActorID: "carol",
	}
	portabilityBytes, err := json.Marshal(portabilityReq)
	require.NoError(t, err)

	response = stub.MockInvoke("4", [][]byte{[]byte("UpdateIdentity"), portabilityBytes})
	assert.Equal(t, int32(shim.OK), response.Status, response.Message)

	require.NoError(t, json.Unmarshal(response.Payload, &updated))
	assert.Equal(t, 1000, updated.PortabilityScore)
	assert.Equal(t, 3, updated.Version)

	// History carries the creation and both updates
	historyResponse := stub.MockInvoke("5", [][]byte{
		[]byte("GetIdentityHistory"),
		[]byte("did:trust:flow-update"),
	})
	assert.Equal(t, int32(shim.OK), historyResponse.Status)

	var history []shared.HistoryEntry
	require.NoError(t, json.Unmarshal(historyResponse.Payload, &history))
	assert.Len(t, history, 3)

	changeTypes := make(map[string]int)
	for _, entry := range history {
		changeTypes[entry.ChangeType]++
		assert.Equal(t, "did:trust:flow-update", entry.EntityID)
		assert.Equal(t, "Identity", entry.EntityType)
	}
	assert.Equal(t, 1, changeTypes["CREATE"])
	assert.Equal(t, 2, changeTypes["UPDATE"])
}

func TestDelegationFlow(t *testing.T) {
	stub := newIdentityStub(t)

	registerTestIdentity(t, stub, "1", domain.IdentityRegistrationRequest{
		IdentityID: "did:trust:flow-deleg",
		Controller: "carol",
	})

	delegateReq := domain.DelegationRequest{
		IdentityID:     "did:trust:flow-deleg",
		Delegatee:      "dave",
		Permissions:    []string{domain.DelegationUpdateDocument},
		ExpirationDate: time.Now().Add(24 * time.Hour),
		ActorID:        "carol",
	}
	delegateBytes, err := json.Marshal(delegateReq)
	require.NoError(t, err)

	response := stub.MockInvoke("2", [][]byte{[]byte("DelegateControl"), delegateBytes})
	assert.Equal(t, int32(shim.OK), response.Status, response.Message)

	var record domain.IdentityRecord
	require.NoError(t, json.Unmarshal(response.Payload, &record))
	require.NotNil(t, record.Delegation)
	assert.Equal(t, "dave", record.Delegation.Delegatee)
	assert.Equal(t, "carol", record.Delegation.GrantedBy)

	// The delegate may update the document
	updateReq := domain.IdentityUpdateRequest{
		IdentityID: "did:trust:flow-deleg",
		UpdateKind: domain.UpdateKindDocument,
		Document:   map[string]interface{}{"edited": "by-dave"},
		Fee:        updateFee(),
		ActorID:    "dave",
	}
	updateBytes, err := json.Marshal(updateReq)
	require.NoError(t, err)

	response = stub.MockInvoke("3", [][]byte{[]byte("UpdateIdentity"), updateBytes})
	assert.Equal(t, int32(shim.OK), response.Status, response.Message)

	// But not revoke the identity, which stays controller-only
	revokeReq := domain.IdentityLifecycleRequest{
		IdentityID: "did:trust:flow-deleg",
		Reason:     "attempted takeover",
		ActorID:    "dave",
	}
	revokeBytes, err := json.Marshal(revokeReq)
	require.NoError(t, err)

	response = stub.MockInvoke("4", [][]byte{[]byte("RevokeIdentity"), revokeBytes})
	assert.Equal(t, int32(shim.ERROR), response.Status)
	assert.Contains(t, response.Message, "not authorized")

	// Revoking the delegation cuts the delegate off
	revokeDelegation := domain.IdentityLifecycleRequest{
		IdentityID: "did:trust:flow-deleg",
		ActorID:    "carol",
	}
	revokeDelegationBytes, err := json.Marshal(revokeDelegation)
	require.NoError(t, err)

	response = stub.MockInvoke("5", [][]byte{[]byte("RevokeDelegation"), revokeDelegationBytes})
	assert.Equal(t, int32(shim.OK), response.Status, response.Message)

	record = domain.IdentityRecord{}
	require.NoError(t, json.Unmarshal(response.Payload, &record))
	assert.Nil(t, record.Delegation)

	response = stub.MockInvoke("6", [][]byte{[]byte("UpdateIdentity"), updateBytes})
	assert.Equal(t, int32(shim.ERROR), response.Status)
	assert.Contains(t, response.Message, "not authorized")
}

func TestControlTransferFlow(t *testing.T) {
	stub := newIdentityStub(t)

	registerTestIdentity(t, stub, "1", domain.IdentityRegistrationRequest{
		IdentityID: "did:trust:flow-transfer",
		Controller: "erin",
	})

	transferReq := domain.ControlTransferRequest{
		IdentityID:    "did:trust:flow-transfer",
		NewController: "frank",
		ActorID:       "erin",
	}
	transferBytes, err := json.Marshal(transferReq)
	require.NoError(t, err)

	response := stub.MockInvoke("2", [][]byte{[]byte("TransferControl"), transferBytes})
	assert.Equal(t, int32(shim.OK), response.Status, response.Message)

	var record domain.IdentityRecord
	require.NoError(t, json.Unmarshal(response.Payload, &record))
	assert.Equal(t, "frank", record.Controller)
	assert.Nil(t, record.Delegation)

	// The old controller lost its authority
	updateReq := domain.IdentityUpdateRequest{
		IdentityID: "did:trust:flow-transfer",
		UpdateKind: domain.UpdateKindDocument,
		Document:   map[string]interface{}{"owner": "erin"},
		Fee:        updateFee(),
		ActorID:    "erin",
	}
	updateBytes, err := json.Marshal(updateReq)
	require.NoError(t, err)

	response = stub.MockInvoke("3", [][]byte{[]byte("UpdateIdentity"), updateBytes})
	assert.Equal(t, int32(shim.ERROR), response.Status)
	assert.Contains(t, response.Message, "not authorized")

	// The controller index moved with the transfer
	listResponse := stub.MockInvoke("4", [][]byte{
		[]byte("GetIdentitiesByController"),
		[]byte("frank"),
	})
	assert.Equal(t, int32(shim.OK), listResponse.Status)

	var owned []domain.IdentityRecord
	require.NoError(t, json.Unmarshal(listResponse.Payload, &owned))
	assert.Len(t, owned, 1)

	listResponse = stub.MockInvoke("5", [][]byte{
		[]byte("GetIdentitiesByController"),
		[]byte("erin"),
	})
	assert.Equal(t, int32(shim.OK), listResponse.Status)

	owned = nil
	require.NoError(t, json.Unmarshal(listResponse.Payload, &owned))
	assert.Len(t, owned, 0)
}

func TestIdentityRecoveryFlow(t *testing.T) {
	stub := newIdentityStub(t)

	recoveryKey, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	secret := "correct horse battery staple"
	commitment := crypto.SHA256HexString(secret)

	registerTestIdentity(t, stub, "1", domain.IdentityRegistrationRequest{
		IdentityID: "did:trust:flow-recover",
		Controller: "grace",
		Recovery: &domain.RecoveryDescriptor{
			MethodType:     domain.RecoveryMethodSHA256Commitment,
			CommitmentHash: commitment,
			RecoveryKeyHex: recoveryKey.PublicKeyHex,
		},
	})

	// A wrong secret is rejected before the signature is even checked
	badReq := domain.RecoveryRequest{
		IdentityID:     "did:trust:flow-recover",
		RecoverySecret: "wrong secret",
		SignatureHex:   "deadbeef",
		NewController:  "grace-backup",
		ActorID:        "grace-backup",
	}
	badBytes, err := json.Marshal(badReq)
	require.NoError(t, err)

	response := stub.MockInvoke("2", [][]byte{[]byte("RecoverIdentity"), badBytes})
	assert.Equal(t, int32(shim.ERROR), response.Status)
	assert.Contains(t, response.Message, "recovery proof rejected")

	// The real proof: knowledge of the secret plus a signature binding the
	// new controller.
	payload, err := crypto.CanonicalizeJSON(map[string]interface{}{
		"identityID":    "did:trust:flow-recover",
		"newController": "grace-backup",
		"secretHash":    commitment,
	})
	require.NoError(t, err)

	signature, err := crypto.Sign(payload, recoveryKey.PrivateKeyHex)
	require.NoError(t, err)

	recoverReq := domain.RecoveryRequest{
		IdentityID:     "did:trust:flow-recover",
		RecoverySecret: secret,
		SignatureHex:   signature,
		NewController:  "grace-backup",
		ActorID:        "grace-backup",
	}
	recoverBytes, err := json.Marshal(recoverReq)
	require.NoError(t, err)

	response = stub.MockInvoke("3", [][]byte{[]byte("RecoverIdentity"), recoverBytes})
	assert.Equal(t, int32(shim.OK), response.Status, response.Message)

	var record domain.IdentityRecord
	require.NoError(t, json.Unmarshal(response.Payload, &record))
	assert.Equal(t, "grace-backup", record.Controller)
	assert.Nil(t, record.Recovery, "descriptor is cleared after use")
	assert.Nil(t, record.Delegation)

	// The descriptor was consumed; replaying the proof fails
	response = stub.MockInvoke("4", [][]byte{[]byte("RecoverIdentity"), recoverBytes})
	assert.Equal(t, int32(shim.ERROR), response.Status)
	assert.Contains(t, response.Message, "no recovery descriptor")
}

func TestIdentityLifecycleFlow(t *testing.T) {
	stub := newIdentityStub(t)

	registerTestIdentity(t, stub, "1", domain.IdentityRegistrationRequest{
		IdentityID: "did:trust:flow-life",
		Controller: "henry",
	})

	deactivateReq := domain.IdentityLifecycleRequest{
		IdentityID: "did:trust:flow-life",
		Reason:     "key rotation",
		ActorID:    "henry",
	}
	deactivateBytes, err := json.Marshal(deactivateReq)
	require.NoError(t, err)

	response := stub.MockInvoke("2", [][]byte{[]byte("DeactivateIdentity"), deactivateBytes})
	assert.Equal(t, int32(shim.OK), response.Status, response.Message)

	var record domain.IdentityRecord
	require.NoError(t, json.Unmarshal(response.Payload, &record))
	assert.Equal(t, validation.IdentityStatusDeactivated, record.Status)

	// Deactivated identities reject mutations
	updateReq := domain.IdentityUpdateRequest{
		IdentityID: "did:trust:flow-life",
		UpdateKind: domain.UpdateKindDocument,
		Document:   map[string]interface{}{"a": 1},
		Fee:        updateFee(),
		ActorID:    "henry",
	}
	updateBytes, err := json.Marshal(updateReq)
	require.NoError(t, err)

	response = stub.MockInvoke("3", [][]byte{[]byte("UpdateIdentity"), updateBytes})
	assert.Equal(t, int32(shim.ERROR), response.Status)
	assert.Contains(t, response.Message, "operation requires ACTIVE")

	// And a second deactivation is an invalid transition
	response = stub.MockInvoke("4", [][]byte{[]byte("DeactivateIdentity"), deactivateBytes})
	assert.Equal(t, int32(shim.ERROR), response.Status)
	assert.Contains(t, response.Message, "invalid status transition")

	reactivateBytes, err := json.Marshal(domain.IdentityLifecycleRequest{
		IdentityID: "did:trust:flow-life",
		ActorID:    "henry",
	})
	require.NoError(t, err)

	response = stub.MockInvoke("5", [][]byte{[]byte("ReactivateIdentity"), reactivateBytes})
	assert.Equal(t, int32(shim.OK), response.Status, response.Message)

	require.NoError(t, json.Unmarshal(response.Payload, &record))
	assert.Equal(t, validation.IdentityStatusActive, record.Status)

	// Revocation needs a reason
	noReasonBytes, err := json.Marshal(domain.IdentityLifecycleRequest{
		IdentityID: "did:trust:flow-life",
		ActorID:    "henry",
	})
	require.NoError(t, err)

	response = stub.MockInvoke("6", [][]byte{[]byte("RevokeIdentity"), noReasonBytes})
	assert.Equal(t, int32(shim.ERROR), response.Status)
	assert.Contains(t, response.Message, "reason is required")

	revokeBytes, err := json.Marshal(domain.IdentityLifecycleRequest{
		IdentityID: "did:trust:flow-life",
		Reason:     "compromised controller key",
		ActorID:    "henry",
	})
	require.NoError(t, err)

	response = stub.MockInvoke("7", [][]byte{[]byte("RevokeIdentity"), revokeBytes})
	assert.Equal(t, int32(shim.OK), response.Status, response.Message)

	require.NoError(t, json.Unmarshal(response.Payload, &record))
	assert.Equal(t, validation.IdentityStatusRevoked, record.Status)

	// REVOKED is terminal
	response = stub.MockInvoke("8", [][]byte{[]byte("ReactivateIdentity"), reactivateBytes})
	assert.Equal(t, int32(shim.ERROR), response.Status)
	assert.Contains(t, response.Message, "invalid status transition")

	// The tombstone stays readable
	getResponse := stub.MockInvoke("9", [][]byte{
		[]byte("GetIdentity"),
		[]byte("did:trust:flow-life"),
	})
	assert.Equal(t, int32(shim.OK), getResponse.Status)

	require.NoError(t, json.Unmarshal(getResponse.Payload, &record))
	assert.Equal(t, validation.IdentityStatusRevoked, record.Status)
}

func TestVerificationMethodAndServiceFlow(t *testing.T) {
	stub := newIdentityStub(t)

	firstKey, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	secondKey, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	registerTestIdentity(t, stub, "1", domain.IdentityRegistrationRequest{
		IdentityID: "did:trust:flow-methods",
		Controller: "iris",
		VerificationMethods: []domain.VerificationMethod{
			{MethodID: "key-1", MethodType: "Ed25519VerificationKey2020", PublicKeyHex: firstKey.PublicKeyHex},
		},
	})

	addMethodReq := domain.VerificationMethodRequest{
		IdentityID:   "did:trust:flow-methods",
		MethodID:     "key-2",
		MethodType:   "Ed25519VerificationKey2020",
		PublicKeyHex: secondKey.PublicKeyHex,
		ActorID:      "iris",
	}
	addMethodBytes, err := json.Marshal(addMethodReq)
	require.NoError(t, err)

	response := stub.MockInvoke("2", [][]byte{[]byte("AddVerificationMethod"), addMethodBytes})
	assert.Equal(t, int32(shim.OK), response.Status, response.Message)

	var record domain.IdentityRecord
	require.NoError(t, json.Unmarshal(response.Payload, &record))
	assert.Len(t, record.VerificationMethods, 2)

	// Duplicate method IDs collide
	response = stub.MockInvoke("3", [][]byte{[]byte("AddVerificationMethod"), addMethodBytes})
	assert.Equal(t, int32(shim.ERROR), response.Status)
	assert.Contains(t, response.Message, "already has verification method")

	addServiceReq := domain.ServiceEndpointRequest{
		IdentityID:  "did:trust:flow-methods",
		ServiceID:   "agent",
		ServiceType: "DIDCommMessaging",
		Endpoint:    "https://agent.example.com/inbox",
		ActorID:     "iris",
	}
	addServiceBytes, err := json.Marshal(addServiceReq)
	require.NoError(t, err)

	response = stub.MockInvoke("4", [][]byte{[]byte("AddService"), addServiceBytes})
	assert.Equal(t, int32(shim.OK), response.Status, response.Message)

	require.NoError(t, json.Unmarshal(response.Payload, &record))
	assert.Len(t, record.Services, 1)

	// The service resolves by fragment
	urlResponse := stub.MockInvoke("5", [][]byte{
		[]byte("ResolveIdentityUrl"),
		[]byte("did:trust:flow-methods#agent"),
	})
	assert.Equal(t, int32(shim.OK), urlResponse.Status)

	var result domain.ResolutionResult
	require.NoError(t, json.Unmarshal(urlResponse.Payload, &result))
	require.NotNil(t, result.Service)
	assert.Equal(t, "https://agent.example.com/inbox", result.Service.Endpoint)

	// The new key verifies signatures through the chaincode interface
	message := "login challenge 42"
	signature, err := crypto.Sign([]byte(message), secondKey.PrivateKeyHex)
	require.NoError(t, err)

	verifyReq := handlers.SignatureVerificationRequest{
		IdentityID:   "did:trust:flow-methods",
		MethodID:     "key-2",
		Message:      message,
		SignatureHex: signature,
	}
	verifyBytes, err := json.Marshal(verifyReq)
	require.NoError(t, err)

	response = stub.MockInvoke("6", [][]byte{[]byte("VerifySignature"), verifyBytes})
	assert.Equal(t, int32(shim.OK), response.Status, response.Message)

	var verifyResult handlers.SignatureVerificationResult
	require.NoError(t, json.Unmarshal(response.Payload, &verifyResult))
	assert.True(t, verifyResult.Valid)

	// Removal
	removeMethodBytes, err := json.Marshal(domain.VerificationMethodRequest{
		IdentityID: "did:trust:flow-methods",
		MethodID:   "key-2",
		ActorID:    "iris",
	})
	require.NoError(t, err)

	response = stub.MockInvoke("7", [][]byte{[]byte("RemoveVerificationMethod"), removeMethodBytes})
	assert.Equal(t, int32(shim.OK), response.Status, response.Message)

	require.NoError(t, json.Unmarshal(response.Payload, &record))
	assert.Len(t, record.VerificationMethods, 1)
	assert.Equal(t, "key-1", record.VerificationMethods[0].MethodID)

	removeServiceBytes, err := json.Marshal(domain.ServiceEndpointRequest{
		IdentityID: "did:trust:flow-methods",
		ServiceID:  "agent",
		ActorID:    "iris",
	})
	require.NoError(t, err)

	response = stub.MockInvoke("8", [][]byte{[]byte("RemoveService"), removeServiceBytes})
	assert.Equal(t, int32(shim.OK), response.Status, response.Message)

	response = stub.MockInvoke("9", [][]byte{[]byte("RemoveService"), removeServiceBytes})
	assert.Equal(t, int32(shim.ERROR), response.Status)
	assert.Contains(t, response.Message, "has no service")
}

func TestActorBootstrapFlow(t *testing.T) {
	stub := shimtest.NewMockStub("identity", chaincode.NewIdentityContract())

	// The first registration must create the registry authority
	attester := services.ActorRegistrationRequest{
		ActorID:   "early-attester",
		ActorType: shared.ActorTypeOrganization,
		ActorName: "Early Attester",
		Role:      shared.RoleAttester,
	}
	attesterBytes, err := json.Marshal(attester)
	require.NoError(t, err)

	response := stub.MockInvoke("1", [][]byte{[]byte("RegisterActor"), attesterBytes})
	assert.Equal(t, int32(shim.ERROR), response.Status)
	assert.Contains(t, response.Message, "first registered actor")

	registerTestActor(t, stub, "2", "authority-boot", shared.RoleRegistryAuthority, "")

	// Once bootstrapped, the authority registers further actors
	attester.RegisteredBy = "authority-boot"
	attesterBytes, err = json.Marshal(attester)
	require.NoError(t, err)

	response = stub.MockInvoke("3", [][]byte{[]byte("RegisterActor"), attesterBytes})
	assert.Equal(t, int32(shim.OK), response.Status, response.Message)

	// And the new actor can use its REGISTER_IDENTITY permission
	record := registerTestIdentity(t, stub, "4", domain.IdentityRegistrationRequest{
		IdentityID: "did:trust:flow-boot",
		Controller: "early-attester",
		ActorID:    "early-attester",
	})
	assert.Equal(t, "early-attester", record.CreatedBy)
}
