package domain

import (
	"encoding/json"
	"fmt"

	"github.com/hyperledger/fabric-chaincode-go/shim"

	"github.com/blockchain-trust-platform/fabric-chaincode/shared/config"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/errors"
)

// RegistryStatusProvider reads anchored credentials from the state store.
type RegistryStatusProvider struct{}

// CredentialStatus loads a credential and narrows it to the fields the
// verifier needs.
func (RegistryStatusProvider) CredentialStatus(stub shim.ChaincodeStubInterface, credentialHash string) (*StatusInfo, error) {
	key := fmt.Sprintf("%s_%s", config.CredentialPrefix, credentialHash)
	data, err := stub.GetState(key)
	if err != nil {
		return nil, fmt.Errorf("failed to read credential %s: %v", credentialHash, err)
	}
	if data == nil {
		return nil, errors.NewNotFound("credential %s not anchored", credentialHash)
	}

	var record CredentialRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode credential %s: %v", credentialHash, err)
	}

	info := &StatusInfo{
		CredentialHash: record.CredentialHash,
		IssuerID:       record.IssuerID,
		SubjectID:      record.SubjectID,
		Status:         record.Status,
		ExpirationDate: record.ExpirationDate,
	}
	if record.Proof != nil {
		info.ProofSignatureHex = record.Proof.ProofSignatureHex
		info.ProofMethodID = record.Proof.ProofMethodID
	}
	return info, nil
}

// RegistryTrustProvider consults the issuer trust registry. An issuer with
// no entry is trusted.
type RegistryTrustProvider struct{}

// IssuerTrusted reports the registry's current ruling on an issuer.
func (RegistryTrustProvider) IssuerTrusted(stub shim.ChaincodeStubInterface, issuerID string) (bool, error) {
	key := fmt.Sprintf("%s_%s", config.IssuerTrustPrefix, issuerID)
	data, err := stub.GetState(key)
	if err != nil {
		return false, fmt.Errorf("failed to read issuer trust for %s: %v", issuerID, err)
	}
	if data == nil {
		return true, nil
	}

	var record IssuerTrustRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return false, fmt.Errorf("failed to decode issuer trust for %s: %v", issuerID, err)
	}
	return record.Trusted, nil
}

// ChaincodeSignatureVerifier verifies signatures by invoking the identity
// chaincode on the same channel. The invoked function must stay read-only;
// a cross-chaincode write would abort the transaction.
type ChaincodeSignatureVerifier struct {
	ChaincodeName string
	Channel       string
}

// NewChaincodeSignatureVerifier targets the identity chaincode on the
// caller's channel.
func NewChaincodeSignatureVerifier() ChaincodeSignatureVerifier {
	return ChaincodeSignatureVerifier{ChaincodeName: config.IdentityChaincodeName}
}

// VerifySignature delegates the check to the identity chaincode's
// VerifySignature function and decodes its verdict.
func (v ChaincodeSignatureVerifier) VerifySignature(stub shim.ChaincodeStubInterface, identityID, methodID string, message []byte, signatureHex string) (bool, error) {
	request, err := json.Marshal(map[string]string{
		"identityID":   identityID,
		"methodID":     methodID,
		"message":      string(message),
		"signatureHex": signatureHex,
	})
	if err != nil {
		return false, fmt.Errorf("failed to marshal signature verification request: %v", err)
	}

	response := stub.InvokeChaincode(v.ChaincodeName, [][]byte{[]byte("VerifySignature"), request}, v.Channel)
	if response.Status != shim.OK {
		return false, fmt.Errorf("identity chaincode rejected the signature check: %s", response.Message)
	}

	var result struct {
		Valid bool `json:"valid"`
	}
	if err := json.Unmarshal(response.Payload, &result); err != nil {
		return false, fmt.Errorf("failed to decode signature verification result: %v", err)
	}
	return result.Valid, nil
}
