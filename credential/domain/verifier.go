package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/opencontainers/go-digest"

	"github.com/blockchain-trust-platform/fabric-chaincode/shared/config"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/crypto"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/errors"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/validation"
)

// StatusInfo is the slice of an anchored credential the verifier needs.
type StatusInfo struct {
	CredentialHash    string
	IssuerID          string
	SubjectID         string
	Status            validation.CredentialStatus
	ExpirationDate    time.Time
	ProofSignatureHex string
	ProofMethodID     string
}

// EffectiveStatusAt derives the status a reader observes at the given time.
func (i *StatusInfo) EffectiveStatusAt(now time.Time) validation.CredentialStatus {
	return EffectiveCredentialStatus(i.Status, i.ExpirationDate, now)
}

// ExpiredAt reports whether the expiration date has passed.
func (i *StatusInfo) ExpiredAt(now time.Time) bool {
	return now.After(i.ExpirationDate)
}

// CredentialStatusProvider looks up the anchored state of a credential.
type CredentialStatusProvider interface {
	CredentialStatus(stub shim.ChaincodeStubInterface, credentialHash string) (*StatusInfo, error)
}

// SignatureVerifier checks a signature against one of an identity's
// verification methods.
type SignatureVerifier interface {
	VerifySignature(stub shim.ChaincodeStubInterface, identityID, methodID string, message []byte, signatureHex string) (bool, error)
}

// TrustProvider answers whether an issuer is currently trusted.
type TrustProvider interface {
	IssuerTrusted(stub shim.ChaincodeStubInterface, issuerID string) (bool, error)
}

// Check names reported in verification outcomes.
const (
	CheckStatus    = "status"
	CheckExpiry    = "expiry"
	CheckContent   = "content"
	CheckSignature = "signature"
	CheckTrust     = "trust"
)

// CheckResult records the outcome of one verification check.
type CheckResult struct {
	Check   string `json:"check"`
	Passed  bool   `json:"passed"`
	Skipped bool   `json:"skipped,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// VerificationOutcome is the full report of a credential verification.
// Status carries the effective status at verification time.
type VerificationOutcome struct {
	CredentialHash string                      `json:"credentialHash"`
	Status         validation.CredentialStatus `json:"status"`
	StatusValid    bool                        `json:"statusValid"`
	NotExpired     bool                        `json:"notExpired"`
	ContentMatch   bool                        `json:"contentMatch"`
	SignatureValid bool                        `json:"signatureValid"`
	IssuerTrusted  bool                        `json:"issuerTrusted"`
	Valid          bool                        `json:"valid"`
	Checks         []CheckResult               `json:"checks"`
	VerifiedAt     time.Time                   `json:"verifiedAt"`
}

func (o *VerificationOutcome) addCheck(name string, passed bool, detail string) {
	o.Checks = append(o.Checks, CheckResult{Check: name, Passed: passed, Detail: detail})
}

func (o *VerificationOutcome) addSkipped(name, detail string) {
	o.Checks = append(o.Checks, CheckResult{Check: name, Skipped: true, Detail: detail})
}

// VerificationPolicy selects the checks a relying party requires.
type VerificationPolicy struct {
	RequireValidStatus   bool `json:"requireValidStatus"`
	AllowSuspended       bool `json:"allowSuspended"`
	RequireNotExpired    bool `json:"requireNotExpired"`
	RequireContentMatch  bool `json:"requireContentMatch"`
	RequireSignature     bool `json:"requireSignature"`
	RequireTrustedIssuer bool `json:"requireTrustedIssuer"`
}

// FullVerificationRequest asks for the complete five-check verification of
// an anchored credential. Payload is the credential content as presented to
// the verifier; signature material defaults to the anchored proof when
// omitted.
type FullVerificationRequest struct {
	CredentialHash string `json:"credentialHash"`
	Payload        string `json:"payload,omitempty"`
	SignatureHex   string `json:"signatureHex,omitempty"`
	MethodID       string `json:"methodID,omitempty"`
}

// PolicyVerificationRequest narrows verification to the checks the supplied
// policy requires.
type PolicyVerificationRequest struct {
	CredentialHash string             `json:"credentialHash"`
	Payload        string             `json:"payload,omitempty"`
	SignatureHex   string             `json:"signatureHex,omitempty"`
	MethodID       string             `json:"methodID,omitempty"`
	Policy         VerificationPolicy `json:"policy"`
}

// PresentationRequest carries a holder's presentation of anchored
// credentials, signed over the canonical JSON of the hash list.
type PresentationRequest struct {
	CredentialHashes []string `json:"credentialHashes"`
	HolderID         string   `json:"holderID"`
	MethodID         string   `json:"methodID"`
	SignatureHex     string   `json:"signatureHex"`
}

// CredentialStatusSummary is the per-credential entry in batch and
// presentation results. Unknown hashes report Found false.
type CredentialStatusSummary struct {
	CredentialHash string                      `json:"credentialHash"`
	Found          bool                        `json:"found"`
	Status         validation.CredentialStatus `json:"status,omitempty"`
	Valid          bool                        `json:"valid"`
}

// PresentationOutcome reports a presentation verification: every credential
// must be effectively VALID and the holder signature must check out.
type PresentationOutcome struct {
	HolderID       string                    `json:"holderID"`
	Credentials    []CredentialStatusSummary `json:"credentials"`
	SignatureValid bool                      `json:"signatureValid"`
	SignatureError string                    `json:"signatureError,omitempty"`
	Valid          bool                      `json:"valid"`
	VerifiedAt     time.Time                 `json:"verifiedAt"`
}

// Verifier runs credential verification against pluggable providers: the
// status provider reads the credential registry, the signature verifier
// reaches the identity chaincode, the trust provider consults the issuer
// trust registry.
type Verifier struct {
	status     CredentialStatusProvider
	signatures SignatureVerifier
	trust      TrustProvider
	now        func() time.Time
}

// NewVerifier wires a verifier from its three providers.
func NewVerifier(status CredentialStatusProvider, signatures SignatureVerifier, trust TrustProvider) *Verifier {
	return &Verifier{
		status:     status,
		signatures: signatures,
		trust:      trust,
		now:        time.Now,
	}
}

// VerifyCredential runs all five checks and reports each one. Overall
// validity requires a non-revoked status, an unexpired credential, a good
// signature and a trusted issuer. The content match is reported but does
// not gate validity, a verifier may hold only the hash.
func (v *Verifier) VerifyCredential(stub shim.ChaincodeStubInterface, req *FullVerificationRequest) (*VerificationOutcome, error) {
	if strings.TrimSpace(req.CredentialHash) == "" {
		return nil, errors.NewValidation("credentialHash is required")
	}

	info, err := v.status.CredentialStatus(stub, req.CredentialHash)
	if err != nil {
		return nil, err
	}

	now := v.now()
	effective := info.EffectiveStatusAt(now)
	outcome := &VerificationOutcome{
		CredentialHash: info.CredentialHash,
		Status:         effective,
		VerifiedAt:     now,
	}

	outcome.StatusValid = effective == validation.CredentialStatusValid
	outcome.addCheck(CheckStatus, outcome.StatusValid, fmt.Sprintf("effective status is %s", effective))

	outcome.NotExpired = !info.ExpiredAt(now)
	outcome.addCheck(CheckExpiry, outcome.NotExpired, "")

	match, detail := v.contentMatches(info, req.Payload)
	outcome.ContentMatch = match
	outcome.addCheck(CheckContent, match, detail)

	sigValid, detail := v.signatureValid(stub, info, req.Payload, req.SignatureHex, req.MethodID)
	outcome.SignatureValid = sigValid
	outcome.addCheck(CheckSignature, sigValid, detail)

	trusted, detail := v.issuerTrusted(stub, info.IssuerID)
	outcome.IssuerTrusted = trusted
	outcome.addCheck(CheckTrust, trusted, detail)

	outcome.Valid = effective != validation.CredentialStatusRevoked &&
		outcome.NotExpired && outcome.SignatureValid && outcome.IssuerTrusted
	return outcome, nil
}

// VerifyWithPolicy runs only the checks the policy requires, in a fixed
// order: status, expiry, content, signature, trust. The first required
// check that fails short-circuits; later checks are reported as skipped.
func (v *Verifier) VerifyWithPolicy(stub shim.ChaincodeStubInterface, req *PolicyVerificationRequest) (*VerificationOutcome, error) {
	if strings.TrimSpace(req.CredentialHash) == "" {
		return nil, errors.NewValidation("credentialHash is required")
	}

	info, err := v.status.CredentialStatus(stub, req.CredentialHash)
	if err != nil {
		return nil, err
	}

	now := v.now()
	effective := info.EffectiveStatusAt(now)
	outcome := &VerificationOutcome{
		CredentialHash: info.CredentialHash,
		Status:         effective,
		Valid:          true,
		VerifiedAt:     now,
	}

	plan := []struct {
		name     string
		required bool
		run      func() (bool, string)
	}{
		{CheckStatus, req.Policy.RequireValidStatus, func() (bool, string) {
			if effective == validation.CredentialStatusValid {
				outcome.StatusValid = true
				return true, ""
			}
			if effective == validation.CredentialStatusSuspended && req.Policy.AllowSuspended {
				return true, "suspended credential accepted by policy"
			}
			return false, fmt.Sprintf("effective status is %s", effective)
		}},
		{CheckExpiry, req.Policy.RequireNotExpired, func() (bool, string) {
			outcome.NotExpired = !info.ExpiredAt(now)
			return outcome.NotExpired, ""
		}},
		{CheckContent, req.Policy.RequireContentMatch, func() (bool, string) {
			passed, detail := v.contentMatches(info, req.Payload)
			outcome.ContentMatch = passed
			return passed, detail
		}},
		{CheckSignature, req.Policy.RequireSignature, func() (bool, string) {
			passed, detail := v.signatureValid(stub, info, req.Payload, req.SignatureHex, req.MethodID)
			outcome.SignatureValid = passed
			return passed, detail
		}},
		{CheckTrust, req.Policy.RequireTrustedIssuer, func() (bool, string) {
			passed, detail := v.issuerTrusted(stub, info.IssuerID)
			outcome.IssuerTrusted = passed
			return passed, detail
		}},
	}

	for _, check := range plan {
		if !check.required {
			outcome.addSkipped(check.name, "not required by policy")
			continue
		}
		if !outcome.Valid {
			outcome.addSkipped(check.name, "short-circuited by an earlier failure")
			continue
		}
		passed, detail := check.run()
		outcome.addCheck(check.name, passed, detail)
		if !passed {
			outcome.Valid = false
		}
	}

	return outcome, nil
}

// VerifyPresentation checks a holder's presentation: every listed
// credential must be effectively VALID and the holder must sign the
// canonical JSON of the hash list with one of their verification methods.
func (v *Verifier) VerifyPresentation(stub shim.ChaincodeStubInterface, req *PresentationRequest) (*PresentationOutcome, error) {
	if err := validateBatchSize(len(req.CredentialHashes), "presentation"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.HolderID) == "" {
		return nil, errors.NewValidation("holderID is required")
	}
	if strings.TrimSpace(req.MethodID) == "" {
		return nil, errors.NewValidation("methodID is required")
	}
	if strings.TrimSpace(req.SignatureHex) == "" {
		return nil, errors.NewValidation("signatureHex is required")
	}

	now := v.now()
	outcome := &PresentationOutcome{
		HolderID:   req.HolderID,
		VerifiedAt: now,
	}

	allValid := true
	for _, hash := range req.CredentialHashes {
		summary, err := v.statusSummary(stub, hash, now)
		if err != nil {
			return nil, err
		}
		if !summary.Valid {
			allValid = false
		}
		outcome.Credentials = append(outcome.Credentials, summary)
	}

	message, err := crypto.CanonicalizeJSON(req.CredentialHashes)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize presentation: %v", err)
	}

	signatureValid, err := v.signatures.VerifySignature(stub, req.HolderID, req.MethodID, message, req.SignatureHex)
	if err != nil {
		outcome.SignatureError = err.Error()
		signatureValid = false
	}
	outcome.SignatureValid = signatureValid
	outcome.Valid = allValid && signatureValid
	return outcome, nil
}

// BatchVerify reports the effective status of up to MaxBatchSize anchored
// credentials. Unknown hashes are reported per entry rather than failing
// the batch.
func (v *Verifier) BatchVerify(stub shim.ChaincodeStubInterface, credentialHashes []string) ([]CredentialStatusSummary, error) {
	if err := validateBatchSize(len(credentialHashes), "batch verification"); err != nil {
		return nil, err
	}

	now := v.now()
	summaries := make([]CredentialStatusSummary, 0, len(credentialHashes))
	for _, hash := range credentialHashes {
		summary, err := v.statusSummary(stub, hash, now)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (v *Verifier) statusSummary(stub shim.ChaincodeStubInterface, credentialHash string, now time.Time) (CredentialStatusSummary, error) {
	info, err := v.status.CredentialStatus(stub, credentialHash)
	if err != nil {
		if errors.IsNotFound(err) {
			return CredentialStatusSummary{CredentialHash: credentialHash}, nil
		}
		return CredentialStatusSummary{}, err
	}

	effective := info.EffectiveStatusAt(now)
	return CredentialStatusSummary{
		CredentialHash: credentialHash,
		Found:          true,
		Status:         effective,
		Valid:          effective == validation.CredentialStatusValid,
	}, nil
}

func (v *Verifier) contentMatches(info *StatusInfo, payload string) (bool, string) {
	if payload == "" {
		return false, "no credential content supplied"
	}
	parsed, err := digest.Parse(info.CredentialHash)
	if err != nil {
		return false, fmt.Sprintf("anchored digest unparseable: %v", err)
	}
	verifier := parsed.Verifier()
	if _, err := verifier.Write([]byte(payload)); err != nil {
		return false, fmt.Sprintf("digest computation failed: %v", err)
	}
	if !verifier.Verified() {
		return false, "content digest does not match the anchored hash"
	}
	return true, ""
}

func (v *Verifier) signatureValid(stub shim.ChaincodeStubInterface, info *StatusInfo, payload, signatureHex, methodID string) (bool, string) {
	signature := signatureHex
	if signature == "" {
		signature = info.ProofSignatureHex
	}
	method := methodID
	if method == "" {
		method = info.ProofMethodID
	}
	if signature == "" || method == "" {
		return false, "no signature material anchored or supplied"
	}
	if payload == "" {
		return false, "signature check needs the credential content"
	}

	valid, err := v.signatures.VerifySignature(stub, info.IssuerID, method, []byte(payload), signature)
	if err != nil {
		return false, err.Error()
	}
	if !valid {
		return false, fmt.Sprintf("signature does not verify against %s", method)
	}
	return true, ""
}

func (v *Verifier) issuerTrusted(stub shim.ChaincodeStubInterface, issuerID string) (bool, string) {
	trusted, err := v.trust.IssuerTrusted(stub, issuerID)
	if err != nil {
		return false, err.Error()
	}
	if !trusted {
		return false, fmt.Sprintf("issuer %s is marked untrusted", issuerID)
	}
	return true, ""
}

func validateBatchSize(count int, operation string) error {
	if count == 0 {
		return errors.NewValidation("%s requires at least one credential hash", operation)
	}
	if count > config.MaxBatchSize {
		return errors.NewValidation("%s of %d credentials exceeds the limit of %d", operation, count, config.MaxBatchSize)
	}
	return nil
}
