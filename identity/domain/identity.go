package domain

import (
	"time"

	"github.com/blockchain-trust-platform/fabric-chaincode/shared/config"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/errors"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/interfaces"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/validation"
)

// Delegation permissions a controller can grant. An empty grant authorizes
// nothing, so requests must name at least one.
const (
	DelegationUpdateDocument = "UPDATE_DOCUMENT"
	DelegationManageMethods  = "MANAGE_METHODS"
	DelegationManageServices = "MANAGE_SERVICES"
	DelegationDeactivate     = "DEACTIVATE"
)

// KnownDelegationPermissions returns the permissions a delegation may carry.
func KnownDelegationPermissions() []string {
	return []string{
		DelegationUpdateDocument,
		DelegationManageMethods,
		DelegationManageServices,
		DelegationDeactivate,
	}
}

// RecoveryMethodSHA256Commitment is the only recovery method type in use.
const RecoveryMethodSHA256Commitment = "sha256-commitment"

// IdentityRecord represents a decentralized identifier and its document.
// Records are never deleted; REVOKED is a tombstone.
type IdentityRecord struct {
	IdentityID          string                    `json:"identityID"`
	Controller          string                    `json:"controller"`
	Document            map[string]interface{}    `json:"document"`
	Version             int                       `json:"version"`
	Status              validation.IdentityStatus `json:"status"`
	VerificationMethods []VerificationMethod      `json:"verificationMethods"`
	Services            []ServiceEndpoint         `json:"services"`
	Recovery            *RecoveryDescriptor       `json:"recovery,omitempty"`
	Delegation          *DelegationDescriptor     `json:"delegation,omitempty"`
	PortabilityProof    *PortabilityProof         `json:"portabilityProof,omitempty"`
	PortabilityScore    int                       `json:"portabilityScore"`
	CreatedDate         time.Time                 `json:"createdDate"`
	LastUpdated         time.Time                 `json:"lastUpdated"`
	CreatedBy           string                    `json:"createdBy"`
	LastUpdatedBy       string                    `json:"lastUpdatedBy"`
}

// VerificationMethod is a public key bound to the identity. MethodID is
// unique within the record and addressable as did:...#methodID.
type VerificationMethod struct {
	MethodID     string    `json:"methodID"`
	MethodType   string    `json:"methodType"`
	Controller   string    `json:"controller"`
	PublicKeyHex string    `json:"publicKeyHex"`
	AddedDate    time.Time `json:"addedDate"`
}

// ServiceEndpoint is a service advertised by the identity. ServiceID is
// unique within the record and addressable as did:...#serviceID.
type ServiceEndpoint struct {
	ServiceID   string    `json:"serviceID"`
	ServiceType string    `json:"serviceType"`
	Endpoint    string    `json:"endpoint"`
	AddedDate   time.Time `json:"addedDate"`
}

// RecoveryDescriptor holds the commitment and key a recovery proof is
// checked against. The secret itself never touches the ledger.
type RecoveryDescriptor struct {
	MethodType     string    `json:"methodType"`
	CommitmentHash string    `json:"commitmentHash"`
	RecoveryKeyHex string    `json:"recoveryKeyHex"`
	UpdatedDate    time.Time `json:"updatedDate"`
}

// DelegationDescriptor grants a delegatee a subset of control operations
// until the expiration date. At most one delegation is active per identity.
type DelegationDescriptor struct {
	Delegatee      string    `json:"delegatee"`
	Permissions    []string  `json:"permissions"`
	ExpirationDate time.Time `json:"expirationDate"`
	GrantedDate    time.Time `json:"grantedDate"`
	GrantedBy      string    `json:"grantedBy"`
}

// PortabilityProof carries the interoperability evidence supplied at
// registration. The derived score rewards each piece of evidence.
type PortabilityProof struct {
	StandardCompliance string   `json:"standardCompliance"`
	ExportFormats      []string `json:"exportFormats"`
	CrossChainAnchors  []string `json:"crossChainAnchors"`
	DocumentationURI   string   `json:"documentationURI"`
}

// IsExpired reports whether the delegation has lapsed.
func (d *DelegationDescriptor) IsExpired(now time.Time) bool {
	return !d.ExpirationDate.After(now)
}

// Covers reports whether the delegation's permission set includes the
// given permission. An empty set covers nothing.
func (d *DelegationDescriptor) Covers(permission string) bool {
	for _, p := range d.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// IsController reports whether the principal controls the record.
func (r *IdentityRecord) IsController(principal string) bool {
	return principal != "" && principal == r.Controller
}

// AuthorizeMutation checks that the principal may perform a mutation. The
// controller may perform anything; a delegatee needs an unexpired
// delegation covering delegationPermission. Controller-only operations pass
// an empty delegationPermission.
func (r *IdentityRecord) AuthorizeMutation(principal, delegationPermission string, now time.Time) error {
	if r.IsController(principal) {
		return nil
	}

	if delegationPermission != "" && r.Delegation != nil &&
		r.Delegation.Delegatee == principal &&
		!r.Delegation.IsExpired(now) &&
		r.Delegation.Covers(delegationPermission) {
		return nil
	}

	return errors.NewAuthorization("actor %s is not authorized to modify identity %s", principal, r.IdentityID)
}

// RequireStatus checks the record holds the expected status before a
// mutation proceeds.
func (r *IdentityRecord) RequireStatus(expected validation.IdentityStatus) error {
	if r.Status != expected {
		return errors.NewPolicyViolation("identity %s is %s, operation requires %s", r.IdentityID, r.Status, expected)
	}
	return nil
}

// Touch stamps the bookkeeping fields every successful mutation shares:
// version bump, update time, updating actor.
func (r *IdentityRecord) Touch(actorID string, now time.Time) {
	r.Version++
	r.LastUpdated = now
	r.LastUpdatedBy = actorID
}

// FindVerificationMethod returns the method with the given ID, or nil.
func (r *IdentityRecord) FindVerificationMethod(methodID string) *VerificationMethod {
	for i := range r.VerificationMethods {
		if r.VerificationMethods[i].MethodID == methodID {
			return &r.VerificationMethods[i]
		}
	}
	return nil
}

// FindService returns the service endpoint with the given ID, or nil.
func (r *IdentityRecord) FindService(serviceID string) *ServiceEndpoint {
	for i := range r.Services {
		if r.Services[i].ServiceID == serviceID {
			return &r.Services[i]
		}
	}
	return nil
}

// ComputePortabilityScore derives the 0-1000 portability score from the
// supplied proof. A registration without a proof earns the base score.
func ComputePortabilityScore(proof *PortabilityProof) int {
	score := config.PortabilityBase
	if proof == nil {
		return score
	}

	if proof.StandardCompliance != "" {
		score += config.PortabilityStandardBonus
	}

	formatBonus := len(proof.ExportFormats) * config.PortabilityExportFormatBonus
	if formatBonus > config.PortabilityExportFormatCap {
		formatBonus = config.PortabilityExportFormatCap
	}
	score += formatBonus

	if len(proof.CrossChainAnchors) > 0 {
		score += config.PortabilityCrossChainBonus
	}
	if proof.DocumentationURI != "" {
		score += config.PortabilityDocumentationBonus
	}

	if score > config.MaxScore {
		score = config.MaxScore
	}
	return score
}

// ============================================================================
// REQUEST TYPES
// ============================================================================

// Update kinds accepted by UpdateIdentity.
const (
	UpdateKindDocument    = "document"
	UpdateKindRecovery    = "recovery"
	UpdateKindPortability = "portability"
)

// IdentityRegistrationRequest creates a new identity record.
type IdentityRegistrationRequest struct {
	IdentityID          string                 `json:"identityID"`
	Controller          string                 `json:"controller"`
	Document            map[string]interface{} `json:"document"`
	Recovery            *RecoveryDescriptor    `json:"recovery,omitempty"`
	PortabilityProof    *PortabilityProof      `json:"portabilityProof,omitempty"`
	VerificationMethods []VerificationMethod   `json:"verificationMethods,omitempty"`
	Fee                 *interfaces.FeePayment `json:"fee,omitempty"`
	ActorID             string                 `json:"actorID"`
}

// IdentityUpdateRequest mutates one aspect of an identity record, selected
// by UpdateKind.
type IdentityUpdateRequest struct {
	IdentityID       string                 `json:"identityID"`
	UpdateKind       string                 `json:"updateKind"`
	Document         map[string]interface{} `json:"document,omitempty"`
	Recovery         *RecoveryDescriptor    `json:"recovery,omitempty"`
	PortabilityProof *PortabilityProof      `json:"portabilityProof,omitempty"`
	Fee              *interfaces.FeePayment `json:"fee,omitempty"`
	ActorID          string                 `json:"actorID"`
}

// IdentityLifecycleRequest deactivates, reactivates or revokes an identity.
type IdentityLifecycleRequest struct {
	IdentityID string `json:"identityID"`
	Reason     string `json:"reason,omitempty"`
	ActorID    string `json:"actorID"`
}

// ControlTransferRequest hands the record to a new controller.
type ControlTransferRequest struct {
	IdentityID    string `json:"identityID"`
	NewController string `json:"newController"`
	ActorID       string `json:"actorID"`
}

// DelegationRequest grants scoped control to a delegatee.
type DelegationRequest struct {
	IdentityID     string    `json:"identityID"`
	Delegatee      string    `json:"delegatee"`
	Permissions    []string  `json:"permissions"`
	ExpirationDate time.Time `json:"expirationDate"`
	ActorID        string    `json:"actorID"`
}

// RecoveryRequest reclaims control with a recovery proof instead of caller
// authorization.
type RecoveryRequest struct {
	IdentityID     string `json:"identityID"`
	RecoverySecret string `json:"recoverySecret"`
	SignatureHex   string `json:"signatureHex"`
	NewController  string `json:"newController"`
	ActorID        string `json:"actorID"`
}

// VerificationMethodRequest adds or removes a verification method.
type VerificationMethodRequest struct {
	IdentityID   string `json:"identityID"`
	MethodID     string `json:"methodID"`
	MethodType   string `json:"methodType,omitempty"`
	PublicKeyHex string `json:"publicKeyHex,omitempty"`
	ActorID      string `json:"actorID"`
}

// ServiceEndpointRequest adds or removes a service endpoint.
type ServiceEndpointRequest struct {
	IdentityID  string `json:"identityID"`
	ServiceID   string `json:"serviceID"`
	ServiceType string `json:"serviceType,omitempty"`
	Endpoint    string `json:"endpoint,omitempty"`
	ActorID     string `json:"actorID"`
}
