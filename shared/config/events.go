package config

// Event names for cross-chaincode communication
const (
	// Identity events
	EventIdentityRegistered        = "IdentityRegistered"
	EventIdentityUpdated           = "IdentityUpdated"
	EventIdentityDeactivated       = "IdentityDeactivated"
	EventIdentityReactivated       = "IdentityReactivated"
	EventIdentityRevoked           = "IdentityRevoked"
	EventControlTransferred        = "ControlTransferred"
	EventControlDelegated          = "ControlDelegated"
	EventDelegationRevoked         = "DelegationRevoked"
	EventIdentityRecovered         = "IdentityRecovered"
	EventVerificationMethodAdded   = "VerificationMethodAdded"
	EventVerificationMethodRemoved = "VerificationMethodRemoved"
	EventServiceAdded              = "ServiceAdded"
	EventServiceRemoved            = "ServiceRemoved"

	// Credential events
	EventCredentialAnchored   = "CredentialAnchored"
	EventCredentialRevoked    = "CredentialRevoked"
	EventCredentialSuspended  = "CredentialSuspended"
	EventCredentialReinstated = "CredentialReinstated"
	EventCredentialExpired    = "CredentialExpired"
	EventIssuerTrustUpdated   = "IssuerTrustUpdated"

	// Reputation events
	EventAttestationRecorded = "AttestationRecorded"
	EventAttestationDisputed = "AttestationDisputed"
	EventDisputeResolved     = "DisputeResolved"
	EventAttestationRevoked  = "AttestationRevoked"
	EventAttestationExpired  = "AttestationExpired"
	EventReputationAnalyzed  = "ReputationAnalyzed"

	// Shared events
	EventActorRegistered = "ActorRegistered"
)
