package config

// Entity prefixes for consistent key generation
const (
	// Identity domain prefixes
	IdentityPrefix          = "IDENTITY"
	IdentityControllerIndex = "IDENTITY_CONTROLLER"

	// Credential domain prefixes
	CredentialPrefix       = "CREDENTIAL"
	CredentialIssuerIndex  = "CREDENTIAL_ISSUER"
	CredentialSubjectIndex = "CREDENTIAL_SUBJECT"
	CredentialSchemaIndex  = "CREDENTIAL_SCHEMA"
	IssuerTrustPrefix      = "ISSUER_TRUST"

	// Reputation domain prefixes
	AttestationPrefix        = "ATTESTATION"
	AttestationSubjectIndex  = "ATTESTATION_SUBJECT"
	AttestationAttesterIndex = "ATTESTATION_ATTESTER"
	AttestationCategoryIndex = "ATTESTATION_CATEGORY"
	DisputePrefix            = "DISPUTE"
	DisputeAttestationIndex  = "DISPUTE_ATTESTATION"
	AggregatePrefix          = "AGGREGATE"
	CategoryAggregateIndex   = "AGGREGATE_CATEGORY"
	ReliabilityPrefix        = "RELIABILITY"
	InsightPrefix            = "INSIGHT"
	InsightHistoryIndex      = "INSIGHT_HISTORY"

	// Shared prefixes
	ActorPrefix   = "ACTOR"
	HistoryPrefix = "HIST"
)
