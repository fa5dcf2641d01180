package config

import "time"

// Application constants
const (
	// Validation limits
	MaxStringLength        = 1000
	MaxURILength           = 500
	MaxReasonLength        = 2000
	MaxDocumentBytes       = 16384
	MaxVerificationMethods = 25
	MaxServiceEndpoints    = 25

	// Score bounds
	MinScore = 0
	MaxScore = 1000

	// Batch limits. The cap is a functional contract: inputs above it are
	// rejected, never truncated.
	MaxBatchSize = 10

	// Resolver cache
	ResolverCacheTTL     = 5 * time.Minute
	ResolverCacheMaxSize = 256

	// Reputation analyzer tuning
	BaseAttestationWeight         = 500
	DefaultReliability            = 500
	DecayRateBasisPoints          = 5
	MinAttestationsForReliability = 5
	ReliabilitySaturationCount    = 10
	TrendWindowDays               = 7
	TrendEpsilon                  = 50

	// Verifiability scoring (anchor-time evidence completeness)
	VerifiabilityBase           = 250
	VerifiabilitySignatureBonus = 250
	VerifiabilityEvidenceBonus  = 200
	VerifiabilitySchemaBonus    = 150
	VerifiabilityTermsBonus     = 150

	// Portability scoring (registration-time interoperability features)
	PortabilityBase               = 250
	PortabilityStandardBonus      = 250
	PortabilityExportFormatBonus  = 125
	PortabilityExportFormatCap    = 250
	PortabilityCrossChainBonus    = 150
	PortabilityDocumentationBonus = 100
)

// Fee schedule, denominated in the platform asset
const (
	FeeAssetCode          = "TRST"
	FeeRegisterIdentity   = int64(100)
	FeeUpdateIdentity     = int64(25)
	FeeAnchorCredential   = int64(50)
	FeeRecordAttestation  = int64(20)
	FeeDisputeAttestation = int64(200)
)

// Cross-chaincode names as deployed on the channel
const (
	IdentityChaincodeName   = "identity"
	CredentialChaincodeName = "credential"
	ReputationChaincodeName = "reputation"
)

// Attestation categories recognized by the analyzer
var AttestationCategories = []string{
	"technical",
	"financial",
	"social",
	"compliance",
	"general",
}
