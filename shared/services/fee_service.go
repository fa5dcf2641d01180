package services

import (
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/config"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/errors"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/interfaces"
)

// ScheduleFeeValidator checks submitted payments against the compile-time
// fee schedule. It validates the reference only; moving the funds is the
// token ledger's business, not the chaincode's.
type ScheduleFeeValidator struct {
	schedule map[string]int64
}

// NewScheduleFeeValidator creates a fee validator with the platform schedule
func NewScheduleFeeValidator() *ScheduleFeeValidator {
	return &ScheduleFeeValidator{
		schedule: map[string]int64{
			"RegisterIdentity":   config.FeeRegisterIdentity,
			"UpdateIdentity":     config.FeeUpdateIdentity,
			"AnchorCredential":   config.FeeAnchorCredential,
			"RecordAttestation":  config.FeeRecordAttestation,
			"DisputeAttestation": config.FeeDisputeAttestation,
		},
	}
}

// ValidateFee checks a submitted payment against the schedule. Operations
// without a schedule entry are free.
func (v *ScheduleFeeValidator) ValidateFee(operation string, fee *interfaces.FeePayment) error {
	required, exists := v.schedule[operation]
	if !exists || required == 0 {
		return nil
	}

	if fee == nil {
		return errors.NewValidation("operation %s requires a fee of %d %s", operation, required, config.FeeAssetCode)
	}
	if fee.AssetCode != config.FeeAssetCode {
		return errors.NewValidation("fee for %s must be paid in %s, got %s", operation, config.FeeAssetCode, fee.AssetCode)
	}
	if fee.Amount < required {
		return errors.NewValidation("fee %d below required %d for operation %s", fee.Amount, required, operation)
	}

	return nil
}
