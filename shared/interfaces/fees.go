package interfaces

// FeePayment is the payment reference submitted with a fee-bearing request
type FeePayment struct {
	Amount     int64  `json:"amount"`
	AssetCode  string `json:"assetCode"`
	PaymentRef string `json:"paymentRef,omitempty"`
}

// FeeValidator decides whether a submitted payment satisfies the fee for an
// operation. Settlement of the underlying transfer happens outside the
// chaincode; this predicate only accepts or rejects the reference.
type FeeValidator interface {
	ValidateFee(operation string, fee *FeePayment) error
}
