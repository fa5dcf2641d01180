package domain

import "time"

// IssuerTrustRecord is a deny-list entry in the issuer trust registry. An
// issuer with no record is trusted; a record exists only once an authority
// has explicitly ruled on the issuer.
type IssuerTrustRecord struct {
	IssuerID    string    `json:"issuerID"`
	Trusted     bool      `json:"trusted"`
	Reason      string    `json:"reason,omitempty"`
	UpdatedBy   string    `json:"updatedBy,omitempty"`
	UpdatedDate time.Time `json:"updatedDate"`
}

// ImplicitTrust returns the registry answer for an issuer nobody has ruled
// on yet.
func ImplicitTrust(issuerID string) *IssuerTrustRecord {
	return &IssuerTrustRecord{
		IssuerID: issuerID,
		Trusted:  true,
	}
}

// IssuerTrustRequest carries a trust registry update.
type IssuerTrustRequest struct {
	IssuerID string `json:"issuerID"`
	Trusted  bool   `json:"trusted"`
	Reason   string `json:"reason,omitempty"`
	ActorID  string `json:"actorID"`
}
