package domain

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/hyperledger/fabric-chaincode-go/shim"

	"github.com/blockchain-trust-platform/fabric-chaincode/shared/config"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/crypto"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/errors"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/validation"
)

// ResolutionResult is what a DID URL resolves to. Without a fragment the
// whole record is returned; with a fragment only the matching verification
// method or service endpoint is set.
type ResolutionResult struct {
	IdentityID         string              `json:"identityID"`
	Fragment           string              `json:"fragment,omitempty"`
	Record             *IdentityRecord     `json:"record,omitempty"`
	VerificationMethod *VerificationMethod `json:"verificationMethod,omitempty"`
	Service            *ServiceEndpoint    `json:"service,omitempty"`
}

type cacheEntry struct {
	record   *IdentityRecord
	cachedAt time.Time
}

// Resolver reads identity records with an in-process TTL cache in front of
// the state database. The cache is advisory: mutation paths read the store
// directly and invalidate their entry, so a stale read can only serve a
// record the ledger held within the last TTL window.
type Resolver struct {
	mu      sync.Mutex
	cache   map[string]cacheEntry
	ttl     time.Duration
	maxSize int
	now     func() time.Time
}

// NewResolver creates a resolver with the configured TTL and capacity.
func NewResolver() *Resolver {
	return NewResolverWithTTL(config.ResolverCacheTTL, config.ResolverCacheMaxSize)
}

// NewResolverWithTTL creates a resolver with explicit cache tuning.
func NewResolverWithTTL(ttl time.Duration, maxSize int) *Resolver {
	return &Resolver{
		cache:   make(map[string]cacheEntry),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Resolve returns the identity record for a DID, serving from cache when
// the entry is fresh.
func (r *Resolver) Resolve(stub shim.ChaincodeStubInterface, identityID string) (*IdentityRecord, error) {
	if err := validation.ValidateDID(identityID); err != nil {
		return nil, err
	}

	r.mu.Lock()
	entry, cached := r.cache[identityID]
	if cached && r.now().Sub(entry.cachedAt) < r.ttl {
		r.mu.Unlock()
		return entry.record, nil
	}
	r.mu.Unlock()

	record, err := r.readRecord(stub, identityID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if len(r.cache) >= r.maxSize {
		r.evictOldestLocked()
	}
	r.cache[identityID] = cacheEntry{record: record, cachedAt: r.now()}
	r.mu.Unlock()

	return record, nil
}

// ResolveUrl resolves a DID URL, narrowing to the verification method or
// service endpoint named by the fragment.
func (r *Resolver) ResolveUrl(stub shim.ChaincodeStubInterface, didURL string) (*ResolutionResult, error) {
	identityID, fragment, err := validation.ValidateDIDFragmentURL(didURL)
	if err != nil {
		return nil, err
	}

	record, err := r.Resolve(stub, identityID)
	if err != nil {
		return nil, err
	}

	result := &ResolutionResult{IdentityID: identityID, Fragment: fragment}
	if fragment == "" {
		result.Record = record
		return result, nil
	}

	if method := record.FindVerificationMethod(fragment); method != nil {
		result.VerificationMethod = method
		return result, nil
	}
	if service := record.FindService(fragment); service != nil {
		result.Service = service
		return result, nil
	}

	return nil, errors.NewNotFound("identity %s has no verification method or service %s", identityID, fragment)
}

// VerifySignature checks a signature against a verification method of the
// identity. Deactivated and revoked identities fail verification.
func (r *Resolver) VerifySignature(stub shim.ChaincodeStubInterface, identityID, methodID string, message []byte, signatureHex string) (bool, error) {
	record, err := r.Resolve(stub, identityID)
	if err != nil {
		return false, err
	}

	if record.Status != validation.IdentityStatusActive {
		return false, errors.NewPolicyViolation("identity %s is %s and cannot attest signatures", identityID, record.Status)
	}

	method := record.FindVerificationMethod(methodID)
	if method == nil {
		return false, errors.NewNotFound("identity %s has no verification method %s", identityID, methodID)
	}

	return crypto.VerifySignature(message, signatureHex, method.PublicKeyHex)
}

// Invalidate drops the cached entry for an identity. Mutation handlers call
// this after every successful write.
func (r *Resolver) Invalidate(identityID string) {
	r.mu.Lock()
	delete(r.cache, identityID)
	r.mu.Unlock()
}

// CacheSize reports the number of live cache entries.
func (r *Resolver) CacheSize() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}

func (r *Resolver) readRecord(stub shim.ChaincodeStubInterface, identityID string) (*IdentityRecord, error) {
	key := fmt.Sprintf("%s_%s", config.IdentityPrefix, identityID)
	data, err := stub.GetState(key)
	if err != nil {
		return nil, fmt.Errorf("failed to read identity %s: %v", identityID, err)
	}
	if data == nil {
		return nil, errors.NewNotFound("identity %s not found", identityID)
	}

	var record IdentityRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal identity %s: %v", identityID, err)
	}
	return &record, nil
}

// evictOldestLocked removes the entry with the oldest cache time. Caller
// holds the lock.
func (r *Resolver) evictOldestLocked() {
	var oldestID string
	var oldestAt time.Time
	first := true
	for id, entry := range r.cache {
		if first || entry.cachedAt.Before(oldestAt) {
			oldestID = id
			oldestAt = entry.cachedAt
			first = false
		}
	}
	if oldestID != "" {
		delete(r.cache, oldestID)
	}
}
