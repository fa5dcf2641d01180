package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/hyperledger/fabric-chaincode-go/shim"

	"github.com/blockchain-trust-platform/fabric-chaincode/shared/config"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/errors"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/validation"
)

// AttestationSource is the registry surface the analyzer reads.
type AttestationSource interface {
	SubjectAttestations(stub shim.ChaincodeStubInterface, subjectID string) ([]*AttestationRecord, error)
	SubjectAggregate(stub shim.ChaincodeStubInterface, subjectID string) (*SubjectAggregate, error)
	CategoryAggregates(stub shim.ChaincodeStubInterface, subjectID string) ([]*SubjectAggregate, error)
}

// ReliabilityStore is the attester reliability cache the analyzer maintains.
type ReliabilityStore interface {
	Reliability(stub shim.ChaincodeStubInterface, attesterID string) (*AttesterReliability, error)
	SaveReliability(stub shim.ChaincodeStubInterface, reliability *AttesterReliability) error
}

// InsightStore persists analysis results and their snapshot history.
// SnapshotBefore returns the most recent snapshot taken at or before the
// cutoff, or nil when none is old enough.
type InsightStore interface {
	Insight(stub shim.ChaincodeStubInterface, subjectID string) (*ReputationInsight, error)
	SaveInsight(stub shim.ChaincodeStubInterface, insight *ReputationInsight) error
	SnapshotBefore(stub shim.ChaincodeStubInterface, subjectID string, cutoff time.Time) (*ScoreSnapshot, error)
	SaveSnapshot(stub shim.ChaincodeStubInterface, snapshot *ScoreSnapshot) error
}

// AnalysisRequest carries the input for recomputing a subject's insight
type AnalysisRequest struct {
	SubjectID string `json:"subjectID"`
	ActorID   string `json:"actorID"`
}

// WeightedEntry pairs one contributing score with its attester weight.
type WeightedEntry struct {
	Score  int
	Weight int
}

// WeightedScore computes sum(score*weight)/sum(weight) in integer
// arithmetic. Equal weights degenerate to the arithmetic mean.
func WeightedScore(entries []WeightedEntry) int {
	var weightedSum, weightSum int
	for _, entry := range entries {
		weightedSum += entry.Score * entry.Weight
		weightSum += entry.Weight
	}
	if weightSum == 0 {
		return 0
	}
	return weightedSum / weightSum
}

// ElapsedDays counts the whole days between two instants. A zero or
// not-yet-reached starting point counts as zero days.
func ElapsedDays(from, to time.Time) int {
	if from.IsZero() || !to.After(from) {
		return 0
	}
	return int(to.Sub(from).Hours() / 24)
}

// DecayScore applies linear staleness decay: ratePerDay basis points of
// the score ceiling per elapsed whole day, floored at zero. Zero elapsed
// days leaves the score untouched, which is what makes re-analysis within
// the same day window apply no further decay.
func DecayScore(score, days, ratePerDay int) int {
	factor := config.MaxScore - days*ratePerDay
	if factor < 0 {
		factor = 0
	}
	return score * factor / config.MaxScore
}

// ClassifyTrend compares the fresh score against the baseline snapshot.
// Movement within the epsilon band, or the absence of a baseline, reads as
// STABLE.
func ClassifyTrend(current int, baseline *ScoreSnapshot) Trend {
	if baseline == nil {
		return TrendStable
	}

	diff := current - baseline.Score
	switch {
	case diff > config.TrendEpsilon:
		return TrendImproving
	case diff < -config.TrendEpsilon:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// ReliabilityScore blends the average attester reliability with a
// count-saturation factor, then scales linearly while the attestation
// count is below the configured minimum. The scaling keeps the function
// continuous at the boundary.
func ReliabilityScore(count, avgReliability int) int {
	if count <= 0 {
		return 0
	}

	saturating := count
	if saturating > config.ReliabilitySaturationCount {
		saturating = config.ReliabilitySaturationCount
	}
	saturation := config.MaxScore * saturating / config.ReliabilitySaturationCount

	reliability := (avgReliability + saturation) / 2
	if count < config.MinAttestationsForReliability {
		reliability = reliability * count / config.MinAttestationsForReliability
	}
	return validation.ClampScore(reliability)
}

// Analyzer recomputes reputation insights from the attestation registry.
// Insights are derived data: safe to discard, rebuilt on every analysis.
type Analyzer struct {
	source      AttestationSource
	reliability ReliabilityStore
	insights    InsightStore
	now         func() time.Time
}

// NewAnalyzer creates an analyzer over the given stores
func NewAnalyzer(source AttestationSource, reliability ReliabilityStore, insights InsightStore) *Analyzer {
	return &Analyzer{
		source:      source,
		reliability: reliability,
		insights:    insights,
		now:         time.Now,
	}
}

// Analyze recomputes and persists the subject's insight plus a dated score
// snapshot. Only effectively VALID attestations contribute. Decay is
// measured in whole days from the previous insight's analysis timestamp,
// so repeating the analysis within the same day applies no further decay.
func (a *Analyzer) Analyze(stub shim.ChaincodeStubInterface, req *AnalysisRequest) (*ReputationInsight, error) {
	now := a.now()

	attestations, err := a.source.SubjectAttestations(stub, req.SubjectID)
	if err != nil {
		return nil, err
	}

	var contributing []*AttestationRecord
	for _, record := range attestations {
		if record.EffectiveStatus(now) == validation.AttestationStatusValid {
			contributing = append(contributing, record)
		}
	}
	if len(contributing) == 0 {
		return nil, errors.NewNotFound("subject %s has no valid attestations to analyze", req.SubjectID)
	}

	entries := make([]WeightedEntry, len(contributing))
	reliabilitySum := 0
	for i, record := range contributing {
		attesterReliability, err := a.attesterReliability(stub, record.AttesterID, now)
		if err != nil {
			return nil, err
		}
		reliabilitySum += attesterReliability
		entries[i] = WeightedEntry{
			Score:  record.Score,
			Weight: config.BaseAttestationWeight + attesterReliability,
		}
	}
	weighted := WeightedScore(entries)

	previous, err := a.insights.Insight(stub, req.SubjectID)
	if err != nil && !errors.IsNotFound(err) {
		return nil, err
	}
	days := 0
	if previous != nil {
		days = ElapsedDays(previous.LastAnalyzed, now)
	}
	decayed := DecayScore(weighted, days, config.DecayRateBasisPoints)

	categoryScores, err := a.categoryScores(stub, req.SubjectID)
	if err != nil {
		return nil, err
	}

	baseline, err := a.insights.SnapshotBefore(stub, req.SubjectID, now.AddDate(0, 0, -config.TrendWindowDays))
	if err != nil {
		return nil, err
	}

	insight := &ReputationInsight{
		SubjectID:        req.SubjectID,
		OverallScore:     decayed,
		CategoryScores:   categoryScores,
		Trend:            ClassifyTrend(decayed, baseline),
		Reliability:      ReliabilityScore(len(contributing), reliabilitySum/len(contributing)),
		AttestationCount: len(contributing),
		LastAnalyzed:     now,
		AnalyzedBy:       req.ActorID,
	}
	if err := a.insights.SaveInsight(stub, insight); err != nil {
		return nil, err
	}

	snapshot := &ScoreSnapshot{
		SnapshotID:  uuid.New().String(),
		SubjectID:   req.SubjectID,
		Score:       insight.OverallScore,
		Reliability: insight.Reliability,
		Timestamp:   now,
	}
	if err := a.insights.SaveSnapshot(stub, snapshot); err != nil {
		return nil, err
	}

	return insight, nil
}

// attesterReliability returns the cached reliability for an attester. The
// first observation seeds the cache from the attester's own overall
// aggregate, or the platform default when the attester has none.
func (a *Analyzer) attesterReliability(stub shim.ChaincodeStubInterface, attesterID string, now time.Time) (int, error) {
	cached, err := a.reliability.Reliability(stub, attesterID)
	if err != nil && !errors.IsNotFound(err) {
		return 0, err
	}
	if cached != nil {
		return cached.Reliability, nil
	}

	seed := config.DefaultReliability
	source := ReliabilitySourceDefault
	aggregate, err := a.source.SubjectAggregate(stub, attesterID)
	switch {
	case err == nil:
		seed = aggregate.Score
		source = ReliabilitySourceAggregate
	case !errors.IsNotFound(err):
		return 0, err
	}

	record := &AttesterReliability{
		AttesterID:  attesterID,
		Reliability: seed,
		Source:      source,
		CachedDate:  now,
	}
	if err := a.reliability.SaveReliability(stub, record); err != nil {
		return 0, err
	}
	return seed, nil
}

func (a *Analyzer) categoryScores(stub shim.ChaincodeStubInterface, subjectID string) (map[string]int, error) {
	aggregates, err := a.source.CategoryAggregates(stub, subjectID)
	if err != nil {
		return nil, err
	}

	scores := make(map[string]int, len(aggregates))
	for _, aggregate := range aggregates {
		if aggregate.Count > 0 {
			scores[aggregate.Category] = aggregate.Score
		}
	}
	if len(scores) == 0 {
		return nil, nil
	}
	return scores, nil
}
