package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-chaincode-go/shimtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockchain-trust-platform/fabric-chaincode/shared/errors"
	"github.com/blockchain-trust-platform/fabric-chaincode/shared/validation"
)

type fakeRegistry struct {
	attestations map[string][]*AttestationRecord
	aggregates   map[string]*SubjectAggregate
	categories   map[string][]*SubjectAggregate
}

func (f *fakeRegistry) SubjectAttestations(_ shim.ChaincodeStubInterface, subjectID string) ([]*AttestationRecord, error) {
	return f.attestations[subjectID], nil
}

func (f *fakeRegistry) SubjectAggregate(_ shim.ChaincodeStubInterface, subjectID string) (*SubjectAggregate, error) {
	aggregate, ok := f.aggregates[subjectID]
	if !ok {
		return nil, errors.NewNotFound("no aggregate recorded for subject %s", subjectID)
	}
	return aggregate, nil
}

func (f *fakeRegistry) CategoryAggregates(_ shim.ChaincodeStubInterface, subjectID string) ([]*SubjectAggregate, error) {
	return f.categories[subjectID], nil
}

type fakeReliabilityStore struct {
	cache map[string]*AttesterReliability
	saves int
}

func (f *fakeReliabilityStore) Reliability(_ shim.ChaincodeStubInterface, attesterID string) (*AttesterReliability, error) {
	cached, ok := f.cache[attesterID]
	if !ok {
		return nil, errors.NewNotFound("no reliability cached for attester %s", attesterID)
	}
	return cached, nil
}

func (f *fakeReliabilityStore) SaveReliability(_ shim.ChaincodeStubInterface, reliability *AttesterReliability) error {
	f.cache[reliability.AttesterID] = reliability
	f.saves++
	return nil
}

type fakeInsightStore struct {
	insight   *ReputationInsight
	snapshots []*ScoreSnapshot
}

func (f *fakeInsightStore) Insight(_ shim.ChaincodeStubInterface, subjectID string) (*ReputationInsight, error) {
	if f.insight == nil {
		return nil, errors.NewNotFound("subject %s has not been analyzed", subjectID)
	}
	return f.insight, nil
}

func (f *fakeInsightStore) SaveInsight(_ shim.ChaincodeStubInterface, insight *ReputationInsight) error {
	f.insight = insight
	return nil
}

func (f *fakeInsightStore) SnapshotBefore(_ shim.ChaincodeStubInterface, subjectID string, cutoff time.Time) (*ScoreSnapshot, error) {
	var baseline *ScoreSnapshot
	for _, snapshot := range f.snapshots {
		if snapshot.Timestamp.After(cutoff) {
			continue
		}
		if baseline == nil || snapshot.Timestamp.After(baseline.Timestamp) {
			baseline = snapshot
		}
	}
	return baseline, nil
}

func (f *fakeInsightStore) SaveSnapshot(_ shim.ChaincodeStubInterface, snapshot *ScoreSnapshot) error {
	f.snapshots = append(f.snapshots, snapshot)
	return nil
}

func analyzerFixture(at time.Time) (*Analyzer, *fakeRegistry, *fakeReliabilityStore, *fakeInsightStore) {
	registry := &fakeRegistry{
		attestations: map[string][]*AttestationRecord{},
		aggregates:   map[string]*SubjectAggregate{},
		categories:   map[string][]*SubjectAggregate{},
	}
	reliability := &fakeReliabilityStore{cache: map[string]*AttesterReliability{}}
	insights := &fakeInsightStore{}

	analyzer := NewAnalyzer(registry, reliability, insights)
	analyzer.now = func() time.Time { return at }
	return analyzer, registry, reliability, insights
}

func contributingAttestation(id, attesterID string, score int, at time.Time) *AttestationRecord {
	return &AttestationRecord{
		AttestationID:  id,
		AttesterID:     attesterID,
		SubjectID:      "did:trust:subject",
		Category:       "general",
		Score:          score,
		Timestamp:      at,
		ExpirationDate: at.Add(365 * 24 * time.Hour),
		Status:         validation.AttestationStatusValid,
	}
}

func TestWeightedScore(t *testing.T) {
	tests := []struct {
		name     string
		entries  []WeightedEntry
		expected int
	}{
		{
			name:     "no entries",
			expected: 0,
		},
		{
			name:     "equal weights degenerate to the mean",
			entries:  []WeightedEntry{{900, 1000}, {800, 1000}, {700, 1000}},
			expected: 800,
		},
		{
			name:     "heavier attester pulls the score",
			entries:  []WeightedEntry{{900, 1500}, {400, 1000}},
			expected: 700,
		},
		{
			name:     "single entry",
			entries:  []WeightedEntry{{640, 700}},
			expected: 640,
		},
		{
			name:     "integer division truncates",
			entries:  []WeightedEntry{{1, 1}, {0, 1}},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, WeightedScore(tt.entries))
		})
	}
}

func TestElapsedDays(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, ElapsedDays(time.Time{}, base))
	assert.Equal(t, 0, ElapsedDays(base, base))
	assert.Equal(t, 0, ElapsedDays(base, base.Add(-time.Hour)))
	assert.Equal(t, 0, ElapsedDays(base, base.Add(23*time.Hour)))
	assert.Equal(t, 1, ElapsedDays(base, base.Add(24*time.Hour)))
	assert.Equal(t, 10, ElapsedDays(base, base.Add(10*24*time.Hour+time.Hour)))
}

func TestDecayScore(t *testing.T) {
	tests := []struct {
		name     string
		score    int
		days     int
		expected int
	}{
		{"no elapsed days leaves the score untouched", 800, 0, 800},
		{"ten days shave five percent", 800, 10, 760},
		{"hundred days halve the score", 800, 100, 400},
		{"two hundred days exhaust the score", 800, 200, 0},
		{"decay floors at zero", 800, 500, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DecayScore(tt.score, tt.days, 5))
		})
	}
}

func TestClassifyTrend(t *testing.T) {
	assert.Equal(t, TrendStable, ClassifyTrend(800, nil))
	assert.Equal(t, TrendImproving, ClassifyTrend(800, &ScoreSnapshot{Score: 749}))
	assert.Equal(t, TrendStable, ClassifyTrend(800, &ScoreSnapshot{Score: 750}))
	assert.Equal(t, TrendStable, ClassifyTrend(800, &ScoreSnapshot{Score: 850}))
	assert.Equal(t, TrendDeclining, ClassifyTrend(800, &ScoreSnapshot{Score: 851}))
}

func TestReliabilityScore(t *testing.T) {
	tests := []struct {
		name     string
		count    int
		average  int
		expected int
	}{
		{"no attestations", 0, 500, 0},
		{"negative count", -1, 500, 0},
		{"one attestation barely registers", 1, 0, 10},
		{"three attestations scale down", 3, 500, 240},
		{"four attestations", 4, 500, 360},
		{"five attestations drop the scaling", 5, 500, 500},
		{"ten attestations saturate", 10, 1000, 1000},
		{"count past saturation changes nothing", 25, 1000, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ReliabilityScore(tt.count, tt.average))
		})
	}
}

func TestAnalyzeComputesInsight(t *testing.T) {
	stub := shimtest.NewMockStub("reputation", nil)
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	analyzer, registry, reliability, insights := analyzerFixture(at)

	registry.attestations["did:trust:subject"] = []*AttestationRecord{
		contributingAttestation("att-1", "did:trust:alice", 900, at),
		contributingAttestation("att-2", "did:trust:bob", 800, at),
		contributingAttestation("att-3", "did:trust:carol", 700, at),
	}
	registry.categories["did:trust:subject"] = []*SubjectAggregate{
		{SubjectID: "did:trust:subject", Category: "general", Score: 775, Count: 3, LastUpdated: at},
		{SubjectID: "did:trust:subject", Category: "technical", Score: 0, Count: 0},
	}

	insight, err := analyzer.Analyze(stub, &AnalysisRequest{SubjectID: "did:trust:subject", ActorID: "analyst-1"})
	require.NoError(t, err)

	// Unknown attesters all seed the default reliability, so the weights
	// are equal and the weighted score is the plain mean.
	assert.Equal(t, 800, insight.OverallScore)
	assert.Equal(t, 3, insight.AttestationCount)
	assert.Equal(t, TrendStable, insight.Trend)
	assert.Equal(t, 240, insight.Reliability)
	assert.Equal(t, map[string]int{"general": 775}, insight.CategoryScores)
	assert.True(t, insight.LastAnalyzed.Equal(at))
	assert.Equal(t, "analyst-1", insight.AnalyzedBy)

	assert.Equal(t, insight, insights.insight)
	require.Len(t, insights.snapshots, 1)
	snapshot := insights.snapshots[0]
	_, err = uuid.Parse(snapshot.SnapshotID)
	require.NoError(t, err)
	assert.Equal(t, 800, snapshot.Score)
	assert.Equal(t, 240, snapshot.Reliability)
	assert.True(t, snapshot.Timestamp.Equal(at))

	assert.Equal(t, 3, reliability.saves)
	for _, attester := range []string{"did:trust:alice", "did:trust:bob", "did:trust:carol"} {
		cached := reliability.cache[attester]
		require.NotNil(t, cached, attester)
		assert.Equal(t, 500, cached.Reliability)
		assert.Equal(t, ReliabilitySourceDefault, cached.Source)
	}
}

func TestAnalyzeSeedsReliabilityFromAttesterAggregate(t *testing.T) {
	stub := shimtest.NewMockStub("reputation", nil)
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	analyzer, registry, reliability, _ := analyzerFixture(at)

	registry.attestations["did:trust:subject"] = []*AttestationRecord{
		contributingAttestation("att-1", "did:trust:veteran", 900, at),
		contributingAttestation("att-2", "did:trust:newcomer", 400, at),
	}
	registry.aggregates["did:trust:veteran"] = &SubjectAggregate{SubjectID: "did:trust:veteran", Score: 1000, Count: 8}

	insight, err := analyzer.Analyze(stub, &AnalysisRequest{SubjectID: "did:trust:subject", ActorID: "analyst-1"})
	require.NoError(t, err)

	// veteran weighs 500+1000, newcomer 500+500: (900*1500+400*1000)/2500.
	assert.Equal(t, 700, insight.OverallScore)

	veteran := reliability.cache["did:trust:veteran"]
	require.NotNil(t, veteran)
	assert.Equal(t, 1000, veteran.Reliability)
	assert.Equal(t, ReliabilitySourceAggregate, veteran.Source)

	newcomer := reliability.cache["did:trust:newcomer"]
	require.NotNil(t, newcomer)
	assert.Equal(t, 500, newcomer.Reliability)
	assert.Equal(t, ReliabilitySourceDefault, newcomer.Source)
}

func TestAnalyzeReusesCachedReliability(t *testing.T) {
	stub := shimtest.NewMockStub("reputation", nil)
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	analyzer, registry, reliability, _ := analyzerFixture(at)

	// The cache wins over the live aggregate once seeded.
	reliability.cache["did:trust:veteran"] = &AttesterReliability{
		AttesterID:  "did:trust:veteran",
		Reliability: 900,
		Source:      ReliabilitySourceAggregate,
		CachedDate:  at.AddDate(0, -1, 0),
	}
	registry.aggregates["did:trust:veteran"] = &SubjectAggregate{SubjectID: "did:trust:veteran", Score: 100, Count: 2}
	registry.attestations["did:trust:subject"] = []*AttestationRecord{
		contributingAttestation("att-1", "did:trust:veteran", 600, at),
	}

	insight, err := analyzer.Analyze(stub, &AnalysisRequest{SubjectID: "did:trust:subject", ActorID: "analyst-1"})
	require.NoError(t, err)

	assert.Equal(t, 600, insight.OverallScore)
	assert.Equal(t, 100, insight.Reliability)
	assert.Equal(t, 0, reliability.saves)
	assert.Equal(t, 900, reliability.cache["did:trust:veteran"].Reliability)
}

func TestAnalyzeSkipsNonContributingAttestations(t *testing.T) {
	stub := shimtest.NewMockStub("reputation", nil)
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	analyzer, registry, _, _ := analyzerFixture(at)

	expired := contributingAttestation("att-2", "did:trust:bob", 100, at)
	expired.ExpirationDate = at.Add(-time.Hour)
	revoked := contributingAttestation("att-3", "did:trust:carol", 100, at)
	revoked.Status = validation.AttestationStatusRevoked
	disputed := contributingAttestation("att-4", "did:trust:dave", 100, at)
	disputed.Status = validation.AttestationStatusDisputed

	registry.attestations["did:trust:subject"] = []*AttestationRecord{
		contributingAttestation("att-1", "did:trust:alice", 900, at),
		expired,
		revoked,
		disputed,
	}

	insight, err := analyzer.Analyze(stub, &AnalysisRequest{SubjectID: "did:trust:subject", ActorID: "analyst-1"})
	require.NoError(t, err)

	assert.Equal(t, 900, insight.OverallScore)
	assert.Equal(t, 1, insight.AttestationCount)
	assert.Equal(t, 60, insight.Reliability)
}

func TestAnalyzeWithoutContributingAttestations(t *testing.T) {
	stub := shimtest.NewMockStub("reputation", nil)
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	analyzer, registry, _, insights := analyzerFixture(at)

	revoked := contributingAttestation("att-1", "did:trust:alice", 900, at)
	revoked.Status = validation.AttestationStatusRevoked
	registry.attestations["did:trust:subject"] = []*AttestationRecord{revoked}

	_, err := analyzer.Analyze(stub, &AnalysisRequest{SubjectID: "did:trust:subject", ActorID: "analyst-1"})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Contains(t, err.Error(), "no valid attestations")

	_, err = analyzer.Analyze(stub, &AnalysisRequest{SubjectID: "did:trust:stranger", ActorID: "analyst-1"})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	assert.Nil(t, insights.insight)
	assert.Empty(t, insights.snapshots)
}

func TestAnalyzeAppliesDecayOncePerDayWindow(t *testing.T) {
	stub := shimtest.NewMockStub("reputation", nil)
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	analyzer, registry, _, insights := analyzerFixture(at)

	registry.attestations["did:trust:subject"] = []*AttestationRecord{
		contributingAttestation("att-1", "did:trust:alice", 900, at),
		contributingAttestation("att-2", "did:trust:bob", 800, at),
		contributingAttestation("att-3", "did:trust:carol", 700, at),
	}
	insights.insight = &ReputationInsight{
		SubjectID:    "did:trust:subject",
		OverallScore: 810,
		LastAnalyzed: at.AddDate(0, 0, -10),
	}

	first, err := analyzer.Analyze(stub, &AnalysisRequest{SubjectID: "did:trust:subject", ActorID: "analyst-1"})
	require.NoError(t, err)
	assert.Equal(t, 760, first.OverallScore, "ten stale days decay the weighted 800 by five percent")

	// The fresh insight now carries today's timestamp, so a rerun finds
	// zero elapsed days and reports the undecayed score.
	second, err := analyzer.Analyze(stub, &AnalysisRequest{SubjectID: "did:trust:subject", ActorID: "analyst-1"})
	require.NoError(t, err)
	assert.Equal(t, 800, second.OverallScore)
}

func TestAnalyzeTrendAgainstAgedBaseline(t *testing.T) {
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		baselineScore int
		expected      Trend
	}{
		{"score climbed past the epsilon band", 700, TrendImproving},
		{"score moved within the epsilon band", 770, TrendStable},
		{"score fell past the epsilon band", 900, TrendDeclining},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := shimtest.NewMockStub("reputation", nil)
			analyzer, registry, _, insights := analyzerFixture(at)

			registry.attestations["did:trust:subject"] = []*AttestationRecord{
				contributingAttestation("att-1", "did:trust:alice", 900, at),
				contributingAttestation("att-2", "did:trust:bob", 800, at),
				contributingAttestation("att-3", "did:trust:carol", 700, at),
			}
			insights.snapshots = []*ScoreSnapshot{
				{SnapshotID: "aged", SubjectID: "did:trust:subject", Score: tt.baselineScore, Timestamp: at.AddDate(0, 0, -8)},
				// Too recent to serve as the baseline.
				{SnapshotID: "fresh", SubjectID: "did:trust:subject", Score: 999, Timestamp: at.AddDate(0, 0, -2)},
			}

			insight, err := analyzer.Analyze(stub, &AnalysisRequest{SubjectID: "did:trust:subject", ActorID: "analyst-1"})
			require.NoError(t, err)
			assert.Equal(t, 800, insight.OverallScore)
			assert.Equal(t, tt.expected, insight.Trend)
		})
	}
}

func TestAnalyzeAppendsSnapshotPerRun(t *testing.T) {
	stub := shimtest.NewMockStub("reputation", nil)
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	analyzer, registry, _, insights := analyzerFixture(at)

	registry.attestations["did:trust:subject"] = []*AttestationRecord{
		contributingAttestation("att-1", "did:trust:alice", 900, at),
	}

	_, err := analyzer.Analyze(stub, &AnalysisRequest{SubjectID: "did:trust:subject", ActorID: "analyst-1"})
	require.NoError(t, err)
	_, err = analyzer.Analyze(stub, &AnalysisRequest{SubjectID: "did:trust:subject", ActorID: "analyst-1"})
	require.NoError(t, err)

	require.Len(t, insights.snapshots, 2)
	assert.NotEqual(t, insights.snapshots[0].SnapshotID, insights.snapshots[1].SnapshotID)
}
