package domain

import (
	"time"
)

// SubjectAggregate is the running smoothed score for a subject, either
// overall (empty Category) or scoped to a single category. The update rule
// is deliberately a smoothing step, not an arithmetic mean: the first
// accepted score seeds the aggregate, every later one halves the distance
// to it.
type SubjectAggregate struct {
	SubjectID   string    `json:"subjectID"`
	Category    string    `json:"category,omitempty"`
	Score       int       `json:"score"`
	Count       int       `json:"count"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Absorb folds one accepted attestation score into the aggregate.
func (a *SubjectAggregate) Absorb(score int, now time.Time) {
	if a.Count == 0 {
		a.Score = score
	} else {
		a.Score = (a.Score + score) / 2
	}
	a.Count++
	a.LastUpdated = now
}

// Reliability source markers
const (
	ReliabilitySourceAggregate = "AGGREGATE"
	ReliabilitySourceDefault   = "DEFAULT"
)

// AttesterReliability caches the reliability the analyzer assigns an
// attester. The first observation seeds it from the attester's own overall
// aggregate, or the platform default when the attester has none; later
// analyses reuse the cached value.
type AttesterReliability struct {
	AttesterID  string    `json:"attesterID"`
	Reliability int       `json:"reliability"`
	Source      string    `json:"source"`
	CachedDate  time.Time `json:"cachedDate"`
}

// Trend classifies how a subject's score moved against its history
type Trend string

const (
	TrendImproving Trend = "IMPROVING"
	TrendStable    Trend = "STABLE"
	TrendDeclining Trend = "DECLINING"
)

// ReputationInsight is the derived, non-authoritative analysis result for
// a subject. It is safe to discard and rebuild from the attestation
// registry at any time.
type ReputationInsight struct {
	SubjectID        string         `json:"subjectID"`
	OverallScore     int            `json:"overallScore"`
	CategoryScores   map[string]int `json:"categoryScores,omitempty"`
	Trend            Trend          `json:"trend"`
	Reliability      int            `json:"reliability"`
	AttestationCount int            `json:"attestationCount"`
	LastAnalyzed     time.Time      `json:"lastAnalyzed"`
	AnalyzedBy       string         `json:"analyzedBy"`
}

// ScoreSnapshot is one dated point in a subject's score history, written
// on every analysis and read back as the trend baseline.
type ScoreSnapshot struct {
	SnapshotID  string    `json:"snapshotID"`
	SubjectID   string    `json:"subjectID"`
	Score       int       `json:"score"`
	Reliability int       `json:"reliability"`
	Timestamp   time.Time `json:"timestamp"`
}
