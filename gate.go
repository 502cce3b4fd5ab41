package folio

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// requiredFields are the fields the confidence gate scores. The order is fixed
// so that deferral reasons come out deterministically.
var requiredFields = []string{"symbol", "side", "quantity", "price"}

// GatePolicy decides whether an AI-extracted candidate may reach the ledger
// without human review. A zero policy uses the default thresholds.
type GatePolicy struct {
	FieldThreshold float64 // minimum score for every required field
	MeanThreshold  float64 // minimum mean score over the required fields
}

const (
	DefaultFieldThreshold = 0.85
	DefaultMeanThreshold  = 0.90
)

func (p GatePolicy) withDefaults() GatePolicy {
	if p.FieldThreshold == 0 {
		p.FieldThreshold = DefaultFieldThreshold
	}
	if p.MeanThreshold == 0 {
		p.MeanThreshold = DefaultMeanThreshold
	}
	return p
}

// Admission is the gate's classification of one candidate.
type Admission struct {
	Accepted bool
	Reasons  []string // populated when deferred
}

// Admit classifies an AI-extracted candidate from its per-field confidence
// scores. A missing score for a required field defers the record regardless of
// the other scores. Identical inputs always yield identical classifications.
//
// Admit has no side effect beyond classification: persisting the pending
// record, or applying the accepted one, is the coordinator's job.
func (p GatePolicy) Admit(conf *ExtractionConfidence) Admission {
	p = p.withDefaults()

	if conf == nil || conf.Fields == nil {
		return Admission{Reasons: []string{"no confidence scores reported"}}
	}

	var reasons []string
	var sum float64
	for _, field := range requiredFields {
		score, ok := conf.Fields[field]
		if !ok {
			reasons = append(reasons, fmt.Sprintf("%s: no confidence score", field))
			continue
		}
		sum += score
		if score < p.FieldThreshold {
			reasons = append(reasons, fmt.Sprintf("%s: confidence %.2f below %.2f", field, score, p.FieldThreshold))
		}
	}
	if mean := sum / float64(len(requiredFields)); mean < p.MeanThreshold {
		reasons = append(reasons, fmt.Sprintf("mean confidence %.2f below %.2f", mean, p.MeanThreshold))
	}

	if len(reasons) > 0 {
		return Admission{Reasons: reasons}
	}
	return Admission{Accepted: true}
}

// ReviewStatus is the lifecycle state of a pending extraction.
type ReviewStatus string

const (
	ReviewPending   ReviewStatus = "pending"
	ReviewConfirmed ReviewStatus = "confirmed"
	ReviewRejected  ReviewStatus = "rejected"
)

// PendingExtraction is an AI-extracted record the gate deferred. It never
// touches the ledger until a human confirms it; rejection discards it. The raw
// record (including the extractor's raw output) is kept for audit.
type PendingExtraction struct {
	ID       string
	Raw      RawRecord
	Reasons  []string // why the gate deferred it
	Status   ReviewStatus
	Created  time.Time
	Reviewed time.Time
}

// NewPendingExtraction parks a deferred candidate for human review.
func NewPendingExtraction(raw RawRecord, reasons []string, now time.Time) *PendingExtraction {
	return &PendingExtraction{
		ID:      uuid.NewString(),
		Raw:     raw,
		Reasons: reasons,
		Status:  ReviewPending,
		Created: now.UTC(),
	}
}
