package domain

import (
	"errors"
	"time"
)

// ErrBatchNotFound is returned when looking up an unknown admission batch.
var ErrBatchNotFound = errors.New("batch not found")

// ErrNoBatchID is returned when a batch ID is required but not provided.
var ErrNoBatchID = errors.New("no batch ID")

// BatchID identifies a recorded admission batch.
type BatchID string

// String returns the string representation of the BatchID.
func (id BatchID) String() string {
	return string(id)
}

// BatchRecord is the persisted audit trail of one admission batch.
type BatchRecord struct {
	ID        BatchID          `json:"batchId"`
	CreatedAt time.Time        `json:"createdAt"`
	Policy    ValidationPolicy `json:"policy"`
	Decisions []DecisionRecord `json:"decisions"`
}

// DecisionRecord is the persisted form of a Decision.
type DecisionRecord struct {
	Position int           `json:"position"`
	File     MediaFileMeta `json:"file"`
	Allowed  bool          `json:"allowed"`
	Reason   string        `json:"reason,omitempty"`
}

// NewBatchRecord builds a record from decisions given in input order.
func NewBatchRecord(id BatchID, createdAt time.Time, policy ValidationPolicy, decisions []Decision) BatchRecord {
	records := make([]DecisionRecord, len(decisions))

	for i, decision := range decisions {
		records[i] = DecisionRecord{
			Position: i,
			File:     decision.File.Meta(),
			Allowed:  decision.Allowed,
			Reason:   decision.Reason,
		}
	}

	return BatchRecord{
		ID:        id,
		CreatedAt: createdAt,
		Policy:    policy,
		Decisions: records,
	}
}

// Counts returns the number of allowed and blocked decisions.
func (b BatchRecord) Counts() (allowed int, blocked int) {
	return countAllowed(b.Decisions, func(d DecisionRecord) bool { return d.Allowed })
}
