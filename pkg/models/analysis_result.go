package models

import (
	"time"

	"github.com/google/uuid"
)

// Record is one entry of a batch response: *AnalysisResult or *AnalysisError.
type Record interface {
	Zone() string
	EventTime() string
	Failed() bool
}

// AnalysisResult is the classification of one fault event.
type AnalysisResult struct {
	Location         string  `json:"location"`
	Timestamp        string  `json:"timestamp"`
	CavityLabel      string  `json:"cavity-label"`
	CavityConfidence float64 `json:"cavity-confidence"`
	FaultLabel       string  `json:"fault-label"`
	FaultConfidence  float64 `json:"fault-confidence"`
	Model            string  `json:"model"`
}

func (r *AnalysisResult) Zone() string      { return r.Location }
func (r *AnalysisResult) EventTime() string { return r.Timestamp }
func (r *AnalysisResult) Failed() bool      { return false }

// AnalysisError replaces an AnalysisResult when an event could not be analyzed.
type AnalysisError struct {
	Message   string `json:"error"`
	Location  string `json:"location"`
	Timestamp string `json:"timestamp"`
}

func (e *AnalysisError) Zone() string      { return e.Location }
func (e *AnalysisError) EventTime() string { return e.Timestamp }
func (e *AnalysisError) Failed() bool      { return true }

// BatchResponse is the JSON document produced for a batch of events.
type BatchResponse struct {
	Data []Record `json:"data"`
}

// StoredResult is a persisted Record. Classification columns are nil for failures.
type StoredResult struct {
	ID               uuid.UUID  `db:"id"                json:"id"`
	Location         string     `db:"zone"              json:"location"`
	Timestamp        string     `db:"event_timestamp"   json:"timestamp"`
	EventTime        *time.Time `db:"event_time"        json:"-"`
	CavityLabel      *string    `db:"cavity_label"      json:"cavity-label,omitempty"`
	CavityConfidence *float64   `db:"cavity_confidence" json:"cavity-confidence,omitempty"`
	FaultLabel       *string    `db:"fault_label"       json:"fault-label,omitempty"`
	FaultConfidence  *float64   `db:"fault_confidence"  json:"fault-confidence,omitempty"`
	Model            *string    `db:"model"             json:"model,omitempty"`
	Error            *string    `db:"error"             json:"error,omitempty"`
	CreatedAt        time.Time  `db:"created_at"        json:"created_at"`
}

// Compile-time checks that both record kinds implement Record.
var (
	_ Record = (*AnalysisResult)(nil)
	_ Record = (*AnalysisError)(nil)
)
