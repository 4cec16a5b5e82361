package domain

import (
	"fmt"
	"time"
)

// RefreshPolicy decides how a fetched batch is reconciled with stored rows.
type RefreshPolicy string

const (
	PolicyReplaceAll   RefreshPolicy = "replace-all"
	PolicyMergeByTitle RefreshPolicy = "merge-by-title"
)

// ParseRefreshPolicy validates a configured policy name.
func ParseRefreshPolicy(v string) (RefreshPolicy, error) {
	switch RefreshPolicy(v) {
	case PolicyReplaceAll, PolicyMergeByTitle:
		return RefreshPolicy(v), nil
	}
	return "", fmt.Errorf("unknown refresh policy %q", v)
}

// CycleState enumerates ingestion cycle milestones.
type CycleState string

const (
	StateIdle        CycleState = "idle"
	StateFetching    CycleState = "fetching"
	StatePersisting  CycleState = "persisting"
	StateClassifying CycleState = "classifying"
)

// SourceFailure records a source that contributed nothing to a cycle.
type SourceFailure struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

// CycleReport summarizes one fetch -> persist -> classify run.
type CycleReport struct {
	Policy        RefreshPolicy   `json:"policy"`
	Fetched       int             `json:"fetched"`
	Persisted     int             `json:"persisted"`
	Classified    int             `json:"classified"`
	FailedSources []SourceFailure `json:"failed_sources"`
	StartedAt     time.Time       `json:"started_at"`
	Duration      time.Duration   `json:"duration"`
	Error         string          `json:"error,omitempty"`
}

// Failed reports whether the cycle ended with a fatal error.
func (r CycleReport) Failed() bool {
	return r.Error != ""
}

// FetchResult is the aggregated output of one fetch stage, in source order.
type FetchResult struct {
	Articles []Article
	Failures []SourceFailure
}

// PipelineStatus is a snapshot of the pipeline for operators.
type PipelineStatus struct {
	State     CycleState   `json:"state"`
	LastCycle *CycleReport `json:"last_cycle,omitempty"`
}
