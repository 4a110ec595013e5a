package model

import (
	"time"
)

// RunStatus represents the status of an audit run.
type RunStatus string

const (
	// RunStatusPending indicates the remote audit is still outstanding.
	RunStatusPending RunStatus = "pending"
	// RunStatusSucceeded indicates the remote audit returned a result.
	RunStatusSucceeded RunStatus = "succeeded"
	// RunStatusFailed indicates the remote audit failed.
	RunStatusFailed RunStatus = "failed"
)

// OperationRun is the lifecycle record of one submitted audit.
type OperationRun struct {
	ID                string
	Domain            string
	StartedAt         time.Time
	Status            RunStatus
	CurrentStageIndex int
	SimulatedProgress int
	Result            *AuditResult
	// ErrorReason is the verbatim failure text shown to the user.
	ErrorReason string
	// Err is the error that failed the run.
	Err error
}
