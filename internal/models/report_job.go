package models

import "time"

// ExportStatus captures the lifecycle of an asynchronous report export.
type ExportStatus string

const (
	ExportStatusQueued     ExportStatus = "QUEUED"
	ExportStatusProcessing ExportStatus = "PROCESSING"
	ExportStatusFinished   ExportStatus = "FINISHED"
	ExportStatusFailed     ExportStatus = "FAILED"
)

// ExportJob is a report rendered in the background and served through a
// signed download URL.
type ExportJob struct {
	ID           string       `json:"id"`
	Type         ReportType   `json:"type"`
	Format       string       `json:"format"`
	Filter       ReportFilter `json:"filter"`
	Status       ExportStatus `json:"status"`
	CreatedBy    string       `json:"created_by"`
	CreatedAt    time.Time    `json:"created_at"`
	FinishedAt   *time.Time   `json:"finished_at,omitempty"`
	ResultURL    string       `json:"result_url,omitempty"`
	ExpiresAt    *time.Time   `json:"expires_at,omitempty"`
	ErrorMessage string       `json:"error,omitempty"`
}
