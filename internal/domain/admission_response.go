package domain

import (
	"errors"
	"time"
)

// ErrNoMultipartFiles is returned when an admission request carries no files.
var ErrNoMultipartFiles = errors.New("no multipart files")

// FileResponse is the JSON representation of a file in an admission response.
type FileResponse = MediaFileMeta

// BlockedFileResponse is the JSON representation of a rejected file.
type BlockedFileResponse struct {
	File   FileResponse `json:"file"`
	Reason string       `json:"reason"`
}

// AdmissionResponse is returned to clients after deciding a batch.
type AdmissionResponse struct {
	BatchID BatchID               `json:"batchId"`
	Allowed []FileResponse        `json:"allowed"`
	Blocked []BlockedFileResponse `json:"blocked"`
}

// NewAdmissionResponse converts a validation result into its JSON form.
func NewAdmissionResponse(id BatchID, result ValidationResult) AdmissionResponse {
	resp := AdmissionResponse{
		BatchID: id,
		Allowed: make([]FileResponse, 0, len(result.Allowed)),
		Blocked: make([]BlockedFileResponse, 0, len(result.Blocked)),
	}

	for _, file := range result.Allowed {
		resp.Allowed = append(resp.Allowed, file.Meta())
	}

	for _, entry := range result.Blocked {
		resp.Blocked = append(resp.Blocked, BlockedFileResponse{
			File:   entry.File.Meta(),
			Reason: entry.Reason,
		})
	}

	return resp
}

// BatchSummaryResponse lists a recorded batch without its decisions.
type BatchSummaryResponse struct {
	BatchID   BatchID          `json:"batchId"`
	CreatedAt time.Time        `json:"createdAt"`
	Policy    ValidationPolicy `json:"policy"`
}
