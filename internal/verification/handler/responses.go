package handler

import (
	"carematch/internal/verification/models"
)

// RecordResponse is a record with its aggregate status spelled out.
type RecordResponse struct {
	*models.Record
	VerificationState string `json:"verification_state"`
}

func toRecordResponse(rec *models.Record) RecordResponse {
	return RecordResponse{Record: rec, VerificationState: rec.VerificationStatus.String()}
}

// StatusResponse is returned to the polling client.
type StatusResponse struct {
	RecordResponse
	Poll                bool `json:"poll"`
	PollIntervalSeconds int  `json:"poll_interval_seconds,omitempty"`
}

func toStatusResponse(snapshot *models.StatusSnapshot) StatusResponse {
	return StatusResponse{
		RecordResponse:      toRecordResponse(snapshot.Record),
		Poll:                snapshot.Poll,
		PollIntervalSeconds: int(snapshot.PollInterval.Seconds()),
	}
}

// QueueResponse is one page of the admin queue.
type QueueResponse struct {
	Records []RecordResponse `json:"records"`
	Total   int              `json:"total"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}
