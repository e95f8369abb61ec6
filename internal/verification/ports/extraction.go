package ports

//go:generate mockgen -destination=mocks/mocks.go -package=mocks carematch/internal/verification/ports Extractor,Dispatcher,DocumentInspector,Gazetteer,Notifier,AuditPort,OpsTracker

import (
	"context"

	"carematch/internal/verification/models"
)

// Extractor is the document extraction collaborator. It reads the referenced
// documents, extracts fields and judges them against the expected identity.
// It is slow and may fail; callers bound it with a deadline.
type Extractor interface {
	ExtractAndJudge(ctx context.Context, job models.ExtractionJob) (*models.ExtractionResult, error)
}

// Dispatcher hands an extraction job to the asynchronous worker pool.
// An error means the job was not accepted and the submission must not be saved.
type Dispatcher interface {
	Dispatch(ctx context.Context, job models.ExtractionJob) error
}

// DocumentInspector parses an emailed clearance document locally.
type DocumentInspector interface {
	Inspect(ctx context.Context, documentRefs []string) (*models.DocumentInspection, error)
}
