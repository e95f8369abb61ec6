package ports

import (
	"context"

	"carematch/internal/verification/models"
)

// Notifier forwards committed transitions to the notification collaborator.
// Failures are logged by the caller and never roll back a transition.
type Notifier interface {
	Publish(ctx context.Context, events []models.TransitionEvent) error
}
