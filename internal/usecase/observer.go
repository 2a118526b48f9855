package usecase

import (
	"context"

	"github.com/XAOSTECH/payments.xaostech.io/internal/domain/entity"
)

// Recorder receives outcome counts from the usecases. A nil Recorder is
// replaced by a no-op.
type Recorder interface {
	WebhookApplied(eventType string, action entity.WebhookAction, err error)
	PlanResolved(source entity.PlanSource)
	FamilyOperation(op string, err error)
}

// ChangePublisher fans out entitlement changes. messaging.RedisClient
// satisfies it.
type ChangePublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

type nopRecorder struct{}

func (nopRecorder) WebhookApplied(string, entity.WebhookAction, error) {}
func (nopRecorder) PlanResolved(entity.PlanSource)                     {}
func (nopRecorder) FamilyOperation(string, error)                      {}

func recorderOrNop(r Recorder) Recorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}
