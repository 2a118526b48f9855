package main

import (
	"context"

	"github.com/XAOSTECH/payments.xaostech.io/internal/domain/entity"
	domainErrors "github.com/XAOSTECH/payments.xaostech.io/internal/domain/errors"
	"github.com/XAOSTECH/payments.xaostech.io/internal/usecase"
	apperrors "github.com/XAOSTECH/payments.xaostech.io/pkg/errors"
	"go.uber.org/zap"
)

// EventApplier applies one raw event payload.
type EventApplier interface {
	Apply(ctx context.Context, payload []byte) (*entity.WebhookResult, error)
}

type replaySummary struct {
	Applied    int
	Duplicates int
	Failed     int
}

// replay applies events in order. Rejected events are counted and logged.
// A storage failure or a canceled ctx stops the run, since later events
// would be applied out of order.
func replay(ctx context.Context, applier EventApplier, events [][]byte, dryRun bool, logger *zap.Logger, summary *replaySummary) error {
	for _, payload := range events {
		if err := ctx.Err(); err != nil {
			return err
		}

		if dryRun {
			event, err := usecase.ParseEvent(payload)
			if err != nil {
				apperrors.LogError(logger, err, "Unparseable event")
				summary.Failed++
				continue
			}
			logger.Info("Would apply event",
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)))
			continue
		}

		result, err := applier.Apply(ctx, payload)
		if err != nil {
			apperrors.LogError(logger, err, "Failed to replay event")
			summary.Failed++
			if domainErrors.IsRetryable(err) {
				return err
			}
			continue
		}
		if result.Duplicate {
			summary.Duplicates++
			continue
		}
		summary.Applied++
	}
	return nil
}
