package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/XAOSTECH/payments.xaostech.io/internal/adapter/repository"
	domainErrors "github.com/XAOSTECH/payments.xaostech.io/internal/domain/errors"
	"github.com/XAOSTECH/payments.xaostech.io/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newEvent(id string) *model.WebhookEvent {
	created := time.Unix(1_700_000_000, 0)
	return &model.WebhookEvent{
		StripeEventID:   id,
		EventType:       "customer.subscription.updated",
		Data:            model.JSONB{"customer": "cus_1", "status": "active"},
		StripeCreatedAt: &created,
	}
}

func TestWebhookRepository_Record(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewWebhookRepository(newTestDB(t), zap.NewNop())

	stored, created, err := repo.Record(ctx, newEvent("evt_1"))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, model.WebhookStatusPending, stored.Status)

	again, created, err := repo.Record(ctx, newEvent("evt_1"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, stored.ID, again.ID)
	assert.Equal(t, "cus_1", again.Data["customer"])
}

func TestWebhookRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewWebhookRepository(newTestDB(t), zap.NewNop())

	_, _, err := repo.Record(ctx, newEvent("evt_1"))
	require.NoError(t, err)

	require.NoError(t, repo.MarkFailed(ctx, "evt_1", errors.New("storage down")))
	require.NoError(t, repo.MarkFailed(ctx, "evt_1", errors.New("storage still down")))

	event, err := repo.GetEvent(ctx, "evt_1")
	require.NoError(t, err)
	assert.Equal(t, model.WebhookStatusFailed, event.Status)
	assert.Equal(t, 2, event.ProcessingAttempts)
	require.NotNil(t, event.LastError)
	assert.Equal(t, "storage still down", *event.LastError)
	assert.False(t, event.IsCompleted())

	require.NoError(t, repo.MarkProcessed(ctx, "evt_1"))

	event, err = repo.GetEvent(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, event.IsCompleted())
	assert.NotNil(t, event.ProcessedAt)
	assert.Nil(t, event.LastError)
}

func TestWebhookRepository_UnknownEvent(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewWebhookRepository(newTestDB(t), zap.NewNop())

	event, err := repo.GetEvent(ctx, "evt_missing")
	require.NoError(t, err)
	assert.Nil(t, event)

	assert.ErrorIs(t, repo.MarkProcessed(ctx, "evt_missing"), domainErrors.ErrNotFound)
	assert.ErrorIs(t, repo.MarkFailed(ctx, "evt_missing", errors.New("x")), domainErrors.ErrNotFound)
}
