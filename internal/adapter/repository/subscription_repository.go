package repository

import (
	"context"
	"errors"
	"time"

	"github.com/XAOSTECH/payments.xaostech.io/internal/domain/entity"
	domainErrors "github.com/XAOSTECH/payments.xaostech.io/internal/domain/errors"
	"github.com/XAOSTECH/payments.xaostech.io/internal/domain/model"
	"github.com/XAOSTECH/payments.xaostech.io/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CheckoutPeriod is the period granted by a checkout until the provider
// reports the real period end.
const CheckoutPeriod = 30 * 24 * time.Hour

type subscriptionRepository struct {
	db     *gorm.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *gorm.DB, logger *zap.Logger) repository.SubscriptionRepository {
	return &subscriptionRepository{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// UpsertFromCheckout inserts an active row for the user or, when one exists,
// overwrites customer, subscription id, plan and status. The stored period
// end and created_at survive the update.
func (r *subscriptionRepository) UpsertFromCheckout(ctx context.Context, in entity.CheckoutCompletion) (*entity.Subscription, error) {
	if in.UserID == "" || in.CustomerID == "" {
		return nil, domainErrors.NewValidationError("checkout requires user id and customer id")
	}
	if !in.Plan.IsPaid() {
		return nil, domainErrors.NewValidationError("checkout plan %q is not a paid tier", in.Plan)
	}

	now := r.now()
	periodEnd := now.Add(CheckoutPeriod).Unix()
	row := &model.Subscription{
		UserID:           in.UserID,
		StripeCustomerID: in.CustomerID,
		Plan:             string(in.Plan),
		Status:           string(entity.SubscriptionStatusActive),
		CurrentPeriodEnd: &periodEnd,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if in.ExternalSubscriptionID != "" {
		row.StripeSubscriptionID = &in.ExternalSubscriptionID
	}

	updates := clause.AssignmentColumns([]string{
		"stripe_customer_id",
		"stripe_subscription_id",
		"plan",
		"status",
		"updated_at",
	})
	updates = append(updates, clause.Assignment{
		Column: clause.Column{Name: "current_period_end"},
		Value:  gorm.Expr("COALESCE(subscriptions.current_period_end, excluded.current_period_end)"),
	})

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: updates,
		}).
		Create(row).Error
	if err != nil {
		r.logger.Error("Failed to upsert subscription from checkout",
			zap.String("user_id", in.UserID),
			zap.String("customer_id", in.CustomerID),
			zap.Error(err))
		return nil, domainErrors.NewStorageError("upsert subscription", err)
	}

	// The insert may have turned into an update of an older row, so read
	// back the converged state.
	var stored model.Subscription
	if err := r.db.WithContext(ctx).Where("user_id = ?", in.UserID).First(&stored).Error; err != nil {
		r.logger.Error("Failed to read subscription after upsert",
			zap.String("user_id", in.UserID),
			zap.Error(err))
		return nil, domainErrors.NewStorageError("read subscription", err)
	}

	r.logger.Info("Subscription upserted from checkout",
		zap.String("user_id", in.UserID),
		zap.String("customer_id", in.CustomerID),
		zap.String("plan", stored.Plan),
		zap.String("subscription_id", stored.ID.String()))

	return stored.ToEntity(), nil
}

// ApplyStatusChange updates every row of the customer. Zero matches is not
// an error: the change may arrive before the checkout that creates the row.
func (r *subscriptionRepository) ApplyStatusChange(ctx context.Context, customerID string, status entity.SubscriptionStatus, periodEnd int64) (int64, error) {
	updates := map[string]interface{}{
		"status":     string(status),
		"updated_at": r.now(),
	}
	if periodEnd > 0 {
		updates["current_period_end"] = periodEnd
	}
	return r.updateByCustomer(ctx, customerID, updates)
}

func (r *subscriptionRepository) MarkCanceled(ctx context.Context, customerID string) (int64, error) {
	return r.updateByCustomer(ctx, customerID, map[string]interface{}{
		"status":     string(entity.SubscriptionStatusCanceled),
		"updated_at": r.now(),
	})
}

func (r *subscriptionRepository) MarkPastDue(ctx context.Context, customerID string) (int64, error) {
	return r.updateByCustomer(ctx, customerID, map[string]interface{}{
		"status":     string(entity.SubscriptionStatusPastDue),
		"updated_at": r.now(),
	})
}

func (r *subscriptionRepository) updateByCustomer(ctx context.Context, customerID string, updates map[string]interface{}) (int64, error) {
	if customerID == "" {
		return 0, domainErrors.NewValidationError("customer id is required")
	}

	result := r.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("stripe_customer_id = ?", customerID).
		Updates(updates)
	if result.Error != nil {
		r.logger.Error("Failed to update subscription status",
			zap.String("customer_id", customerID),
			zap.Any("updates", updates),
			zap.Error(result.Error))
		return 0, domainErrors.NewStorageError("update subscription", result.Error)
	}

	if result.RowsAffected == 0 {
		r.logger.Info("No subscription matched customer, update skipped",
			zap.String("customer_id", customerID))
	}

	return result.RowsAffected, nil
}

// CurrentFor returns the user's most recently created row, or a free
// placeholder when the user never checked out.
func (r *subscriptionRepository) CurrentFor(ctx context.Context, userID string) (*entity.Subscription, error) {
	if userID == "" {
		return nil, domainErrors.NewValidationError("user id is required")
	}

	var sub model.Subscription
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.PlaceholderSubscription(userID), nil
		}
		r.logger.Error("Failed to get current subscription",
			zap.String("user_id", userID),
			zap.Error(err))
		return nil, domainErrors.NewStorageError("get subscription", err)
	}

	return sub.ToEntity(), nil
}

// GetByCustomerID retrieves the latest subscription by Stripe customer ID
func (r *subscriptionRepository) GetByCustomerID(ctx context.Context, customerID string) (*entity.Subscription, error) {
	var sub model.Subscription
	err := r.db.WithContext(ctx).
		Where("stripe_customer_id = ?", customerID).
		Order("created_at DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get subscription by customer ID",
			zap.String("customer_id", customerID),
			zap.Error(err))
		return nil, domainErrors.NewStorageError("get subscription", err)
	}

	return sub.ToEntity(), nil
}
