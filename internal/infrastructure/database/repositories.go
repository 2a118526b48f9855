package database

import (
	"github.com/XAOSTECH/payments.xaostech.io/internal/adapter/repository"
	domainRepo "github.com/XAOSTECH/payments.xaostech.io/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	Subscription domainRepo.SubscriptionRepository
	Family       domainRepo.FamilyRepository
	Webhook      domainRepo.WebhookEventRepository
}

// NewRepositories creates new repository instances with database connection
func NewRepositories(db *gorm.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		Subscription: repository.NewSubscriptionRepository(db, logger.Named("subscription_repository")),
		Family:       repository.NewFamilyRepository(db, logger.Named("family_repository")),
		Webhook:      repository.NewWebhookRepository(db, logger.Named("webhook_repository")),
	}
}
