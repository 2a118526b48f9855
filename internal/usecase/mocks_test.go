package usecase_test

import (
	"context"
	"sync"

	"github.com/XAOSTECH/payments.xaostech.io/internal/domain/entity"
	"github.com/XAOSTECH/payments.xaostech.io/internal/domain/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockSubscriptionRepository is a mock implementation of SubscriptionRepository
type MockSubscriptionRepository struct {
	mock.Mock
}

func (m *MockSubscriptionRepository) UpsertFromCheckout(ctx context.Context, in entity.CheckoutCompletion) (*entity.Subscription, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) ApplyStatusChange(ctx context.Context, customerID string, status entity.SubscriptionStatus, periodEnd int64) (int64, error) {
	args := m.Called(ctx, customerID, status, periodEnd)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSubscriptionRepository) MarkCanceled(ctx context.Context, customerID string) (int64, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSubscriptionRepository) MarkPastDue(ctx context.Context, customerID string) (int64, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSubscriptionRepository) CurrentFor(ctx context.Context, userID string) (*entity.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) GetByCustomerID(ctx context.Context, customerID string) (*entity.Subscription, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Subscription), args.Error(1)
}

// MockFamilyRepository is a mock implementation of FamilyRepository
type MockFamilyRepository struct {
	mock.Mock
}

func (m *MockFamilyRepository) GetPlanByParent(ctx context.Context, parentUserID string) (*entity.FamilyPlan, error) {
	args := m.Called(ctx, parentUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.FamilyPlan), args.Error(1)
}

func (m *MockFamilyRepository) CreatePlan(ctx context.Context, plan *entity.FamilyPlan) (*entity.FamilyPlan, bool, error) {
	args := m.Called(ctx, plan)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*entity.FamilyPlan), args.Bool(1), args.Error(2)
}

func (m *MockFamilyRepository) CountActiveMembers(ctx context.Context, parentUserID string) (int64, error) {
	args := m.Called(ctx, parentUserID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFamilyRepository) FindActiveMembership(ctx context.Context, memberUserID string) (*entity.FamilyMember, error) {
	args := m.Called(ctx, memberUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.FamilyMember), args.Error(1)
}

func (m *MockFamilyRepository) AddMember(ctx context.Context, member *entity.FamilyMember) (*entity.FamilyMember, error) {
	args := m.Called(ctx, member)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.FamilyMember), args.Error(1)
}

func (m *MockFamilyRepository) RemoveMember(ctx context.Context, parentUserID string, memberID uuid.UUID) (bool, error) {
	args := m.Called(ctx, parentUserID, memberID)
	return args.Bool(0), args.Error(1)
}

func (m *MockFamilyRepository) ListMembers(ctx context.Context, parentUserID string, includeRemoved bool) ([]*entity.FamilyMember, error) {
	args := m.Called(ctx, parentUserID, includeRemoved)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.FamilyMember), args.Error(1)
}

func (m *MockFamilyRepository) ActiveGrantFor(ctx context.Context, memberUserID string) (*entity.FamilyGrant, error) {
	args := m.Called(ctx, memberUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.FamilyGrant), args.Error(1)
}

// MockWebhookEventRepository is a mock implementation of WebhookEventRepository
type MockWebhookEventRepository struct {
	mock.Mock
}

func (m *MockWebhookEventRepository) Record(ctx context.Context, event *model.WebhookEvent) (*model.WebhookEvent, bool, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*model.WebhookEvent), args.Bool(1), args.Error(2)
}

func (m *MockWebhookEventRepository) GetEvent(ctx context.Context, eventID string) (*model.WebhookEvent, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WebhookEvent), args.Error(1)
}

func (m *MockWebhookEventRepository) MarkProcessed(ctx context.Context, eventID string) error {
	return m.Called(ctx, eventID).Error(0)
}

func (m *MockWebhookEventRepository) MarkFailed(ctx context.Context, eventID string, cause error) error {
	return m.Called(ctx, eventID, cause).Error(0)
}

// MockPublisher is a mock implementation of ChangePublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, channel string, message interface{}) error {
	return m.Called(ctx, channel, message).Error(0)
}

// fakeRecorder counts recorder calls.
type fakeRecorder struct {
	mu       sync.Mutex
	webhooks []entity.WebhookAction
	sources  []entity.PlanSource
	family   map[string]int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{family: make(map[string]int)}
}

func (r *fakeRecorder) WebhookApplied(_ string, action entity.WebhookAction, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.webhooks = append(r.webhooks, action)
}

func (r *fakeRecorder) PlanResolved(source entity.PlanSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources, source)
}

func (r *fakeRecorder) FamilyOperation(op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		op += ":error"
	}
	r.family[op]++
}
