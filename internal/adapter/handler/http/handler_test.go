package http

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79/webhook"
	"go.uber.org/zap"

	"github.com/XAOSTECH/payments.xaostech.io/internal/domain/entity"
	domainErrors "github.com/XAOSTECH/payments.xaostech.io/internal/domain/errors"
	"github.com/XAOSTECH/payments.xaostech.io/internal/middleware/auth"
)

type mockApplier struct{ mock.Mock }

func (m *mockApplier) Apply(ctx context.Context, payload []byte) (*entity.WebhookResult, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.WebhookResult), args.Error(1)
}

type mockResolver struct{ mock.Mock }

func (m *mockResolver) Resolve(ctx context.Context, userID string) (*entity.EffectivePlan, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.EffectivePlan), args.Error(1)
}

func (m *mockResolver) CurrentSubscription(ctx context.Context, userID string) (*entity.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Subscription), args.Error(1)
}

type mockManager struct{ mock.Mock }

func (m *mockManager) CreateFamilyPlan(ctx context.Context, parentUserID string) (*entity.FamilyPlan, bool, error) {
	args := m.Called(ctx, parentUserID)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*entity.FamilyPlan), args.Bool(1), args.Error(2)
}

func (m *mockManager) AddMember(ctx context.Context, parentUserID, memberUserID, memberType string) (*entity.FamilyMember, error) {
	args := m.Called(ctx, parentUserID, memberUserID, memberType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.FamilyMember), args.Error(1)
}

func (m *mockManager) RemoveMember(ctx context.Context, parentUserID string, memberID uuid.UUID) error {
	return m.Called(ctx, parentUserID, memberID).Error(0)
}

func (m *mockManager) ListMembers(ctx context.Context, parentUserID string, includeRemoved bool) ([]*entity.FamilyMember, error) {
	args := m.Called(ctx, parentUserID, includeRemoved)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.FamilyMember), args.Error(1)
}

type testRequest struct {
	method string
	target string
	body   string
	header map[string]string
	caller string
	params map[string]string
}

func (r testRequest) context(t *testing.T) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	e.Validator = NewRequestValidator()

	req := httptest.NewRequest(r.method, r.target, strings.NewReader(r.body))
	if r.body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range r.header {
		req.Header.Set(k, v)
	}
	if r.caller != "" {
		req = req.WithContext(auth.ContextWithUser(req.Context(), &auth.AuthUser{UserID: r.caller}))
	}

	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	var names, values []string
	for name, value := range r.params {
		names = append(names, name)
		values = append(values, value)
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	return c, rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestWebhookHandler(t *testing.T) {
	payload := `{"id":"evt_1","type":"invoice.payment_failed","data":{"object":{"customer":"cus_1"}}}`

	t.Run("applies unsigned payload when no secret is configured", func(t *testing.T) {
		applier := new(mockApplier)
		handler := NewWebhookHandler(applier, "", zap.NewNop())
		applier.On("Apply", mock.Anything, []byte(payload)).Return(&entity.WebhookResult{
			EventID: "evt_1",
			Action:  entity.WebhookActionPastDue,
		}, nil)

		c, rec := testRequest{method: http.MethodPost, target: "/webhook", body: payload}.context(t)
		require.NoError(t, handler.HandleWebhook(c))

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, true, body["received"])
		assert.Equal(t, "past_due", body["action"])
	})

	t.Run("malformed payload is a bad request", func(t *testing.T) {
		applier := new(mockApplier)
		handler := NewWebhookHandler(applier, "", zap.NewNop())
		applier.On("Apply", mock.Anything, mock.Anything).Return(nil, domainErrors.NewValidationError("webhook payload has no event type"))

		c, rec := testRequest{method: http.MethodPost, target: "/webhook", body: `{}`}.context(t)
		require.NoError(t, handler.HandleWebhook(c))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_ARGUMENT", decodeBody(t, rec)["code"])
	})

	t.Run("storage failure hides the cause", func(t *testing.T) {
		applier := new(mockApplier)
		handler := NewWebhookHandler(applier, "", zap.NewNop())
		applier.On("Apply", mock.Anything, mock.Anything).Return(nil, domainErrors.NewStorageError("cancel subscription", errors.New("dial tcp: refused")))

		c, rec := testRequest{method: http.MethodPost, target: "/webhook", body: payload}.context(t)
		require.NoError(t, handler.HandleWebhook(c))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "refused")
	})

	t.Run("oversize payload is rejected without applying", func(t *testing.T) {
		applier := new(mockApplier)
		handler := NewWebhookHandler(applier, "", zap.NewNop())

		oversize := `{"padding":"` + strings.Repeat("x", maxWebhookBody) + `"}`
		c, rec := testRequest{method: http.MethodPost, target: "/webhook", body: oversize}.context(t)
		require.NoError(t, handler.HandleWebhook(c))

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Equal(t, "PAYLOAD_TOO_LARGE", decodeBody(t, rec)["code"])
		applier.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
	})

	t.Run("signature is checked when a secret is configured", func(t *testing.T) {
		const secret = "whsec_test"
		applier := new(mockApplier)
		handler := NewWebhookHandler(applier, secret, zap.NewNop())
		applier.On("Apply", mock.Anything, []byte(payload)).Return(&entity.WebhookResult{EventID: "evt_1", Action: entity.WebhookActionPastDue}, nil)

		now := time.Now()
		signature := hex.EncodeToString(webhook.ComputeSignature(now, []byte(payload), secret))
		header := fmt.Sprintf("t=%d,v1=%s", now.Unix(), signature)

		c, rec := testRequest{
			method: http.MethodPost,
			target: "/webhook",
			body:   payload,
			header: map[string]string{"Stripe-Signature": header},
		}.context(t)
		require.NoError(t, handler.HandleWebhook(c))
		assert.Equal(t, http.StatusOK, rec.Code)

		c, rec = testRequest{
			method: http.MethodPost,
			target: "/webhook",
			body:   payload,
			header: map[string]string{"Stripe-Signature": fmt.Sprintf("t=%d,v1=deadbeef", now.Unix())},
		}.context(t)
		require.NoError(t, handler.HandleWebhook(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		applier.AssertNumberOfCalls(t, "Apply", 1)
	})
}

func TestEntitlementHandler(t *testing.T) {
	t.Run("returns effective plan", func(t *testing.T) {
		resolver := new(mockResolver)
		handler := NewEntitlementHandler(resolver, zap.NewNop())
		resolver.On("Resolve", mock.Anything, "u1").Return(entity.NewEffectivePlan("u1", entity.PlanPro, entity.SubscriptionStatusActive, entity.PlanSourceFamily), nil)

		c, rec := testRequest{
			method: http.MethodGet,
			target: "/api/v1/users/u1/entitlements",
			caller: "u1",
			params: map[string]string{"userId": "u1"},
		}.context(t)
		require.NoError(t, handler.GetEntitlements(c))

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "pro", body["plan"])
		assert.Equal(t, "family", body["source"])
		assert.Len(t, body["features"], 5)
	})

	t.Run("identity mismatch is unauthorized", func(t *testing.T) {
		resolver := new(mockResolver)
		handler := NewEntitlementHandler(resolver, zap.NewNop())

		c, rec := testRequest{
			method: http.MethodGet,
			target: "/api/v1/users/u1/entitlements",
			caller: "intruder",
			params: map[string]string{"userId": "u1"},
		}.context(t)
		require.NoError(t, handler.GetEntitlements(c))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		resolver.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
	})

	t.Run("returns placeholder subscription", func(t *testing.T) {
		resolver := new(mockResolver)
		handler := NewEntitlementHandler(resolver, zap.NewNop())
		resolver.On("CurrentSubscription", mock.Anything, "u1").Return(entity.PlaceholderSubscription("u1"), nil)

		c, rec := testRequest{
			method: http.MethodGet,
			target: "/api/v1/users/u1/subscription",
			caller: "u1",
			params: map[string]string{"userId": "u1"},
		}.context(t)
		require.NoError(t, handler.GetSubscription(c))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "free", decodeBody(t, rec)["plan"])
	})
}

func TestFamilyHandler(t *testing.T) {
	parentParams := map[string]string{"userId": "parent"}

	t.Run("create plan reports creation", func(t *testing.T) {
		manager := new(mockManager)
		handler := NewFamilyHandler(manager, zap.NewNop())
		manager.On("CreateFamilyPlan", mock.Anything, "parent").Return(&entity.FamilyPlan{ID: uuid.New(), MaxMembers: 5}, true, nil)

		c, rec := testRequest{method: http.MethodPost, target: "/", caller: "parent", params: parentParams}.context(t)
		require.NoError(t, handler.CreateFamilyPlan(c))

		assert.Equal(t, http.StatusCreated, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, true, body["created"])
		assert.EqualValues(t, 5, body["max_members"])
	})

	t.Run("create plan without paid subscription is forbidden", func(t *testing.T) {
		manager := new(mockManager)
		handler := NewFamilyHandler(manager, zap.NewNop())
		manager.On("CreateFamilyPlan", mock.Anything, "parent").Return(nil, false, domainErrors.NewPlanEligibilityError("parent"))

		c, rec := testRequest{method: http.MethodPost, target: "/", caller: "parent", params: parentParams}.context(t)
		require.NoError(t, handler.CreateFamilyPlan(c))

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "PLAN_INELIGIBLE", decodeBody(t, rec)["code"])
	})

	t.Run("add member maps domain errors", func(t *testing.T) {
		cases := []struct {
			err    error
			status int
		}{
			{nil, http.StatusCreated},
			{domainErrors.NewCapacityError("parent", 5), http.StatusForbidden},
			{domainErrors.NewConflictError("already linked"), http.StatusConflict},
			{domainErrors.NewNotFoundError("family plan for", "parent"), http.StatusNotFound},
		}
		for _, tc := range cases {
			manager := new(mockManager)
			handler := NewFamilyHandler(manager, zap.NewNop())
			if tc.err == nil {
				manager.On("AddMember", mock.Anything, "parent", "kid", "child").Return(&entity.FamilyMember{ID: uuid.New()}, nil)
			} else {
				manager.On("AddMember", mock.Anything, "parent", "kid", "child").Return(nil, tc.err)
			}

			c, rec := testRequest{
				method: http.MethodPost,
				target: "/",
				body:   `{"member_user_id":"kid","member_type":"child"}`,
				caller: "parent",
				params: parentParams,
			}.context(t)
			require.NoError(t, handler.AddMember(c))
			assert.Equal(t, tc.status, rec.Code)
		}
	})

	t.Run("add member requires member id", func(t *testing.T) {
		manager := new(mockManager)
		handler := NewFamilyHandler(manager, zap.NewNop())

		c, rec := testRequest{method: http.MethodPost, target: "/", body: `{}`, caller: "parent", params: parentParams}.context(t)
		require.NoError(t, handler.AddMember(c))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		manager.AssertNotCalled(t, "AddMember", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("remove member", func(t *testing.T) {
		manager := new(mockManager)
		handler := NewFamilyHandler(manager, zap.NewNop())
		memberID := uuid.New()
		manager.On("RemoveMember", mock.Anything, "parent", memberID).Return(nil)

		c, rec := testRequest{
			method: http.MethodDelete,
			target: "/",
			caller: "parent",
			params: map[string]string{"userId": "parent", "memberId": memberID.String()},
		}.context(t)
		require.NoError(t, handler.RemoveMember(c))
		assert.Equal(t, http.StatusOK, rec.Code)

		c, rec = testRequest{
			method: http.MethodDelete,
			target: "/",
			caller: "parent",
			params: map[string]string{"userId": "parent", "memberId": "not-a-uuid"},
		}.context(t)
		require.NoError(t, handler.RemoveMember(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("list members honours include_removed", func(t *testing.T) {
		manager := new(mockManager)
		handler := NewFamilyHandler(manager, zap.NewNop())
		manager.On("ListMembers", mock.Anything, "parent", true).Return([]*entity.FamilyMember{{MemberUserID: "kid"}}, nil)

		c, rec := testRequest{
			method: http.MethodGet,
			target: "/?include_removed=true",
			caller: "parent",
			params: parentParams,
		}.context(t)
		require.NoError(t, handler.ListMembers(c))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.EqualValues(t, 1, decodeBody(t, rec)["count"])
	})

	t.Run("another user cannot manage the plan", func(t *testing.T) {
		manager := new(mockManager)
		handler := NewFamilyHandler(manager, zap.NewNop())

		c, rec := testRequest{method: http.MethodPost, target: "/", caller: "kid", params: parentParams}.context(t)
		require.NoError(t, handler.CreateFamilyPlan(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
