package entity

// WebhookAction describes what applying a webhook event did.
type WebhookAction string

const (
	WebhookActionSubscriptionUpserted WebhookAction = "subscription_upserted"
	WebhookActionStatusChanged        WebhookAction = "status_changed"
	WebhookActionCanceled             WebhookAction = "canceled"
	WebhookActionPastDue              WebhookAction = "past_due"
	WebhookActionNone                 WebhookAction = "none"
	// Known event lacking the fields needed to apply it
	WebhookActionSkipped WebhookAction = "skipped"
	// Unrecognized event type
	WebhookActionIgnored WebhookAction = "ignored"
	// Event id already processed
	WebhookActionDuplicate WebhookAction = "duplicate"
)

// WebhookResult reports the outcome of applying one event.
type WebhookResult struct {
	EventID      string        `json:"event_id,omitempty"`
	EventType    string        `json:"event_type"`
	Action       WebhookAction `json:"action"`
	RowsAffected int64         `json:"rows_affected"`
	Duplicate    bool          `json:"duplicate"`
}

// EntitlementChange is published after a webhook mutated subscription state.
type EntitlementChange struct {
	UserID     string             `json:"user_id,omitempty"`
	CustomerID string             `json:"customer_id"`
	EventID    string             `json:"event_id,omitempty"`
	EventType  string             `json:"event_type"`
	Status     SubscriptionStatus `json:"status"`
	Plan       Plan               `json:"plan,omitempty"`
}
