// internal/premium/models.go

package premium

import "time"

// Subscription statuses.
const (
	StatusActive  = "active"
	StatusExpired = "expired"
)

// Plan is one purchasable subscription tier.
type Plan struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Duration   time.Duration `json:"-"`
	Days       int           `json:"days"`
	PriceCents int           `json:"price_cents"`
	Currency   string        `json:"currency"`
}

// Plans is the fixed catalog, cheapest first.
var Plans = []Plan{
	{ID: "premium_week", Name: "Premium Weekly", Duration: 7 * 24 * time.Hour, Days: 7, PriceCents: 699, Currency: "EUR"},
	{ID: "premium_month", Name: "Premium Monthly", Duration: 30 * 24 * time.Hour, Days: 30, PriceCents: 1999, Currency: "EUR"},
	{ID: "premium_year", Name: "Premium Yearly", Duration: 365 * 24 * time.Hour, Days: 365, PriceCents: 14999, Currency: "EUR"},
}

func planByID(id string) (Plan, bool) {
	for _, p := range Plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}

// Subscription is one purchased period. A cancelled subscription keeps
// its entitlement until expires_at; renewal simply never happens.
type Subscription struct {
	ID          int64      `db:"id" json:"id"`
	UserID      int64      `db:"user_id" json:"-"`
	PlanID      string     `db:"plan_id" json:"plan_id"`
	Status      string     `db:"status" json:"status"`
	StartsAt    time.Time  `db:"starts_at" json:"starts_at"`
	ExpiresAt   time.Time  `db:"expires_at" json:"expires_at"`
	CancelledAt *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`
	PaymentRef  string     `db:"payment_ref" json:"-"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// Payment is the ledger row behind a subscription.
type Payment struct {
	ID          int64     `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"-"`
	PlanID      string    `db:"plan_id" json:"plan_id"`
	AmountCents int       `db:"amount_cents" json:"amount_cents"`
	Currency    string    `db:"currency" json:"currency"`
	ProviderRef string    `db:"provider_ref" json:"provider_ref"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Entitlement is what the client needs to render premium state.
type Entitlement struct {
	Premium   bool       `json:"premium"`
	PlanID    string     `json:"plan_id,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Cancelled bool       `json:"cancelled,omitempty"`
	GhostMode bool       `json:"ghost_mode"`
}

type SubscribeRequest struct {
	PlanID string `json:"plan_id" validate:"required"`
}

type GhostModeRequest struct {
	Enabled bool `json:"enabled"`
}
