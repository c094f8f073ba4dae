// internal/premium/provider.go

package premium

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var ErrPaymentDeclined = errors.New("payment declined")

// PaymentProvider charges a user for a plan and returns the provider's
// transaction reference.
type PaymentProvider interface {
	Charge(ctx context.Context, userID int64, plan Plan) (string, error)
}

// SandboxProvider approves every charge. It stands in for a real PSP
// in development and tests.
type SandboxProvider struct{}

func NewSandboxProvider() *SandboxProvider {
	return &SandboxProvider{}
}

func (p *SandboxProvider) Charge(ctx context.Context, userID int64, plan Plan) (string, error) {
	ref := fmt.Sprintf("sandbox_%s", uuid.New().String())
	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"plan_id": plan.ID,
		"amount":  plan.PriceCents,
		"ref":     ref,
	}).Info("sandbox charge approved")
	return ref, nil
}
