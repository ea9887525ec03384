// Package reconciler translates signed payment-provider events into
// ledger and settlement effects.
package reconciler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"

	"edupay/internal/clients"
	"edupay/internal/models"
	"edupay/internal/repositories"

	stripe "github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/webhook"
)

// ErrInvalidSignature marks a webhook delivery whose signature does not
// verify against the endpoint secret. Nothing is processed for it.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// Checkout metadata types set at session creation.
const (
	checkoutTypePremium = "premium"
	checkoutTypeCourse  = "course"
)

// Service handles Stripe webhook deliveries.
type Service interface {
	HandleEvent(ctx context.Context, payload []byte, signature string) error
}

// PremiumUpgrader is the identity peer surface for premium checkouts.
type PremiumUpgrader interface {
	Upgrade(ctx context.Context, email string) error
}

// Enroller is the course peer surface for course checkouts.
type Enroller interface {
	Enroll(ctx context.Context, req clients.EnrollmentRequest) error
}

// SaleRecorder is the settlement surface for course checkouts.
type SaleRecorder interface {
	RecordSale(ctx context.Context, courseID, tutorID string, gross int64) (*models.Payout, error)
}

type service struct {
	endpointSecret string
	events         repositories.ProcessedEventRepository
	identity       PremiumUpgrader
	courses        Enroller
	settlement     SaleRecorder
}

// NewService creates a new webhook reconciler.
func NewService(endpointSecret string, events repositories.ProcessedEventRepository, identity PremiumUpgrader, courses Enroller, settlement SaleRecorder) Service {
	if endpointSecret == "" {
		panic("endpoint secret is required")
	}
	return &service{
		endpointSecret: endpointSecret,
		events:         events,
		identity:       identity,
		courses:        courses,
		settlement:     settlement,
	}
}

// HandleEvent verifies the delivery and applies its effects. The event id
// is claimed in the dedupe ledger before any effect; a failed effect
// releases the claim so Stripe's retry can land.
func (s *service) HandleEvent(ctx context.Context, payload []byte, signature string) error {
	event, err := webhook.ConstructEvent(payload, signature, s.endpointSecret)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	if event.Type != "checkout.session.completed" {
		return nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return fmt.Errorf("failed to decode checkout session: %w", err)
	}

	claimed, err := s.events.MarkProcessed(event.ID, models.EventSourceStripe)
	if err != nil {
		return err
	}
	if !claimed {
		log.Printf("webhook event %s already processed, acknowledging", event.ID)
		return nil
	}

	if err := s.dispatch(ctx, &sess); err != nil {
		if rbErr := s.events.Unmark(event.ID); rbErr != nil {
			log.Printf("failed to release claim on event %s: %v", event.ID, rbErr)
		}
		return err
	}
	return nil
}

func (s *service) dispatch(ctx context.Context, sess *stripe.CheckoutSession) error {
	metadata := sess.Metadata

	switch metadata["type"] {
	case checkoutTypePremium:
		if sess.CustomerEmail == "" {
			log.Printf("premium checkout %s has no customer email, ignoring", sess.ID)
			return nil
		}
		return s.identity.Upgrade(ctx, sess.CustomerEmail)

	case checkoutTypeCourse:
		courseID := metadata["courseId"]
		if sess.CustomerEmail == "" || courseID == "" {
			log.Printf("course checkout %s missing email or course id, ignoring", sess.ID)
			return nil
		}

		amount, err := strconv.ParseInt(metadata["paymentAmount"], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid payment amount %q: %w", metadata["paymentAmount"], err)
		}

		var paymentID string
		if sess.PaymentIntent != nil {
			paymentID = sess.PaymentIntent.ID
		}

		err = s.courses.Enroll(ctx, clients.EnrollmentRequest{
			Email:         sess.CustomerEmail,
			UserID:        metadata["userId"],
			CourseID:      courseID,
			PaymentAmount: amount,
			PaymentID:     paymentID,
			CouponCode:    metadata["couponCode"],
		})
		if err != nil {
			return err
		}

		_, err = s.settlement.RecordSale(ctx, courseID, metadata["tutorId"], amount)
		return err

	default:
		return nil
	}
}
