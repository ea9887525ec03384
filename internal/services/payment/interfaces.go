package payment

import (
	"context"

	"edupay/internal/clients"
	"edupay/internal/models"

	stripe "github.com/stripe/stripe-go/v72"
)

// Service covers the buyer-facing payment flows: Stripe checkout session
// creation, wallet-funded purchases, and premium revocation.
type Service interface {
	CreatePremiumCheckout(ctx context.Context, email string) (*stripe.CheckoutSession, error)
	CreateCourseCheckout(ctx context.Context, req CourseCheckoutRequest) (*stripe.CheckoutSession, error)
	BuyCourseByWallet(ctx context.Context, courseID, tutorID, userID string, amount int64, couponCode string) error
	RevokePremium(ctx context.Context, userID string) error
}

// CourseCheckoutRequest carries the fields Stripe echoes back in the
// checkout-completed event metadata.
type CourseCheckoutRequest struct {
	Email      string
	UserID     string
	CourseID   string
	TutorID    string
	CourseName string
	Amount     int64
	CouponCode string
}

// Enroller is the course peer surface the purchase flow needs.
type Enroller interface {
	Enroll(ctx context.Context, req clients.EnrollmentRequest) error
}

// PremiumRevoker is the identity peer surface the revoke flow needs.
type PremiumRevoker interface {
	RevokePremium(ctx context.Context, userID string) error
}

// SaleRecorder is the settlement surface the purchase flow needs.
type SaleRecorder interface {
	RecordSale(ctx context.Context, courseID, tutorID string, gross int64) (*models.Payout, error)
}

// Config holds checkout configuration.
type Config struct {
	FrontendURL string
	Currency    string
}
