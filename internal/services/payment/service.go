package payment

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"edupay/internal/clients"
	"edupay/internal/models"
	"edupay/internal/services/wallet"

	stripe "github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/checkout/session"
)

// Premium membership pricing in minor units. The revoke refund is half
// of one monthly fee, floored.
const (
	premiumMonthlyFee    int64 = 199
	premiumUnitAmount    int64 = 19900
	premiumRevokeRefund        = premiumMonthlyFee / 2
)

type service struct {
	wallet     wallet.Service
	settlement SaleRecorder
	courses    Enroller
	identity   PremiumRevoker
	config     Config
}

// NewService creates a new payment service.
func NewService(walletSvc wallet.Service, settlementSvc SaleRecorder, courses Enroller, identity PremiumRevoker, config Config) Service {
	if config.Currency == "" {
		config.Currency = "inr"
	}
	return &service{
		wallet:     walletSvc,
		settlement: settlementSvc,
		courses:    courses,
		identity:   identity,
		config:     config,
	}
}

func (s *service) CreatePremiumCheckout(ctx context.Context, email string) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		CustomerEmail:      stripe.String(email),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(s.config.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String("Premium Membership"),
						Description: stripe.String("Access all premium features"),
					},
					UnitAmount: stripe.Int64(premiumUnitAmount),
					Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
						Interval: stripe.String("month"),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(s.config.FrontendURL + "/payment-success"),
		CancelURL:  stripe.String(s.config.FrontendURL + "/payment-failed"),
	}
	params.Context = ctx
	params.AddMetadata("type", "premium")

	return session.New(params)
}

func (s *service) CreateCourseCheckout(ctx context.Context, req CourseCheckoutRequest) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		CustomerEmail:      stripe.String(req.Email),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(s.config.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.CourseName),
					},
					UnitAmount: stripe.Int64(req.Amount * 100),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(s.config.FrontendURL + "/payment-success"),
		CancelURL:  stripe.String(s.config.FrontendURL + "/payment-failed"),
	}
	params.Context = ctx
	params.AddMetadata("type", "course")
	params.AddMetadata("userId", req.UserID)
	params.AddMetadata("courseId", req.CourseID)
	params.AddMetadata("tutorId", req.TutorID)
	params.AddMetadata("paymentAmount", strconv.FormatInt(req.Amount, 10))
	params.AddMetadata("couponCode", req.CouponCode)

	return session.New(params)
}

// BuyCourseByWallet debits the buyer, enrolls them on the course, then
// records the sale. The debit is the durable source of truth: a failed
// enrollment is compensated with a credit so the buyer is never charged
// without access.
func (s *service) BuyCourseByWallet(ctx context.Context, courseID, tutorID, userID string, amount int64, couponCode string) error {
	if _, err := s.wallet.GetOrCreate(ctx, userID); err != nil {
		return err
	}

	if err := s.wallet.Debit(ctx, userID, amount, models.SourceCourse, courseID, "Course purchased"); err != nil {
		return err
	}

	err := s.courses.Enroll(ctx, clients.EnrollmentRequest{
		UserID:        userID,
		CourseID:      courseID,
		PaymentAmount: amount,
		CouponCode:    couponCode,
	})
	if err != nil {
		if rbErr := s.wallet.Credit(ctx, userID, amount, models.SourceCourse, courseID, "Reversal: enrollment failed"); rbErr != nil {
			log.Printf("CRITICAL: user %s debited %d but enrollment and reversal both failed: %v", userID, amount, rbErr)
		}
		return fmt.Errorf("failed to enroll buyer: %w", err)
	}

	if _, err := s.settlement.RecordSale(ctx, courseID, tutorID, amount); err != nil {
		return fmt.Errorf("failed to record sale: %w", err)
	}
	return nil
}

// RevokePremium refunds half a monthly fee to the wallet and tells the
// identity peer to drop the premium flag. The credit is reversed when
// the peer call fails, so it only sticks once the peer confirms.
func (s *service) RevokePremium(ctx context.Context, userID string) error {
	if _, err := s.wallet.GetOrCreate(ctx, userID); err != nil {
		return err
	}

	err := s.wallet.Credit(ctx, userID, premiumRevokeRefund, models.SourcePremium, "", "Refund for premium revocation")
	if err != nil {
		return err
	}

	if err := s.identity.RevokePremium(ctx, userID); err != nil {
		if rbErr := s.wallet.Debit(ctx, userID, premiumRevokeRefund, models.SourcePremium, "", "Reversal: premium revoke failed"); rbErr != nil {
			log.Printf("CRITICAL: user %s credited %d but revoke and reversal both failed: %v", userID, premiumRevokeRefund, rbErr)
		}
		return fmt.Errorf("failed to revoke premium: %w", err)
	}
	return nil
}
