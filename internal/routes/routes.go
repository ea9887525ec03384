// Package routes wires repositories, services and handlers onto the app.
package routes

import (
	"time"

	"edupay/internal/clients"
	"edupay/internal/config"
	"edupay/internal/handlers"
	"edupay/internal/middleware"
	"edupay/internal/repositories"
	"edupay/internal/repositories/cache"
	"edupay/internal/services/payment"
	"edupay/internal/services/reconciler"
	"edupay/internal/services/settlement"
	"edupay/internal/services/wallet"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"
)

// Services exposes the constructed core services so the bootstrap can
// hand them to the queue consumer.
type Services struct {
	Wallet     wallet.Service
	Settlement settlement.Service
	Events     repositories.ProcessedEventRepository
}

// SetupRoutes builds the dependency graph with explicit construction and
// registers all HTTP routes.
func SetupRoutes(app *fiber.App, db *gorm.DB, cacheSvc *cache.Service) *Services {
	walletRepo := repositories.NewWalletRepository(db)
	payoutRepo := repositories.NewPayoutRepository(db)
	eventRepo := repositories.NewProcessedEventRepository(db)

	gatewayKey := config.GetEnv("API_GATEWAY_KEY", "")
	peerTimeout := config.GetDurationEnv("PEER_TIMEOUT", 10*time.Second)
	identityClient := clients.NewIdentityClient(config.GetEnv("AUTH_URL", "http://localhost:5002"), gatewayKey, peerTimeout)
	courseClient := clients.NewCourseClient(config.GetEnv("COURSE_URL", "http://localhost:5003"), gatewayKey, peerTimeout)

	walletService := wallet.NewService(walletRepo, cacheSvc)
	settlementService := settlement.NewService(payoutRepo, walletService, identityClient, settlement.Config{
		MonthFilter: config.GetBoolEnv("PAYOUT_MONTH_FILTER", false),
	})
	paymentService := payment.NewService(walletService, settlementService, courseClient, identityClient, payment.Config{
		FrontendURL: config.GetEnv("FRONTEND_URL", "http://localhost:5173"),
	})
	reconcilerService := reconciler.NewService(
		config.GetEnv("STRIPE_WEBHOOK_SECRET", "whsec_dev"),
		eventRepo, identityClient, courseClient, settlementService,
	)

	webhookHandler := handlers.NewWebhookHandler(reconcilerService)
	walletHandler := handlers.NewWalletHandler(walletService, paymentService)
	paymentHandler := handlers.NewPaymentHandler(paymentService, settlementService)

	webhook := app.Group("/webhook")
	webhook.Use(limiter.New(limiter.Config{
		Max:        config.GetIntEnv("WEBHOOK_RATE_LIMIT", 120),
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}))
	webhook.Post("/stripe", webhookHandler.StripeWebhook)

	guard := middleware.GatewayKey(gatewayKey)

	walletGroup := app.Group("/wallet", guard)
	walletGroup.Get("/:userId", walletHandler.GetWallet)
	walletGroup.Post("/wallet-pay", walletHandler.WalletPay)
	walletGroup.Post("/revoke", walletHandler.RevokePremium)

	paymentsGroup := app.Group("/payments", guard)
	paymentsGroup.Post("/checkout/premium", paymentHandler.CreatePremiumCheckout)
	paymentsGroup.Post("/checkout/course", paymentHandler.CreateCourseCheckout)
	paymentsGroup.Get("/monthly-payments", paymentHandler.MonthlyPayments)
	paymentsGroup.Post("/pay-tutor", paymentHandler.PayTutor)
	paymentsGroup.Get("/dashboard", paymentHandler.Dashboard)
	paymentsGroup.Get("/dashboard/tutor/:tutorId", paymentHandler.TutorDashboard)

	return &Services{
		Wallet:     walletService,
		Settlement: settlementService,
		Events:     eventRepo,
	}
}
