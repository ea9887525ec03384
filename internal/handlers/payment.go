package handlers

import (
	"errors"
	"time"

	"edupay/internal/clients"
	"edupay/internal/services/payment"
	"edupay/internal/services/settlement"
	"edupay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// PaymentHandler serves checkout creation and the payout admin surface.
type PaymentHandler struct {
	paymentService    payment.Service
	settlementService settlement.Service
}

func NewPaymentHandler(paymentService payment.Service, settlementService settlement.Service) *PaymentHandler {
	return &PaymentHandler{
		paymentService:    paymentService,
		settlementService: settlementService,
	}
}

func (h *PaymentHandler) CreatePremiumCheckout(c *fiber.Ctx) error {
	var input struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	if input.Email == "" {
		return utils.BadRequest(c, "email is required")
	}

	sess, err := h.paymentService.CreatePremiumCheckout(c.Context(), input.Email)
	if err != nil {
		return utils.InternalError(c, "failed to create checkout session")
	}

	return utils.Success(c, fiber.Map{"sessionId": sess.ID})
}

func (h *PaymentHandler) CreateCourseCheckout(c *fiber.Ctx) error {
	var input struct {
		Email         string `json:"email"`
		UserID        string `json:"userId"`
		CourseID      string `json:"courseId"`
		TutorID       string `json:"tutorId"`
		CourseName    string `json:"courseName"`
		PaymentAmount int64  `json:"paymentAmount"`
		CouponCode    string `json:"couponCode"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	if input.Email == "" || input.UserID == "" || input.CourseID == "" || input.CourseName == "" || input.PaymentAmount <= 0 {
		return utils.BadRequest(c, "missing required fields")
	}

	sess, err := h.paymentService.CreateCourseCheckout(c.Context(), payment.CourseCheckoutRequest{
		Email:      input.Email,
		UserID:     input.UserID,
		CourseID:   input.CourseID,
		TutorID:    input.TutorID,
		CourseName: input.CourseName,
		Amount:     input.PaymentAmount,
		CouponCode: input.CouponCode,
	})
	if err != nil {
		return utils.InternalError(c, "failed to create checkout session")
	}

	return utils.Success(c, fiber.Map{"sessionId": sess.ID})
}

func (h *PaymentHandler) MonthlyPayments(c *fiber.Ctx) error {
	year, month := yearMonth(c)

	payouts, err := h.settlementService.MonthlyPayouts(c.Context(), year, month)
	if err != nil {
		if errors.Is(err, clients.ErrPeerService) {
			return utils.BadGateway(c, "identity service unavailable")
		}
		return utils.InternalError(c, "failed to list payouts")
	}

	return utils.Success(c, fiber.Map{"payouts": payouts})
}

func (h *PaymentHandler) PayTutor(c *fiber.Ctx) error {
	var input struct {
		PayoutID uint `json:"payoutId"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	if input.PayoutID == 0 {
		return utils.BadRequest(c, "payout id is required")
	}

	if err := h.settlementService.Settle(c.Context(), input.PayoutID); err != nil {
		if errors.Is(err, settlement.ErrPayoutNotFound) {
			return utils.NotFound(c, "payout not found")
		}
		if errors.Is(err, settlement.ErrPayoutAlreadyPaid) {
			return utils.Conflict(c, "payout already paid")
		}
		return utils.InternalError(c, "failed to settle payout")
	}

	return utils.Success(c, fiber.Map{"message": "tutor paid"})
}

func (h *PaymentHandler) Dashboard(c *fiber.Ctx) error {
	year, month := yearMonth(c)

	dashboard, err := h.settlementService.Dashboard(c.Context(), year, month)
	if err != nil {
		if errors.Is(err, clients.ErrPeerService) {
			return utils.BadGateway(c, "identity service unavailable")
		}
		return utils.InternalError(c, "failed to build dashboard")
	}

	return utils.Success(c, dashboard)
}

func (h *PaymentHandler) TutorDashboard(c *fiber.Ctx) error {
	tutorID := c.Params("tutorId")
	if tutorID == "" {
		return utils.BadRequest(c, "tutor id is required")
	}
	year, month := yearMonth(c)

	dashboard, err := h.settlementService.TutorDashboard(c.Context(), tutorID, year, month)
	if err != nil {
		return utils.InternalError(c, "failed to build tutor dashboard")
	}

	return utils.Success(c, fiber.Map{"success": true, "data": dashboard})
}

// yearMonth reads the optional year/month query params, defaulting to
// the current UTC month.
func yearMonth(c *fiber.Ctx) (int, time.Month) {
	now := time.Now().UTC()
	year := c.QueryInt("year", now.Year())
	month := c.QueryInt("month", int(now.Month()))
	if month < 1 || month > 12 {
		month = int(now.Month())
	}
	return year, time.Month(month)
}
