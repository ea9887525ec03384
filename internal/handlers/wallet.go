package handlers

import (
	"errors"

	"edupay/internal/clients"
	"edupay/internal/services/payment"
	"edupay/internal/services/wallet"
	"edupay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// WalletHandler serves wallet reads and the wallet-funded flows.
type WalletHandler struct {
	walletService  wallet.Service
	paymentService payment.Service
}

func NewWalletHandler(walletService wallet.Service, paymentService payment.Service) *WalletHandler {
	return &WalletHandler{
		walletService:  walletService,
		paymentService: paymentService,
	}
}

func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	userID := c.Params("userId")
	if userID == "" {
		return utils.BadRequest(c, "user id is required")
	}

	view, err := h.walletService.GetWallet(c.Context(), userID)
	if err != nil {
		return utils.InternalError(c, "failed to get wallet")
	}

	return utils.Success(c, fiber.Map{"wallet": view})
}

func (h *WalletHandler) WalletPay(c *fiber.Ctx) error {
	var input struct {
		CourseID      string `json:"courseId"`
		UserID        string `json:"userId"`
		TutorID       string `json:"tutorId"`
		PaymentAmount int64  `json:"paymentAmount"`
		CouponCode    string `json:"couponCode"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	if input.CourseID == "" || input.UserID == "" || input.TutorID == "" {
		return utils.BadRequest(c, "missing required fields")
	}
	if input.PaymentAmount <= 0 {
		return utils.BadRequest(c, "payment amount must be greater than 0")
	}

	err := h.paymentService.BuyCourseByWallet(c.Context(), input.CourseID, input.TutorID, input.UserID, input.PaymentAmount, input.CouponCode)
	if err != nil {
		if errors.Is(err, wallet.ErrInsufficientBalance) {
			return utils.Conflict(c, "insufficient balance")
		}
		if errors.Is(err, clients.ErrPeerService) {
			return utils.BadGateway(c, "enrollment service unavailable")
		}
		return utils.InternalError(c, "failed to complete purchase")
	}

	return utils.Success(c, fiber.Map{"message": "course purchased from wallet", "success": true})
}

func (h *WalletHandler) RevokePremium(c *fiber.Ctx) error {
	var input struct {
		UserID string `json:"userId"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	if input.UserID == "" {
		return utils.BadRequest(c, "user id is required")
	}

	if err := h.paymentService.RevokePremium(c.Context(), input.UserID); err != nil {
		if errors.Is(err, clients.ErrPeerService) {
			return utils.BadGateway(c, "identity service unavailable")
		}
		return utils.InternalError(c, "failed to revoke premium")
	}

	return utils.Success(c, fiber.Map{"message": "premium revoked"})
}
