package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/resumeforge/api/internal/application"
	"github.com/resumeforge/api/internal/interface/middleware"
	"github.com/resumeforge/api/pkg/response"
	"github.com/resumeforge/api/pkg/validation"
)

type PaymentHandler struct {
	Svc    *application.PaymentService
	KeyID  string // public Razorpay key handed to the checkout widget
	Logger *logrus.Logger
}

func NewPaymentHandler(svc *application.PaymentService, keyID string, logger *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{Svc: svc, KeyID: keyID, Logger: logger}
}

type createOrderRequest struct {
	PlanType string `json:"planType" binding:"required,max=32"`
}

type createOrderResponse struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	KeyID    string `json:"key_id"`
}

type verifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id" binding:"required,gatewayid"`
	PaymentID string `json:"razorpay_payment_id" binding:"required,gatewayid"`
	Signature string `json:"razorpay_signature" binding:"required,gatewayid"`
}

// CreateOrder POST /api/payment/create-order {planType} (auth required)
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	uid, _ := middleware.CurrentUserID(c)
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, validation.ToDetails(err))
		return
	}
	p, err := h.Svc.CreateOrder(c.Request.Context(), uid, req.PlanType)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, createOrderResponse{
		OrderID:  p.OrderID,
		Amount:   p.Amount,
		Currency: p.Currency,
		Receipt:  p.Receipt,
		KeyID:    h.KeyID,
	}, "order created", nil)
}

// Verify POST /api/payment/verify (auth required)
func (h *PaymentHandler) Verify(c *gin.Context) {
	var req verifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, validation.ToDetails(err))
		return
	}
	ok, err := h.Svc.VerifyPayment(c.Request.Context(), req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	if !ok {
		response.Fail(c, http.StatusBadRequest, "payment verification failed", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "success"}, "payment verified successfully", nil)
}

// History GET /api/payment/history (auth required)
func (h *PaymentHandler) History(c *gin.Context) {
	uid, _ := middleware.CurrentUserID(c)
	list, err := h.Svc.GetUserPayments(c.Request.Context(), uid)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, list, "payment history", map[string]any{"count": len(list)})
}

// OrderDetails GET /api/payment/order/:orderId (auth required, owner only)
func (h *PaymentHandler) OrderDetails(c *gin.Context) {
	uid, _ := middleware.CurrentUserID(c)
	p, err := h.Svc.GetPaymentDetails(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	if p.UserID != uid {
		writeError(c, h.Logger, application.ErrNotFound)
		return
	}
	response.Success(c, http.StatusOK, p, "order details", nil)
}
