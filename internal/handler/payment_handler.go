package handler

import (
	"net/http"
	"strconv"

	"app/internal/config"
	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

type PaymentHandler struct {
	uc *usecase.PaymentUsecase
}

func NewPaymentHandler(uc *usecase.PaymentUsecase) *PaymentHandler {
	return &PaymentHandler{uc: uc}
}

type CreatePaymentLinkRequest struct {
	OrderID int64 `json:"order_id" validate:"required,gt=0"`
}

type CancelPaymentRequest struct {
	Reason string `json:"reason"`
}

func (h *PaymentHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	// public directory of supported banks
	e.GET("/payments/banks", h.bankList)

	g := e.Group("/payments")
	g.Use(middleware.AuthJWT(cfg))

	g.POST("/create-payment-link", h.createLink)
	g.GET("/order/:orderCode", h.paymentInfo)
	g.POST("/cancel/:orderCode", h.cancelPayment)
}

func (h *PaymentHandler) createLink(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req CreatePaymentLinkRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	out, err := h.uc.CreateLinkForOrder(c.Request().Context(), userID, req.OrderID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *PaymentHandler) paymentInfo(c echo.Context) error {
	if _, ok := getUserIDFromContext(c); !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	raw, err := h.uc.GetPaymentInfo(c.Request().Context(), c.Param("orderCode"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSONBlob(http.StatusOK, raw)
}

func (h *PaymentHandler) cancelPayment(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	orderID, err := strconv.ParseInt(c.Param("orderCode"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid order code"})
	}

	var req CancelPaymentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	raw, err := h.uc.CancelPayment(c.Request().Context(), userID, orderID, req.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSONBlob(http.StatusOK, raw)
}

func (h *PaymentHandler) bankList(c echo.Context) error {
	raw, err := h.uc.GetBankList(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSONBlob(http.StatusOK, raw)
}
