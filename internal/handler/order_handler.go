package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"app/internal/config"
	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type OrderHandler struct {
	uc     *usecase.OrderUsecase
	wh     *usecase.WebhookUsecase
	logger zerolog.Logger
}

func NewOrderHandler(uc *usecase.OrderUsecase, wh *usecase.WebhookUsecase, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		uc:     uc,
		wh:     wh,
		logger: logger.With().Str("handler", "order").Logger(),
	}
}

type AddressRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Company   string `json:"company"`
	Address1  string `json:"address1" validate:"required"`
	Address2  string `json:"address2"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
	Country   string `json:"country" validate:"required"`
	Phone     string `json:"phone" validate:"required"`
}

type OrderCreateRequest struct {
	OrderCode     string          `json:"order_code"`
	Shipping      AddressRequest  `json:"shipping" validate:"required"`
	Billing       *AddressRequest `json:"billing"`
	PaymentMethod string          `json:"payment_method" validate:"required"`
	Notes         string          `json:"notes"`
}

type OrderStatusUpdateRequest struct {
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/orders")
	g.Use(middleware.AuthJWT(cfg))

	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/number/:number", h.detailByNumber)
	g.GET("/:id", h.detail)
	g.POST("/:id/cancel", h.cancel)
	g.POST("/:id/repay", h.repay)
	g.PATCH("/number/:number/status", h.updateStatusByNumber)

	// webhook aliases kept for gateway configurations in the wild
	for _, path := range []string{
		"/orders/HandleWebhook",
		"/orders/handlewebhook",
		"/orders/webhook",
		"/webhook/payos",
		"/webhooks/payos",
	} {
		e.POST(path, h.webhook)
	}
}

func (h *OrderHandler) create(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req OrderCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	// billing defaults to shipping
	billing := req.Shipping
	if req.Billing != nil {
		billing = *req.Billing
	}

	out, err := h.uc.CreateOrder(c.Request().Context(), userID, usecase.CreateOrderInput{
		OrderCode:     req.OrderCode,
		Shipping:      toAddress(req.Shipping),
		Billing:       toAddress(billing),
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, out)
}

func (h *OrderHandler) list(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	page, limit, err := pageParams(c, 10)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	out, err := h.uc.ListMyOrders(c.Request().Context(), userID, page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) detail(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.uc.GetMyOrder(c.Request().Context(), userID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) detailByNumber(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.GetMyOrderByNumber(c.Request().Context(), userID, c.Param("number"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) cancel(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.uc.CancelOrder(c.Request().Context(), userID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) repay(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.uc.RepayOrder(c.Request().Context(), userID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) updateStatusByNumber(c echo.Context) error {
	var req OrderStatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.UpdateStatusByNumber(c.Request().Context(), c.Param("number"), req.Status, req.PaymentStatus)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// webhook acknowledges with 200 on anything the gateway cannot fix by
// retrying. Only signature, payload and unknown-order problems get real
// error statuses.
func (h *OrderHandler) webhook(c echo.Context) error {
	eventID := uuid.NewString()
	logger := h.logger.With().Str("event_id", eventID).Logger()

	rawBody, err := io.ReadAll(c.Request().Body)
	if err != nil {
		logger.Error().Err(err).Msg("webhook body read failed")
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	result, err := h.wh.Process(c.Request().Context(), rawBody)
	if err != nil {
		if de, ok := usecase.AsDomainError(err); ok {
			switch de.Code {
			case usecase.CodeSignatureMismatch, usecase.CodeOrderNotFound, usecase.CodeValidation:
				logger.Warn().Str("code", de.Code).Str("reason", de.Message).Msg("webhook rejected")
				return c.JSON(de.Status, ErrorResponse{Error: de.Message, Code: de.Code})
			}
		}
		// soft 200: a retry would hit the same internal failure
		logger.Error().Err(err).Msg("webhook processing failed, acknowledged anyway")
		return c.JSON(http.StatusOK, map[string]interface{}{"success": true})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":      true,
		"applied":      result.Applied,
		"order_number": result.OrderNumber,
	})
}

func toAddress(r AddressRequest) usecase.Address {
	return usecase.Address{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Company:   r.Company,
		Address1:  r.Address1,
		Address2:  r.Address2,
		City:      r.City,
		State:     r.State,
		Zip:       r.Zip,
		Country:   r.Country,
		Phone:     r.Phone,
	}
}

func pageParams(c echo.Context, defaultLimit int) (int, int, error) {
	page := 1
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, errors.New("invalid page")
		}
		page = p
	}

	limit := defaultLimit
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, errors.New("invalid limit")
		}
		limit = l
	}

	return page, limit, nil
}
