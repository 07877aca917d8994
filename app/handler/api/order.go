package handler

import (
	"fmt"
	"log/slog"
	"storefront-service/app/domain"
	"storefront-service/app/handler/api/response"
	"storefront-service/pkg/ctxutil"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type OrderHandler struct {
	orderUsecase       domain.OrderUsecase
	fulfillmentUsecase domain.FulfillmentUsecase
	validator          *validator.Validate
}

func NewOrderHandler(orderUsecase domain.OrderUsecase, fulfillmentUsecase domain.FulfillmentUsecase, validator *validator.Validate) *OrderHandler {
	return &OrderHandler{
		orderUsecase:       orderUsecase,
		fulfillmentUsecase: fulfillmentUsecase,
		validator:          validator,
	}
}

func (h *OrderHandler) Create(c *fiber.Ctx) error {
	var req domain.OrderCreateRequest
	if err := c.BodyParser(&req); err != nil {
		slog.ErrorContext(c.Context(), "[orderHandler] Create", "bodyParser", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrBadRequest))
	}

	if err := h.validator.Struct(req); err != nil {
		slog.ErrorContext(c.Context(), "[orderHandler] Create", "validation", err)
		return fail(c, validationError(err))
	}

	// Orders are linked to an account only through the caller's token.
	req.UserID = nil
	if uid, err := ctxutil.GetUserIDCtx(c.Context()); err == nil {
		req.UserID = &uid
	}

	order, err := h.orderUsecase.CreateOrder(c.Context(), req)
	if err != nil {
		slog.ErrorContext(c.Context(), "[orderHandler] Create", "usecase", err)
		return fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(response.Success(order))
}

func (h *OrderHandler) GetByOrderID(c *fiber.Ctx) error {
	order, err := h.orderUsecase.GetOrder(c.Context(), c.Params("order_id"))
	if err != nil {
		slog.ErrorContext(c.Context(), "[orderHandler] GetByOrderID", "usecase", err)
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(response.Success(order))
}

func (h *OrderHandler) GetList(c *fiber.Ctx) error {
	var param domain.GetListOrderRequest
	if err := c.QueryParser(&param); err != nil {
		slog.ErrorContext(c.Context(), "[orderHandler] GetList", "queryParser", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrBadRequest))
	}

	// Customers only see their own orders: those linked to their account or placed with
	// the email on their token.
	if ctxutil.GetRoleCtx(c.Context()) != ctxutil.RoleAdmin {
		email := ctxutil.GetUserEmailCtx(c.Context())
		if param.UserEmail != "" && !strings.EqualFold(param.UserEmail, email) {
			slog.WarnContext(c.Context(), "[orderHandler] GetList", "userEmail", "not the caller's")
			return fail(c, fmt.Errorf("%w: orders of another customer", domain.ErrForbidden))
		}
		uid, _ := ctxutil.GetUserIDCtx(c.Context())
		param.UserID = uid
		param.UserEmail = email
	}

	orders, err := h.orderUsecase.GetListOrder(c.Context(), param)
	if err != nil {
		slog.ErrorContext(c.Context(), "[orderHandler] GetList", "usecase", err)
		return fail(c, err)
	}

	if orders == nil {
		orders = []domain.Order{}
	}
	return c.Status(fiber.StatusOK).JSON(response.SuccessWithMetadata(orders, response.Metadata{Total: len(orders)}))
}

func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	var req domain.OrderStatusUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		slog.ErrorContext(c.Context(), "[orderHandler] UpdateStatus", "bodyParser", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrBadRequest))
	}

	if err := h.validator.Struct(req); err != nil {
		slog.ErrorContext(c.Context(), "[orderHandler] UpdateStatus", "validation", err)
		return fail(c, validationError(err))
	}

	order, err := h.fulfillmentUsecase.UpdateOrderStatus(c.Context(), c.Params("order_id"), req)
	if err != nil {
		slog.ErrorContext(c.Context(), "[orderHandler] UpdateStatus", "usecase", err)
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(response.Success(order))
}

func (h *OrderHandler) Delete(c *fiber.Ctx) error {
	orderID := c.Params("order_id")
	if err := h.orderUsecase.DeleteOrder(c.Context(), orderID); err != nil {
		slog.ErrorContext(c.Context(), "[orderHandler] Delete", "usecase", err)
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(response.Success(fiber.Map{"order_id": orderID}))
}
