package handler

import (
	"log/slog"
	"storefront-service/app/domain"
	"storefront-service/app/handler/api/response"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type InventoryHandler struct {
	inventoryUsecase domain.InventoryUsecase
	validator        *validator.Validate
}

func NewInventoryHandler(inventoryUsecase domain.InventoryUsecase, validator *validator.Validate) *InventoryHandler {
	return &InventoryHandler{
		inventoryUsecase: inventoryUsecase,
		validator:        validator,
	}
}

func (h *InventoryHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		slog.ErrorContext(c.Context(), "[inventoryHandler] Get", "paramID", err)
		return fail(c, err)
	}

	inventory, err := h.inventoryUsecase.GetInventory(c.Context(), id)
	if err != nil {
		slog.ErrorContext(c.Context(), "[inventoryHandler] Get", "usecase", err)
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(response.Success(inventory))
}

func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		slog.ErrorContext(c.Context(), "[inventoryHandler] Adjust", "paramID", err)
		return fail(c, err)
	}

	var req domain.InventoryUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		slog.ErrorContext(c.Context(), "[inventoryHandler] Adjust", "bodyParser", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrBadRequest))
	}

	if err := h.validator.Struct(req); err != nil {
		slog.ErrorContext(c.Context(), "[inventoryHandler] Adjust", "validation", err)
		return fail(c, validationError(err))
	}

	inventory, err := h.inventoryUsecase.AdjustInventory(c.Context(), id, req)
	if err != nil {
		slog.ErrorContext(c.Context(), "[inventoryHandler] Adjust", "usecase", err)
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(response.Success(inventory))
}

func (h *InventoryHandler) GetLowStock(c *fiber.Ctx) error {
	products, err := h.inventoryUsecase.GetLowStock(c.Context())
	if err != nil {
		slog.ErrorContext(c.Context(), "[inventoryHandler] GetLowStock", "usecase", err)
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(response.SuccessWithMetadata(products, response.Metadata{Total: len(products)}))
}

func (h *InventoryHandler) GetMovements(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		slog.ErrorContext(c.Context(), "[inventoryHandler] GetMovements", "paramID", err)
		return fail(c, err)
	}

	movements, err := h.inventoryUsecase.GetMovements(c.Context(), id)
	if err != nil {
		slog.ErrorContext(c.Context(), "[inventoryHandler] GetMovements", "usecase", err)
		return fail(c, err)
	}

	if movements == nil {
		movements = []domain.StockMovement{}
	}
	return c.Status(fiber.StatusOK).JSON(response.SuccessWithMetadata(movements, response.Metadata{Total: len(movements)}))
}
