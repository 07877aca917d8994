package handler

import (
	"log/slog"
	"storefront-service/app/domain"
	"storefront-service/app/handler/api/response"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type ProductHandler struct {
	productUsecase domain.ProductUsecase
	validator      *validator.Validate
}

func NewProductHandler(productUsecase domain.ProductUsecase, validator *validator.Validate) *ProductHandler {
	return &ProductHandler{
		productUsecase: productUsecase,
		validator:      validator,
	}
}

func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var req domain.ProductCreateRequest
	if err := c.BodyParser(&req); err != nil {
		slog.ErrorContext(c.Context(), "[productHandler] Create", "bodyParser", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrBadRequest))
	}

	if err := h.validator.Struct(req); err != nil {
		slog.ErrorContext(c.Context(), "[productHandler] Create", "validation", err)
		return fail(c, validationError(err))
	}

	product, err := h.productUsecase.Create(c.Context(), req)
	if err != nil {
		slog.ErrorContext(c.Context(), "[productHandler] Create", "usecase", err)
		return fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(response.Success(product))
}

func (h *ProductHandler) GetList(c *fiber.Ctx) error {
	products, err := h.productUsecase.GetList(c.Context())
	if err != nil {
		slog.ErrorContext(c.Context(), "[productHandler] GetList", "usecase", err)
		return fail(c, err)
	}

	if products == nil {
		products = []domain.Product{}
	}
	return c.Status(fiber.StatusOK).JSON(response.SuccessWithMetadata(products, response.Metadata{Total: len(products)}))
}

func (h *ProductHandler) GetByID(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		slog.ErrorContext(c.Context(), "[productHandler] GetByID", "paramID", err)
		return fail(c, err)
	}

	product, err := h.productUsecase.GetByID(c.Context(), id)
	if err != nil {
		slog.ErrorContext(c.Context(), "[productHandler] GetByID", "usecase", err)
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(response.Success(product))
}

func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		slog.ErrorContext(c.Context(), "[productHandler] Update", "paramID", err)
		return fail(c, err)
	}

	var req domain.ProductUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		slog.ErrorContext(c.Context(), "[productHandler] Update", "bodyParser", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrBadRequest))
	}

	if err := h.validator.Struct(req); err != nil {
		slog.ErrorContext(c.Context(), "[productHandler] Update", "validation", err)
		return fail(c, validationError(err))
	}

	product, err := h.productUsecase.Update(c.Context(), id, req)
	if err != nil {
		slog.ErrorContext(c.Context(), "[productHandler] Update", "usecase", err)
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(response.Success(product))
}

func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		slog.ErrorContext(c.Context(), "[productHandler] Delete", "paramID", err)
		return fail(c, err)
	}

	if err := h.productUsecase.Delete(c.Context(), id); err != nil {
		slog.ErrorContext(c.Context(), "[productHandler] Delete", "usecase", err)
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(response.Success(fiber.Map{"id": id}))
}
