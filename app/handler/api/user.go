package handler

import (
	"log/slog"
	"storefront-service/app/domain"
	"storefront-service/app/handler/api/response"
	"storefront-service/pkg/ctxutil"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userUsecase domain.UserUsecase
	validator   *validator.Validate
}

func NewUserHandler(userUsecase domain.UserUsecase, validator *validator.Validate) *UserHandler {
	return &UserHandler{
		userUsecase: userUsecase,
		validator:   validator,
	}
}

func (h *UserHandler) Register(c *fiber.Ctx) error {
	var req domain.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		slog.ErrorContext(c.Context(), "[userHandler] Register", "bodyParser", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrBadRequest))
	}

	if err := h.validator.Struct(req); err != nil {
		slog.ErrorContext(c.Context(), "[userHandler] Register", "validation", err)
		return fail(c, validationError(err))
	}

	user, err := h.userUsecase.Register(c.Context(), req)
	if err != nil {
		slog.ErrorContext(c.Context(), "[userHandler] Register", "usecase", err)
		return fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(response.Success(user))
}

func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	userID, err := ctxutil.GetUserIDCtx(c.Context())
	if err != nil {
		slog.ErrorContext(c.Context(), "[userHandler] GetProfile", "getUserIDCtx", err)
		return fail(c, domain.ErrUnauthorized)
	}

	user, err := h.userUsecase.GetProfile(c.Context(), userID)
	if err != nil {
		slog.ErrorContext(c.Context(), "[userHandler] GetProfile", "usecase", err)
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(response.Success(user))
}

func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, err := ctxutil.GetUserIDCtx(c.Context())
	if err != nil {
		slog.ErrorContext(c.Context(), "[userHandler] UpdateProfile", "getUserIDCtx", err)
		return fail(c, domain.ErrUnauthorized)
	}

	var req domain.ProfileUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		slog.ErrorContext(c.Context(), "[userHandler] UpdateProfile", "bodyParser", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrBadRequest))
	}

	if err := h.validator.Struct(req); err != nil {
		slog.ErrorContext(c.Context(), "[userHandler] UpdateProfile", "validation", err)
		return fail(c, validationError(err))
	}

	user, err := h.userUsecase.UpdateProfile(c.Context(), userID, req)
	if err != nil {
		slog.ErrorContext(c.Context(), "[userHandler] UpdateProfile", "usecase", err)
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(response.Success(user))
}

func (h *UserHandler) GetWishlist(c *fiber.Ctx) error {
	userID, err := ctxutil.GetUserIDCtx(c.Context())
	if err != nil {
		slog.ErrorContext(c.Context(), "[userHandler] GetWishlist", "getUserIDCtx", err)
		return fail(c, domain.ErrUnauthorized)
	}

	products, err := h.userUsecase.GetWishlist(c.Context(), userID)
	if err != nil {
		slog.ErrorContext(c.Context(), "[userHandler] GetWishlist", "usecase", err)
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(response.SuccessWithMetadata(products, response.Metadata{Total: len(products)}))
}

func (h *UserHandler) UpdateWishlist(c *fiber.Ctx) error {
	userID, err := ctxutil.GetUserIDCtx(c.Context())
	if err != nil {
		slog.ErrorContext(c.Context(), "[userHandler] UpdateWishlist", "getUserIDCtx", err)
		return fail(c, domain.ErrUnauthorized)
	}

	var req domain.WishlistUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		slog.ErrorContext(c.Context(), "[userHandler] UpdateWishlist", "bodyParser", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrBadRequest))
	}

	if err := h.validator.Struct(req); err != nil {
		slog.ErrorContext(c.Context(), "[userHandler] UpdateWishlist", "validation", err)
		return fail(c, validationError(err))
	}

	products, err := h.userUsecase.UpdateWishlist(c.Context(), userID, req)
	if err != nil {
		slog.ErrorContext(c.Context(), "[userHandler] UpdateWishlist", "usecase", err)
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(response.SuccessWithMetadata(products, response.Metadata{Total: len(products)}))
}
