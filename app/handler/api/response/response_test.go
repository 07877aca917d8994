package response

import (
	"errors"
	"fmt"
	"storefront-service/app/domain"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: Delivered -> Shipped", domain.ErrInvalidTransition), fiber.StatusUnprocessableEntity},
		{fmt.Errorf("%w: product 1", domain.ErrInsufficientStock), fiber.StatusConflict},
		{domain.ErrConflict, fiber.StatusConflict},
		{domain.ErrValidation, fiber.StatusBadRequest},
		{domain.ErrInvalidRequest, fiber.StatusBadRequest},
		{domain.ErrBadRequest, fiber.StatusBadRequest},
		{domain.ErrUnauthorized, fiber.StatusUnauthorized},
		{domain.ErrForbidden, fiber.StatusForbidden},
		{fmt.Errorf("%w: order ORD-1", domain.ErrNotFound), fiber.StatusNotFound},
		{errors.New("connection reset"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		status, resp := FromError(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
		assert.False(t, resp.Success)
	}
}

func TestFromError_HidesInternalDetails(t *testing.T) {
	_, resp := FromError(errors.New("pq: password authentication failed"))
	assert.Equal(t, domain.ErrInternal.Error(), resp.Error)
}
