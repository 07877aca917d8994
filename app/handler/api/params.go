package handler

import (
	"fmt"
	"strconv"
	"storefront-service/app/domain"
	"storefront-service/app/handler/api/response"

	"github.com/gofiber/fiber/v2"
)

func paramID(c *fiber.Ctx, name string) (int64, error) {
	raw := c.Params(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", domain.ErrBadRequest, name, raw)
	}
	return id, nil
}

func fail(c *fiber.Ctx, err error) error {
	status, resp := response.FromError(err)
	return c.Status(status).JSON(resp)
}

func validationError(err error) error {
	return fmt.Errorf("%w: %s", domain.ErrValidation, err.Error())
}
