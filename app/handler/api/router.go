package handler

import (
	"storefront-service/app/middleware"
	"storefront-service/config"

	"github.com/gofiber/fiber/v2"
)

func SetupRouter(app *fiber.App, productHandler *ProductHandler, inventoryHandler *InventoryHandler, orderHandler *OrderHandler,
	userHandler *UserHandler, cfg *config.Config) {
	api := app.Group("/storefront")

	api.Post("/auth/register", userHandler.Register)
	user := api.Group("/user").Use(middleware.Auth(cfg.Jwt.SecretKey))
	user.Get("/profile", userHandler.GetProfile)
	user.Put("/profile", userHandler.UpdateProfile)
	user.Get("/wishlist", userHandler.GetWishlist)
	user.Post("/wishlist", userHandler.UpdateWishlist)

	api.Get("/products", productHandler.GetList)
	api.Get("/products/:id", productHandler.GetByID)
	api.Post("/orders", middleware.OptionalAuth(cfg.Jwt.SecretKey), orderHandler.Create)
	api.Get("/orders/:order_id", orderHandler.GetByOrderID)
	api.Get("/orders", middleware.Auth(cfg.Jwt.SecretKey), orderHandler.GetList)

	admin := api.Group("/admin").Use(middleware.AdminAuth(cfg))
	admin.Post("/products", productHandler.Create)
	admin.Put("/products/:id", productHandler.Update)
	admin.Delete("/products/:id", productHandler.Delete)
	admin.Get("/products/:id/inventory", inventoryHandler.Get)
	admin.Put("/products/:id/inventory", inventoryHandler.Adjust)
	admin.Get("/products/:id/movements", inventoryHandler.GetMovements)
	admin.Get("/inventory/low-stock", inventoryHandler.GetLowStock)
	admin.Put("/orders/:order_id", orderHandler.UpdateStatus)
	admin.Delete("/orders/:order_id", orderHandler.Delete)
}
