package fakeapi

import (
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, backend *Backend, corsOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery(), requestIDMiddleware(logger))
	if len(corsOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     corsOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
			ExposeHeaders:    []string{"Content-Length", headerRequestID},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(backend))

	h := &handlers{backend: backend}
	api := router.Group("/api")
	api.POST("/auth/register", h.register)
	api.POST("/auth/login", h.login)
	api.GET("/products", h.listProducts)
	api.GET("/products/:id", h.getProduct)
	api.GET("/categories", h.listCategories)

	authed := api.Group("", authMiddleware(backend))
	authed.GET("/auth/me", h.me)
	authed.GET("/cart", h.getCart)
	authed.DELETE("/cart", h.clearCart)
	authed.POST("/cart/items", h.addCartItem)
	authed.PUT("/cart/items/:id", h.updateCartItem)
	authed.DELETE("/cart/items/:id", h.removeCartItem)
	authed.GET("/orders", h.listOrders(true))
	authed.POST("/orders", h.createOrder)
	authed.GET("/orders/:id", h.getOrder(true))
	authed.PUT("/orders/:id/cancel", h.cancelOrder)
	authed.POST("/discounts/validate", h.validateDiscount)

	admin := authed.Group("/admin", adminMiddleware())
	admin.GET("/orders", h.listOrders(false))
	admin.GET("/orders/:id", h.getOrder(false))
	admin.PUT("/orders/:id/status", h.updateOrderStatus)
	admin.POST("/products", h.createProduct)
	admin.PUT("/products/:id", h.updateProduct)
	admin.DELETE("/products/:id", h.deleteProduct)
	admin.GET("/discounts", h.listDiscounts)
	admin.POST("/discounts", h.createDiscount)
	admin.GET("/discounts/:id", h.getDiscount)
	admin.PUT("/discounts/:id", h.updateDiscount)
	admin.DELETE("/discounts/:id", h.deleteDiscount)

	return router
}
