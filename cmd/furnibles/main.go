package main

import (
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"furnibles/internal/config"
	"furnibles/internal/http/handlers"
	applog "furnibles/internal/log"
	"furnibles/internal/repos"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		if err := applog.Tee(cfg.LogFile); err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	deps := handlers.NewDeps(db, cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"ok": false, "code": "internal", "error": "something went wrong",
			})
		},
	})
	// Global body size guard
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			// the gateway retries on 429 forever; never throttle it.
			// signed file links expire on their own schedule.
			p := c.Path()
			return strings.HasPrefix(p, "/webhooks/") || strings.HasPrefix(p, "/files/")
		},
	}))

	requireUser := handlers.RequireUser(deps.Auth)
	requireSeller := handlers.RequireRole(deps.Auth, "SELLER", "ADMIN")
	requireAdmin := handlers.RequireRole(deps.Auth, "ADMIN")

	// Auth (login throttled)
	loginLimiter := limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"ok": false, "code": "rate_limited", "error": "too many attempts, try again later",
			})
		},
	})
	app.Post("/auth/register", deps.AuthH.Register)
	app.Post("/auth/login", loginLimiter, deps.AuthH.Login)
	app.Post("/auth/logout", deps.AuthH.Logout)

	// Catalog (public)
	app.Get("/categories", deps.Catalog.Categories)
	app.Get("/categories/:id/plans", deps.Catalog.ListByCategory)
	app.Get("/search", deps.Catalog.Search)
	app.Get("/plans/:id", deps.Catalog.Detail)
	app.Get("/plans/:id/reviews", deps.Catalog.ListReviews)

	// Cart
	app.Get("/cart", requireUser, deps.Cart.View)
	app.Post("/cart", requireUser, deps.Cart.Add)
	app.Delete("/cart", requireUser, deps.Cart.Clear)
	app.Delete("/cart/:productId", requireUser, deps.Cart.Remove)

	// Orders
	app.Post("/orders", requireUser, deps.Order.Place)
	app.Get("/orders", requireUser, deps.Order.History)
	app.Get("/orders/:id", requireUser, deps.Order.View)
	app.Post("/orders/:id/cancel", requireUser, deps.Order.Cancel)

	// Payment gateway callback (HMAC-authenticated, no session)
	app.Post("/webhooks/payment", deps.Webhook.Payment)

	// Downloads: the token string is the credential, no session needed
	app.Get("/downloads/:token", deps.Download.Fetch)
	app.Get("/me/downloads", requireUser, deps.Download.List)
	app.Get("/files/*", deps.Files.Serve)

	// Reviews
	app.Post("/plans/:id/reviews", requireUser, deps.Review.Create)
	app.Post("/reviews/:id/vote", requireUser, deps.Review.Vote)
	app.Post("/reviews/:id/response", requireSeller, deps.Review.Respond)

	// Favorites
	app.Get("/favorites", requireUser, deps.Favorite.List)
	app.Post("/favorites", requireUser, deps.Favorite.Save)
	app.Delete("/favorites/:productId", requireUser, deps.Favorite.Unsave)

	// Seller console
	seller := app.Group("/seller", requireSeller)
	seller.Get("/plans", deps.Seller.ListPlans)
	seller.Post("/plans", deps.Seller.CreatePlan)
	seller.Put("/plans/:id", deps.Seller.UpdatePlan)
	seller.Post("/plans/:id/status", deps.Seller.SetPlanStatus)
	seller.Get("/sales", deps.Seller.Sales)

	// Admin
	admin := app.Group("/admin", requireAdmin)
	admin.Get("/orders", deps.Admin.ListOrders)
	admin.Get("/reviews/flagged", deps.Admin.FlaggedReviews)
	admin.Post("/reviews/:id/moderate", deps.Admin.ModerateReview)
	admin.Post("/tokens/:id/revoke", deps.Admin.RevokeToken)
	admin.Post("/plans/:id/suspend", deps.Admin.SuspendPlan)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"ok": false, "code": "not_found", "error": "not found"})
	})

	log.Fatal(app.Listen(":" + cfg.Port))
}
