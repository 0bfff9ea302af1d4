// Package server assembles the HTTP application.
package server

import (
	"log/slog"
	"strings"

	"supplysync-backend/internal/audit"
	"supplysync-backend/internal/auth"
	"supplysync-backend/internal/companies"
	"supplysync-backend/internal/config"
	"supplysync-backend/internal/dashboard"
	"supplysync-backend/internal/importexport"
	"supplysync-backend/internal/inventory"
	"supplysync-backend/internal/ordering"
	"supplysync-backend/internal/workspace"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

type Deps struct {
	Config   *config.Config
	DB       *gorm.DB
	Registry *workspace.Registry
	Log      *slog.Logger
}

func New(d Deps) *fiber.App {
	cfg := d.Config

	app := fiber.New(fiber.Config{
		AppName:      "SupplySync",
		ErrorHandler: ErrorHandler(d.Log),
		// multipart bodies carry imports and backups
		BodyLimit: int(cfg.MaxUploadBytes) + 1<<20,
	})

	app.Use(recover.New())

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:  strings.Join(corsOrigins, ","),
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		AllowMethods:  "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		ExposeHeaders: "Content-Disposition",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	rec := audit.NewRecorder(d.DB, d.Log)

	authH := auth.NewHandler(d.DB, cfg, d.Log)
	authH.OnLogout = d.Registry.Evict

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register", authH.Register())
	api.Post("/auth/login", authH.Login())
	api.Post("/auth/password-reset/request", authH.RequestPasswordReset())
	api.Post("/auth/password-reset/confirm", authH.ConfirmPasswordReset())

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg, d.DB))

	protected.Get("/auth/me", authH.Me())
	protected.Post("/auth/logout", authH.Logout())
	protected.Put("/auth/profile", authH.UpdateProfile())
	protected.Put("/auth/password", authH.ChangePassword())

	protected.Get("/state", stateHandler(d.Registry))

	// Companies
	companyH := companies.NewHandler(d.Registry, rec)
	protected.Get("/companies", companyH.List())
	protected.Post("/companies", companyH.Create())
	protected.Put("/companies/:id", companyH.Update())
	protected.Delete("/companies/:id", companyH.Delete())
	protected.Post("/companies/:id/select", companyH.Select())

	// Suppliers and products
	invH := inventory.NewHandler(d.Registry, rec, inventory.NewPhotoFetcher(cfg.PhotoMaxBytes))
	protected.Get("/suppliers", invH.ListSuppliers())
	protected.Post("/suppliers", invH.CreateSupplier())
	protected.Delete("/suppliers/selection", invH.ClearSupplierSelection())
	protected.Put("/suppliers/:id", invH.UpdateSupplier())
	protected.Delete("/suppliers/:id", invH.DeleteSupplier())
	protected.Post("/suppliers/:id/select", invH.SelectSupplier())
	protected.Post("/suppliers/:id/photo", invH.SetSupplierPhoto())

	protected.Get("/products", invH.ListProducts())
	protected.Post("/products", invH.CreateProduct())
	protected.Put("/products/:id", invH.UpdateProduct())
	protected.Delete("/products/:id", invH.DeleteProduct())
	protected.Post("/products/:id/photo", invH.SetProductPhoto())

	// Working order
	orderH := ordering.NewHandler(d.Registry, rec, d.Log)
	protected.Get("/cart", orderH.GetCart())
	protected.Post("/cart/items", orderH.AddItem())
	protected.Patch("/cart/items/:productId", orderH.UpdateQuantity())
	protected.Delete("/cart", orderH.ClearCart())
	protected.Get("/cart/pdf", orderH.CartPDF())
	protected.Put("/order/vat", orderH.SetVAT())
	protected.Patch("/order/details", orderH.UpdateDetails())

	// Order history
	protected.Post("/orders", orderH.PlaceOrder())
	protected.Get("/orders", orderH.ListOrders())
	protected.Post("/orders/:id/edit", orderH.LoadForEditing())
	protected.Put("/orders/:id/paid", orderH.SetPaid())
	protected.Delete("/orders/:id", orderH.DeleteOrder())
	protected.Get("/orders/:id/pdf", orderH.OrderPDF())

	// Import / export
	ioH := importexport.NewHandler(d.Registry, rec, d.Log, cfg.MaxUploadBytes)
	protected.Post("/import", ioH.Upload())
	protected.Get("/import/pending", ioH.Pending())
	protected.Post("/import/apply", ioH.Apply())
	protected.Delete("/import/pending", ioH.Discard())
	protected.Get("/export", ioH.Export())
	protected.Get("/backup", ioH.ExportBackup())
	protected.Post("/backup", ioH.RestoreBackup())

	// Dashboard
	protected.Get("/dashboard", dashboard.DashboardHandler(d.Registry))

	// Audit
	protected.Get("/audit-logs", audit.ListAuditLogsHandler(d.DB, d.Log))

	return app
}
