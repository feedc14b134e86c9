// @title           POS Inventario API
// @version         1.0
// @description     API de punto de venta con inventario, decants y auditoría de stock.
// @BasePath        /
// @securityDefinitions.apikey Bearer
// @in              header
// @name            Authorization
// @description     Bearer <token>
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	_ "github.com/jhoicas/pos-inventario/docs"
	"github.com/jhoicas/pos-inventario/internal/application/auth"
	"github.com/jhoicas/pos-inventario/internal/application/inventory"
	"github.com/jhoicas/pos-inventario/internal/application/orders"
	"github.com/jhoicas/pos-inventario/internal/application/usecase"
	"github.com/jhoicas/pos-inventario/internal/infrastructure/cache"
	"github.com/jhoicas/pos-inventario/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/pos-inventario/internal/infrastructure/pdf"
	httpRouter "github.com/jhoicas/pos-inventario/internal/interfaces/http"
	"github.com/jhoicas/pos-inventario/pkg/config"
	"github.com/jhoicas/pos-inventario/pkg/logger"
	"github.com/jhoicas/pos-inventario/pkg/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	tracing, err := telemetry.Setup(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal().Err(err).Msg("telemetría")
	}

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("almacenamiento")
	}
	defer store.close()

	var prom *metrics.Prometheus
	var runnerMetrics inventory.Metrics
	var httpMetrics httpRouter.HTTPMetrics
	if cfg.Metrics.Enabled {
		prom = metrics.NewPrometheus()
		runnerMetrics, httpMetrics = prom, prom
	}

	// Idempotencia de POST /api/sales; sin Redis la ruta atiende sin deduplicar.
	var idempotency httpRouter.IdempotencyStore
	if cfg.Redis.Enabled {
		client, err := cache.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer client.Close()
		idempotency = cache.NewIdempotencyStore(client, cfg.Redis.IdempotencyTTL)
	}

	runner := inventory.NewRunner(store.tx, cfg.Store.MaxRetries, runnerMetrics, log)
	adjuster := inventory.NewStockAdjuster()
	audit := inventory.NewAuditTrail(store.movements, log)

	productUC := usecase.NewProductUseCase(store.products, audit)
	customerUC := usecase.NewCustomerUseCase(store.customers)
	restockUC := inventory.NewRestockUseCase(runner, adjuster, audit)
	decantSvc := inventory.NewDecantService(runner, audit)
	inventoryQuery := inventory.NewQueryUseCase(store.products, audit)
	coordinator := orders.NewCoordinator(runner, adjuster, audit, log)
	orderQuery := orders.NewQueryUseCase(store.orders, store.sales)

	// PDF: comprobante de venta POS
	receiptGenerator := infrapdf.NewMarotoReceiptGenerator(cfg.App.StoreName)
	receiptUC := orders.NewReceiptUseCase(store.sales, store.customers, store.products, receiptGenerator)

	authUC := auth.NewAuthUseCase(store.users, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	if err := authUC.EnsureAdmin(ctx, cfg.App.AdminEmail, cfg.App.AdminPassword); err != nil {
		log.Fatal().Err(err).Msg("administrador inicial")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(httpRouter.AccessLog(log))
	app.Use(httpRouter.Metrics(httpMetrics))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "POS Inventario API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "store": cfg.Store.Driver})
	})
	if prom != nil {
		app.Get("/metrics", adaptor.HTTPHandler(prom.Handler()))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		ProductUC:      productUC,
		CustomerUC:     customerUC,
		Restock:        restockUC,
		Decants:        decantSvc,
		InventoryQuery: inventoryQuery,
		Coordinator:    coordinator,
		OrderQuery:     orderQuery,
		Receipts:       receiptUC,
		AuthUC:         authUC,
		Idempotency:    idempotency,
		JWTSecret:      cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if err := tracing.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado de telemetría")
	}

	log.Info().Msg("aplicación detenida")
}
