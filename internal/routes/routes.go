package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/epaisa/epaisa_sms/internal/action"
	"github.com/epaisa/epaisa_sms/internal/auth"
	"github.com/epaisa/epaisa_sms/internal/cbdc"
	"github.com/epaisa/epaisa_sms/internal/config"
	"github.com/epaisa/epaisa_sms/internal/idempotency"
	"github.com/epaisa/epaisa_sms/internal/interaction"
	"github.com/epaisa/epaisa_sms/internal/ledger"
	"github.com/epaisa/epaisa_sms/internal/middleware"
	"github.com/epaisa/epaisa_sms/internal/notification"
	"github.com/epaisa/epaisa_sms/internal/secure"
	"github.com/epaisa/epaisa_sms/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	var store ledger.Store
	if d.DB != nil {
		pg := ledger.NewPostgres(d.DB)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := pg.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure ledger schema: %w", err)
		}
		store = pg
	} else {
		d.Logger.Warn("no database configured, using in-memory ledger")
		store = ledger.NewInMemory()
	}

	cipher, err := secure.New(d.Cfg.CipherMode, d.Cfg.EncryptionKey)
	if err != nil {
		return fmt.Errorf("build cipher: %w", err)
	}

	var gateway notification.Gateway
	if d.Cfg.TextlocalAPIKey != "" {
		gateway = notification.NewTextlocalGateway(notification.TextlocalConfig{
			APIKey:  d.Cfg.TextlocalAPIKey,
			URL:     d.Cfg.TextlocalURL,
			Sender:  d.Cfg.TextlocalSender,
			Timeout: d.Cfg.SMSTimeout,
		}, d.Logger)
	} else {
		d.Logger.Warn("no SMS provider configured, notifications are logged only")
		gateway = notification.NewLoggerGateway(d.Logger)
	}

	var guard idempotency.Guard
	if d.Cache != nil {
		guard = idempotency.NewRedisGuard(d.Cache, d.Cfg.IdempotencyTTL)
	} else {
		guard = idempotency.NewMemoryGuard(d.Cfg.IdempotencyTTL)
	}

	walletSvc := wallet.NewService(
		store,
		interaction.NewCodec(cipher),
		gateway,
		auth.NewChannelAuthenticator(d.Cfg.CountryPrefix),
		d.Logger,
	)
	dispatcher := action.NewDispatcher(action.Options{
		Cipher:       cipher,
		PrefixLength: d.Cfg.ContentPrefixLength,
		Workflows:    walletSvc,
		Guard:        guard,
		Gateway:      gateway,
		Logger:       d.Logger,
	})

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.RequestIDFrom(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	limiter := middleware.SenderRateLimit(d.Cache, d.Cfg.InboundRateLimit, time.Minute)
	RegisterSMSRoutes(app, api, action.NewHandler(dispatcher), limiter)

	if d.Cfg.CBDCAPIKey != "" {
		client := cbdc.NewClient(cbdc.Config{APIKey: d.Cfg.CBDCAPIKey, BaseURL: d.Cfg.CBDCBaseURL}, d.Logger)
		RegisterCBDCRoutes(api, cbdc.NewHandler(client))
	}
	return nil
}
