package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/invoice-qc/internal/application/ports"
	"github.com/tu-usuario/invoice-qc/internal/application/usecase"
	"github.com/tu-usuario/invoice-qc/internal/domain/validation"
	infraai "github.com/tu-usuario/invoice-qc/internal/infrastructure/ai"
	"github.com/tu-usuario/invoice-qc/internal/infrastructure/extraction"
	infrapdf "github.com/tu-usuario/invoice-qc/internal/infrastructure/pdf"
	"github.com/tu-usuario/invoice-qc/internal/infrastructure/postgres"
	httpRouter "github.com/tu-usuario/invoice-qc/internal/interfaces/http"
	"github.com/tu-usuario/invoice-qc/pkg/config"
	"github.com/tu-usuario/invoice-qc/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("esquema de base de datos")
	}

	historyRepo := postgres.NewInvoiceHistoryRepository(pool)
	dupChecker := validation.NewDuplicateChecker(
		historyRepo,
		time.Duration(cfg.Validation.DuplicateTimeoutSeconds)*time.Second,
	)

	validationUC := usecase.NewValidationUseCase(dupChecker, usecase.ValidationOptions{
		HighAmountThreshold: decimal.NewFromFloat(cfg.Validation.HighAmountThreshold),
		Tolerance:           decimal.NewFromFloat(cfg.Validation.AmountTolerance),
		Workers:             cfg.Validation.Workers,
	}, log.Component("validation"))

	// Extractor IA solo si hay API key; el regex siempre está disponible.
	var aiExtractor ports.DocumentExtractor
	if cfg.AI.GeminiAPIKey != "" {
		aiExtractor = infraai.NewGeminiExtractor(cfg.AI.GeminiAPIKey, cfg.AI.GeminiModel)
	}
	extractionUC := usecase.NewExtractionUseCase(aiExtractor, extraction.NewRegexExtractor(), log.Component("extraction"))

	historyUC := usecase.NewHistoryUseCase(validationUC, historyRepo, log.Component("history"))
	reportPDF := infrapdf.NewMarotoReportGenerator()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		ValidationUC: validationUC,
		ExtractionUC: extractionUC,
		HistoryUC:    historyUC,
		ReportPDF:    reportPDF,
		JWT:          cfg.JWT,
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

	log.Info().Msg("aplicación detenida")
}
