package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"rolodex_reminder/internal/app"
	"rolodex_reminder/internal/infra/cache"
	"rolodex_reminder/internal/infra/config"
	idb "rolodex_reminder/internal/infra/database"
	"rolodex_reminder/internal/infra/logger"
	"rolodex_reminder/internal/infra/mailer"
	"rolodex_reminder/internal/infra/metrics"
	"rolodex_reminder/internal/infra/scheduler"
	"rolodex_reminder/internal/infra/sheet"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

const accumulatorPrefix = "rolodex:"

// components is everything a command needs, built once from configuration.
type components struct {
	cfg       *config.AppConfig
	db        *sql.DB
	redis     *redis.Client
	registry  *prometheus.Registry
	scheduler *scheduler.TriggerScheduler
	scan      *app.ScanService
	operator  *app.OperatorService
}

func buildComponents(ctx context.Context, cfg *config.AppConfig) (*components, error) {
	db, dialect, err := idb.Open(ctx, cfg.StoreDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	logger.Log.WithField("driver", dialect).Info("Database connection established successfully.")

	redisClient, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		db.Close()
		return nil, err
	}

	smtpSender, err := mailer.NewSMTPSender(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	})
	if err != nil {
		_ = redisClient.Close()
		db.Close()
		return nil, fmt.Errorf("could not configure mail transport: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	scanMetrics := metrics.MustNewMetrics(registry)

	propertyRepo := idb.NewPropertyRepository(db, dialect)
	triggerRepo := idb.NewTriggerRepository(db, dialect)
	workbook := sheet.NewWorkbook(cfg.SheetPath, cfg.SheetName)

	triggerScheduler := scheduler.NewTriggerScheduler(
		triggerRepo,
		logger.Component("scheduler"),
		cfg.ReconcileInterval,
		jobTimeout,
	)
	triggerService := app.NewTriggerService(triggerScheduler, cfg.ContinuationDelay, logger.Component("triggers"))
	cursor := app.NewCursor(propertyRepo, cache.NewRedisAccumulator(redisClient, accumulatorPrefix), cfg.AccumulatorTTL)

	scanService := app.NewScanService(workbook, cursor, triggerService, smtpSender, scanMetrics, logger.Component("scan"), app.ScanConfig{
		SliceSize:  cfg.SliceSize,
		Location:   cfg.Location,
		OwnerEmail: cfg.OwnerEmail,
	})
	operatorService := app.NewOperatorService(scanService, triggerService, cursor, workbook, workbook, app.OperatorConfig{
		OwnerEmail:      cfg.OwnerEmail,
		Timezone:        cfg.Timezone,
		AdminTelegramID: cfg.AdminTelegramID,
	}, logger.Component("operator"))

	return &components{
		cfg:       cfg,
		db:        db,
		redis:     redisClient,
		registry:  registry,
		scheduler: triggerScheduler,
		scan:      scanService,
		operator:  operatorService,
	}, nil
}

func (c *components) Close() error {
	return errors.Join(c.redis.Close(), c.db.Close())
}
