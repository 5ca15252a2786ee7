package main

import (
	"context"
	"fmt"

	appledger "github.com/jackyeh168/gym_crm/src/internal/application/ledger"
	appmember "github.com/jackyeh168/gym_crm/src/internal/application/member"
	appnotification "github.com/jackyeh168/gym_crm/src/internal/application/notification"
	apptier "github.com/jackyeh168/gym_crm/src/internal/application/tier"
	"github.com/jackyeh168/gym_crm/src/internal/domain/shared"
	"github.com/jackyeh168/gym_crm/src/internal/infrastructure/catalog"
	"github.com/jackyeh168/gym_crm/src/internal/infrastructure/config"
	"github.com/jackyeh168/gym_crm/src/internal/infrastructure/database"
	"github.com/jackyeh168/gym_crm/src/internal/infrastructure/events"
	"github.com/jackyeh168/gym_crm/src/internal/infrastructure/logger"
	"github.com/jackyeh168/gym_crm/src/internal/infrastructure/persistence"
	ledgerstore "github.com/jackyeh168/gym_crm/src/internal/infrastructure/persistence/ledger"
	memberstore "github.com/jackyeh168/gym_crm/src/internal/infrastructure/persistence/member"
	notificationstore "github.com/jackyeh168/gym_crm/src/internal/infrastructure/persistence/notification"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// app 組裝好的服務
type app struct {
	db    *gorm.DB
	redis *redis.Client
	log   logger.Logger

	enroll        *appmember.EnrollMemberUseCase
	ledger        *appledger.Service
	tiers         *apptier.Service
	notifications *appnotification.Service
	expiry        *appnotification.ExpiryScanner
}

func newApp(ctx context.Context, cfg *config.Config, log logger.Logger) (*app, error) {
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, err
	}

	source, redisClient, err := newCatalog(ctx, cfg, log)
	if err != nil {
		_ = database.Close(db)
		return nil, err
	}

	clock := shared.SystemClock{}
	txManager := persistence.NewGORMTransactionManager(db)
	memberRepo := memberstore.NewMemberRepository(db)
	regRepo := ledgerstore.NewRegistrationRepository(db)
	payRepo := ledgerstore.NewPaymentRepository(db)
	notificationRepo := notificationstore.NewNotificationRepository(db)

	a := &app{db: db, redis: redisClient, log: log}

	bus := events.NewInProcessBus(log)
	notifications := appnotification.NewService(txManager, notificationRepo, clock, log)
	if err := bus.Subscribe(appnotification.NewPaymentConfirmedHandler(notifications, regRepo)); err != nil {
		a.Close()
		return nil, err
	}

	a.enroll = appmember.NewEnrollMemberUseCase(memberRepo, txManager, clock)
	a.ledger = appledger.NewService(txManager, memberRepo, regRepo, payRepo, source, bus, clock, log)
	a.tiers = apptier.NewService(txManager, memberRepo, regRepo, source, source, memberstore.NewAttendanceHistory(db), clock, log)
	a.notifications = notifications
	a.expiry = appnotification.NewExpiryScanner(notifications, regRepo, clock, cfg.Jobs.ScanBatchSize, log)
	return a, nil
}

// newCatalog 靜態目錄；啟用 Redis 時包一層讀取快取
func newCatalog(ctx context.Context, cfg *config.Config, log logger.Logger) (catalog.Source, *redis.Client, error) {
	packages, err := cfg.Catalog.ToPackages()
	if err != nil {
		return nil, nil, err
	}
	tiers, err := cfg.Catalog.ToTiers()
	if err != nil {
		return nil, nil, err
	}
	static, err := catalog.NewStaticCatalog(packages, tiers)
	if err != nil {
		return nil, nil, err
	}

	if !cfg.Redis.Enabled {
		return static, nil, nil
	}

	client := catalog.NewRedisClient(cfg.Redis)
	if err := catalog.Ping(ctx, client); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("catalog cache unavailable: %w", err)
	}
	return catalog.NewCachedCatalog(static, client, cfg.Catalog.CacheTTL, log), client, nil
}

func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.WithError(err).Warn("failed to close redis client", nil)
		}
	}
	if err := database.Close(a.db); err != nil {
		a.log.WithError(err).Warn("failed to close database", nil)
	}
}
