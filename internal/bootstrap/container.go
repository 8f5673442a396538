// Package bootstrap wires the application graph.
package bootstrap

import (
	"context"

	"storybook/backend/internal/api"
	"storybook/backend/internal/api/handler"
	"storybook/backend/internal/auth"
	"storybook/backend/internal/chat"
	"storybook/backend/internal/chathub"
	"storybook/backend/internal/config"
	"storybook/backend/internal/localization"
	"storybook/backend/internal/logger"
	"storybook/backend/internal/matching"
	"storybook/backend/internal/media"
	"storybook/backend/internal/region"
	"storybook/backend/internal/report"
	"storybook/backend/internal/storage"
	"storybook/backend/internal/story"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BuildContainer registers every service lazily. Nothing connects until it
// is first invoked, so the admin CLI only opens the database.
func BuildContainer(cfg *config.Config) *do.Injector {
	inj := do.New()

	do.ProvideValue(inj, cfg)

	do.Provide(inj, func(i *do.Injector) (*zap.Logger, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return logger.New(cfg.Log.Level, cfg.Log.Format)
	})

	// DB
	do.Provide(inj, func(i *do.Injector) (*gorm.DB, error) {
		cfg := do.MustInvoke[*config.Config](i)
		log := do.MustInvoke[*zap.Logger](i)
		db, err := storage.Open(cfg.Database)
		if err != nil {
			return nil, err
		}
		if cfg.Database.AutoMigrate {
			if err := storage.Migrate(db); err != nil {
				return nil, err
			}
			log.Info("database migrated")
		}
		return db, nil
	})

	// Redis is optional. A nil client means single-instance delivery.
	do.Provide(inj, func(i *do.Injector) (*redis.Client, error) {
		cfg := do.MustInvoke[*config.Config](i)
		if cfg.Redis.Addr == "" {
			return nil, nil
		}
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			_ = rdb.Close()
			return nil, err
		}
		return rdb, nil
	})

	do.Provide(inj, func(i *do.Injector) (*storage.Service, error) {
		return storage.NewStorageService(do.MustInvoke[*gorm.DB](i)), nil
	})

	// real-time registry and the cross-instance bus
	do.Provide(inj, func(i *do.Injector) (*chathub.ManagerService, error) {
		return chathub.NewManagerService(do.MustInvoke[*zap.Logger](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*chathub.Bus, error) {
		cfg := do.MustInvoke[*config.Config](i)
		rdb := do.MustInvoke[*redis.Client](i)
		if rdb == nil {
			return nil, nil
		}
		hub := do.MustInvoke[*chathub.ManagerService](i)
		bus := chathub.NewBus(rdb, cfg.Redis.Channel, hub, do.MustInvoke[*zap.Logger](i))
		hub.SetPublisher(bus)
		return bus, nil
	})

	// auth
	do.Provide(inj, func(i *do.Injector) (*auth.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		log := do.MustInvoke[*zap.Logger](i)
		return auth.NewService(
			do.MustInvoke[*storage.Service](i),
			auth.NewKakaoClient(cfg.Kakao, log),
			auth.NewTokens(cfg.JWT),
			log,
		), nil
	})

	// domain services
	do.Provide(inj, func(i *do.Injector) (*matching.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return matching.NewService(do.MustInvoke[*storage.Service](i), cfg.Guide.AutoApprove, do.MustInvoke[*zap.Logger](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*chat.Service, error) {
		return chat.NewService(
			do.MustInvoke[*storage.Service](i),
			do.MustInvoke[*chathub.ManagerService](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (*chat.Dispatcher, error) {
		return chat.NewDispatcher(do.MustInvoke[*chat.Service](i), do.MustInvoke[*zap.Logger](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (media.Store, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return media.NewStore(context.Background(), cfg.Media, cfg.S3)
	})
	do.Provide(inj, func(i *do.Injector) (*media.Uploader, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return media.NewUploader(
			do.MustInvoke[media.Store](i),
			media.NewThumbnailer(cfg.Thumbnail),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (*story.Service, error) {
		return story.NewService(
			do.MustInvoke[*storage.Service](i),
			do.MustInvoke[media.Store](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (*report.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return report.NewService(do.MustInvoke[*storage.Service](i), cfg.Report.HideThreshold, do.MustInvoke[*zap.Logger](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*region.Service, error) {
		return region.NewService(do.MustInvoke[*storage.Service](i), do.MustInvoke[*zap.Logger](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*localization.Localizer, error) {
		return localization.NewDefault()
	})

	// HTTP
	do.Provide(inj, func(i *do.Injector) (*handler.Handler, error) {
		return &handler.Handler{
			Auth:      do.MustInvoke[*auth.Service](i),
			Matching:  do.MustInvoke[*matching.Service](i),
			Chat:      do.MustInvoke[*chat.Service](i),
			Stories:   do.MustInvoke[*story.Service](i),
			Reports:   do.MustInvoke[*report.Service](i),
			Regions:   do.MustInvoke[*region.Service](i),
			Uploader:  do.MustInvoke[*media.Uploader](i),
			Hub:       do.MustInvoke[*chathub.ManagerService](i),
			Frames:    do.MustInvoke[*chat.Dispatcher](i),
			Localizer: do.MustInvoke[*localization.Localizer](i),
			Logger:    do.MustInvoke[*zap.Logger](i),
		}, nil
	})
	do.Provide(inj, func(i *do.Injector) (*gin.Engine, error) {
		cfg := do.MustInvoke[*config.Config](i)
		gin.SetMode(cfg.Server.Mode)
		return api.NewRouter(do.MustInvoke[*handler.Handler](i), cfg, do.MustInvoke[*zap.Logger](i)), nil
	})

	return inj
}
