package main

import (
	"context"
	"log/slog"
	"os"

	"go.uber.org/fx"

	"taskmgr/config"
	"taskmgr/internal/delivery"
	"taskmgr/internal/delivery/api"
	"taskmgr/internal/delivery/api/middleware"
	"taskmgr/internal/delivery/api/router/handler"
	"taskmgr/internal/domain/service"
	"taskmgr/internal/infra/auth"
	logs "taskmgr/internal/infra/log"
	"taskmgr/internal/infra/persistence/memory"
	"taskmgr/internal/infra/persistence/postgres"
	"taskmgr/internal/usecase/impl"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	// Config is loaded up front because it decides which storage module is wired.
	cfg, err := config.New()
	if err != nil {
		slog.Error("Failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	fx.New(
		fx.Supply(cfg),
		injectInfra(),
		injectStorage(cfg),
		injectService(),
		injectUsecase(),
		injectMiddleware(),
		injectHandler(),
		injectDelivery(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		logs.New,
		context.Background,
	)
}

func injectStorage(cfg *config.Config) fx.Option {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		return fx.Provide(
			memory.NewStore,
			memory.NewTransactionManager,
			memory.NewUserRepository,
			memory.NewTaskRepository,
		)
	}

	return fx.Provide(
		postgres.New,
		postgres.NewTransactionManager,
		postgres.NewUserRepository,
		postgres.NewTaskRepository,
	)
}

func injectService() fx.Option {
	return fx.Provide(
		auth.NewPasswordHasher,
		newPasswordPolicy,
		newTokenService,
	)
}

func newPasswordPolicy(cfg *config.Config) service.PasswordPolicy {
	return auth.NewPasswordPolicy(cfg.PasswordPolicy)
}

func newTokenService(cfg *config.Config) (service.TokenService, error) {
	return auth.NewJWTService(cfg.Token)
}

func injectUsecase() fx.Option {
	return fx.Provide(
		impl.NewUserService,
		impl.NewTaskService,
	)
}

func injectMiddleware() fx.Option {
	return fx.Provide(
		middleware.NewAuthMiddleware,
	)
}

func injectHandler() fx.Option {
	return fx.Provide(
		handler.NewUserHandler,
		handler.NewTaskHandler,
	)
}

func injectDelivery() fx.Option {
	return fx.Provide(
		fx.Annotate(
			api.NewServer,
			fx.ResultTags(`group:"deliveries"`),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, d := range params.Deliveries {
		go func() {
			if err := d.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
