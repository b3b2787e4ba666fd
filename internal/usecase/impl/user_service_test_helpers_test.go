package impl

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"taskmgr/config"
	"taskmgr/internal/domain/entity"
	"taskmgr/internal/infra/auth"
	"taskmgr/internal/infra/persistence/memory"
	"taskmgr/internal/usecase"
)

const testPassword = "Passw0rd!"

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Token = config.TokenConfig{
		Secret:   "test-secret",
		Issuer:   "taskmgr-test",
		Audience: "taskmgr-test",
		TTL:      5 * time.Minute,
	}
	cfg.PasswordPolicy = config.PasswordPolicyConfig{
		MinLength:    8,
		MinUppercase: 1,
		MinLowercase: 1,
		MinDigits:    1,
		MinSpecial:   1,
	}
	cfg.Tasks = config.TasksConfig{DefaultPageSize: 10, MaxPageSize: 100}

	return cfg
}

// memoryFixtures wires the services against the in-memory store with real
// hashing, policy and token collaborators.
type memoryFixtures struct {
	store *memory.Store
	users *userService
	tasks usecase.TaskUsecase
}

func newMemoryFixtures(t *testing.T) memoryFixtures {
	t.Helper()

	cfg := newTestConfig()
	store := memory.NewStore()
	hasher, err := auth.NewPBKDF2Hasher(10000)
	require.NoError(t, err)
	tokens, err := auth.NewJWTService(cfg.Token)
	require.NoError(t, err)

	users := newUserService(UserServiceParams{
		TxManager:    memory.NewTransactionManager(store),
		UserRepo:     memory.NewUserRepository(store),
		Hasher:       hasher,
		Policy:       auth.NewPasswordPolicy(cfg.PasswordPolicy),
		TokenService: tokens,
		Logger:       newDiscardLogger(),
	})
	tasks := NewTaskService(TaskServiceParams{
		TxManager: memory.NewTransactionManager(store),
		TaskRepo:  memory.NewTaskRepository(store),
		Config:    cfg,
		Logger:    newDiscardLogger(),
	})

	return memoryFixtures{store: store, users: users, tasks: tasks}
}

func (f memoryFixtures) register(t *testing.T, username, email string) *entity.User {
	t.Helper()

	out, err := f.users.Register(context.Background(), &usecase.RegisterInput{
		Username: username,
		Email:    email,
		Password: testPassword,
	})
	require.NoError(t, err)

	return out.User
}
