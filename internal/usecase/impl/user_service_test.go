package impl

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"taskmgr/internal/domain/entity"
	domainerrors "taskmgr/internal/domain/errors"
	"taskmgr/internal/domain/repository"
	mockRepo "taskmgr/internal/mocks/repository"
	mockSvc "taskmgr/internal/mocks/service"
	"taskmgr/internal/usecase"
)

// userServiceMocks holds a user service whose collaborators are all mocks.
type userServiceMocks struct {
	service      *userService
	txManager    *mockRepo.MockTransactionManager
	userRepo     *mockRepo.MockUserRepository
	hasher       *mockSvc.MockPasswordHasher
	policy       *mockSvc.MockPasswordPolicy
	tokenService *mockSvc.MockTokenService
}

func createMockedUserService(t *testing.T) userServiceMocks {
	txManager := mockRepo.NewMockTransactionManager(t)
	userRepo := mockRepo.NewMockUserRepository(t)
	hasher := mockSvc.NewMockPasswordHasher(t)
	policy := mockSvc.NewMockPasswordPolicy(t)
	tokenService := mockSvc.NewMockTokenService(t)

	service := newUserService(UserServiceParams{
		TxManager:    txManager,
		UserRepo:     userRepo,
		Hasher:       hasher,
		Policy:       policy,
		TokenService: tokenService,
		Logger:       newDiscardLogger(),
	})

	return userServiceMocks{
		service:      service,
		txManager:    txManager,
		userRepo:     userRepo,
		hasher:       hasher,
		policy:       policy,
		tokenService: tokenService,
	}
}

func appErrorDetails(t *testing.T, err error) string {
	t.Helper()

	var appErr domainerrors.AppError
	require.True(t, errors.As(err, &appErr), "expected an AppError, got %v", err)

	return appErr.Details()
}

func TestUserService_Register_Success(t *testing.T) {
	f := newMemoryFixtures(t)
	ctx := context.Background()

	out, err := f.users.Register(ctx, &usecase.RegisterInput{
		Username: "  alice ",
		Email:    "Alice@Example.COM",
		Password: testPassword,
	})
	require.NoError(t, err)

	user := out.User
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, testPassword, user.PasswordHash)
	assert.NotContains(t, user.PasswordHash, testPassword)
	assert.False(t, user.UpdatedAt.Before(user.CreatedAt))

	stored, err := memoryUserRepo(f).FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.PasswordHash, stored.PasswordHash)
}

func TestUserService_Register_Conflicts(t *testing.T) {
	f := newMemoryFixtures(t)
	ctx := context.Background()
	existing := f.register(t, "alice", "alice@example.com")

	cases := map[string]usecase.RegisterInput{
		"same username": {Username: "alice", Email: "other@example.com", Password: testPassword},
		"same email":    {Username: "bob", Email: "ALICE@example.com", Password: testPassword},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.users.Register(ctx, &input)
			require.Error(t, err)
			assert.ErrorIs(t, err, domainerrors.ErrUserAlreadyExists)
			assert.Empty(t, appErrorDetails(t, err))
		})
	}

	_, err := memoryUserRepo(f).FindByUsernameOrEmail(ctx, "bob", "other@example.com")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	stored, err := memoryUserRepo(f).FindByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, existing.PasswordHash, stored.PasswordHash)
}

func TestUserService_Register_PolicyRejection(t *testing.T) {
	f := newMemoryFixtures(t)
	ctx := context.Background()

	cases := []struct {
		password string
		reason   string
	}{
		{"Ab1!", "Password must be at least 8 characters long."},
		{"password1!", "Password must contain at least 1 uppercase letter(s)."},
		{"PASSWORD1!", "Password must contain at least 1 lowercase letter(s)."},
		{"Password!!", "Password must contain at least 1 digit(s)."},
		{"Password12", "Password must contain at least 1 special character(s)."},
	}
	for _, tc := range cases {
		t.Run(tc.password, func(t *testing.T) {
			_, err := f.users.Register(ctx, &usecase.RegisterInput{
				Username: "carol",
				Email:    "carol@example.com",
				Password: tc.password,
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, domainerrors.ErrPasswordPolicy)
			assert.Equal(t, tc.reason, appErrorDetails(t, err))
		})
	}

	_, err := memoryUserRepo(f).FindByUsernameOrEmail(ctx, "carol", "carol@example.com")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestUserService_Register_RequiresIdentity(t *testing.T) {
	m := createMockedUserService(t)

	_, err := m.service.Register(context.Background(), &usecase.RegisterInput{
		Username: "   ",
		Email:    "dave@example.com",
		Password: testPassword,
	})
	assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)
}

func TestUserService_Register_HashFailure(t *testing.T) {
	m := createMockedUserService(t)
	ctx := context.Background()

	m.policy.EXPECT().Validate(testPassword).Return(true, "")
	m.hasher.EXPECT().Hash(ctx, testPassword).Return("", errors.New("entropy source unavailable"))

	_, err := m.service.Register(ctx, &usecase.RegisterInput{
		Username: "erin",
		Email:    "erin@example.com",
		Password: testPassword,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrPasswordHashFailed)
	m.txManager.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}

func TestUserService_Register_StoreFailure(t *testing.T) {
	m := createMockedUserService(t)
	ctx := context.Background()
	storeErr := errors.New("connection reset")

	m.policy.EXPECT().Validate(testPassword).Return(true, "")
	m.hasher.EXPECT().Hash(ctx, testPassword).Return("artifact", nil)
	m.txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			factory := mockRepo.NewMockRepositoryFactory(t)
			txUserRepo := mockRepo.NewMockUserRepository(t)
			factory.EXPECT().UserRepo().Return(txUserRepo)
			txUserRepo.EXPECT().FindByUsernameOrEmail(ctx, "frank", "frank@example.com").Return(nil, storeErr)

			return fn(factory)
		})

	_, err := m.service.Register(ctx, &usecase.RegisterInput{
		Username: "frank",
		Email:    "frank@example.com",
		Password: testPassword,
	})
	require.Error(t, err)

	var dbErr *domainerrors.DatabaseExecuteError
	require.True(t, errors.As(err, &dbErr))
	assert.ErrorIs(t, err, storeErr)
}

func TestUserService_Register_ConcurrentSameUsername(t *testing.T) {
	f := newMemoryFixtures(t)
	ctx := context.Background()

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := range attempts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.users.Register(ctx, &usecase.RegisterInput{
				Username: "grace",
				Email:    uuid.NewString() + "@example.com",
				Password: testPassword,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, domainerrors.ErrUserAlreadyExists):
				conflicts++
			default:
				t.Errorf("attempt %d: unexpected error %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)
}

func TestUserService_Authenticate(t *testing.T) {
	f := newMemoryFixtures(t)
	ctx := context.Background()
	alice := f.register(t, "alice", "alice@example.com")

	t.Run("by username", func(t *testing.T) {
		user, err := f.users.Authenticate(ctx, "alice", testPassword)
		require.NoError(t, err)
		assert.Equal(t, alice.ID, user.ID)
	})

	t.Run("by email in any case", func(t *testing.T) {
		user, err := f.users.Authenticate(ctx, "ALICE@example.com", testPassword)
		require.NoError(t, err)
		assert.Equal(t, alice.ID, user.ID)
	})

	t.Run("wrong password and unknown user fail alike", func(t *testing.T) {
		_, wrongPassword := f.users.Authenticate(ctx, "alice", "Wr0ng-password")
		_, unknownUser := f.users.Authenticate(ctx, "mallory", testPassword)

		require.Error(t, wrongPassword)
		require.Error(t, unknownUser)
		assert.ErrorIs(t, wrongPassword, domainerrors.ErrInvalidCredentials)
		assert.ErrorIs(t, unknownUser, domainerrors.ErrInvalidCredentials)
		assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
	})

	t.Run("case-mismatched username", func(t *testing.T) {
		_, err := f.users.Authenticate(ctx, "Alice", testPassword)
		assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	})
}

func TestUserService_Authenticate_UnknownUserStillVerifies(t *testing.T) {
	m := createMockedUserService(t)
	ctx := context.Background()

	m.userRepo.EXPECT().FindByUsernameOrEmail(ctx, "nobody", "nobody").Return(nil, repository.ErrUserNotFound)
	m.hasher.EXPECT().Hash(mock.Anything, dummyPassword).Return("dummy-artifact", nil).Once()
	m.hasher.EXPECT().Verify(ctx, "guess", "dummy-artifact").Return(false).Once()

	_, err := m.service.Authenticate(ctx, "nobody", "guess")
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestUserService_Authenticate_StoreFailure(t *testing.T) {
	m := createMockedUserService(t)
	ctx := context.Background()

	m.userRepo.EXPECT().FindByUsernameOrEmail(ctx, "alice", "alice").Return(nil, errors.New("timeout"))

	_, err := m.service.Authenticate(ctx, "alice", testPassword)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	var dbErr *domainerrors.DatabaseExecuteError
	assert.True(t, errors.As(err, &dbErr))
}

func TestUserService_Login(t *testing.T) {
	f := newMemoryFixtures(t)
	ctx := context.Background()
	alice := f.register(t, "alice", "alice@example.com")

	out, err := f.users.Login(ctx, &usecase.LoginInput{UsernameOrEmail: "alice@example.com", Password: testPassword})
	require.NoError(t, err)
	assert.NotEmpty(t, out.Token)
	assert.Equal(t, alice.ID, out.User.ID)

	claims, err := f.users.tokenService.Validate(out.Token)
	require.NoError(t, err)
	userID, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, alice.ID, userID)
	assert.Equal(t, "alice", claims.Username)
	assert.WithinDuration(t, claims.ExpiresAt.Time, out.ExpiresAt, time.Second)

	_, err = f.users.Login(ctx, &usecase.LoginInput{UsernameOrEmail: "alice", Password: "nope"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestUserService_Login_IssueFailure(t *testing.T) {
	m := createMockedUserService(t)
	ctx := context.Background()
	user := &entity.User{ID: uuid.New(), Username: "alice", PasswordHash: "artifact"}

	m.userRepo.EXPECT().FindByUsernameOrEmail(ctx, "alice", "alice").Return(user, nil)
	m.hasher.EXPECT().Verify(ctx, testPassword, "artifact").Return(true)
	m.tokenService.EXPECT().Issue(user.ID, "alice").Return(nil, errors.New("signing failed"))

	_, err := m.service.Login(ctx, &usecase.LoginInput{UsernameOrEmail: "alice", Password: testPassword})
	assert.ErrorIs(t, err, domainerrors.ErrInternalError)
}

func TestUserService_GetProfile(t *testing.T) {
	f := newMemoryFixtures(t)
	ctx := context.Background()
	alice := f.register(t, "alice", "alice@example.com")

	user, err := f.users.GetProfile(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)

	_, err = f.users.GetProfile(ctx, uuid.New())
	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)
}

func TestUserService_UpdateProfile(t *testing.T) {
	f := newMemoryFixtures(t)
	ctx := context.Background()
	alice := f.register(t, "alice", "alice@example.com")
	f.register(t, "bob", "bob@example.com")

	t.Run("taken username", func(t *testing.T) {
		name := "bob"
		_, err := f.users.UpdateProfile(ctx, alice.ID, &usecase.UpdateProfileInput{Username: &name})
		assert.ErrorIs(t, err, domainerrors.ErrUserAlreadyExists)
	})

	t.Run("taken email", func(t *testing.T) {
		email := "BOB@example.com"
		_, err := f.users.UpdateProfile(ctx, alice.ID, &usecase.UpdateProfileInput{Email: &email})
		assert.ErrorIs(t, err, domainerrors.ErrUserAlreadyExists)
	})

	t.Run("empty value", func(t *testing.T) {
		empty := " "
		_, err := f.users.UpdateProfile(ctx, alice.ID, &usecase.UpdateProfileInput{Email: &empty})
		assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)
	})

	t.Run("unchanged own values", func(t *testing.T) {
		name, email := "alice", "alice@example.com"
		user, err := f.users.UpdateProfile(ctx, alice.ID, &usecase.UpdateProfileInput{Username: &name, Email: &email})
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
	})

	t.Run("new values", func(t *testing.T) {
		name, email := "alice2", "alice2@example.com"
		user, err := f.users.UpdateProfile(ctx, alice.ID, &usecase.UpdateProfileInput{Username: &name, Email: &email})
		require.NoError(t, err)
		assert.Equal(t, "alice2", user.Username)
		assert.Equal(t, "alice2@example.com", user.Email)
		assert.False(t, user.UpdatedAt.Before(alice.UpdatedAt))

		_, err = f.users.Authenticate(ctx, "alice2", testPassword)
		require.NoError(t, err)
		_, err = f.users.Authenticate(ctx, "alice", testPassword)
		assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		name := "zed"
		_, err := f.users.UpdateProfile(ctx, uuid.New(), &usecase.UpdateProfileInput{Username: &name})
		assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)
	})
}

func TestUserService_ChangePassword(t *testing.T) {
	f := newMemoryFixtures(t)
	ctx := context.Background()
	alice := f.register(t, "alice", "alice@example.com")
	const newPassword = "N3w-Passw0rd"

	err := f.users.ChangePassword(ctx, alice.ID, &usecase.ChangePasswordInput{CurrentPassword: "wrong", NewPassword: newPassword})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	err = f.users.ChangePassword(ctx, alice.ID, &usecase.ChangePasswordInput{CurrentPassword: testPassword, NewPassword: "short"})
	assert.ErrorIs(t, err, domainerrors.ErrPasswordPolicy)

	err = f.users.ChangePassword(ctx, alice.ID, &usecase.ChangePasswordInput{CurrentPassword: testPassword, NewPassword: newPassword})
	require.NoError(t, err)

	_, err = f.users.Authenticate(ctx, "alice", testPassword)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	_, err = f.users.Authenticate(ctx, "alice", newPassword)
	assert.NoError(t, err)
}

func memoryUserRepo(f memoryFixtures) repository.UserRepository {
	return f.users.userRepo
}
