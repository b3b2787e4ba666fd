// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"

	deliverycontext "taskmgr/internal/delivery/context"
	"taskmgr/internal/domain/entity"
	domainerrors "taskmgr/internal/domain/errors"
	"taskmgr/internal/domain/repository"
	"taskmgr/internal/domain/service"
	"taskmgr/internal/usecase"
)

// dummyPassword feeds the verification run for unknown users so that a missing
// account costs the same work as a wrong password.
const dummyPassword = "taskmgr-dummy-password"

// userService implements the UserUsecase interface.
type userService struct {
	txManager     repository.TransactionManager
	userRepo      repository.UserRepository
	hasher        service.PasswordHasher
	policy        service.PasswordPolicy
	tokenService  service.TokenService
	dummyArtifact func() string
	now           func() time.Time
	logger        *slog.Logger
}

// UserServiceParams holds dependencies for UserService, injected by Fx.
type UserServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	UserRepo     repository.UserRepository
	Hasher       service.PasswordHasher
	Policy       service.PasswordPolicy
	TokenService service.TokenService
	Logger       *slog.Logger
}

// NewUserService is the constructor for userService. It receives all dependencies as interfaces.
func NewUserService(params UserServiceParams) usecase.UserUsecase {
	return newUserService(params)
}

func newUserService(params UserServiceParams) *userService {
	hasher := params.Hasher

	return &userService{
		txManager:    params.TxManager,
		userRepo:     params.UserRepo,
		hasher:       hasher,
		policy:       params.Policy,
		tokenService: params.TokenService,
		dummyArtifact: sync.OnceValue(func() string {
			artifact, err := hasher.Hash(context.Background(), dummyPassword)
			if err != nil {
				return ""
			}

			return artifact
		}),
		now:    func() time.Time { return time.Now().UTC() },
		logger: params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *userService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register creates an account after the policy check. The uniqueness check and
// the insert share one transaction.
func (srv *userService) Register(ctx context.Context, input *usecase.RegisterInput) (*usecase.RegisterOutput, error) {
	username := normalizeUsername(input.Username)
	email := normalizeEmail(input.Email)
	if username == "" || email == "" {
		return nil, domainerrors.ErrValidationFailed.WithDetails("username and email are required")
	}

	srv.log(ctx).Info("Starting registration", slog.String("username", username), slog.String("email", email))

	if accepted, reason := srv.policy.Validate(input.Password); !accepted {
		srv.log(ctx).Warn("Password rejected by policy", slog.String("username", username), slog.String("reason", reason))

		return nil, domainerrors.ErrPasswordPolicy.WithDetails(reason)
	}

	artifact, err := srv.hasher.Hash(ctx, input.Password)
	if err != nil {
		srv.log(ctx).Error("Failed to hash password during registration", slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrPasswordHashFailed, err.Error())
	}

	now := srv.now()
	newUser := &entity.User{
		ID:           entity.NewID(),
		Username:     username,
		Email:        email,
		PasswordHash: artifact,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		_, err := userRepo.FindByUsernameOrEmail(ctx, username, email)
		if err == nil {
			return domainerrors.ErrUserAlreadyExists
		}
		if !errors.Is(err, repository.ErrUserNotFound) {
			return asDatabaseError(err, "failed to check existing user")
		}

		return userRepo.Create(ctx, newUser)
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrUserAlreadyExists) {
			srv.log(ctx).Warn("Registration conflict", slog.String("username", username))

			return nil, domainerrors.ErrUserAlreadyExists
		}
		srv.log(ctx).Error("Failed to execute registration transaction", slog.String("username", username), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to execute user registration transaction")
	}

	srv.log(ctx).Debug("Registration completed", slog.Any("userID", newUser.ID))

	return &usecase.RegisterOutput{User: newUser}, nil
}

// Authenticate resolves the identifier as username or email and verifies the password.
func (srv *userService) Authenticate(ctx context.Context, usernameOrEmail, password string) (*entity.User, error) {
	identifier := strings.TrimSpace(usernameOrEmail)
	if identifier == "" {
		srv.hasher.Verify(ctx, password, srv.dummyArtifact())

		return nil, domainerrors.ErrInvalidCredentials
	}

	user, err := srv.userRepo.FindByUsernameOrEmail(ctx, identifier, normalizeEmail(identifier))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			srv.hasher.Verify(ctx, password, srv.dummyArtifact())
			srv.log(ctx).Info("Authentication failed")

			return nil, domainerrors.ErrInvalidCredentials
		}
		srv.log(ctx).Error("Failed to load user for authentication", slog.Any("error", err))

		return nil, asDatabaseError(err, "failed to load user")
	}

	if !srv.hasher.Verify(ctx, password, user.PasswordHash) {
		srv.log(ctx).Info("Authentication failed")

		return nil, domainerrors.ErrInvalidCredentials
	}

	return user, nil
}

// Login authenticates and issues a session token.
func (srv *userService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.LoginOutput, error) {
	user, err := srv.Authenticate(ctx, input.UsernameOrEmail, input.Password)
	if err != nil {
		return nil, err
	}

	issued, err := srv.tokenService.Issue(user.ID, user.Username)
	if err != nil {
		srv.log(ctx).Error("Failed to issue token", slog.Any("userID", user.ID), slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrInternalError, err.Error())
	}

	srv.log(ctx).Debug("User logged in", slog.Any("userID", user.ID), slog.String("tokenID", issued.TokenID))

	return &usecase.LoginOutput{Token: issued.Token, ExpiresAt: issued.ExpiresAt, User: user}, nil
}

func (srv *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, mapUserLookupError(err)
	}

	return user, nil
}

// UpdateProfile changes username and/or email. Both stay globally unique.
func (srv *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, input *usecase.UpdateProfileInput) (*entity.User, error) {
	if (input.Username != nil && normalizeUsername(*input.Username) == "") ||
		(input.Email != nil && normalizeEmail(*input.Email) == "") {
		return nil, domainerrors.ErrValidationFailed.WithDetails("username and email must not be empty")
	}

	var updated *entity.User
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		user, err := userRepo.FindByID(ctx, userID)
		if err != nil {
			return mapUserLookupError(err)
		}

		var newUsername, newEmail string
		if input.Username != nil {
			if u := normalizeUsername(*input.Username); u != user.Username {
				newUsername = u
			}
		}
		if input.Email != nil {
			if e := normalizeEmail(*input.Email); e != user.Email {
				newEmail = e
			}
		}
		if newUsername != "" || newEmail != "" {
			other, err := userRepo.FindByUsernameOrEmail(ctx, newUsername, newEmail)
			switch {
			case err == nil && other.ID != user.ID:
				return domainerrors.ErrUserAlreadyExists
			case err != nil && !errors.Is(err, repository.ErrUserNotFound):
				return asDatabaseError(err, "failed to check existing user")
			}
		}

		if newUsername != "" {
			user.Username = newUsername
		}
		if newEmail != "" {
			user.Email = newEmail
		}
		user.Touch(srv.now())

		if err := userRepo.Update(ctx, user); err != nil {
			return mapUserLookupError(err)
		}
		updated = user

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Failed to update profile", slog.Any("userID", userID), slog.Any("error", err))

		return nil, err
	}

	return updated, nil
}

// ChangePassword swaps the stored artifact for a fresh one.
func (srv *userService) ChangePassword(ctx context.Context, userID uuid.UUID, input *usecase.ChangePasswordInput) error {
	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		return mapUserLookupError(err)
	}

	if !srv.hasher.Verify(ctx, input.CurrentPassword, user.PasswordHash) {
		return domainerrors.ErrInvalidCredentials
	}

	if accepted, reason := srv.policy.Validate(input.NewPassword); !accepted {
		return domainerrors.ErrPasswordPolicy.WithDetails(reason)
	}

	artifact, err := srv.hasher.Hash(ctx, input.NewPassword)
	if err != nil {
		return errors.Wrap(domainerrors.ErrPasswordHashFailed, err.Error())
	}

	user.PasswordHash = artifact
	user.Touch(srv.now())

	if err := srv.userRepo.Update(ctx, user); err != nil {
		return mapUserLookupError(err)
	}

	srv.log(ctx).Info("Password changed", slog.Any("userID", userID))

	return nil
}

func normalizeUsername(username string) string {
	return strings.TrimSpace(username)
}

// Emails compare case-insensitively.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func mapUserLookupError(err error) error {
	if errors.Is(err, repository.ErrUserNotFound) {
		return domainerrors.ErrUserNotFound
	}

	return asDatabaseError(err, "user store failure")
}

// asDatabaseError passes AppErrors through and turns anything else into a DatabaseExecuteError.
func asDatabaseError(err error, details string) error {
	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	return domainerrors.NewDatabaseExecuteError(err, details)
}
