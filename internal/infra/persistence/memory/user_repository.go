package memory

import (
	"context"

	"github.com/google/uuid"

	"taskmgr/internal/domain/entity"
	domainerrors "taskmgr/internal/domain/errors"
	"taskmgr/internal/domain/repository"
)

type userRepository struct {
	store *Store
	inTx  bool
}

func (r *userRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, u := range r.store.users {
		if u.ID == id {
			return cloneUser(u), nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (r *userRepository) FindByUsernameOrEmail(_ context.Context, username, email string) (*entity.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, u := range r.store.users {
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			return cloneUser(u), nil
		}
	}

	return nil, repository.ErrUserNotFound
}

// Create enforces the same uniqueness the database indexes do.
func (r *userRepository) Create(_ context.Context, user *entity.User) error {
	return r.store.write(r.inTx, func() error {
		for _, u := range r.store.users {
			if u.ID == user.ID || u.Username == user.Username || u.Email == user.Email {
				return domainerrors.ErrUserAlreadyExists.WrapMessage("unique index rejected user")
			}
		}
		r.store.users = append(r.store.users, cloneUser(user))

		return nil
	})
}

func (r *userRepository) Update(_ context.Context, user *entity.User) error {
	return r.store.write(r.inTx, func() error {
		idx := -1
		for i, u := range r.store.users {
			if u.ID == user.ID {
				idx = i

				continue
			}
			if u.Username == user.Username || u.Email == user.Email {
				return domainerrors.ErrUserAlreadyExists.WrapMessage("unique index rejected user update")
			}
		}
		if idx < 0 {
			return repository.ErrUserNotFound
		}

		stored := r.store.users[idx]
		stored.Username = user.Username
		stored.Email = user.Email
		stored.PasswordHash = user.PasswordHash
		stored.UpdatedAt = user.UpdatedAt

		return nil
	})
}
