// Package memory is a process-local implementation of the repository interfaces.
// It backs the "memory" storage driver used for local runs and tests.
package memory

import (
	"context"
	"sync"

	"taskmgr/internal/domain/entity"
	"taskmgr/internal/domain/repository"
)

// Store holds users and tasks in insertion order.
// Transactions are serialized; a failed transaction restores the snapshot taken when it began.
type Store struct {
	// txMu serializes transactions and standalone writes.
	txMu sync.Mutex
	// mu guards users and tasks.
	mu    sync.RWMutex
	users []*entity.User
	tasks []*entity.Task
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// NewTransactionManager exposes the store as a repository.TransactionManager.
func NewTransactionManager(s *Store) repository.TransactionManager {
	return &transactionManager{store: s}
}

// NewUserRepository returns a non-transactional user repository over s.
func NewUserRepository(s *Store) repository.UserRepository {
	return &userRepository{store: s}
}

// NewTaskRepository returns a non-transactional task repository over s.
func NewTaskRepository(s *Store) repository.TaskRepository {
	return &taskRepository{store: s}
}

type snapshot struct {
	users []*entity.User
	tasks []*entity.Task
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := snapshot{
		users: make([]*entity.User, len(s.users)),
		tasks: make([]*entity.Task, len(s.tasks)),
	}
	for i, u := range s.users {
		snap.users[i] = cloneUser(u)
	}
	for i, t := range s.tasks {
		snap.tasks[i] = cloneTask(t)
	}

	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = snap.users
	s.tasks = snap.tasks
}

// write runs fn under the data lock. Standalone repositories also hold txMu so
// their writes never interleave with a transaction that might roll back.
func (s *Store) write(inTx bool, fn func() error) error {
	if !inTx {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return fn()
}

type transactionManager struct {
	store *Store
}

type repositoryFactory struct {
	store *Store
}

func (f *repositoryFactory) UserRepo() repository.UserRepository {
	return &userRepository{store: f.store, inTx: true}
}

func (f *repositoryFactory) TaskRepo() repository.TaskRepository {
	return &taskRepository{store: f.store, inTx: true}
}

// Execute runs fn with exclusive access to the store. Any error or panic from fn
// discards its writes.
func (tm *transactionManager) Execute(ctx context.Context, fn func(repoFactory repository.RepositoryFactory) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tm.store.txMu.Lock()
	defer tm.store.txMu.Unlock()

	snap := tm.store.snapshot()
	committed := false
	defer func() {
		if !committed {
			tm.store.restore(snap)
		}
	}()

	if err := fn(&repositoryFactory{store: tm.store}); err != nil {
		return err
	}
	committed = true

	return nil
}

func cloneUser(u *entity.User) *entity.User {
	c := *u

	return &c
}

func cloneTask(t *entity.Task) *entity.Task {
	c := *t
	if t.DueDate != nil {
		due := *t.DueDate
		c.DueDate = &due
	}

	return &c
}
