// Package memory is an in-process implementation of the account store,
// transaction log and unit of work. Writes made inside Do are staged and
// become visible to other callers only when fn returns nil.
package memory

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/amirasaad/bankledger/pkg/domain"
	"github.com/amirasaad/bankledger/pkg/domain/account"
	"github.com/amirasaad/bankledger/pkg/repository"
	"github.com/google/uuid"
)

// Hooks let tests inject failures at the persistence boundary.
type Hooks struct {
	BeforeSave   func(acct *account.Account) error
	BeforeAppend func(records []*account.Transaction) error
	BeforeCommit func() error
}

// Store holds committed state.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]*account.Account
	records  []*account.Transaction
	ids      map[string]struct{}
	hooks    Hooks
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		accounts: make(map[string]*account.Account),
		ids:      make(map[string]struct{}),
	}
}

// SetHooks replaces the failure injection hooks.
func (s *Store) SetHooks(h Hooks) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = h
}

func (s *Store) currentHooks() Hooks {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hooks
}

// UoW is the unit of work over a Store.
type UoW struct {
	store *Store
	tx    *txn
}

// NewUoW creates a unit of work over store.
func NewUoW(store *Store) *UoW {
	return &UoW{store: store}
}

type txn struct {
	accounts map[string]*account.Account
	base     map[string]int64
	records  []*account.Transaction
	ids      map[string]struct{}
}

// Do stages every write made by fn and commits them together when fn returns nil.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := &txn{
		accounts: make(map[string]*account.Account),
		base:     make(map[string]int64),
		ids:      make(map[string]struct{}),
	}
	if err := fn(&UoW{store: u.store, tx: t}); err != nil {
		return err
	}
	return u.store.commit(t)
}

func (s *Store) commit(t *txn) error {
	if hook := s.currentHooks().BeforeCommit; hook != nil {
		if err := hook(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for number, base := range t.base {
		cur, ok := s.accounts[number]
		if !ok || cur.Version != base {
			return domain.ErrVersionConflict
		}
	}
	for id := range t.ids {
		if _, dup := s.ids[id]; dup {
			return domain.ErrDuplicateTransactionID
		}
	}
	for number, acct := range t.accounts {
		s.accounts[number] = acct.Clone()
	}
	for _, rec := range t.records {
		s.ids[rec.ID] = struct{}{}
		cp := *rec
		s.records = append(s.records, &cp)
	}
	return nil
}

// GetRepository returns a repository bound to this unit of work.
func (u *UoW) GetRepository(repoType reflect.Type) (any, error) {
	switch repoType {
	case repository.AccountRepositoryType:
		return &accountRepository{store: u.store, tx: u.tx}, nil
	case repository.TransactionRepositoryType:
		return &transactionRepository{store: u.store, tx: u.tx}, nil
	default:
		return nil, fmt.Errorf("unsupported repository type: %v", repoType)
	}
}

func (u *UoW) AccountRepository() (repository.AccountRepository, error) {
	return &accountRepository{store: u.store, tx: u.tx}, nil
}

func (u *UoW) TransactionRepository() (repository.TransactionRepository, error) {
	return &transactionRepository{store: u.store, tx: u.tx}, nil
}

type accountRepository struct {
	store *Store
	tx    *txn
}

func (r *accountRepository) GetByAccountNumber(_ context.Context, number string) (*account.Account, error) {
	if r.tx != nil {
		if a, ok := r.tx.accounts[number]; ok {
			return a.Clone(), nil
		}
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	a, ok := r.store.accounts[number]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return a.Clone(), nil
}

func (r *accountRepository) GetByOwner(_ context.Context, ownerID uuid.UUID) ([]*account.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []*account.Account
	for _, a := range r.store.accounts {
		if a.OwnerID == ownerID {
			out = append(out, a.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (r *accountRepository) Exists(ctx context.Context, number string) (bool, error) {
	_, err := r.GetByAccountNumber(ctx, number)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Create inserts immediately, even inside a unit of work. It exists for seeding.
func (r *accountRepository) Create(_ context.Context, acct *account.Account) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.accounts[acct.Number]; ok {
		return domain.ErrAlreadyExists
	}
	r.store.accounts[acct.Number] = acct.Clone()
	return nil
}

func (r *accountRepository) Save(_ context.Context, acct *account.Account) error {
	if hook := r.store.currentHooks().BeforeSave; hook != nil {
		if err := hook(acct); err != nil {
			return err
		}
	}

	var current int64
	if staged, ok := r.txAccount(acct.Number); ok {
		current = staged.Version
	} else {
		r.store.mu.RLock()
		committed, ok := r.store.accounts[acct.Number]
		r.store.mu.RUnlock()
		if !ok {
			return domain.ErrNotFound
		}
		current = committed.Version
	}
	if current != acct.Version {
		return domain.ErrVersionConflict
	}

	if r.tx == nil {
		return r.saveNow(acct)
	}
	if _, ok := r.tx.base[acct.Number]; !ok {
		r.tx.base[acct.Number] = acct.Version
	}
	acct.Version++
	r.tx.accounts[acct.Number] = acct.Clone()
	return nil
}

func (r *accountRepository) txAccount(number string) (*account.Account, bool) {
	if r.tx == nil {
		return nil, false
	}
	a, ok := r.tx.accounts[number]
	return a, ok
}

func (r *accountRepository) saveNow(acct *account.Account) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cur, ok := r.store.accounts[acct.Number]
	if !ok {
		return domain.ErrNotFound
	}
	if cur.Version != acct.Version {
		return domain.ErrVersionConflict
	}
	acct.Version++
	r.store.accounts[acct.Number] = acct.Clone()
	return nil
}

type transactionRepository struct {
	store *Store
	tx    *txn
}

func (r *transactionRepository) Append(_ context.Context, records ...*account.Transaction) error {
	if hook := r.store.currentHooks().BeforeAppend; hook != nil {
		if err := hook(records); err != nil {
			return err
		}
	}

	r.store.mu.RLock()
	for _, rec := range records {
		if _, dup := r.store.ids[rec.ID]; dup {
			r.store.mu.RUnlock()
			return domain.ErrDuplicateTransactionID
		}
	}
	r.store.mu.RUnlock()

	batch := make(map[string]struct{}, len(records))
	for _, rec := range records {
		if _, dup := batch[rec.ID]; dup {
			return domain.ErrDuplicateTransactionID
		}
		if r.tx != nil {
			if _, dup := r.tx.ids[rec.ID]; dup {
				return domain.ErrDuplicateTransactionID
			}
		}
		batch[rec.ID] = struct{}{}
	}

	if r.tx == nil {
		return r.store.commit(&txn{records: records, ids: batch})
	}
	for _, rec := range records {
		r.tx.ids[rec.ID] = struct{}{}
		cp := *rec
		r.tx.records = append(r.tx.records, &cp)
	}
	return nil
}

func (r *transactionRepository) ListByAccount(_ context.Context, number string, newestFirst bool) ([]*account.Transaction, error) {
	r.store.mu.RLock()
	var out []*account.Transaction
	for _, rec := range r.store.records {
		if rec.AccountNumber == number {
			cp := *rec
			out = append(out, &cp)
		}
	}
	r.store.mu.RUnlock()

	if newestFirst {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	} else {
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	}
	return out, nil
}

var _ repository.UnitOfWork = (*UoW)(nil)
