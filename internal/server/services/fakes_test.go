package services

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/dmitrijs2005/invkeeper/internal/common"
	"github.com/dmitrijs2005/invkeeper/internal/cryptox"
	"github.com/dmitrijs2005/invkeeper/internal/dbx"
	"github.com/dmitrijs2005/invkeeper/internal/server/credentials"
	"github.com/dmitrijs2005/invkeeper/internal/server/models"
	"github.com/dmitrijs2005/invkeeper/internal/server/repositories/products"
	"github.com/dmitrijs2005/invkeeper/internal/server/repositories/users"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newTestHasher() *credentials.Store {
	return credentials.NewStoreWithParams("test-pepper", cryptox.KDFParams{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32})
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet sql expectations: %v", err)
		}
		_ = db.Close()
	})
	return db, mock
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// fakeUsersRepo keeps users in memory and enforces the same uniqueness
// rules as the users table.
type fakeUsersRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*models.User

	getByUsernameCalls int
	getByEmailCalls    int

	getErr    error
	createErr error
	updateErr error
	listErr   error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byID: map[int64]*models.User{}}
}

func (r *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	for _, existing := range r.byID {
		if existing.Username == u.Username {
			return nil, common.ErrDuplicateUsername
		}
		if existing.Email == u.Email {
			return nil, common.ErrDuplicateEmail
		}
	}
	r.nextID++
	c := *u
	c.ID = r.nextID
	c.CreatedAt = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	r.byID[c.ID] = &c
	out := c
	return &out, nil
}

func (r *fakeUsersRepo) find(match func(*models.User) bool) (*models.User, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	for _, u := range r.byID {
		if match(u) {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeUsersRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.find(func(u *models.User) bool { return u.ID == id })
}

func (r *fakeUsersRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getByUsernameCalls++
	return r.find(func(u *models.User) bool { return u.Username == username })
}

func (r *fakeUsersRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getByEmailCalls++
	return r.find(func(u *models.User) bool { return u.Email == email })
}

func (r *fakeUsersRepo) sorted(match func(*models.User) bool) ([]*models.User, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := []*models.User{}
	for _, u := range r.byID {
		if match(u) {
			c := *u
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeUsersRepo) List(context.Context) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(*models.User) bool { return true })
}

func (r *fakeUsersRepo) ListByRole(_ context.Context, isAdmin bool) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(u *models.User) bool { return u.IsAdmin == isAdmin })
}

func (r *fakeUsersRepo) Update(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	existing, ok := r.byID[u.ID]
	if !ok {
		return common.ErrorNotFound
	}
	existing.Username = u.Username
	existing.Email = u.Email
	existing.IsAdmin = u.IsAdmin
	return nil
}

func (r *fakeUsersRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	existing, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	existing.PasswordHash = hash
	return nil
}

func (r *fakeUsersRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.byID, id)
	return nil
}

// setAdmin flips the stored flag behind the services' back.
func (r *fakeUsersRepo) setAdmin(id int64, isAdmin bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[id].IsAdmin = isAdmin
}

func (r *fakeUsersRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

type fakeProductsRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*models.Product
	err    error

	lastLimit int
}

func newFakeProductsRepo() *fakeProductsRepo {
	return &fakeProductsRepo{byID: map[int64]*models.Product{}}
}

func (r *fakeProductsRepo) Create(_ context.Context, p *models.Product) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	r.nextID++
	c := *p
	c.ID = r.nextID
	r.byID[c.ID] = &c
	out := c
	return &out, nil
}

func (r *fakeProductsRepo) Get(_ context.Context, id int64) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	p, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *p
	return &c, nil
}

func (r *fakeProductsRepo) filter(match func(*models.Product) bool) ([]*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := []*models.Product{}
	for _, p := range r.byID {
		if match(p) {
			c := *p
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeProductsRepo) List(context.Context) ([]*models.Product, error) {
	return r.filter(func(*models.Product) bool { return true })
}

func (r *fakeProductsRepo) Update(_ context.Context, p *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if _, ok := r.byID[p.ID]; !ok {
		return common.ErrorNotFound
	}
	c := *p
	r.byID[p.ID] = &c
	return nil
}

func (r *fakeProductsRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if _, ok := r.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *fakeProductsRepo) SearchByCategory(_ context.Context, category string) ([]*models.Product, error) {
	return r.filter(func(p *models.Product) bool {
		return strings.Contains(strings.ToLower(p.Category), strings.ToLower(category))
	})
}

func (r *fakeProductsRepo) SearchByBrand(_ context.Context, brand string) ([]*models.Product, error) {
	return r.filter(func(p *models.Product) bool {
		return strings.Contains(strings.ToLower(p.Brand), strings.ToLower(brand))
	})
}

func (r *fakeProductsRepo) LowStock(_ context.Context, limit int) ([]*models.Product, error) {
	r.mu.Lock()
	r.lastLimit = limit
	r.mu.Unlock()
	return r.filter(func(p *models.Product) bool { return p.Quantity <= limit })
}

type fakeRepoManager struct {
	users    *fakeUsersRepo
	products *fakeProductsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository { return m.users }

func (m *fakeRepoManager) Products(dbx.DBTX) products.Repository { return m.products }
