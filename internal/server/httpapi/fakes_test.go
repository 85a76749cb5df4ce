package httpapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrijs2005/invkeeper/internal/common"
	"github.com/dmitrijs2005/invkeeper/internal/logging"
	"github.com/dmitrijs2005/invkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/invkeeper/internal/server/models"
	"github.com/dmitrijs2005/invkeeper/internal/server/services"
	"github.com/dmitrijs2005/invkeeper/internal/server/sessions"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// fakeAuth keeps plaintext passwords in memory and uses a real
// MemoryRegistry for sessions.
type fakeAuth struct {
	mu       sync.Mutex
	users    map[string]*authUser
	nextID   int64
	registry *sessions.MemoryRegistry
	loginErr error
}

type authUser struct {
	user     models.User
	password string
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{users: map[string]*authUser{}, registry: sessions.NewMemoryRegistry()}
}

func (a *fakeAuth) Register(_ context.Context, username, email, password string, isAdmin bool) (*models.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if username == "" || password == "" {
		return nil, common.ErrValidation
	}
	if _, ok := a.users[username]; ok {
		return nil, common.ErrDuplicateUsername
	}
	for _, u := range a.users {
		if u.user.Email == email {
			return nil, common.ErrDuplicateEmail
		}
	}
	a.nextID++
	u := &authUser{
		user:     models.User{ID: a.nextID, Username: username, Email: email, PasswordHash: "hash:" + password, IsAdmin: isAdmin},
		password: password,
	}
	a.users[username] = u
	out := u.user
	return &out, nil
}

func (a *fakeAuth) Login(ctx context.Context, username, password string) (*services.LoginResult, error) {
	if a.loginErr != nil {
		return nil, a.loginErr
	}
	a.mu.Lock()
	u, ok := a.users[username]
	a.mu.Unlock()
	if !ok || u.password != password {
		return nil, common.ErrInvalidCredentials
	}
	token, err := a.registry.Issue(ctx, u.user.ID, u.user.Username, u.user.IsAdmin)
	if err != nil {
		return nil, err
	}
	return &services.LoginResult{Token: token, UserID: u.user.ID, Username: u.user.Username, IsAdmin: u.user.IsAdmin}, nil
}

func (a *fakeAuth) Logout(ctx context.Context, token string) error {
	return a.registry.Revoke(ctx, token)
}

func (a *fakeAuth) CurrentUser(ctx context.Context, token string) (*sessions.Session, error) {
	return a.registry.Validate(ctx, token)
}

func (a *fakeAuth) AuthorizeAdmin(ctx context.Context, token string) (*sessions.Session, error) {
	s, err := a.registry.Validate(ctx, token)
	if err != nil || !s.IsAdmin {
		return nil, common.ErrForbidden
	}
	return s, nil
}

type fakeUsers struct {
	list      []*models.User
	err       error
	updated   *models.User
	deletedID int64
	password  string
}

func (f *fakeUsers) List(context.Context) ([]*models.User, error) { return f.list, f.err }

func (f *fakeUsers) ListAdmins(context.Context) ([]*models.User, error) {
	return f.filter(true), f.err
}

func (f *fakeUsers) ListRegular(context.Context) ([]*models.User, error) {
	return f.filter(false), f.err
}

func (f *fakeUsers) filter(isAdmin bool) []*models.User {
	out := []*models.User{}
	for _, u := range f.list {
		if u.IsAdmin == isAdmin {
			out = append(out, u)
		}
	}
	return out
}

func (f *fakeUsers) Get(_ context.Context, id int64) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.list {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsers) Update(ctx context.Context, id int64, username, email string, isAdmin bool) (*models.User, error) {
	if _, err := f.Get(ctx, id); err != nil {
		return nil, err
	}
	f.updated = &models.User{ID: id, Username: username, Email: email, IsAdmin: isAdmin}
	return f.updated, nil
}

func (f *fakeUsers) ChangePassword(ctx context.Context, id int64, password string) error {
	if _, err := f.Get(ctx, id); err != nil {
		return err
	}
	f.password = password
	return nil
}

func (f *fakeUsers) Delete(ctx context.Context, id int64) error {
	if _, err := f.Get(ctx, id); err != nil {
		return err
	}
	f.deletedID = id
	return nil
}

type fakeProducts struct {
	mu        sync.Mutex
	byID      map[int64]*models.Product
	nextID    int64
	err       error
	lastLimit int
}

func newFakeProducts(items ...models.Product) *fakeProducts {
	f := &fakeProducts{byID: map[int64]*models.Product{}}
	for i := range items {
		_, _ = f.Create(context.Background(), &items[i])
	}
	return f
}

func (f *fakeProducts) Create(_ context.Context, p *models.Product) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if p.Name == "" {
		return nil, common.ErrValidation
	}
	f.nextID++
	c := *p
	c.ID = f.nextID
	f.byID[c.ID] = &c
	out := c
	return &out, nil
}

func (f *fakeProducts) Get(_ context.Context, id int64) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *p
	return &c, nil
}

func (f *fakeProducts) all(match func(*models.Product) bool) ([]*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := []*models.Product{}
	for _, p := range f.byID {
		if match(p) {
			c := *p
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeProducts) List(context.Context) ([]*models.Product, error) {
	return f.all(func(*models.Product) bool { return true })
}

func (f *fakeProducts) Update(_ context.Context, p *models.Product) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[p.ID]; !ok {
		return nil, common.ErrorNotFound
	}
	c := *p
	f.byID[p.ID] = &c
	return p, nil
}

func (f *fakeProducts) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeProducts) SearchByCategory(_ context.Context, category string) ([]*models.Product, error) {
	return f.all(func(p *models.Product) bool {
		return strings.Contains(strings.ToLower(p.Category), strings.ToLower(category))
	})
}

func (f *fakeProducts) SearchByBrand(_ context.Context, brand string) ([]*models.Product, error) {
	return f.all(func(p *models.Product) bool {
		return strings.Contains(strings.ToLower(p.Brand), strings.ToLower(brand))
	})
}

func (f *fakeProducts) LowStock(_ context.Context, limit int) ([]*models.Product, error) {
	f.mu.Lock()
	f.lastLimit = limit
	f.mu.Unlock()
	return f.all(func(p *models.Product) bool { return p.Quantity <= limit })
}

type fakeImages struct {
	filename string
	body     string
	err      error
}

func (f *fakeImages) Upload(_ context.Context, filename string, body io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	b, _ := io.ReadAll(body)
	f.filename, f.body = filename, string(b)
	return "/uploads/products/" + filename, nil
}

type testServer struct {
	handler  http.Handler
	auth     *fakeAuth
	users    *fakeUsers
	products *fakeProducts
	images   *fakeImages
	metrics  *metrics.Metrics
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()
	ts := &testServer{
		auth: newFakeAuth(),
		users: &fakeUsers{list: []*models.User{
			{ID: 1, Username: "admin", Email: "admin@maquillaje.com", IsAdmin: true},
			{ID: 2, Username: "ana", Email: "ana@example.com"},
		}},
		products: newFakeProducts(
			models.Product{Name: "Labial", Quantity: 2, Brand: "Maybelline", Category: "Labios"},
			models.Product{Name: "Base", Quantity: 20, Brand: "L'Oréal", Category: "Rostro"},
		),
		images:  &fakeImages{},
		metrics: metrics.New(prometheus.NewRegistry()),
	}
	ts.handler = NewRouter(Deps{
		Auth:     ts.auth,
		Users:    ts.users,
		Products: ts.products,
		Images:   ts.images,
		Metrics:  ts.metrics,
		Logger:   logging.Discard(),
	}, opts)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

// loginAs registers (if needed) and logs in, returning the session cookie.
func (ts *testServer) loginAs(t *testing.T, username string, isAdmin bool) *http.Cookie {
	t.Helper()
	_, _ = ts.auth.Register(context.Background(), username, username+"@example.com", "pw-"+username, isAdmin)
	rec := ts.do(t, http.MethodPost, "/auth/login", `{"username":"`+username+`","password":"pw-`+username+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", username, rec.Code, rec.Body.String())
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == common.SessionCookieName {
			return c
		}
	}
	t.Fatalf("login %s: no session cookie", username)
	return nil
}
