// Package httpapi is the REST surface of the inventory server: the auth
// endpoints, the admin user and product routes and image uploads.
package httpapi

import (
	"context"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dmitrijs2005/invkeeper/internal/logging"
	"github.com/dmitrijs2005/invkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/invkeeper/internal/server/models"
	"github.com/dmitrijs2005/invkeeper/internal/server/services"
	"github.com/dmitrijs2005/invkeeper/internal/server/sessions"
)

// DefaultMaxUploadBytes caps the size of an uploaded image.
const DefaultMaxUploadBytes = 10 << 20

type Authenticator interface {
	Register(ctx context.Context, username, email, password string, isAdmin bool) (*models.User, error)
	Login(ctx context.Context, username, password string) (*services.LoginResult, error)
	Logout(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, token string) (*sessions.Session, error)
	AuthorizeAdmin(ctx context.Context, token string) (*sessions.Session, error)
}

type UserManager interface {
	List(ctx context.Context) ([]*models.User, error)
	ListAdmins(ctx context.Context) ([]*models.User, error)
	ListRegular(ctx context.Context) ([]*models.User, error)
	Get(ctx context.Context, id int64) (*models.User, error)
	Update(ctx context.Context, id int64, username, email string, isAdmin bool) (*models.User, error)
	ChangePassword(ctx context.Context, id int64, password string) error
	Delete(ctx context.Context, id int64) error
}

type ProductCatalog interface {
	Create(ctx context.Context, p *models.Product) (*models.Product, error)
	Get(ctx context.Context, id int64) (*models.Product, error)
	List(ctx context.Context) ([]*models.Product, error)
	Update(ctx context.Context, p *models.Product) (*models.Product, error)
	Delete(ctx context.Context, id int64) error
	SearchByCategory(ctx context.Context, category string) ([]*models.Product, error)
	SearchByBrand(ctx context.Context, brand string) ([]*models.Product, error)
	LowStock(ctx context.Context, limit int) ([]*models.Product, error)
}

type ImageUploader interface {
	Upload(ctx context.Context, filename string, body io.Reader) (string, error)
}

// Deps are the collaborators of the router. Metrics may be nil.
type Deps struct {
	Auth     Authenticator
	Users    UserManager
	Products ProductCatalog
	Images   ImageUploader
	Metrics  *metrics.Metrics
	Logger   logging.Logger
}

// Options tune the router.
//
// UploadDir and StaticDir are served from disk when set. SecureCookies marks
// the session cookie Secure, which browsers require outside localhost.
type Options struct {
	UploadDir      string
	StaticDir      string
	SecureCookies  bool
	MaxUploadBytes int64
}

type handler struct {
	auth     Authenticator
	users    UserManager
	products ProductCatalog
	images   ImageUploader
	metrics  *metrics.Metrics
	logger   logging.Logger
	opts     Options
}

// NewRouter builds the HTTP handler tree.
func NewRouter(d Deps, o Options) http.Handler {
	if o.MaxUploadBytes <= 0 {
		o.MaxUploadBytes = DefaultMaxUploadBytes
	}
	h := &handler{
		auth:     d.Auth,
		users:    d.Users,
		products: d.Products,
		images:   d.Images,
		metrics:  d.Metrics,
		logger:   d.Logger.With("module", "http_server"),
		opts:     o,
	}

	r := mux.NewRouter()
	r.Use(h.recoverer, h.instrument)

	r.HandleFunc("/", h.root).Methods(http.MethodGet)
	r.Handle("/metrics", h.metrics.Handler()).Methods(http.MethodGet)

	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register", h.register).Methods(http.MethodPost)
	auth.HandleFunc("/login", h.login).Methods(http.MethodPost)
	auth.HandleFunc("/logout", h.logout).Methods(http.MethodPost)
	auth.HandleFunc("/me", h.me).Methods(http.MethodGet)

	p := r.PathPrefix("/productos").Subrouter()
	p.HandleFunc("/", h.listProducts).Methods(http.MethodGet)
	p.Handle("/", h.admin(h.createProduct)).Methods(http.MethodPost)
	p.Handle("/stock-bajo", h.admin(h.lowStock)).Methods(http.MethodGet)
	p.HandleFunc("/categoria/{categoria}", h.productsByCategory).Methods(http.MethodGet)
	p.HandleFunc("/marca/{marca}", h.productsByBrand).Methods(http.MethodGet)
	p.HandleFunc("/{id:[0-9]+}", h.getProduct).Methods(http.MethodGet)
	p.Handle("/{id:[0-9]+}", h.admin(h.updateProduct)).Methods(http.MethodPut)
	p.Handle("/{id:[0-9]+}", h.admin(h.deleteProduct)).Methods(http.MethodDelete)

	u := r.PathPrefix("/usuarios").Subrouter()
	u.Handle("/", h.admin(h.listUsers)).Methods(http.MethodGet)
	u.Handle("/admins", h.admin(h.listAdmins)).Methods(http.MethodGet)
	u.Handle("/regulares", h.admin(h.listRegular)).Methods(http.MethodGet)
	u.Handle("/{id:[0-9]+}", h.admin(h.getUser)).Methods(http.MethodGet)
	u.Handle("/{id:[0-9]+}", h.admin(h.updateUser)).Methods(http.MethodPut)
	u.Handle("/{id:[0-9]+}", h.admin(h.deleteUser)).Methods(http.MethodDelete)
	u.Handle("/{id:[0-9]+}/password", h.admin(h.changePassword)).Methods(http.MethodPut)

	r.Handle("/upload-imagen/", h.admin(h.uploadImage)).Methods(http.MethodPost)

	if o.UploadDir != "" {
		r.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/", http.FileServer(http.Dir(o.UploadDir))))
	}
	if o.StaticDir != "" {
		r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.Dir(o.StaticDir))))
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Detail: "Not Found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Detail: "Method Not Allowed"})
	})

	return r
}

func (h *handler) root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Inventario activo"})
}
