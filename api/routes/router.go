package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/invoicedesk/api/controllers"
	"github.com/angelmondragon/invoicedesk/api/middleware"
	"github.com/angelmondragon/invoicedesk/internal/auth"
	"github.com/angelmondragon/invoicedesk/internal/dashboard"
	"github.com/angelmondragon/invoicedesk/internal/invoices"
	"github.com/angelmondragon/invoicedesk/pkg/config"
	"github.com/angelmondragon/invoicedesk/pkg/enums"
	"github.com/angelmondragon/invoicedesk/pkg/logger"
	pkgredis "github.com/angelmondragon/invoicedesk/pkg/redis"
)

// redisStore backs both idempotency replay and the auth rate limiter.
type redisStore interface {
	pkgredis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Services groups what the routes dispatch to.
type Services struct {
	Auth       auth.Service
	Sessions   middleware.SessionResolver
	Workspaces controllers.Workspaces
	Invoices   invoices.Service
	Receipts   controllers.ReceiptArchive
	Dashboard  dashboard.Service
	Directory  controllers.Directory
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	store redisStore,
	gatherer prometheus.Gatherer,
	readiness map[string]controllers.Pinger,
	svc Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	firstLoginPolicy := middleware.NewAuthRateLimitPolicy(
		"first-login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	var limiter, idempotency = rateLimitStore(store), idempotencyStore(store)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg.App.Env))
		r.Get("/ready", controllers.HealthReady(cfg.App.Env, readiness, logg))
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, limiter, logg)).Post("/login", controllers.AuthLogin(svc.Auth, logg))
		r.With(middleware.AuthRateLimit(firstLoginPolicy, limiter, logg)).Post("/first-login", controllers.AuthFirstLogin(svc.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(svc.Sessions, logg))
			r.Post("/password", controllers.AuthSetPassword(svc.Auth, logg))
			r.Post("/logout", controllers.AuthLogout(svc.Auth, logg))
			r.With(middleware.RequireUser(logg)).Get("/me", controllers.AuthMe(logg))
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(svc.Sessions, logg))
		r.Use(middleware.RequireUser(logg))
		r.Use(middleware.Idempotency(idempotency, logg))

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/", controllers.CatalogList(svc.Workspaces, logg))
			r.Post("/refresh", controllers.CatalogRefresh(svc.Workspaces, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(svc.Workspaces, logg))
			r.Delete("/", controllers.CartClear(svc.Workspaces, logg))
			r.Post("/items", controllers.CartAddItem(svc.Workspaces, logg))
			r.Post("/items/{itemId}/remove", controllers.CartRemoveItem(svc.Workspaces, logg))
			r.Put("/pending/{itemId}", controllers.CartSetPending(svc.Workspaces, logg))
			r.Post("/pending/{itemId}/add", controllers.CartAddPending(svc.Workspaces, logg))
			r.Post("/pending/{itemId}/remove", controllers.CartRemovePending(svc.Workspaces, logg))
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", controllers.InvoiceList(svc.Invoices, logg))
			r.Post("/", controllers.InvoiceSubmit(svc.Invoices, svc.Workspaces, logg))
			r.Get("/clients", controllers.InvoiceClients(svc.Invoices, svc.Workspaces, logg))
		})

		r.Route("/receipts", func(r chi.Router) {
			r.Get("/", controllers.ReceiptList(svc.Receipts, logg))
			r.Get("/{receiptId}", controllers.ReceiptGet(svc.Receipts, logg))
		})

		r.Get("/dashboard", controllers.DashboardOverview(svc.Dashboard, logg))

		if svc.Directory != nil {
			mountDirectory(r, svc.Directory, svc.Workspaces, logg)
		}
	})

	return r
}

// mountDirectory wires the backend pass-through routes. The list handlers bind
// dir's methods up front, so dir must be non-nil.
func mountDirectory(r chi.Router, dir controllers.Directory, spaces controllers.Workspaces, logg *logger.Logger) {
	r.Get("/clients", controllers.ClientsList(dir, logg))
	r.Post("/clients", controllers.ClientsCreate(dir, logg))
	r.Get("/groups", controllers.GroupsList(dir, logg))
	r.Post("/groups", controllers.GroupsCreate(dir, logg))
	r.Get("/inventory", controllers.InventoryList(dir, logg))
	r.Post("/inventory", controllers.InventoryCreate(dir, logg))
	r.Post("/inventory/csv", controllers.InventoryUploadCSV(dir, spaces, logg))
	r.Get("/activities", controllers.ActivitiesList(dir, logg))
	r.Get("/users", controllers.UsersList(dir, logg))
	r.With(middleware.RequireRole(logg, enums.UserRoleAdmin)).Post("/users", controllers.UsersCreate(dir, logg))
}

// The middlewares skip their store when handed a nil interface; a typed nil
// pointer would not compare equal to nil.
func rateLimitStore(store redisStore) interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
} {
	if store == nil {
		return nil
	}
	return store
}

func idempotencyStore(store redisStore) pkgredis.IdempotencyStore {
	if store == nil {
		return nil
	}
	return store
}
