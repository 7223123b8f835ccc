package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kukumart/marketplace-backend/api/controllers"
	"github.com/kukumart/marketplace-backend/api/middleware"
	"github.com/kukumart/marketplace-backend/internal/activities"
	"github.com/kukumart/marketplace-backend/internal/admin"
	"github.com/kukumart/marketplace-backend/internal/auth"
	"github.com/kukumart/marketplace-backend/internal/ledger"
	"github.com/kukumart/marketplace-backend/internal/orders"
	product "github.com/kukumart/marketplace-backend/internal/products"
	"github.com/kukumart/marketplace-backend/internal/reviews"
	"github.com/kukumart/marketplace-backend/internal/settings"
	"github.com/kukumart/marketplace-backend/internal/statuses"
	"github.com/kukumart/marketplace-backend/internal/users"
	"github.com/kukumart/marketplace-backend/pkg/auth/session"
	"github.com/kukumart/marketplace-backend/pkg/config"
	"github.com/kukumart/marketplace-backend/pkg/enums"
	"github.com/kukumart/marketplace-backend/pkg/logger"
	"github.com/kukumart/marketplace-backend/pkg/metrics"
	"github.com/kukumart/marketplace-backend/pkg/outbox"
	"github.com/kukumart/marketplace-backend/pkg/redis"
	"github.com/kukumart/marketplace-backend/pkg/visibility"
)

type feedStreamer interface {
	Stream(ctx context.Context, viewer visibility.Viewer, topics []enums.OutboxAggregateType, ready func(), emit func(outbox.FeedMessage) error) error
}

type redisStore interface {
	redis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Services bundles everything the router hands to controllers.
type Services struct {
	Sessions   session.AccessSessionChecker
	Auth       auth.Service
	Register   auth.RegisterService
	Users      users.Service
	Products   product.Service
	Orders     orders.Service
	Ledger     ledger.Service
	Reviews    reviews.Service
	Statuses   statuses.Service
	Activities activities.Service
	Settings   settings.Service
	Admin      admin.Service
	Feed       feedStreamer

	Redis       redisStore
	DB          controllers.Pinger
	HTTPMetrics *metrics.HTTP
	Metrics     http.Handler
}

func NewRouter(cfg *config.Config, logg *logger.Logger, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.App.AllowedOrigins),
		middleware.Logging(logg),
		middleware.Metrics(svc.HTTPMetrics),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	authn := middleware.Auth(cfg.JWT, svc.Sessions, logg)
	idempotency := middleware.Idempotency(svc.Redis, cfg.Idempotency.TTL, logg)
	maintenance := middleware.Maintenance(svc.Settings, logg)

	r.Get("/api/health", controllers.Health(cfg))
	r.Get("/api/health/ready", controllers.HealthReady(cfg, logg, readinessChecks(svc)))
	if svc.Metrics != nil {
		r.Handle("/metrics", svc.Metrics)
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, svc.Redis, logg)).Post("/login", controllers.AuthLogin(svc.Auth, logg))
		r.Group(func(r chi.Router) {
			r.Use(maintenance, middleware.AuthRateLimit(registerPolicy, svc.Redis, logg), idempotency)
			r.Post("/register", controllers.AuthRegister(svc.Register, logg))
			r.Post("/register/vendor", controllers.AuthRegisterVendor(svc.Register, logg))
		})
		r.With(authn).Post("/logout", controllers.AuthLogout(svc.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Public reads. A token, when present, widens product visibility.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, svc.Sessions, logg))
			r.Get("/products", controllers.ProductList(svc.Products, logg))
			r.Get("/products/{productId}", controllers.ProductDetail(svc.Products, logg))
			r.Get("/products/{productId}/reviews", controllers.ProductReviews(svc.Reviews, logg))
			r.Get("/statuses", controllers.StatusList(svc.Statuses, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(authn, maintenance, idempotency)

			r.Get("/me", controllers.MeGet(svc.Users, logg))
			r.Patch("/me", controllers.MeUpdate(svc.Users, logg))
			r.Delete("/me", controllers.MeDelete(svc.Users, logg))

			r.Post("/orders", controllers.Checkout(svc.Orders, logg))
			r.Get("/orders", controllers.BuyerOrders(svc.Orders, logg))
			r.Get("/orders/{orderId}", controllers.OrderDetail(svc.Orders, logg))

			r.Post("/products/{productId}/reviews", controllers.CreateReview(svc.Reviews, logg))
			r.Post("/reviews/{reviewId}/like", controllers.ToggleReviewLike(svc.Reviews, logg))
			r.Delete("/reviews/{reviewId}", controllers.DeleteReview(svc.Reviews, logg))

			r.Post("/statuses/{statusId}/like", controllers.ToggleStatusLike(svc.Statuses, logg))
			r.Post("/statuses/{statusId}/comments", controllers.CommentOnStatus(svc.Statuses, logg))
			r.Delete("/statuses/{statusId}", controllers.DeleteStatus(svc.Statuses, logg))

			r.Get("/feed", controllers.Feed(svc.Feed, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.RoleVendor))
				r.Patch("/vendor/shop", controllers.VendorUpdateShop(svc.Users, logg))
				r.Get("/vendor/products", controllers.VendorListProducts(svc.Products, logg))
				r.Post("/vendor/products", controllers.VendorCreateProduct(svc.Products, logg))
				r.Patch("/vendor/products/{productId}", controllers.VendorUpdateProduct(svc.Products, logg))
				r.Delete("/vendor/products/{productId}", controllers.VendorDeleteProduct(svc.Products, logg))
				r.Get("/vendor/orders", controllers.VendorOrders(svc.Orders, logg))
				r.Post("/vendor/orders/{orderId}/status", controllers.VendorOrderStatus(svc.Orders, logg))
				r.Get("/vendor/wallet", controllers.VendorWallet(svc.Ledger, logg))
				r.Get("/vendor/withdrawals", controllers.VendorWithdrawals(svc.Ledger, logg))
				r.Post("/vendor/withdrawals", controllers.VendorRequestWithdrawal(svc.Ledger, logg))
				r.Post("/vendor/statuses", controllers.VendorCreateStatus(svc.Statuses, logg))
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		// Group rather than Use on the subrouter: idempotency needs the full route pattern.
		r.Group(func(r chi.Router) {
			r.Use(authn, middleware.RequireRole(logg, enums.RoleAdmin), idempotency)

			r.Get("/dashboard", controllers.AdminDashboard(svc.Admin, logg))
			r.Get("/vendors", controllers.AdminVendors(svc.Users, logg))
			r.Post("/vendors/{userId}/decision", controllers.AdminVendorDecision(svc.Admin, logg))
			r.Get("/users", controllers.AdminUsers(svc.Users, logg))
			r.Patch("/users/{userId}", controllers.AdminUpdateUser(svc.Admin, logg))
			r.Delete("/users/{userId}", controllers.AdminDeleteUser(svc.Admin, logg))
			r.Post("/products/{productId}/visibility", controllers.AdminProductVisibility(svc.Admin, logg))
			r.Patch("/products/{productId}", controllers.AdminUpdateProduct(svc.Admin, logg))
			r.Delete("/products/{productId}", controllers.AdminDeleteProduct(svc.Admin, logg))
			r.Get("/orders", controllers.AdminOrders(svc.Orders, logg))
			r.Post("/orders/{orderId}/status", controllers.AdminOrderStatus(svc.Admin, logg))
			r.Post("/orders/{orderId}/payment-approval", controllers.AdminApprovePayment(svc.Admin, logg))
			r.Delete("/orders/{orderId}", controllers.AdminDeleteOrder(svc.Admin, logg))
			r.Get("/withdrawals", controllers.AdminWithdrawals(svc.Ledger, logg))
			r.Post("/withdrawals/{withdrawalId}/settle", controllers.AdminSettleWithdrawal(svc.Admin, logg))
			r.Get("/activities", controllers.AdminActivities(svc.Activities, logg))
			r.Get("/settings", controllers.AdminSettings(svc.Settings, logg))
			r.Put("/settings", controllers.AdminSaveSettings(svc.Settings, logg))
		})
	})

	return r
}

func readinessChecks(svc Services) map[string]controllers.Pinger {
	checks := map[string]controllers.Pinger{}
	if svc.DB != nil {
		checks["database"] = svc.DB
	}
	if svc.Redis != nil {
		if p, ok := svc.Redis.(controllers.Pinger); ok {
			checks["redis"] = p
		}
	}
	return checks
}
