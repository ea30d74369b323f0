package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chowline/chowline-backend/api/controllers"
	"github.com/chowline/chowline-backend/api/middleware"
	"github.com/chowline/chowline-backend/internal/auth"
	"github.com/chowline/chowline-backend/internal/cart"
	"github.com/chowline/chowline-backend/internal/catalog"
	checkoutsvc "github.com/chowline/chowline-backend/internal/checkout"
	"github.com/chowline/chowline-backend/internal/notifications"
	"github.com/chowline/chowline-backend/internal/orders"
	"github.com/chowline/chowline-backend/pkg/auth/session"
	"github.com/chowline/chowline-backend/pkg/config"
	"github.com/chowline/chowline-backend/pkg/db"
	"github.com/chowline/chowline-backend/pkg/logger"
	"github.com/chowline/chowline-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessionManager sessionManager,
	authService auth.Service,
	registerService auth.RegisterService,
	catalogService catalog.Service,
	cartService cart.Service,
	checkoutService checkoutsvc.Service,
	ordersService orders.Service,
	notificationsService notifications.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
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

	r.Get("/healthz", controllers.HealthReady(cfg, logg, dbP, redisClient))
	r.Get("/health/live", controllers.HealthLive(cfg))
	r.Get("/ping", controllers.PublicPing())

	r.Route("/api/v1/merchants", func(r chi.Router) {
		r.Get("/", controllers.ListMerchants(catalogService, logg))
		r.Get("/{merchantId}/foods", controllers.ListMerchantFoods(catalogService, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(authService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(registerService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/merchant/login", controllers.MerchantAuthLogin(authService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/merchant/register", controllers.MerchantAuthRegister(registerService, logg))
		r.Post("/logout", controllers.AuthLogout(sessionManager, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(sessionManager, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionManager, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/cart", func(r chi.Router) {
			r.Post("/items", controllers.CartAddItem(cartService, logg))
			r.Route("/{cartId}", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(cartService, logg))
				r.Put("/note", controllers.CartSetNote(cartService, logg))
				r.Patch("/items/{itemId}", controllers.CartUpdateItemQuantity(cartService, logg))
				r.Delete("/merchants/{merchantId}/items/{foodId}", controllers.CartRemoveItem(cartService, logg))
			})
		})

		r.Post("/checkout", controllers.Checkout(checkoutService, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(ordersService, logg))
			r.Get("/{orderId}", controllers.OrderDetail(ordersService, logg))
			r.Post("/{orderId}/cancel", controllers.CancelOrder(ordersService, logg))
		})

		r.Route("/merchant", func(r chi.Router) {
			r.Use(middleware.RequireRole("merchant", logg))
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.MerchantOrders(ordersService, logg))
				r.Post("/{orderId}/accept", controllers.MerchantAcceptOrder(ordersService, logg))
				r.Post("/{orderId}/reject", controllers.MerchantRejectOrder(ordersService, logg))
			})
		})

		r.Route("/agent", func(r chi.Router) {
			r.Use(middleware.RequireRole("agent", logg))
			r.Get("/ping", controllers.AgentPing())
			r.Route("/orders", func(r chi.Router) {
				r.Post("/{orderId}/pickup", controllers.AgentPickupOrder(ordersService, logg))
				r.Post("/{orderId}/deliver", controllers.AgentDeliverOrder(ordersService, logg))
				r.Post("/reference/{referenceCode}/status", controllers.AgentOrderStatusByReference(ordersService, logg))
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(notificationsService, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationsService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationsService, logg))
		})
	})

	return r
}
