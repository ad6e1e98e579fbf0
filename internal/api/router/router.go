package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/salon-scheduler/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/salon-scheduler/internal/http/middleware"
	"github.com/wolfman30/salon-scheduler/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Catalog            *handlers.CatalogHandler
	Availability       *handlers.AvailabilityHandler
	Bookings           *handlers.BookingHandler
	Carts              *handlers.CartHandler
	AdminLogin         *handlers.AdminLoginHandler
	BookingStream      *handlers.BookingStreamHandler
	AdminAuthSecret    string
	BookingLimiter     *httpmiddleware.RateLimiter
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}

	r.Get("/health", handlers.Health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// JSON API
	r.Group(func(api chi.Router) {
		api.Use(middleware.Compress(5))
		api.Use(requireJSON)

		if cfg.Catalog != nil {
			api.Route("/catalog", func(r chi.Router) {
				r.Get("/services", cfg.Catalog.ListServices)
				r.Get("/services/{id}", cfg.Catalog.GetService)
				r.Get("/staff", cfg.Catalog.ListStaff)
				r.Get("/products", cfg.Catalog.ListProducts)
			})
		}
		if cfg.Availability != nil {
			api.Get("/availability", cfg.Availability.GetSlots)
		}
		if cfg.Bookings != nil {
			create := http.Handler(http.HandlerFunc(cfg.Bookings.Create))
			if cfg.BookingLimiter != nil {
				create = httpmiddleware.RateLimit(cfg.BookingLimiter)(create)
			}
			api.Method(http.MethodPost, "/bookings", create)
		}
		if cfg.Carts != nil {
			api.Route("/carts", func(r chi.Router) {
				r.Post("/", cfg.Carts.Create)
				r.Route("/{id}", func(c chi.Router) {
					c.Get("/", cfg.Carts.Get)
					c.Delete("/", cfg.Carts.Clear)
					c.Post("/items", cfg.Carts.AddItem)
					c.Put("/items/{productID}", cfg.Carts.SetQuantity)
					c.Delete("/items/{productID}", cfg.Carts.RemoveItem)
					c.Post("/checkout", cfg.Carts.Checkout)
				})
			})
		}
		if cfg.AdminLogin != nil {
			api.Post("/admin/login", cfg.AdminLogin.Login)
		}
	})

	// Admin routes (protected by JWT)
	if cfg.AdminAuthSecret != "" {
		r.Route("/admin/bookings", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			if cfg.BookingStream != nil {
				admin.Get("/stream", cfg.BookingStream.HandleWebSocket)
			}
			if cfg.Bookings == nil {
				return
			}
			admin.Group(func(r chi.Router) {
				r.Use(middleware.Compress(5))
				r.Get("/", cfg.Bookings.List)
				r.Get("/{id}", cfg.Bookings.Get)
				r.Delete("/{id}", cfg.Bookings.Delete)
				r.Post("/{id}/confirm", cfg.Bookings.Confirm)
				r.Post("/{id}/cancel", cfg.Bookings.Cancel)
				r.Get("/{id}/handoff", cfg.Bookings.Handoff)
			})
		})
	}

	return r
}
