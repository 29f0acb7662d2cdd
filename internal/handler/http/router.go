package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/BookstoreGo/internal/config"
	"github.com/utafrali/BookstoreGo/internal/service"
	"github.com/utafrali/BookstoreGo/pkg/health"
	"github.com/utafrali/BookstoreGo/pkg/middleware"
)

// Services bundles the services the router exposes.
type Services struct {
	Catalog  *service.CatalogService
	Cart     *service.CartService
	Order    *service.OrderService
	Review   *service.ReviewService
	Wishlist *service.WishlistService
}

// NewRouter creates a chi router with all bookstore routes registered.
func NewRouter(
	svcs Services,
	healthHandler *health.Handler,
	corsCfg middleware.CORSConfig,
	logger *slog.Logger,
	requestTimeout time.Duration,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware stack (applied in order).
	r.Use(middleware.CORS(corsCfg))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(requestTimeout))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(config.ServiceName))
	r.Use(middleware.Tracing(config.ServiceName))
	r.Use(middleware.Identity())
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	bookHandler := NewBookHandler(svcs.Catalog, logger)
	cartHandler := NewCartHandler(svcs.Cart, logger)
	orderHandler := NewOrderHandler(svcs.Order, logger)
	reviewHandler := NewReviewHandler(svcs.Review, logger)
	wishlistHandler := NewWishlistHandler(svcs.Wishlist, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		// Public catalog endpoints
		r.Get("/books", bookHandler.ListBooks)
		r.Get("/books/{id}", bookHandler.GetBook)
		r.Get("/books/{id}/reviews", reviewHandler.ListBookReviews)

		// Endpoints requiring a gateway-authenticated user
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser())

			r.Get("/cart", cartHandler.GetCart)
			r.Delete("/cart", cartHandler.ClearCart)
			r.Post("/cart/items", cartHandler.AddItem)
			r.Put("/cart/items/{bookID}", cartHandler.UpdateItem)
			r.Delete("/cart/items/{bookID}", cartHandler.RemoveItem)

			r.Post("/orders", orderHandler.PlaceOrder)
			r.Get("/orders", orderHandler.ListMyOrders)
			r.Get("/orders/{id}", orderHandler.GetOrder)
			r.Post("/orders/{id}/cancel", orderHandler.CancelOrder)

			r.Post("/books/{id}/reviews", reviewHandler.AddReview)
			r.Put("/books/{id}/reviews", reviewHandler.UpdateReview)
			r.Delete("/books/{id}/reviews", reviewHandler.DeleteReview)
			r.Get("/reviews", reviewHandler.ListMyReviews)

			r.Get("/wishlist", wishlistHandler.ListWishlist)
			r.Post("/wishlist", wishlistHandler.AddToWishlist)
			r.Delete("/wishlist/{bookID}", wishlistHandler.RemoveFromWishlist)
		})

		// Admin endpoints
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireUser())
			r.Use(middleware.RequireRole("admin"))

			r.Post("/books", bookHandler.CreateBook)
			r.Put("/books/{id}", bookHandler.UpdateBook)
			r.Delete("/books/{id}", bookHandler.DeleteBook)

			r.Get("/orders", orderHandler.ListOrders)
			r.Put("/orders/{id}/status", orderHandler.UpdateOrderStatus)
		})
	})

	return r
}
