package rest

import (
	"net/http"

	"marketplace-backend/application/services"
	"marketplace-backend/interfaces/http/rest/handlers"
	"marketplace-backend/interfaces/http/rest/middleware"
	apperrors "marketplace-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Options toggles optional parts of the router.
type Options struct {
	EnableCORS bool
	// Debug includes error causes in error responses.
	Debug bool
	// Metrics, when set, is served on GET /metrics.
	Metrics http.Handler
}

// Router creates and configures the HTTP router
type Router struct {
	services *services.Services
	tokens   middleware.TokenValidator
	logger   *zap.Logger
	opts     Options
}

// NewRouter creates a new router instance
func NewRouter(svc *services.Services, tokens middleware.TokenValidator, logger *zap.Logger, opts Options) *Router {
	return &Router{
		services: svc,
		tokens:   tokens,
		logger:   logger,
		opts:     opts,
	}
}

// Setup configures all routes and middleware. The concrete mux is returned
// because the Lambda adapter needs it.
func (rt *Router) Setup() *chi.Mux {
	errs := apperrors.NewErrorHandler(rt.logger, rt.opts.Debug)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(errs.Middleware)
	router.Use(middleware.Logger(rt.logger))

	if rt.opts.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	if rt.opts.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", rt.opts.Metrics)
	}

	users := handlers.NewUserHandler(rt.services.Users, errs, rt.logger)
	marketplaces := handlers.NewMarketplaceHandler(rt.services.Marketplaces, rt.services.Memberships, errs, rt.logger)
	listings := handlers.NewListingHandler(rt.services.Listings, errs, rt.logger)
	auctions := handlers.NewAuctionHandler(rt.services.Auctions, errs, rt.logger)
	cards := handlers.NewCardHandler(rt.services.Cards, errs, rt.logger)
	messages := handlers.NewMessageHandler(rt.services.Messages, errs, rt.logger)

	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/users", users.Register)
		r.Post("/users/login", users.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(rt.tokens, errs))

			r.Route("/users/{userId}", func(r chi.Router) {
				r.Get("/", users.Get)
				r.Put("/", users.Update)
				r.Delete("/", users.Delete)
				r.Get("/cards", cards.ListByUser)
				r.Get("/messages", messages.Inbox)
			})

			r.Route("/marketplaces", func(r chi.Router) {
				r.Post("/", marketplaces.Create)
				r.Get("/", marketplaces.List)
				r.Get("/{id}", marketplaces.Get)
				r.Put("/{id}", marketplaces.Update)
				r.Delete("/{id}", marketplaces.Delete)
				r.Post("/{id}/members", marketplaces.Join)
				r.Get("/{id}/members", marketplaces.ListMembers)
				r.Put("/{id}/members/{userId}", marketplaces.UpdateMember)
				r.Delete("/{id}/members/{userId}", marketplaces.Leave)
				r.Get("/{id}/listings", listings.ListByMarketplace)
			})

			r.Route("/listings", func(r chi.Router) {
				r.Post("/", listings.Create)
				r.Get("/{id}", listings.Get)
				r.Put("/{id}", listings.Update)
				r.Put("/{id}/review", listings.Review)
				r.Delete("/{id}", listings.Delete)
			})

			r.Route("/auctions", func(r chi.Router) {
				r.Post("/", auctions.Create)
				r.Get("/{id}", auctions.Get)
				r.Post("/{id}/bids", auctions.PlaceBid)
				r.Get("/{id}/bids", auctions.ListBids)
				r.Put("/{id}/close", auctions.Close)
			})

			r.Route("/cards", func(r chi.Router) {
				r.Post("/", cards.Create)
				r.Get("/{id}", cards.Get)
				r.Put("/{id}", cards.Update)
				r.Delete("/{id}", cards.Delete)
			})

			r.Route("/messages", func(r chi.Router) {
				r.Post("/", messages.Send)
				r.Get("/pending", messages.Pending)
				r.Get("/{id}", messages.Get)
				r.Put("/{id}/review", messages.Review)
				r.Delete("/{id}", messages.Delete)
			})
		})
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}
