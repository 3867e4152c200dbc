package di

import (
	"net/http"

	"marketplace-backend/interfaces/http/rest"

	"github.com/go-chi/chi/v5"
)

// SetupRouter builds the HTTP router on the container's services. The
// prometheus endpoint is mounted only when the collector backs metrics.
func SetupRouter(c *Container) *chi.Mux {
	opts := rest.Options{
		EnableCORS: c.Config.EnableCORS,
		Debug:      c.Config.IsDevelopment(),
	}
	if c.Telemetry != nil && c.Telemetry.Collector != nil {
		opts.Metrics = http.Handler(c.Telemetry.Collector)
	}
	return rest.NewRouter(c.Services, c.Tokens, c.Logger, opts).Setup()
}
