// Package httpapi is the HTTP surface of the sync layer: the webhook pair,
// the browser-facing pages behind the session guard, and the operational
// routes (health, metrics, swagger).
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"

	"strava-directus-layer/internal/application"
	"strava-directus-layer/internal/domain"
	"strava-directus-layer/internal/infrastructure/pubsub"
	"strava-directus-layer/internal/ports"
)

// Server holds the route handlers' collaborators. SessionGuard wraps every
// browser-facing route; the webhook pair and the operational routes stay
// outside it so the platform and monitoring can reach them unauthenticated.
type Server struct {
	Logger        zerolog.Logger
	Bus           *pubsub.EventBus
	VerifyStore   ports.VerifyTokenStore
	Sync          *application.ActivitySyncService
	Subscriptions *application.SubscriptionService
	Platform      ports.PlatformClient
	AuthProxy     ports.AuthProxy
	Tokens        *application.TokenCache
	SessionGuard  func(http.Handler) http.Handler

	// WebhookSecret is the path suffix of the webhook endpoint.
	WebhookSecret string

	// AuthorizeURL is the platform's OAuth authorization URL rendered on
	// the /auth page when no code is present.
	AuthorizeURL string

	// SwaggerSpecPath points at the static swagger.json; empty disables the
	// docs routes.
	SwaggerSpecPath string

	// SetBundleCookie writes a refreshed bundle onto the response; injected
	// so the handler shares one cookie shape with the session guard.
	SetBundleCookie func(w http.ResponseWriter, bundle domain.TokenBundle)
}

// Router assembles the chi router.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	if s.SwaggerSpecPath != "" {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
		r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			http.ServeFile(w, r, s.SwaggerSpecPath)
		})
	}

	webhookPath := "/webhook-" + s.WebhookSecret
	r.Get(webhookPath, s.handleWebhookVerify)
	r.Post(webhookPath, s.handleWebhookEvent)

	r.Group(func(r chi.Router) {
		r.Use(s.SessionGuard)
		r.Get("/", s.handleIndex)
		r.Get("/list", s.handleList)
		r.Get("/view/{id}", s.handleView)
		r.Get("/fetch/{id}", s.handleFetch)
		r.Get("/subscription/create", s.handleSubscriptionCreate)
		r.Get("/subscription", s.handleSubscriptionView)
		r.Get("/subscription/delete", s.handleSubscriptionDelete)
		r.Get("/auth", s.handleAuth)
	})

	return r
}

// handleFetch resolves one activity synchronously and bounces back to the
// list with the changed row marked.
func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	activityID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid activity id", http.StatusBadRequest)
		return
	}

	bundle, ok := domain.TokenBundleFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/auth", http.StatusFound)
		return
	}

	if _, err := s.Sync.Resolve(r.Context(), activityID, bundle, domain.TriggerManual); err != nil {
		s.Logger.Error().Err(err).Int64("activityId", activityID).Msg("Manual fetch failed")
		http.Error(w, "activity sync failed", http.StatusBadGateway)
		return
	}
	http.Redirect(w, r, "/list?updated="+strconv.FormatInt(activityID, 10), http.StatusFound)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	activityID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid activity id", http.StatusBadRequest)
		return
	}

	bundle, ok := domain.TokenBundleFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/auth", http.StatusFound)
		return
	}

	raw, err := s.Platform.GetActivityRaw(r.Context(), bundle.AccessToken, activityID)
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(raw)
}

func (s *Server) handleSubscriptionCreate(w http.ResponseWriter, r *http.Request) {
	if err := s.Subscriptions.Create(r.Context()); err != nil {
		http.Error(w, "subscription create failed", http.StatusBadGateway)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleSubscriptionView(w http.ResponseWriter, r *http.Request) {
	listing, err := s.Subscriptions.View(r.Context())
	if err != nil {
		http.Error(w, "subscription lookup failed", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(listing)
}

func (s *Server) handleSubscriptionDelete(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "id parameter is required", http.StatusBadRequest)
		return
	}
	if err := s.Subscriptions.Delete(r.Context(), id); err != nil {
		http.Error(w, "subscription delete failed", http.StatusBadGateway)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// handleAuth is the OAuth entry point. Without a code it renders the
// authorize link; with a code it exchanges via the auth proxy, sets the
// bundle cookie and bounces to the root.
func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		s.renderAuthPage(w)
		return
	}

	bundle, err := s.AuthProxy.Exchange(r.Context(), code)
	if err != nil {
		s.Logger.Error().Err(err).Msg("OAuth code exchange failed")
		http.Error(w, "token exchange failed", http.StatusBadRequest)
		return
	}

	if s.SetBundleCookie != nil {
		s.SetBundleCookie(w, bundle)
	}
	if s.Tokens != nil {
		s.Tokens.Set(bundle)
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// writeUpstreamError surfaces a platform 4xx/5xx body verbatim on the
// passthrough routes; anything else becomes a 502.
func (s *Server) writeUpstreamError(w http.ResponseWriter, err error) {
	if pe, ok := domain.AsPlatformError(err); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(pe.Status)
		w.Write(pe.Body)
		return
	}
	s.Logger.Error().Err(err).Msg("Platform request failed")
	http.Error(w, "platform request failed", http.StatusBadGateway)
}
