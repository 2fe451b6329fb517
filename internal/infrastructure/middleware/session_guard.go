// Package middleware carries the request-level session gate: the CMS session
// is security-critical and gates hard, the Strava OAuth session is a
// convenience integration and degrades soft. A third-party outage must never
// lock a user out of the CMS.
package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"strava-directus-layer/internal/application"
	"strava-directus-layer/internal/domain"
	"strava-directus-layer/internal/infrastructure/metrics"
	"strava-directus-layer/internal/infrastructure/token"
	"strava-directus-layer/internal/ports"
)

// Cookie names shared with the /auth handler.
const (
	CMSRefreshCookie = "directus_refresh_token"
	BundleCookie     = "strava_token"
)

// bundleCookieMaxAge is effectively forever; the refresh token inside stays
// usable far longer than the access token it accompanies.
const bundleCookieMaxAge = 10 * 365 * 24 * 60 * 60

// SessionGuardConfig wires the guard's collaborators.
type SessionGuardConfig struct {
	CMSAuth   ports.CMSAuth
	LoginURL  string
	AuthProxy ports.AuthProxy
	Tokens    *application.TokenCache
	Metrics   *metrics.Metrics
	Logger    zerolog.Logger

	// Now is replaceable in tests; nil means time.Now.
	Now func() time.Time
}

// SessionGuard returns the middleware that validates/refreshes the CMS
// session, conditionally refreshes the OAuth bundle, and attaches the live
// bundle to the request context.
func SessionGuard(cfg SessionGuardConfig) func(http.Handler) http.Handler {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// CMS session: gate hard.
			refreshCookie, err := r.Cookie(CMSRefreshCookie)
			if err != nil || refreshCookie.Value == "" {
				http.Redirect(w, r, cfg.LoginURL, http.StatusFound)
				return
			}

			session, err := cfg.CMSAuth.Refresh(r.Context(), refreshCookie.Value)
			if err != nil {
				cfg.Logger.Warn().Err(err).Msg("CMS session refresh failed, redirecting to login")
				http.Redirect(w, r, cfg.LoginURL, http.StatusFound)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     CMSRefreshCookie,
				Value:    session.RefreshToken,
				MaxAge:   int(session.Expires / time.Second),
				HttpOnly: true,
				Path:     "/",
			})

			// OAuth bundle: degrade soft. Everything below is best-effort.
			ctx := r.Context()
			if bundle, ok := resolveBundle(r, cfg, now); ok {
				SetBundleCookie(w, bundle)
				if cfg.Tokens != nil {
					cfg.Tokens.Set(bundle)
				}
				ctx = domain.WithTokenBundle(ctx, bundle)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func resolveBundle(r *http.Request, cfg SessionGuardConfig, now func() time.Time) (domain.TokenBundle, bool) {
	cookie, err := r.Cookie(BundleCookie)
	if err != nil || cookie.Value == "" {
		return domain.TokenBundle{}, false
	}

	bundle, err := token.Decode(cookie.Value)
	if err != nil {
		// Malformed bundle means "no usable session", never a hard failure.
		cfg.Logger.Warn().Err(err).Msg("Discarding malformed OAuth bundle cookie")
		return domain.TokenBundle{}, false
	}

	if !bundle.NeedsRefresh(now()) {
		return bundle, true
	}

	refreshed, err := cfg.AuthProxy.Refresh(r.Context(), bundle.RefreshToken)
	if err != nil {
		if cfg.Metrics != nil {
			cfg.Metrics.TokenRefreshes.WithLabelValues("failure").Inc()
		}
		// Swallowed: the request proceeds with the stale bundle rather than
		// blocking on a third-party outage.
		cfg.Logger.Warn().Err(err).Msg("OAuth bundle refresh failed, proceeding with stale token")
		return bundle, true
	}
	if cfg.Metrics != nil {
		cfg.Metrics.TokenRefreshes.WithLabelValues("success").Inc()
	}
	return refreshed, true
}

// SetBundleCookie writes the OAuth bundle back onto the response.
func SetBundleCookie(w http.ResponseWriter, bundle domain.TokenBundle) {
	http.SetCookie(w, &http.Cookie{
		Name:     BundleCookie,
		Value:    token.Encode(bundle),
		MaxAge:   bundleCookieMaxAge,
		HttpOnly: true,
		Path:     "/",
	})
}
