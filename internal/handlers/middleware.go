package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/apperrors"
	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/models"
	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/services"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// RequestLogger attaches logger to the request context and logs one line per request.
func RequestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLogger := logger.With().Str("request_id", middleware.GetReqID(r.Context())).Logger()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(reqLogger.WithContext(r.Context())))

			reqLogger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("HTTP request")
		})
	}
}

type identityKey struct{}

func identityFromContext(ctx context.Context) (*models.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(*models.Identity)
	return identity, ok
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// RequireIdentity rejects requests without a valid bearer credential. It is a
// no-op when auth is disabled.
func RequireIdentity(auth *services.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !auth.Enabled() {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := auth.Verify(r.Context(), bearerToken(r))
			if err != nil {
				writeError(w, r, apperrors.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey{}, identity)))
		})
	}
}

// authorizeEmail checks that the caller owns userEmail.
func authorizeEmail(r *http.Request, userEmail string) error {
	identity, ok := identityFromContext(r.Context())
	if !ok || userEmail == "" {
		return nil
	}
	if !strings.EqualFold(identity.Email, userEmail) {
		return apperrors.ErrForbidden
	}
	return nil
}
