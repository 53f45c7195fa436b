package auth

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/storekeep-erp/storekeep-erp/internal/shared"
)

// ActorMiddleware resolves the session's signed-in user to an Actor and puts
// it on the request context. Requests without a valid user pass through
// anonymous; role gates in the services reject them.
func ActorMiddleware(service *Service, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			if sess == nil || sess.User() == "" {
				next.ServeHTTP(w, r)
				return
			}
			userID, err := strconv.ParseInt(sess.User(), 10, 64)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			actor, err := service.ActorByID(r.Context(), userID)
			if err != nil {
				logger.Warn("resolve session actor",
					slog.Int64("user_id", userID), slog.Any("error", err))
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithActor(r.Context(), actor)))
		})
	}
}
