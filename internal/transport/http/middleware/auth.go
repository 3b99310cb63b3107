package middleware

import (
	"context"
	"net/http"
	"strings"

	"schoolops/internal/auth"
	"schoolops/internal/domain/ids"
	"schoolops/internal/requestctx"
	"schoolops/internal/transport/http/api"
)

type ctxKey string

const ctxKeyUser ctxKey = "user"

// Auth resolves a bearer token into the acting user. Requests without a valid token
// pass through anonymously; RequireAuth rejects them where a user is needed.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseToken(secret, parts[1])
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyUser, auth.UserContext{
				UserID: claims.UserID,
				Role:   claims.Role,
			})
			ctx = requestctx.WithActor(ctx, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUser(r.Context()); !ok {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func GetUser(ctx context.Context) (auth.UserContext, bool) {
	user, ok := ctx.Value(ctxKeyUser).(auth.UserContext)
	return user, ok
}

// ActorID is the acting user's id, empty for anonymous requests.
func ActorID(ctx context.Context) ids.UserID {
	return ids.UserID(requestctx.GetActor(ctx))
}

// WithUser attaches a resolved user to ctx.
func WithUser(ctx context.Context, user auth.UserContext) context.Context {
	ctx = context.WithValue(ctx, ctxKeyUser, user)
	return requestctx.WithActor(ctx, user.UserID)
}
