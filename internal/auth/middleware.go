package auth

import (
	"context"
	"net/http"
)

type contextKey string

const passengerIDKey contextKey = "passenger_id"

// Middleware rejects requests without a valid bearer token and stores
// the passenger id on the request context.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := ExtractTokenFromRequest(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			passengerID, err := ExtractPassengerID(token)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), passengerIDKey, passengerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PassengerIDFromContext returns the passenger id stored by Middleware.
func PassengerIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(passengerIDKey).(string)
	return id, ok
}
