package middleware

import (
	"net/http"
	"time"

	"github.com/phrazzld/arcana/internal/api/shared"
	"github.com/phrazzld/arcana/internal/calendar"
)

// TimezoneHeader names the caller's IANA time zone.
const TimezoneHeader = "X-Timezone"

// NewTimezoneMiddleware resolves the caller's location from the X-Timezone
// header, falling back to def. An unknown zone is rejected. The services pin
// this location on a player once; later values do not move the player's day.
func NewTimezoneMiddleware(def *time.Location) func(http.Handler) http.Handler {
	if def == nil {
		def = time.UTC
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			loc := def
			if name := r.Header.Get(TimezoneHeader); name != "" {
				parsed, err := time.LoadLocation(name)
				if err != nil {
					shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid "+TimezoneHeader+" header")
					return
				}
				loc = parsed
			}
			next.ServeHTTP(w, r.WithContext(calendar.WithLocation(r.Context(), loc)))
		})
	}
}
