package middleware

import (
	"context"
	"doraform/internal/i18n"
	"doraform/internal/model"
	"net/http"
)

// Locale resolves the request locale from ?lang= first, then Accept-Language,
// falling back to def.
func Locale(def model.Locale) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := i18n.Match(def, r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"))
			w.Header().Set("Content-Language", string(l))
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), LocaleKey, l)))
		})
	}
}
