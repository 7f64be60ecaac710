package middleware

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

type localeContextKey struct{}

// Locale resolves the caller's preferred language from X-Locale or
// Accept-Language against supported and stores it as a BCP 47 string. The
// first supported tag is the fallback.
func Locale(supported ...language.Tag) func(http.Handler) http.Handler {
	if len(supported) == 0 {
		supported = []language.Tag{language.English}
	}
	matcher := language.NewMatcher(supported)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			locale := detectLocale(r, matcher, supported)
			ctx := context.WithValue(r.Context(), localeContextKey{}, locale)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func detectLocale(r *http.Request, matcher language.Matcher, supported []language.Tag) string {
	var prefs []language.Tag
	if v := strings.TrimSpace(r.Header.Get("X-Locale")); v != "" {
		if tag, err := language.Parse(v); err == nil {
			prefs = append(prefs, tag)
		}
	}
	if tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language")); err == nil {
		prefs = append(prefs, tags...)
	}
	if len(prefs) == 0 {
		return supported[0].String()
	}
	_, idx, conf := matcher.Match(prefs...)
	if conf == language.No {
		return supported[0].String()
	}
	return supported[idx].String()
}

// LocaleFromContext returns the resolved locale, or "" outside Locale.
func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(localeContextKey{}).(string); ok {
		return v
	}
	return ""
}
