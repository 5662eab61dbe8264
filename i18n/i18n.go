// Package i18n holds the UI translations (Indonesian and English) and
// language negotiation for the server-rendered pages.
package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// DefaultLang is used when nothing better can be negotiated.
const DefaultLang = "id"

//go:embed locales/*.json
var localeFS embed.FS

var (
	supported = []language.Tag{language.Indonesian, language.English}
	matcher   = language.NewMatcher(supported)
	catalogs  = mustLoad("id", "en")
)

type ctxKey struct{}

func mustLoad(langs ...string) map[string]map[string]string {
	out := make(map[string]map[string]string, len(langs))
	for _, lang := range langs {
		b, err := localeFS.ReadFile("locales/" + lang + ".json")
		if err != nil {
			panic(fmt.Sprintf("i18n: missing catalog %s: %v", lang, err))
		}
		var m map[string]string
		if err := json.Unmarshal(b, &m); err != nil {
			panic(fmt.Sprintf("i18n: parse catalog %s: %v", lang, err))
		}
		out[lang] = m
	}
	return out
}

// DetectLanguage picks the best supported language for an Accept-Language
// header value.
func DetectLanguage(acceptLanguage string) string {
	if strings.TrimSpace(acceptLanguage) == "" {
		return DefaultLang
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return DefaultLang
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return DefaultLang
	}
	base, _ := supported[idx].Base()
	return base.String()
}

// Supported reports whether lang has a catalog.
func Supported(lang string) bool {
	_, ok := catalogs[lang]
	return ok
}

// T translates code, falling back to the default language and then to the code itself.
func T(lang, code string) string {
	if c, ok := catalogs[lang]; ok {
		if msg, ok := c[code]; ok {
			return msg
		}
	}
	if msg, ok := catalogs[DefaultLang][code]; ok {
		return msg
	}
	return code
}

func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, ctxKey{}, lang)
}

func LangFromContext(ctx context.Context) string {
	if lang, ok := ctx.Value(ctxKey{}).(string); ok && lang != "" {
		return lang
	}
	return DefaultLang
}
