package i18n

import (
	"context"
	"testing"
)

func TestDetectLanguage(t *testing.T) {
	if DetectLanguage("en-US,en;q=0.9") != "en" {
		t.Fatalf("expected en")
	}
	if DetectLanguage("EN-gb") != "en" {
		t.Fatalf("expected en for EN-gb")
	}
	if DetectLanguage("id-ID,id;q=0.8") != "id" {
		t.Fatalf("expected id")
	}
	if DetectLanguage("ja-JP") != "id" {
		t.Fatalf("expected default id for unsupported language")
	}
	if DetectLanguage("") != "id" {
		t.Fatalf("expected default id")
	}
}

func TestTranslations(t *testing.T) {
	if T("en", "required") != "Required" {
		t.Fatalf("expected Required")
	}
	if T("id", "required") != "Wajib diisi" {
		t.Fatalf("expected Wajib diisi")
	}
	if T("en", "__nope__") != "__nope__" {
		t.Fatalf("expected fallback to code")
	}
	if T("es", "nav.news") != "Berita" {
		t.Fatalf("expected id fallback for es lang")
	}
}

func TestCatalogsHaveSameKeys(t *testing.T) {
	for code := range catalogs["id"] {
		if _, ok := catalogs["en"][code]; !ok {
			t.Errorf("en catalog misses %q", code)
		}
	}
	for code := range catalogs["en"] {
		if _, ok := catalogs["id"][code]; !ok {
			t.Errorf("id catalog misses %q", code)
		}
	}
}

func TestLangContext(t *testing.T) {
	if LangFromContext(context.Background()) != DefaultLang {
		t.Fatal("expected default language")
	}
	if LangFromContext(WithLang(context.Background(), "en")) != "en" {
		t.Fatal("expected en from context")
	}
}
