package slug

import "testing"

func TestMake(t *testing.T) {
	cases := map[string]string{
		"Sementes Feminizadas":         "sementes-feminizadas",
		"Automáticas & Híbridas":       "automaticas-hibridas",
		"  --Combo 3 Sementes!!-- ":    "combo-3-sementes",
		"Ação Çedo":                    "acao-cedo",
		"":                             "",
		"Northern Lights #5 (Regular)": "northern-lights-5-regular",
	}
	for input, want := range cases {
		if got := Make(input); got != want {
			t.Fatalf("Make(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestResolve(t *testing.T) {
	if got := Resolve("", "Gorilla Glue"); got != "gorilla-glue" {
		t.Fatalf("expected generated slug, got %q", got)
	}
	if got := Resolve("Custom Slug", "Gorilla Glue"); got != "custom-slug" {
		t.Fatalf("expected normalized explicit slug, got %q", got)
	}
	if got := Resolve("!!!", "Gorilla Glue"); got != "gorilla-glue" {
		t.Fatalf("expected fallback when explicit normalizes to empty, got %q", got)
	}
}
