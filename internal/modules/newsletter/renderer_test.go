package newsletter

import (
	"strings"
	"testing"

	"github.com/scene-ouverte/newsletter-core/internal/models"
)

func TestRenderSubstitutesPlaceholders(t *testing.T) {
	r := testRenderer()
	sub := &models.SubscriberModel{
		Email:            "marie@example.fr",
		FirstName:        "Marie",
		LastName:         "Dupont",
		UnsubscribeToken: "tok123",
	}

	tests := []struct {
		name string
		tpl  string
		want string
	}{
		{"basic", "Bonjour {{prenom}} {{nom}}", "Bonjour Marie Dupont"},
		{"case insensitive", "Bonjour {{PRENOM}}", "Bonjour Marie"},
		{"inner whitespace", "Bonjour {{ prenom }}", "Bonjour Marie"},
		{"email", "Envoyé à {{email}}", "Envoyé à marie@example.fr"},
		{"repeated", "{{prenom}}, oui {{prenom}}", "Marie, oui Marie"},
		{"unknown untouched", "{{autre}}", "{{autre}}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Render(tt.tpl, sub)
			if !strings.HasPrefix(got, tt.want) {
				t.Errorf("Render(%q) = %q, want prefix %q", tt.tpl, got, tt.want)
			}
		})
	}
}

func TestRenderDollarInValuesIsLiteral(t *testing.T) {
	r := testRenderer()
	sub := &models.SubscriberModel{
		Email:            "an$ne+1@example.fr",
		FirstName:        "An$ne",
		UnsubscribeToken: "tok",
	}

	got := r.Render("Bonjour {{prenom}} ({{email}}) !", sub)
	if !strings.HasPrefix(got, "Bonjour An$ne (an$ne+1@example.fr) !") {
		t.Errorf("dollar signs in subscriber data were mangled: %q", got)
	}
}

func TestRenderMissingNamesSubstituteEmpty(t *testing.T) {
	r := testRenderer()
	sub := &models.SubscriberModel{Email: "x@y.fr", UnsubscribeToken: "tok"}

	got := r.Render("Bonjour {{prenom}} !", sub)
	if !strings.HasPrefix(got, "Bonjour  !") {
		t.Errorf("missing first name should render empty, got %q", got)
	}
	if strings.Contains(got, "{{") {
		t.Errorf("rendered output still carries a placeholder: %q", got)
	}
}

func TestRenderAppendsFooter(t *testing.T) {
	r := testRenderer()
	sub := &models.SubscriberModel{
		Email:            "marie@example.fr",
		UnsubscribeToken: "tok123",
	}

	got := r.Render("Corps", sub)

	wantLink := "https://theatre.example.fr/api/v2/newsletter/unsubscribe?token=tok123"
	if !strings.Contains(got, wantLink) {
		t.Errorf("footer missing unsubscribe link %q in %q", wantLink, got)
	}
	if !strings.Contains(got, "Se désinscrire") {
		t.Error("footer missing unsubscribe label")
	}
	if !strings.Contains(got, "12 rue des Remparts") {
		t.Error("footer missing postal address")
	}
}

func TestRenderTestUsesPlaceholderIdentity(t *testing.T) {
	r := testRenderer()

	got := r.RenderTest("Bonjour {{prenom}} {{nom}} ({{email}})", "admin@theatre.fr")

	if !strings.Contains(got, "Bonjour Prénom Nom (admin@theatre.fr)") {
		t.Errorf("test render should use placeholder names and the test address, got %q", got)
	}
	if !strings.Contains(got, "token="+testToken) {
		t.Errorf("test footer should carry the placeholder token, got %q", got)
	}
}

func TestUnsubscribeURL(t *testing.T) {
	r := NewRenderer("https://site.fr", "addr")
	got := r.UnsubscribeURL("abc")
	want := "https://site.fr/api/v2/newsletter/unsubscribe?token=abc"
	if got != want {
		t.Errorf("UnsubscribeURL = %q, want %q", got, want)
	}
}
