package newsletter

import (
	"fmt"
	"regexp"

	"github.com/scene-ouverte/newsletter-core/internal/models"
)

// TestSubjectPrefix marks test-mode sends so they are never mistaken for a
// real campaign in a recipient's inbox.
const TestSubjectPrefix = "[TEST] "

// testToken is the placeholder used in the footer of test-mode sends instead
// of a real subscriber's bearer token.
const testToken = "apercu"

var (
	rePrenom = regexp.MustCompile(`(?i)\{\{\s*prenom\s*\}\}`)
	reNom    = regexp.MustCompile(`(?i)\{\{\s*nom\s*\}\}`)
	reEmail  = regexp.MustCompile(`(?i)\{\{\s*email\s*\}\}`)
)

// Renderer personalizes a shared HTML body per recipient and appends the
// mandatory unsubscribe/compliance footer.
type Renderer struct {
	BaseURL       string // public site URL, no trailing slash
	PostalAddress string // compliance disclosure line, always appended
}

func NewRenderer(baseURL, postalAddress string) *Renderer {
	return &Renderer{BaseURL: baseURL, PostalAddress: postalAddress}
}

// substitute replaces the recognized placeholders, case-insensitively.
// A missing name substitutes the empty string, never the literal placeholder.
// Literal replacement: subscriber values are data, a "$" in a name must not
// expand as a group reference.
func substitute(tpl string, sub *models.SubscriberModel) string {
	out := rePrenom.ReplaceAllLiteralString(tpl, sub.FirstName)
	out = reNom.ReplaceAllLiteralString(out, sub.LastName)
	return reEmail.ReplaceAllLiteralString(out, sub.Email)
}

// Render produces the final personalized HTML for one subscriber.
func (r *Renderer) Render(tpl string, sub *models.SubscriberModel) string {
	return substitute(tpl, sub) + r.footer(sub.UnsubscribeToken)
}

// RenderTest renders for a synthetic recipient: placeholder names, the test
// address as email, and a placeholder token in the footer.
func (r *Renderer) RenderTest(tpl, testEmail string) string {
	sub := &models.SubscriberModel{
		Email:     testEmail,
		FirstName: "Prénom",
		LastName:  "Nom",
	}
	return substitute(tpl, sub) + r.footer(testToken)
}

// UnsubscribeURL builds the one-click unsubscribe link for a token.
func (r *Renderer) UnsubscribeURL(token string) string {
	return fmt.Sprintf("%s/api/v2/newsletter/unsubscribe?token=%s", r.BaseURL, token)
}

func (r *Renderer) footer(token string) string {
	return fmt.Sprintf(`
<hr style="border:none;border-top:1px solid #eaeaea;margin:26px 0" />
<p style="font-size:12px;line-height:20px;color:#6b7280">
  Vous recevez cet email car vous êtes inscrit·e à notre lettre d'information.<br />
  <a href="%s" style="color:#6b7280">Se désinscrire</a>
</p>
<p style="font-size:11px;line-height:18px;color:#9ca3af">%s</p>`,
		r.UnsubscribeURL(token), r.PostalAddress)
}
