// Package outreach builds email and SMS campaigns from enriched leads.
// Email campaigns are delivered as a single mailto draft with every
// recipient on BCC; SMS campaigns are a list of E.164 mobile numbers.
package outreach

import (
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/posso-labs/leadscout/internal/model"
)

// DefaultNotes fills the {{notes}} placeholder when a lead carries no
// enrichment summary.
const DefaultNotes = "I love what you're doing with your menu!"

const defaultSubject = "Partnership Opportunity for {{name}}"

const defaultBody = `Hi Team at {{name}},

I noticed your business in {{address}} and was impressed by your setup. Based on our analysis, your business scored {{score}}/100 for our new self-service kiosk optimization.

Quick Note: {{notes}}

Would you be open to a 5-minute chat about how Posso can help you scale?

Best regards,
The Posso Team`

// Template is an outreach email template. Subject and Body may contain
// the placeholders {{name}}, {{address}}, {{score}} and {{notes}}.
type Template struct {
	Subject string `yaml:"subject"`
	Body    string `yaml:"body"`
}

// DefaultTemplate returns the built-in partnership pitch.
func DefaultTemplate() Template {
	return Template{Subject: defaultSubject, Body: defaultBody}
}

// LoadTemplate reads a YAML template file. Missing fields fall back to
// the defaults.
func LoadTemplate(path string) (Template, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Template{}, eris.Wrap(err, "outreach: read template")
	}

	tpl := DefaultTemplate()
	if err := yaml.Unmarshal(raw, &tpl); err != nil {
		return Template{}, eris.Wrap(err, "outreach: parse template")
	}
	if tpl.Subject == "" {
		tpl.Subject = defaultSubject
	}
	if tpl.Body == "" {
		tpl.Body = defaultBody
	}
	return tpl, nil
}

// Render substitutes the lead's details into the template. Unenriched
// leads render their score as "N/A" and fall back to DefaultNotes.
func (t Template) Render(lead model.Lead) (subject, body string) {
	score := "N/A"
	notes := DefaultNotes
	if lead.Enriched != nil {
		score = strconv.Itoa(lead.Enriched.Score)
		if lead.Enriched.Notes != "" {
			notes = lead.Enriched.Notes
		}
	}

	r := strings.NewReplacer(
		"{{name}}", lead.Name,
		"{{address}}", lead.Address,
		"{{score}}", score,
		"{{notes}}", notes,
	)
	return r.Replace(t.Subject), r.Replace(t.Body)
}

// Recipients returns the distinct contact emails of the given leads,
// preserving store order.
func Recipients(leads []model.Lead) []string {
	seen := make(map[string]struct{}, len(leads))
	var out []string
	for _, l := range leads {
		addr := strings.TrimSpace(l.ContactEmail())
		if addr == "" {
			continue
		}
		key := strings.ToLower(addr)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, addr)
	}
	return out
}

// MailtoURL builds a single mailto draft with every recipient on BCC. The
// draft carries the template verbatim: it is one bulk message, placeholder
// substitution is for per-lead previews only. Returns "" when no lead has
// a contact email.
func MailtoURL(tpl Template, leads []model.Lead) string {
	recipients := Recipients(leads)
	if len(recipients) == 0 {
		return ""
	}

	q := url.Values{}
	q.Set("bcc", strings.Join(recipients, ","))
	q.Set("subject", tpl.Subject)
	q.Set("body", tpl.Body)
	return "mailto:?" + q.Encode()
}

// MobileNumbers returns the E.164 form of each UK-mobile lead's phone
// number, preserving store order. Numbers that fail to parse keep their
// raw form so no contact is silently dropped.
func MobileNumbers(leads []model.Lead) []string {
	var out []string
	for _, l := range leads {
		if !model.IsUKMobile(l.Phone) {
			continue
		}
		num, err := phonenumbers.Parse(l.Phone, "GB")
		if err != nil || !phonenumbers.IsValidNumber(num) {
			out = append(out, strings.TrimSpace(l.Phone))
			continue
		}
		out = append(out, phonenumbers.Format(num, phonenumbers.E164))
	}
	return out
}
