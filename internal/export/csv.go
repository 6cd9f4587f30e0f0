// Package export renders the lead store into tabular downloads: a full
// lead sheet (CSV or XLSX) and an SMS campaign list restricted to
// UK-mobile numbers.
package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/posso-labs/leadscout/internal/model"
)

// leadColumns defines the ordered lead export columns.
var leadColumns = []string{
	"Name",
	"Address",
	"Phone",
	"Email",
	"Instagram",
	"Website",
	"Rating",
	"Type",
	"Score",
	"KioskReady",
	"OnlineReady",
	"Summary",
}

// smsColumns defines the ordered SMS campaign list columns.
var smsColumns = []string{"Name", "Phone", "Score"}

// WriteLeadsCSV writes all leads as CSV. Every field is quoted so embedded
// delimiters survive. An empty store writes nothing at all.
func WriteLeadsCSV(w io.Writer, leads []model.Lead) error {
	if len(leads) == 0 {
		return nil
	}

	if err := writeQuotedRow(w, leadColumns); err != nil {
		return eris.Wrap(err, "export: write header")
	}
	for _, l := range leads {
		if err := writeQuotedRow(w, leadRow(l)); err != nil {
			return eris.Wrap(err, "export: write row")
		}
	}
	return nil
}

// WriteSMSCSV writes the SMS campaign list: only leads with a UK-mobile
// phone number. A list with no mobile contacts writes nothing.
func WriteSMSCSV(w io.Writer, leads []model.Lead) error {
	mobile := MobileLeads(leads)
	if len(mobile) == 0 {
		return nil
	}

	if err := writeQuotedRow(w, smsColumns); err != nil {
		return eris.Wrap(err, "export: write sms header")
	}
	for _, l := range mobile {
		score := "N/A"
		if l.Enriched != nil {
			score = strconv.Itoa(l.Enriched.Score)
		}
		if err := writeQuotedRow(w, []string{l.Name, l.Phone, score}); err != nil {
			return eris.Wrap(err, "export: write sms row")
		}
	}
	return nil
}

// MobileLeads filters leads to those with a UK-mobile-shaped phone number,
// preserving store order.
func MobileLeads(leads []model.Lead) []model.Lead {
	var out []model.Lead
	for _, l := range leads {
		if model.IsUKMobile(l.Phone) {
			out = append(out, l)
		}
	}
	return out
}

func leadRow(l model.Lead) []string {
	var instagram, businessType, score, kiosk, online, summary string
	kiosk, online = "No", "No"
	if l.Enriched != nil {
		instagram = l.Enriched.InstagramFound
		businessType = string(l.Enriched.BusinessType)
		score = strconv.Itoa(l.Enriched.Score)
		if l.Enriched.KioskReady {
			kiosk = "Yes"
		}
		if l.Enriched.OnlineReady {
			online = "Yes"
		}
		summary = l.Enriched.Summary
	}

	var rating string
	if l.Rating != 0 {
		rating = strconv.FormatFloat(l.Rating, 'f', -1, 64)
	}

	return []string{
		l.Name,
		l.Address,
		l.Phone,
		l.ContactEmail(),
		instagram,
		l.Website,
		rating,
		businessType,
		score,
		kiosk,
		online,
		summary,
	}
}

// writeQuotedRow emits one CSV record with every field quoted. The
// standard encoding/csv writer only quotes when required, so the
// always-quote rule is applied by hand.
func writeQuotedRow(w io.Writer, fields []string) error {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	_, err := fmt.Fprintln(w, strings.Join(quoted, ","))
	return err
}
