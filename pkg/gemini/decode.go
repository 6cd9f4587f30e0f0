package gemini

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"google.golang.org/genai"

	"github.com/posso-labs/leadscout/internal/model"
)

// decodeAreas parses a JSON array of place names. Blank entries are
// dropped.
func decodeAreas(payload string) ([]string, error) {
	var names []string
	if err := json.Unmarshal([]byte(payload), &names); err != nil {
		return nil, eris.Wrap(ErrParse, "decode areas: "+err.Error())
	}

	out := names[:0]
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out, nil
}

type rawLead struct {
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Phone   string  `json:"phone"`
	Website string  `json:"website"`
	Rating  float64 `json:"rating"`
	MapsURL string  `json:"mapsUrl"`
}

// decodeLeads parses a JSON array of business records. Records missing
// either required field (name, address) are dropped; an unparseable
// payload is an ErrParse, not an empty success.
func decodeLeads(payload string) ([]model.Lead, error) {
	var raw []rawLead
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, eris.Wrap(ErrParse, "decode leads: "+err.Error())
	}

	var leads []model.Lead
	for _, r := range raw {
		if strings.TrimSpace(r.Name) == "" || strings.TrimSpace(r.Address) == "" {
			continue
		}
		leads = append(leads, model.Lead{
			Name:    strings.TrimSpace(r.Name),
			Address: strings.TrimSpace(r.Address),
			Phone:   strings.TrimSpace(r.Phone),
			Website: strings.TrimSpace(r.Website),
			Rating:  r.Rating,
			MapsURL: strings.TrimSpace(r.MapsURL),
			Status:  model.LeadStatusNew,
		})
	}
	return leads, nil
}

type rawEnrichment struct {
	BusinessType           string `json:"businessType"`
	IdealForKiosk          bool   `json:"idealForKiosk"`
	IdealForOnlineOrdering bool   `json:"idealForOnlineOrdering"`
	LeadScore              int    `json:"leadScore"`
	Notes                  string `json:"notes"`
	ShortSummary           string `json:"shortSummary"`
	EmailFound             string `json:"emailFound"`
	InstagramFound         string `json:"instagramFound"`
}

// decodeEnrichment parses and normalizes an enrichment payload: the
// business type collapses onto the closed set and the score is clamped to
// [0, 100].
func decodeEnrichment(payload string) (*model.Enrichment, error) {
	var raw rawEnrichment
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, eris.Wrap(ErrParse, "decode enrichment: "+err.Error())
	}

	return &model.Enrichment{
		BusinessType:   model.NormalizeBusinessType(raw.BusinessType),
		KioskReady:     raw.IdealForKiosk,
		OnlineReady:    raw.IdealForOnlineOrdering,
		Score:          model.ClampScore(raw.LeadScore),
		Notes:          raw.Notes,
		Summary:        raw.ShortSummary,
		EmailFound:     strings.TrimSpace(raw.EmailFound),
		InstagramFound: strings.TrimSpace(raw.InstagramFound),
	}, nil
}

// mapsCitations collects Maps grounding chunks from a response.
func mapsCitations(resp *genai.GenerateContentResponse) []model.Citation {
	var out []model.Citation
	for _, chunk := range groundingChunks(resp) {
		if chunk.Maps != nil {
			out = append(out, model.Citation{URI: chunk.Maps.URI, Title: chunk.Maps.Title})
		}
	}
	return out
}

// webCitations collects web-search grounding chunks from a response.
func webCitations(resp *genai.GenerateContentResponse) []model.Citation {
	var out []model.Citation
	for _, chunk := range groundingChunks(resp) {
		if chunk.Web != nil {
			out = append(out, model.Citation{URI: chunk.Web.URI, Title: chunk.Web.Title})
		}
	}
	return out
}

func groundingChunks(resp *genai.GenerateContentResponse) []*genai.GroundingChunk {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	meta := resp.Candidates[0].GroundingMetadata
	if meta == nil {
		return nil
	}
	return meta.GroundingChunks
}
