// Package gemini provides a client for the generative-language service that
// backs lead scouting: area enumeration, Maps-grounded business search,
// structured lead extraction, and Search-grounded enrichment.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/posso-labs/leadscout/internal/model"
)

const (
	defaultEnumerateModel = "gemini-3-flash-preview"
	defaultSearchModel    = "gemini-2.5-flash"
	defaultReasonModel    = "gemini-3-pro-preview"
)

// ErrParse marks a response that arrived but could not be decoded into the
// expected structure. Callers treat it as a failed call, never as an
// empty-but-successful result.
var ErrParse = eris.New("gemini: malformed response")

// Coordinate biases Maps-grounded searches toward a geographic point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// SearchResult is the raw output of a grounded business search: free text
// plus the Maps citations it was grounded on.
type SearchResult struct {
	Text      string
	Citations []model.Citation
}

// Client defines the four logical operations consumed from the service.
// All four are fallible; a malformed response is an error.
type Client interface {
	// EnumerateAreas lists towns, districts, and villages within a city
	// or county.
	EnumerateAreas(ctx context.Context, place string) ([]string, error)
	// SearchBusinesses finds businesses matching a query, optionally
	// biased toward a coordinate.
	SearchBusinesses(ctx context.Context, query string, loc *Coordinate) (*SearchResult, error)
	// ExtractLeads turns grounded search output into structured records.
	ExtractLeads(ctx context.Context, text string, citations []model.Citation) ([]model.Lead, error)
	// EnrichLead researches a single business and scores its sales fit.
	EnrichLead(ctx context.Context, lead model.Lead) (*model.Enrichment, error)
}

// Option configures the client.
type Option func(*genaiClient)

// WithEnumerateModel overrides the model used for area enumeration.
func WithEnumerateModel(m string) Option {
	return func(c *genaiClient) { c.enumerateModel = m }
}

// WithSearchModel overrides the Maps-grounded search model.
func WithSearchModel(m string) Option {
	return func(c *genaiClient) { c.searchModel = m }
}

// WithReasonModel overrides the model used for extraction and enrichment.
func WithReasonModel(m string) Option {
	return func(c *genaiClient) { c.reasonModel = m }
}

// WithRateLimit overrides the default request pacing (requests per second).
func WithRateLimit(rps float64) Option {
	return func(c *genaiClient) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

type genaiClient struct {
	gen            *genai.Client
	enumerateModel string
	searchModel    string
	reasonModel    string
	limiter        *rate.Limiter
}

// NewClient creates a client for the generative-language API.
func NewClient(ctx context.Context, apiKey string, opts ...Option) (Client, error) {
	if apiKey == "" {
		return nil, eris.New("gemini: api key is required")
	}

	gen, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, eris.Wrap(err, "gemini: create client")
	}

	c := &genaiClient{
		gen:            gen,
		enumerateModel: defaultEnumerateModel,
		searchModel:    defaultSearchModel,
		reasonModel:    defaultReasonModel,
		limiter:        rate.NewLimiter(1, 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *genaiClient) EnumerateAreas(ctx context.Context, place string) ([]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "gemini: rate limit wait")
	}

	prompt := fmt.Sprintf(`List ALL major towns, districts, villages, and distinct local areas within or making up the city or county of %q.
Return the names as a simple JSON array of strings.
Be thorough: include as many as possible (up to 30) to ensure high-density lead generation.
Focus on areas with commercial centers and high-street businesses.`, place)

	resp, err := c.gen.Models.GenerateContent(ctx, c.enumerateModel, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "gemini: enumerate areas")
	}

	return decodeAreas(resp.Text())
}

func (c *genaiClient) SearchBusinesses(ctx context.Context, query string, loc *Coordinate) (*SearchResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "gemini: rate limit wait")
	}

	cfg := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleMaps: &genai.GoogleMaps{}}},
	}
	if loc != nil {
		cfg.ToolConfig = &genai.ToolConfig{
			RetrievalConfig: &genai.RetrievalConfig{
				LatLng: &genai.LatLng{Latitude: genai.Ptr(loc.Lat), Longitude: genai.Ptr(loc.Lng)},
			},
		}
	}

	prompt := fmt.Sprintf(`Find local businesses matching: %q. Focus on providing names, addresses, ratings, and phone numbers if available.`, query)

	resp, err := c.gen.Models.GenerateContent(ctx, c.searchModel, genai.Text(prompt), cfg)
	if err != nil {
		return nil, eris.Wrap(err, "gemini: search businesses")
	}

	return &SearchResult{
		Text:      resp.Text(),
		Citations: mapsCitations(resp),
	}, nil
}

func (c *genaiClient) ExtractLeads(ctx context.Context, text string, citations []model.Citation) ([]model.Lead, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "gemini: rate limit wait")
	}

	meta, err := json.Marshal(citations)
	if err != nil {
		return nil, eris.Wrap(err, "gemini: marshal citations")
	}

	prompt := fmt.Sprintf(`Extract a list of businesses from this text and metadata.
Text: %s
Metadata: %s

Return a JSON array of objects with fields: name, address, phone (if found), website (if found), rating (number if found), mapsUrl.`, text, meta)

	resp, err := c.gen.Models.GenerateContent(ctx, c.reasonModel, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name":    {Type: genai.TypeString},
					"address": {Type: genai.TypeString},
					"phone":   {Type: genai.TypeString},
					"website": {Type: genai.TypeString},
					"rating":  {Type: genai.TypeNumber},
					"mapsUrl": {Type: genai.TypeString},
				},
				Required: []string{"name", "address"},
			},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "gemini: extract leads")
	}

	return decodeLeads(resp.Text())
}

func (c *genaiClient) EnrichLead(ctx context.Context, lead model.Lead) (*model.Enrichment, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "gemini: rate limit wait")
	}

	website := lead.Website
	if website == "" {
		website = "N/A"
	}
	prompt := fmt.Sprintf(`You are a UK B2B lead qualification assistant for Posso Ltd.
Target Business:
Name: %s
Address: %s
Website: %s

Task:
1. Research this business using Google Search.
2. Find an official contact email address (info@, hello@, etc.).
3. Find their official Instagram profile handle or URL.
4. Determine if they are a good fit for self-service kiosks and online ordering.
5. Provide enrichment data in JSON.

leadScore: 0-100 (high if they are a busy hospitality business with high footfall).`, lead.Name, lead.Address, website)

	resp, err := c.gen.Models.GenerateContent(ctx, c.reasonModel, genai.Text(prompt), &genai.GenerateContentConfig{
		Tools:            []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"businessType": {
					Type: genai.TypeString,
					Enum: []string{"Restaurant", "Takeaway", "Café", "Pub", "Bakery", "Other"},
				},
				"idealForKiosk":          {Type: genai.TypeBoolean},
				"idealForOnlineOrdering": {Type: genai.TypeBoolean},
				"leadScore":              {Type: genai.TypeInteger},
				"notes":                  {Type: genai.TypeString},
				"shortSummary":           {Type: genai.TypeString},
				"emailFound":             {Type: genai.TypeString, Description: "Official contact email address."},
				"instagramFound":         {Type: genai.TypeString, Description: "Full URL to their Instagram profile."},
			},
			Required: []string{"businessType", "idealForKiosk", "idealForOnlineOrdering", "leadScore", "notes", "shortSummary"},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "gemini: enrich lead")
	}

	enrichment, err := decodeEnrichment(resp.Text())
	if err != nil {
		return nil, err
	}
	enrichment.Citations = webCitations(resp)
	return enrichment, nil
}
