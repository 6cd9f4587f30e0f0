package model

// LeadStatus represents the current state of a lead's enrichment lifecycle.
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusEnriching LeadStatus = "enriching"
	LeadStatusCompleted LeadStatus = "completed"
	LeadStatusFailed    LeadStatus = "failed"
)

// BusinessType classifies a lead into the closed hospitality set.
type BusinessType string

const (
	BusinessTypeRestaurant BusinessType = "Restaurant"
	BusinessTypeTakeaway   BusinessType = "Takeaway"
	BusinessTypeCafe       BusinessType = "Café"
	BusinessTypePub        BusinessType = "Pub"
	BusinessTypeBakery     BusinessType = "Bakery"
	BusinessTypeOther      BusinessType = "Other"
)

// NormalizeBusinessType maps a free-form value onto the closed set.
// Anything unrecognized becomes Other.
func NormalizeBusinessType(s string) BusinessType {
	switch BusinessType(s) {
	case BusinessTypeRestaurant, BusinessTypeTakeaway, BusinessTypeCafe, BusinessTypePub, BusinessTypeBakery:
		return BusinessType(s)
	default:
		return BusinessTypeOther
	}
}

// Lead represents a candidate business gathered from an area search.
type Lead struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Address  string      `json:"address"`
	Phone    string      `json:"phone,omitempty"`
	Email    string      `json:"email,omitempty"`
	Website  string      `json:"website,omitempty"`
	Rating   float64     `json:"rating,omitempty"`
	MapsURL  string      `json:"maps_url,omitempty"`
	Status   LeadStatus  `json:"status"`
	Enriched *Enrichment `json:"enrichment,omitempty"`
}

// ContactEmail returns the primary email, falling back to the
// enrichment-discovered address.
func (l Lead) ContactEmail() string {
	if l.Email != "" {
		return l.Email
	}
	if l.Enriched != nil {
		return l.Enriched.EmailFound
	}
	return ""
}

// Enrichment holds the research data attached to a lead after a
// successful enrichment call. It is replaced wholesale on re-enrichment.
type Enrichment struct {
	BusinessType   BusinessType `json:"business_type"`
	KioskReady     bool         `json:"kiosk_ready"`
	OnlineReady    bool         `json:"online_ready"`
	Score          int          `json:"score"`
	Notes          string       `json:"notes"`
	Summary        string       `json:"summary"`
	EmailFound     string       `json:"email_found,omitempty"`
	InstagramFound string       `json:"instagram_found,omitempty"`
	Citations      []Citation   `json:"citations,omitempty"`
}

// ClampScore bounds the sales-fit score to [0, 100].
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// Citation is a grounding source returned alongside a generative answer.
type Citation struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}
