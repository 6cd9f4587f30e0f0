package workspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/posso-labs/leadscout/internal/model"
)

func lead(name, address string) model.Lead {
	return model.Lead{Name: name, Address: address}
}

func TestAddLeadsDeduplication(t *testing.T) {
	ws := New()

	added := ws.AddLeads([]model.Lead{
		lead("Crusty Cob", "1 High St"),
		lead("Blue Boar", "2 High St"),
	})
	assert.Equal(t, 2, added)

	// Same identity again, in any arrival order, never survives.
	added = ws.AddLeads([]model.Lead{
		lead("Crusty Cob", "1 High St"),
		lead("New Place", "3 High St"),
		lead("New Place", "3 High St"), // duplicate within the batch too
	})
	assert.Equal(t, 1, added)

	leads := ws.Leads(FilterAll)
	require.Len(t, leads, 3)
}

func TestAddLeadsIdentityNormalized(t *testing.T) {
	ws := New()

	ws.AddLeads([]model.Lead{lead("Crusty  Cob", "1 High St")})
	added := ws.AddLeads([]model.Lead{lead("crusty cob", " 1  HIGH st ")})
	assert.Equal(t, 0, added)

	// Same name at a different address is a different lead.
	added = ws.AddLeads([]model.Lead{lead("Crusty Cob", "9 Mill Rd")})
	assert.Equal(t, 1, added)
}

func TestAddLeadsPrependOrder(t *testing.T) {
	ws := New()

	ws.AddLeads([]model.Lead{lead("First", "a"), lead("Second", "b")})
	ws.AddLeads([]model.Lead{lead("Third", "c"), lead("Fourth", "d")})

	leads := ws.Leads(FilterAll)
	require.Len(t, leads, 4)
	// Newest batch first, preserving in-batch order.
	assert.Equal(t, "Third", leads[0].Name)
	assert.Equal(t, "Fourth", leads[1].Name)
	assert.Equal(t, "First", leads[2].Name)
	assert.Equal(t, "Second", leads[3].Name)

	for _, l := range leads {
		assert.NotEmpty(t, l.ID)
		assert.Equal(t, model.LeadStatusNew, l.Status)
	}
}

func TestFilterAllIsIdentity(t *testing.T) {
	ws := New()
	ws.AddLeads([]model.Lead{lead("A", "1"), lead("B", "2"), lead("C", "3")})

	first := ws.Leads(FilterAll)
	second := ws.Leads(FilterAll)
	assert.Equal(t, first, second)
	require.Len(t, second, 3)

	// Filtering must not mutate the store.
	second[0].Name = "mutated"
	assert.Equal(t, first[0].Name, ws.Leads(FilterAll)[0].Name)
}

func TestFilters(t *testing.T) {
	ws := New()
	ws.AddLeads([]model.Lead{
		lead("Plain", "1"),
		{Name: "HasEmail", Address: "2", Email: "info@hasemail.co.uk"},
		lead("Analyzed", "3"),
	})

	ids := ws.LeadSnapshot(model.LeadStatusNew)
	require.Len(t, ids, 3)

	// "Analyzed" was added first, so it is last in the store.
	analyzedID := ids[0]
	for _, l := range ws.Leads(FilterAll) {
		if l.Name == "Analyzed" {
			analyzedID = l.ID
		}
	}
	ok := ws.CompleteEnrichment(analyzedID, &model.Enrichment{
		BusinessType: model.BusinessTypeCafe,
		EmailFound:   "hello@analyzed.co.uk",
	})
	require.True(t, ok)

	enriched := ws.Leads(FilterEnriched)
	require.Len(t, enriched, 1)
	assert.Equal(t, "Analyzed", enriched[0].Name)

	withEmail := ws.Leads(FilterWithEmail)
	require.Len(t, withEmail, 2)
}

func TestEnrichmentOverwriteWholesale(t *testing.T) {
	ws := New()
	ws.AddLeads([]model.Lead{lead("Cafe", "1")})
	id := ws.Leads(FilterAll)[0].ID

	ws.CompleteEnrichment(id, &model.Enrichment{
		BusinessType:   model.BusinessTypeCafe,
		Score:          90,
		Notes:          "old notes",
		InstagramFound: "https://instagram.com/old",
	})

	// Re-enrichment replaces the payload wholesale: nothing from the
	// prior payload persists unless present in the new one.
	ws.CompleteEnrichment(id, &model.Enrichment{
		BusinessType: model.BusinessTypePub,
		Score:        40,
	})

	l, ok := ws.Lead(id)
	require.True(t, ok)
	require.NotNil(t, l.Enriched)
	assert.Equal(t, model.BusinessTypePub, l.Enriched.BusinessType)
	assert.Equal(t, 40, l.Enriched.Score)
	assert.Empty(t, l.Enriched.Notes)
	assert.Empty(t, l.Enriched.InstagramFound)
}

func TestCompleteEnrichmentEmailCopy(t *testing.T) {
	ws := New()
	ws.AddLeads([]model.Lead{
		lead("NoEmail", "1"),
		{Name: "HasEmail", Address: "2", Email: "primary@existing.co.uk"},
	})

	for _, l := range ws.Leads(FilterAll) {
		ws.CompleteEnrichment(l.ID, &model.Enrichment{EmailFound: "found@service.co.uk"})
	}

	for _, l := range ws.Leads(FilterAll) {
		switch l.Name {
		case "NoEmail":
			assert.Equal(t, "found@service.co.uk", l.Email)
		case "HasEmail":
			// Discovered email never overwrites an existing primary.
			assert.Equal(t, "primary@existing.co.uk", l.Email)
		}
	}
}

func TestFailEnrichmentDiscardsPayload(t *testing.T) {
	ws := New()
	ws.AddLeads([]model.Lead{lead("Flaky", "1")})
	id := ws.Leads(FilterAll)[0].ID

	ws.CompleteEnrichment(id, &model.Enrichment{Score: 77})
	ws.FailEnrichment(id)

	l, _ := ws.Lead(id)
	assert.Equal(t, model.LeadStatusFailed, l.Status)
	assert.Nil(t, l.Enriched)
}

func TestRemoveLeadFreesIdentity(t *testing.T) {
	ws := New()
	ws.AddLeads([]model.Lead{lead("Gone", "1")})
	id := ws.Leads(FilterAll)[0].ID

	require.True(t, ws.RemoveLead(id))
	assert.False(t, ws.RemoveLead(id))
	assert.Empty(t, ws.Leads(FilterAll))

	// The identity key is freed for re-insertion.
	assert.Equal(t, 1, ws.AddLeads([]model.Lead{lead("Gone", "1")}))
}

func TestClear(t *testing.T) {
	ws := New()
	ws.AddLeads([]model.Lead{lead("A", "1")})
	ws.ReplaceAreas([]string{"Oadby", "Wigston"})

	ws.Clear()

	assert.Empty(t, ws.Leads(FilterAll))
	assert.Empty(t, ws.Areas())
	assert.Equal(t, "Workspace cleared.", ws.Status())
	assert.Equal(t, 1, ws.AddLeads([]model.Lead{lead("A", "1")}))
}

func TestAreas(t *testing.T) {
	ws := New()
	ws.ReplaceAreas([]string{"Oadby", "Wigston", "Blaby"})

	areas := ws.Areas()
	require.Len(t, areas, 3)
	for _, a := range areas {
		assert.Equal(t, model.AreaStatusIdle, a.Status)
		assert.Zero(t, a.Count)
	}

	ws.SetAreaResult("Oadby", model.AreaStatusFound, 5)
	ws.SetAreaStatus("Wigston", model.AreaStatusSearching)

	assert.Equal(t, []string{"Blaby"}, ws.AreaSnapshot(model.AreaStatusIdle))

	st, ok := ws.AreaStatus("Oadby")
	require.True(t, ok)
	assert.Equal(t, model.AreaStatusFound, st)

	_, ok = ws.AreaStatus("Nowhere")
	assert.False(t, ok)

	// Re-scouting replaces the queue wholesale.
	ws.ReplaceAreas([]string{"Hinckley"})
	areas = ws.Areas()
	require.Len(t, areas, 1)
	assert.Equal(t, model.AreaStatusIdle, areas[0].Status)
}

func TestStats(t *testing.T) {
	ws := New()
	ws.AddLeads([]model.Lead{
		{Name: "Mobile", Address: "1", Phone: "07912 345678"},
		{Name: "Landline", Address: "2", Phone: "0116 123 4567"},
		{Name: "Intl", Address: "3", Phone: "+44 7700 900123"},
		{Name: "Mail", Address: "4", Email: "x@y.co.uk"},
	})

	s := ws.Stats()
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 4, s.New)
	assert.Equal(t, 0, s.Enriched)
	assert.Equal(t, 1, s.WithEmail)
	assert.Equal(t, 2, s.SMSCapable)

	id := ws.Leads(FilterAll)[0].ID
	ws.CompleteEnrichment(id, &model.Enrichment{EmailFound: "m@mobile.co.uk"})

	// Derived counts are computed fresh on every read.
	s = ws.Stats()
	assert.Equal(t, 3, s.New)
	assert.Equal(t, 1, s.Enriched)
	assert.Equal(t, 2, s.WithEmail)
}
