// Package workspace holds the session's shared mutable state: the ordered
// lead store, the area queue, and the status line. A single mutex guards
// both collections so the single-writer invariant of the orchestration flow
// survives the multi-threaded serve mode.
package workspace

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"github.com/posso-labs/leadscout/internal/model"
)

// Filter selects a derived view over the lead store.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterEnriched  Filter = "enriched"
	FilterWithEmail Filter = "with-email"
)

// Stats are derived counts, computed fresh from the store on every read.
type Stats struct {
	Total      int `json:"total"`
	New        int `json:"new"`
	Enriched   int `json:"enriched"`
	WithEmail  int `json:"with_email"`
	SMSCapable int `json:"sms_capable"`
}

// Workspace is the in-memory session state. Created at session start and
// torn down only by Clear or process restart.
type Workspace struct {
	mu     sync.Mutex
	leads  []model.Lead
	areas  []model.Area
	status string
	keys   map[string]struct{}
}

// New creates an empty workspace.
func New() *Workspace {
	return &Workspace{keys: make(map[string]struct{})}
}

var foldCaser = cases.Fold()

// identityKey builds the de-duplication key for a lead. Two records with
// equal name and address are the same lead; the comparison is
// case-insensitive and whitespace-normalized.
func identityKey(name, address string) string {
	return foldCaser.String(strings.Join(strings.Fields(name), " ")) +
		"\n" +
		foldCaser.String(strings.Join(strings.Fields(address), " "))
}

// ReplaceAreas discards the current area queue and installs one idle entry
// per name.
func (w *Workspace) ReplaceAreas(names []string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.areas = make([]model.Area, 0, len(names))
	for _, name := range names {
		w.areas = append(w.areas, model.Area{Name: name, Status: model.AreaStatusIdle})
	}
}

// Areas returns a copy of the area queue.
func (w *Workspace) Areas() []model.Area {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]model.Area(nil), w.areas...)
}

// AreaSnapshot returns the names of areas currently in the given status, in
// queue order. Batch runs operate on this snapshot: areas added afterwards
// are not part of the run.
func (w *Workspace) AreaSnapshot(status model.AreaStatus) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var names []string
	for _, a := range w.areas {
		if a.Status == status {
			names = append(names, a.Name)
		}
	}
	return names
}

// AreaStatus reports the status of the named area.
func (w *Workspace) AreaStatus(name string) (model.AreaStatus, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, a := range w.areas {
		if a.Name == name {
			return a.Status, true
		}
	}
	return "", false
}

// SetAreaStatus transitions the named area, leaving its count untouched.
// Unknown names are ignored.
func (w *Workspace) SetAreaStatus(name string, status model.AreaStatus) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i := range w.areas {
		if w.areas[i].Name == name {
			w.areas[i].Status = status
			return
		}
	}
}

// SetAreaResult transitions the named area and records its raw result
// count. Unknown names are ignored.
func (w *Workspace) SetAreaResult(name string, status model.AreaStatus, count int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i := range w.areas {
		if w.areas[i].Name == name {
			w.areas[i].Status = status
			w.areas[i].Count = count
			return
		}
	}
}

// AddLeads inserts the given records, dropping any whose (name, address)
// identity already exists in the store or earlier in the batch. Survivors
// are assigned IDs, marked new, and prepended most-recent-first. Returns
// the number of leads actually added.
func (w *Workspace) AddLeads(leads []model.Lead) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	var fresh []model.Lead
	for _, l := range leads {
		key := identityKey(l.Name, l.Address)
		if _, dup := w.keys[key]; dup {
			continue
		}
		w.keys[key] = struct{}{}
		l.ID = uuid.NewString()
		l.Status = model.LeadStatusNew
		l.Enriched = nil
		fresh = append(fresh, l)
	}

	w.leads = append(fresh, w.leads...)
	return len(fresh)
}

// Leads returns a filtered copy of the store. Filtering never mutates
// order or contents; FilterAll returns the full store unchanged.
func (w *Workspace) Leads(f Filter) []model.Lead {
	w.mu.Lock()
	defer w.mu.Unlock()

	var out []model.Lead
	for _, l := range w.leads {
		switch f {
		case FilterEnriched:
			if l.Status != model.LeadStatusCompleted {
				continue
			}
		case FilterWithEmail:
			if l.ContactEmail() == "" {
				continue
			}
		}
		out = append(out, l)
	}
	return out
}

// Lead returns the lead with the given id.
func (w *Workspace) Lead(id string) (model.Lead, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, l := range w.leads {
		if l.ID == id {
			return l, true
		}
	}
	return model.Lead{}, false
}

// LeadSnapshot returns the ids of leads currently in the given status, in
// store order.
func (w *Workspace) LeadSnapshot(status model.LeadStatus) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var ids []string
	for _, l := range w.leads {
		if l.Status == status {
			ids = append(ids, l.ID)
		}
	}
	return ids
}

// SetLeadStatus transitions the lead with the given id.
func (w *Workspace) SetLeadStatus(id string, status model.LeadStatus) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i := range w.leads {
		if w.leads[i].ID == id {
			w.leads[i].Status = status
			return true
		}
	}
	return false
}

// CompleteEnrichment marks the lead completed and attaches the payload,
// replacing any prior enrichment wholesale. A discovered email is copied
// onto the lead's primary email field only if the lead had none.
func (w *Workspace) CompleteEnrichment(id string, e *model.Enrichment) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i := range w.leads {
		if w.leads[i].ID == id {
			w.leads[i].Status = model.LeadStatusCompleted
			w.leads[i].Enriched = e
			if w.leads[i].Email == "" && e != nil {
				w.leads[i].Email = e.EmailFound
			}
			return true
		}
	}
	return false
}

// FailEnrichment marks the lead failed. Any stale payload from a prior run
// is discarded: a failed status implies no trusted enrichment.
func (w *Workspace) FailEnrichment(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i := range w.leads {
		if w.leads[i].ID == id {
			w.leads[i].Status = model.LeadStatusFailed
			w.leads[i].Enriched = nil
			return true
		}
	}
	return false
}

// RemoveLead deletes the lead with the given id, freeing its identity key
// for future inserts.
func (w *Workspace) RemoveLead(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i, l := range w.leads {
		if l.ID == id {
			delete(w.keys, identityKey(l.Name, l.Address))
			w.leads = append(w.leads[:i], w.leads[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the lead store and area queue. The quota counter is
// session-scoped and deliberately survives a workspace clear.
func (w *Workspace) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.leads = nil
	w.areas = nil
	w.keys = make(map[string]struct{})
	w.status = "Workspace cleared."
}

// Stats computes derived counts from the current store.
func (w *Workspace) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := Stats{Total: len(w.leads)}
	for _, l := range w.leads {
		if l.Status == model.LeadStatusNew {
			s.New++
		}
		if l.Status == model.LeadStatusCompleted {
			s.Enriched++
		}
		if l.ContactEmail() != "" {
			s.WithEmail++
		}
		if model.IsUKMobile(l.Phone) {
			s.SMSCapable++
		}
	}
	return s
}

// Status returns the current human-readable status line.
func (w *Workspace) Status() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// SetStatus updates the status line.
func (w *Workspace) SetStatus(msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = msg
}
