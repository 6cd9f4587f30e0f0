package model

// AreaStatus represents the search state of a scouting zone.
type AreaStatus string

const (
	AreaStatusIdle      AreaStatus = "idle"
	AreaStatusSearching AreaStatus = "searching"
	AreaStatusFound     AreaStatus = "found"
	AreaStatusEmpty     AreaStatus = "empty"
)

// Area is a sub-region (town, district, village) within a chosen city or
// county, used to partition search queries. Count is meaningful only when
// Status is found; it reflects the raw number of results the service
// returned, not post-deduplication survivors.
type Area struct {
	Name   string     `json:"name"`
	Status AreaStatus `json:"status"`
	Count  int        `json:"count"`
}
