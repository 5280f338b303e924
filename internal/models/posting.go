package models

import "time"

// Posting is one job listing. ID is its identity; everything else is payload.
type Posting struct {
	ID    string
	Title string
	//Employer name
	Company string
	//Calendar date in the reference timezone, zero when the source date is unparseable
	PostDate    time.Time
	PostDateRaw string
	Deadline    string
	Location    string
	JobTypes    []string
	//Detail link on the portal
	URL string

	OnsiteRemote string
	CompFrom     string
	CompTo       string
	CompFreq     string
	//Raw HTML description, only used for the snapshot preview
	Description string
	VisualID    string
}

// HasDate reports whether the posting date could be normalized.
func (p Posting) HasDate() bool {
	return !p.PostDate.IsZero()
}

// FetchFilters controls one paginated run against the listing endpoint.
type FetchFilters struct {
	Sort    string
	PerPage int
	//Optional job-type code, empty = all jobs
	JobType string
}
