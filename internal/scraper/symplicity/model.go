package symplicity

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go-jobwatch-automation/internal/models"

	"golang.org/x/text/unicode/norm"
)

type listPage struct {
	Total   flexInt   `json:"total"`
	PerPage flexInt   `json:"perPage"`
	Models  []jobJSON `json:"models"`
}

type jobJSON struct {
	JobID        flexString `json:"job_id"`
	Title        string     `json:"job_title"`
	Company      string     `json:"name"`
	PostDate     string     `json:"postdate"`
	Deadline     string     `json:"deadline"`
	Location     string     `json:"job_location"`
	JobType      []string   `json:"job_type"`
	RemoteOnsite *struct {
		Label string `json:"label"`
	} `json:"symp_remote_onsite"`
	CompFrom    flexString `json:"compensation_from"`
	CompTo      flexString `json:"compensation_to"`
	CompFreq    flexString `json:"compensation_frequency"`
	Description string     `json:"job_desc"`
	VisualID    flexString `json:"visual_id"`
}

func (j jobJSON) toPosting(targetPage string, loc *time.Location) models.Posting {
	p := models.Posting{
		ID:          strings.TrimSpace(string(j.JobID)),
		Title:       norm.NFC.String(strings.TrimSpace(j.Title)),
		Company:     norm.NFC.String(strings.TrimSpace(j.Company)),
		PostDateRaw: j.PostDate,
		PostDate:    normalizeDate(j.PostDate, loc),
		Deadline:    j.Deadline,
		Location:    norm.NFC.String(strings.TrimSpace(j.Location)),
		JobTypes:    j.JobType,
		CompFrom:    string(j.CompFrom),
		CompTo:      string(j.CompTo),
		CompFreq:    string(j.CompFreq),
		Description: j.Description,
		VisualID:    string(j.VisualID),
	}
	if j.RemoteOnsite != nil {
		p.OnsiteRemote = j.RemoteOnsite.Label
	}
	if p.ID != "" {
		p.URL = BuildJobLink(targetPage, p.ID)
	}
	return p
}

// BuildJobLink sets currentJobId on the search page URL, keeping its other
// query parameters.
func BuildJobLink(targetPage, jobID string) string {
	u, err := url.Parse(targetPage)
	if err != nil {
		return targetPage
	}
	q := u.Query()
	q.Set("currentJobId", jobID)
	u.RawQuery = q.Encode()
	return u.String()
}

// flexString accepts a JSON string, number or null.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// flexInt accepts a JSON number, numeric string or null.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	if s == "" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(string(s))
	if err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}
