package dedup

import (
	"sort"
	"time"

	"go-jobwatch-automation/internal/models"
)

// SeenSet holds identifiers already notified or seeded. It only grows.
type SeenSet map[string]struct{}

func NewSeenSet(ids ...string) SeenSet {
	s := make(SeenSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s SeenSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Add marks id as seen and reports whether it was new.
func (s SeenSet) Add(id string) bool {
	if id == "" || s.Has(id) {
		return false
	}
	s[id] = struct{}{}
	return true
}

// IDs returns the identifiers sorted, the order they are persisted in.
func (s SeenSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Result is the outcome of one sync pass over a fetch result.
type Result struct {
	New         []models.Posting
	Stale       []models.Posting
	AlreadySeen []models.Posting
	//Postings without an identifier, never notified
	NoID []models.Posting
}

// DedupeBatch drops repeated identifiers within one fetch result, keeping
// the first occurrence. Page boundaries shift when postings are added during
// pagination, so the same posting can come back twice.
func DedupeBatch(postings []models.Posting) []models.Posting {
	seen := make(map[string]bool, len(postings))
	unique := make([]models.Posting, 0, len(postings))
	for _, p := range postings {
		if p.ID != "" {
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
		}
		unique = append(unique, p)
	}
	return unique
}

// Partition classifies postings against the cutoff and the seen-set, in order.
// A posting dated before cutoff (or undated) is stale and is NOT marked seen,
// so moving the cutoff earlier later can still surface it. Every new posting
// is marked seen immediately; a failed delivery does not undo the mark.
func Partition(postings []models.Posting, seen SeenSet, cutoff time.Time) Result {
	var part Result
	for _, p := range DedupeBatch(postings) {
		switch {
		case p.ID == "":
			part.NoID = append(part.NoID, p)
		case !p.HasDate() || p.PostDate.Before(cutoff):
			part.Stale = append(part.Stale, p)
		case seen.Has(p.ID):
			part.AlreadySeen = append(part.AlreadySeen, p)
		default:
			seen.Add(p.ID)
			part.New = append(part.New, p)
		}
	}
	return part
}

// SeedIfEmpty marks every fetched identifier as seen, regardless of cutoff,
// when seen is empty. It returns the number of identifiers seeded; zero means
// seen already had entries and nothing changed.
func SeedIfEmpty(postings []models.Posting, seen SeenSet) int {
	if len(seen) > 0 {
		return 0
	}
	seeded := 0
	for _, p := range postings {
		if seen.Add(p.ID) {
			seeded++
		}
	}
	return seeded
}
