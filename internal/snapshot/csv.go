package snapshot

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go-jobwatch-automation/internal/models"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const previewLimit = 350

var Columns = []string{
	"job_id", "job_title", "company", "postdate", "deadline", "location",
	"type", "onsite_remote", "comp_from", "comp_to", "comp_freq", "desc_preview", "visual_id",
}

// Write replaces the snapshot at path with one row per posting. The file is
// UTF-8 with a BOM so spreadsheet tools pick the right encoding.
func Write(path string, postings []models.Posting) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	bom := transform.NewWriter(tmp, unicode.UTF8BOM.NewEncoder())
	w := csv.NewWriter(bom)

	if err := w.Write(Columns); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, p := range postings {
		if err := w.Write(row(p)); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write row %s: %w", p.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	if err := bom.Close(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush encoder: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

func row(p models.Posting) []string {
	return []string{
		p.ID,
		p.Title,
		p.Company,
		p.PostDateRaw,
		p.Deadline,
		p.Location,
		strings.Join(p.JobTypes, ", "),
		p.OnsiteRemote,
		p.CompFrom,
		p.CompTo,
		p.CompFreq,
		StripHTML(p.Description, previewLimit),
		p.VisualID,
	}
}

// StripHTML returns the visible text of html with whitespace collapsed,
// cut to limit runes with a trailing ellipsis.
func StripHTML(html string, limit int) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	text := html
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		var parts []string
		collectText(doc.Find("body"), &parts)
		text = strings.Join(parts, " ")
	}
	text = strings.Join(strings.Fields(text), " ")

	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit-1]) + "…"
}

func collectText(sel *goquery.Selection, parts *[]string) {
	sel.Contents().Each(func(_ int, c *goquery.Selection) {
		switch goquery.NodeName(c) {
		case "#text":
			*parts = append(*parts, c.Text())
		case "script", "style":
		default:
			collectText(c, parts)
		}
	})
}
