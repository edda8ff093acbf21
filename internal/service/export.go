package service

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/memcord/memcord/internal/memory"
)

// Export formats.
const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
)

// exportEnvelope is the structured JSON dump: metadata plus the filtered
// record set.
type exportEnvelope struct {
	ExportedAt time.Time       `json:"exported_at"`
	Project    string          `json:"project,omitempty"`
	Category   string          `json:"category,omitempty"`
	Count      int             `json:"count"`
	Memories   []memory.Memory `json:"memories"`
}

// ExportMemoryBank renders the filtered memory set in the requested format.
// All three formats render the identical underlying record set.
func (s *Service) ExportMemoryBank(project, category, format string) (string, error) {
	if format == "" {
		format = FormatJSON
	}

	records, err := s.store.ExportRecords(project, category)
	if err != nil {
		return "", err
	}

	switch format {
	case FormatJSON:
		return renderJSON(project, category, records)
	case FormatMarkdown:
		return renderMarkdown(project, category, records), nil
	case FormatCSV:
		return renderCSV(records)
	default:
		return "", fmt.Errorf("%w: unknown format %q", ErrValidation, format)
	}
}

func renderJSON(project, category string, records []memory.Memory) (string, error) {
	if records == nil {
		records = []memory.Memory{}
	}
	env := exportEnvelope{
		ExportedAt: time.Now().UTC(),
		Project:    project,
		Category:   category,
		Count:      len(records),
		Memories:   records,
	}
	b, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func renderMarkdown(project, category string, records []memory.Memory) string {
	var b strings.Builder
	b.WriteString("# Memory Bank Export\n\n")
	if project != "" {
		fmt.Fprintf(&b, "**Project**: %s\n", project)
	}
	if category != "" {
		fmt.Fprintf(&b, "**Category**: %s\n", category)
	}
	fmt.Fprintf(&b, "**Memories**: %d\n\n", len(records))

	for i, m := range records {
		fmt.Fprintf(&b, "## %d. %s\n\n", i+1, m.ID)
		fmt.Fprintf(&b, "- **Content**: %s\n", m.Content)
		fmt.Fprintf(&b, "- **Context**: %s\n", m.Context)
		fmt.Fprintf(&b, "- **Importance**: %d\n", m.Importance)
		fmt.Fprintf(&b, "- **Source**: %s\n", m.Source)
		if m.Project != "" {
			fmt.Fprintf(&b, "- **Project**: %s\n", m.Project)
		}
		if m.Category != "" {
			fmt.Fprintf(&b, "- **Category**: %s\n", m.Category)
		}
		if len(m.Tags) > 0 {
			fmt.Fprintf(&b, "- **Tags**: %s\n", strings.Join(m.Tags, ", "))
		}
		fmt.Fprintf(&b, "- **Created**: %s\n\n", m.CreatedAt.Format(time.RFC3339))
	}
	return b.String()
}

// renderCSV emits the header row first; encoding/csv doubles embedded
// quotes per RFC 4180.
func renderCSV(records []memory.Memory) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"id", "content", "context", "importance", "source", "project", "category", "tags", "created_at", "updated_at"}
	if err := w.Write(header); err != nil {
		return "", err
	}
	for _, m := range records {
		row := []string{
			m.ID,
			m.Content,
			m.Context,
			strconv.Itoa(m.Importance),
			m.Source,
			m.Project,
			m.Category,
			strings.Join(m.Tags, ";"),
			m.CreatedAt.Format(time.RFC3339),
			m.UpdatedAt.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
