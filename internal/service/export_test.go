package service_test

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/memcord/memcord/internal/memory"
	"github.com/memcord/memcord/internal/service"
)

func seedExport(t *testing.T) *service.Service {
	t.Helper()
	svc := newTestService(t, nil, nil, service.Options{})
	for _, req := range []service.AddMemoryRequest{
		{Content: `He said "hi" and hung up`, Project: "svc", Category: "notes", Importance: 3, Tags: []string{"call", "support"}},
		{Content: "Deploys require two approvals", Project: "svc", Category: "process", Importance: 8},
		{Content: "Unrelated project entry", Project: "other"},
	} {
		if _, err := svc.AddMemory(context.Background(), req); err != nil {
			t.Fatalf("seed AddMemory error: %v", err)
		}
	}
	return svc
}

func TestExportMemoryBank_JSON(t *testing.T) {
	svc := seedExport(t)

	out, err := svc.ExportMemoryBank("svc", "", service.FormatJSON)
	if err != nil {
		t.Fatalf("ExportMemoryBank error: %v", err)
	}

	var env struct {
		Project  string          `json:"project"`
		Count    int             `json:"count"`
		Memories []memory.Memory `json:"memories"`
	}
	if err := json.Unmarshal([]byte(out), &env); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if env.Project != "svc" {
		t.Errorf("project = %q, want svc", env.Project)
	}
	if env.Count != 2 || len(env.Memories) != 2 {
		t.Fatalf("count = %d, memories = %d, want 2 each", env.Count, len(env.Memories))
	}
}

func TestExportMemoryBank_JSONEmptySetIsArray(t *testing.T) {
	svc := newTestService(t, nil, nil, service.Options{})

	out, err := svc.ExportMemoryBank("nothing-here", "", service.FormatJSON)
	if err != nil {
		t.Fatalf("ExportMemoryBank error: %v", err)
	}
	if strings.Contains(out, `"memories": null`) {
		t.Error("empty export must render an empty array, not null")
	}
}

func TestExportMemoryBank_Markdown(t *testing.T) {
	svc := seedExport(t)

	out, err := svc.ExportMemoryBank("svc", "process", service.FormatMarkdown)
	if err != nil {
		t.Fatalf("ExportMemoryBank error: %v", err)
	}
	if !strings.HasPrefix(out, "# Memory Bank Export") {
		t.Errorf("missing title, got %q", out[:min(len(out), 40)])
	}
	if !strings.Contains(out, "**Project**: svc") {
		t.Error("missing project line")
	}
	if !strings.Contains(out, "- **Content**: Deploys require two approvals") {
		t.Error("missing content line")
	}
	if strings.Contains(out, "Unrelated project entry") {
		t.Error("export leaked another project's memories")
	}
}

func TestExportMemoryBank_CSV(t *testing.T) {
	svc := seedExport(t)

	out, err := svc.ExportMemoryBank("svc", "notes", service.FormatCSV)
	if err != nil {
		t.Fatalf("ExportMemoryBank error: %v", err)
	}

	// Embedded quotes must be doubled per RFC 4180.
	if !strings.Contains(out, `"He said ""hi"" and hung up"`) {
		t.Errorf("quotes not escaped:\n%s", out)
	}

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("export is not valid CSV: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %d rows", len(rows))
	}
	if rows[0][0] != "id" || rows[0][1] != "content" {
		t.Errorf("header row = %v", rows[0])
	}
	if rows[1][1] != `He said "hi" and hung up` {
		t.Errorf("content cell = %q", rows[1][1])
	}
	if rows[1][7] != "call;support" {
		t.Errorf("tags cell = %q, want semicolon-joined", rows[1][7])
	}
}

func TestExportMemoryBank_UnknownFormat(t *testing.T) {
	svc := newTestService(t, nil, nil, service.Options{})

	if _, err := svc.ExportMemoryBank("", "", "yaml"); !errors.Is(err, service.ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown format, got %v", err)
	}
}

func TestExportMemoryBank_DefaultsToJSON(t *testing.T) {
	svc := seedExport(t)

	out, err := svc.ExportMemoryBank("svc", "", "")
	if err != nil {
		t.Fatalf("ExportMemoryBank error: %v", err)
	}
	if !json.Valid([]byte(out)) {
		t.Error("empty format should fall back to JSON")
	}
}
