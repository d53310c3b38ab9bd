package api

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kalambet/botanic/internal/collection"
	"github.com/kalambet/botanic/internal/media"
	"github.com/kalambet/botanic/internal/news"
	"github.com/kalambet/botanic/internal/workflow"
)

// --- helpers ---

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func makeCallToolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func makeReadResourceRequest(uri string) mcp.ReadResourceRequest {
	return mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func writeImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leaf.jpg")
	if err := os.WriteFile(path, []byte("\xff\xd8\xff\xe0fake jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// --- tests ---

func TestNewMCPServer_Registers(t *testing.T) {
	deps, _ := newTestDeps(t)
	if s := NewMCPServer(deps); s == nil {
		t.Fatal("NewMCPServer returned nil")
	}
}

func TestMCPTool_ListPlants(t *testing.T) {
	deps, store := newTestDeps(t)
	handler := mcpListPlants(deps)

	result, err := handler(context.Background(), makeCallToolRequest("list_plants", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := toolText(t, result); got != "[]" {
		t.Fatalf("empty collection = %s", got)
	}

	seedPlants(t, store, "Fern", "Ivy")
	result, _ = handler(context.Background(), makeCallToolRequest("list_plants", nil))
	var plants []collection.Plant
	if err := json.Unmarshal([]byte(toolText(t, result)), &plants); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(plants) != 2 || plants[0].Name != "Fern" {
		t.Errorf("plants = %+v", plants)
	}
}

func TestMCPTool_GetPlant(t *testing.T) {
	deps, store := newTestDeps(t)
	seeded := seedPlants(t, store, "Fern")
	handler := mcpGetPlant(deps)

	result, _ := handler(context.Background(), makeCallToolRequest("get_plant", map[string]interface{}{"id": seeded[0].ID}))
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}
	var p collection.Plant
	json.Unmarshal([]byte(toolText(t, result)), &p)
	if p != seeded[0] {
		t.Errorf("plant = %+v", p)
	}

	result, _ = handler(context.Background(), makeCallToolRequest("get_plant", map[string]interface{}{"id": "nope"}))
	if !result.IsError {
		t.Error("expected error for unknown id")
	}

	result, _ = handler(context.Background(), makeCallToolRequest("get_plant", nil))
	if !result.IsError {
		t.Error("expected error for missing id")
	}
}

func TestMCPTool_DeletePlant(t *testing.T) {
	deps, store := newTestDeps(t)
	seeded := seedPlants(t, store, "Fern", "Ivy")
	handler := mcpDeletePlant(deps)

	for _, id := range []string{seeded[0].ID, "unknown"} {
		result, err := handler(context.Background(), makeCallToolRequest("delete_plant", map[string]interface{}{"id": id}))
		if err != nil || result.IsError {
			t.Fatalf("delete %s: %v %v", id, err, result)
		}
	}
	plants, _ := store.ListPlants(context.Background())
	if len(plants) != 1 || plants[0].ID != seeded[1].ID {
		t.Errorf("remaining = %+v", plants)
	}
}

func TestMCPTool_IdentifyPlant(t *testing.T) {
	tests := []struct {
		name      string
		save      bool
		wantSaved int
	}{
		{"discard", false, 0},
		{"save", true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps, store := newTestDeps(t)
			path := writeImage(t)

			result, err := mcpIdentifyPlant(deps)(context.Background(), makeCallToolRequest("identify_plant", map[string]interface{}{
				"path": path,
				"save": tt.save,
			}))
			if err != nil || result.IsError {
				t.Fatalf("identify: %v %s", err, toolText(t, result))
			}
			var got identifyResponse
			if err := json.Unmarshal([]byte(toolText(t, result)), &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got.Candidate.Family != "Araceae" {
				t.Errorf("candidate = %+v", got.Candidate)
			}
			if !strings.HasSuffix(got.Image, "/leaf.jpg") {
				t.Errorf("image = %q", got.Image)
			}

			plants, _ := store.ListPlants(context.Background())
			if len(plants) != tt.wantSaved {
				t.Errorf("plants = %d, want %d", len(plants), tt.wantSaved)
			}
			images, _ := store.ListImageURIs(context.Background())
			if len(images) != 1 {
				t.Errorf("images = %v", images)
			}
		})
	}
}

func TestMCPTool_IdentifyPlant_Failures(t *testing.T) {
	deps, _ := newTestDeps(t)

	result, _ := mcpIdentifyPlant(deps)(context.Background(), makeCallToolRequest("identify_plant", map[string]interface{}{
		"path": filepath.Join(t.TempDir(), "missing.jpg"),
	}))
	if !result.IsError {
		t.Error("expected error for missing file")
	}

	deps.Pipeline = &mockRunner{err: workflow.ErrNoCandidates}
	result, _ = mcpIdentifyPlant(deps)(context.Background(), makeCallToolRequest("identify_plant", map[string]interface{}{
		"path": writeImage(t),
	}))
	if result.IsError || !strings.Contains(toolText(t, result), "No plant found") {
		t.Errorf("no candidates result = %+v", result)
	}
}

func TestMCPTool_IdentifyPlant_GalleryDisabled(t *testing.T) {
	tests := []struct {
		name  string
		perms media.Permissions
	}{
		{"policy denies gallery", media.Policy{AllowCamera: true}},
		{"no policy", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps, store := newTestDeps(t)
			deps.Permissions = tt.perms

			result, _ := mcpIdentifyPlant(deps)(context.Background(), makeCallToolRequest("identify_plant", map[string]interface{}{
				"path": writeImage(t),
				"save": true,
			}))
			if !result.IsError || !strings.Contains(toolText(t, result), "media.allow_gallery") {
				t.Errorf("result = %s", toolText(t, result))
			}
			if runner := deps.Pipeline.(*mockRunner); runner.gotURI != "" {
				t.Errorf("pipeline read %q", runner.gotURI)
			}
			plants, _ := store.ListPlants(context.Background())
			if len(plants) != 0 {
				t.Errorf("plants = %v", plants)
			}
		})
	}
}

func TestMCPTool_LatestNews(t *testing.T) {
	deps, _ := newTestDeps(t)
	src := &mockNews{items: []news.Item{{Title: "Roses"}, {Title: "Bulbs", Description: "Plant now"}}}
	deps.News = src

	result, _ := mcpLatestNews(deps)(context.Background(), makeCallToolRequest("latest_news", map[string]interface{}{"limit": 500}))
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}
	if src.gotN != 50 {
		t.Errorf("limit passed = %d, want capped at 50", src.gotN)
	}
	text := toolText(t, result)
	if !strings.Contains(text, news.NoDescription) || !strings.Contains(text, "Plant now") {
		t.Errorf("text = %s", text)
	}
}

func TestMCPResource_Collection(t *testing.T) {
	deps, store := newTestDeps(t)
	seedPlants(t, store, "Fern")

	contents, err := mcpResourceCollection(deps)(context.Background(), makeReadResourceRequest("plants://collection"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("contents = %d", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("expected TextResourceContents, got %T", contents[0])
	}
	if tc.URI != "plants://collection" || tc.MIMEType != "application/json" {
		t.Errorf("contents = %+v", tc)
	}
	var plants []collection.Plant
	if err := json.Unmarshal([]byte(tc.Text), &plants); err != nil || len(plants) != 1 {
		t.Errorf("plants = %v, err = %v", plants, err)
	}
}
