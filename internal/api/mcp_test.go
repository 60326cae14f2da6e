package api

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/pluralign/prism/internal/cache"
	"github.com/pluralign/prism/internal/perspective"
	"github.com/pluralign/prism/internal/pipeline"
	"github.com/pluralign/prism/internal/selection"
	"github.com/pluralign/prism/internal/storage"
)

// --- helpers ---

func newTestMCPDeps(t *testing.T) (MCPDeps, *storage.Store) {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	c := cache.New(store, cache.DefaultTTL)
	gen := perspective.NewGenerator(stubCompleter{}, c)
	svc := pipeline.NewService(nil, gen, store, selection.DefaultMaxAdditional)

	return MCPDeps{
		Pipeline: svc,
		Cache:    c,
		Store:    store,
		Profiles: testProfiles,
	}, store
}

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

// --- tests ---

func TestMCPTool_GetPerspectives(t *testing.T) {
	deps, store := newTestMCPDeps(t)
	handler := mcpGetPerspectives(deps)

	req := makeCallToolRequest("get_perspectives", map[string]interface{}{
		"question": "Is it ethical to eat meat?",
		"user_id":  "U001",
	})

	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", toolText(t, result))
	}

	var resp pipeline.Response
	if err := json.Unmarshal([]byte(toolText(t, result)), &resp); err != nil {
		t.Fatalf("unmarshaling response: %v", err)
	}
	if !resp.SurfacedPerspectives {
		t.Error("expected perspectives for a food ethics question")
	}
	if resp.Baseline != "Hindu_progressive" {
		t.Errorf("Baseline = %q", resp.Baseline)
	}

	if _, err := store.GetInteraction(resp.InteractionID); err != nil {
		t.Errorf("interaction not persisted: %v", err)
	}
}

func TestMCPTool_GetPerspectives_InlineProfile(t *testing.T) {
	deps, _ := newTestMCPDeps(t)
	handler := mcpGetPerspectives(deps)

	req := makeCallToolRequest("get_perspectives", map[string]interface{}{
		"question":               "Should abortion be legal?",
		"primary_community":      "Catholic",
		"primary_community_type": "religious",
	})

	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", toolText(t, result))
	}

	var resp pipeline.Response
	json.Unmarshal([]byte(toolText(t, result)), &resp)
	if resp.Baseline != "Catholic" {
		t.Errorf("Baseline = %q", resp.Baseline)
	}
}

func TestMCPTool_GetPerspectives_MissingQuestion(t *testing.T) {
	deps, _ := newTestMCPDeps(t)
	handler := mcpGetPerspectives(deps)

	result, err := handler(context.Background(), makeCallToolRequest("get_perspectives", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error for missing question")
	}
}

func TestMCPTool_GetPerspectives_UnknownUser(t *testing.T) {
	deps, _ := newTestMCPDeps(t)
	handler := mcpGetPerspectives(deps)

	req := makeCallToolRequest("get_perspectives", map[string]interface{}{
		"question": "Is it ethical to eat meat?",
		"user_id":  "nobody",
	})
	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error for unknown user")
	}
}

func TestMCPTool_ClassifyQuery(t *testing.T) {
	handler := mcpClassifyQuery()

	req := makeCallToolRequest("classify_query", map[string]interface{}{
		"query": "Should abortion be legal?",
	})
	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", toolText(t, result))
	}

	var parsed struct {
		TopicCategory string `json:"topic_category"`
		Surface       bool   `json:"surface_perspectives"`
	}
	if err := json.Unmarshal([]byte(toolText(t, result)), &parsed); err != nil {
		t.Fatalf("unmarshaling classification: %v", err)
	}
	if parsed.TopicCategory != "reproductive_rights" {
		t.Errorf("topic = %q", parsed.TopicCategory)
	}
	if !parsed.Surface {
		t.Error("expected surface_perspectives true")
	}
}

func TestMCPTool_CacheStats(t *testing.T) {
	deps, _ := newTestMCPDeps(t)

	// Populate the cache by answering a question first.
	getHandler := mcpGetPerspectives(deps)
	getHandler(context.Background(), makeCallToolRequest("get_perspectives", map[string]interface{}{
		"question": "Is it ethical to eat meat?",
		"user_id":  "U001",
	}))

	handler := mcpCacheStats(deps)
	result, err := handler(context.Background(), makeCallToolRequest("cache_stats", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", toolText(t, result))
	}

	var stats storage.CacheStats
	if err := json.Unmarshal([]byte(toolText(t, result)), &stats); err != nil {
		t.Fatalf("unmarshaling stats: %v", err)
	}
	if stats.TotalEntries == 0 {
		t.Error("expected cache entries after answering")
	}
}

func TestMCPResource_Profiles(t *testing.T) {
	deps, _ := newTestMCPDeps(t)
	handler := mcpResourceProfiles(deps)

	contents, err := handler(context.Background(), makeReadResourceRequest("prism://profiles"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("got %d contents, want 1", len(contents))
	}

	text := contents[0].(mcp.TextResourceContents).Text
	var summaries []map[string]string
	if err := json.Unmarshal([]byte(text), &summaries); err != nil {
		t.Fatalf("unmarshaling profiles: %v", err)
	}
	if len(summaries) != 1 || summaries[0]["user_id"] != "U001" {
		t.Errorf("summaries = %v", summaries)
	}
}

func TestMCPResource_Recent(t *testing.T) {
	deps, _ := newTestMCPDeps(t)

	getHandler := mcpGetPerspectives(deps)
	getHandler(context.Background(), makeCallToolRequest("get_perspectives", map[string]interface{}{
		"question": "Is it ethical to eat meat?",
		"user_id":  "U001",
	}))

	handler := mcpResourceRecent(deps)
	contents, err := handler(context.Background(), makeReadResourceRequest("prism://recent"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := contents[0].(mcp.TextResourceContents).Text
	var summaries []map[string]any
	if err := json.Unmarshal([]byte(text), &summaries); err != nil {
		t.Fatalf("unmarshaling interactions: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("got %d interactions, want 1", len(summaries))
	}
	if summaries[0]["question"] != "Is it ethical to eat meat?" {
		t.Errorf("question = %v", summaries[0]["question"])
	}
}
