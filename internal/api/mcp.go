package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/pluralign/prism/internal/cache"
	"github.com/pluralign/prism/internal/controversy"
	"github.com/pluralign/prism/internal/pipeline"
	"github.com/pluralign/prism/internal/selection"
	"github.com/pluralign/prism/internal/storage"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Pipeline *pipeline.Service
	Cache    *cache.Cache
	Store    *storage.Store
	Profiles []selection.UserProfile
}

// NewMCPServer creates an MCP server exposing perspective generation,
// controversy classification, and cache diagnostics as tools.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"prism",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("prism: community-perspective answers for controversial questions."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("get_perspectives",
			mcp.WithDescription("Answer a question with perspectives from the user's community and relevant counterpoint communities."),
			mcp.WithString("question", mcp.Description("The question to answer"), mcp.Required()),
			mcp.WithString("user_id", mcp.Description("Dataset user ID to answer for")),
			mcp.WithString("primary_community", mcp.Description("Primary community when no user_id is given")),
			mcp.WithString("primary_community_type", mcp.Description("Type of the primary community: religious, secular, political, identity, professional")),
		),
		mcpGetPerspectives(deps),
	)

	s.AddTool(
		mcp.NewTool("classify_query",
			mcp.WithDescription("Classify how controversial a query is along religious, political, and regional dimensions."),
			mcp.WithString("query", mcp.Description("The query to classify"), mcp.Required()),
		),
		mcpClassifyQuery(),
	)

	s.AddTool(
		mcp.NewTool("cache_stats",
			mcp.WithDescription("Report perspective cache statistics: entry count, hits, and top communities."),
		),
		mcpCacheStats(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"prism://profiles",
			"User Profiles",
			mcp.WithResourceDescription("Known user profiles as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceProfiles(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"prism://recent",
			"Recent Interactions",
			mcp.WithResourceDescription("Last 10 answered questions (summaries only)"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceRecent(deps),
	)

	return s
}

func mcpGetPerspectives(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := req.RequireString("question")
		if err != nil {
			return mcpError("question is required"), nil
		}

		ask := AskRequest{
			UserID:   req.GetString("user_id", ""),
			Question: question,
		}
		if primary := req.GetString("primary_community", ""); primary != "" {
			ask.Profile = &AskProfile{
				PrimaryCommunity:     primary,
				PrimaryCommunityType: req.GetString("primary_community_type", ""),
			}
		}

		user, err := resolveUser(deps.Profiles, ask)
		if err != nil {
			return mcpError(err.Error()), nil
		}

		resp, err := deps.Pipeline.Answer(ctx, user, question)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to answer: %v", err)), nil
		}

		b, err := json.Marshal(resp)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal response: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpClassifyQuery() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcpError("query is required"), nil
		}

		profile, topic := controversy.Classify(query)

		b, err := json.Marshal(map[string]any{
			"profile":              profile,
			"topic_category":       topic,
			"surface_perspectives": profile.ShouldSurfacePerspectives(),
		})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal classification: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpCacheStats(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		stats, err := deps.Cache.Stats()
		if err != nil {
			return mcpError(fmt.Sprintf("failed to gather cache stats: %v", err)), nil
		}

		b, err := json.Marshal(stats)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal stats: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceProfiles(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		type profileSummary struct {
			UserID    string `json:"user_id"`
			Primary   string `json:"primary_community"`
			Secondary string `json:"secondary_community,omitempty"`
			Tertiary  string `json:"tertiary_community,omitempty"`
		}

		summaries := make([]profileSummary, len(deps.Profiles))
		for i, p := range deps.Profiles {
			summaries[i] = profileSummary{
				UserID:    p.UserID,
				Primary:   p.PrimaryCommunity,
				Secondary: p.SecondaryCommunity,
				Tertiary:  p.TertiaryCommunity,
			}
		}

		b, err := json.Marshal(summaries)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal profiles: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpResourceRecent(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		interactions, err := deps.Store.ListInteractions(10, "")
		if err != nil {
			return nil, fmt.Errorf("failed to list interactions: %w", err)
		}

		type interactionSummary struct {
			ID        string `json:"id"`
			CreatedAt string `json:"created_at"`
			Question  string `json:"question"`
			Surfaced  bool   `json:"surfaced_perspectives"`
		}

		summaries := make([]interactionSummary, len(interactions))
		for i, ix := range interactions {
			question := ix.Question
			if utf8.RuneCountInString(question) > 200 {
				runes := []rune(question)
				question = string(runes[:200]) + "..."
			}
			summaries[i] = interactionSummary{
				ID:        ix.ID,
				CreatedAt: ix.CreatedAt.Format(time.RFC3339),
				Question:  question,
				Surfaced:  ix.SurfacedPerspectives,
			}
		}

		b, err := json.Marshal(summaries)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal interactions: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
