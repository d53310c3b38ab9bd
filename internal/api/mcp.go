package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/botanic/internal/collection"
	"github.com/kalambet/botanic/internal/media"
	"github.com/kalambet/botanic/internal/workflow"
)

// NewMCPServer creates an MCP server with the botanic tools and resources registered.
func NewMCPServer(deps AppDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"botanic",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("botanic: identify plants from photos and manage a local plant collection."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("list_plants",
			mcp.WithDescription("List every saved plant in the order it was saved."),
		),
		mcpListPlants(deps),
	)

	s.AddTool(
		mcp.NewTool("get_plant",
			mcp.WithDescription("Return one saved plant by id."),
			mcp.WithString("id", mcp.Description("Plant id"), mcp.Required()),
		),
		mcpGetPlant(deps),
	)

	s.AddTool(
		mcp.NewTool("delete_plant",
			mcp.WithDescription("Remove a saved plant. Unknown ids are ignored."),
			mcp.WithString("id", mcp.Description("Plant id"), mcp.Required()),
		),
		mcpDeletePlant(deps),
	)

	s.AddTool(
		mcp.NewTool("identify_plant",
			mcp.WithDescription("Identify the plant in a local image file and generate care notes."),
			mcp.WithString("path", mcp.Description("Path to a JPEG or PNG photo"), mcp.Required()),
			mcp.WithBoolean("save", mcp.Description("Save the result to the collection (default false)")),
		),
		mcpIdentifyPlant(deps),
	)

	s.AddTool(
		mcp.NewTool("latest_news",
			mcp.WithDescription("Recent gardening articles from the configured feeds."),
			mcp.WithNumber("limit", mcp.Description("Maximum number of articles (default 10)")),
		),
		mcpLatestNews(deps),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"plants://collection",
			"Plant Collection",
			mcp.WithResourceDescription("All saved plants as a JSON array"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceCollection(deps),
	)

	return s
}

func mcpListPlants(deps AppDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		plants, err := deps.Store.ListPlants(ctx)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to list plants: %v", err)), nil
		}
		if plants == nil {
			plants = []collection.Plant{}
		}
		return mcpJSON(plants), nil
	}
}

func mcpGetPlant(deps AppDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcpError("id is required"), nil
		}

		plants, err := deps.Store.ListPlants(ctx)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to list plants: %v", err)), nil
		}
		for _, p := range plants {
			if p.ID == id {
				return mcpJSON(p), nil
			}
		}
		return mcpError(fmt.Sprintf("plant %s not found", id)), nil
	}
}

func mcpDeletePlant(deps AppDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcpError("id is required"), nil
		}
		if err := deps.Store.DeletePlant(ctx, id); err != nil {
			return mcpError(fmt.Sprintf("failed to delete plant: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Deleted plant %s", id)), nil
	}
}

func mcpIdentifyPlant(deps AppDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := req.RequireString("path")
		if err != nil {
			return mcpError("path is required"), nil
		}

		decide := workflow.Never
		if req.GetBool("save", false) {
			decide = workflow.Always
		}

		res, err := identifyPicked(ctx, deps, media.NewFilePicker(path, "", deps.DataDir), decide)
		switch {
		case errors.Is(err, workflow.ErrPermissionDenied):
			return mcpError("gallery access is disabled (media.allow_gallery)"), nil
		case errors.Is(err, media.ErrCancelled):
			return mcpError(fmt.Sprintf("no image at %s", path)), nil
		case errors.Is(err, workflow.ErrNoCandidates):
			return mcpText("No plant found in the image."), nil
		case err != nil:
			return mcpError(fmt.Sprintf("identification failed: %v", err)), nil
		}
		return mcpJSON(res), nil
	}
}

func mcpLatestNews(deps AppDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if deps.News == nil {
			return mcpError("news is not configured"), nil
		}
		limit := req.GetInt("limit", 10)
		if limit <= 0 {
			limit = 10
		}
		if limit > 50 {
			limit = 50
		}

		items, err := deps.News.Latest(ctx, deps.Feeds, limit)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to fetch news: %v", err)), nil
		}

		type article struct {
			Title       string `json:"title"`
			Link        string `json:"link"`
			Published   string `json:"published,omitempty"`
			Description string `json:"description"`
		}
		out := make([]article, len(items))
		for i, it := range items {
			out[i] = article{Title: it.Title, Link: it.Link, Description: it.Summary()}
			if !it.Published.IsZero() {
				out[i].Published = it.Published.Format(time.DateOnly)
			}
		}
		return mcpJSON(out), nil
	}
}

func mcpResourceCollection(deps AppDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		plants, err := deps.Store.ListPlants(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list plants: %w", err)
		}
		if plants == nil {
			plants = []collection.Plant{}
		}

		b, err := json.Marshal(plants)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal plants: %w", err)
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

func mcpJSON(v any) *mcp.CallToolResult {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err))
	}
	return mcpText(string(b))
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
