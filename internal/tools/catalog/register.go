// Package catalog exposes the reference lists and the backlog generator as MCP tools.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/jaakkos/brainstorm/internal/app"
	"github.com/jaakkos/brainstorm/internal/domain"
)

// Register adds the catalog tools and one read-only resource per collection.
func Register(s *server.MCPServer, disp *app.Dispatcher, logger *zap.SugaredLogger) {
	registerListItems(s, disp, logger)
	registerAddItem(s, disp, logger)
	registerRenameItem(s, disp, logger)
	registerRemoveItem(s, disp, logger)
	registerBuildPrompt(s, disp, logger)
	registerGenerateBacklog(s, disp, logger)
	registerResources(s, disp, logger)
}

func collectionEnum() mcp.PropertyOption {
	names := make([]string, 0, len(domain.Collections()))
	for _, c := range domain.Collections() {
		names = append(names, string(c))
	}
	return mcp.Enum(names...)
}

func registerResources(s *server.MCPServer, disp *app.Dispatcher, logger *zap.SugaredLogger) {
	for _, c := range domain.Collections() {
		col := c
		uri := fmt.Sprintf("brainstorm://collections/%s", col)
		s.AddResource(
			mcp.NewResource(uri, col.Label(),
				mcp.WithResourceDescription(fmt.Sprintf("Current %s mirror as JSON (items, status, last error).", col.Label())),
				mcp.WithMIMEType("application/json"),
			),
			func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
				logger.Debugf("Resource read: %s", uri)
				m := disp.Service().Mirror(col)
				data, err := json.MarshalIndent(m, "", "  ")
				if err != nil {
					return nil, err
				}
				return []mcp.ResourceContents{
					mcp.TextResourceContents{URI: req.Params.URI, MIMEType: "application/json", Text: string(data)},
				}, nil
			},
		)
	}
}
