package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/jaakkos/brainstorm/internal/app"
	"github.com/jaakkos/brainstorm/internal/domain"
)

// formatRows renders one collection as a numbered list.
func formatRows(v app.View, c domain.Collection) string {
	cv, _ := v.Collection(c)
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d, %s)", cv.Label, len(cv.Rows), cv.Status)
	if cv.Error != "" {
		fmt.Fprintf(&b, "\nlast error: %s", cv.Error)
	}
	if len(cv.Rows) == 0 {
		b.WriteString("\n(no entries)")
	}
	for _, r := range cv.Rows {
		fmt.Fprintf(&b, "\n%d. %s [id: %s]", r.Position, r.Name, r.ID)
	}
	return b.String()
}

func registerListItems(s *server.MCPServer, disp *app.Dispatcher, logger *zap.SugaredLogger) {
	s.AddTool(
		mcp.NewTool("list_items",
			mcp.WithDescription("Re-read a reference list (technologies or team functions) from the store and show it sorted by name. Omit collection to list both."),
			mcp.WithString("collection", mcp.Description("Collection to list; omit for all"), collectionEnum()),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := req.GetArguments()
			var cols []domain.Collection
			if raw := optionalString(args, "collection", ""); raw != "" {
				c, err := domain.ParseCollection(raw)
				if err != nil {
					return nil, err
				}
				cols = []domain.Collection{c}
			} else {
				cols = domain.Collections()
			}

			var last app.Result
			for _, c := range cols {
				res, err := disp.Dispatch(ctx, app.Action{Kind: app.ActionRefresh, Collection: c})
				if err != nil {
					return nil, err
				}
				last = res
			}
			parts := make([]string, 0, len(cols))
			for _, c := range cols {
				parts = append(parts, formatRows(last.View, c))
			}
			logger.Debugf("list_items %v", cols)
			return mcp.NewToolResultText(strings.Join(parts, "\n\n")), nil
		},
	)
}

func registerAddItem(s *server.MCPServer, disp *app.Dispatcher, logger *zap.SugaredLogger) {
	s.AddTool(
		mcp.NewTool("add_item",
			mcp.WithDescription("Add an entry to a reference list. The list is re-read afterwards and returned."),
			mcp.WithString("collection", mcp.Required(), mcp.Description("Target collection"), collectionEnum()),
			mcp.WithString("name", mcp.Required(), mcp.Description("Display name of the new entry")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := req.GetArguments()
			c, err := requireCollection(args)
			if err != nil {
				return nil, err
			}
			name, err := requireString(args, "name")
			if err != nil {
				return nil, err
			}
			res, err := disp.Dispatch(ctx, app.Action{Kind: app.ActionAddItem, Collection: c, Name: name})
			if err != nil {
				return nil, err
			}
			logger.Infof("add_item %s %q", c, name)
			return mcp.NewToolResultText(fmt.Sprintf("Added %q (id: %s)\n\n%s", res.Item.Name, res.Item.ID, formatRows(res.View, c))), nil
		},
	)
}

func registerRenameItem(s *server.MCPServer, disp *app.Dispatcher, logger *zap.SugaredLogger) {
	s.AddTool(
		mcp.NewTool("rename_item",
			mcp.WithDescription("Rename an entry of a reference list by id. The list is re-read afterwards and returned."),
			mcp.WithString("collection", mcp.Required(), mcp.Description("Collection that holds the entry"), collectionEnum()),
			mcp.WithString("id", mcp.Required(), mcp.Description("Entry id as shown by list_items")),
			mcp.WithString("name", mcp.Required(), mcp.Description("New display name")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := req.GetArguments()
			c, err := requireCollection(args)
			if err != nil {
				return nil, err
			}
			id, err := requireString(args, "id")
			if err != nil {
				return nil, err
			}
			name, err := requireString(args, "name")
			if err != nil {
				return nil, err
			}
			res, err := disp.Dispatch(ctx, app.Action{Kind: app.ActionRenameItem, Collection: c, ID: id, Name: name})
			if err != nil {
				return nil, err
			}
			logger.Infof("rename_item %s %s -> %q", c, id, name)
			return mcp.NewToolResultText(fmt.Sprintf("Renamed %s\n\n%s", id, formatRows(res.View, c))), nil
		},
	)
}

func registerRemoveItem(s *server.MCPServer, disp *app.Dispatcher, logger *zap.SugaredLogger) {
	s.AddTool(
		mcp.NewTool("remove_item",
			mcp.WithDescription("Delete an entry of a reference list by id. The list is re-read afterwards and returned."),
			mcp.WithString("collection", mcp.Required(), mcp.Description("Collection that holds the entry"), collectionEnum()),
			mcp.WithString("id", mcp.Required(), mcp.Description("Entry id as shown by list_items")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := req.GetArguments()
			c, err := requireCollection(args)
			if err != nil {
				return nil, err
			}
			id, err := requireString(args, "id")
			if err != nil {
				return nil, err
			}
			res, err := disp.Dispatch(ctx, app.Action{Kind: app.ActionRemoveItem, Collection: c, ID: id})
			if err != nil {
				return nil, err
			}
			logger.Infof("remove_item %s %s", c, id)
			return mcp.NewToolResultText(fmt.Sprintf("Removed %s\n\n%s", id, formatRows(res.View, c))), nil
		},
	)
}
