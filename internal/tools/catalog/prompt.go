package catalog

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/jaakkos/brainstorm/internal/app"
	"github.com/jaakkos/brainstorm/internal/domain"
	"github.com/jaakkos/brainstorm/internal/prompt"
)

func selectionOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("technology", mcp.Required(), mcp.Description("Technology name, usually one from list_items")),
		mcp.WithString("team_function", mcp.Required(), mcp.Description("Team function name, usually one from list_items")),
		mcp.WithString("priority", mcp.Description("Priority (default: medium)"), mcp.Enum(domain.Priorities...)),
		mcp.WithString("kind", mcp.Description("Kind of backlog item (default: feature)"), mcp.Enum(domain.ItemKinds...)),
		mcp.WithNumber("count", mcp.Description("Number of items to suggest, 1-20 (default: 5)")),
		mcp.WithString("context", mcp.Description("Free-form extra context for the generator")),
	}
}

func selectionFrom(args map[string]any) (prompt.Selection, error) {
	tech, err := requireString(args, "technology")
	if err != nil {
		return prompt.Selection{}, err
	}
	team, err := requireString(args, "team_function")
	if err != nil {
		return prompt.Selection{}, err
	}
	return prompt.Selection{
		Technology:   tech,
		TeamFunction: team,
		Priority:     optionalString(args, "priority", ""),
		Kind:         optionalString(args, "kind", ""),
		Count:        int(optionalFloat64(args, "count", 0)),
		Context:      optionalString(args, "context", ""),
	}, nil
}

func registerBuildPrompt(s *server.MCPServer, disp *app.Dispatcher, logger *zap.SugaredLogger) {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Build the backlog brainstorming prompt from a selection without calling the generator."),
	}, selectionOptions()...)
	s.AddTool(
		mcp.NewTool("build_prompt", opts...),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			sel, err := selectionFrom(req.GetArguments())
			if err != nil {
				return nil, err
			}
			res, err := disp.Dispatch(ctx, app.Action{Kind: app.ActionBuildPrompt, Selection: sel})
			if err != nil {
				return nil, err
			}
			logger.Debugf("build_prompt %s/%s", sel.Technology, sel.TeamFunction)
			return mcp.NewToolResultText(res.Prompt), nil
		},
	)
}

func registerGenerateBacklog(s *server.MCPServer, disp *app.Dispatcher, logger *zap.SugaredLogger) {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Build the prompt from a selection and send it to the generative text endpoint. Returns the generated backlog items."),
	}, selectionOptions()...)
	s.AddTool(
		mcp.NewTool("generate_backlog", opts...),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			sel, err := selectionFrom(req.GetArguments())
			if err != nil {
				return nil, err
			}
			res, err := disp.Dispatch(ctx, app.Action{Kind: app.ActionGenerate, Selection: sel})
			var genErr *app.GenerationError
			switch {
			case errors.As(err, &genErr):
				// Endpoint failures are tool results, not protocol errors.
				return mcp.NewToolResultError(genErr.Error()), nil
			case errors.Is(err, app.ErrGenerationDisabled):
				return mcp.NewToolResultError(err.Error() + "; prompt follows\n\n" + res.Prompt), nil
			case err != nil:
				return nil, err
			}
			logger.Infof("generate_backlog %s/%s: %d bytes", sel.Technology, sel.TeamFunction, len(res.Output))
			return mcp.NewToolResultText(res.Output), nil
		},
	)
}
