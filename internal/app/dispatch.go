package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jaakkos/brainstorm/internal/domain"
	"github.com/jaakkos/brainstorm/internal/prompt"
)

// ActionKind names an observable user action.
type ActionKind string

const (
	ActionRefresh     ActionKind = "refresh"
	ActionAddItem     ActionKind = "add-item"
	ActionRenameItem  ActionKind = "rename-item"
	ActionRemoveItem  ActionKind = "remove-item"
	ActionBuildPrompt ActionKind = "build-prompt"
	ActionGenerate    ActionKind = "generate"
)

var (
	// ErrUnknownAction is returned for an action kind with no handler.
	ErrUnknownAction = errors.New("unknown action")
	// ErrGenerationDisabled is returned by generate when no generator is configured.
	ErrGenerationDisabled = errors.New("text generation is not configured")
)

// Generator sends a prompt to the generative text endpoint.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GenerationError carries a generator failure. Its message is the generator's, verbatim.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string { return e.Err.Error() }
func (e *GenerationError) Unwrap() error { return e.Err }

// Action is one user action with its arguments. Unused fields are ignored.
type Action struct {
	Kind       ActionKind        `json:"action"`
	Collection domain.Collection `json:"collection,omitempty"`
	ID         string            `json:"id,omitempty"`
	Name       string            `json:"name,omitempty"`
	Selection  prompt.Selection  `json:"selection"`
}

// Result is the re-rendered view after an action, plus action-specific output.
type Result struct {
	View   View                  `json:"view"`
	Item   *domain.ReferenceItem `json:"item,omitempty"`
	Prompt string                `json:"prompt,omitempty"`
	Output string                `json:"output,omitempty"`
}

type actionHandler func(ctx context.Context, a Action) (Result, error)

// Dispatcher routes user actions to state transitions. The HTTP API, the MCP tools
// and the CLI all go through it.
type Dispatcher struct {
	svc      *CatalogService
	gen      Generator
	logger   *zap.SugaredLogger
	handlers map[ActionKind]actionHandler
}

// NewDispatcher builds the dispatch table. gen may be nil to disable generation.
func NewDispatcher(svc *CatalogService, gen Generator, logger *zap.SugaredLogger) *Dispatcher {
	d := &Dispatcher{svc: svc, gen: gen, logger: logger}
	d.handlers = map[ActionKind]actionHandler{
		ActionRefresh:     d.refresh,
		ActionAddItem:     d.addItem,
		ActionRenameItem:  d.renameItem,
		ActionRemoveItem:  d.removeItem,
		ActionBuildPrompt: d.buildPrompt,
		ActionGenerate:    d.generate,
	}
	return d
}

// Service returns the underlying catalog service.
func (d *Dispatcher) Service() *CatalogService { return d.svc }

// GenerationEnabled reports whether generate can succeed.
func (d *Dispatcher) GenerationEnabled() bool { return d.gen != nil }

// Dispatch runs a. The returned Result always carries the current view, also on error.
func (d *Dispatcher) Dispatch(ctx context.Context, a Action) (Result, error) {
	h, ok := d.handlers[a.Kind]
	if !ok {
		return Result{View: d.svc.View()}, fmt.Errorf("%w: %q", ErrUnknownAction, a.Kind)
	}
	d.logger.Debugf("Dispatch %s collection=%s id=%s", a.Kind, a.Collection, a.ID)
	res, err := h(ctx, a)
	res.View = d.svc.View()
	return res, err
}

func (d *Dispatcher) refresh(ctx context.Context, a Action) (Result, error) {
	if a.Collection == "" {
		return Result{}, d.svc.RefreshAll(ctx)
	}
	_, err := d.svc.Refresh(ctx, a.Collection)
	return Result{}, err
}

func (d *Dispatcher) addItem(ctx context.Context, a Action) (Result, error) {
	item, err := d.svc.Add(ctx, a.Collection, a.Name)
	if item.ID == "" {
		return Result{}, err
	}
	return Result{Item: &item}, err
}

func (d *Dispatcher) renameItem(ctx context.Context, a Action) (Result, error) {
	return Result{}, d.svc.Rename(ctx, a.Collection, a.ID, a.Name)
}

func (d *Dispatcher) removeItem(ctx context.Context, a Action) (Result, error) {
	return Result{}, d.svc.Remove(ctx, a.Collection, a.ID)
}

func (d *Dispatcher) buildPrompt(_ context.Context, a Action) (Result, error) {
	p, err := prompt.Build(a.Selection)
	return Result{Prompt: p}, err
}

func (d *Dispatcher) generate(ctx context.Context, a Action) (Result, error) {
	p, err := prompt.Build(a.Selection)
	if err != nil {
		return Result{}, err
	}
	if d.gen == nil {
		return Result{Prompt: p}, ErrGenerationDisabled
	}
	out, err := d.gen.Generate(ctx, p)
	if err != nil {
		d.logger.Warnf("Generate failed: %v", err)
		return Result{Prompt: p}, &GenerationError{Err: err}
	}
	return Result{Prompt: p, Output: out}, nil
}
