package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/logging"
	"github.com/hupe1980/agentchat/model"
)

// Registry maps function names to tools.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	logger logging.Logger
}

// NewRegistry creates a registry holding tools.
func NewRegistry(logger logging.Logger, tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(tools)), logger: logging.OrNoOp(logger)}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

// Register adds or replaces a tool.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

// Get looks up a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Definitions returns the tool definitions sorted by name.
func (r *Registry) Definitions() []model.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]model.ToolDefinition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Function.Name < defs[j].Function.Name })
	return defs
}

// Execute runs the function call. Panics inside the tool are recovered and
// reported as EXECUTION_ERROR.
func (r *Registry) Execute(ctx context.Context, fc core.FunctionCall) (result any, err error) {
	impl, ok := r.Get(fc.Name)
	if !ok {
		return nil, NewToolError(fc.Name, fmt.Sprintf("Function %s not found.", fc.Name), CodeNotFound)
	}

	args := map[string]any{}
	if fc.Arguments != "" {
		if err := json.Unmarshal([]byte(fc.Arguments), &args); err != nil {
			return nil, NewToolError(fc.Name, fmt.Sprintf("invalid arguments: %v", err), CodeValidation)
		}
	}

	start := time.Now()
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Error("tool.call.panic", "tool", fc.Name, "recover", rec, "stack", string(debug.Stack()))
				err = NewToolError(fc.Name, fmt.Sprintf("panic: %v", rec), CodeExecution)
			}
		}()
		result, err = impl.Call(ctx, args)
	}()

	r.logger.Info("tool.call.executed", "tool", fc.Name, "fc_id", fc.ID, "duration_ms", time.Since(start).Milliseconds(), "error", err != nil)
	return result, err
}

// Call executes fc and renders the outcome as a function role message.
// Failures become "Error: <message>" content instead of Go errors.
func (r *Registry) Call(ctx context.Context, fc core.FunctionCall) core.Message {
	result, err := r.Execute(ctx, fc)
	if err != nil {
		return core.NewFunctionMessage(fc.Name, fc.ID, "Error: "+errorText(err))
	}
	return core.NewFunctionMessage(fc.Name, fc.ID, FormatResult(result))
}

// FormatResult renders a tool result as message content: strings verbatim,
// everything else as JSON.
func FormatResult(result any) string {
	switch v := result.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	}
	b, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf("%v", result)
	}
	return string(b)
}

func errorText(err error) string {
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return toolErr.Message
	}
	return err.Error()
}
