// Package testutil provides test doubles shared across packages.
package testutil

import (
	"context"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// ModelName is the provider-qualified name the scripted model registers as.
const ModelName = "mock/test-model"

// Step is one scripted model response. When ToolRequests is non-empty the
// response asks for those tool invocations; otherwise it is a plain text
// answer.
type Step struct {
	Text         string
	ToolRequests []*ai.ToolRequest
	Err          error
}

// ScriptedModel replays a fixed sequence of responses, one per call, which
// makes multi-round tool-use loops deterministic in tests. Calls past the
// end of the script return the final step again.
//
// Thread-safe for concurrent use.
type ScriptedModel struct {
	mu    sync.Mutex
	steps []Step
	calls []*ai.ModelRequest
}

// NewScriptedModel creates a model that replays the given steps in order.
func NewScriptedModel(steps ...Step) *ScriptedModel {
	return &ScriptedModel{steps: steps}
}

// Calls returns a copy of every request the model received.
func (m *ScriptedModel) Calls() []*ai.ModelRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]*ai.ModelRequest, len(m.calls))
	copy(cp, m.calls)
	return cp
}

// Register registers the scripted model with Genkit.
func (m *ScriptedModel) Register(g *genkit.Genkit) ai.Model {
	return genkit.DefineModel(g, ModelName, &ai.ModelOptions{
		Label: "Scripted Test Model",
		Supports: &ai.ModelSupports{
			Multiturn:  true,
			Tools:      true,
			SystemRole: true,
		},
	}, m.generate)
}

// generate is the Genkit model function.
func (m *ScriptedModel) generate(_ context.Context, req *ai.ModelRequest, _ ai.ModelStreamCallback) (*ai.ModelResponse, error) {
	m.mu.Lock()
	idx := len(m.calls)
	m.calls = append(m.calls, req)
	if idx >= len(m.steps) {
		idx = len(m.steps) - 1
	}
	var step Step
	if idx >= 0 {
		step = m.steps[idx]
	}
	m.mu.Unlock()

	if step.Err != nil {
		return nil, step.Err
	}

	var parts []*ai.Part
	for _, tr := range step.ToolRequests {
		parts = append(parts, &ai.Part{
			Kind:        ai.PartToolRequest,
			ToolRequest: tr,
		})
	}
	if step.Text != "" || len(parts) == 0 {
		parts = append(parts, ai.NewTextPart(step.Text))
	}

	return &ai.ModelResponse{
		Request: req,
		Message: &ai.Message{
			Role:    ai.RoleModel,
			Content: parts,
		},
	}, nil
}
