package app

import (
	"context"
	"testing"

	"github.com/firebase/genkit/go/genkit"

	"github.com/koopa0/scribe/internal/config"
	"github.com/koopa0/scribe/internal/log"
)

func TestSetupNilConfig(t *testing.T) {
	_, err := Setup(context.Background(), nil, log.NewNop())
	if err == nil {
		t.Fatal("Setup(nil config) = nil error, want error")
	}
}

func TestProvideTools(t *testing.T) {
	g := genkit.Init(context.Background())

	cfg := &config.Config{
		ProjectRoot: t.TempDir(),
	}
	executor, registered, err := provideTools(g, cfg, log.NewNop())
	if err != nil {
		t.Fatalf("provideTools: %v", err)
	}
	if executor == nil {
		t.Fatal("provideTools returned nil executor")
	}
	if len(registered) != 2 {
		t.Fatalf("registered %d tools, want 2", len(registered))
	}

	names := map[string]bool{}
	for _, tool := range registered {
		names[tool.Name()] = true
	}
	if !names["edit_document"] || !names["get_recent_history"] {
		t.Errorf("registered tools = %v", names)
	}
}

func TestProvideToolsBadRoot(t *testing.T) {
	g := genkit.Init(context.Background())

	cfg := &config.Config{ProjectRoot: ""}
	if _, _, err := provideTools(g, cfg, log.NewNop()); err == nil {
		t.Fatal("provideTools with empty root = nil error, want error")
	}
}
