// Package app assembles the application: configuration, model provider,
// tools, session store, orchestrator, and the Slack front end.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"

	"github.com/koopa0/scribe/internal/config"
	"github.com/koopa0/scribe/internal/content"
	"github.com/koopa0/scribe/internal/orchestrator"
	"github.com/koopa0/scribe/internal/policy"
	"github.com/koopa0/scribe/internal/security"
	"github.com/koopa0/scribe/internal/session"
	"github.com/koopa0/scribe/internal/slackbot"
	"github.com/koopa0/scribe/internal/tools"
)

// App holds the wired application components.
type App struct {
	Config       *config.Config
	Genkit       *genkit.Genkit
	Sessions     *session.Store
	Orchestrator *orchestrator.Orchestrator
	Bot          *slackbot.Bot
	Logger       *slog.Logger
}

// Setup creates and initializes the application.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	g, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	executor, registered, err := provideTools(g, cfg, logger)
	if err != nil {
		return nil, err
	}

	sessions := session.New(session.Config{
		Timeout:     cfg.SessionTimeout(),
		MaxMessages: cfg.SessionMaxMessages,
		Logger:      logger,
	})
	source := content.New(cfg.ProjectRoot, cfg.Partitions, cfg.ExcludeFiles, logger)
	access := policy.New(cfg.ChannelAccess)

	orch, err := orchestrator.New(orchestrator.Config{
		Genkit:        g,
		Sessions:      sessions,
		Content:       source,
		Policy:        access,
		Executor:      executor,
		Tools:         registered,
		Logger:        logger,
		ModelName:     cfg.FullModelName(),
		MaxToolRounds: cfg.MaxToolRounds,
	})
	if err != nil {
		return nil, fmt.Errorf("creating orchestrator: %w", err)
	}

	bot, err := slackbot.New(slackbot.Config{
		BotToken: cfg.SlackBotToken,
		AppToken: cfg.SlackAppToken,
		Turns:    orch,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating slack bot: %w", err)
	}

	toolNames := make([]string, len(registered))
	for i, tool := range registered {
		toolNames[i] = tool.Name()
	}
	logger.Info("application initialized",
		"provider", cfg.Provider,
		"model", cfg.FullModelName(),
		"project_root", cfg.ProjectRoot,
		"partitions", len(cfg.Partitions),
		"documents", source.CountVisible(),
		"tools", strings.Join(toolNames, ", "))

	return &App{
		Config:       cfg,
		Genkit:       g,
		Sessions:     sessions,
		Orchestrator: orch,
		Bot:          bot,
		Logger:       logger,
	}, nil
}

// Run connects to Slack and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	return a.Bot.Run(ctx)
}

// provideGenkit initializes Genkit with the configured AI provider.
// Supports gemini (default) and ollama.
func provideGenkit(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*genkit.Genkit, error) {
	var g *genkit.Genkit

	switch cfg.Provider {
	case config.ProviderOllama:
		ollamaPlugin := &ollama.Ollama{ServerAddress: cfg.OllamaHost}
		g = genkit.Init(ctx, genkit.WithPlugins(ollamaPlugin))
		if g == nil {
			return nil, errors.New("initializing genkit with ollama provider")
		}
		// Ollama requires explicit model registration (no auto-discovery)
		ollamaPlugin.DefineModel(g, ollama.ModelDefinition{
			Name: cfg.ModelName,
			Type: "chat",
		}, nil)
		logger.Info("initialized genkit with ollama provider",
			"model", cfg.ModelName, "host", cfg.OllamaHost)

	default: // gemini
		g = genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with gemini provider")
		}
		logger.Info("initialized genkit with gemini provider", "model", cfg.ModelName)
	}

	return g, nil
}

// provideTools builds the tool executor and registers the tool schemas.
func provideTools(g *genkit.Genkit, cfg *config.Config, logger *slog.Logger) (*tools.Executor, []ai.Tool, error) {
	paths, err := security.NewPath(cfg.ProjectRoot)
	if err != nil {
		return nil, nil, fmt.Errorf("creating path validator: %w", err)
	}
	editor, err := tools.NewEditor(paths, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("creating editor: %w", err)
	}
	history, err := tools.NewHistory(cfg.ProjectRoot, cfg.GitTimeout(), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("creating history: %w", err)
	}
	executor, err := tools.NewExecutor(editor, history, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("creating executor: %w", err)
	}
	registered, err := tools.Register(g, executor)
	if err != nil {
		return nil, nil, fmt.Errorf("registering tools: %w", err)
	}
	return executor, registered, nil
}
