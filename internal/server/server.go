// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates concrete implementations and
// injects them into the tools, prompts and resources that depend on them.
// No business logic lives here, only wiring.
package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/HowardHan99/codesignbot-sub000/internal/board"
	"github.com/HowardHan99/codesignbot-sub000/internal/boardtools"
	"github.com/HowardHan99/codesignbot-sub000/internal/config"
	"github.com/HowardHan99/codesignbot-sub000/internal/critic"
	"github.com/HowardHan99/codesignbot-sub000/internal/decision"
	"github.com/HowardHan99/codesignbot-sub000/internal/metrics"
	"github.com/HowardHan99/codesignbot-sub000/internal/prompts"
	"github.com/HowardHan99/codesignbot-sub000/internal/resources"
	"github.com/HowardHan99/codesignbot-sub000/internal/textsim"
)

// Version is set at build time via ldflags.
var Version = "dev"

// tool is what every boardtools handler provides.
type tool interface {
	Definition() mcp.Tool
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// Options carries optional collaborators. Zero values select defaults.
type Options struct {
	Logger  *log.Logger
	Metrics *metrics.Metrics
	// Completer overrides the provider built from cfg.Critic, mainly for tests.
	Completer critic.Completer
}

// New creates and configures the MCP server with all tools, prompts,
// and resources registered. This is the single place where all
// dependencies are resolved.
//
// The returned cleanup function closes the board store and stops the
// metrics listener. It is always non-nil and safe to call on error.
func New(cfg *config.Config, opts Options) (*server.MCPServer, func(), error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}

	// --- Create shared dependencies ---

	store, err := board.New(board.Config{
		DataDir: cfg.DataDir,
		KeyByID: cfg.Tree.KeyBy == "id",
		Logger:  logger.WithPrefix("board"),
	})
	if err != nil {
		return nil, noop, fmt.Errorf("opening board store: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cleanup := func() {
		cancel()
		if err := store.Close(); err != nil {
			logger.Warn("board store close", "err", err)
		}
	}

	if cfg.MetricsAddr != "" {
		go func() {
			logger.Info("serving metrics", "addr", cfg.MetricsAddr)
			if err := m.Serve(ctx, cfg.MetricsAddr); err != nil {
				logger.Error("metrics listener stopped", "err", err)
			}
		}()
	}

	// --- Create the MCP server ---

	completer, err := newCompleter(cfg, opts.Completer, logger)
	criticOn := err == nil
	if err != nil && !errors.Is(err, critic.ErrNoProvider) {
		cleanup()
		return nil, noop, err
	}

	s := server.NewMCPServer(
		"codesignbot",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions(criticOn)),
	)

	add := func(t tool) {
		def := t.Definition()
		s.AddTool(def, boardtools.Instrument(def.Name, m, t.Handle))
	}

	// --- Register board tools ---

	add(boardtools.NewCreateBoardTool(store))
	add(boardtools.NewListBoardsTool(store))
	add(boardtools.NewAddNoteTool(store))
	add(boardtools.NewDeleteNoteTool(store))
	add(boardtools.NewConnectTool(store))
	add(boardtools.NewDisconnectTool(store))
	add(boardtools.NewDecisionTreeTool(store))

	// --- Register point tools ---

	add(boardtools.NewMergePointsTool(boardtools.MergeSettings{
		Threshold:        cfg.Merge.Threshold,
		JaccardThreshold: cfg.Merge.JaccardThreshold,
	}, m))
	add(boardtools.NewSplitResponseTool())
	add(boardtools.NewSimilarityTool())
	add(boardtools.NewProcessPointTool())

	// --- Register knowledge and history tools ---

	add(boardtools.NewKnowledgeAddTool(store))
	add(boardtools.NewKnowledgeSearchTool(store))
	add(boardtools.NewHistoryTool(store))
	add(boardtools.NewStatsTool(store))

	// --- Register critic tools ---
	//
	// Only with a provider configured. Without one the host model writes
	// critiques itself and uses board_merge_points.

	if criticOn {
		var keyer decision.Keyer = decision.ContentKeyer{}
		if cfg.Tree.KeyBy == "id" {
			keyer = decision.IDKeyer{}
		}
		svc := critic.NewService(store, completer, critic.Options{
			Merger:      textsim.NewMerger(textsim.WeightedSimilarityMerge, cfg.Merge.Threshold),
			ThemeMerger: textsim.NewMerger(textsim.JaccardMerge, cfg.Merge.JaccardThreshold),
			Builder:     decision.NewBuilder(keyer, logger.WithPrefix("decision")),
			Logger:      logger,
			Metrics:     m,
		})
		add(boardtools.NewCritiqueTool(svc, cfg.Tree.DecisionFrame))
		add(boardtools.NewThemesTool(svc))
		logger.Info("critic enabled", "provider", cfg.Critic.Provider, "model", cfg.Critic.Model)
	} else {
		logger.Info("critic disabled, no provider configured")
	}

	// --- Register prompts ---

	critiquePrompt := prompts.NewCritiquePrompt(cfg.Tree.DecisionFrame, criticOn)
	s.AddPrompt(critiquePrompt.Definition(), critiquePrompt.Handle)

	statusPrompt := prompts.NewStatusPrompt()
	s.AddPrompt(statusPrompt.Definition(), statusPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(store)
	s.AddResource(resourceHandler.BoardsResource(), resourceHandler.HandleBoards)
	s.AddResource(resourceHandler.StatsResource(), resourceHandler.HandleStats)

	return s, cleanup, nil
}

// newCompleter returns override when set, otherwise the configured provider
// behind a circuit breaker. ErrNoProvider means the critic stays off.
func newCompleter(cfg *config.Config, override critic.Completer, logger *log.Logger) (critic.Completer, error) {
	if override == nil && !cfg.Critic.Enabled() {
		return nil, critic.ErrNoProvider
	}
	next := override
	if next == nil {
		c, err := critic.NewCompleter(critic.ProviderConfig{
			Provider:  cfg.Critic.Provider,
			Model:     cfg.Critic.Model,
			MaxTokens: cfg.Critic.MaxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("creating critic: %w", err)
		}
		next = c
	}

	bc := critic.DefaultBreakerConfig()
	if cfg.Critic.Timeout > 0 {
		bc.Timeout = cfg.Critic.Timeout
	}
	return critic.WithBreaker(next, bc, logger.WithPrefix("breaker")), nil
}

// noop is a no-op cleanup function returned alongside errors.
func noop() {}

// serverInstructions returns the system instructions that tell the AI
// how to use codesignbot.
func serverInstructions(criticOn bool) string {
	instructions := `You have access to codesignbot, a design critique assistant for whiteboard boards.

## Model

A board holds sticky notes, optionally grouped in named frames, and connectors
between notes. The notes in the decision frame (usually "Design Decisions")
and their connectors form a decision forest: each note nothing points to is a
root, and connectors lead from a decision to the decisions that follow from it.

## Workflow

1. Create or pick a board (board_create, board_list).
2. Mirror the canvas: board_add_note for each note with its frame, and
   board_connect for each connector. Connector ends name the note text
   (or note IDs when the server is configured to match by ID).
3. Inspect the structure with board_decision_tree before critiquing.
4. Ground critiques in principles: board_knowledge_add stores guidelines and
   research findings, board_knowledge_search retrieves them.

## Points

Critiques are lists of short points. Near-duplicates are noise:
- board_split_response turns a raw answer into points.
- board_merge_points collapses near-duplicates. Use the default 'weighted'
  strategy for critiques and 'jaccard' for themes.
- board_similarity explains why two points did or did not merge.
`
	if criticOn {
		instructions += `
## Critic

board_critique sends the decision tree and matching knowledge to the
configured model and stores the merged points; board_themes groups past
critiques into themes. Both refuse a second run on a board that is still
being processed; wait and retry. Past runs are in board_history.
`
	} else {
		instructions += `
## Critic

No model provider is configured, so write critiques yourself: read the tree,
search the knowledge base, write one concern per point, then merge them with
board_merge_points.
`
	}
	return instructions
}
