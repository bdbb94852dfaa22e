package critic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/HowardHan99/codesignbot-sub000/internal/board"
	"github.com/HowardHan99/codesignbot-sub000/internal/decision"
	"github.com/HowardHan99/codesignbot-sub000/internal/metrics"
	"github.com/HowardHan99/codesignbot-sub000/internal/textsim"
)

var (
	// ErrNoDecisions is returned when the board or frame holds no notes.
	ErrNoDecisions = errors.New("critic: no design decisions to critique")
	// ErrNoCritiques is returned by Themes when nothing has been critiqued yet.
	ErrNoCritiques = errors.New("critic: no critiques to group")
	// ErrEmptyResponse is returned when the model reply yields no points.
	ErrEmptyResponse = errors.New("critic: model returned no usable points")
)

// Store is the persistence the critic needs. *board.Store satisfies it.
type Store interface {
	DecisionInput(boardID, frame string) ([]decision.Note, []decision.Connection, error)
	SearchKnowledge(query string, limit int) ([]board.Knowledge, error)
	SaveCritique(p board.SaveCritiqueParams) (*board.Critique, error)
	ListCritiques(boardID, kind string, limit int) ([]board.Critique, error)
}

// Options configures a Service. Zero values select defaults.
type Options struct {
	// Merger deduplicates critique points. Default: weighted strategy.
	Merger *textsim.Merger
	// ThemeMerger deduplicates themes. Default: Jaccard strategy.
	ThemeMerger *textsim.Merger
	// Builder builds the decision forest sent to the model.
	Builder *decision.Builder
	// KnowledgeLimit caps the principles quoted in a critique prompt.
	KnowledgeLimit int
	// HistoryLimit caps how many past critiques feed Themes.
	HistoryLimit int
	Logger       *log.Logger
	Metrics      *metrics.Metrics
}

// Service runs critiques against a Completer and records the results.
type Service struct {
	store     Store
	completer Completer
	guard     *Guard
	opts      Options
	logger    *log.Logger
}

// NewService creates a Service.
func NewService(store Store, completer Completer, opts Options) *Service {
	if opts.Merger == nil {
		opts.Merger = textsim.NewMerger(textsim.WeightedSimilarityMerge, 0)
	}
	if opts.ThemeMerger == nil {
		opts.ThemeMerger = textsim.NewMerger(textsim.JaccardMerge, 0)
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Builder == nil {
		opts.Builder = decision.NewBuilder(nil, opts.Logger)
	}
	if opts.KnowledgeLimit <= 0 {
		opts.KnowledgeLimit = 5
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 20
	}
	return &Service{
		store:     store,
		completer: completer,
		guard:     NewGuard(),
		opts:      opts,
		logger:    opts.Logger.WithPrefix("critic"),
	}
}

// Critique asks the model to critique the decisions in frame (or the whole
// board when frame is empty), merges the reply into distinct points, and
// stores them. Concurrent runs for the same board fail with ErrBusy.
func (s *Service) Critique(ctx context.Context, boardID, frame string) (result *board.Critique, err error) {
	start := time.Now()
	defer func() { s.observe("critique", start, err) }()

	release, err := s.guard.Acquire(boardID)
	if err != nil {
		return nil, err
	}
	defer release()

	notes, conns, err := s.store.DecisionInput(boardID, frame)
	if err != nil {
		return nil, err
	}
	if len(notes) == 0 {
		return nil, ErrNoDecisions
	}
	forest := s.opts.Builder.Build(notes, conns)

	knowledge, err := s.store.SearchKnowledge(knowledgeQuery(notes), s.opts.KnowledgeLimit)
	if err != nil {
		// Critique still works without grounding.
		s.logger.Warn("knowledge search failed", "board", boardID, "err", err)
		knowledge = nil
	}

	raw, err := s.completer.Complete(ctx, critiqueSystemPrompt, buildCritiquePrompt(forest, knowledge))
	if err != nil {
		return nil, fmt.Errorf("critique board %s: %w", boardID, err)
	}

	points := textsim.SplitResponse(raw)
	merged := s.opts.Merger.Merge(points)
	s.opts.Metrics.ObserveMerge(string(s.opts.Merger.Strategy), len(points), len(merged))
	if len(merged) == 0 {
		return nil, ErrEmptyResponse
	}

	s.logger.Info("critique complete",
		"board", boardID, "frame", frame,
		"decisions", len(notes), "grounding", len(knowledge),
		"points", len(points), "merged", len(merged),
	)

	return s.store.SaveCritique(board.SaveCritiqueParams{
		BoardID:    boardID,
		Kind:       board.KindCritique,
		Frame:      frame,
		Strategy:   string(s.opts.Merger.Strategy),
		InputCount: len(points),
		Points:     merged,
	})
}

// Themes groups the points of the board's recent critiques into themes and
// stores them.
func (s *Service) Themes(ctx context.Context, boardID string) (result *board.Critique, err error) {
	start := time.Now()
	defer func() { s.observe("themes", start, err) }()

	release, err := s.guard.Acquire(boardID)
	if err != nil {
		return nil, err
	}
	defer release()

	history, err := s.store.ListCritiques(boardID, board.KindCritique, s.opts.HistoryLimit)
	if err != nil {
		return nil, err
	}
	var points []string
	for _, c := range history {
		points = append(points, c.Points...)
	}
	// Collapse repeats across runs before spending tokens on them.
	points = s.opts.Merger.Merge(points)
	if len(points) == 0 {
		return nil, ErrNoCritiques
	}

	raw, err := s.completer.Complete(ctx, themesSystemPrompt, buildThemesPrompt(points))
	if err != nil {
		return nil, fmt.Errorf("themes for board %s: %w", boardID, err)
	}

	themes := textsim.SplitResponse(raw)
	merged := s.opts.ThemeMerger.Merge(themes)
	s.opts.Metrics.ObserveMerge(string(s.opts.ThemeMerger.Strategy), len(themes), len(merged))
	if len(merged) == 0 {
		return nil, ErrEmptyResponse
	}

	s.logger.Info("themes complete", "board", boardID, "critiques", len(history), "points", len(points), "themes", len(merged))

	return s.store.SaveCritique(board.SaveCritiqueParams{
		BoardID:    boardID,
		Kind:       board.KindTheme,
		Strategy:   string(s.opts.ThemeMerger.Strategy),
		InputCount: len(points),
		Points:     merged,
	})
}

// Busy reports whether a run for boardID is in flight.
func (s *Service) Busy(boardID string) bool {
	return s.guard.Busy(boardID)
}

func (s *Service) observe(operation string, start time.Time, err error) {
	outcome := metrics.OutcomeOK
	switch {
	case err == nil:
	case errors.Is(err, ErrBusy):
		outcome = metrics.OutcomeBusy
	case errors.Is(err, ErrUnavailable):
		outcome = metrics.OutcomeOpen
	case errors.Is(err, context.DeadlineExceeded):
		outcome = metrics.OutcomeTimeout
	default:
		outcome = metrics.OutcomeError
	}
	if err != nil && !errors.Is(err, ErrBusy) {
		s.logger.Warn(operation+" failed", "err", err)
	}
	s.opts.Metrics.ObserveCritic(operation, outcome, time.Since(start))
}
