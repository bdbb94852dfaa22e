package boardtools

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/HowardHan99/codesignbot-sub000/internal/board"
	"github.com/HowardHan99/codesignbot-sub000/internal/critic"
	"github.com/HowardHan99/codesignbot-sub000/internal/decision"
	"github.com/HowardHan99/codesignbot-sub000/internal/metrics"
)

// ─── Test helpers ────────────────────────────────────────────────────────────

// newTestStore creates a board.Store in a temp directory for testing.
func newTestStore(t *testing.T) *board.Store {
	t.Helper()
	store, err := board.New(board.Config{
		DataDir:          t.TempDir(),
		MaxSearchResults: 20,
		Logger:           log.New(io.Discard),
	})
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// newTestBoard creates a board and returns its ID.
func newTestBoard(t *testing.T, store *board.Store) string {
	t.Helper()
	b, err := store.CreateBoard("Checkout redesign")
	if err != nil {
		t.Fatalf("create board: %v", err)
	}
	return b.ID
}

// makeReq builds a mcp.CallToolRequest with the given arguments.
func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// resultText extracts the text content from a tool result.
func resultText(r *mcp.CallToolResult) string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// call runs handle and fails the test on a Go error.
func call(t *testing.T, handle func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	res, err := handle(context.Background(), makeReq(args))
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	if res == nil {
		t.Fatal("nil result")
	}
	return res
}

// ─── Definitions ─────────────────────────────────────────────────────────────

func TestDefinitions(t *testing.T) {
	store := newTestStore(t)
	svc := critic.NewService(store, critic.CompleterFunc(nil), critic.Options{Logger: log.New(io.Discard)})

	defs := map[string]mcp.Tool{
		"board_create":           NewCreateBoardTool(store).Definition(),
		"board_list":             NewListBoardsTool(store).Definition(),
		"board_add_note":         NewAddNoteTool(store).Definition(),
		"board_delete_note":      NewDeleteNoteTool(store).Definition(),
		"board_connect":          NewConnectTool(store).Definition(),
		"board_disconnect":       NewDisconnectTool(store).Definition(),
		"board_decision_tree":    NewDecisionTreeTool(store).Definition(),
		"board_merge_points":     NewMergePointsTool(MergeSettings{}, nil).Definition(),
		"board_split_response":   NewSplitResponseTool().Definition(),
		"board_similarity":       NewSimilarityTool().Definition(),
		"board_process_point":    NewProcessPointTool().Definition(),
		"board_knowledge_add":    NewKnowledgeAddTool(store).Definition(),
		"board_knowledge_search": NewKnowledgeSearchTool(store).Definition(),
		"board_history":          NewHistoryTool(store).Definition(),
		"board_stats":            NewStatsTool(store).Definition(),
		"board_critique":         NewCritiqueTool(svc, "Design Decisions").Definition(),
		"board_themes":           NewThemesTool(svc).Definition(),
	}
	for want, def := range defs {
		if def.Name != want {
			t.Errorf("definition name = %q, want %q", def.Name, want)
		}
		if def.Description == "" {
			t.Errorf("%s: empty description", want)
		}
	}

	required := NewConnectTool(store).Definition().InputSchema.Required
	if len(required) != 3 {
		t.Errorf("board_connect required = %v, want board_id, from, to", required)
	}
}

// ─── Boards ──────────────────────────────────────────────────────────────────

func TestCreateAndListBoards(t *testing.T) {
	store := newTestStore(t)
	list := NewListBoardsTool(store)

	res := call(t, list.Handle, nil)
	if !strings.Contains(resultText(res), "No boards yet") {
		t.Errorf("empty list = %q", resultText(res))
	}

	res = call(t, NewCreateBoardTool(store).Handle, map[string]interface{}{"name": "Checkout"})
	if res.IsError {
		t.Fatalf("create failed: %s", resultText(res))
	}
	if !strings.Contains(resultText(res), "Board ID:") {
		t.Errorf("create result missing ID: %q", resultText(res))
	}

	res = call(t, list.Handle, nil)
	text := resultText(res)
	if !strings.Contains(text, "Boards (1)") || !strings.Contains(text, "**Checkout**") {
		t.Errorf("list = %q", text)
	}
}

func TestCreateBoard_RequiresName(t *testing.T) {
	res := call(t, NewCreateBoardTool(newTestStore(t)).Handle, map[string]interface{}{"name": "  "})
	if !res.IsError {
		t.Error("expected error for blank name")
	}
}

// ─── Notes ───────────────────────────────────────────────────────────────────

func TestAddNote(t *testing.T) {
	store := newTestStore(t)
	boardID := newTestBoard(t, store)
	tool := NewAddNoteTool(store)

	res := call(t, tool.Handle, map[string]interface{}{
		"board_id": boardID,
		"note_id":  "n1",
		"frame":    "Design Decisions",
		"content":  "<p>Use a single-page checkout</p>",
	})
	if res.IsError {
		t.Fatalf("add note failed: %s", resultText(res))
	}
	if !strings.Contains(resultText(res), `Note n1 placed in frame "Design Decisions"`) {
		t.Errorf("result = %q", resultText(res))
	}

	n, err := store.GetNote(boardID, "n1")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if n.Frame != "Design Decisions" {
		t.Errorf("frame = %q", n.Frame)
	}
}

func TestAddNote_Errors(t *testing.T) {
	store := newTestStore(t)
	tool := NewAddNoteTool(store)

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"missing board", map[string]interface{}{"content": "x"}},
		{"missing content", map[string]interface{}{"board_id": "b"}},
		{"unknown board", map[string]interface{}{"board_id": "nope", "content": "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if res := call(t, tool.Handle, tt.args); !res.IsError {
				t.Errorf("expected error, got %q", resultText(res))
			}
		})
	}
}

func TestDeleteNote(t *testing.T) {
	store := newTestStore(t)
	boardID := newTestBoard(t, store)
	if _, err := store.AddNote(board.AddNoteParams{BoardID: boardID, ID: "n1", Content: "A"}); err != nil {
		t.Fatalf("AddNote: %v", err)
	}
	tool := NewDeleteNoteTool(store)

	res := call(t, tool.Handle, map[string]interface{}{"board_id": boardID, "note_id": "n1"})
	if res.IsError {
		t.Fatalf("delete failed: %s", resultText(res))
	}
	if _, err := store.GetNote(boardID, "n1"); !errors.Is(err, board.ErrNotFound) {
		t.Errorf("note still live: %v", err)
	}

	res = call(t, tool.Handle, map[string]interface{}{"board_id": boardID, "note_id": "n1"})
	if !res.IsError {
		t.Error("expected error deleting twice")
	}
}

// ─── Connections ─────────────────────────────────────────────────────────────

func TestConnectAndDisconnect(t *testing.T) {
	store := newTestStore(t)
	boardID := newTestBoard(t, store)
	connect := NewConnectTool(store)
	args := map[string]interface{}{"board_id": boardID, "from": "A", "to": "B"}

	res := call(t, connect.Handle, args)
	if res.IsError {
		t.Fatalf("connect failed: %s", resultText(res))
	}
	if !strings.Contains(resultText(res), "A → B") {
		t.Errorf("result = %q", resultText(res))
	}

	if res := call(t, connect.Handle, args); !res.IsError {
		t.Error("expected error for duplicate connector")
	}

	disconnect := NewDisconnectTool(store)
	if res := call(t, disconnect.Handle, args); res.IsError {
		t.Fatalf("disconnect failed: %s", resultText(res))
	}
	if res := call(t, disconnect.Handle, args); !res.IsError {
		t.Error("expected error removing a missing connector")
	}
	if res := call(t, disconnect.Handle, map[string]interface{}{"board_id": boardID}); !res.IsError {
		t.Error("expected error for missing endpoints")
	}
}

// ─── Decision tree ───────────────────────────────────────────────────────────

func seedChain(t *testing.T, store *board.Store, boardID string) {
	t.Helper()
	for _, n := range []board.AddNoteParams{
		{BoardID: boardID, ID: "1", Frame: "Design Decisions", Content: "<p>Single-page checkout</p>"},
		{BoardID: boardID, ID: "2", Frame: "Design Decisions", Content: "Guest checkout"},
		{BoardID: boardID, ID: "3", Frame: "Research", Content: "Users abandon long forms"},
	} {
		if _, err := store.AddNote(n); err != nil {
			t.Fatalf("AddNote: %v", err)
		}
	}
	if _, err := store.Connect(board.ConnectParams{BoardID: boardID, From: "Single-page checkout", To: "Guest checkout"}); err != nil {
		t.Fatalf("Connect: %v", err)
	}
}

func TestDecisionTree_Markdown(t *testing.T) {
	store := newTestStore(t)
	boardID := newTestBoard(t, store)
	seedChain(t, store, boardID)

	res := call(t, NewDecisionTreeTool(store).Handle, map[string]interface{}{
		"board_id": boardID,
		"frame":    "design decisions",
	})
	if res.IsError {
		t.Fatalf("tree failed: %s", resultText(res))
	}
	text := resultText(res)
	if !strings.Contains(text, "1 trees, 2 nodes") {
		t.Errorf("missing counts: %q", text)
	}
	if !strings.Contains(text, "- Single-page checkout\n  - Guest checkout\n") {
		t.Errorf("missing outline: %q", text)
	}
	if strings.Contains(text, "abandon") {
		t.Errorf("note outside frame leaked: %q", text)
	}
}

func TestDecisionTree_JSON(t *testing.T) {
	store := newTestStore(t)
	boardID := newTestBoard(t, store)
	seedChain(t, store, boardID)

	res := call(t, NewDecisionTreeTool(store).Handle, map[string]interface{}{
		"board_id": boardID,
		"format":   "json",
	})
	if res.IsError {
		t.Fatalf("tree failed: %s", resultText(res))
	}
	var forest []decision.TreeNode
	if err := json.Unmarshal([]byte(resultText(res)), &forest); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(forest) != 2 {
		t.Fatalf("trees = %d, want 2", len(forest))
	}
	if forest[0].Content != "Single-page checkout" || len(forest[0].Children) != 1 {
		t.Errorf("first tree = %+v", forest[0])
	}
}

func TestDecisionTree_Errors(t *testing.T) {
	store := newTestStore(t)
	boardID := newTestBoard(t, store)
	tool := NewDecisionTreeTool(store)

	if res := call(t, tool.Handle, nil); !res.IsError {
		t.Error("expected error for missing board_id")
	}
	if res := call(t, tool.Handle, map[string]interface{}{"board_id": "nope"}); !res.IsError {
		t.Error("expected error for unknown board")
	}
	if res := call(t, tool.Handle, map[string]interface{}{"board_id": boardID, "format": "yaml"}); !res.IsError {
		t.Error("expected error for unknown format")
	}
}

// ─── Points ──────────────────────────────────────────────────────────────────

type mergeOutput struct {
	Strategy  string   `json:"strategy"`
	Threshold float64  `json:"threshold"`
	Input     int      `json:"input"`
	Merged    []string `json:"merged"`
}

func TestMergePoints(t *testing.T) {
	m := metrics.New()
	tool := NewMergePointsTool(MergeSettings{Threshold: 0.6, JaccardThreshold: 0.7}, m)

	res := call(t, tool.Handle, map[string]interface{}{
		"points": `["Low contrast on buttons", "Low contrast on buttons.", "Checkout is too long"]`,
	})
	if res.IsError {
		t.Fatalf("merge failed: %s", resultText(res))
	}
	var out mergeOutput
	if err := json.Unmarshal([]byte(resultText(res)), &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if out.Strategy != "weighted" || out.Threshold != 0.6 || out.Input != 3 {
		t.Errorf("output = %+v", out)
	}
	if len(out.Merged) != 2 {
		t.Errorf("merged = %v, want 2 points", out.Merged)
	}
	if got := testutil.ToFloat64(m.MergeRuns.WithLabelValues("weighted")); got != 1 {
		t.Errorf("merge runs = %v, want 1", got)
	}
}

func TestMergePoints_JaccardDefaultsAndNativeArray(t *testing.T) {
	tool := NewMergePointsTool(MergeSettings{Threshold: 0.6, JaccardThreshold: 0.7}, nil)

	res := call(t, tool.Handle, map[string]interface{}{
		"points":   []interface{}{"Too many steps", "too many steps!", "Missing progress bar"},
		"strategy": "jaccard",
	})
	if res.IsError {
		t.Fatalf("merge failed: %s", resultText(res))
	}
	var out mergeOutput
	if err := json.Unmarshal([]byte(resultText(res)), &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if out.Threshold != 0.7 {
		t.Errorf("threshold = %v, want 0.7", out.Threshold)
	}
	want := []string{"Too many steps", "Missing progress bar"}
	if strings.Join(out.Merged, "|") != strings.Join(want, "|") {
		t.Errorf("merged = %v, want %v", out.Merged, want)
	}
}

func TestMergePoints_Errors(t *testing.T) {
	tool := NewMergePointsTool(MergeSettings{Threshold: 0.6, JaccardThreshold: 0.7}, nil)

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"missing", nil},
		{"not json", map[string]interface{}{"points": "not json"}},
		{"not strings", map[string]interface{}{"points": `[1, 2]`}},
		{"bad strategy", map[string]interface{}{"points": `["a"]`, "strategy": "cosine"}},
		{"bad threshold", map[string]interface{}{"points": `["a"]`, "threshold": 1.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if res := call(t, tool.Handle, tt.args); !res.IsError {
				t.Errorf("expected error, got %q", resultText(res))
			}
		})
	}
}

func TestSplitResponse(t *testing.T) {
	tool := NewSplitResponseTool()

	res := call(t, tool.Handle, map[string]interface{}{
		"response": "## Accessibility\nContrast is too low.\n---\n## Onboarding\nToo many steps.\n",
	})
	var points []string
	if err := json.Unmarshal([]byte(resultText(res)), &points); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(points) != 2 || points[0] != "Accessibility: Contrast is too low." {
		t.Errorf("points = %v", points)
	}

	if res := call(t, tool.Handle, nil); !res.IsError {
		t.Error("expected error for empty response")
	}
}

func TestSimilarity(t *testing.T) {
	tool := NewSimilarityTool()

	res := call(t, tool.Handle, map[string]interface{}{"a": "Low contrast", "b": "Low contrast"})
	var out map[string]float64
	if err := json.Unmarshal([]byte(resultText(res)), &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	for _, key := range []string{"sequence", "word", "stem", "total", "jaccard"} {
		if _, ok := out[key]; !ok {
			t.Errorf("missing %q in %v", key, out)
		}
	}
	if out["total"] != 1 {
		t.Errorf("total = %v, want 1", out["total"])
	}

	if res := call(t, tool.Handle, map[string]interface{}{"a": "x"}); !res.IsError {
		t.Error("expected error for missing b")
	}
}

func TestProcessPoint(t *testing.T) {
	tool := NewProcessPointTool()

	res := call(t, tool.Handle, map[string]interface{}{"text": "The buttons are hard to see"})
	var out struct {
		Original string   `json:"original"`
		Stems    []string `json:"stems"`
		Key      string   `json:"key"`
	}
	if err := json.Unmarshal([]byte(resultText(res)), &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if out.Original != "The buttons are hard to see" || out.Key == "" || len(out.Stems) == 0 {
		t.Errorf("output = %+v", out)
	}

	if res := call(t, tool.Handle, map[string]interface{}{"text": " "}); !res.IsError {
		t.Error("expected error for blank text")
	}
}

// ─── Knowledge ───────────────────────────────────────────────────────────────

func TestKnowledgeAddAndSearch(t *testing.T) {
	store := newTestStore(t)
	add := NewKnowledgeAddTool(store)
	search := NewKnowledgeSearchTool(store)

	res := call(t, add.Handle, map[string]interface{}{
		"title":   "Cost transparency",
		"content": "Show shipping costs before the final step.",
		"source":  "Baymard",
	})
	if res.IsError || !strings.Contains(resultText(res), "Cost transparency") {
		t.Fatalf("add = %q", resultText(res))
	}

	res = call(t, search.Handle, map[string]interface{}{"query": "shipping"})
	text := resultText(res)
	if !strings.Contains(text, "Found 1 entries") || !strings.Contains(text, "_Source: Baymard_") {
		t.Errorf("search = %q", text)
	}

	res = call(t, search.Handle, map[string]interface{}{"query": "accessibility"})
	if !strings.Contains(resultText(res), "No knowledge found") {
		t.Errorf("search miss = %q", resultText(res))
	}

	if res := call(t, add.Handle, map[string]interface{}{"title": "x"}); !res.IsError {
		t.Error("expected error for missing content")
	}
}

// ─── History and stats ───────────────────────────────────────────────────────

func TestHistory(t *testing.T) {
	store := newTestStore(t)
	boardID := newTestBoard(t, store)
	tool := NewHistoryTool(store)

	res := call(t, tool.Handle, map[string]interface{}{"board_id": boardID})
	if !strings.Contains(resultText(res), "No critiques recorded") {
		t.Errorf("empty history = %q", resultText(res))
	}

	if _, err := store.SaveCritique(board.SaveCritiqueParams{
		BoardID:    boardID,
		Kind:       board.KindCritique,
		Frame:      "Design Decisions",
		Strategy:   "weighted",
		InputCount: 3,
		Points:     []string{"Contrast is too low", "Too many steps"},
	}); err != nil {
		t.Fatalf("SaveCritique: %v", err)
	}

	res = call(t, tool.Handle, map[string]interface{}{"board_id": boardID, "kind": "critique"})
	text := resultText(res)
	if !strings.Contains(text, "History (1 runs)") || !strings.Contains(text, "1. Contrast is too low\n2. Too many steps\n") {
		t.Errorf("history = %q", text)
	}

	res = call(t, tool.Handle, map[string]interface{}{"board_id": boardID, "kind": "theme"})
	if !strings.Contains(resultText(res), "No critiques recorded") {
		t.Errorf("theme history = %q", resultText(res))
	}

	if res := call(t, tool.Handle, map[string]interface{}{"board_id": boardID, "kind": "poem"}); !res.IsError {
		t.Error("expected error for unknown kind")
	}
}

func TestStats(t *testing.T) {
	store := newTestStore(t)
	boardID := newTestBoard(t, store)
	seedChain(t, store, boardID)

	res := call(t, NewStatsTool(store).Handle, nil)
	text := resultText(res)
	for _, want := range []string{"**Boards**: 1", "**Notes**: 3", "**Connectors**: 1", "**Critiques**: 0"} {
		if !strings.Contains(text, want) {
			t.Errorf("stats missing %q: %q", want, text)
		}
	}
}

// ─── Critic tools ────────────────────────────────────────────────────────────

const cannedCritique = "## Accessibility\nContrast is too low.\n---\n## Onboarding\nToo many steps.\n"

func newTestService(store *board.Store, reply string, err error) *critic.Service {
	complete := critic.CompleterFunc(func(context.Context, string, string) (string, error) {
		return reply, err
	})
	return critic.NewService(store, complete, critic.Options{Logger: log.New(io.Discard)})
}

func TestCritiqueAndThemes(t *testing.T) {
	store := newTestStore(t)
	boardID := newTestBoard(t, store)
	seedChain(t, store, boardID)
	svc := newTestService(store, cannedCritique, nil)

	res := call(t, NewCritiqueTool(svc, "Design Decisions").Handle, map[string]interface{}{"board_id": boardID})
	if res.IsError {
		t.Fatalf("critique failed: %s", resultText(res))
	}
	text := resultText(res)
	if !strings.Contains(text, "## Critique #") || !strings.Contains(text, "Accessibility: Contrast is too low.") {
		t.Errorf("critique = %q", text)
	}

	res = call(t, NewThemesTool(svc).Handle, map[string]interface{}{"board_id": boardID})
	if res.IsError {
		t.Fatalf("themes failed: %s", resultText(res))
	}
	if !strings.Contains(resultText(res), "## Theme #") {
		t.Errorf("themes = %q", resultText(res))
	}

	runs, err := store.ListCritiques(boardID, "", 10)
	if err != nil {
		t.Fatalf("ListCritiques: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("stored runs = %d, want 2", len(runs))
	}
}

func TestCritique_Errors(t *testing.T) {
	store := newTestStore(t)
	boardID := newTestBoard(t, store)

	svc := newTestService(store, cannedCritique, nil)
	res := call(t, NewCritiqueTool(svc, "Design Decisions").Handle, map[string]interface{}{"board_id": boardID})
	if !res.IsError || !strings.Contains(resultText(res), "no design decisions") {
		t.Errorf("empty board = %q", resultText(res))
	}

	res = call(t, NewThemesTool(svc).Handle, map[string]interface{}{"board_id": boardID})
	if !res.IsError || !strings.Contains(resultText(res), "no critiques") {
		t.Errorf("themes without history = %q", resultText(res))
	}

	seedChain(t, store, boardID)
	failing := newTestService(store, "", critic.ErrUnavailable)
	res = call(t, NewCritiqueTool(failing, "Design Decisions").Handle, map[string]interface{}{"board_id": boardID})
	if !res.IsError {
		t.Error("expected error when the model is unavailable")
	}

	if res := call(t, NewCritiqueTool(svc, "").Handle, nil); !res.IsError {
		t.Error("expected error for missing board_id")
	}
}

// ─── Instrument ──────────────────────────────────────────────────────────────

func TestInstrument(t *testing.T) {
	m := metrics.New()
	ok := Instrument("board_stats", m, func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("fine"), nil
	})
	bad := Instrument("board_stats", m, func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultError("nope"), nil
	})

	for i := 0; i < 2; i++ {
		_, _ = ok(context.Background(), makeReq(nil))
	}
	_, _ = bad(context.Background(), makeReq(nil))

	if got := testutil.ToFloat64(m.ToolCalls.WithLabelValues("board_stats", "ok")); got != 2 {
		t.Errorf("ok calls = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ToolCalls.WithLabelValues("board_stats", "error")); got != 1 {
		t.Errorf("error calls = %v, want 1", got)
	}
}
