package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bodul/anniversary/anniversary"
	"github.com/bodul/anniversary/bucket"
	"github.com/bodul/anniversary/puzzle"
	"github.com/google/go-cmp/cmp"
)

type fakeHinter struct {
	got  HintRequest
	hint string
	err  error
}

func (f *fakeHinter) Hint(_ context.Context, req HintRequest) (string, error) {
	f.got = req
	return f.hint, f.err
}

func newTestServer(t *testing.T) *Server {
	return newTestServerWithHints(t, nil)
}

func newTestServerWithHints(t *testing.T, hints Hinter) *Server {
	t.Helper()

	store := NewStore()
	grid := newGrid(puzzle.Default())
	grid.ID = defaultGridID
	store.SaveGrid(grid)

	gate, err := anniversary.NewGate("2023-04-22")
	if err != nil {
		t.Fatalf("gate: %v", err)
	}
	list, err := bucket.Open("", nil)
	if err != nil {
		t.Fatalf("bucket: %v", err)
	}
	return NewServer(store, hints, gate, list)
}

func do(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func newTestGame(t *testing.T, srv *Server) Snapshot {
	t.Helper()
	w := do(srv, "POST", "/api/games", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("create game: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var game Snapshot
	json.NewDecoder(w.Body).Decode(&game)
	if game.ID == "" {
		t.Fatal("game ID is empty")
	}
	return game
}

func TestGamePageRoute(t *testing.T) {
	srv := newTestServer(t)

	w := do(srv, "GET", "/game/abc123", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Fatalf("expected text/html, got %s", ct)
	}
	if !strings.Contains(w.Body.String(), "Our Crossword") {
		t.Fatal("game page does not contain expected title")
	}
}

func TestFullGameFlow(t *testing.T) {
	srv := newTestServer(t)
	game := newTestGame(t, srv)
	events := "/api/games/" + game.ID + "/events"

	if game.GridID != defaultGridID {
		t.Fatalf("expected default grid, got %q", game.GridID)
	}

	// Focus 1 across and type its first letter.
	if w := do(srv, "POST", events, `{"type":"focus","row":0,"col":0}`); w.Code != http.StatusOK {
		t.Fatalf("focus: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	w := do(srv, "POST", events, `{"type":"input","row":0,"col":0,"text":"q"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("input: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var move Move
	json.NewDecoder(w.Body).Decode(&move)
	if move.Game.State[0][0] != "Q" {
		t.Fatalf("expected cell (0,0) = 'Q', got %q", move.Game.State[0][0])
	}
	if move.Focus != (puzzle.Pos{Row: 0, Col: 1}) || move.Message != puzzle.MsgKeepGoing {
		t.Fatalf("unexpected output: %+v", move.Output)
	}

	// Tab jumps to 3 across.
	w = do(srv, "POST", events, `{"type":"key","row":0,"col":1,"key":"Tab"}`)
	move = Move{}
	json.NewDecoder(w.Body).Decode(&move)
	if move.Focus != (puzzle.Pos{Row: 2, Col: 3}) {
		t.Fatalf("expected focus on (2,3), got %+v", move.Focus)
	}

	// Check an unfinished board.
	w = do(srv, "POST", "/api/games/"+game.ID+"/check", "")
	if w.Code != http.StatusOK {
		t.Fatalf("check: expected 200, got %d", w.Code)
	}
	move = Move{}
	json.NewDecoder(w.Body).Decode(&move)
	if move.Outcome != puzzle.Incomplete || move.Message != puzzle.MsgIncomplete {
		t.Fatalf("expected incomplete, got %v %q", move.Outcome, move.Message)
	}

	// The letter and its mark survive in the game state.
	w = do(srv, "GET", "/api/games/"+game.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get game: expected 200, got %d", w.Code)
	}
	var resp struct {
		State [][]string `json:"state"`
		Marks [][]string `json:"marks"`
		Grid  *Grid      `json:"grid"`
	}
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.State[0][0] != "Q" || resp.Marks[0][0] != "correct" {
		t.Fatalf("unexpected cell (0,0): %q %q", resp.State[0][0], resp.Marks[0][0])
	}
	if resp.Grid == nil {
		t.Fatal("grid should be included in game response")
	}
	if len(resp.Grid.Across) != 6 || len(resp.Grid.Down) != 4 {
		t.Fatalf("expected 6 across and 4 down clues, got %d and %d", len(resp.Grid.Across), len(resp.Grid.Down))
	}
}

func TestEventValidation(t *testing.T) {
	srv := newTestServer(t)
	game := newTestGame(t, srv)
	events := "/api/games/" + game.ID + "/events"

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{name: "bad json", path: events, body: `{`, want: http.StatusBadRequest},
		{name: "unknown type", path: events, body: `{"type":"paste"}`, want: http.StatusBadRequest},
		{name: "unknown key", path: events, body: `{"type":"key","key":"Escape"}`, want: http.StatusBadRequest},
		{name: "unknown game", path: "/api/games/nope/events", body: `{"type":"check"}`, want: http.StatusNotFound},
		{name: "blocked cell is a no-op", path: events, body: `{"type":"input","row":1,"col":0,"text":"A"}`, want: http.StatusOK},
		{name: "off grid is a no-op", path: events, body: `{"type":"focus","row":99,"col":99}`, want: http.StatusOK},
		{name: "body too large", path: events, body: `{"type":"input","row":0,"col":0,"text":"` + strings.Repeat("A", 8<<10) + `"}`, want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := do(srv, "POST", tt.path, tt.body); w.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestCreateGameInvalidGrid(t *testing.T) {
	srv := newTestServer(t)

	w := do(srv, "POST", "/api/games", `{"grid_id":"nonexistent"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestResetAndDeleteGame(t *testing.T) {
	srv := newTestServer(t)
	game := newTestGame(t, srv)

	do(srv, "POST", "/api/games/"+game.ID+"/events", `{"type":"input","row":0,"col":0,"text":"Q"}`)

	w := do(srv, "POST", "/api/games/"+game.ID+"/reset", "")
	if w.Code != http.StatusOK {
		t.Fatalf("reset: expected 200, got %d", w.Code)
	}
	var snap Snapshot
	json.NewDecoder(w.Body).Decode(&snap)
	if snap.State[0][0] != "" {
		t.Fatalf("expected empty cell after reset, got %q", snap.State[0][0])
	}

	if w := do(srv, "DELETE", "/api/games/"+game.ID, ""); w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", w.Code)
	}
	if w := do(srv, "GET", "/api/games/"+game.ID, ""); w.Code != http.StatusNotFound {
		t.Fatalf("get deleted game: expected 404, got %d", w.Code)
	}
	if w := do(srv, "DELETE", "/api/games/"+game.ID, ""); w.Code != http.StatusNotFound {
		t.Fatalf("delete twice: expected 404, got %d", w.Code)
	}
}

func TestHintDisabled(t *testing.T) {
	srv := newTestServer(t)
	game := newTestGame(t, srv)

	w := do(srv, "POST", "/api/games/"+game.ID+"/hint", `{"number":1,"direction":"across"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestHintEndpoint(t *testing.T) {
	hints := &fakeHinter{hint: "Think back to the rink."}
	srv := newTestServerWithHints(t, hints)
	game := newTestGame(t, srv)
	path := "/api/games/" + game.ID + "/hint"

	do(srv, "POST", "/api/games/"+game.ID+"/events", `{"type":"input","row":0,"col":5,"text":"i"}`)

	w := do(srv, "POST", path, `{"number":2,"direction":"down"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]string
	json.NewDecoder(w.Body).Decode(&resp)
	if resp["hint"] != hints.hint {
		t.Fatalf("expected %q, got %q", hints.hint, resp["hint"])
	}
	want := HintRequest{
		Clue:    "Our first date",
		Pattern: "I?????????",
		Answer:  "ICESKATING",
	}
	if diff := cmp.Diff(want, hints.got); diff != "" {
		t.Fatalf("hint request mismatch (-want +got):\n%s", diff)
	}

	if w := do(srv, "POST", path, `{"number":2,"direction":"across"}`); w.Code != http.StatusNotFound {
		t.Fatalf("unknown clue: expected 404, got %d", w.Code)
	}
	if w := do(srv, "POST", path, `{"number":2,"direction":"diagonal"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("bad direction: expected 400, got %d", w.Code)
	}

	hints.err = ErrHintLeaked
	if w := do(srv, "POST", path, `{"number":2,"direction":"down"}`); w.Code != http.StatusBadGateway {
		t.Fatalf("failed hint: expected 502, got %d", w.Code)
	}
}

const uploadedPuzzle = `
title = "Pets"
rows  = 3
cols  = 3

word "CAT" {
  number    = 1
  clue      = "Purrs"
  row       = 0
  col       = 0
  direction = across
}

word "COW" {
  number    = 1
  clue      = "Moos"
  row       = 0
  col       = 0
  direction = down
}
`

func TestCreateGrid(t *testing.T) {
	srv := newTestServer(t)

	w := do(srv, "POST", "/api/grids", uploadedPuzzle)
	if w.Code != http.StatusCreated {
		t.Fatalf("create grid: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var grid Grid
	json.NewDecoder(w.Body).Decode(&grid)
	if grid.ID == "" || grid.Title != "Pets" {
		t.Fatalf("unexpected grid: %+v", grid)
	}
	if grid.Cells[0][0].Number != 1 || !grid.Cells[1][1].Black {
		t.Fatalf("unexpected cells: %+v", grid.Cells)
	}
	if strings.Contains(w.Body.String(), "CAT") {
		t.Fatal("grid response must not leak answers")
	}

	if w := do(srv, "GET", "/api/grids/"+grid.ID, ""); w.Code != http.StatusOK {
		t.Fatalf("get grid: expected 200, got %d", w.Code)
	}
	if w := do(srv, "GET", "/api/grids/nope", ""); w.Code != http.StatusNotFound {
		t.Fatalf("get unknown grid: expected 404, got %d", w.Code)
	}

	w = do(srv, "GET", "/api/grids", "")
	var grids []Grid
	json.NewDecoder(w.Body).Decode(&grids)
	if len(grids) != 2 {
		t.Fatalf("expected 2 grids, got %d", len(grids))
	}

	w = do(srv, "POST", "/api/games", `{"grid_id":"`+grid.ID+`"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create game on uploaded grid: expected 201, got %d", w.Code)
	}
}

func TestCreateGridInvalid(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{name: "syntax", body: `word "CAT" {`},
		{name: "bad direction", body: "rows = 1\ncols = 3\nword \"CAT\" {\nnumber = 1\nclue = \"x\"\nrow = 0\ncol = 0\ndirection = \"diagonal\"\n}\n"},
		{name: "empty grid", body: "rows = 0\ncols = 0\n"},
		{name: "too many rows", body: "rows = 3000\ncols = 5\n"},
		{name: "too large", body: "rows = 3000\ncols = 3000\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := do(srv, "POST", "/api/grids", tt.body); w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestGate(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		body string
		want int
	}{
		{body: `{"date":""}`, want: http.StatusBadRequest},
		{body: `{"date":"2023-04-23"}`, want: http.StatusForbidden},
		{body: `{"date":"2023-04-22"}`, want: http.StatusOK},
		{body: `not json`, want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		if w := do(srv, "POST", "/api/gate", tt.body); w.Code != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.body, tt.want, w.Code)
		}
	}
}

func TestCounters(t *testing.T) {
	srv := newTestServer(t)
	srv.now = func() time.Time { return time.Date(2024, time.May, 1, 10, 0, 0, 0, time.UTC) }

	w := do(srv, "GET", "/api/counters", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var got anniversary.Counters
	json.NewDecoder(w.Body).Decode(&got)

	want := anniversary.Counters{
		Together:  anniversary.Span{Years: 1, Months: 0, Days: 9},
		UntilNext: anniversary.Span{Months: 11, Days: 21},
		Next:      time.Date(2025, time.April, 22, 0, 0, 0, 0, time.UTC),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("counters mismatch (-want +got):\n%s", diff)
	}
}

func TestReasons(t *testing.T) {
	srv := newTestServer(t)
	n := len(anniversary.Reasons)

	w := do(srv, "GET", "/api/reasons?i=-1", "")
	var got struct {
		Index     int    `json:"index"`
		Text      string `json:"text"`
		Indicator string `json:"indicator"`
	}
	json.NewDecoder(w.Body).Decode(&got)

	if got.Index != n-1 || got.Text != anniversary.Reasons[n-1] {
		t.Fatalf("expected last reason, got %+v", got)
	}
	if !strings.HasPrefix(got.Indicator, "22 / ") {
		t.Fatalf("unexpected indicator %q", got.Indicator)
	}
}

func TestBucketFlow(t *testing.T) {
	srv := newTestServer(t)

	if w := do(srv, "POST", "/api/bucket", `{"text":"  ","category":"go"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("blank item: expected 400, got %d", w.Code)
	}
	huge := `{"text":"` + strings.Repeat("x", 8<<10) + `","category":"go"}`
	if w := do(srv, "POST", "/api/bucket", huge); w.Code != http.StatusBadRequest {
		t.Fatalf("huge item: expected 400, got %d", w.Code)
	}
	for _, body := range []string{
		`{"text":"Tokyo","category":"go"}`,
		`{"text":"Learn to skate","category":"do"}`,
		`{"text":"Ramen","category":"EAT"}`,
	} {
		if w := do(srv, "POST", "/api/bucket", body); w.Code != http.StatusCreated {
			t.Fatalf("add %s: expected 201, got %d", body, w.Code)
		}
	}

	w := do(srv, "POST", "/api/bucket/0/toggle", "")
	var item bucket.Item
	json.NewDecoder(w.Body).Decode(&item)
	if !item.Done {
		t.Fatal("expected item 0 to be done")
	}

	if w := do(srv, "PUT", "/api/bucket/1", `{"text":"Learn to ice skate"}`); w.Code != http.StatusOK {
		t.Fatalf("edit: expected 200, got %d", w.Code)
	}
	if w := do(srv, "DELETE", "/api/bucket/2", ""); w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", w.Code)
	}
	if w := do(srv, "DELETE", "/api/bucket/9", ""); w.Code != http.StatusNotFound {
		t.Fatalf("delete unknown: expected 404, got %d", w.Code)
	}
	if w := do(srv, "POST", "/api/bucket/x/toggle", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("bad index: expected 400, got %d", w.Code)
	}

	w = do(srv, "GET", "/api/bucket?category=do", "")
	var entries []bucket.Entry
	json.NewDecoder(w.Body).Decode(&entries)
	want := []bucket.Entry{{Index: 1, Item: bucket.Item{Text: "Learn to ice skate", Category: bucket.Do}}}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Fatalf("do tab mismatch (-want +got):\n%s", diff)
	}

	w = do(srv, "GET", "/api/bucket", "")
	var all map[bucket.Category][]bucket.Entry
	json.NewDecoder(w.Body).Decode(&all)
	if len(all) != 4 || len(all[bucket.Go]) != 1 || len(all[bucket.Eat]) != 0 {
		t.Fatalf("unexpected tabs: %+v", all)
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(t)

	w := do(srv, "GET", "/", "")

	headers := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}

	for key, expected := range headers {
		if got := w.Header().Get(key); got != expected {
			t.Errorf("header %s: expected %q, got %q", key, expected, got)
		}
	}

	csp := w.Header().Get("Content-Security-Policy")
	if csp == "" {
		t.Error("Content-Security-Policy header missing")
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(3, time.Second)

	// First 3 should pass.
	for i := range 3 {
		if !rl.allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	// 4th should be blocked.
	if rl.allow("1.2.3.4") {
		t.Fatal("4th request should be rate limited")
	}

	// Different IP should still be allowed.
	if !rl.allow("5.6.7.8") {
		t.Fatal("different IP should be allowed")
	}
}

func TestPruneIdleGames(t *testing.T) {
	srv := newTestServer(t)
	game := newTestGame(t, srv)
	c := srv.sse.Register(game.ID)

	srv.pruneGames(time.Now().Add(gameIdleTTL + time.Minute))

	if srv.store.GetGame(game.ID) != nil {
		t.Fatal("expected idle game to be pruned")
	}
	if _, ok := <-c.ch; ok {
		t.Fatal("expected stream of pruned game to be closed")
	}
}
