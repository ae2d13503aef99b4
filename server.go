package main

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/bodul/anniversary/anniversary"
	"github.com/bodul/anniversary/bucket"
	"github.com/bodul/anniversary/puzzle"
)

//go:embed frontend
var frontendFS embed.FS

const (
	maxPuzzleSize = 64 << 10 // 64 KB
	maxBodySize   = 4 << 10  // JSON requests
	maxGridDim    = 100
)

// rateLimiter is a simple per-IP token bucket rate limiter.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*tokens
	rate     int           // tokens per interval
	interval time.Duration // refill interval
}

type tokens struct {
	left     int
	lastSeen time.Time
}

func newRateLimiter(rate int, interval time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*tokens),
		rate:     rate,
		interval: interval,
	}
	// Cleanup stale entries every minute.
	go func() {
		for {
			time.Sleep(time.Minute)
			rl.mu.Lock()
			for ip, b := range rl.visitors {
				if time.Since(b.lastSeen) > 5*time.Minute {
					delete(rl.visitors, ip)
				}
			}
			rl.mu.Unlock()
		}
	}()
	return rl
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.visitors[ip]
	if !ok {
		rl.visitors[ip] = &tokens{left: rl.rate - 1, lastSeen: time.Now()}
		return true
	}

	// Refill tokens based on elapsed time.
	elapsed := time.Since(b.lastSeen)
	refill := int(elapsed / rl.interval)
	if refill > 0 {
		b.left = min(b.left+refill*rl.rate, rl.rate)
		b.lastSeen = time.Now()
	}

	if b.left <= 0 {
		return false
	}
	b.left--
	return true
}

// Server is the main HTTP server.
type Server struct {
	mux     *http.ServeMux
	store   *Store
	hints   Hinter
	gate    *anniversary.Gate
	bucket  *bucket.List
	sse     *Broadcaster
	now     func() time.Time
	eventRL *rateLimiter
	hintRL  *rateLimiter
	gateRL  *rateLimiter
}

// NewServer creates a configured HTTP server. hints may be nil, which
// disables hints.
func NewServer(store *Store, hints Hinter, gate *anniversary.Gate, list *bucket.List) *Server {
	s := &Server{
		mux:     http.NewServeMux(),
		store:   store,
		hints:   hints,
		gate:    gate,
		bucket:  list,
		sse:     NewBroadcaster(),
		now:     time.Now,
		eventRL: newRateLimiter(60, time.Second), // 60 events/sec per IP
		hintRL:  newRateLimiter(5, time.Minute),  // 5 hints/min per IP
		gateRL:  newRateLimiter(10, time.Minute), // 10 guesses/min per IP
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	// Grid API
	s.mux.HandleFunc("POST /api/grids", s.handleCreateGrid)
	s.mux.HandleFunc("GET /api/grids", s.handleListGrids)
	s.mux.HandleFunc("GET /api/grids/{id}", s.handleGetGrid)

	// Game API
	s.mux.HandleFunc("POST /api/games", s.handleCreateGame)
	s.mux.HandleFunc("GET /api/games/{id}", s.handleGetGame)
	s.mux.HandleFunc("DELETE /api/games/{id}", s.handleDeleteGame)
	s.mux.HandleFunc("POST /api/games/{id}/events", s.handleEvent)
	s.mux.HandleFunc("GET /api/games/{id}/stream", s.handleGameStream)
	s.mux.HandleFunc("POST /api/games/{id}/check", s.handleCheck)
	s.mux.HandleFunc("POST /api/games/{id}/reset", s.handleReset)
	s.mux.HandleFunc("POST /api/games/{id}/hint", s.handleHint)

	// Page widgets
	s.mux.HandleFunc("POST /api/gate", s.handleGate)
	s.mux.HandleFunc("GET /api/counters", s.handleCounters)
	s.mux.HandleFunc("GET /api/reasons", s.handleReasons)
	s.mux.HandleFunc("GET /api/bucket", s.handleListBucket)
	s.mux.HandleFunc("POST /api/bucket", s.handleAddBucket)
	s.mux.HandleFunc("POST /api/bucket/{index}/toggle", s.handleToggleBucket)
	s.mux.HandleFunc("PUT /api/bucket/{index}", s.handleEditBucket)
	s.mux.HandleFunc("DELETE /api/bucket/{index}", s.handleDeleteBucket)

	// Frontend static files
	frontendDir, _ := fs.Sub(frontendFS, "frontend")
	fileServer := http.FileServer(http.FS(frontendDir))
	s.mux.HandleFunc("GET /game/{id}", s.handleGamePage)
	s.mux.Handle("GET /", fileServer)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
	s.mux.ServeHTTP(w, r)
}

// --- Grid handlers ---

// POST /api/grids — load an HCL puzzle definition.
func (s *Server) handleCreateGrid(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPuzzleSize)
	src, err := io.ReadAll(r.Body)
	if err != nil {
		jsonError(w, "puzzle too large (max 64 KB)", http.StatusRequestEntityTooLarge)
		return
	}

	def, err := puzzle.Decode(src, "upload.hcl")
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if def.Rows <= 0 || def.Cols <= 0 {
		jsonError(w, "rows and cols must be positive", http.StatusBadRequest)
		return
	}
	if def.Rows > maxGridDim || def.Cols > maxGridDim {
		jsonError(w, "rows and cols must be at most "+strconv.Itoa(maxGridDim), http.StatusBadRequest)
		return
	}

	grid := s.store.SaveGrid(newGrid(def))
	grid.warnConflicts(slog.Default())

	writeJSON(w, http.StatusCreated, grid)
}

// GET /api/grids — list all grids.
func (s *Server) handleListGrids(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.ListGrids())
}

// GET /api/grids/{id} — get a single grid.
func (s *Server) handleGetGrid(w http.ResponseWriter, r *http.Request) {
	grid := s.store.GetGrid(r.PathValue("id"))
	if grid == nil {
		jsonError(w, "grid not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, grid)
}

// --- Game handlers ---

// POST /api/games — start a game; grid_id defaults to the built-in puzzle.
func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GridID string `json:"grid_id"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		jsonError(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.GridID == "" {
		req.GridID = defaultGridID
	}

	game, err := s.store.CreateGame(req.GridID)
	if err != nil {
		jsonError(w, "grid not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusCreated, game.Snapshot())
}

// GET /api/games/{id} — current game state with its grid.
func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	game := s.game(w, r)
	if game == nil {
		return
	}

	resp := struct {
		Snapshot
		Grid *Grid `json:"grid"`
	}{
		Snapshot: game.Snapshot(),
		Grid:     s.store.GetGrid(game.GridID),
	}
	writeJSON(w, http.StatusOK, resp)
}

// DELETE /api/games/{id} — drop a game and close its streams.
func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteGame(id); err != nil {
		jsonError(w, "game not found", http.StatusNotFound)
		return
	}
	s.sse.Close(id)
	w.WriteHeader(http.StatusNoContent)
}

// eventRequest is the wire form of a puzzle event.
type eventRequest struct {
	Type     string `json:"type"` // focus, input, key or check
	Row      int    `json:"row"`
	Col      int    `json:"col"`
	Text     string `json:"text"`
	Deletion bool   `json:"deletion"`
	Key      string `json:"key"`
}

var errBadEvent = errors.New("invalid event")

func (req eventRequest) event() (puzzle.Event, error) {
	cell := puzzle.Pos{Row: req.Row, Col: req.Col}
	switch req.Type {
	case "focus":
		return puzzle.FocusEvent{Cell: cell}, nil
	case "input":
		return puzzle.InputEvent{Cell: cell, Text: req.Text, Deletion: req.Deletion}, nil
	case "key":
		k := puzzle.ParseKey(req.Key)
		if k == puzzle.KeyNone {
			return nil, errBadEvent
		}
		return puzzle.KeyEvent{Cell: cell, Key: k}, nil
	case "check":
		return puzzle.CheckEvent{}, nil
	}
	return nil, errBadEvent
}

// POST /api/games/{id}/events — apply one focus, input, key or check event.
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	if !s.eventRL.allow(r.RemoteAddr) {
		jsonError(w, "too many requests, try again later", http.StatusTooManyRequests)
		return
	}

	game := s.game(w, r)
	if game == nil {
		return
	}

	var req eventRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request", http.StatusBadRequest)
		return
	}
	ev, err := req.event()
	if err != nil {
		jsonError(w, "unknown event type or key", http.StatusBadRequest)
		return
	}

	s.apply(w, game, ev)
}

// POST /api/games/{id}/check — validate the board.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	game := s.game(w, r)
	if game == nil {
		return
	}
	s.apply(w, game, puzzle.CheckEvent{})
}

func (s *Server) apply(w http.ResponseWriter, game *GameSession, ev puzzle.Event) {
	move := game.Handle(ev)
	s.sse.Publish(game.ID, "game_state", move.Game)
	writeJSON(w, http.StatusOK, move)
}

// POST /api/games/{id}/reset — clear every square.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	game := s.game(w, r)
	if game == nil {
		return
	}
	snap := game.Reset()
	s.sse.Publish(game.ID, "game_state", snap)
	writeJSON(w, http.StatusOK, snap)
}

// POST /api/games/{id}/hint — ask for a nudge on one clue.
func (s *Server) handleHint(w http.ResponseWriter, r *http.Request) {
	if !s.hintRL.allow(r.RemoteAddr) {
		jsonError(w, "too many requests, try again later", http.StatusTooManyRequests)
		return
	}
	if s.hints == nil {
		jsonError(w, "hints are not configured", http.StatusServiceUnavailable)
		return
	}

	game := s.game(w, r)
	if game == nil {
		return
	}

	var req struct {
		Number    int              `json:"number"`
		Direction puzzle.Direction `json:"direction"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "fields 'number' and 'direction' required", http.StatusBadRequest)
		return
	}

	hr, ok := game.HintRequest(req.Number, req.Direction)
	if !ok {
		jsonError(w, "no such clue", http.StatusNotFound)
		return
	}

	hint, err := s.hints.Hint(r.Context(), hr)
	if err != nil {
		slog.Error("hint failed", "game", game.ID, "number", req.Number, "direction", req.Direction, "err", err)
		jsonError(w, "could not get a hint", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"hint": hint})
}

// GET /api/games/{id}/stream — SSE stream of game state.
func (s *Server) handleGameStream(w http.ResponseWriter, r *http.Request) {
	game := s.game(w, r)
	if game == nil {
		return
	}

	s.sse.ServeSSE(w, r, game.ID, func() (string, any) {
		return "game_state", game.Snapshot()
	})
}

// game looks the game up by path ID, writing a 404 when it is missing.
func (s *Server) game(w http.ResponseWriter, r *http.Request) *GameSession {
	game := s.store.GetGame(r.PathValue("id"))
	if game == nil {
		jsonError(w, "game not found", http.StatusNotFound)
	}
	return game
}

// pruneGames drops idle games and disconnects their streams.
func (s *Server) pruneGames(now time.Time) {
	for _, id := range s.store.PruneGames(now, gameIdleTTL) {
		s.sse.Close(id)
		slog.Info("pruned idle game", "game", id)
	}
}

// janitor prunes idle games every interval until ctx is done.
func (s *Server) janitor(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.pruneGames(s.now())
		}
	}
}

// --- Page widget handlers ---

// POST /api/gate — check the anniversary date.
func (s *Server) handleGate(w http.ResponseWriter, r *http.Request) {
	if !s.gateRL.allow(r.RemoteAddr) {
		jsonError(w, "too many guesses, try again later", http.StatusTooManyRequests)
		return
	}

	var req struct {
		Date string `json:"date"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request", http.StatusBadRequest)
		return
	}

	switch err := s.gate.Check(req.Date); {
	case errors.Is(err, anniversary.ErrEmptyDate):
		jsonError(w, "pick a date first", http.StatusBadRequest)
	case errors.Is(err, anniversary.ErrWrongDate):
		jsonError(w, "that's not our day", http.StatusForbidden)
	default:
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

// GET /api/counters — time together and until the next anniversary.
func (s *Server) handleCounters(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, anniversary.CountersAt(s.gate.Date, s.now()))
}

// GET /api/reasons?i=N — one reason from the carousel.
func (s *Server) handleReasons(w http.ResponseWriter, r *http.Request) {
	i, _ := strconv.Atoi(r.URL.Query().Get("i"))
	c := anniversary.NewCarousel(anniversary.Reasons)
	c.Seek(i)
	writeJSON(w, http.StatusOK, map[string]any{
		"index":     c.Index(),
		"text":      c.Current(),
		"indicator": c.Indicator(),
	})
}

// GET /api/bucket?category=do — items of one tab, or all tabs.
func (s *Server) handleListBucket(w http.ResponseWriter, r *http.Request) {
	if cat := r.URL.Query().Get("category"); cat != "" {
		writeJSON(w, http.StatusOK, s.bucket.Entries(bucket.ParseCategory(cat)))
		return
	}
	all := make(map[bucket.Category][]bucket.Entry, len(bucket.Categories))
	for _, c := range bucket.Categories {
		all[c] = s.bucket.Entries(c)
	}
	writeJSON(w, http.StatusOK, all)
}

// POST /api/bucket — add an item.
func (s *Server) handleAddBucket(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text     string `json:"text"`
		Category string `json:"category"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request", http.StatusBadRequest)
		return
	}
	e, err := s.bucket.Add(req.Text, bucket.ParseCategory(req.Category))
	if s.bucketError(w, err) {
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// POST /api/bucket/{index}/toggle — flip an item's done flag.
func (s *Server) handleToggleBucket(w http.ResponseWriter, r *http.Request) {
	i, ok := bucketIndex(w, r)
	if !ok {
		return
	}
	it, err := s.bucket.Toggle(i)
	if s.bucketError(w, err) {
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// PUT /api/bucket/{index} — change an item's text.
func (s *Server) handleEditBucket(w http.ResponseWriter, r *http.Request) {
	i, ok := bucketIndex(w, r)
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request", http.StatusBadRequest)
		return
	}
	it, err := s.bucket.Edit(i, req.Text)
	if s.bucketError(w, err) {
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// DELETE /api/bucket/{index} — remove an item.
func (s *Server) handleDeleteBucket(w http.ResponseWriter, r *http.Request) {
	i, ok := bucketIndex(w, r)
	if !ok {
		return
	}
	if s.bucketError(w, s.bucket.Delete(i)) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func bucketIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	i, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		jsonError(w, "invalid item index", http.StatusBadRequest)
		return 0, false
	}
	return i, true
}

// bucketError maps list errors to responses. It reports whether one was
// written.
func (s *Server) bucketError(w http.ResponseWriter, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, bucket.ErrNoItem):
		jsonError(w, "item not found", http.StatusNotFound)
	case errors.Is(err, bucket.ErrEmptyText):
		jsonError(w, "item text required", http.StatusBadRequest)
	default:
		slog.Error("bucket list storage failed", "err", err)
		jsonError(w, "could not save the bucket list", http.StatusInternalServerError)
	}
	return true
}

// --- Frontend page handlers ---

// GET /game/{id} — serve the crossword page.
func (s *Server) handleGamePage(w http.ResponseWriter, _ *http.Request) {
	data, _ := frontendFS.ReadFile("frontend/game.html")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "err", err)
	}
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
