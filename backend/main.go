package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type StatusResponse struct {
	Board      string `json:"board"`
	NextPlayer int    `json:"next_player"`
	MoveNumber int    `json:"move_number"`
	Status     string `json:"status"`
	Winner     int    `json:"winner"`
	Config     Config `json:"config"`
}

type apiMove struct {
	Player    int   `json:"player"`
	Positions []Pos `json:"positions"`
}

type errorResponse struct {
	Error string `json:"error"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// gaManager runs at most one optimizer at a time and keeps the latest
// progress for polling clients.
type gaManager struct {
	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	progress []GAProgress
	champion Individual
	hasBest  bool
}

func (m *gaManager) start(config GAConfig, hub *Hub) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("ga already running")
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.running = true
	m.progress = nil

	optimizer := NewGAOptimizer(config)
	optimizer.OnProgress = func(p GAProgress) {
		m.mu.Lock()
		m.progress = append(m.progress, p)
		m.champion = p.Champion
		m.hasBest = true
		m.mu.Unlock()
		select {
		case hub.broadcastGA <- p:
		default:
		}
	}
	go func() {
		champion, err := optimizer.Run(ctx)
		m.mu.Lock()
		m.running = false
		if champion.ID != "" {
			m.champion = champion
			m.hasBest = true
		}
		m.mu.Unlock()
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("ga run failed")
			return
		}
		log.Info().Str("champion", champion.ID).Float64("fitness", champion.Fitness).Msg("ga run finished")
	}()
	return nil
}

func (m *gaManager) stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running && m.cancel != nil {
		m.cancel()
	}
}

func (m *gaManager) status() (bool, []GAProgress, Individual, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running, append([]GAProgress(nil), m.progress...), m.champion, m.hasBest
}

func main() {
	cfg, err := SetupServerConfig(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("bootstrap failed")
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	if cfg.MaxDepth > 0 || cfg.TimeLimitMs > 0 {
		running := GetConfig()
		if cfg.MaxDepth > 0 {
			running.Search.MaxDepth = cfg.MaxDepth
		}
		if cfg.TimeLimitMs > 0 {
			running.Search.TimeLimitMs = cfg.TimeLimitMs
		}
		configStore.Update(running)
	}

	controller := NewGameController(UniformEvaluator{}, GetConfig())
	hub := NewHub()
	ga := &gaManager{}
	done := make(chan struct{})
	go hub.Run(done)

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(middleware.Logger)

	router.Get("/api/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, statusFor(controller.State()))
	})

	router.Post("/api/reset", func(w http.ResponseWriter, r *http.Request) {
		controller.Reset()
		state := controller.State()
		publishBoard(hub, state)
		writeJSON(w, http.StatusOK, statusFor(state))
	})

	router.Post("/api/move", func(w http.ResponseWriter, r *http.Request) {
		var payload apiMove
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		move := Move{Player: PlayerColor(payload.Player), Positions: payload.Positions}
		state, err := controller.ApplyHumanMove(move)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		publishBoard(hub, state)
		writeJSON(w, http.StatusOK, statusFor(state))
	})

	router.Post("/api/ai-move", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
		defer cancel()
		decision, state, err := controller.PlayAIMove(ctx)
		if err != nil {
			writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
			return
		}
		publishBoard(hub, state)
		select {
		case hub.broadcastDecision <- decision:
		default:
		}
		writeJSON(w, http.StatusOK, decision)
	})

	router.Get("/api/decision", func(w http.ResponseWriter, r *http.Request) {
		decision, ok := controller.LastDecision()
		if !ok {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "no decision yet"})
			return
		}
		writeJSON(w, http.StatusOK, decision)
	})

	router.Get("/api/config", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, GetConfig())
	})

	router.Post("/api/config", func(w http.ResponseWriter, r *http.Request) {
		var newConfig Config
		if err := json.NewDecoder(r.Body).Decode(&newConfig); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		configStore.Update(newConfig)
		writeJSON(w, http.StatusOK, GetConfig())
	})

	router.Post("/api/ga/start", func(w http.ResponseWriter, r *http.Request) {
		gaConfig := DefaultGAConfig()
		if r.Body != nil {
			// An empty body keeps the defaults.
			if err := json.NewDecoder(r.Body).Decode(&gaConfig); err != nil && err != io.EOF {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
				return
			}
		}
		if err := ga.start(gaConfig, hub); err != nil {
			writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusAccepted, gaConfig)
	})

	router.Post("/api/ga/stop", func(w http.ResponseWriter, r *http.Request) {
		ga.stop()
		w.WriteHeader(http.StatusNoContent)
	})

	router.Get("/api/ga/status", func(w http.ResponseWriter, r *http.Request) {
		running, progress, champion, hasBest := ga.status()
		writeJSON(w, http.StatusOK, map[string]any{
			"running":      running,
			"progress":     progress,
			"champion":     champion,
			"has_champion": hasBest,
		})
	})

	router.Get("/api/ga/export", func(w http.ResponseWriter, r *http.Request) {
		_, _, champion, hasBest := ga.status()
		if !hasBest {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "no champion yet"})
			return
		}
		writeJSON(w, http.StatusOK, NewGAExport(champion, GetConfig().Search, "self-play ga export"))
	})

	router.Post("/api/ga/import", func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		export, err := ImportGAExport(data)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		configStore.Update(ApplyGAExport(GetConfig(), export))
		writeJSON(w, http.StatusOK, GetConfig())
	})

	router.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := &Client{hub: hub, send: make(chan []byte, 32)}
		hub.Register(client)
		go func() {
			defer func() {
				hub.Unregister(client)
				conn.Close()
			}()
			for data := range client.send {
				if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
					return
				}
			}
		}()
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					hub.Unregister(client)
					return
				}
			}
		}()
	})

	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("connect6 backend listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")
	close(done)
	ga.stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}

func statusFor(state GameState) StatusResponse {
	return StatusResponse{
		Board:      state.Board.Serialize(),
		NextPlayer: int(state.ToMove),
		MoveNumber: state.MoveNumber,
		Status:     statusName(state.Status),
		Winner:     winnerCode(state),
		Config:     GetConfig(),
	}
}

func publishBoard(hub *Hub, state GameState) {
	select {
	case hub.broadcastBoard <- boardPayload{
		Board:      state.Board.Serialize(),
		NextPlayer: int(state.ToMove),
		MoveNumber: state.MoveNumber,
		Status:     statusName(state.Status),
		Winner:     winnerCode(state),
	}:
	default:
	}
}

func statusName(status GameStatus) string {
	switch status {
	case StatusBlackWon:
		return "black_won"
	case StatusWhiteWon:
		return "white_won"
	case StatusDraw:
		return "draw"
	default:
		return "running"
	}
}

func winnerCode(state GameState) int {
	if winner, ok := state.Winner(); ok {
		return int(winner) + 1
	}
	return 0
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
