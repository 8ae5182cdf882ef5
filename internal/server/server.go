// Package server is the HTTP boundary: the dashboard page, the streaming
// websocket, and the settings and history endpoints.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sysboard/sysboard/internal/errors"
	"github.com/sysboard/sysboard/internal/history"
	"github.com/sysboard/sysboard/internal/logger"
	"github.com/sysboard/sysboard/internal/metrics"
	"github.com/sysboard/sysboard/internal/monitor"
	"github.com/sysboard/sysboard/internal/schedule"
	"github.com/sysboard/sysboard/internal/stream"
)

const (
	ErrServeFailed = errors.ErrorCode("server_serve_failed")

	writeTimeout = 10 * time.Second
)

type Server struct {
	hub       *stream.Hub
	policy    *schedule.Policy
	loop      *monitor.Loop
	static    *metrics.StaticProvider
	recorder  history.Recorder
	heartbeat time.Duration
	upgrader  websocket.Upgrader

	httpServer *http.Server
}

func New(
	hub *stream.Hub,
	policy *schedule.Policy,
	loop *monitor.Loop,
	static *metrics.StaticProvider,
	recorder history.Recorder,
	heartbeat time.Duration,
) *Server {
	return &Server{
		hub:       hub,
		policy:    policy,
		loop:      loop,
		static:    static,
		recorder:  recorder,
		heartbeat: heartbeat,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/stream_updates", s.handleStream)
	mux.HandleFunc("/update_intervals", s.handleIntervals)
	mux.HandleFunc("/history", s.handleHistory)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	return mux
}

// Start serves on addr until Shutdown. It returns once the listener is
// closed; http.ErrServerClosed is the normal outcome.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(ErrServeFailed, err)
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

// handleStream upgrades to a websocket, registers a subscriber and forwards
// its queue to the connection. The writer selects between "next message" and
// "heartbeat due" so a quiet stream still emits traffic within the heartbeat
// period.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	sub := s.hub.Register()

	// The reader only exists to notice the client going away.
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	heartbeat := time.NewTicker(s.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case msg, ok := <-sub.C():
			if !ok {
				// Force-closed by hub shutdown; the sentinel already went out.
				s.writeClose(conn)
				return
			}
			if msg.Type == stream.MessageShutdown {
				s.writeMessage(conn, msg)
				s.hub.Unregister(sub, stream.StateClosedByServer)
				s.writeClose(conn)
				return
			}
			if err := s.writeMessage(conn, msg); err != nil {
				s.hub.Unregister(sub, stream.StateClosedByError)
				return
			}
		case <-heartbeat.C:
			if err := s.writeMessage(conn, stream.Message{Type: stream.MessageHeartbeat}); err != nil {
				s.hub.Unregister(sub, stream.StateClosedByError)
				return
			}
		case <-readerDone:
			s.hub.Unregister(sub, stream.StateClosedByClient)
			return
		}
	}
}

func (s *Server) writeMessage(conn *websocket.Conn, msg stream.Message) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(msg)
}

func (s *Server) writeClose(conn *websocket.Conn) {
	deadline := time.Now().Add(time.Second)
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutting down"), deadline)
}

// handleIntervals applies a per-category interval update. Accepts a JSON
// object or form fields of integer seconds keyed by category name. Changed
// categories resample on the next tick.
func (s *Server) handleIntervals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	updates, err := parseIntervals(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	for category, secs := range updates {
		if err := s.policy.SetInterval(category, secs); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseIntervals(r *http.Request) (map[metrics.Category]int, error) {
	updates := make(map[metrics.Category]int)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body map[string]int
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return nil, errors.Wrap(errors.ErrInvalidArgument, err)
		}
		for name, secs := range body {
			updates[metrics.Category(name)] = secs
		}
		return updates, validateIntervals(updates)
	}

	if err := r.ParseForm(); err != nil {
		return nil, errors.Wrap(errors.ErrInvalidArgument, err)
	}
	for name, values := range r.PostForm {
		if len(values) == 0 {
			continue
		}
		secs, err := strconv.Atoi(values[0])
		if err != nil {
			return nil, errors.WithData(errors.ErrInvalidInterval, values[0])
		}
		updates[metrics.Category(name)] = secs
	}

	return updates, validateIntervals(updates)
}

func validateIntervals(updates map[metrics.Category]int) error {
	for category, secs := range updates {
		if !category.IsValid() {
			return errors.WithData(schedule.ErrUnknownCategory, string(category))
		}
		if secs <= 0 {
			return errors.WithData(errors.ErrInvalidInterval, secs)
		}
	}

	return nil
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	rows, err := s.recorder.Recent(r.Context(), limit)
	if err != nil {
		logger.Error().Err(err).Msg("history query failed")
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []history.Row{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rows)
}
