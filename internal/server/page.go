package server

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/sysboard/sysboard/internal/logger"
	"github.com/sysboard/sysboard/internal/metrics"
	"github.com/sysboard/sysboard/internal/schedule"
)

//go:embed page.html
var pageFS embed.FS

var pageTemplate = template.Must(template.ParseFS(pageFS, "page.html"))

type pageData struct {
	Hostname string
	Initial  template.JS
}

type intervalSetting struct {
	Seconds int `json:"seconds"`
	Min     int `json:"min"`
	Max     int `json:"max"`
}

// handleIndex renders the page shell with one fresh snapshot per category so
// the first paint never waits for the stream.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	settings := make(map[string]intervalSetting)
	for name, secs := range s.policy.Intervals() {
		setting := intervalSetting{Seconds: secs}
		if minSecs, maxSecs, ok := schedule.Bounds(metrics.Category(name)); ok {
			setting.Min = minSecs
			setting.Max = maxSecs
		}
		settings[name] = setting
	}

	initial := map[string]any{
		"static":     s.static.Info(),
		"categories": metrics.Categories,
		"snapshots":  s.loop.FirstPaint(),
		"intervals":  settings,
	}

	blob, err := json.Marshal(initial)
	if err != nil {
		logger.Error().Err(err).Msg("first paint marshal failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, pageData{
		Hostname: s.static.Info().Hostname,
		Initial:  template.JS(blob),
	}); err != nil {
		logger.Error().Err(err).Msg("page render failed")
	}
}
