package web

//go:generate templ generate -f dashboard.templ

import (
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strconv"

	"github.com/JonMunkholm/claims/internal/core"
)

// handleDashboard renders the summary as an HTML page (dashboard.templ).
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := s.service.Summary(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	page := dashboardPage(toSummaryResponse(summary), s.service.ImportStatus(), s.now().UTC())
	if err := page.Render(r.Context(), w); err != nil {
		s.respondError(w, r, err)
	}
}

func formatCount(n int64) string {
	return strconv.FormatInt(n, 10)
}

func formatImports(st core.ImportLimiterStatus) string {
	return fmt.Sprintf("%d of %d", st.Active, st.MaxConcurrent)
}

func sortedKeys(counts map[string]int64) []string {
	return slices.Sorted(maps.Keys(counts))
}
