// Package server exposes the ingestion pipelines over HTTP: one trigger
// route per mode plus read endpoints for health and the run ledger.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"vlr-pipeline/internal/constants"
	"vlr-pipeline/internal/repository"
	"vlr-pipeline/internal/service"
)

type IngestServer struct {
	stats        *service.StatsService
	matches      *service.MatchResultsService
	events       *service.EventsService
	rankings     *service.RankingsService
	detail       *service.MatchDetailService
	orchestrator *service.Orchestrator
	ledger       *repository.LedgerRepository
	logger       zerolog.Logger
}

func NewIngestServer(
	stats *service.StatsService,
	matches *service.MatchResultsService,
	events *service.EventsService,
	rankings *service.RankingsService,
	detail *service.MatchDetailService,
	orchestrator *service.Orchestrator,
	ledger *repository.LedgerRepository,
	logger zerolog.Logger,
) *IngestServer {
	return &IngestServer{
		stats:        stats,
		matches:      matches,
		events:       events,
		rankings:     rankings,
		detail:       detail,
		orchestrator: orchestrator,
		ledger:       ledger,
		logger:       logger,
	}
}

// Routes registers every endpoint on the router. Trigger routes are POST;
// the pipelines they start run synchronously within the request.
func (s *IngestServer) Routes(r *mux.Router) {
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/runs", s.handleRuns).Methods(http.MethodGet)

	r.HandleFunc("/ingest/stats", s.handleStats).Methods(http.MethodPost)
	r.HandleFunc("/ingest/matches", s.handleMatches).Methods(http.MethodPost)
	r.HandleFunc("/ingest/events", s.handleEvents).Methods(http.MethodPost)
	r.HandleFunc("/ingest/rankings", s.handleRankings).Methods(http.MethodPost)
	r.HandleFunc("/ingest/match/{id:[0-9]+}", s.handleMatchDetail).Methods(http.MethodPost)
	r.HandleFunc("/ingest/catchup", s.handleCatchUp).Methods(http.MethodPost)
	r.HandleFunc("/ingest/full", s.handleFull).Methods(http.MethodPost)
}

func (s *IngestServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *IngestServer) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	entries, err := s.ledger.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to read run ledger")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to read run ledger"})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *IngestServer) handleStats(w http.ResponseWriter, r *http.Request) {
	region := queryString(r, "region", "na")
	timespan := queryString(r, "timespan", "30")
	writeSummary(w, s.stats.Ingest(r.Context(), region, timespan))
}

func (s *IngestServer) handleMatches(w http.ResponseWriter, r *http.Request) {
	writeSummary(w, s.matches.Ingest(r.Context()))
}

func (s *IngestServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	status := queryString(r, "status", "completed")
	writeSummary(w, s.events.Ingest(r.Context(), status))
}

func (s *IngestServer) handleRankings(w http.ResponseWriter, r *http.Request) {
	region := queryString(r, "region", "na")
	writeSummary(w, s.rankings.Ingest(r.Context(), region))
}

func (s *IngestServer) handleMatchDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "match id must be numeric"})
		return
	}
	slug := queryString(r, "slug", "")
	writeSummary(w, s.detail.Ingest(r.Context(), id, slug))
}

func (s *IngestServer) handleCatchUp(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", constants.CatchUpDefaultLimit)
	// the backlog can outlive the request deadline; run detached
	writeSummary(w, s.orchestrator.CatchUp(context.WithoutCancel(r.Context()), limit))
}

func (s *IngestServer) handleFull(w http.ResponseWriter, r *http.Request) {
	writeSummary(w, s.orchestrator.FullRun(context.WithoutCancel(r.Context())))
}

func writeSummary(w http.ResponseWriter, sum service.Summary) {
	status := http.StatusOK
	if sum.Error != "" {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, sum)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func queryString(r *http.Request, key, fallback string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return fallback
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
