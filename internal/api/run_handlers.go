package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mirrorlake/pinharvest/internal/progress"
	"github.com/mirrorlake/pinharvest/internal/store"
)

const (
	defaultTopicLimit = 100
	maxTopicLimit     = 1000
	historyTimeout    = 3 * time.Second
)

// currentRun handles GET /v1/run. It returns the live snapshot of the run in
// flight with the per-category breakdown, or 503 when no run is active.
func (s *Server) currentRun(w http.ResponseWriter, _ *http.Request) {
	if s.tracker == nil {
		s.writeError(w, http.StatusServiceUnavailable, "no run in flight")
		return
	}
	snap := s.tracker.Snapshot()
	s.writeJSON(w, http.StatusOK, currentRunDTO{
		RunID:     s.runID,
		Run:       snap,
		Breakdown: snap.Breakdown(),
	})
}

// getRun handles GET /v1/runs/{run_id}. It returns {"run": {...}} on success,
// 400 for malformed IDs, 404 when the repository reports store.ErrNotFound,
// 503 if no repository is configured, or 500 otherwise.
func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		s.writeError(w, http.StatusServiceUnavailable, "run repository unavailable")
		return
	}
	runID, err := parseRunID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), historyTimeout)
	defer cancel()

	run, err := s.runs.GetRun(ctx, runID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "run not found")
			return
		}
		s.logger.Error("Get run failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to load run")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"run": toRunDTO(run)})
}

// listRunTopics handles GET /v1/runs/{run_id}/topics?limit=&offset=. It
// returns {"topics": [...]} on success, 400 for invalid query parameters, 503
// when the repository is missing, or 500 for repository errors.
func (s *Server) listRunTopics(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		s.writeError(w, http.StatusServiceUnavailable, "run repository unavailable")
		return
	}
	runID, err := parseRunID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, offset, err := parseLimitOffset(r, defaultTopicLimit, maxTopicLimit)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), historyTimeout)
	defer cancel()

	topics, err := s.runs.ListRunTopics(ctx, runID, limit, offset)
	if err != nil {
		s.logger.Error("List run topics failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to list run topics")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"topics": toTopicDTOs(topics)})
}

func parseRunID(r *http.Request) (uuid.UUID, error) {
	runIDStr := chi.URLParam(r, "run_id")
	if runIDStr == "" {
		return uuid.UUID{}, errors.New("run_id is required")
	}
	runID, err := uuid.Parse(runIDStr)
	if err != nil {
		return uuid.UUID{}, errors.New("invalid run_id")
	}
	return runID, nil
}

func parseLimitOffset(r *http.Request, def, maxLimit int) (int, int, error) {
	q := r.URL.Query()
	limit := def
	if limStr := q.Get("limit"); limStr != "" {
		val, err := strconv.Atoi(limStr)
		if err != nil || val <= 0 {
			return 0, 0, errors.New("invalid limit")
		}
		if val > maxLimit {
			val = maxLimit
		}
		limit = val
	}
	offset := 0
	if offStr := q.Get("offset"); offStr != "" {
		val, err := strconv.Atoi(offStr)
		if err != nil || val < 0 {
			return 0, 0, errors.New("invalid offset")
		}
		offset = val
	}
	return limit, offset, nil
}

func toRunDTO(run store.RunRecord) runDTO {
	dto := runDTO{
		ID:              run.ID.String(),
		StartedAt:       run.StartedAt,
		Status:          string(run.Status),
		CompletedTopics: run.CompletedTopics,
		FailedTopics:    run.FailedTopics,
		AcceptedTotal:   run.AcceptedTotal,
	}
	if run.FinishedAt != nil {
		dto.FinishedAt = run.FinishedAt
	}
	return dto
}

func toTopicDTOs(in []store.TopicRecord) []topicDTO {
	out := make([]topicDTO, 0, len(in))
	for _, t := range in {
		out = append(out, topicDTO{
			Category:   t.Category,
			Topic:      t.Topic,
			Status:     t.Status,
			Accepted:   t.Accepted,
			RecordedAt: t.RecordedAt,
		})
	}
	return out
}

type currentRunDTO struct {
	RunID     string                   `json:"run_id"`
	Run       progress.Snapshot        `json:"run"`
	Breakdown []progress.CategoryCount `json:"breakdown"`
}

type runDTO struct {
	ID              string     `json:"id"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
	Status          string     `json:"status"`
	CompletedTopics int        `json:"completed_topics"`
	FailedTopics    int        `json:"failed_topics"`
	AcceptedTotal   int64      `json:"accepted_total"`
}

type topicDTO struct {
	Category   string    `json:"category"`
	Topic      string    `json:"topic"`
	Status     string    `json:"status"`
	Accepted   int64     `json:"accepted"`
	RecordedAt time.Time `json:"recorded_at"`
}
