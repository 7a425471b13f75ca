package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mirrorlake/pinharvest/internal/store"
)

type exampleRunRepo struct {
	run store.RunRecord
}

func (e *exampleRunRepo) StartRun(context.Context, uuid.UUID, time.Time) error { return nil }

func (e *exampleRunRepo) RecordTopicCompletion(
	context.Context, uuid.UUID, string, string, string, int64, time.Time,
) error {
	return nil
}

func (e *exampleRunRepo) CompleteRun(context.Context, uuid.UUID, time.Time, int, int, int64) error {
	return nil
}

func (e *exampleRunRepo) GetRun(context.Context, uuid.UUID) (store.RunRecord, error) {
	return e.run, nil
}

func (e *exampleRunRepo) ListRunTopics(context.Context, uuid.UUID, int, int) ([]store.TopicRecord, error) {
	return nil, nil
}

// ExampleServer shows how to serve the run history endpoint.
func ExampleServer() {
	runID := uuid.MustParse("00000000-0000-0000-0000-0000000000aa")
	repo := &exampleRunRepo{
		run: store.RunRecord{
			ID:              runID,
			StartedAt:       time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC),
			Status:          store.RunCompleted,
			CompletedTopics: 3,
			AcceptedTotal:   120,
		},
	}
	server := NewServer(runID.String(), nil, repo, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/v1/runs/"+runID.String(), nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	var body struct {
		Run runDTO `json:"run"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	fmt.Println(rec.Code)
	fmt.Println(body.Run.ID, body.Run.Status, body.Run.AcceptedTotal)
	// Output:
	// 200
	// 00000000-0000-0000-0000-0000000000aa completed 120
}
