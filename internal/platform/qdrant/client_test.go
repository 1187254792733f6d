package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/yungbote/neurotutor-backend/internal/platform/logger"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func newTestClient(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()
	c, err := New(logger.Nop(), Config{
		URL:        "http://qdrant.local",
		APIKey:     "secret",
		Collection: "curriculum",
		VectorDim:  3,
	}, &http.Client{Transport: rt})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func jsonResponse(t *testing.T, status int, payload any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return &http.Response{StatusCode: status, Header: make(http.Header), Body: io.NopCloser(bytes.NewReader(raw))}
}

func okResponse(t *testing.T, result any) *http.Response {
	return jsonResponse(t, http.StatusOK, map[string]any{"result": result, "status": "ok", "time": 0.001})
}

func TestSearchRequestShapeAndThreshold(t *testing.T) {
	var captured map[string]any
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		if r.Method != http.MethodPost || r.URL.Path != "/collections/curriculum/points/search" {
			t.Fatalf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("api-key") != "secret" {
			t.Fatalf("missing api-key header")
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return okResponse(t, []map[string]any{
			{"id": "a", "score": 0.91, "payload": map[string]any{"content": "Force is mass times acceleration.", "chapter": "Laws of Motion"}},
			{"id": 7, "score": 0.65, "payload": map[string]any{"content": "low"}},
		}), nil
	})

	hits, err := c.Search(context.Background(), []float32{1, 0, 0}, SearchParams{
		TopK:           3,
		ScoreThreshold: 0.7,
		Filter:         MatchFields(map[string]string{"grade": "10th", "board": ""}),
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "a" {
		t.Fatalf("hits=%+v", hits)
	}
	if hits[0].PayloadString("chapter") != "Laws of Motion" || hits[0].PayloadString("missing") != "" {
		t.Fatalf("payload=%v", hits[0].Payload)
	}
	if captured["limit"] != float64(3) || captured["score_threshold"] != 0.7 {
		t.Fatalf("body=%v", captured)
	}
	filter, ok := captured["filter"].(map[string]any)
	if !ok {
		t.Fatalf("filter missing: %v", captured)
	}
	must := filter["must"].([]any)
	if len(must) != 1 || must[0].(map[string]any)["key"] != "grade" {
		t.Fatalf("must=%v", must)
	}
}

func TestSearchValidatesDimension(t *testing.T) {
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		t.Fatalf("no request expected")
		return nil, nil
	})
	_, err := c.Search(context.Background(), []float32{1, 2}, SearchParams{})
	var op *OperationError
	if !errors.As(err, &op) || op.Code != OperationErrorValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSearchStatusErrors(t *testing.T) {
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(t, http.StatusOK, map[string]any{"status": map[string]any{"error": "collection broken"}}), nil
	})
	_, err := c.Search(context.Background(), []float32{1, 2, 3}, SearchParams{})
	var op *OperationError
	if !errors.As(err, &op) || op.Message != "collection broken" {
		t.Fatalf("expected envelope error, got %v", err)
	}
}

func TestUpsertStablePointIDs(t *testing.T) {
	var captured map[string]any
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		if r.Method != http.MethodPut || r.URL.RawQuery != "wait=true" {
			t.Fatalf("unexpected %s %s", r.Method, r.URL)
		}
		_ = json.NewDecoder(r.Body).Decode(&captured)
		return okResponse(t, map[string]any{"status": "acknowledged"}), nil
	})
	payload := map[string]any{"subject": "Physics"}
	if err := c.Upsert(context.Background(), []Point{{ID: "phy-1", Vector: []float32{1, 2, 3}, Payload: payload}}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	points := captured["points"].([]any)
	p := points[0].(map[string]any)
	if p["id"] != PointID("phy-1") || PointID("phy-1") != PointID("phy-1") {
		t.Fatalf("point id=%v", p["id"])
	}
	if p["payload"].(map[string]any)["source_id"] != "phy-1" {
		t.Fatalf("payload=%v", p["payload"])
	}
	if _, mutated := payload["source_id"]; mutated {
		t.Fatalf("input payload mutated")
	}
}

func TestEnsureCollectionCreatesWhenMissing(t *testing.T) {
	var created map[string]any
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		switch r.Method {
		case http.MethodGet:
			return jsonResponse(t, http.StatusNotFound, map[string]any{"status": map[string]any{"error": "Not found"}}), nil
		case http.MethodPut:
			_ = json.NewDecoder(r.Body).Decode(&created)
			return okResponse(t, true), nil
		}
		t.Fatalf("unexpected method %s", r.Method)
		return nil, nil
	})
	if err := c.EnsureCollection(context.Background(), 3); err != nil {
		t.Fatalf("EnsureCollection: %v", err)
	}
	vectors := created["vectors"].(map[string]any)
	if vectors["size"] != float64(3) || vectors["distance"] != "Cosine" {
		t.Fatalf("created=%v", created)
	}
}

func TestClassifyCallErrorTimeout(t *testing.T) {
	var op *OperationError
	if err := classifyCallError("search", context.DeadlineExceeded); !errors.As(err, &op) || op.Code != OperationErrorTimeout {
		t.Fatalf("expected timeout, got %v", err)
	}
	if err := classifyCallError("search", errors.New("boom")); !errors.As(err, &op) || op.Code != OperationErrorTransportFailed {
		t.Fatalf("expected transport, got %v", err)
	}
}
