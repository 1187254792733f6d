package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/neurotutor-backend/internal/platform/ctxutil"
	"github.com/yungbote/neurotutor-backend/internal/platform/logger"
)

const maxErrorBodyBytes = 1024

var pointIDNamespace = uuid.MustParse("6b0d8f1e-7c4a-4b7e-9a57-2f1c3e8d4a10")

// Point is a stored vector with its payload.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// Hit is one search result.
type Hit struct {
	ID      string
	Score   float64
	Payload map[string]any
}

// PayloadString returns payload[key] as a string, or "".
func (h Hit) PayloadString(key string) string {
	switch v := h.Payload[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

type SearchParams struct {
	TopK           int
	ScoreThreshold float64
	Filter         *Filter
}

type Client struct {
	log     *logger.Logger
	cfg     Config
	baseURL string
	http    *http.Client
}

type envelope struct {
	Result json.RawMessage `json:"result"`
	Status json.RawMessage `json:"status"`
	Time   float64         `json:"time"`
}

type searchItem struct {
	ID      json.RawMessage `json:"id"`
	Score   float64         `json:"score"`
	Payload map[string]any  `json:"payload"`
}

func New(log *logger.Logger, cfg Config, httpClient *http.Client) (*Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		log:     log.With("service", "QdrantClient"),
		cfg:     cfg,
		baseURL: strings.TrimRight(cfg.URL, "/"),
		http:    httpClient,
	}, nil
}

func (c *Client) Collection() string { return c.cfg.Collection }

// Search returns up to TopK hits scoring at least ScoreThreshold, best first.
func (c *Client) Search(ctx context.Context, vector []float32, p SearchParams) ([]Hit, error) {
	const op = "search"
	if len(vector) == 0 {
		return nil, opErr(op, OperationErrorValidation, "query vector required", nil)
	}
	if c.cfg.VectorDim > 0 && len(vector) != c.cfg.VectorDim {
		return nil, opErr(op, OperationErrorValidation,
			fmt.Sprintf("query vector dimension mismatch: expected=%d got=%d", c.cfg.VectorDim, len(vector)), nil)
	}
	if p.TopK <= 0 {
		p.TopK = 3
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        p.TopK,
		"with_payload": true,
		"with_vector":  false,
	}
	if p.ScoreThreshold > 0 {
		req["score_threshold"] = p.ScoreThreshold
	}
	if p.Filter != nil && len(p.Filter.Must) > 0 {
		req["filter"] = p.Filter
	}
	var items []searchItem
	if err := c.doJSON(ctx, op, http.MethodPost, c.collectionPath("/points/search"), req, &items); err != nil {
		return nil, err
	}
	out := make([]Hit, 0, len(items))
	for _, it := range items {
		if it.Score < p.ScoreThreshold {
			continue
		}
		out = append(out, Hit{ID: decodePointID(it.ID), Score: it.Score, Payload: it.Payload})
	}
	return out, nil
}

// Upsert writes points, deriving a stable UUID point id from each Point.ID.
func (c *Client) Upsert(ctx context.Context, points []Point) error {
	const op = "upsert"
	if len(points) == 0 {
		return nil
	}
	body := make([]map[string]any, 0, len(points))
	for _, p := range points {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			return opErr(op, OperationErrorValidation, "point id is required", nil)
		}
		if len(p.Vector) == 0 {
			return opErr(op, OperationErrorValidation, fmt.Sprintf("point %q has empty vector", id), nil)
		}
		if c.cfg.VectorDim > 0 && len(p.Vector) != c.cfg.VectorDim {
			return opErr(op, OperationErrorValidation,
				fmt.Sprintf("point %q dimension mismatch: expected=%d got=%d", id, c.cfg.VectorDim, len(p.Vector)), nil)
		}
		payload := make(map[string]any, len(p.Payload)+1)
		for k, v := range p.Payload {
			payload[k] = v
		}
		payload["source_id"] = id
		body = append(body, map[string]any{
			"id":      PointID(id),
			"vector":  p.Vector,
			"payload": payload,
		})
	}
	return c.doJSON(ctx, op, http.MethodPut, c.collectionPath("/points?wait=true"), map[string]any{"points": body}, nil)
}

// EnsureCollection creates the collection with cosine distance when it does
// not exist, and checks its vector size when it does.
func (c *Client) EnsureCollection(ctx context.Context, dim int) error {
	const op = "ensure_collection"
	var info struct {
		Config struct {
			Params struct {
				Vectors struct {
					Size int `json:"size"`
				} `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	}
	err := c.doJSON(ctx, op, http.MethodGet, c.collectionPath(""), nil, &info)
	switch {
	case err == nil:
		if size := info.Config.Params.Vectors.Size; size != 0 && dim > 0 && size != dim {
			return opErr(op, OperationErrorValidation,
				fmt.Sprintf("collection %q vector size mismatch: expected=%d actual=%d", c.cfg.Collection, dim, size), nil)
		}
		return nil
	case IsNotFound(err):
		if dim <= 0 {
			return opErr(op, OperationErrorValidation, "vector dimension required to create collection", nil)
		}
		req := map[string]any{"vectors": map[string]any{"size": dim, "distance": "Cosine"}}
		if err := c.doJSON(ctx, op, http.MethodPut, c.collectionPath(""), req, nil); err != nil {
			return err
		}
		c.log.Info("Qdrant collection created", "collection", c.cfg.Collection, "vector_dim", dim)
		return nil
	default:
		return err
	}
}

// Ready calls /readyz.
func (c *Client) Ready(ctx context.Context) error {
	const op = "ready"
	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), http.MethodGet, c.baseURL+"/readyz", nil)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "build request failed", err)
	}
	c.setAuth(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return classifyCallError(op, err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &OperationError{Code: OperationErrorQueryFailed, Operation: op, StatusCode: resp.StatusCode,
			Message: fmt.Sprintf("ready check returned status=%d", resp.StatusCode)}
	}
	return nil
}

// PointID maps an arbitrary source id to the UUID Qdrant stores.
func PointID(sourceID string) string {
	return uuid.NewSHA1(pointIDNamespace, []byte(sourceID)).String()
}

func (c *Client) setAuth(req *http.Request) {
	if c.cfg.APIKey != "" {
		req.Header.Set("api-key", c.cfg.APIKey)
	}
}

func (c *Client) collectionPath(suffix string) string {
	return "/collections/" + c.cfg.Collection + suffix
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return opErr(op, OperationErrorEncodeFailed, "encode request failed", err)
		}
		body = &buf
	}
	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), method, c.baseURL+path, body)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "build request failed", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyCallError(op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return opErr(op, OperationErrorDecodeFailed, "read response failed", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return &OperationError{Code: OperationErrorNotFound, Operation: op, StatusCode: resp.StatusCode, Message: truncateBody(raw)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &OperationError{Code: OperationErrorQueryFailed, Operation: op, StatusCode: resp.StatusCode,
			Message: fmt.Sprintf("http status=%d body=%q", resp.StatusCode, truncateBody(raw))}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode envelope failed", err)
	}
	if msg := envelopeStatusError(env.Status); msg != "" {
		return &OperationError{Code: OperationErrorQueryFailed, Operation: op, StatusCode: resp.StatusCode, Message: msg}
	}
	if out == nil || len(env.Result) == 0 || string(env.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode result failed", err)
	}
	return nil
}

func envelopeStatusError(raw json.RawMessage) string {
	status := strings.TrimSpace(string(raw))
	if status == "" || status == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if strings.EqualFold(s, "ok") {
			return ""
		}
		return fmt.Sprintf("status=%q", s)
	}
	var obj struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && strings.TrimSpace(obj.Error) != "" {
		return strings.TrimSpace(obj.Error)
	}
	return "status=" + status
}

func decodePointID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return fmt.Sprint(n)
	}
	return strings.TrimSpace(string(raw))
}

func truncateBody(raw []byte) string {
	if len(raw) <= maxErrorBodyBytes {
		return string(raw)
	}
	return string(raw[:maxErrorBodyBytes]) + "..."
}
