// Package imagesearch finds illustrative images for tutor answers through
// Google Programmable Search.
package imagesearch

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/yungbote/neurotutor-backend/internal/platform/envutil"
	"github.com/yungbote/neurotutor-backend/internal/platform/logger"
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif"}

type Image struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

type Config struct {
	APIKey     string
	CX         string
	NumResults int
	// Endpoint overrides the API base URL (tests).
	Endpoint string
}

func ConfigFromEnv() Config {
	return Config{
		APIKey:     envutil.String("GOOGLE_SEARCH_API_KEY", ""),
		CX:         envutil.String("GOOGLE_SEARCH_CX", ""),
		NumResults: envutil.Int("GOOGLE_SEARCH_NUM_RESULTS", 10),
	}
}

func (c Config) Enabled() bool {
	return strings.TrimSpace(c.APIKey) != "" && strings.TrimSpace(c.CX) != ""
}

// Searcher is what the tutor needs from an image backend.
type Searcher interface {
	SearchImages(ctx context.Context, query string) ([]Image, error)
}

type Client struct {
	log *logger.Logger
	svc *customsearch.Service
	cfg Config
}

func New(ctx context.Context, log *logger.Logger, cfg Config, httpClient *http.Client) (*Client, error) {
	if strings.TrimSpace(cfg.CX) == "" {
		return nil, fmt.Errorf("GOOGLE_SEARCH_CX is required")
	}
	if cfg.NumResults <= 0 || cfg.NumResults > 10 {
		cfg.NumResults = 10
	}
	var opts []option.ClientOption
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	} else {
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, fmt.Errorf("GOOGLE_SEARCH_API_KEY is required")
		}
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create customsearch service: %w", err)
	}
	return &Client{log: log.With("service", "ImageSearch"), svc: svc, cfg: cfg}, nil
}

// SearchImages returns image results whose links end in a known raster
// extension, keeping the first result per title.
func (c *Client) SearchImages(ctx context.Context, query string) ([]Image, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	res, err := c.svc.Cse.List().
		Q(query).
		Cx(c.cfg.CX).
		Num(int64(c.cfg.NumResults)).
		SearchType("image").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("image search %q: %w", query, err)
	}
	items := make([]Image, 0, len(res.Items))
	for _, it := range res.Items {
		if it == nil {
			continue
		}
		items = append(items, Image{Title: it.Title, Link: it.Link})
	}
	return FilterImages(items), nil
}

// FilterImages drops non-image links and repeated titles, preserving order.
func FilterImages(items []Image) []Image {
	seen := make(map[string]struct{}, len(items))
	out := make([]Image, 0, len(items))
	for _, it := range items {
		if !hasImageExtension(it.Link) {
			continue
		}
		if _, dup := seen[it.Title]; dup {
			continue
		}
		seen[it.Title] = struct{}{}
		out = append(out, it)
	}
	return out
}

func hasImageExtension(link string) bool {
	l := strings.ToLower(strings.TrimSpace(link))
	for _, ext := range imageExtensions {
		if strings.HasSuffix(l, ext) {
			return true
		}
	}
	return false
}
