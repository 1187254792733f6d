package tutor

import (
	"context"
	"html"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/neurotutor-backend/internal/domain/tutor"
	"github.com/yungbote/neurotutor-backend/internal/platform/imagesearch"
	"github.com/yungbote/neurotutor-backend/internal/platform/logger"
)

var imgAltPattern = regexp.MustCompile(`(?i)<img\s[^>]*?alt\s*=\s*"([^"]*)"[^>]*?/?>`)

// ImagePlaceholders returns the alt texts of <img alt="..."/> tags in order,
// without duplicates.
func ImagePlaceholders(text string) []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range imgAltPattern.FindAllStringSubmatch(text, -1) {
		q := strings.TrimSpace(html.UnescapeString(m[1]))
		key := strings.ToLower(q)
		if q == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, q)
	}
	return out
}

// MediaFinder looks up illustrative images for an explanation.
type MediaFinder struct {
	log        *logger.Logger
	search     imagesearch.Searcher
	maxQueries int
	perQuery   int
}

func NewMediaFinder(log *logger.Logger, search imagesearch.Searcher, maxQueries, perQuery int) *MediaFinder {
	if maxQueries <= 0 {
		maxQueries = 3
	}
	if perQuery <= 0 {
		perQuery = 2
	}
	return &MediaFinder{log: log.With("module", "MediaFinder"), search: search, maxQueries: maxQueries, perQuery: perQuery}
}

// Find queries the image backend once per placeholder in the explanation
// (or once with fallbackQuery when there are none). Failed lookups are
// logged and skipped; results keep query order and are unique by title.
func (f *MediaFinder) Find(ctx context.Context, explanation, fallbackQuery string) []tutor.Media {
	if f == nil || f.search == nil {
		return nil
	}
	queries := ImagePlaceholders(explanation)
	if len(queries) == 0 && strings.TrimSpace(fallbackQuery) != "" {
		queries = []string{strings.TrimSpace(fallbackQuery)}
	}
	if len(queries) > f.maxQueries {
		queries = queries[:f.maxQueries]
	}
	if len(queries) == 0 {
		return nil
	}

	results := make([][]imagesearch.Image, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.maxQueries)
	for i, q := range queries {
		g.Go(func() error {
			imgs, err := f.search.SearchImages(gctx, q)
			if err != nil {
				f.log.Warn("image search failed", "query", q, "error", err)
				return nil
			}
			results[i] = imgs
			return nil
		})
	}
	_ = g.Wait()

	var out []tutor.Media
	seen := map[string]bool{}
	for i, imgs := range results {
		taken := 0
		for _, img := range imgs {
			if taken >= f.perQuery {
				break
			}
			if seen[img.Title] {
				continue
			}
			seen[img.Title] = true
			out = append(out, tutor.Media{Title: img.Title, Link: img.Link, Query: queries[i]})
			taken++
		}
	}
	return out
}
