package tutor

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/yungbote/neurotutor-backend/internal/platform/imagesearch"
	"github.com/yungbote/neurotutor-backend/internal/platform/logger"
)

type fakeImages struct {
	mu      sync.Mutex
	results map[string][]imagesearch.Image
	fail    map[string]bool
	queries []string
}

func (f *fakeImages) SearchImages(ctx context.Context, q string) ([]imagesearch.Image, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	if f.fail[q] {
		return nil, errors.New("quota exceeded")
	}
	return f.results[q], nil
}

func TestImagePlaceholders(t *testing.T) {
	text := `Intro <img alt="labeled diagram of a shadow"/> then
<IMG src="x" ALT="umbra &amp; penumbra" /> and <img alt="Labeled diagram of a shadow"/> <img alt=""/>`
	got := ImagePlaceholders(text)
	want := []string{"labeled diagram of a shadow", "umbra & penumbra"}
	if len(got) != len(want) {
		t.Fatalf("got %q", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got[%d]=%q want %q", i, got[i], want[i])
		}
	}
}

func TestMediaFinderFind(t *testing.T) {
	search := &fakeImages{
		results: map[string][]imagesearch.Image{
			"a": {{Title: "one", Link: "http://x/1.png"}, {Title: "two", Link: "http://x/2.png"}, {Title: "three", Link: "http://x/3.png"}},
			"b": {{Title: "two", Link: "http://y/2.png"}, {Title: "four", Link: "http://y/4.jpg"}},
			"d": {{Title: "never", Link: "http://z/n.png"}},
		},
		fail: map[string]bool{"c": true},
	}
	f := NewMediaFinder(logger.Nop(), search, 3, 2)
	text := `<img alt="a"/> <img alt="b"/> <img alt="c"/> <img alt="d"/>`

	got := f.Find(context.Background(), text, "ignored")
	titles := make([]string, len(got))
	for i, m := range got {
		titles[i] = m.Title
	}
	want := []string{"one", "two", "four"}
	if len(titles) != len(want) {
		t.Fatalf("titles=%v", titles)
	}
	for i := range want {
		if titles[i] != want[i] {
			t.Fatalf("titles=%v want %v", titles, want)
		}
	}
	if got[2].Query != "b" {
		t.Fatalf("query not recorded: %+v", got[2])
	}
	if len(search.queries) != 3 {
		t.Fatalf("expected at most 3 queries, got %v", search.queries)
	}
}

func TestMediaFinderFallbackQuery(t *testing.T) {
	search := &fakeImages{results: map[string][]imagesearch.Image{"photosynthesis": {{Title: "leaf", Link: "http://x/leaf.png"}}}}
	f := NewMediaFinder(logger.Nop(), search, 0, 0)

	got := f.Find(context.Background(), "no placeholders here", " photosynthesis ")
	if len(got) != 1 || got[0].Title != "leaf" {
		t.Fatalf("got %+v", got)
	}

	var nilFinder *MediaFinder
	if nilFinder.Find(context.Background(), "x", "y") != nil {
		t.Fatalf("nil finder should return nil")
	}
}
