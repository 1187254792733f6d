package imagesearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yungbote/neurotutor-backend/internal/platform/logger"
)

func TestFilterImages(t *testing.T) {
	in := []Image{
		{Title: "Water cycle", Link: "https://x/a.PNG"},
		{Title: "Water cycle", Link: "https://x/b.png"},
		{Title: "Evaporation", Link: "https://x/page.html"},
		{Title: "Condensation", Link: "https://x/c.jpeg"},
		{Title: "Rain", Link: "https://x/d.gif"},
		{Title: "Snow", Link: "https://x/e.webp"},
	}
	got := FilterImages(in)
	want := []string{"https://x/a.PNG", "https://x/c.jpeg", "https://x/d.gif"}
	if len(got) != len(want) {
		t.Fatalf("got %+v", got)
	}
	for i := range want {
		if got[i].Link != want[i] {
			t.Fatalf("item %d: got %s want %s", i, got[i].Link, want[i])
		}
	}
}

func TestSearchImagesQueriesCSE(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{"q": q.Get("q"), "cx": q.Get("cx"), "searchType": q.Get("searchType"), "num": q.Get("num")}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{"title": "Newton", "link": "https://img/newton.jpg"},
				{"title": "Newton", "link": "https://img/newton2.jpg"},
				{"title": "Doc", "link": "https://img/doc.pdf"},
			},
		})
	}))
	defer srv.Close()

	c, err := New(context.Background(), logger.Nop(), Config{CX: "cx-1", NumResults: 5, Endpoint: srv.URL + "/"}, srv.Client())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	imgs, err := c.SearchImages(context.Background(), "newton first law diagram")
	if err != nil {
		t.Fatalf("SearchImages: %v", err)
	}
	if len(imgs) != 1 || imgs[0].Link != "https://img/newton.jpg" {
		t.Fatalf("imgs=%+v", imgs)
	}
	if gotQuery["q"] != "newton first law diagram" || gotQuery["cx"] != "cx-1" || gotQuery["searchType"] != "image" || gotQuery["num"] != "5" {
		t.Fatalf("query=%v", gotQuery)
	}
}

func TestSearchImagesBlankQuery(t *testing.T) {
	c := &Client{cfg: Config{CX: "cx"}}
	imgs, err := c.SearchImages(context.Background(), "  ")
	if err != nil || imgs != nil {
		t.Fatalf("imgs=%v err=%v", imgs, err)
	}
}
