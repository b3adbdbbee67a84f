package crawl

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"shopmigrate/internal/migrate"
)

// fakeFetcher serves canned HTML keyed by normalized URL.
type fakeFetcher struct {
	pages   map[string]string
	fetched []string
}

func (f *fakeFetcher) Fetch(_ context.Context, rawURL string) (string, error) {
	f.fetched = append(f.fetched, rawURL)
	body, ok := f.pages[rawURL]
	if !ok {
		return "", errors.New("not found")
	}
	return body, nil
}

func page(title string, links ...string) string {
	body := "<html><head><title>" + title + "</title></head><body>"
	for _, l := range links {
		body += fmt.Sprintf(`<a href="%s">link</a>`, l)
	}
	return body + "</body></html>"
}

func TestCrawlerRun(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"https://shop.com":                  page("Ana Sayfa", "/urun/mavi-gomlek", "/kategori/gomlek", "/checkout", "https://other.com/x"),
		"https://shop.com/urun/mavi-gomlek": page("Mavi Gömlek", "/urun/mavi-gomlek", "/"),
		"https://shop.com/kategori/gomlek":  page("Gömlekler", "/urun/mavi-gomlek"),
	}}
	c := New(f, Config{MaxPages: 10}, nil)

	pages, err := c.Run(context.Background(), "https://shop.com/")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(pages) != 3 {
		t.Fatalf("expected 3 pages, got %d: %+v", len(pages), pages)
	}

	byURL := make(map[string]migrate.CrawlPage)
	for _, p := range pages {
		byURL[p.URL] = p
	}
	if p := byURL["https://shop.com/urun/mavi-gomlek"]; p.PageType != migrate.PageTypeProduct {
		t.Fatalf("expected product page, got %+v", p)
	}
	if p := byURL["https://shop.com/urun/mavi-gomlek"]; p.Slug != "mavi-gomlek" {
		t.Fatalf("expected slug mavi-gomlek, got %q", p.Slug)
	}
	if p := byURL["https://shop.com/kategori/gomlek"]; p.PageType != migrate.PageTypeCategory {
		t.Fatalf("expected category page, got %+v", p)
	}

	for _, u := range f.fetched {
		if u == "https://shop.com/checkout" || u == "https://other.com/x" {
			t.Fatalf("excluded or foreign url was fetched: %s", u)
		}
	}
}

func TestCrawlerDeduplicatesByNormalizedURL(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"https://shop.com":   page("Ana Sayfa", "/x?utm=1", "/x#top", "/x"),
		"https://shop.com/x": page("X"),
	}}
	c := New(f, Config{MaxPages: 10}, nil)

	pages, err := c.Run(context.Background(), "https://shop.com")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	count := 0
	for _, u := range f.fetched {
		if u == "https://shop.com/x" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected /x fetched exactly once, fetched %d times", count)
	}
}

func TestCrawlerHonorsPageBudget(t *testing.T) {
	pages := map[string]string{
		"https://shop.com": page("Ana Sayfa", "/p/1", "/p/2", "/p/3", "/p/4", "/p/5"),
	}
	for i := 1; i <= 5; i++ {
		pages[fmt.Sprintf("https://shop.com/p/%d", i)] = page(fmt.Sprintf("P%d", i))
	}
	f := &fakeFetcher{pages: pages}
	c := New(f, Config{MaxPages: 3}, nil)

	got, err := c.Run(context.Background(), "https://shop.com")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected exactly 3 pages with budget 3, got %d", len(got))
	}
}

func TestCrawlerFollowsPagination(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"https://shop.com": `<html><head><title>List</title></head><body>` +
			`<a class="next" href="/liste/2">sonraki</a></body></html>`,
		"https://shop.com/liste/2": page("List 2"),
	}}
	c := New(f, Config{MaxPages: 10}, nil)

	got, err := c.Run(context.Background(), "https://shop.com")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected pagination link to be followed, got %d pages", len(got))
	}
}

func TestCrawlerStartURLUnreachable(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{}}
	c := New(f, Config{MaxPages: 10}, nil)

	if _, err := c.Run(context.Background(), "https://down.example.com"); err == nil {
		t.Fatal("expected error for unreachable start url")
	}
}

func TestCrawlerSkipsFailedPages(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"https://shop.com": page("Ana Sayfa", "/dead", "/alive"),
		// /dead missing on purpose
		"https://shop.com/alive": page("Alive"),
	}}
	c := New(f, Config{MaxPages: 10}, nil)

	got, err := c.Run(context.Background(), "https://shop.com")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected crawl to continue past fetch failure, got %d pages", len(got))
	}
}

func TestCrawlerOnPageCallback(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"https://shop.com": page("Ana Sayfa"),
	}}
	var seen []string
	c := New(f, Config{
		MaxPages: 5,
		OnPage: func(p migrate.CrawlPage, body string) {
			if body == "" {
				t.Error("expected page body in callback")
			}
			seen = append(seen, p.URL)
		},
	}, nil)

	if _, err := c.Run(context.Background(), "https://shop.com"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(seen) != 1 || seen[0] != "https://shop.com" {
		t.Fatalf("unexpected callback invocations: %v", seen)
	}
}
