package report

import (
	"strings"
	"testing"

	"github.com/infoquestai/infoquest/pkg/models"
)

func TestCollectorDeduplicatesByURL(t *testing.T) {
	c := NewCollector()

	n1 := c.Add(models.Source{URL: "https://example.com/a", Title: "First"})
	n2 := c.Add(models.Source{URL: "https://example.com/b", Title: "Second"})
	n3 := c.Add(models.Source{URL: "https://example.com/a", Title: "First again, different title"})

	if n1 != 1 || n2 != 2 {
		t.Errorf("numbers = %d, %d", n1, n2)
	}
	if n3 != 1 {
		t.Errorf("duplicate URL got number %d, want 1", n3)
	}

	cits := c.Citations()
	if len(cits) != 2 {
		t.Fatalf("got %d citations, want 2", len(cits))
	}
	if cits[0].Title != "First" {
		t.Errorf("later title overwrote the original: %q", cits[0].Title)
	}
}

func TestCollectorStableNumbering(t *testing.T) {
	c := NewCollector()
	urls := []string{"https://a.test/1", "https://b.test/2", "https://c.test/3"}
	for _, u := range urls {
		c.Add(models.Source{URL: u})
	}

	for i, cit := range c.Citations() {
		if cit.Number != i+1 {
			t.Errorf("citation %d numbered %d", i, cit.Number)
		}
		if cit.URL != urls[i] {
			t.Errorf("citation %d url = %q, first-seen order lost", i, cit.URL)
		}
	}
}

func TestCollectorSkipsEmptyURL(t *testing.T) {
	c := NewCollector()
	if n := c.Add(models.Source{Title: "no url"}); n != 0 {
		t.Errorf("empty URL got number %d", n)
	}
	if len(c.Citations()) != 0 {
		t.Error("empty URL was collected")
	}
}

func TestDomainOf(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.reuters.com/article/x", "reuters.com"},
		{"https://blog.example.org/post", "blog.example.org"},
		{"not a url", "not a url"},
	}
	for _, tt := range tests {
		if got := domainOf(tt.url); got != tt.want {
			t.Errorf("domainOf(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestMarkdown(t *testing.T) {
	c := NewCollector()
	if c.Markdown() != "" {
		t.Error("empty collector should render nothing")
	}

	c.Add(models.Source{URL: "https://example.com/a", Title: "A Study"})
	c.Add(models.Source{URL: "https://www.example.org/b"})

	md := c.Markdown()
	if !strings.Contains(md, "## References") {
		t.Error("missing section heading")
	}
	if !strings.Contains(md, "1. [A Study](https://example.com/a)") {
		t.Errorf("missing titled entry:\n%s", md)
	}
	// Untitled sources fall back to the domain.
	if !strings.Contains(md, "2. [example.org](https://www.example.org/b)") {
		t.Errorf("missing domain fallback entry:\n%s", md)
	}
}
