// Package report composes the final research report and manages its
// citation list.
package report

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/infoquestai/infoquest/pkg/models"
)

// Citation is one numbered reference in the final report.
type Citation struct {
	Number int
	URL    string
	Title  string
	Domain string
}

// Collector assigns stable citation numbers to sources, deduplicating by
// URL. Numbers follow first-seen order.
type Collector struct {
	byURL map[string]int
	list  []Citation
}

// NewCollector creates an empty citation collector.
func NewCollector() *Collector {
	return &Collector{byURL: make(map[string]int)}
}

// Add records a source and returns its citation number. A URL seen
// before keeps its original number; later titles do not overwrite the
// first one.
func (c *Collector) Add(src models.Source) int {
	u := strings.TrimSpace(src.URL)
	if u == "" {
		return 0
	}
	if n, ok := c.byURL[u]; ok {
		return n
	}

	n := len(c.list) + 1
	c.byURL[u] = n
	c.list = append(c.list, Citation{
		Number: n,
		URL:    u,
		Title:  strings.TrimSpace(src.Title),
		Domain: domainOf(u),
	})
	return n
}

// AddAll records every source of a task's evidence in order.
func (c *Collector) AddAll(evidence []models.Source) {
	for _, src := range evidence {
		c.Add(src)
	}
}

// Citations returns the collected references in number order.
func (c *Collector) Citations() []Citation {
	return c.list
}

// Markdown renders the references section, or an empty string when no
// sources were collected.
func (c *Collector) Markdown() string {
	if len(c.list) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("## References\n\n")
	for _, cit := range c.list {
		title := cit.Title
		if title == "" {
			title = cit.Domain
		}
		fmt.Fprintf(&sb, "%d. [%s](%s)\n", cit.Number, title, cit.URL)
	}
	return sb.String()
}

// domainOf extracts the host for display, dropping a www prefix.
func domainOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return strings.TrimPrefix(u.Host, "www.")
}
