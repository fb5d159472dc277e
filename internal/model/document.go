package model

import "strings"

// Document is a handle to one ingested invoice or manifest. Pages hold the
// per-page text layer; scanned documents with no text layer have empty pages
// and force the identification fallback chain.
type Document struct {
	ID       string   `json:"id"`
	Filename string   `json:"filename"`
	Pages    []string `json:"pages"`
}

// PageCount returns the number of pages.
func (d Document) PageCount() int {
	return len(d.Pages)
}

// Text returns the full text layer.
func (d Document) Text() string {
	return strings.Join(d.Pages, "\n")
}

// HasText reports whether any page carries non-blank text.
func (d Document) HasText() bool {
	for _, p := range d.Pages {
		if strings.TrimSpace(p) != "" {
			return true
		}
	}
	return false
}

// Sample returns the text of up to n leading pages, used for cheap survey and
// identification prompts.
func (d Document) Sample(n int) string {
	if n > len(d.Pages) {
		n = len(d.Pages)
	}
	return strings.Join(d.Pages[:n], "\n")
}
