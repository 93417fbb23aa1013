package prompt

import "fmt"

// CitationEntry pairs a citation number with a display name and the first
// locator that produced it.
type CitationEntry struct {
	Number  int
	Display string
	Locator string
}

// CitationRegistry assigns stable 1-based numbers to source documents,
// deduplicated by display name. The same registry backs both the prompt
// construction pass and the final citation list, so bracket numbers quoted
// inside the generated answer and the displayed citations always agree.
type CitationRegistry struct {
	entries         []CitationEntry
	numberByDisplay map[string]int
}

// NewCitationRegistry builds the numbering from an ordered list of locators,
// possibly containing repeats. Numbers are assigned by first-seen display
// name starting at 1; two distinct locators that format to the same display
// name collapse to one citation.
func NewCitationRegistry(locators []string) *CitationRegistry {
	r := &CitationRegistry{
		numberByDisplay: make(map[string]int, len(locators)),
	}
	for _, loc := range locators {
		display := FormatSourceURI(loc)
		if _, seen := r.numberByDisplay[display]; seen {
			continue
		}
		n := len(r.entries) + 1
		r.numberByDisplay[display] = n
		r.entries = append(r.entries, CitationEntry{Number: n, Display: display, Locator: loc})
	}
	return r
}

// Entries returns the deduplicated citations in first-seen order.
func (r *CitationRegistry) Entries() []CitationEntry {
	return r.entries
}

// NumberFor returns the citation number for a locator, via its display
// name. Locators never registered return 0.
func (r *CitationRegistry) NumberFor(locator string) int {
	return r.numberByDisplay[FormatSourceURI(locator)]
}

// Len returns the number of distinct citations.
func (r *CitationRegistry) Len() int {
	return len(r.entries)
}

// DisplayList renders the citation list for the API, one "[n] - name" line
// per entry in first-seen order.
func (r *CitationRegistry) DisplayList() []string {
	list := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		list = append(list, fmt.Sprintf("[%d] - %s", e.Number, e.Display))
	}
	return list
}
