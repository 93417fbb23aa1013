package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCitationRegistry_DeduplicatesByDisplayName(t *testing.T) {
	locators := []string{
		"s3://bucket/docs/Program_3.md",
		"s3://bucket/docs/Program_3.md",
		"s3://bucket/docs/Nutrition_Guide.pdf",
		"s3://bucket/docs/Program_3.md",
	}

	reg := NewCitationRegistry(locators)

	require.Equal(t, 2, reg.Len())
	entries := reg.Entries()
	assert.Equal(t, 1, entries[0].Number)
	assert.Equal(t, "Program 3", entries[0].Display)
	assert.Equal(t, 2, entries[1].Number)
	assert.Equal(t, "Nutrition Guide", entries[1].Display)

	assert.Equal(t, []string{"[1] - Program 3", "[2] - Nutrition Guide"}, reg.DisplayList())
}

// Distinct locators that format to the same display name collapse to one
// citation: dedup is by human-visible name, not raw locator identity.
func TestCitationRegistry_CollapsesSameDisplayName(t *testing.T) {
	locators := []string{
		"s3://bucket/documents/Program_3.md",
		"s3://bucket/backup/Program_3.md",
		"s3://bucket/other/Program_3.md",
	}

	reg := NewCitationRegistry(locators)

	require.Equal(t, 1, reg.Len())
	assert.Equal(t, "s3://bucket/documents/Program_3.md", reg.Entries()[0].Locator)
	assert.Equal(t, 1, reg.NumberFor("s3://bucket/backup/Program_3.md"))
	assert.Equal(t, 1, reg.NumberFor("s3://bucket/other/Program_3.md"))
}

func TestCitationRegistry_NumbersByFirstSeenOrder(t *testing.T) {
	locators := []string{
		"s3://bucket/docs/C.md",
		"s3://bucket/docs/A.md",
		"s3://bucket/docs/B.md",
		"s3://bucket/docs/A.md",
	}

	reg := NewCitationRegistry(locators)

	assert.Equal(t, 1, reg.NumberFor("s3://bucket/docs/C.md"))
	assert.Equal(t, 2, reg.NumberFor("s3://bucket/docs/A.md"))
	assert.Equal(t, 3, reg.NumberFor("s3://bucket/docs/B.md"))
}

// The same numbering must hold whether consumed while building the prompt
// or while formatting the final citation list.
func TestCitationRegistry_StableAcrossPasses(t *testing.T) {
	locators := []string{
		"s3://bucket/docs/Program_3.md",
		"s3://bucket/docs/Nutrition_Guide.pdf",
		"s3://bucket/docs/Program_3.md",
	}

	reg := NewCitationRegistry(locators)

	// Prompt-construction pass: per-locator lookups
	promptNumbers := make([]int, len(locators))
	for i, loc := range locators {
		promptNumbers[i] = reg.NumberFor(loc)
	}
	assert.Equal(t, []int{1, 2, 1}, promptNumbers)

	// Response-formatting pass: the entry list
	for _, e := range reg.Entries() {
		assert.Equal(t, e.Number, reg.NumberFor(e.Locator))
	}
}

func TestCitationRegistry_Empty(t *testing.T) {
	reg := NewCitationRegistry(nil)
	assert.Equal(t, 0, reg.Len())
	assert.Empty(t, reg.DisplayList())
	assert.Equal(t, 0, reg.NumberFor("s3://bucket/docs/unseen.md"))
}
