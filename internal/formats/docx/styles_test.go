package docx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStyleRegistryBaseStyles(t *testing.T) {
	r := NewStyleRegistry()

	for _, id := range []string{"Normal", "Heading1", "Heading6", "TableGrid"} {
		assert.True(t, r.Has(id), "missing base style %s", id)
	}
	h3, ok := r.Get("Heading3")
	require.True(t, ok)
	assert.Equal(t, StyleParagraph, h3.Type)
	assert.Equal(t, 2, h3.OutlineLevel)
	assert.Equal(t, "heading 3", h3.Name)
}

func TestStyleRegistryAddReplacesInPlace(t *testing.T) {
	r := NewStyleRegistry()
	n := r.Len()

	r.Add(Style{ID: "Heading1", Name: "heading 1", Type: StyleParagraph, Size: 30, OutlineLevel: 0})
	assert.Equal(t, n, r.Len())
	assert.Equal(t, "Heading1", r.All()[1].ID)

	r.Add(Style{ID: "Code", Name: "Code", Type: StyleCharacter, OutlineLevel: -1})
	assert.Equal(t, n+1, r.Len())
	assert.Equal(t, "Code", r.All()[n].ID)
}

func TestStyleRegistriesAreIndependent(t *testing.T) {
	a := New()
	b := New()

	s, _ := a.Styles.Get("Heading1")
	s.Size = 99

	other, _ := b.Styles.Get("Heading1")
	assert.NotEqual(t, 99.0, other.Size)
}

func TestStylesRoundTrip(t *testing.T) {
	doc := New()
	doc.Styles.Add(Style{ID: "Code", Name: "Code", Type: StyleCharacter, Font: "Courier New", Size: 10, Color: "00008B", OutlineLevel: -1})
	h1, _ := doc.Styles.Get("Heading1")
	h1.Size = 24
	h1.Color = "000000"

	data, err := WriteDocument(doc)
	require.NoError(t, err)

	parsed, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, doc.Styles.All(), parsed.Styles.All())
}
