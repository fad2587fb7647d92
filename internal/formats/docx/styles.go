package docx

import (
	"encoding/json"
	"fmt"
)

// StyleType is the OOXML w:type of a style definition.
type StyleType string

const (
	StyleParagraph StyleType = "paragraph"
	StyleCharacter StyleType = "character"
	StyleTable     StyleType = "table"
)

// Built-in style IDs.
const (
	StyleNormal    = "Normal"
	StyleTableGrid = "TableGrid"
)

// Style is a named, reusable formatting definition.
type Style struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Type    StyleType `json:"type"`
	BasedOn string    `json:"basedOn,omitempty"`
	Font    string    `json:"font,omitempty"`
	Size    float64   `json:"size,omitempty"` // Points
	Bold    bool      `json:"bold,omitempty"`
	Color   string    `json:"color,omitempty"`
	// OutlineLevel is the zero-based heading outline level, or -1.
	OutlineLevel int  `json:"outlineLevel"`
	Borders      bool `json:"borders,omitempty"` // Table styles: single lines on every edge
}

// StyleRegistry holds the styles of one document, in definition order.
type StyleRegistry struct {
	order  []string
	styles map[string]*Style
}

// HeadingStyleID returns the style ID for a heading level, e.g. "Heading2".
func HeadingStyleID(level int) string {
	return fmt.Sprintf("Heading%d", level)
}

// NewStyleRegistry returns a registry holding the base styles every package
// needs: Normal, Heading1-6 and TableGrid.
func NewStyleRegistry() *StyleRegistry {
	r := newEmptyRegistry()
	r.Add(Style{ID: StyleNormal, Name: "Normal", Type: StyleParagraph, Font: "Calibri", Size: 11, OutlineLevel: -1})
	for level := 1; level <= 6; level++ {
		r.Add(Style{
			ID:           HeadingStyleID(level),
			Name:         fmt.Sprintf("heading %d", level),
			Type:         StyleParagraph,
			BasedOn:      StyleNormal,
			Bold:         true,
			Color:        "2F5496",
			Size:         13,
			OutlineLevel: level - 1,
		})
	}
	r.Add(Style{ID: StyleTableGrid, Name: "Table Grid", Type: StyleTable, Borders: true, OutlineLevel: -1})
	return r
}

func newEmptyRegistry() *StyleRegistry {
	return &StyleRegistry{styles: make(map[string]*Style)}
}

// Add registers a style, replacing any existing style with the same ID while
// keeping its original position.
func (r *StyleRegistry) Add(s Style) {
	if _, ok := r.styles[s.ID]; !ok {
		r.order = append(r.order, s.ID)
	}
	r.styles[s.ID] = &s
}

// Get returns the style with the given ID. The returned pointer may be used
// to adjust the definition in place.
func (r *StyleRegistry) Get(id string) (*Style, bool) {
	s, ok := r.styles[id]
	return s, ok
}

// Has reports whether a style with the given ID exists.
func (r *StyleRegistry) Has(id string) bool {
	_, ok := r.styles[id]
	return ok
}

// All returns copies of every style in definition order.
func (r *StyleRegistry) All() []Style {
	out := make([]Style, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.styles[id])
	}
	return out
}

// Len returns the number of registered styles.
func (r *StyleRegistry) Len() int {
	return len(r.order)
}

// MarshalJSON encodes the registry as its ordered style list.
func (r *StyleRegistry) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.All())
}
