package markup

import (
	"bytes"

	"github.com/adrg/frontmatter"
)

// FrontMatter is the subset of a document's front matter that maps onto
// package core properties.
type FrontMatter struct {
	Title       string `yaml:"title" toml:"title" json:"title"`
	Author      string `yaml:"author" toml:"author" json:"author"`
	Description string `yaml:"description" toml:"description" json:"description"`
}

// SplitFrontMatter separates a leading front matter block from the Markdown
// body. The block is only stripped when it sets title, author or
// description; anything else between "---" lines is Markdown (rules,
// setext headings) and the source is returned unchanged.
func SplitFrontMatter(source []byte) (FrontMatter, []byte) {
	var fm FrontMatter
	rest, err := frontmatter.Parse(bytes.NewReader(source), &fm)
	if err != nil || fm.IsZero() {
		return FrontMatter{}, source
	}
	return fm, rest
}

// IsZero reports whether no front matter field was set.
func (f FrontMatter) IsZero() bool {
	return f == FrontMatter{}
}
