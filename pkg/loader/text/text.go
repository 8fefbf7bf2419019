package text

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/soitgoes511/graph-network-visualizer/internal/util"
	"github.com/soitgoes511/graph-network-visualizer/pkg/loader"
)

// Extensions handled by TextDecoder.
var Extensions = []string{"txt", "md"}

// TextDecoder decodes plain text and markdown uploads. URLs found in the
// text become external links of the document.
type TextDecoder struct {
	maxChars int
}

// NewTextDecoder creates a decoder that keeps at most maxChars characters.
// A non-positive value disables the limit.
func NewTextDecoder(maxChars int) *TextDecoder {
	return &TextDecoder{maxChars: maxChars}
}

func (d *TextDecoder) Decode(ctx context.Context, upload loader.Upload) (loader.Document, error) {
	content := util.SanitizeText(string(upload.Content))
	content = util.TruncateRunes(content, d.maxChars)

	name := filepath.Base(upload.Name)
	doc := loader.Document{
		ID:    loader.DocumentID(loader.DocumentKindFile, name),
		Kind:  loader.DocumentKindFile,
		Title: titleOf(name, content),
		Text:  content,
	}
	for _, u := range loader.ExtractURLs(content) {
		doc.Links = append(doc.Links, loader.Link{Target: u})
	}
	return doc, nil
}

// titleOf prefers a leading markdown heading over the file name.
func titleOf(name, content string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(content), "\n")
	if h, ok := strings.CutPrefix(line, "# "); ok {
		if h = util.CollapseSpaces(h); h != "" {
			return h
		}
	}
	return name
}
