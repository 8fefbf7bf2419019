package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/soitgoes511/graph-network-visualizer/pkg/common"
)

type DocumentKind string

const (
	DocumentKindWeb  DocumentKind = "web"
	DocumentKindFile DocumentKind = "file"
)

// Link is an outgoing hyperlink discovered in a document. Internal links
// point at the crawled site, external links anywhere else.
type Link struct {
	Target     string
	Internal   bool
	AnchorText string
}

// Document is one retrieved source ready for annotation. ID carries the
// node id scheme, e.g. "web:https://example.org/a" or "file:notes.md".
type Document struct {
	ID    string
	Kind  DocumentKind
	Title string
	Text  string
	Links []Link
}

// Upload is a user supplied file.
type Upload struct {
	Name    string
	Content []byte
}

// Batch describes the sources of one processing request.
type Batch struct {
	URLs      []string
	Uploads   []Upload
	Depth     int
	NodeLimit int
	LinkLimit int
}

// Fetcher retrieves web documents starting at a URL. Sources that could not
// be retrieved are reported as skipped instead of failing the whole crawl.
type Fetcher interface {
	Fetch(ctx context.Context, url string, depth int) ([]Document, []common.SkippedSource)
}

// Decoder turns an upload into a document.
type Decoder interface {
	Decode(ctx context.Context, upload Upload) (Document, error)
}

// DocumentID builds the node id of a source document.
func DocumentID(kind DocumentKind, name string) string {
	return string(kind) + ":" + name
}

// Registry dispatches uploads to a decoder by file extension.
type Registry struct {
	decoders map[string]Decoder
}

// NewRegistry creates an empty decoder registry.
func NewRegistry() *Registry {
	return &Registry{decoders: make(map[string]Decoder)}
}

// Register binds decoder to each extension given with or without the dot.
func (r *Registry) Register(decoder Decoder, exts ...string) {
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimPrefix(ext, "."))
		r.decoders[ext] = decoder
	}
}

// Extensions lists the supported extensions.
func (r *Registry) Extensions() []string {
	out := make([]string, 0, len(r.decoders))
	for ext := range r.decoders {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Supports reports whether name has a registered extension.
func (r *Registry) Supports(name string) bool {
	_, ok := r.decoders[extOf(name)]
	return ok
}

// Decode decodes upload with the decoder registered for its extension.
// Unsupported extensions wrap common.ErrInvalidInput; decoder failures wrap
// common.ErrSourceFetch.
func (r *Registry) Decode(ctx context.Context, upload Upload) (Document, error) {
	decoder, ok := r.decoders[extOf(upload.Name)]
	if !ok {
		return Document{}, fmt.Errorf("%w: unsupported file type %q", common.ErrInvalidInput, upload.Name)
	}
	doc, err := decoder.Decode(ctx, upload)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %s: %v", common.ErrSourceFetch, upload.Name, err)
	}
	return doc, nil
}

func extOf(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

var reURL = regexp.MustCompile(`https?://[^\s<>"'()\[\]{}]+`)

// ExtractURLs returns the distinct http(s) URLs found in text, in order of
// first appearance. Trailing sentence punctuation is not part of a URL.
func ExtractURLs(text string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range reURL.FindAllString(text, -1) {
		m = strings.TrimRight(m, ".,;:!?")
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}
