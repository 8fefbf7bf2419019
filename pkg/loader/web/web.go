package web

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/soitgoes511/graph-network-visualizer/internal/util"
	"github.com/soitgoes511/graph-network-visualizer/pkg/common"
	"github.com/soitgoes511/graph-network-visualizer/pkg/loader"
	"github.com/soitgoes511/graph-network-visualizer/pkg/logger"

	"codeberg.org/readeck/go-readability/v2"
	"golang.org/x/net/html"
)

const (
	defaultUserAgent  = "GraphNetworkVisualizer/1.0 (+http://localhost)"
	defaultMaxPages   = 60
	defaultMaxChars   = 50_000
	maxBodyBytes      = 8 << 20
	maxAnchorTextChar = 160
)

// WebFetcher crawls a site breadth first. Links to the start host are
// internal and followed, everything else is recorded as external and
// never fetched.
type WebFetcher struct {
	client    *http.Client
	userAgent string
	maxPages  int
	maxChars  int
}

// NewWebFetcherParams configures a WebFetcher. Zero values use defaults.
type NewWebFetcherParams struct {
	Client    *http.Client
	Timeout   time.Duration
	UserAgent string
	MaxPages  int
	MaxChars  int
}

func NewWebFetcher(params NewWebFetcherParams) *WebFetcher {
	client := params.Client
	if client == nil {
		timeout := params.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	f := &WebFetcher{
		client:    client,
		userAgent: params.UserAgent,
		maxPages:  params.MaxPages,
		maxChars:  params.MaxChars,
	}
	if f.userAgent == "" {
		f.userAgent = defaultUserAgent
	}
	if f.maxPages <= 0 {
		f.maxPages = defaultMaxPages
	}
	if f.maxChars <= 0 {
		f.maxChars = defaultMaxChars
	}
	return f
}

type queued struct {
	url   string
	depth int
}

// Fetch crawls from start. Pages at a depth below maxDepth contribute their
// outgoing links; internal targets are queued one level deeper.
func (f *WebFetcher) Fetch(ctx context.Context, start string, maxDepth int) ([]loader.Document, []common.SkippedSource) {
	start = Canonicalize(start)
	startURL, err := url.Parse(start)
	if err != nil || !isCrawlable(startURL) {
		return nil, []common.SkippedSource{{Source: start, Reason: "invalid url"}}
	}
	host := startURL.Host

	logger.Info("[Crawl] Starting", "url", start, "depth", maxDepth)

	var (
		docs    []loader.Document
		skipped []common.SkippedSource
	)
	visited := make(map[string]struct{})
	queue := []queued{{url: start, depth: 0}}

	for len(queue) > 0 && len(docs) < f.maxPages {
		if ctx.Err() != nil {
			skipped = append(skipped, common.SkippedSource{Source: queue[0].url, Reason: ctx.Err().Error()})
			break
		}
		cur := queue[0]
		queue = queue[1:]
		if _, ok := visited[cur.url]; ok {
			continue
		}
		visited[cur.url] = struct{}{}

		logger.Info("[Crawl] Fetching", "url", cur.url)
		page, err := f.fetchPage(ctx, cur.url)
		if err != nil {
			logger.Warn("[Crawl] Skipping source", "url", cur.url, "err", err)
			skipped = append(skipped, common.SkippedSource{Source: cur.url, Reason: err.Error()})
			continue
		}

		doc := loader.Document{
			ID:    loader.DocumentID(loader.DocumentKindWeb, cur.url),
			Kind:  loader.DocumentKindWeb,
			Title: page.title,
			Text:  util.TruncateRunes(page.text, f.maxChars),
		}
		if doc.Title == "" {
			doc.Title = cur.url
		}

		if cur.depth < maxDepth {
			for _, a := range page.anchors {
				target, ok := resolve(page.base, a.href)
				if !ok {
					continue
				}
				internal := target.Host == host
				link := loader.Link{
					Target:     target.String(),
					Internal:   internal,
					AnchorText: util.TruncateRunes(util.CollapseSpaces(a.text), maxAnchorTextChar),
				}
				doc.Links = append(doc.Links, link)
				if internal {
					if _, seen := visited[link.Target]; !seen {
						queue = append(queue, queued{url: link.Target, depth: cur.depth + 1})
					}
				}
			}
			logger.Debug("[Crawl] Links found", "url", cur.url, "links", len(doc.Links))
		}

		docs = append(docs, doc)
	}

	logger.Info("[Crawl] Complete", "url", start, "pages", len(docs), "skipped", len(skipped))
	return docs, skipped
}

type anchor struct {
	href string
	text string
}

type page struct {
	base    *url.URL
	title   string
	text    string
	anchors []anchor
}

func (f *WebFetcher) fetchPage(ctx context.Context, rawURL string) (page, error) {
	base, err := url.Parse(rawURL)
	if err != nil {
		return page{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return page{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return page{}, fmt.Errorf("failed to fetch url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return page{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return page{}, err
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "text/plain") {
		return page{base: base, text: util.SanitizeText(string(body))}, nil
	}
	if contentType != "" && !strings.Contains(contentType, "html") {
		return page{}, fmt.Errorf("unsupported content type %q", contentType)
	}

	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return page{}, fmt.Errorf("failed to parse html: %w", err)
	}
	p := page{base: base}
	walk(root, &p)
	p.title = util.CollapseSpaces(p.title)

	article, err := readability.FromReader(bytes.NewReader(body), base)
	if err == nil {
		var builder strings.Builder
		if err := article.RenderText(&builder); err == nil {
			p.text = builder.String()
		}
	}
	if strings.TrimSpace(p.text) == "" {
		p.text = textContent(root)
	}
	p.text = util.SanitizeText(p.text)
	return p, nil
}

func walk(n *html.Node, p *page) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "title":
			if p.title == "" {
				p.title = textContent(n)
			}
		case "base":
			if href := attr(n, "href"); href != "" {
				if u, err := p.base.Parse(href); err == nil {
					p.base = u
				}
			}
		case "a":
			if href := attr(n, "href"); href != "" {
				p.anchors = append(p.anchors, anchor{href: href, text: textContent(n)})
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, p)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var rec func(*html.Node)
	rec = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style" || n.Data == "noscript") {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			rec(c)
		}
	}
	rec(n)
	return util.CollapseSpaces(b.String())
}

// Canonicalize strips the fragment of rawURL.
func Canonicalize(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return strings.TrimSpace(rawURL)
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}

func resolve(base *url.URL, href string) (*url.URL, bool) {
	u, err := base.Parse(href)
	if err != nil {
		return nil, false
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u, isCrawlable(u)
}

func isCrawlable(u *url.URL) bool {
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
