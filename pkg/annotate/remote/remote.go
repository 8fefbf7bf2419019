package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/soitgoes511/graph-network-visualizer/internal/util"
	"github.com/soitgoes511/graph-network-visualizer/pkg/annotate"
	"github.com/soitgoes511/graph-network-visualizer/pkg/logger"

	"golang.org/x/sync/semaphore"
)

const (
	defaultMaxChars     = 200_000
	defaultMaxSentences = 1_600
	defaultTimeout      = 60 * time.Second
	defaultBackoff      = 500 * time.Millisecond
)

// AnnotatorClient implements annotate.Annotator against an HTTP annotation
// service. The service receives {"text": ...} on POST /annotate and answers
// with {"sentences": [...]}.
type AnnotatorClient struct {
	endpoint     string
	maxRetries   int
	backoff      time.Duration
	maxChars     int
	maxSentences int

	reqLock    *semaphore.Weighted
	httpClient *http.Client
}

// NewAnnotatorClientParams contains configuration options for creating a new AnnotatorClient.
type NewAnnotatorClientParams struct {
	BaseURL string
	ApiKey  string

	Timeout               time.Duration
	MaxRetries            int
	Backoff               time.Duration
	MaxChars              int
	MaxSentences          int
	MaxConcurrentRequests int64
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

// NewAnnotatorClient validates params and builds a client.
func NewAnnotatorClient(params NewAnnotatorClientParams) (*AnnotatorClient, error) {
	if strings.TrimSpace(params.BaseURL) == "" {
		return nil, fmt.Errorf("annotator base url is required")
	}
	u, err := url.Parse(params.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid annotator base url: %w", err)
	}

	timeout := params.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxChars := params.MaxChars
	if maxChars <= 0 {
		maxChars = defaultMaxChars
	}
	maxSentences := params.MaxSentences
	if maxSentences <= 0 {
		maxSentences = defaultMaxSentences
	}
	backoff := params.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	concurrent := params.MaxConcurrentRequests
	if concurrent <= 0 {
		concurrent = 4
	}

	var rt http.RoundTripper = http.DefaultTransport
	if params.ApiKey != "" {
		rt = &headerTransport{
			headers: map[string]string{"Authorization": "Bearer " + params.ApiKey},
			rt:      rt,
		}
	}

	return &AnnotatorClient{
		endpoint:     u.JoinPath("annotate").String(),
		maxRetries:   params.MaxRetries,
		backoff:      backoff,
		maxChars:     maxChars,
		maxSentences: maxSentences,
		reqLock:      semaphore.NewWeighted(concurrent),
		httpClient:   &http.Client{Timeout: timeout, Transport: rt},
	}, nil
}

type annotateRequest struct {
	Text string `json:"text"`
}

type annotateResponse struct {
	Sentences []annotate.Sentence `json:"sentences"`
}

// Annotate sends text to the annotation service. Text beyond the character
// cap is cut off and sentences beyond the sentence cap are dropped.
func (c *AnnotatorClient) Annotate(ctx context.Context, text string) ([]annotate.Sentence, error) {
	text = util.TruncateRunes(text, c.maxChars)
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.reqLock.Release(1)

	body, err := json.Marshal(annotateRequest{Text: text})
	if err != nil {
		return nil, err
	}

	res, err := util.RetryWithBackoff(ctx, c.maxRetries, c.backoff, func(ctx context.Context) (annotateResponse, error) {
		return c.post(ctx, body)
	})
	if err != nil {
		return nil, fmt.Errorf("annotate: %w", err)
	}

	sentences := res.Sentences
	if len(sentences) > c.maxSentences {
		logger.Debug("[Annotate] Sentence cap reached", "sentences", len(sentences), "cap", c.maxSentences)
		sentences = sentences[:c.maxSentences]
	}
	return sentences, nil
}

func (c *AnnotatorClient) post(ctx context.Context, body []byte) (annotateResponse, error) {
	var out annotateResponse

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return out, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("annotation service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		if !transientStatus(resp.StatusCode) {
			return out, util.Permanent(err)
		}
		return out, err
	}

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, util.Permanent(fmt.Errorf("decode annotation response: %w", err))
	}
	return out, nil
}

// transientStatus reports whether a failed request may succeed when repeated.
func transientStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	}
	return code >= 500
}
