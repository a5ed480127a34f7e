// Package encyclopedia resolves free-text terms to short Wikipedia summaries.
package encyclopedia

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"go.uber.org/ratelimit"

	"github.com/edgard/termbot/internal/config"
	errs "github.com/edgard/termbot/internal/errors"
	"github.com/edgard/termbot/internal/resilience"
)

// ErrNotFound means the encyclopedia has no article for the term.
var ErrNotFound = errors.New("article not found")

const (
	maxDisambiguationOptions = 5
	// minSummaryLen is the extract length below which the next search hit
	// is tried instead.
	minSummaryLen = 100
)

// Article is a resolved lookup.
type Article struct {
	Title   string
	Summary string
	URL     string
}

// DisambiguationError is returned when the best match is a disambiguation
// page. Options lists alternative titles to try.
type DisambiguationError struct {
	Term    string
	Options []string
}

func (e *DisambiguationError) Error() string {
	return fmt.Sprintf("%q is ambiguous (%d options)", e.Term, len(e.Options))
}

// Client looks up terms.
type Client interface {
	Lookup(ctx context.Context, term string) (*Article, error)
}

type wikiClient struct {
	baseURL    string
	userAgent  string
	results    int
	maxLen     int
	httpClient *http.Client
	limiter    ratelimit.Limiter
	breaker    *resilience.Breaker
	retry      resilience.RetryConfig
	logger     *slog.Logger
}

// Option customises a client.
type Option func(*wikiClient)

// WithRetry overrides the retry policy.
func WithRetry(rc resilience.RetryConfig) Option {
	return func(c *wikiClient) { c.retry = rc }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *wikiClient) { c.httpClient = hc }
}

// NewClient builds a Wikipedia client from config.
func NewClient(cfg config.EncyclopediaConfig, logger *slog.Logger, opts ...Option) Client {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "encyclopedia")
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = config.DefaultEncyclopediaRPS
	}

	c := &wikiClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		results:    cfg.SearchResults,
		maxLen:     cfg.SummaryMaxLen,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    ratelimit.New(rps),
		breaker: resilience.NewBreaker(resilience.BreakerConfig{
			Name:   "wikipedia",
			Ignore: isAnswer,
		}, log),
		retry:  resilience.DefaultRetryConfig(),
		logger: log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// isAnswer reports lookup outcomes that are not service faults.
func isAnswer(err error) bool {
	var dis *DisambiguationError
	return errors.Is(err, ErrNotFound) || errors.As(err, &dis) ||
		errors.Is(err, context.Canceled)
}

// isRetryable limits retries to transport failures and 5xx/429 responses.
func isRetryable(err error) bool {
	if isAnswer(err) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *errs.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode != 0 {
		return apiErr.StatusCode >= 500 || apiErr.StatusCode == http.StatusTooManyRequests
	}
	return true
}

// Lookup searches for term and returns the summary of the best match.
func (c *wikiClient) Lookup(ctx context.Context, term string) (*Article, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, errs.NewValidationError("search term cannot be empty", nil)
	}

	var article *Article
	err := resilience.Retry(ctx, c.retry, isRetryable, func(ctx context.Context) error {
		return c.breaker.Execute(ctx, func(ctx context.Context) error {
			a, err := c.lookup(ctx, term)
			article = a
			return err
		})
	})
	if err != nil {
		if !isAnswer(err) {
			c.logger.WarnContext(ctx, "Encyclopedia lookup failed", "term", term, "error", err)
		}
		return nil, err
	}

	c.logger.DebugContext(ctx, "Encyclopedia lookup succeeded", "term", term, "title", article.Title)
	return article, nil
}

func (c *wikiClient) lookup(ctx context.Context, term string) (*Article, error) {
	titles, err := c.search(ctx, term, c.results)
	if err != nil {
		return nil, err
	}
	if len(titles) == 0 {
		return nil, ErrNotFound
	}

	sum, err := c.summary(ctx, titles[0])
	if err != nil {
		return nil, err
	}
	if sum.Type == "disambiguation" {
		options := titles[1:]
		if len(options) == 0 {
			// The search hits are exhausted; widen once for alternatives.
			if more, err := c.search(ctx, term, maxDisambiguationOptions+1); err == nil && len(more) > 1 {
				options = more[1:]
			}
		}
		if len(options) > maxDisambiguationOptions {
			options = options[:maxDisambiguationOptions]
		}
		return nil, &DisambiguationError{Term: term, Options: options}
	}

	title := titles[0]
	if utf8.RuneCountInString(strings.TrimSpace(sum.Extract)) < minSummaryLen && len(titles) > 1 {
		if better := c.fuller(ctx, titles[1], sum); better != nil {
			sum, title = better, titles[1]
		}
	}

	pageURL := sum.ContentURLs.Desktop.Page
	if pageURL == "" {
		pageURL = c.baseURL + "/wiki/" + url.PathEscape(strings.ReplaceAll(sum.Title, " ", "_"))
	}
	if sum.Title != "" {
		title = sum.Title
	}

	return &Article{
		Title:   title,
		Summary: Truncate(sum.Extract, c.maxLen),
		URL:     pageURL,
	}, nil
}

// fuller returns the summary of title when it is a standard article with a
// longer extract than current, or nil.
func (c *wikiClient) fuller(ctx context.Context, title string, current *summaryResponse) *summaryResponse {
	alt, err := c.summary(ctx, title)
	if err != nil {
		c.logger.DebugContext(ctx, "Fallback summary unavailable", "title", title, "error", err)
		return nil
	}
	if alt.Type == "disambiguation" ||
		utf8.RuneCountInString(strings.TrimSpace(alt.Extract)) <= utf8.RuneCountInString(strings.TrimSpace(current.Extract)) {
		return nil
	}
	return alt
}

type searchResponse struct {
	Query struct {
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

type summaryResponse struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Extract     string `json:"extract"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

func (c *wikiClient) search(ctx context.Context, term string, limit int) ([]string, error) {
	q := url.Values{}
	q.Set("action", "query")
	q.Set("list", "search")
	q.Set("srsearch", term)
	q.Set("srlimit", strconv.Itoa(limit))
	q.Set("format", "json")
	q.Set("utf8", "1")

	var resp searchResponse
	if err := c.getJSON(ctx, "/w/api.php?"+q.Encode(), &resp); err != nil {
		return nil, err
	}

	titles := make([]string, 0, len(resp.Query.Search))
	for _, hit := range resp.Query.Search {
		if hit.Title != "" {
			titles = append(titles, hit.Title)
		}
	}
	return titles, nil
}

func (c *wikiClient) summary(ctx context.Context, title string) (*summaryResponse, error) {
	path := "/api/rest_v1/page/summary/" + url.PathEscape(strings.ReplaceAll(title, " ", "_"))
	var resp summaryResponse
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *wikiClient) getJSON(ctx context.Context, path string, out any) error {
	c.limiter.Take()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errs.NewAPIError("encyclopedia request failed", err)
	}
	defer resp.Body.Close()
	c.logger.DebugContext(ctx, "Encyclopedia request", "path", req.URL.Path, "status", resp.StatusCode, "duration", time.Since(start))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, resp.Body)
		return errs.NewAPIStatusError("encyclopedia request "+req.URL.Path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errs.NewAPIError("failed to decode encyclopedia response", err)
	}
	return nil
}

// Truncate cuts text to at most maxLen runes, preferring the last word
// boundary, and appends "...". maxLen <= 0 disables truncation.
func Truncate(text string, maxLen int) string {
	text = strings.TrimSpace(text)
	if maxLen <= 0 || utf8.RuneCountInString(text) <= maxLen {
		return text
	}

	runes := []rune(text)[:maxLen]
	cut := len(runes)
	for i := len(runes) - 1; i > len(runes)/2; i-- {
		if unicode.IsSpace(runes[i]) {
			cut = i
			break
		}
	}
	return strings.TrimRightFunc(string(runes[:cut]), func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	}) + "..."
}
