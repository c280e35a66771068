// Package fetcher walks forum threads over HTTP and assembles raw thread
// snapshots from their markup. It follows pagination links page by page,
// optionally resumes from a known post for incremental fetches, and keeps
// every scraped value in its source representation for the normalizer.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/gocolly/colly/v2"

	"github.com/jonesrussell/threadsync/internal/domain"
	"github.com/jonesrussell/threadsync/internal/logger"
)

// sourcePostIDPattern matches source post IDs that can be addressed
// directly in a thread URL, e.g. "post-12345".
var sourcePostIDPattern = regexp.MustCompile(`^post-(\d+)$`)

// reactionsPathSuffix marks reaction detail pages during response routing.
const reactionsPathSuffix = "/reactions"

// Options tune a single fetch.
type Options struct {
	// IncludeReactionDetail visits each post's reactions page to read the
	// exact total instead of relying on the summary bar, at the cost of
	// one extra request per post.
	IncludeReactionDetail bool
}

// Interface is the fetch seam the sync engine consumes.
type Interface interface {
	FetchThread(ctx context.Context, threadURL string, opts Options) (*domain.RawThreadSnapshot, error)
	FetchThreadSince(ctx context.Context, threadURL, sincePostID string, opts Options) (*domain.RawThreadSnapshot, error)
}

// ThreadFetcher fetches forum threads with a rate-limited collector.
type ThreadFetcher struct {
	cfg    Config
	logger logger.Interface
}

// NewThreadFetcher creates a thread fetcher with the given config, filling
// unset fields with defaults.
func NewThreadFetcher(cfg Config, log logger.Interface) *ThreadFetcher {
	return &ThreadFetcher{
		cfg:    cfg.WithDefaults(),
		logger: log.WithComponent("fetcher"),
	}
}

// FetchThread walks the thread at threadURL from its first page and
// returns the full raw snapshot.
func (f *ThreadFetcher) FetchThread(
	ctx context.Context,
	threadURL string,
	opts Options,
) (*domain.RawThreadSnapshot, error) {
	return f.walk(ctx, threadURL, threadURL, opts, false)
}

// FetchThreadSince walks the thread starting from the page that carries
// sincePostID and returns a partial snapshot covering that page onward.
// When the post ID cannot be addressed in a URL, or the source no longer
// knows the post, it falls back to a full fetch.
func (f *ThreadFetcher) FetchThreadSince(
	ctx context.Context,
	threadURL, sincePostID string,
	opts Options,
) (*domain.RawThreadSnapshot, error) {
	startURL, err := postStartURL(threadURL, sincePostID)
	if err != nil {
		f.logger.Debug("Post not addressable, fetching full thread",
			"thread_url", threadURL,
			"since_post_id", sincePostID,
		)
		return f.walk(ctx, threadURL, threadURL, opts, false)
	}

	snapshot, err := f.walk(ctx, threadURL, startURL, opts, true)
	if errors.Is(err, domain.ErrNotFound) {
		f.logger.Debug("Anchor post gone, fetching full thread",
			"thread_url", threadURL,
			"since_post_id", sincePostID,
		)
		return f.walk(ctx, threadURL, threadURL, opts, false)
	}
	return snapshot, err
}

// walk drives one collector through the thread's pages from startURL,
// merging each page into a single snapshot.
func (f *ThreadFetcher) walk(
	ctx context.Context,
	threadURL, startURL string,
	opts Options,
	partial bool,
) (*domain.RawThreadSnapshot, error) {
	snapshot := &domain.RawThreadSnapshot{URL: threadURL, Partial: partial}

	var (
		nextURL        string
		pageErr        error
		visitErr       error
		reactionTotals = map[string]int{}
	)

	c, err := f.newCollector(ctx, threadURL)
	if err != nil {
		return nil, err
	}

	c.OnResponse(func(r *colly.Response) {
		if strings.HasSuffix(r.Request.URL.Path, reactionsPathSuffix) {
			if total, ok := ParseReactionTotal(r.Body); ok {
				reactionTotals[reactionPostID(r.Request.URL.Path)] = total
			}
			return
		}

		page, err := ParseThreadPage(r.Request.URL.String(), r.Body)
		if err != nil {
			pageErr = err
			return
		}
		mergePage(snapshot, page)
		nextURL = page.NextPageURL
		f.logger.Debug("Fetched thread page",
			"url", r.Request.URL.String(),
			"posts", len(page.Posts),
		)
	})

	c.OnError(func(r *colly.Response, err error) {
		visitErr = classifyVisitError(r, err, snapshot.PagesFetched)
	})

	current := startURL
	for current != "" && snapshot.PagesFetched < f.cfg.MaxPages {
		nextURL = ""
		pageErr = nil
		visitErr = nil

		if err := c.Visit(current); err != nil {
			var alreadyVisited *colly.AlreadyVisitedError
			if errors.As(err, &alreadyVisited) {
				break
			}
			if visitErr != nil {
				return nil, visitErr
			}
			return nil, fmt.Errorf("%w: visit %s: %w", domain.ErrFetchFailed, current, err)
		}
		if visitErr != nil {
			return nil, visitErr
		}
		if pageErr != nil {
			return nil, fmt.Errorf("%w: parse %s: %w", domain.ErrFetchFailed, current, pageErr)
		}

		snapshot.PagesFetched++
		if nextURL == "" || nextURL == current {
			break
		}
		current = nextURL
	}

	if len(snapshot.Posts) == 0 {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrFetchFailed, threadURL, ErrNoPosts)
	}

	if opts.IncludeReactionDetail {
		f.fetchReactionTotals(c, snapshot, reactionTotals, &visitErr)
	}

	f.logger.Info("Thread fetch complete",
		"thread_url", threadURL,
		"pages", snapshot.PagesFetched,
		"posts", len(snapshot.Posts),
		"partial", partial,
	)
	return snapshot, nil
}

// fetchReactionTotals visits each addressable post's reactions page and
// overrides the summary counts with exact totals. Detail fetches are best
// effort: a failed page keeps the summary count.
func (f *ThreadFetcher) fetchReactionTotals(
	c *colly.Collector,
	snapshot *domain.RawThreadSnapshot,
	totals map[string]int,
	visitErr *error,
) {
	base, err := url.Parse(snapshot.URL)
	if err != nil {
		return
	}

	for i := range snapshot.Posts {
		digits, ok := postIDDigits(snapshot.Posts[i].SourceID)
		if !ok {
			continue
		}
		*visitErr = nil
		reactionURL := fmt.Sprintf("%s://%s/posts/%s%s", base.Scheme, base.Host, digits, reactionsPathSuffix)
		if err := c.Visit(reactionURL); err != nil || *visitErr != nil {
			f.logger.Warn("Reaction detail fetch failed, keeping summary count",
				"url", reactionURL,
				"post_id", snapshot.Posts[i].SourceID,
			)
		}
	}

	for i := range snapshot.Posts {
		if total, ok := totals[snapshot.Posts[i].SourceID]; ok {
			snapshot.Posts[i].ReactionCount = total
		}
	}
}

// newCollector builds a synchronous collector restricted to the thread's
// host, with the configured user agent, timeout, rate limit, and cookie.
func (f *ThreadFetcher) newCollector(ctx context.Context, threadURL string) (*colly.Collector, error) {
	parsed, err := url.Parse(threadURL)
	if err != nil || parsed.Hostname() == "" {
		return nil, fmt.Errorf("%w: invalid thread url %q", domain.ErrFetchFailed, threadURL)
	}

	c := colly.NewCollector(
		colly.StdlibContext(ctx),
		colly.UserAgent(f.cfg.UserAgent),
		colly.AllowedDomains(parsed.Hostname()),
	)
	c.SetRequestTimeout(f.cfg.RequestTimeout)

	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Delay:       f.cfg.RequestDelay,
		Parallelism: f.cfg.Parallelism,
	}); err != nil {
		return nil, fmt.Errorf("configure rate limit: %w", err)
	}

	if f.cfg.Cookie != "" {
		c.OnRequest(func(r *colly.Request) {
			r.Headers.Set("Cookie", f.cfg.Cookie)
		})
	}

	return c, nil
}

// mergePage folds one parsed page into the snapshot. Thread metadata comes
// from the first page that carries it; posts append in walk order.
func mergePage(snapshot *domain.RawThreadSnapshot, page *ThreadPage) {
	if snapshot.Title == "" {
		snapshot.Title = page.Title
	}
	if snapshot.Description == "" {
		snapshot.Description = page.Description
	}
	if snapshot.AvatarURL == "" {
		snapshot.AvatarURL = page.AvatarURL
	}
	if len(snapshot.Categories) == 0 {
		snapshot.Categories = page.Categories
	}
	if len(snapshot.Tags) == 0 {
		snapshot.Tags = page.Tags
	}
	snapshot.Posts = append(snapshot.Posts, page.Posts...)
}

// classifyVisitError maps a failed page request onto the sync error
// taxonomy. A missing first page means the thread itself is gone; any
// later failure is a fetch failure.
func classifyVisitError(r *colly.Response, visitErr error, pagesFetched int) error {
	status := 0
	pageURL := ""
	if r != nil {
		status = r.StatusCode
		if r.Request != nil {
			pageURL = r.Request.URL.String()
		}
	}

	gone := status == http.StatusNotFound || status == http.StatusGone
	if gone && pagesFetched == 0 {
		return fmt.Errorf("thread page %s returned status %d: %w", pageURL, status, domain.ErrNotFound)
	}
	if status > 0 {
		return fmt.Errorf("%w: %s returned status %d", domain.ErrFetchFailed, pageURL, status)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrFetchFailed, pageURL, visitErr)
}

// postStartURL builds the URL that addresses sincePostID inside the
// thread, used to resume a walk mid-thread.
func postStartURL(threadURL, sincePostID string) (string, error) {
	digits, ok := postIDDigits(sincePostID)
	if !ok {
		return "", fmt.Errorf("%w: %q", errUnsupportedSinceID, sincePostID)
	}
	return strings.TrimRight(threadURL, "/") + "/post-" + digits, nil
}

// postIDDigits extracts the numeric part of an addressable source post ID.
func postIDDigits(sourceID string) (string, bool) {
	m := sourcePostIDPattern.FindStringSubmatch(sourceID)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// reactionPostID recovers the summary-bar post ID from a reactions page
// path like "/posts/12345/reactions".
func reactionPostID(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 {
		return ""
	}
	return "post-" + parts[len(parts)-2]
}
