package fetcher

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/threadsync/internal/domain"
)

// ThreadPage is the parsed form of a single thread page: the thread
// metadata visible on it, the posts it carries in display order, and the
// pagination link to the next page when one exists.
type ThreadPage struct {
	Title       string
	Description string
	AvatarURL   string
	Categories  []string
	Tags        []string
	Posts       []domain.RawPost
	NextPageURL string
}

// ParseThreadPage extracts thread metadata and post records from one page
// of XenForo-style thread markup. Relative URLs in the markup are resolved
// against pageURL. Values are kept in their source representation; the
// normalizer owns coercion and validation.
func ParseThreadPage(pageURL string, body []byte) (*ThreadPage, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	page := &ThreadPage{
		Title:       extractThreadTitle(doc),
		Description: extractThreadDescription(doc),
		AvatarURL:   extractThreadAvatar(doc, base),
		Categories:  extractBreadcrumbs(doc),
		Tags:        extractThreadTags(doc),
		NextPageURL: extractNextPageURL(doc, base),
	}

	doc.Find("article.message--post").Each(func(_ int, s *goquery.Selection) {
		page.Posts = append(page.Posts, parsePost(s, base))
	})

	return page, nil
}

// extractThreadTitle extracts the thread title, preferring the page
// heading, then og:title, then the <title> tag.
func extractThreadTitle(doc *goquery.Document) string {
	if title := strings.TrimSpace(doc.Find("h1.p-title-value").First().Text()); title != "" {
		return title
	}

	if ogTitle, exists := doc.Find("meta[property='og:title']").Attr("content"); exists {
		return strings.TrimSpace(ogTitle)
	}

	return strings.TrimSpace(doc.Find("title").First().Text())
}

// extractThreadDescription extracts the thread description from meta tags.
func extractThreadDescription(doc *goquery.Document) string {
	if desc, exists := doc.Find("meta[name='description']").Attr("content"); exists {
		return strings.TrimSpace(desc)
	}

	if ogDesc, exists := doc.Find("meta[property='og:description']").Attr("content"); exists {
		return strings.TrimSpace(ogDesc)
	}

	return ""
}

// extractThreadAvatar extracts the thread starter's avatar, preferring
// og:image then the first post's avatar element.
func extractThreadAvatar(doc *goquery.Document, base *url.URL) string {
	if ogImage, exists := doc.Find("meta[property='og:image']").Attr("content"); exists {
		if resolved := resolveURL(base, ogImage); resolved != "" {
			return resolved
		}
	}

	if src, exists := doc.Find(".message-avatar img").First().Attr("src"); exists {
		return resolveURL(base, src)
	}

	return ""
}

// extractBreadcrumbs extracts the forum breadcrumb trail, which serves as
// the thread's category path.
func extractBreadcrumbs(doc *goquery.Document) []string {
	var crumbs []string
	doc.Find("ul.p-breadcrumbs span[itemprop='name']").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			crumbs = append(crumbs, text)
		}
	})
	return crumbs
}

// extractThreadTags extracts the thread's tag labels.
func extractThreadTags(doc *goquery.Document) []string {
	var tags []string
	doc.Find("a.tagItem").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			tags = append(tags, text)
		}
	})
	return tags
}

// extractNextPageURL extracts the pagination jump link to the next page,
// or "" on the last page.
func extractNextPageURL(doc *goquery.Document, base *url.URL) string {
	if href, exists := doc.Find("a.pageNav-jump--next").First().Attr("href"); exists {
		return resolveURL(base, href)
	}
	return ""
}

// parsePost extracts one raw post record from a message article element.
func parsePost(s *goquery.Selection, base *url.URL) domain.RawPost {
	post := domain.RawPost{
		SourceID:   strings.TrimSpace(s.AttrOr("data-content", "")),
		AuthorName: strings.TrimSpace(s.AttrOr("data-author", "")),
		Floor:      extractPostFloor(s),
		Timestamp:  extractPostTimestamp(s),
	}

	userLink := s.Find("a.username").First()
	if post.AuthorName == "" {
		post.AuthorName = strings.TrimSpace(userLink.Text())
	}
	post.AuthorID = strings.TrimSpace(userLink.AttrOr("data-user-id", ""))
	if href, exists := userLink.Attr("href"); exists {
		post.AuthorProfileURL = resolveURL(base, href)
	}

	content := s.Find("div.bbWrapper").First()
	post.ContentText = strings.TrimSpace(content.Text())
	if html, err := content.Html(); err == nil {
		post.ContentHTML = strings.TrimSpace(html)
	}
	post.ImageURLs = extractContentImages(content, base)
	post.ExternalLinks = extractContentLinks(content, base)
	post.EmbedURLs = extractContentEmbeds(content, base)

	summary := s.Find("a.reactionsBar-link").First().Text()
	post.ReactionCount = parseReactionSummary(summary)

	return post
}

// extractPostFloor extracts the position marker ("#3") from the
// attribution bar. The raw text is kept; the normalizer parses it.
func extractPostFloor(s *goquery.Selection) string {
	return strings.TrimSpace(s.Find("ul.message-attribution-opposite a").Last().Text())
}

// extractPostTimestamp extracts the post time in its source shape,
// preferring the numeric unix attribute over the calendar datetime.
func extractPostTimestamp(s *goquery.Selection) any {
	t := s.Find("time.u-dt").First()
	if unix, exists := t.Attr("data-timestamp"); exists && strings.TrimSpace(unix) != "" {
		return strings.TrimSpace(unix)
	}
	if dt, exists := t.Attr("datetime"); exists && strings.TrimSpace(dt) != "" {
		return strings.TrimSpace(dt)
	}
	return nil
}

// extractContentImages collects image URLs from the post body, skipping
// inline emoji.
func extractContentImages(content *goquery.Selection, base *url.URL) []string {
	var images []string
	content.Find("img[src]").Not(".smilie").Each(func(_ int, img *goquery.Selection) {
		if resolved := resolveURL(base, img.AttrOr("src", "")); resolved != "" {
			images = append(images, resolved)
		}
	})
	return images
}

// extractContentLinks collects links out of the post body that point away
// from the thread's own host.
func extractContentLinks(content *goquery.Selection, base *url.URL) []string {
	var links []string
	content.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		resolved := resolveURL(base, a.AttrOr("href", ""))
		if resolved == "" {
			return
		}
		if ref, err := url.Parse(resolved); err == nil && !strings.EqualFold(ref.Host, base.Host) {
			links = append(links, resolved)
		}
	})
	return links
}

// extractContentEmbeds collects iframe embed URLs from the post body.
func extractContentEmbeds(content *goquery.Selection, base *url.URL) []string {
	var embeds []string
	content.Find("iframe[src]").Each(func(_ int, frame *goquery.Selection) {
		if resolved := resolveURL(base, frame.AttrOr("src", "")); resolved != "" {
			embeds = append(embeds, resolved)
		}
	})
	return embeds
}

// othersPattern matches the "and N others" tail of a reactions bar
// summary, e.g. "Alice, Bob and 3 others".
var othersPattern = regexp.MustCompile(`\s+and\s+(\d+)\s+others?$`)

// parseReactionSummary counts reactions from the reactions bar link text.
// The bar lists reactor names with an optional "and N others" tail; the
// count is the number of names plus N.
func parseReactionSummary(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}

	extra := 0
	if m := othersPattern.FindStringSubmatch(text); m != nil {
		extra, _ = strconv.Atoi(m[1])
		text = othersPattern.ReplaceAllString(text, "")
	}

	text = strings.ReplaceAll(text, " and ", ", ")
	names := 0
	for _, part := range strings.Split(text, ",") {
		if strings.TrimSpace(part) != "" {
			names++
		}
	}
	return names + extra
}

// allTabPattern matches the "All (N)" tab header on a reactions detail
// page. The count may carry thousand separators.
var allTabPattern = regexp.MustCompile(`All\s*\((\d[\d,]*)\)`)

// ParseReactionTotal extracts the total reaction count from a reactions
// detail page by reading the "All (N)" tab. Returns 0, false when the
// markup carries no such tab.
func ParseReactionTotal(body []byte) (int, bool) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return 0, false
	}

	scope := doc.Find(".tabs").Text()
	if scope == "" {
		scope = doc.Text()
	}

	m := allTabPattern.FindStringSubmatch(scope)
	if m == nil {
		return 0, false
	}

	total, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return 0, false
	}
	return total, true
}

// resolveURL makes href absolute against base. Unusable hrefs (fragments,
// javascript:, data:, non-HTTP schemes) resolve to "".
func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "data:") {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	return abs.String()
}
