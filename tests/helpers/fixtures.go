// Package helpers provides testing utilities for integration tests.
package helpers

import (
	"fmt"
	"strings"
)

// TestPost describes one post on a fixture thread page.
type TestPost struct {
	// ID is the source post ID, e.g. "post-101".
	ID string
	// Author is the display name on the post.
	Author string
	// Floor is the 1-based position marker shown in the attribution bar.
	Floor int
	// Timestamp is the post time in unix seconds.
	Timestamp int64
	// Body is the post content HTML.
	Body string
	// Reactions is the reactions bar summary text, e.g. "alice and 2
	// others". Empty means no reactions bar.
	Reactions string
}

// ThreadPageHTML renders one XenForo-shaped thread page for testing.
// nextPagePath, when non-empty, becomes the pagination jump link.
func ThreadPageHTML(title, nextPagePath string, posts ...TestPost) string {
	var b strings.Builder

	b.WriteString(`<!DOCTYPE html>
<html>
<head>
	<title>` + title + `</title>
	<meta name="description" content="Fixture thread">
</head>
<body>
	<h1 class="p-title-value">` + title + `</h1>
`)

	for _, post := range posts {
		b.WriteString(postArticleHTML(post))
	}

	if nextPagePath != "" {
		fmt.Fprintf(&b, "\t<a class=\"pageNav-jump--next\" href=%q>Next</a>\n", nextPagePath)
	}

	b.WriteString("</body>\n</html>")
	return b.String()
}

// postArticleHTML renders one message article the way XenForo does.
func postArticleHTML(post TestPost) string {
	var b strings.Builder

	fmt.Fprintf(&b, "\t<article class=\"message message--post\" data-content=%q data-author=%q>\n",
		post.ID, post.Author)
	fmt.Fprintf(&b, "\t\t<time class=\"u-dt\" data-timestamp=\"%d\"></time>\n", post.Timestamp)
	fmt.Fprintf(&b, "\t\t<div class=\"bbWrapper\">%s</div>\n", post.Body)
	if post.Reactions != "" {
		fmt.Fprintf(&b, "\t\t<a class=\"reactionsBar-link\">%s</a>\n", post.Reactions)
	}
	fmt.Fprintf(&b, "\t\t<ul class=\"message-attribution-opposite\"><li><a href=\"/posts/%d/\">#%d</a></li></ul>\n",
		post.Floor, post.Floor)
	b.WriteString("\t</article>\n")

	return b.String()
}
