package fetcher

import "errors"

// ErrNoPosts is returned when a walked thread produced no post records,
// which usually means the markup is not a supported forum thread page.
var ErrNoPosts = errors.New("no posts found in thread markup")

// errUnsupportedSinceID is returned internally when an incremental fetch
// is requested from a post ID the source URL scheme cannot address.
var errUnsupportedSinceID = errors.New("post id not addressable for incremental fetch")
