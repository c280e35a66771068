// Package helpers provides testing utilities for integration tests.
package helpers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
)

// ForumServer is a mock forum site for sync tests. Pages can be swapped
// between syncs to simulate the thread changing at the source.
type ForumServer struct {
	mu    sync.Mutex
	pages map[string]string
	srv   *httptest.Server
}

// NewForumServer starts a mock forum serving the provided pages.
// The map key is the URL path, and the value is the HTML content to serve.
// Unknown paths return 404, which the fetcher reports as a missing thread.
func NewForumServer(pages map[string]string) *ForumServer {
	f := &ForumServer{pages: make(map[string]string, len(pages))}
	for path, html := range pages {
		f.pages[path] = html
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		html, ok := f.pages[r.URL.Path]
		f.mu.Unlock()

		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = fmt.Fprint(w, "<html><body>404 Not Found</body></html>")
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprint(w, html)
	})

	f.srv = httptest.NewServer(mux)
	return f
}

// SetPage replaces or adds one page.
func (f *ForumServer) SetPage(path, html string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[path] = html
}

// RemovePage drops one page so requests for it return 404.
func (f *ForumServer) RemovePage(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.pages, path)
}

// URL returns the base URL of the mock forum.
func (f *ForumServer) URL() string {
	return f.srv.URL
}

// Close shuts the server down.
func (f *ForumServer) Close() {
	f.srv.Close()
}
