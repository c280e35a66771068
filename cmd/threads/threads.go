// Package threads implements the command-line interface for inspecting
// stored threads. It displays the thread inventory in a formatted table.
package threads

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/threadsync/cmd/common"
	"github.com/jonesrussell/threadsync/internal/domain"
	"github.com/jonesrussell/threadsync/internal/logger"
)

// DefaultListLimit bounds the number of threads printed per invocation.
const DefaultListLimit = 50

// Reader is the slice of the store the list command needs.
type Reader interface {
	ListThreads(ctx context.Context, limit, offset int) ([]*domain.Thread, error)
	CountThreads(ctx context.Context) (int, error)
}

// TableRenderer handles the display of thread data in a table format.
type TableRenderer struct {
	logger logger.Interface
}

// NewTableRenderer creates a new TableRenderer instance.
func NewTableRenderer(log logger.Interface) *TableRenderer {
	return &TableRenderer{
		logger: log,
	}
}

// RenderTable formats and displays the threads in a table format.
func (r *TableRenderer) RenderTable(threadList []*domain.Thread, total int) error {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"UUID", "Title", "URL", "Posts", "Authors", "Last Post", "Last Sync"})

	for _, thread := range threadList {
		t.AppendRow(table.Row{
			thread.UUID,
			thread.Title,
			thread.URL,
			thread.PostCount,
			thread.AuthorCount,
			formatEpochMillis(thread.LastPostAt),
			thread.UpdatedAt.Format(time.DateTime),
		})
	}

	if total > len(threadList) {
		t.AppendFooter(table.Row{"", "", "", "", "", "",
			fmt.Sprintf("%d of %d threads", len(threadList), total)})
	}

	t.Render()
	return nil
}

// Lister handles listing stored threads.
type Lister struct {
	store    Reader
	logger   logger.Interface
	renderer *TableRenderer
	limit    int
	offset   int
}

// NewLister creates a new Lister instance.
func NewLister(store Reader, log logger.Interface, renderer *TableRenderer, limit, offset int) *Lister {
	return &Lister{
		store:    store,
		logger:   log,
		renderer: renderer,
		limit:    limit,
		offset:   offset,
	}
}

// Start begins the list operation.
func (l *Lister) Start(ctx context.Context) error {
	l.logger.Info("Listing threads", "limit", l.limit, "offset", l.offset)

	threadList, err := l.store.ListThreads(ctx, l.limit, l.offset)
	if err != nil {
		return fmt.Errorf("failed to list threads: %w", err)
	}

	if len(threadList) == 0 {
		fmt.Fprintln(os.Stdout, "No threads stored yet. Sync one with: threadsync sync <thread-url>")
		return nil
	}

	total, err := l.store.CountThreads(ctx)
	if err != nil {
		return fmt.Errorf("failed to count threads: %w", err)
	}

	return l.renderer.RenderTable(threadList, total)
}

// Command returns the threads command for use in the root command.
func Command() *cobra.Command {
	var (
		limit  int
		offset int
	)

	cmd := &cobra.Command{
		Use:   "threads",
		Short: "List stored threads",
		Long:  `List the threads held in the local store, most recently synced first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}

			st, err := common.OpenStore(cmd.Context(), deps)
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer st.Close()

			renderer := NewTableRenderer(deps.Logger)
			lister := NewLister(st, deps.Logger, renderer, limit, offset)

			return lister.Start(cmd.Context())
		},
	}

	cmd.Flags().IntVar(&limit, "limit", DefaultListLimit, "maximum number of threads to list")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of threads to skip")

	return cmd
}

// formatEpochMillis renders a millisecond timestamp, or a dash when the
// value is unknown.
func formatEpochMillis(ms int64) string {
	if ms <= 0 {
		return "-"
	}
	return time.UnixMilli(ms).UTC().Format(time.DateTime)
}
