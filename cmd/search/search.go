// Package search implements the search command for querying the post
// content index.
package search

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/threadsync/cmd/common"
	"github.com/jonesrussell/threadsync/internal/search"
)

// Constants for default values
const (
	// DefaultSearchSize defines the default number of search results to
	// return when no size is specified.
	DefaultSearchSize = 10

	// DefaultContentPreviewLength caps the post content preview before
	// truncation.
	DefaultContentPreviewLength = 100

	// DefaultTableWidth defines the maximum width for the content preview column.
	DefaultTableWidth = 160
)

// ErrSearchDisabled is returned when the content index is not enabled in
// the configuration.
var ErrSearchDisabled = errors.New("search is not enabled; set search.enabled in config")

// Command returns the search command for use in the root command.
func Command() *cobra.Command {
	var size int

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search post content",
		Long: `Search through synchronized post content in the search index.

Examples:
  # Search for posts mentioning "firmware update"
  threadsync search firmware update

  # Return more results
  threadsync search -s 25 firmware`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), strings.Join(args, " "), size)
		},
	}

	cmd.Flags().IntVarP(&size, "size", "s", DefaultSearchSize, "number of results to return")

	return cmd
}

// runSearch wires the search service and executes the query.
func runSearch(ctx context.Context, query string, size int) error {
	deps, err := common.NewCommandDeps()
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	svc, err := common.OpenSearch(ctx, deps)
	if err != nil {
		return fmt.Errorf("failed to open search index: %w", err)
	}
	if svc == nil {
		return ErrSearchDisabled
	}

	deps.Logger.Info("Starting search...",
		"query", query,
		"size", size,
	)

	results, err := svc.SearchPosts(ctx, query, size)
	if err != nil {
		deps.Logger.Error("Search failed", "error", err)
		return fmt.Errorf("search failed: %w", err)
	}

	deps.Logger.Info("Search completed",
		"query", query,
		"results", len(results.Hits),
	)

	if len(results.Hits) == 0 {
		fmt.Fprintf(os.Stdout, "No results found for query: %s\n", query)
		return nil
	}

	renderSearchResults(results, query)
	return nil
}

// configureResultsTable sets up the table writer with appropriate styling and columns
func configureResultsTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.Style().Options.DrawBorder = true
	t.Style().Options.SeparateRows = true

	const (
		rankColumnNumber    = 1
		rankColumnWidth     = 4
		threadColumnNumber  = 2
		contentColumnNumber = 5
		threadColumnRatio   = 3
		contentColumnRatio  = 3
	)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: rankColumnNumber, WidthMax: rankColumnWidth}, // Rank column (#)
		// Thread column (1/3 of table width)
		{Number: threadColumnNumber, WidthMax: DefaultTableWidth / threadColumnRatio},
		// Content preview column (2/3 of table width)
		{Number: contentColumnNumber, WidthMax: DefaultTableWidth * 2 / contentColumnRatio},
	})

	t.AppendHeader(table.Row{"#", "Thread", "Author", "Floor", "Content Preview"})
	return t
}

// renderSearchResults formats and displays the search hits in a table
func renderSearchResults(results *search.Results, query string) {
	t := configureResultsTable()

	for i, hit := range results.Hits {
		content := strings.TrimSpace(hit.Content)
		content = strings.Join(strings.Fields(content), " ")
		contentPreview := truncateString(content, DefaultContentPreviewLength)

		threadTitle := strings.TrimSpace(hit.ThreadTitle)
		if threadTitle == "" {
			threadTitle = hit.ThreadURL
		}

		t.AppendRow(table.Row{
			i + 1,
			threadTitle,
			hit.AuthorName,
			hit.Floor,
			contentPreview,
		})
	}

	t.AppendFooter(table.Row{"Total", results.Total, "", "", fmt.Sprintf("Query: %s", query)})

	fmt.Fprintf(os.Stdout, "\nSearch Results:\n")
	t.Render()
}

// truncateString shortens s to length, appending an ellipsis.
func truncateString(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}
