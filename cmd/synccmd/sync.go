// Package synccmd implements the one-shot thread sync command.
package synccmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/threadsync/cmd/common"
	"github.com/jonesrussell/threadsync/internal/domain"
	"github.com/jonesrussell/threadsync/internal/syncer"
)

// maxChangeRows caps the per-post detail printed for a dry run.
const maxChangeRows = 20

// Command returns the sync command for use in the root command.
func Command() *cobra.Command {
	var (
		dryRun    bool
		reactions bool
	)

	cmd := &cobra.Command{
		Use:   "sync [thread-url]",
		Short: "Synchronize a single thread",
		Long: `Fetch the thread at the given URL, diff it against the stored copy,
and persist what changed. The thread is registered on its first sync.

Examples:
  # Sync a thread
  threadsync sync https://forum.example.com/threads/some-topic.123/

  # Preview the changes without writing anything
  threadsync sync --dry-run https://forum.example.com/threads/some-topic.123/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, args[0], dryRun, reactions)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false,
		"compute and report the changeset without persisting it")
	cmd.Flags().BoolVar(&reactions, "reactions", false,
		"fetch exact per-post reaction totals (one extra request per post)")

	return cmd
}

// runSync wires the engine and executes one sync cycle.
func runSync(cmd *cobra.Command, threadURL string, dryRun, reactions bool) error {
	deps, err := common.NewCommandDeps()
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	st, err := common.OpenStore(cmd.Context(), deps)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	searchSvc, err := common.OpenSearch(cmd.Context(), deps)
	if err != nil {
		deps.Logger.Warn("Search index unavailable, skipping indexing", "error", err)
		searchSvc = nil
	}

	engine := common.NewSyncEngine(deps, st, searchSvc)

	result, err := engine.Sync(cmd.Context(), threadURL, syncer.Options{
		IncludeReactionDetail: reactions,
		DryRun:                dryRun,
	})
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	renderResult(result)
	return nil
}

// renderResult prints the cycle outcome as a field/value table, plus the
// per-post detail when the run was a dry run.
func renderResult(result *domain.SyncResult) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	mode := "persisted"
	if result.DryRun {
		mode = "dry run (nothing written)"
	}

	t.AppendRows([]table.Row{
		{"Thread", result.ThreadURL},
		{"UUID", result.ThreadUUID},
		{"First sync", result.FirstSync},
		{"Mode", mode},
		{"Fetched posts", result.FetchedPosts},
		{"Inserted", result.Inserted},
		{"Updated", result.Updated},
		{"Unchanged", result.Unchanged},
		{"Missing in fetch", result.MissingInFetch},
		{"Elapsed", fmt.Sprintf("%dms", result.ElapsedMS)},
	})
	t.Render()

	if result.DryRun && result.Changeset != nil {
		renderPendingChanges(result.Changeset)
	}
}

// renderPendingChanges lists what a real run would write, capped so a
// first sync of a long thread stays readable.
func renderPendingChanges(cs *domain.Changeset) {
	if len(cs.Inserted) == 0 && len(cs.Updated) == 0 {
		fmt.Fprintln(os.Stdout, "\nNo pending changes.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Post", "Change"})

	rows := 0
	for _, id := range cs.Inserted {
		if rows == maxChangeRows {
			break
		}
		t.AppendRow(table.Row{id, "insert"})
		rows++
	}
	for _, change := range cs.Updated {
		if rows == maxChangeRows {
			break
		}
		detail := "update: " + strings.Join(change.Reasons, ", ")
		if change.ReactionOnly() {
			detail = fmt.Sprintf("update: reactions %d -> %d", change.OldReactions, change.NewReactions)
		}
		t.AppendRow(table.Row{change.PostID, detail})
		rows++
	}

	remaining := len(cs.Inserted) + len(cs.Updated) - rows
	if remaining > 0 {
		t.AppendFooter(table.Row{"", fmt.Sprintf("... and %d more", remaining)})
	}

	fmt.Fprintf(os.Stdout, "\nPending changes:\n")
	t.Render()
}
