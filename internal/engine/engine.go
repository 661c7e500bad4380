// Package engine runs the visitor sync: one cycle logs into the panel,
// downloads today's export, maps it to panel locations and submits the
// counts; the scheduler repeats cycles on a fixed interval.
package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/visitor-sync/internal/cli"
	"github.com/Veraticus/visitor-sync/internal/common"
	"github.com/Veraticus/visitor-sync/internal/csvfile"
	"github.com/Veraticus/visitor-sync/internal/location"
	"github.com/Veraticus/visitor-sync/internal/model"
	"github.com/Veraticus/visitor-sync/internal/panel"
	"github.com/Veraticus/visitor-sync/internal/workspace"
)

// Config holds configuration options for the sync engine.
type Config struct {
	PanelCredentials model.Credentials
	SFTPCredentials  model.Credentials
	// PanelURL is only used in log output.
	PanelURL string
	Interval time.Duration
	// KeepFailed leaves the download directory of a failed cycle on disk.
	KeepFailed bool
	// Once stops the scheduler after the first cycle.
	Once bool
}

// Deps are the collaborators the engine drives.
type Deps struct {
	Sessions  SessionFactory
	Fetcher   FileFetcher
	Workspace *workspace.Manager
	// Output receives the human-readable progress report; defaults to stdout.
	Output io.Writer
	// Now returns the current time; defaults to time.Now.
	Now func() time.Time
}

// Engine orchestrates sync cycles.
type Engine struct {
	sessions  SessionFactory
	fetcher   FileFetcher
	workspace *workspace.Manager
	out       io.Writer
	now       func() time.Time
	config    Config
}

// New creates a new sync engine with the given dependencies.
func New(deps Deps, config Config) *Engine {
	e := &Engine{
		sessions:  deps.Sessions,
		fetcher:   deps.Fetcher,
		workspace: deps.Workspace,
		out:       deps.Output,
		now:       deps.Now,
		config:    config,
	}
	if e.workspace == nil {
		e.workspace = workspace.NewManager("")
	}
	if e.out == nil {
		e.out = os.Stdout
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Run executes cycles until ctx is canceled or a cycle fails. Cancellation
// while sleeping ends the loop cleanly; a failed cycle ends it with that
// cycle's error and nothing is retried.
func (e *Engine) Run(ctx context.Context) error {
	for {
		if err := e.RunCycle(ctx); err != nil {
			return err
		}

		if e.config.Once {
			return nil
		}

		slog.InfoContext(ctx, "Sleeping until next update", "interval", e.config.Interval)
		e.println(cli.FormatInfo(fmt.Sprintf("Sleeping %s...", e.config.Interval)))

		timer := time.NewTimer(e.config.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			slog.InfoContext(ctx, "Sync stopped")
			return nil
		case <-timer.C:
		}
	}
}

// RunCycle performs one complete sync. The download directory is removed on
// every exit path unless KeepFailed is set and the cycle failed.
func (e *Engine) RunCycle(ctx context.Context) (err error) {
	cycleID := uuid.NewString()
	logger := slog.Default().With("cycle", cycleID)
	fileName := model.RemoteFileName(e.now())
	started := time.Now()

	logger.InfoContext(ctx, "Started update", "file", fileName)
	e.println(cli.FormatTitle(fmt.Sprintf("Started update, looking for sftp file: %s", fileName)))

	defer func() {
		if err != nil {
			common.LogError(ctx, err, "Sync cycle failed", common.Fields{
				"cycle": cycleID,
				"stage": common.Stage(err),
				"file":  fileName,
			})
			e.println(cli.FormatError(err.Error()))
		}
	}()

	session, err := e.sessions()
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrPanelRequest, err)
	}

	body, err := session.Login(ctx, e.config.PanelCredentials)
	if err != nil {
		return err
	}

	current := panel.ParseCurrentState(body)
	logger.InfoContext(ctx, "Logged in", "url", e.config.PanelURL, "locations", len(current))
	e.println(cli.FormatSuccess(fmt.Sprintf("Logged in to %s", e.config.PanelURL)))
	e.println(cli.RenderBox("Current visitors", formatCurrentState(current)))

	dir, err := e.workspace.Create()
	if err != nil {
		return err
	}
	logger.DebugContext(ctx, "Created download directory", "dir", dir.Path())

	defer func() {
		if err != nil && e.config.KeepFailed {
			logger.WarnContext(ctx, "Keeping download directory of failed cycle", "dir", dir.Path())
			return
		}
		if rmErr := dir.Remove(); rmErr != nil {
			if err == nil {
				err = rmErr
			}
			return
		}
		logger.DebugContext(ctx, "Deleted download directory", "dir", dir.Path())
	}()

	localPath, err := e.fetcher.Fetch(ctx, e.config.SFTPCredentials, fileName, dir.Path())
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "Downloaded export", "path", localPath)

	records, err := csvfile.ParseFile(localPath)
	if err != nil {
		return err
	}
	e.println(cli.RenderBox(fmt.Sprintf("Found data in %s", fileName), formatRecords(records)))

	update := location.Map(ctx, records)
	if err := session.Update(ctx, update); err != nil {
		return err
	}

	logger.InfoContext(ctx, "Submitted update",
		"records", len(records),
		"locations", update.Keys(),
		"duration", time.Since(started).Round(time.Millisecond))
	e.println(cli.FormatSuccess(fmt.Sprintf("Updated %d locations", len(update))))

	return nil
}

func (e *Engine) println(s string) {
	if _, err := fmt.Fprintln(e.out, s); err != nil {
		slog.Warn("Failed to write progress output", "error", err)
	}
}

func formatCurrentState(counts []model.VisitorCount) string {
	if len(counts) == 0 {
		return "No visitor table found."
	}

	var sb strings.Builder
	for _, c := range counts {
		fmt.Fprintf(&sb, "%s: %s\n", c.Location, c.Visitors)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatRecords(records []model.Record) string {
	if len(records) == 0 {
		return "No rows."
	}

	var sb strings.Builder
	for _, r := range records {
		keys := make([]string, 0, len(r))
		for k := range r {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fields := make([]string, 0, len(keys))
		for _, k := range keys {
			fields = append(fields, k+"="+r[k])
		}
		sb.WriteString(strings.Join(fields, " "))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
