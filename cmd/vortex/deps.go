package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/hyperengineering/vortex/internal/archive"
	"github.com/hyperengineering/vortex/internal/config"
	"github.com/hyperengineering/vortex/internal/ingest"
	"github.com/hyperengineering/vortex/internal/sheets"
	"github.com/hyperengineering/vortex/internal/store"
)

// deps holds the collaborators shared by the server and the one-shot commands.
type deps struct {
	store    store.Store
	reader   sheets.Reader
	archiver archive.Archiver
	syncer   *ingest.Syncer
}

// newReader builds the spreadsheet reader. Tests replace it.
var newReader = buildReader

// buildReader returns the Google reader, or a reader that fails every call
// with the construction error so a bad credential surfaces per run instead
// of blocking startup.
func buildReader(ctx context.Context, cfg config.GoogleConfig) sheets.Reader {
	creds := sheets.Credentials{
		ClientEmail: cfg.ClientEmail,
		PrivateKey:  cfg.PrivateKey,
		File:        cfg.CredentialsFile,
	}
	r, err := sheets.NewGoogleReader(ctx, creds, sheets.Options{ValueRender: cfg.ValueRender})
	if err != nil {
		slog.Warn("google reader unavailable",
			"component", "sheets",
			"action", "reader_init_failed",
			"error", err,
		)
		return sheets.Unavailable{Err: err}
	}
	return r
}

// openDeps opens the store and wires the reader, archiver and syncer.
// The caller owns the returned store and must close it.
func openDeps(ctx context.Context, cfg *config.Config) (*deps, error) {
	st, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	arch, err := archive.New(cfg.Archive)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("init archive: %w", err)
	}

	reader := newReader(ctx, cfg.Google)
	syncer := ingest.NewSyncer(reader, st, arch, ingest.Options{
		SpreadsheetID: cfg.Google.SpreadsheetID,
		TimeRange:     cfg.Sync.TimeRange,
		PlanningRange: cfg.Sync.PlanningRange,
		Location:      cfg.Sync.Location(),
	})

	return &deps{store: st, reader: reader, archiver: arch, syncer: syncer}, nil
}

// printJSON marshals v to JSON and writes to the given writer.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTabWriter returns a configured tabwriter for aligned columns.
func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}
