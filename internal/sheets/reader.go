// Package sheets reads rectangular ranges from a remote spreadsheet.
//
// The primary path is a ranged read against the Google Sheets API. When the
// document id points at an uploaded XLSX file instead of a native sheet, the
// whole file is downloaded from Google Drive and parsed locally.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// Row is one spreadsheet row. Cells hold float64, string or bool values;
// blank trailing cells are omitted, so rows may be shorter than the range.
type Row = []any

// Reader reads a range of cells. Implementations never mutate remote state.
type Reader interface {
	ReadRange(ctx context.Context, spreadsheetID, a1Range string) ([]Row, error)
}

// valuesClient performs ranged reads. Errors for non-native documents must
// come back as *NotNativeError.
type valuesClient interface {
	GetValues(ctx context.Context, spreadsheetID, a1Range string) ([][]any, error)
}

// fileClient downloads the raw bytes of a stored file.
type fileClient interface {
	Download(ctx context.Context, fileID string) (io.ReadCloser, error)
}

// GoogleReader reads native spreadsheets and falls back to workbook
// download for uploaded XLSX files.
type GoogleReader struct {
	values valuesClient
	files  fileClient
}

// Compile-time interface check
var _ Reader = (*GoogleReader)(nil)

// ReadRange returns the rows of a1Range. An empty range yields an empty,
// non-nil slice.
func (r *GoogleReader) ReadRange(ctx context.Context, spreadsheetID, a1Range string) ([]Row, error) {
	values, err := r.values.GetValues(ctx, spreadsheetID, a1Range)
	if err == nil {
		return toRows(values), nil
	}

	var notNative *NotNativeError
	if !errors.As(err, &notNative) {
		return nil, fmt.Errorf("read range %s: %w", a1Range, err)
	}

	slog.Info("document is not a native spreadsheet, reading workbook file",
		"component", "sheets",
		"action", "workbook_fallback",
		"range", a1Range,
		"reason", notNative.Reason,
	)
	return r.readWorkbook(ctx, spreadsheetID, a1Range)
}

func (r *GoogleReader) readWorkbook(ctx context.Context, fileID, a1Range string) ([]Row, error) {
	rng, err := ParseRange(a1Range)
	if err != nil {
		return nil, err
	}

	body, err := r.files.Download(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("download workbook: %w", err)
	}
	defer body.Close()

	rows, err := ReadWorkbook(body, rng)
	if errors.Is(err, ErrTabNotFound) {
		slog.Warn("tab not found in workbook, treating as empty",
			"component", "sheets",
			"action", "tab_missing",
			"tab", rng.Tab,
		)
		return []Row{}, nil
	}
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func toRows(values [][]any) []Row {
	rows := make([]Row, len(values))
	for i, v := range values {
		rows[i] = v
	}
	return rows
}

// Unavailable is a Reader that fails every read with err. It stands in when
// the Google client cannot be built, so the failure surfaces per sync run.
type Unavailable struct {
	Err error
}

// ReadRange returns the configured error.
func (u Unavailable) ReadRange(ctx context.Context, spreadsheetID, a1Range string) ([]Row, error) {
	return nil, u.Err
}
