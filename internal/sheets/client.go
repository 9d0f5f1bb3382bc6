package sheets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// Value render options accepted by the Sheets API.
const (
	RenderFormatted   = "FORMATTED_VALUE"
	RenderUnformatted = "UNFORMATTED_VALUE"
)

// Credentials identifies the service account used for reads. Either the
// inline email + key pair or a JSON key file must be set.
type Credentials struct {
	ClientEmail string
	PrivateKey  string
	File        string
}

// Options tunes the Google reader.
type Options struct {
	// ValueRender is the Sheets API value render option. Empty means
	// FORMATTED_VALUE.
	ValueRender string
}

var readScopes = []string{
	gsheets.SpreadsheetsReadonlyScope,
	drive.DriveReadonlyScope,
}

// HTTPClient returns an authenticated client for the service account.
// ctx governs token refreshes and should outlive individual requests.
func (c Credentials) HTTPClient(ctx context.Context) (*http.Client, error) {
	switch {
	case c.ClientEmail != "" && c.PrivateKey != "":
		cfg := &jwt.Config{
			Email:      c.ClientEmail,
			PrivateKey: []byte(strings.ReplaceAll(c.PrivateKey, `\n`, "\n")),
			Scopes:     readScopes,
			TokenURL:   google.JWTTokenURL,
		}
		return cfg.Client(ctx), nil
	case c.File != "":
		b, err := os.ReadFile(c.File)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		cfg, err := google.JWTConfigFromJSON(b, readScopes...)
		if err != nil {
			return nil, fmt.Errorf("parse credentials file: %w", err)
		}
		return cfg.Client(ctx), nil
	default:
		return nil, ErrMissingCredentials
	}
}

// NewGoogleReader builds a Reader backed by the Sheets and Drive APIs.
func NewGoogleReader(ctx context.Context, creds Credentials, opts Options) (*GoogleReader, error) {
	client, err := creds.HTTPClient(ctx)
	if err != nil {
		return nil, err
	}

	sheetsSvc, err := gsheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}
	driveSvc, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("create drive client: %w", err)
	}

	render := opts.ValueRender
	if render == "" {
		render = RenderFormatted
	}

	return &GoogleReader{
		values: &sheetsValues{svc: sheetsSvc, render: render},
		files:  &driveFiles{svc: driveSvc},
	}, nil
}

// sheetsValues wraps *gsheets.Service to satisfy valuesClient.
type sheetsValues struct {
	svc    *gsheets.Service
	render string
}

func (s *sheetsValues) GetValues(ctx context.Context, spreadsheetID, a1Range string) ([][]any, error) {
	call := s.svc.Spreadsheets.Values.Get(spreadsheetID, a1Range).ValueRenderOption(s.render)
	if s.render == RenderUnformatted {
		call = call.DateTimeRenderOption("SERIAL_NUMBER")
	}
	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, classifyReadError(err)
	}
	values := make([][]any, len(resp.Values))
	for i, row := range resp.Values {
		values[i] = row
	}
	return values, nil
}

// driveFiles wraps *drive.Service to satisfy fileClient.
type driveFiles struct {
	svc *drive.Service
}

func (d *driveFiles) Download(ctx context.Context, fileID string) (io.ReadCloser, error) {
	resp, err := d.svc.Files.Get(fileID).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
