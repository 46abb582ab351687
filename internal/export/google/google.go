// Package google appends journal entries to a Google Sheets
// spreadsheet. Authentication uses an OAuth client plus a previously
// obtained refresh token (see cmd/oauth-init).
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/404Simon/splitify/internal/config"
	"github.com/404Simon/splitify/internal/export"

	"golang.org/x/oauth2"
	googleauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ export.JournalWriter = (*Client)(nil)

// New builds a Sheets client from the configured spreadsheet, sheet
// name, and OAuth material. Inline JSON takes precedence over files.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	if strings.TrimSpace(cfg.GoogleSpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheetName := strings.TrimSpace(cfg.GoogleSheetName)
	if sheetName == "" {
		sheetName = "Journal"
	}

	clientJSON, err := loadCredential(cfg.GoogleOAuthClientJSON, cfg.GoogleOAuthClientFile, "oauth client")
	if err != nil {
		return nil, err
	}
	tokenJSON, err := loadCredential(cfg.GoogleOAuthTokenJSON, cfg.GoogleOAuthTokenFile, "oauth token")
	if err != nil {
		return nil, err
	}

	oauthCfg, err := googleauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse oauth client: %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(tokenJSON, &token); err != nil {
		return nil, fmt.Errorf("parse oauth token: %w", err)
	}

	svc, err := gsheet.NewService(ctx, goption.WithHTTPClient(oauthCfg.Client(ctx, &token)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.GoogleSpreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func loadCredential(inline, file, what string) ([]byte, error) {
	if strings.TrimSpace(inline) != "" {
		return []byte(inline), nil
	}
	if strings.TrimSpace(file) != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read %s file: %w", what, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("missing %s credentials", what)
}

// Append writes one journal row and returns its A1 range reference.
func (c *Client) Append(ctx context.Context, entry export.JournalEntry) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	row := []any{
		entry.OccurredAt.UTC().Format("2006-01-02 15:04:05"),
		entry.Kind,
		entry.GroupID,
		entry.EntityID,
		entry.Description,
		entry.Amount,
	}

	rng := fmt.Sprintf("%s!A:F", c.sheetName)
	vr := &gsheet.ValueRange{Values: [][]any{row}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		return resp.Updates.UpdatedRange, nil
	}
	return rng, nil
}
