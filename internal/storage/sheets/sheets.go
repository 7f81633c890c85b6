// Package sheets implements the tabular store on the Google Sheets values
// API with service-account authentication.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"feedbackpipe/internal/httpx"
	"feedbackpipe/internal/storage"
)

const (
	baseURL          = "https://sheets.googleapis.com/v4/spreadsheets"
	spreadsheetScope = "https://www.googleapis.com/auth/spreadsheets"
)

type Store struct {
	client        *http.Client
	spreadsheetID string
	worksheet     string
}

var _ storage.TabularStore = (*Store)(nil)

// Open authenticates with a service-account credentials file and binds to
// one worksheet of one spreadsheet.
func Open(ctx context.Context, credentialsPath, spreadsheetID, worksheet string) (*Store, error) {
	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	conf, err := google.JWTConfigFromJSON(data, spreadsheetScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	// Token refresh goes through the shared external client.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, httpx.ExternalHTTPClient())
	return &Store{
		client:        conf.Client(ctx),
		spreadsheetID: spreadsheetID,
		worksheet:     worksheet,
	}, nil
}

func (s *Store) Location() string {
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/edit", s.spreadsheetID)
}

// RangeURL returns a link anchored to a row range, for human follow-up.
func (s *Store) RangeURL(firstRow, lastRow int) string {
	if firstRow < 1 || lastRow < firstRow {
		return s.Location()
	}
	return fmt.Sprintf("%s#range=A%d:Z%d", s.Location(), firstRow, lastRow)
}

// columnLetter converts a 1-based column index to its A1-notation letter.
// The layout never exceeds 26 columns.
func columnLetter(column int) string {
	return string(rune('A' + column - 1))
}

type valueRange struct {
	Values [][]string `json:"values"`
}

func (s *Store) ColumnValues(ctx context.Context, column int) ([]string, error) {
	letter := columnLetter(column)
	rangeRef := fmt.Sprintf("%s!%s:%s", s.worksheet, letter, letter)
	apiURL := fmt.Sprintf("%s/%s/values/%s", baseURL, s.spreadsheetID, url.PathEscape(rangeRef))

	body, err := s.do(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, err
	}
	var vr valueRange
	if err := json.Unmarshal(body, &vr); err != nil {
		return nil, fmt.Errorf("parsing values response: %w", err)
	}

	var values []string
	for i, row := range vr.Values {
		if i == 0 {
			continue // header row
		}
		if len(row) > 0 && strings.TrimSpace(row[0]) != "" {
			values = append(values, row[0])
		}
	}
	return values, nil
}

func (s *Store) AppendRows(ctx context.Context, rows [][]string) error {
	rangeRef := fmt.Sprintf("%s!A:Z", s.worksheet)
	apiURL := fmt.Sprintf("%s/%s/values/%s:append?valueInputOption=USER_ENTERED",
		baseURL, s.spreadsheetID, url.PathEscape(rangeRef))

	payload, err := json.Marshal(valueRange{Values: rows})
	if err != nil {
		return fmt.Errorf("marshaling append request: %w", err)
	}
	_, err = s.do(ctx, http.MethodPost, apiURL, payload)
	return err
}

func (s *Store) RowCount(ctx context.Context, column int) (int, error) {
	letter := columnLetter(column)
	rangeRef := fmt.Sprintf("%s!%s:%s", s.worksheet, letter, letter)
	apiURL := fmt.Sprintf("%s/%s/values/%s", baseURL, s.spreadsheetID, url.PathEscape(rangeRef))

	body, err := s.do(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return 0, err
	}
	var vr valueRange
	if err := json.Unmarshal(body, &vr); err != nil {
		return 0, fmt.Errorf("parsing values response: %w", err)
	}
	return len(vr.Values), nil
}

func (s *Store) do(ctx context.Context, method, apiURL string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, apiURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusTooManyRequests || strings.Contains(string(body), "RATE_LIMIT_EXCEEDED") {
			return nil, &storage.RateLimitError{Err: fmt.Errorf("Sheets API returned %d: %s", resp.StatusCode, string(body))}
		}
		return nil, fmt.Errorf("Sheets API returned %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
