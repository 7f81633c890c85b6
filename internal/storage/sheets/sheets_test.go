package sheets

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"feedbackpipe/internal/storage"
)

// canned serves fixed responses regardless of URL.
type canned struct {
	status int
	body   string
	gotURL string
}

func (c *canned) RoundTrip(req *http.Request) (*http.Response, error) {
	c.gotURL = req.URL.String()
	return &http.Response{
		StatusCode: c.status,
		Body:       io.NopCloser(strings.NewReader(c.body)),
		Header:     make(http.Header),
	}, nil
}

func testStore(rt http.RoundTripper) *Store {
	return &Store{
		client:        &http.Client{Transport: rt},
		spreadsheetID: "sheet123",
		worksheet:     "Feedback",
	}
}

func TestColumnLetter(t *testing.T) {
	cases := map[int]string{1: "A", 2: "B", 26: "Z"}
	for col, want := range cases {
		if got := columnLetter(col); got != want {
			t.Errorf("columnLetter(%d) = %q, want %q", col, got, want)
		}
	}
}

func TestColumnValuesSkipsHeader(t *testing.T) {
	rt := &canned{status: 200, body: `{"values": [["Title"], ["Export is slow"], [""], ["Crash on login"]]}`}
	s := testStore(rt)

	values, err := s.ColumnValues(context.Background(), 2)
	if err != nil {
		t.Fatalf("ColumnValues failed: %v", err)
	}
	want := []string{"Export is slow", "Crash on login"}
	if len(values) != 2 || values[0] != want[0] || values[1] != want[1] {
		t.Errorf("values = %v, want %v", values, want)
	}
	if !strings.Contains(rt.gotURL, "Feedback%21B:B") {
		t.Errorf("request url = %s, want column B range", rt.gotURL)
	}
}

func TestRowCount(t *testing.T) {
	rt := &canned{status: 200, body: `{"values": [["ID"], ["FB-1"], ["FB-2"]]}`}
	s := testStore(rt)

	count, err := s.RowCount(context.Background(), 1)
	if err != nil {
		t.Fatalf("RowCount failed: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3 (header included)", count)
	}
}

func TestAppendRowsURL(t *testing.T) {
	rt := &canned{status: 200, body: `{}`}
	s := testStore(rt)

	err := s.AppendRows(context.Background(), [][]string{{"a", "b"}})
	if err != nil {
		t.Fatalf("AppendRows failed: %v", err)
	}
	if !strings.Contains(rt.gotURL, ":append") || !strings.Contains(rt.gotURL, "valueInputOption=USER_ENTERED") {
		t.Errorf("append url = %s", rt.gotURL)
	}
}

func TestRateLimitClassification(t *testing.T) {
	for _, c := range []canned{
		{status: 429, body: `quota exceeded`},
		{status: 403, body: `{"error": {"status": "RATE_LIMIT_EXCEEDED"}}`},
	} {
		rt := c
		s := testStore(&rt)
		err := s.AppendRows(context.Background(), [][]string{{"a"}})
		var rl *storage.RateLimitError
		if !errors.As(err, &rl) {
			t.Errorf("status %d: expected RateLimitError, got %v", rt.status, err)
		}
	}
}

func TestNonRateLimitErrorNotClassified(t *testing.T) {
	rt := &canned{status: 403, body: `permission denied`}
	s := testStore(rt)
	err := s.AppendRows(context.Background(), [][]string{{"a"}})
	if err == nil {
		t.Fatal("expected error")
	}
	var rl *storage.RateLimitError
	if errors.As(err, &rl) {
		t.Errorf("plain 403 misclassified as rate limit: %v", err)
	}
}

func TestRangeURL(t *testing.T) {
	s := testStore(&canned{})
	got := s.RangeURL(3, 7)
	if !strings.HasSuffix(got, "#range=A3:Z7") {
		t.Errorf("RangeURL = %s", got)
	}
	if s.RangeURL(0, 5) != s.Location() {
		t.Error("invalid range should fall back to the plain location")
	}
}
