package input

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"
)

var (
	sheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)
	gidPattern     = regexp.MustCompile(`[?&#]gid=(\d+)`)
)

// urlColumn is the required input column name.
const urlColumn = "comment_url"

var httpClient = &http.Client{Timeout: 30 * time.Second}

// Load reads comment URLs from a local CSV file, a CSV download URL, or a
// Google Sheets sharing link (converted to its public CSV export
// endpoint). Rows that are not Reddit comment URLs are skipped; an input
// yielding no usable URLs is an error.
func Load(ctx context.Context, source string) ([]string, error) {
	var (
		r   io.ReadCloser
		err error
	)
	switch {
	case isGoogleSheetsURL(source):
		r, err = openURL(ctx, exportURL(source))
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		r, err = openURL(ctx, source)
	default:
		r, err = os.Open(source)
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	return parse(r)
}

func isGoogleSheetsURL(source string) bool {
	return strings.Contains(source, "docs.google.com/spreadsheets")
}

// exportURL converts a Google Sheets sharing URL into the CSV export
// endpoint, which works without credentials for publicly shared sheets.
func exportURL(source string) string {
	m := sheetIDPattern.FindStringSubmatch(source)
	if m == nil {
		return source
	}
	gid := "0"
	if g := gidPattern.FindStringSubmatch(source); g != nil {
		gid = g[1]
	}
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/export?format=csv&gid=%s", m[1], gid)
}

func openURL(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download input: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("download input: status %d", resp.StatusCode)
	}
	// Google returns an HTML page instead of CSV when a sheet is private.
	if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("sheet is not publicly accessible; share it so anyone with the link can view")
	}
	return resp.Body, nil
}

func parse(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read input header: %w", err)
	}

	col := -1
	for i, name := range header {
		if strings.TrimSpace(name) == urlColumn {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("input must contain a %q column, found: %s", urlColumn, strings.Join(header, ", "))
	}

	var valid []string
	skipped := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read input row: %w", err)
		}
		if col >= len(row) {
			continue
		}
		url := strings.TrimSpace(row[col])
		if url == "" {
			continue
		}
		if strings.Contains(url, "reddit.com") && strings.Contains(url, "/comments/") {
			valid = append(valid, url)
		} else {
			skipped++
		}
	}

	if skipped > 0 {
		log.Printf("Skipped %d rows that are not Reddit comment URLs", skipped)
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("no valid Reddit comment URLs found in input")
	}
	return valid, nil
}
