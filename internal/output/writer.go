package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cexll/reddit-tracker/internal/processor"
)

// Columns is the export header row. Order and spelling are a contract with
// downstream spreadsheets.
var Columns = []string{"URL", "Status", "Present Rank", "Previous Rank"}

// Filename returns the timestamped default export filename.
func Filename() string {
	return fmt.Sprintf("reddit_tracker_output_%s.csv", time.Now().Format("20060102_150405"))
}

// WriteCSV writes the results as CSV with the fixed column layout.
func WriteCSV(w io.Writer, results []processor.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, res := range results {
		row := []string{res.URL, res.Status, res.PresentRank, res.PreviousRank}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the results to path, or to a generated filename when
// path is empty, and returns the path written.
func WriteFile(path string, results []processor.Result) (string, error) {
	if path == "" {
		path = Filename()
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create output file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := WriteCSV(f, results); err != nil {
		return "", err
	}
	return path, nil
}
