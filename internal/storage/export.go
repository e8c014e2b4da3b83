package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/srikandi-id/harvester/internal/types"
)

// ExportFormats lists the formats accepted by Export.
var ExportFormats = []string{"json", "jsonl", "csv"}

var csvHeader = []string{"title", "link", "date", "content", "image", "source", "scraped_at", "keywords_found"}

// Export writes records to w as a JSON array, newline-delimited JSON,
// or CSV with one row per record.
func Export(w io.Writer, format string, records []types.ArticleRecord) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if records == nil {
			records = []types.ArticleRecord{}
		}
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("encode JSON: %w", err)
		}
		return nil

	case "jsonl":
		enc := json.NewEncoder(w)
		for _, r := range records {
			if err := enc.Encode(r); err != nil {
				return fmt.Errorf("encode JSONL: %w", err)
			}
		}
		return nil

	case "csv":
		cw := csv.NewWriter(w)
		if err := cw.Write(csvHeader); err != nil {
			return fmt.Errorf("write CSV header: %w", err)
		}
		for _, r := range records {
			row := []string{
				r.Title,
				r.Link,
				r.Date,
				r.Content,
				r.Image,
				r.Source,
				r.ScrapedAt.Format(time.RFC3339),
				strings.Join(r.KeywordsFound, "; "),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write CSV row: %w", err)
			}
		}
		cw.Flush()
		return cw.Error()

	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}
