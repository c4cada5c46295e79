package cli

// This file contains the list command for displaying the trend history
// stored in the CSV attachment of the wiki page.

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/perfgo/trendwiki/config"
	"github.com/perfgo/trendwiki/publish"
	"github.com/perfgo/trendwiki/trend"
)

// historyRow is one parsed line of a history attachment.
type historyRow struct {
	Timestamp time.Time
	Job       string
	Number    int
	Result    string
	// family specific columns following the result
	Metrics []string
}

var metricColumns = map[trend.Family][]string{
	trend.FamilyTestReport:  {"duration_ms", "total", "failed", "skipped"},
	trend.FamilyPerformance: {"samples", "average", "median", "line90", "min", "max", "error_percent"},
}

func (a *App) list(ctx *cli.Context) error {
	limit := ctx.Int("limit")

	family := trend.FamilyTestReport
	if ctx.Bool("performance") {
		family = trend.FamilyPerformance
	}

	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return err
	}

	target, ok := config.ParseDocumentURI(cfg.DocumentURI)
	if !ok {
		return fmt.Errorf("invalid codeBeamer wiki URI: %s", cfg.DocumentURI)
	}

	creds, err := connect(cfg)
	if err != nil {
		return err
	}

	client := a.newClient(cfg, creds, target)
	name := family.AttachmentName()

	attachment, err := publish.NewReconciler(a.logger, client).Find(ctx.Context, name)
	if err != nil {
		return fmt.Errorf("failed to look up attachment %s: %w", name, err)
	}
	if attachment == nil {
		fmt.Printf("No %s history found on wiki page %s\n", family, target.WikiID)
		return nil
	}

	content, err := client.ReadAttachmentContent(ctx.Context, attachment.ID)
	if err != nil {
		return fmt.Errorf("failed to read attachment %s: %w", name, err)
	}

	rows, err := parseHistory(content, family)
	if err != nil {
		return fmt.Errorf("failed to parse attachment %s: %w", name, err)
	}

	if len(rows) == 0 {
		fmt.Println("No history entries found")
		return nil
	}

	// rows are stored newest first
	displayRows := rows
	if limit > 0 && limit < len(displayRows) {
		displayRows = displayRows[:limit]
	}

	fmt.Printf("\n=== %s history (%d total) ===\n\n", family, len(rows))

	columns := metricColumns[family]
	for _, row := range displayRows {
		status := "✓"
		if row.Result != "SUCCESS" {
			status = "✗"
		}

		fmt.Printf("%s  %s  %s #%d  %s\n", status, row.Timestamp.Format("2006-01-02 15:04:05"), row.Job, row.Number, row.Result)

		metrics := ""
		for i, col := range columns {
			if i < len(row.Metrics) {
				metrics += fmt.Sprintf(" %s=%s", col, row.Metrics[i])
			}
		}
		if metrics != "" {
			fmt.Printf("  %s\n", metrics)
		}
	}
	fmt.Println()

	return nil
}

// parseHistory parses the rows of a history attachment in stored order.
func parseHistory(content []byte, family trend.Family) ([]historyRow, error) {
	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = 4 + len(metricColumns[family])

	var rows []historyRow
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		millis, err := strconv.ParseInt(record[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp %q: %w", record[0], err)
		}
		number, err := strconv.Atoi(record[2])
		if err != nil {
			return nil, fmt.Errorf("invalid build number %q: %w", record[2], err)
		}

		rows = append(rows, historyRow{
			Timestamp: time.UnixMilli(millis).UTC(),
			Job:       record[1],
			Number:    number,
			Result:    record[3],
			Metrics:   record[4:],
		})
	}

	return rows, nil
}
