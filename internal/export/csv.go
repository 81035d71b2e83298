// Package export renders rankings into download formats: CSV for
// spreadsheet handoff and KML for map overlays.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"enforcement-analytics/internal/analytics"
)

// utf8BOM keeps spreadsheet tools from mangling the Chinese columns.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var recommendationsHeader = []string{
	"rank", "district", "location", "topic", "score", "vpi", "cri",
	"tickets", "crashes", "crash_a1", "crash_a2", "crash_a3",
	"violation_days", "avg_tickets_per_day", "trend_pct",
}

// WriteRecommendationsCSV renders one ranking run as UTF-8 CSV. Sites with
// no baseline leave the trend column empty rather than printing 0.
func WriteRecommendationsCSV(w io.Writer, sites []analytics.RankedSite) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(recommendationsHeader); err != nil {
		return err
	}
	for _, s := range sites {
		trend := ""
		if s.TrendPct != nil {
			trend = formatFloat(*s.TrendPct)
		}
		row := []string{
			strconv.Itoa(s.Rank),
			s.Site.District,
			s.Site.Name,
			string(s.Topic),
			formatFloat(s.Score),
			formatFloat(s.VPI),
			formatFloat(s.CRI),
			strconv.Itoa(s.TicketCount),
			strconv.Itoa(s.CrashCount),
			strconv.Itoa(s.CrashA1),
			strconv.Itoa(s.CrashA2),
			strconv.Itoa(s.CrashA3),
			strconv.Itoa(s.ViolationDays),
			formatFloat(s.AvgPerDay),
			trend,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
