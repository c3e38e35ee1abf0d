package reporting

import (
	"encoding/csv"
	"io"
	"strconv"
)

// CSVHeader is the column order of RenderCSV.
var CSVHeader = []string{
	"as_of_date", "window", "rank", "item_id", "platform", "external_id", "display_name",
	"baseline_value", "latest_value", "delta", "delta_per_day", "delta_rate", "percentile",
}

// RenderCSV writes every section's records as one CSV table.
func RenderCSV(w io.Writer, r *Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}

	for _, s := range r.Sections {
		for _, m := range s.Records {
			err := cw.Write([]string{
				m.AsOfDate,
				m.Window.String(),
				strconv.Itoa(m.Rank),
				m.ItemID,
				m.Platform.String(),
				m.ExternalID,
				m.DisplayName,
				strconv.FormatInt(m.BaselineValue, 10),
				strconv.FormatInt(m.LatestValue, 10),
				strconv.FormatInt(m.Delta, 10),
				strconv.FormatFloat(m.DeltaPerDay, 'f', 6, 64),
				strconv.FormatFloat(m.DeltaRate, 'f', 6, 64),
				strconv.FormatFloat(m.Percentile, 'f', 2, 64),
			})
			if err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
