package enrich

import (
	"maps"
	"strings"

	"github.com/sells-group/enrich-cli/internal/model"
)

// AttributeStat reports how many rows carry a value for one attribute.
type AttributeStat struct {
	Attribute string  `json:"attribute"`
	Count     int     `json:"count"`
	Percent   float64 `json:"percent"`
}

// Summary is the post-hoc aggregation over an original/processed table pair.
type Summary struct {
	Rows        int             `json:"rows"`
	Attributes  []AttributeStat `json:"attributes"`
	Completion  float64         `json:"completion"`   // populated cells / (attributes × rows)
	ChangedRows []int           `json:"changed_rows"` // indices where processed differs from original
}

// Summarize computes completion statistics and the changed-row set for a
// processed table against its original. Pure and deterministic; comparison
// is index-aligned, and a processed row with no original counterpart counts
// as changed.
func Summarize(original, processed model.Table) Summary {
	s := Summary{Rows: len(processed.Rows)}

	populated := 0
	for _, attr := range model.Attributes {
		count := 0
		for _, row := range processed.Rows {
			if strings.TrimSpace(row[attr]) != "" {
				count++
			}
		}
		populated += count
		pct := 0.0
		if s.Rows > 0 {
			pct = float64(count) / float64(s.Rows)
		}
		s.Attributes = append(s.Attributes, AttributeStat{
			Attribute: attr,
			Count:     count,
			Percent:   pct,
		})
	}

	if s.Rows > 0 {
		s.Completion = float64(populated) / float64(len(model.Attributes)*s.Rows)
	}

	for i, row := range processed.Rows {
		if i >= len(original.Rows) || !maps.Equal(row, original.Rows[i]) {
			s.ChangedRows = append(s.ChangedRows, i)
		}
	}

	return s
}
