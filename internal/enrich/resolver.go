package enrich

import (
	"strings"

	"github.com/sells-group/enrich-cli/internal/model"
)

// entityKeywords mark a column as a candidate entity column when its
// lowercased name contains any of them.
var entityKeywords = []string{"name", "company", "incubator", "organization"}

// ResolveEntityColumn picks the column holding the subject name used for
// lookups. The first column in declaration order whose lowercased name
// contains a keyword wins; with no match the first column is used. An empty
// table yields "" and the caller must skip processing.
//
// This is a best-effort heuristic and can misidentify the key column on
// unusual schemas; that is a documented limitation, not something to patch
// with guesswork.
func ResolveEntityColumn(t model.Table) string {
	if t.Empty() || len(t.Columns) == 0 {
		return ""
	}

	for _, col := range t.Columns {
		lc := strings.ToLower(col)
		for _, kw := range entityKeywords {
			if strings.Contains(lc, kw) {
				return col
			}
		}
	}

	return t.Columns[0]
}
