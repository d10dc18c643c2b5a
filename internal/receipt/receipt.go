package receipt

import (
	"time"

	"github.com/mwurst/bontrack/internal/parsing"
)

// Receipt is an archived receipt: the parsed fields plus metadata about the
// original document and the reconciliation verdict recorded at ingest time.
type Receipt struct {
	ID string `json:"id"`

	parsing.Receipt

	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`

	// Consistent and Difference hold the advisory reconciliation result,
	// frozen at parse time for review queries.
	Consistent bool    `json:"consistent"`
	Difference float64 `json:"difference"`

	Warnings []parsing.Warning `json:"warnings,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DedupKey returns the natural deduplication key, or "" when the date, time
// and Bon-Nr. triple is absent. The parser populates the triple all together
// or not at all, so a partial key cannot occur.
func (r *Receipt) DedupKey() string {
	if r.Date == "" {
		return ""
	}
	return r.Date + "|" + r.Time + "|" + r.BonNr
}
