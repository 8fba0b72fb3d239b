package model

import "time"

// Run is a persisted record of one enrichment run.
type Run struct {
	ID           string    `json:"id"`
	Source       string    `json:"source"` // input file path or "http"
	Status       string    `json:"status"` // final pipeline state
	RowsTotal    int       `json:"rows_total"`
	RowsEnriched int       `json:"rows_enriched"`
	Completion   float64   `json:"completion"` // overall field completion, 0..1
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
