package domain

// Company represents a company node in the deal graph.
// Corresponds to companies table in PostgreSQL.
type Company struct {
	ID          string // PRIMARY KEY
	Name        string // display name
	Slug        string // unique URL-safe identifier
	Ticker      string // stock ticker, empty if private
	Description string // optional free text
	CreatedAt   int64  // record creation timestamp (ms)
}
