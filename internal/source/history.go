package source

import (
	"database/sql"

	"github.com/obspack/obspack/internal/db"
)

// HistoryInput contains parameters for the History operation.
type HistoryInput struct {
	ID    string // optional: look up one run by its ULID
	Vault string // optional: restrict to one resolved vault directory
	Limit int    // optional: 0 means all
}

// HistoryOutput contains the result of the History operation.
type HistoryOutput struct {
	Count int       `json:"count"`
	Runs  []*db.Run `json:"runs"`
}

// History lists recorded pack runs, newest first. With an ID the result
// holds just that run; Vault and Limit are ignored.
func History(database *sql.DB, input HistoryInput) (*HistoryOutput, error) {
	if input.ID != "" {
		run, err := db.GetRun(database, input.ID)
		if err != nil {
			return nil, err
		}
		return &HistoryOutput{Count: 1, Runs: []*db.Run{run}}, nil
	}

	runs, err := db.ListRuns(database, input.Vault, input.Limit)
	if err != nil {
		return nil, err
	}
	return &HistoryOutput{Count: len(runs), Runs: runs}, nil
}

// RecordRun stores the outcome of a pack run in the history database.
func RecordRun(database *sql.DB, out *PackOutput) error {
	return db.InsertRun(database, &db.Run{
		Vault:          out.Vault,
		OutputPath:     out.Path,
		Notes:          out.Notes,
		Words:          out.Words,
		TokensEstimate: out.TokensEstimate,
		Truncated:      out.Truncated,
	})
}
