package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// maxChainDepth bounds Dump for error chains that wrap themselves.
const maxChainDepth = 16

// ErrorDump is the log-friendly view of an error.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Retryable  bool     `json:"retryable,omitempty"`
	Chain      []string `json:"chain,omitempty"`

	// Set when the postgres state store produced the failure.
	PGCode       string `json:"pg_code,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGMessage    string `json:"pg_message,omitempty"`
}

// Dump flattens err for structured logs. The chain stops at a joined error.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	out := ErrorDump{TopMessage: err.Error()}
	if typed := As(err); typed != nil {
		out.Code = typed.Code()
		out.Retryable = MetadataFor(typed.Code()).Retryable
	}

	for e, depth := err, 0; e != nil && depth < maxChainDepth; e, depth = errors.Unwrap(e), depth+1 {
		out.Chain = append(out.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		out.PGCode = pgErr.Code
		out.PGConstraint = pgErr.ConstraintName
		out.PGTable = pgErr.TableName
		out.PGMessage = pgErr.Message
	}
	return out
}
