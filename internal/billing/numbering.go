package billing

import (
	"fmt"
	"regexp"
	"strconv"

	ierr "github.com/diewo77/invoice-api/internal/errors"
	"github.com/diewo77/invoice-api/internal/models"
)

// Number prefixes per document type.
const (
	PrefixInvoice = "FA"
	PrefixQuote   = "DE"
)

// SequenceScope selects which documents share a sequence counter.
type SequenceScope string

const (
	// ScopeGlobal shares one counter across types and years: an invoice and
	// a quote created back to back get consecutive sequences, and the
	// sequence does not restart in January.
	ScopeGlobal SequenceScope = "global"
	// ScopeTypeYear keeps one counter per prefix and year (FA2024, DE2024, ...).
	ScopeTypeYear SequenceScope = "type_year"
)

// ParseSequenceScope validates a configured scope name. Empty means global.
func ParseSequenceScope(s string) (SequenceScope, error) {
	switch SequenceScope(s) {
	case "", ScopeGlobal:
		return ScopeGlobal, nil
	case ScopeTypeYear:
		return ScopeTypeYear, nil
	}
	return "", ierr.InvalidInput("unknown numbering scope %q", s)
}

// Prefix returns the number prefix for t.
func Prefix(t models.DocumentType) (string, error) {
	switch t {
	case models.DocumentTypeInvoice:
		return PrefixInvoice, nil
	case models.DocumentTypeQuote:
		return PrefixQuote, nil
	}
	return "", ierr.InvalidInput("unknown document type %q", t)
}

// AssignNumber formats the number of a new document given how many
// documents precede it in its sequence: {prefix}{year}-{count+1}, the
// sequence zero-padded to at least four digits (FA2024-0001, FA2024-10000).
//
// Uniqueness is not enforced here; the caller must serialise the count read
// with the insert of the numbered document.
func AssignNumber(existingCount int64, t models.DocumentType, year int) (string, error) {
	prefix, err := Prefix(t)
	if err != nil {
		return "", err
	}
	if existingCount < 0 {
		return "", ierr.InvalidInput("document count must not be negative, got %d", existingCount)
	}
	return fmt.Sprintf("%s%d-%04d", prefix, year, existingCount+1), nil
}

// CounterKey names the counter bucket a new document of type t in year
// draws its sequence from under scope.
func CounterKey(scope SequenceScope, t models.DocumentType, year int) (string, error) {
	prefix, err := Prefix(t)
	if err != nil {
		return "", err
	}
	switch scope {
	case ScopeGlobal, "":
		return string(ScopeGlobal), nil
	case ScopeTypeYear:
		return fmt.Sprintf("%s%d", prefix, year), nil
	}
	return "", ierr.InvalidInput("unknown numbering scope %q", scope)
}

var numberRe = regexp.MustCompile(`^(FA|DE)(\d{4})-(\d{4,})$`)

// ParseNumber splits a document number into its type, year and sequence.
func ParseNumber(number string) (t models.DocumentType, year int, seq int64, err error) {
	m := numberRe.FindStringSubmatch(number)
	if m == nil {
		return "", 0, 0, ierr.InvalidInput("malformed document number %q", number)
	}
	t = models.DocumentTypeInvoice
	if m[1] == PrefixQuote {
		t = models.DocumentTypeQuote
	}
	year, _ = strconv.Atoi(m[2])
	seq, err = strconv.ParseInt(m[3], 10, 64)
	if err != nil {
		return "", 0, 0, ierr.InvalidInput("malformed document number %q", number)
	}
	return t, year, seq, nil
}
