package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"fintrack/internal/core"
)

// maxBodyBytes bounds form and JSON bodies.
const maxBodyBytes = 64 << 10

var errInvalidIndex = errors.New("index must be an integer")

// ParseFilterDate reads the filter parameter key from values. The value is
// matched against stored dates as is; empty means no filter.
func ParseFilterDate(values url.Values, key string) string {
	return values.Get(key)
}

// ParseIndex reads the {index} path segment.
func ParseIndex(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.PathValue("index"))
	i, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errInvalidIndex, raw)
	}
	return i, nil
}

// ParseTransactionForm builds a transaction from form fields. Validation is
// left to the service.
func ParseTransactionForm(form url.Values) core.Transaction {
	return core.Transaction{
		Type:        core.TransactionType(sanitizeInput(form.Get("type"))),
		Description: sanitizeInput(form.Get("description")),
		Amount:      core.Amount(sanitizeInput(form.Get("amount"))),
		Date:        sanitizeInput(form.Get("date")),
	}
}

// RequestBodyParser reads a transaction from either a JSON object or a
// form-encoded body. The body is read once.
type RequestBodyParser struct {
	body        []byte
	contentType string
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{contentType: r.Header.Get("Content-Type")}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// IsJSON reports whether the body should be decoded as JSON.
func (p *RequestBodyParser) IsJSON() bool {
	if strings.HasPrefix(p.contentType, "application/json") {
		return true
	}
	trimmed := strings.TrimSpace(string(p.body))
	return strings.HasPrefix(trimmed, "{")
}

// Transaction decodes the body. JSON numbers in "amount" keep their
// literal text.
func (p *RequestBodyParser) Transaction() (core.Transaction, error) {
	if p.err != nil {
		return core.Transaction{}, fmt.Errorf("read body: %w", p.err)
	}

	if p.IsJSON() {
		var tx core.Transaction
		if err := json.Unmarshal(p.body, &tx); err != nil {
			return core.Transaction{}, fmt.Errorf("decode body: %w", err)
		}
		tx.Description = sanitizeInput(tx.Description)
		return tx, nil
	}

	form, err := url.ParseQuery(string(p.body))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("decode form: %w", err)
	}
	return ParseTransactionForm(form), nil
}
