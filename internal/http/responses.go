package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"expenses/internal/core"
)

const (
	codeValidation = "VALIDATION"
	codeNotFound   = "NOT_FOUND"
	codeInternal   = "INTERNAL"
)

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string, fields map[string]string) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{
		Code:    code,
		Message: message,
		Fields:  fields,
	}})
}

// writeValidationError maps core.FieldErrors to the 400 envelope, exposing
// the per-field messages. Other validation failures get a bare message.
func writeValidationError(w http.ResponseWriter, err error) {
	var fieldErrs core.FieldErrors
	if errors.As(err, &fieldErrs) {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error(), fieldErrs)
		return
	}
	writeError(w, http.StatusBadRequest, codeValidation, err.Error(), nil)
}

// writeInternalError logs the real error and returns a generic message.
func writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "Internal error",
		"error", err,
		"url", r.URL.Path)
	writeError(w, http.StatusInternalServerError, codeInternal, "internal server error", nil)
}

// expenseResponse is the wire shape of one expense record.
type expenseResponse struct {
	ID          int64   `json:"id"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	CreatedAt   string  `json:"created_at"`
}

func toExpenseResponse(e core.Expense) expenseResponse {
	return expenseResponse{
		ID:          e.ID,
		Amount:      e.Amount.Float64(),
		Date:        e.Date.String(),
		Description: e.Description,
		Category:    string(e.Category),
		CreatedAt:   e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// toExpenseList never returns nil so the JSON is always an array.
func toExpenseList(expenses []core.Expense) []expenseResponse {
	out := make([]expenseResponse, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, toExpenseResponse(e))
	}
	return out
}

type categoryTotalResponse struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Count    int     `json:"count"`
}

type summaryResponse struct {
	Total      float64                 `json:"total"`
	Count      int                     `json:"count"`
	ByCategory []categoryTotalResponse `json:"by_category"`
}

func toSummaryResponse(s core.Summary) summaryResponse {
	byCategory := make([]categoryTotalResponse, 0, len(s.ByCategory))
	for _, ct := range s.ByCategory {
		byCategory = append(byCategory, categoryTotalResponse{
			Category: string(ct.Category),
			Total:    ct.Total.Float64(),
			Count:    ct.Count,
		})
	}
	return summaryResponse{
		Total:      s.Total.Float64(),
		Count:      s.Count,
		ByCategory: byCategory,
	}
}
