package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"expenses/internal/core"
	applog "expenses/internal/log"
)

func requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, codeValidation, "method not allowed", nil)
		return false
	}
	return true
}

func (s *Server) handleHealthcheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, codeValidation, "method not allowed", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	logger := applog.FromContext(r.Context())

	in, err := parseCreateRequest(w, r)
	if err != nil {
		logger.WarnContext(r.Context(), "Create validation failed",
			applog.FieldOperation, applog.OpCreate,
			applog.FieldError, err.Error())
		writeValidationError(w, err)
		return
	}

	expense, err := s.backend.CreateExpense(r.Context(), in)
	if err != nil {
		var fieldErrs core.FieldErrors
		if errors.As(err, &fieldErrs) {
			writeValidationError(w, err)
			return
		}
		writeInternalError(w, r, err)
		return
	}

	s.summaryCache.Purge()
	logger.InfoContext(r.Context(), "Expense created",
		applog.FieldOperation, applog.OpCreate,
		applog.FieldExpenseID, expense.ID,
		applog.FieldCategory, string(expense.Category),
		applog.FieldAmount, expense.Amount.Cents)
	writeJSON(w, http.StatusOK, toExpenseResponse(expense))
}

func (s *Server) handleGetExpenses(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	filter, err := parseFilterRequest(w, r)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	expenses, err := s.backend.GetExpenses(r.Context(), filter)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseList(expenses))
}

func (s *Server) handleGetExpenseByID(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	id, err := parseIDRequest(w, r)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	expense, err := s.backend.GetExpenseByID(r.Context(), id)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	if expense == nil {
		// Absence is not an error here: the client gets null.
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseResponse(*expense))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	logger := applog.FromContext(r.Context())

	in, err := parseUpdateRequest(w, r)
	if err != nil {
		logger.WarnContext(r.Context(), "Update validation failed",
			applog.FieldOperation, applog.OpUpdate,
			applog.FieldError, err.Error())
		writeValidationError(w, err)
		return
	}

	expense, err := s.backend.UpdateExpense(r.Context(), in)
	if err != nil {
		if errors.Is(err, core.ErrExpenseNotFound) {
			writeError(w, http.StatusNotFound, codeNotFound,
				fmt.Sprintf("expense %d not found", in.ID), nil)
			return
		}
		var fieldErrs core.FieldErrors
		if errors.As(err, &fieldErrs) {
			writeValidationError(w, err)
			return
		}
		writeInternalError(w, r, err)
		return
	}

	s.summaryCache.Purge()
	logger.InfoContext(r.Context(), "Expense updated",
		applog.FieldOperation, applog.OpUpdate,
		applog.FieldExpenseID, expense.ID)
	writeJSON(w, http.StatusOK, toExpenseResponse(expense))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	logger := applog.FromContext(r.Context())

	id, err := parseIDRequest(w, r)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	if err := s.backend.DeleteExpense(r.Context(), id); err != nil {
		writeInternalError(w, r, err)
		return
	}

	s.summaryCache.Purge()
	logger.InfoContext(r.Context(), "Expense deleted",
		applog.FieldOperation, applog.OpDelete,
		applog.FieldExpenseID, id)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	filter, err := parseFilterRequest(w, r)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	key := summaryCacheKey(filter)
	if summary, ok := s.summaryCache.Get(key); ok {
		writeJSON(w, http.StatusOK, toSummaryResponse(summary))
		return
	}

	summary, err := s.backend.Summarize(r.Context(), filter)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	s.summaryCache.Set(key, summary)
	writeJSON(w, http.StatusOK, toSummaryResponse(summary))
}

func summaryCacheKey(f core.ExpenseFilter) string {
	category := "*"
	if f.Category != nil {
		category = string(*f.Category)
	}
	month, year := 0, 0
	if f.Month != nil {
		month = *f.Month
	}
	if f.Year != nil {
		year = *f.Year
	}
	return fmt.Sprintf("summary:%s:%d:%d", category, month, year)
}
