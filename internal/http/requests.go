package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"expenses/internal/core"
)

// Request bodies are small JSON procedure payloads.
const maxBodyBytes = 1 << 20

var errEmptyBody = errors.New("empty body")

// decodeJSONBody decodes the request body into v. Unknown fields are
// ignored, matching the permissive schema validation of the API.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

type createExpenseRequest struct {
	Amount      *float64 `json:"amount"`
	Date        *string  `json:"date"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
}

// parseCreateRequest decodes and coerces the create payload, collecting
// every field problem before giving up.
func parseCreateRequest(w http.ResponseWriter, r *http.Request) (core.CreateExpenseInput, error) {
	var req createExpenseRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		return core.CreateExpenseInput{}, core.FieldErrors{"body": "invalid JSON body"}
	}

	var in core.CreateExpenseInput
	errs := core.FieldErrors{}

	if req.Amount == nil {
		errs["amount"] = "required"
	} else if m, err := core.MoneyFromFloat(*req.Amount); err != nil {
		errs["amount"] = err.Error()
	} else {
		in.Amount = m
	}
	if req.Date == nil {
		errs["date"] = "required"
	} else if d, err := core.ParseDate(*req.Date); err != nil {
		errs["date"] = err.Error()
	} else {
		in.Date = d
	}
	if req.Description == nil {
		errs["description"] = "required"
	} else {
		in.Description = strings.TrimSpace(*req.Description)
	}
	if req.Category == nil {
		errs["category"] = "required"
	} else if c, err := core.ParseCategory(*req.Category); err != nil {
		errs["category"] = err.Error()
	} else {
		in.Category = c
	}

	if len(errs) > 0 {
		return core.CreateExpenseInput{}, errs
	}
	if err := in.Validate(); err != nil {
		return core.CreateExpenseInput{}, err
	}
	return in, nil
}

type updateExpenseRequest struct {
	ID          *int64   `json:"id"`
	Amount      *float64 `json:"amount"`
	Date        *string  `json:"date"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
}

func parseUpdateRequest(w http.ResponseWriter, r *http.Request) (core.UpdateExpenseInput, error) {
	var req updateExpenseRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		return core.UpdateExpenseInput{}, core.FieldErrors{"body": "invalid JSON body"}
	}

	var in core.UpdateExpenseInput
	errs := core.FieldErrors{}

	if req.ID == nil {
		errs["id"] = "required"
	} else {
		in.ID = *req.ID
	}
	if req.Amount != nil {
		m, err := core.MoneyFromFloat(*req.Amount)
		if err != nil {
			errs["amount"] = err.Error()
		} else {
			in.Amount = &m
		}
	}
	if req.Date != nil {
		d, err := core.ParseDate(*req.Date)
		if err != nil {
			errs["date"] = err.Error()
		} else {
			in.Date = &d
		}
	}
	if req.Description != nil {
		desc := strings.TrimSpace(*req.Description)
		in.Description = &desc
	}
	if req.Category != nil {
		c, err := core.ParseCategory(*req.Category)
		if err != nil {
			errs["category"] = err.Error()
		} else {
			in.Category = &c
		}
	}

	if len(errs) > 0 {
		return core.UpdateExpenseInput{}, errs
	}
	if err := in.Validate(); err != nil {
		return core.UpdateExpenseInput{}, err
	}
	return in, nil
}

type filterRequest struct {
	Category *string `json:"category"`
	Month    *int    `json:"month"`
	Year     *int    `json:"year"`
}

// parseFilterRequest tolerates an empty or absent body, which means
// "all rows".
func parseFilterRequest(w http.ResponseWriter, r *http.Request) (core.ExpenseFilter, error) {
	var req filterRequest
	if err := decodeJSONBody(w, r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		return core.ExpenseFilter{}, core.FieldErrors{"body": "invalid JSON body"}
	}

	var f core.ExpenseFilter
	errs := core.FieldErrors{}

	if req.Category != nil {
		c, err := core.ParseCategory(*req.Category)
		if err != nil {
			errs["category"] = err.Error()
		} else {
			f.Category = &c
		}
	}
	f.Month = req.Month
	f.Year = req.Year

	if len(errs) > 0 {
		return core.ExpenseFilter{}, errs
	}
	if err := f.Validate(); err != nil {
		return core.ExpenseFilter{}, err
	}
	return f, nil
}

// parseIDRequest reads a bare JSON number body, e.g. `7`.
func parseIDRequest(w http.ResponseWriter, r *http.Request) (int64, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	var raw json.Number
	if err := dec.Decode(&raw); err != nil {
		return 0, core.FieldErrors{"id": "expected a JSON number"}
	}
	id, err := raw.Int64()
	if err != nil {
		return 0, core.FieldErrors{"id": "expected an integer id"}
	}
	if id <= 0 {
		return 0, core.FieldErrors{"id": core.ErrMissingID.Error()}
	}
	return id, nil
}
