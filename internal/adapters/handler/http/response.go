package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
)

type errorMessage struct {
	Message string `json:"message"`
}

type errorBody struct {
	Errors []errorMessage `json:"errors"`
}

type amountBody struct {
	Amount int `json:"amount"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

func writeMessage(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorBody{Errors: []errorMessage{{Message: msg}}})
}

func noContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// statusOf maps a service error to its HTTP status. Denials of anonymous
// callers are 401, every other denial is 403.
func statusOf(err error, p domain.Principal) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		if !p.Authenticated() {
			return http.StatusUnauthorized
		}
		return http.StatusForbidden
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUpdateFailed), errors.Is(err, domain.ErrDeleteFailed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err, principalFrom(r.Context()))
	if status == http.StatusInternalServerError {
		h.log.WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"path":       r.URL.Path,
		}).WithError(err).Error("request failed")
		writeMessage(w, r, status, "Internal server error.")
		return
	}

	msg := err.Error()
	var derr *domain.Error
	if errors.As(err, &derr) {
		msg = derr.Msg
	}
	writeMessage(w, r, status, msg)
}

func decode(r *http.Request, v any) error {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		return domain.Errorf(domain.ErrValidation, "Invalid request body.")
	}
	return nil
}

// page reads limit, offset and sort from the query string. Sort keys are
// checked against the sortable fields of the listed entity.
func page(r *http.Request, sortable map[string]string) (domain.Page, error) {
	q := r.URL.Query()
	var p domain.Page
	for name, dst := range map[string]*int64{"limit": &p.Limit, "offset": &p.Offset} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			return domain.Page{}, domain.Errorf(domain.ErrValidation, "Invalid %s.", name)
		}
		*dst = n
	}
	sorts, err := domain.ParseSort(q.Get("sort"), sortable)
	if err != nil {
		return domain.Page{}, err
	}
	p.Sort = sorts
	return p, nil
}
