package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sqlagent/sqlagent/internal/observability"
)

const maxAskBodyBytes = 1 << 20

type askRequest struct {
	Question string `json:"question" validate:"required"`
}

type askResponse struct {
	Answer string `json:"answer"`
	Status string `json:"status"`
}

// fieldError mirrors the per-field entries of a request validation failure.
type fieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

type askHandler struct {
	gateway  Asker
	validate *validator.Validate
	logger   *slog.Logger
}

func (h *askHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.gateway == nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "INTERNAL", "An internal server error occurred: sql agent gateway is not configured")
		return
	}

	var request askRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxAskBodyBytes)).Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusUnprocessableEntity, "INVALID_JSON", []fieldError{{
			Loc:  []string{"body"},
			Msg:  "invalid request body: " + err.Error(),
			Type: "value_error.jsondecode",
		}})
		return
	}
	if err := h.validate.Struct(&request); err != nil {
		writeError(r.Context(), w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", validationDetail(err))
		return
	}

	answer, err := h.gateway.Ask(r.Context(), request.Question)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "sql agent ask failed",
			slog.String("trace_id", observability.TraceIDFromContext(r.Context())),
			slog.Any("error", err),
		)
		writeError(r.Context(), w, http.StatusInternalServerError, "INTERNAL", "An internal server error occurred: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, askResponse{Answer: answer.Text, Status: string(answer.Status)})
}

func validationDetail(err error) []fieldError {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []fieldError{{Loc: []string{"body"}, Msg: err.Error(), Type: "value_error"}}
	}
	details := make([]fieldError, 0, len(validationErrors))
	for _, fe := range validationErrors {
		details = append(details, fieldError{
			Loc:  []string{"body", strings.ToLower(fe.Field())},
			Msg:  "field " + fe.Tag(),
			Type: "value_error." + fe.Tag(),
		})
	}
	return details
}
