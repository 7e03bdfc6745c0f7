package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/okian/jumper/internal/domain/submission"
	"github.com/okian/jumper/internal/domain/types"
	"github.com/okian/jumper/pkg/logger"
)

// maxSubmitBody bounds POST /submit-score payloads.
const maxSubmitBody = 16 << 10

// SubmitHandler handles score submissions.
type SubmitHandler struct {
	deps    Dependencies
	touches *atomic.Int64
	log     logger.Logger
}

// NewSubmitHandler creates a new submit handler.
func NewSubmitHandler(deps Dependencies, touches *atomic.Int64, log logger.Logger) *SubmitHandler {
	return &SubmitHandler{deps: deps, touches: touches, log: log}
}

// HandleSubmit handles POST /submit-score requests.
func (h *SubmitHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_score"
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	fields, err := decodeFields(w, r)
	if err != nil {
		h.log.Debug(r.Context(), "malformed submission", logger.String("op", op), logger.Error(err))
		writeError(w, http.StatusBadRequest, msgInvalidData, types.CategoryValidation, err)
		return
	}

	h.touches.Add(1)
	if _, err := h.deps.Submit(r.Context(), fields); err != nil {
		var verr *submission.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, msgInvalidData, types.CategoryValidation, verr)
			return
		}
		h.log.Error(r.Context(), "error submitting score",
			logger.String("op", op),
			logger.String("requestID", RequestIDFrom(r.Context())),
			logger.Error(err),
		)
		writeError(w, http.StatusInternalServerError, msgInternalError, types.CategoryInternal, err)
		return
	}

	writeJSON(w, http.StatusOK, types.SubmitResponse{Success: true, Message: msgSubmitted})
}

// decodeFields reads one JSON object, keeping numbers as json.Number.
func decodeFields(w http.ResponseWriter, r *http.Request) (submission.Fields, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSubmitBody))
	dec.UseNumber()

	var fields submission.Fields
	if err := dec.Decode(&fields); err != nil {
		return nil, wrapKind("api.decode", ErrBadRequest, errors.New("body must be a JSON object"))
	}
	if fields == nil {
		return nil, wrapKind("api.decode", ErrBadRequest, errors.New("body must be a JSON object"))
	}
	if dec.More() {
		return nil, wrapKind("api.decode", ErrBadRequest, errors.New("body must hold a single JSON object"))
	}
	return fields, nil
}
