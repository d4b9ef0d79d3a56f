// internal/api/handler/api/ask.go
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/newthinker/cryptodesk/internal/api/response"
	"github.com/newthinker/cryptodesk/internal/assistant"
	"github.com/newthinker/cryptodesk/internal/core"
)

const maxBodyBytes = 64 << 10

// Asker answers questions. assistant.Assistant implements it.
type Asker interface {
	Ask(ctx context.Context, req assistant.Request) (*assistant.Answer, error)
}

// AskHandler handles question API requests.
type AskHandler struct {
	asker Asker
}

// NewAskHandler creates a new ask handler.
func NewAskHandler(asker Asker) *AskHandler {
	return &AskHandler{asker: asker}
}

// Ask handles POST /api/v1/ask with {"query", "convert_to", "amount"}.
func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req assistant.Request
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, core.WrapError(core.ErrInvalidRequest, fmt.Errorf("decoding body: %w", err)))
		return
	}

	answer, err := h.asker.Ask(r.Context(), req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, answer)
}
