package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/zeromicro/go-zero/rest/httpx"

	"hindsight-api/internal/dashboard"
	"hindsight-api/internal/types"
)

// statusForError maps domain errors onto HTTP status codes. Anything
// unrecognised gets the caller's fallback.
func statusForError(err error, fallback int) int {
	var parseErr *time.ParseError
	switch {
	case errors.Is(err, dashboard.ErrUnknownCoin), errors.Is(err, dashboard.ErrNotSelected):
		return http.StatusNotFound
	case errors.Is(err, dashboard.ErrDuplicateAsset), errors.Is(err, dashboard.ErrCoinsNotLoaded):
		return http.StatusConflict
	case errors.Is(err, dashboard.ErrPinnedLimit):
		return http.StatusUnprocessableEntity
	case errors.Is(err, dashboard.ErrFutureDate), errors.As(err, &parseErr):
		return http.StatusBadRequest
	default:
		return fallback
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error, fallback int) {
	httpx.WriteJsonCtx(r.Context(), w, statusForError(err, fallback), types.ErrorResp{Error: err.Error()})
}
