package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"hindsight-api/internal/logic"
	"hindsight-api/internal/svc"
)

// TopCoinsHandler serves the session coin universe. A provider failure is
// fatal to the view, so it surfaces as 502 rather than an empty list.
func TopCoinsHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := logic.NewTopCoinsLogic(r.Context(), svcCtx)
		resp, err := l.TopCoins()
		if err != nil {
			writeError(w, r, err, http.StatusBadGateway)
			return
		}
		httpx.OkJsonCtx(r.Context(), w, resp)
	}
}
