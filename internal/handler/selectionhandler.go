package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"hindsight-api/internal/logic"
	"hindsight-api/internal/svc"
)

func SelectionHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := logic.NewSelectionLogic(r.Context(), svcCtx)
		resp, err := l.Selection()
		if err != nil {
			writeError(w, r, err, http.StatusInternalServerError)
			return
		}
		httpx.OkJsonCtx(r.Context(), w, resp)
	}
}
