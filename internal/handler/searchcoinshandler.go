package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"hindsight-api/internal/logic"
	"hindsight-api/internal/svc"
	"hindsight-api/internal/types"
)

func SearchCoinsHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.SearchCoinsReq
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		l := logic.NewSearchCoinsLogic(r.Context(), svcCtx)
		resp, err := l.SearchCoins(&req)
		if err != nil {
			writeError(w, r, err, http.StatusInternalServerError)
			return
		}
		httpx.OkJsonCtx(r.Context(), w, resp)
	}
}
