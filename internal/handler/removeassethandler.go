package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"hindsight-api/internal/logic"
	"hindsight-api/internal/svc"
	"hindsight-api/internal/types"
)

func RemoveAssetHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.RemoveAssetReq
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		l := logic.NewRemoveAssetLogic(r.Context(), svcCtx)
		if err := l.RemoveAsset(&req); err != nil {
			writeError(w, r, err, http.StatusInternalServerError)
			return
		}
		httpx.Ok(w)
	}
}
