package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest"

	"hindsight-api/internal/svc"
)

// RegisterHandlers mounts the dashboard API routes.
func RegisterHandlers(server *rest.Server, serverCtx *svc.ServiceContext) {
	server.AddRoutes(
		[]rest.Route{
			{
				Method:  http.MethodGet,
				Path:    "/api/coins/top",
				Handler: TopCoinsHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/api/coins/search",
				Handler: SearchCoinsHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/api/selection",
				Handler: SelectionHandler(serverCtx),
			},
			{
				Method:  http.MethodPost,
				Path:    "/api/selection",
				Handler: AddAssetHandler(serverCtx),
			},
			{
				Method:  http.MethodDelete,
				Path:    "/api/selection/:id",
				Handler: RemoveAssetHandler(serverCtx),
			},
			{
				Method:  http.MethodPut,
				Path:    "/api/selection/:id/visibility",
				Handler: SetVisibilityHandler(serverCtx),
			},
			{
				Method:  http.MethodPut,
				Path:    "/api/reference-date",
				Handler: SetReferenceDateHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/api/table",
				Handler: TableHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/api/chart",
				Handler: ChartHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/api/status",
				Handler: StatusHandler(serverCtx),
			},
		},
	)
}
