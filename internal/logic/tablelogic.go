package logic

import (
	"context"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"hindsight-api/internal/dashboard"
	"hindsight-api/internal/svc"
	"hindsight-api/internal/types"
)

type TableLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewTableLogic(ctx context.Context, svcCtx *svc.ServiceContext) *TableLogic {
	return &TableLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// Table renders the sorted comparison rows. A field parameter acts as a
// column header click; an explicit order parameter pins the direction.
func (l *TableLogic) Table(req *types.TableReq) (*types.TableResp, error) {
	db := l.svcCtx.Dashboard

	if req.Field != "" {
		state := db.ClickSort(dashboard.ParseSortField(req.Field))
		if order := strings.ToLower(strings.TrimSpace(req.Order)); order == "asc" || order == "desc" {
			state.Ascending = order == "asc"
			db.SetSort(state)
		}
	}

	assets, state := db.SortedSelection()
	rows := make([]types.TableRow, 0, len(assets))
	for _, asset := range assets {
		rows = append(rows, types.TableRow{
			CoinId:          asset.Coin.ID,
			Name:            asset.Coin.Name,
			Symbol:          strings.ToUpper(asset.Coin.Symbol),
			Image:           asset.Coin.Image,
			Color:           asset.Color,
			Pinned:          asset.Pinned,
			Visible:         asset.Visible,
			HistoricalPrice: dashboard.FormatPrice(asset.HistoricalPrice),
			CurrentPrice:    dashboard.FormatPrice(&asset.Coin.CurrentPrice),
			ChangePct:       dashboard.CalculateChange(asset.HistoricalPrice, asset.Coin.CurrentPrice),
		})
	}
	return &types.TableResp{
		Rows:      rows,
		SortField: string(state.Field),
		Ascending: state.Ascending,
	}, nil
}
