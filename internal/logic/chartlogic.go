package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"hindsight-api/internal/dashboard"
	"hindsight-api/internal/svc"
	"hindsight-api/internal/types"
)

type ChartLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewChartLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ChartLogic {
	return &ChartLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// Chart builds the downsampled chart records for visible assets.
func (l *ChartLogic) Chart(req *types.ChartReq) (*types.ChartResp, error) {
	mode := dashboard.ChartModePrice
	if req.Mode == string(dashboard.ChartModeMarketCap) {
		mode = dashboard.ChartModeMarketCap
	}
	display := dashboard.ChartDisplayRaw
	if req.Display == string(dashboard.ChartDisplayNormalized) {
		display = dashboard.ChartDisplayNormalized
	}

	records := l.svcCtx.Dashboard.ChartData(mode, display)
	views := make([]types.ChartRecordView, 0, len(records))
	for _, rec := range records {
		views = append(views, types.ChartRecordView{
			Timestamp:   rec.Timestamp,
			DisplayDate: rec.DisplayDate,
			Values:      rec.Values,
		})
	}
	return &types.ChartResp{
		Mode:    string(mode),
		Display: string(display),
		Records: views,
	}, nil
}
