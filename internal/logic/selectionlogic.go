package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"hindsight-api/internal/svc"
	"hindsight-api/internal/types"
)

type SelectionLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewSelectionLogic(ctx context.Context, svcCtx *svc.ServiceContext) *SelectionLogic {
	return &SelectionLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// Selection returns the current asset list in insertion order.
func (l *SelectionLogic) Selection() (*types.SelectionResp, error) {
	assets := l.svcCtx.Dashboard.Selection()
	views := make([]types.AssetView, 0, len(assets))
	for _, asset := range assets {
		views = append(views, assetView(asset))
	}
	return &types.SelectionResp{Assets: views}, nil
}
