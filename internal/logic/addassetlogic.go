package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"hindsight-api/internal/svc"
	"hindsight-api/internal/types"
)

type AddAssetLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewAddAssetLogic(ctx context.Context, svcCtx *svc.ServiceContext) *AddAssetLogic {
	return &AddAssetLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// AddAsset selects a coin for comparison and queues its fetch.
func (l *AddAssetLogic) AddAsset(req *types.AddAssetReq) (*types.AddAssetResp, error) {
	asset, err := l.svcCtx.Dashboard.AddAsset(req.CoinId, req.Pinned)
	if err != nil {
		return nil, err
	}
	return &types.AddAssetResp{Asset: assetView(asset)}, nil
}
