package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"hindsight-api/internal/svc"
	"hindsight-api/internal/types"
)

type RemoveAssetLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewRemoveAssetLogic(ctx context.Context, svcCtx *svc.ServiceContext) *RemoveAssetLogic {
	return &RemoveAssetLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// RemoveAsset deselects a coin and purges its cached data.
func (l *RemoveAssetLogic) RemoveAsset(req *types.RemoveAssetReq) error {
	return l.svcCtx.Dashboard.RemoveAsset(req.Id)
}
