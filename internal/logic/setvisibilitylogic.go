package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"hindsight-api/internal/svc"
	"hindsight-api/internal/types"
)

type SetVisibilityLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewSetVisibilityLogic(ctx context.Context, svcCtx *svc.ServiceContext) *SetVisibilityLogic {
	return &SetVisibilityLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// SetVisibility toggles an asset's chart inclusion.
func (l *SetVisibilityLogic) SetVisibility(req *types.SetVisibilityReq) error {
	return l.svcCtx.Dashboard.SetVisible(req.Id, req.Visible)
}
