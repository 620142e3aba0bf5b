package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"hindsight-api/internal/svc"
	"hindsight-api/internal/types"
)

type StatusLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewStatusLogic(ctx context.Context, svcCtx *svc.ServiceContext) *StatusLogic {
	return &StatusLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// Status reports the orchestrator's externally observable state.
func (l *StatusLogic) Status() (*types.StatusResp, error) {
	s := l.svcCtx.Dashboard.Status()
	return &types.StatusResp{
		State:         s.State,
		Epoch:         s.Epoch,
		ReferenceDate: s.ReferenceDate,
		Fetched:       s.Fetched,
		Pending:       s.Pending,
		Outcomes:      s.Outcomes,
	}, nil
}
