package logic

import (
	"context"
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"hindsight-api/internal/svc"
	"hindsight-api/internal/types"
)

const referenceDateLayout = "2006-01-02"

type SetReferenceDateLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewSetReferenceDateLogic(ctx context.Context, svcCtx *svc.ServiceContext) *SetReferenceDateLogic {
	return &SetReferenceDateLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// SetReferenceDate switches the comparison date, invalidating the epoch and
// restarting orchestration over the full selection.
func (l *SetReferenceDateLogic) SetReferenceDate(req *types.SetReferenceDateReq) (*types.SetReferenceDateResp, error) {
	date, err := time.ParseInLocation(referenceDateLayout, req.Date, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, want YYYY-MM-DD: %w", req.Date, err)
	}
	if err := l.svcCtx.Dashboard.SetReferenceDate(date); err != nil {
		return nil, err
	}
	status := l.svcCtx.Dashboard.Status()
	return &types.SetReferenceDateResp{
		ReferenceDate: status.ReferenceDate,
		Epoch:         status.Epoch,
	}, nil
}
