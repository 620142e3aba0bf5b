package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"hindsight-api/internal/svc"
	"hindsight-api/internal/types"
)

type TopCoinsLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewTopCoinsLogic(ctx context.Context, svcCtx *svc.ServiceContext) *TopCoinsLogic {
	return &TopCoinsLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// TopCoins returns the session coin universe, fetching it on first use. A
// provider failure here is fatal to the whole view and surfaces as 502.
func (l *TopCoinsLogic) TopCoins() (*types.TopCoinsResp, error) {
	coins, err := l.svcCtx.Dashboard.LoadCoins(l.ctx)
	if err != nil {
		l.Errorf("topcoins: load coin universe: %v", err)
		return nil, err
	}
	return &types.TopCoinsResp{Coins: coinViews(coins)}, nil
}
