package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"hindsight-api/internal/svc"
	"hindsight-api/internal/types"
)

type SearchCoinsLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewSearchCoinsLogic(ctx context.Context, svcCtx *svc.ServiceContext) *SearchCoinsLogic {
	return &SearchCoinsLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// SearchCoins filters the session universe by substring over id, symbol and name.
func (l *SearchCoinsLogic) SearchCoins(req *types.SearchCoinsReq) (*types.SearchCoinsResp, error) {
	matches := l.svcCtx.Dashboard.SearchCoins(req.Query)
	return &types.SearchCoinsResp{Coins: coinViews(matches)}, nil
}
