package repository

import (
	"context"

	"geek-ludo/internal/domain"
)

// JudgeGateway 是题库与评测服务的访问接口。
type JudgeGateway interface {
	// FetchChallenge 获取一道随机题目。
	// 服务端返回 {"error": ...} 时返回 *JudgeError；网络问题包装 ErrUnavailable。
	FetchChallenge(ctx context.Context) (*domain.Challenge, error)

	// Submit 对候选解执行预测试。答案错误不是 error，而是 Success=false 的结果。
	Submit(ctx context.Context, sub domain.Submission) (*domain.JudgeResult, error)
}
