package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"geek-ludo/internal/domain"
	"geek-ludo/internal/repository"
)

// 挑战弹窗与评审面板上展示的文本
const (
	consoleIdleText      = "Output will appear here..."
	consoleRunningText   = "Running Pretests..."
	consolePassedText    = "✅ PRETESTS PASSED! Initiating Hack Phase..."
	networkErrorText     = "Network Error!"
	serverErrorText      = "Server Error"
	reviewPromptText     = "Enter input data to crash this code."
	incompleteVerdictMsg = "Please provide BOTH Test Input and Expected Output!"
	defaultLanguage      = "python"
)

// Coordinator 负责挑战的获取与提交，以及 hack 阶段的评审面板。
// 它只管理弹窗和面板的状态，阶段切换由 Machine 决定。只能在事件循环中调用。
type Coordinator struct {
	judge  repository.JudgeGateway
	runner Runner

	challenge *domain.ChallengeState
	review    *domain.ReviewState
	voted     bool
}

// NewCoordinator 创建 Coordinator 实例
func NewCoordinator(judge repository.JudgeGateway, runner Runner) *Coordinator {
	if judge == nil {
		panic("JudgeGateway cannot be nil for Coordinator")
	}
	if runner == nil {
		panic("Runner cannot be nil for Coordinator")
	}
	return &Coordinator{judge: judge, runner: runner}
}

// Busy 表示是否有获取或提交请求尚未返回。
func (c *Coordinator) Busy() bool {
	return c.challenge != nil && (c.challenge.Loading || c.challenge.Submitting)
}

// Fetch 请求一道新题并替换当前弹窗内容 (草稿随之丢弃)。
// done 只在请求发出时的弹窗仍然有效时才会被调用，之后被丢弃的结果会被忽略。
func (c *Coordinator) Fetch(done func(q *domain.Challenge, err error)) error {
	if c.Busy() {
		return ErrRequestInFlight
	}
	st := &domain.ChallengeState{Loading: true, Console: consoleIdleText, ConsoleKind: domain.ConsoleIdle}
	c.challenge = st

	c.runner.Go(func(ctx context.Context) func() {
		q, err := c.judge.FetchChallenge(ctx)
		return func() {
			if c.challenge != st {
				logrus.WithField("operation", "fetchChallenge").Debug("Discarding stale challenge fetch result")
				return
			}
			st.Loading = false
			if err != nil {
				var judgeErr *repository.JudgeError
				if errors.As(err, &judgeErr) {
					st.Error = "Error: " + judgeErr.Message
				} else {
					st.Error = serverErrorText
				}
				done(nil, err)
				return
			}
			st.Challenge = q
			done(q, nil)
		}
	})
	return nil
}

// Submit 把代码提交预测试。结果先写入控制台，再交给 done。
func (c *Coordinator) Submit(code, language string, done func(res *domain.JudgeResult, err error)) error {
	st := c.challenge
	if st == nil || st.Challenge == nil {
		if st != nil && st.Loading {
			return ErrRequestInFlight
		}
		return ErrInvalidPhase
	}
	if st.Submitting {
		return ErrRequestInFlight
	}
	if language == "" {
		language = defaultLanguage
	}
	st.Submitting = true
	st.Error = ""
	st.Console = consoleRunningText
	st.ConsoleKind = domain.ConsoleRunning
	sub := domain.Submission{Code: code, ChallengeID: st.Challenge.ID, Language: language}

	c.runner.Go(func(ctx context.Context) func() {
		res, err := c.judge.Submit(ctx, sub)
		return func() {
			if c.challenge != st {
				logrus.WithField("operation", "submitCode").Debug("Discarding stale judge result")
				return
			}
			st.Submitting = false
			if err != nil {
				st.Console = networkErrorText
				st.ConsoleKind = domain.ConsoleFailed
				done(nil, err)
				return
			}
			if res.Success {
				st.Console = consolePassedText
				st.ConsoleKind = domain.ConsolePassed
			} else {
				st.Console = res.Output
				st.ConsoleKind = domain.ConsoleFailed
			}
			done(res, nil)
		}
	})
	return nil
}

// Current 返回当前弹窗中的题目，没有则为 nil。
func (c *Coordinator) Current() *domain.Challenge {
	if c.challenge == nil {
		return nil
	}
	return c.challenge.Challenge
}

// SetError 在弹窗中显示一条行内错误。
func (c *Coordinator) SetError(msg string) {
	if c.challenge != nil {
		c.challenge.Error = msg
	}
}

// CloseChallenge 关闭弹窗，进行中的请求结果将被丢弃。
func (c *Coordinator) CloseChallenge() { c.challenge = nil }

// OpenReview 为评审方打开面板，开始新一轮投票。
func (c *Coordinator) OpenReview(r domain.HackReview) {
	c.review = &domain.ReviewState{Review: r, Log: reviewPromptText}
	c.voted = false
}

// ResetRound 开始新一轮但不打开面板 (防守方)。
func (c *Coordinator) ResetRound() {
	c.review = nil
	c.voted = false
}

// PrepareVerdict 在发送前做本地校验。校验失败时面板上显示提示，不发送任何消息。
func (c *Coordinator) PrepareVerdict(h domain.HackAttempt) error {
	if c.voted {
		return ErrAlreadyVoted
	}
	if c.review == nil {
		return ErrNoReview
	}
	if h.Action != domain.VerdictAccept && h.Action != domain.VerdictChallenge {
		return ErrInvalidVerdict
	}
	if !h.Complete() {
		c.review.Error = incompleteVerdictMsg
		return ErrIncompleteVerdict
	}
	return nil
}

// VerdictFailed 在发送失败时显示错误，玩家可以重试。
func (c *Coordinator) VerdictFailed() {
	if c.review != nil {
		c.review.Error = networkErrorText
	}
}

// MarkVoted 记录本轮已投票并立即隐藏面板。
func (c *Coordinator) MarkVoted() {
	c.voted = true
	c.review = nil
}

// HackLog 更新评审面板中的日志行。
func (c *Coordinator) HackLog(msg string) {
	if c.review != nil {
		c.review.Log = msg
	}
}

// CloseReview 隐藏评审面板。
func (c *Coordinator) CloseReview() { c.review = nil }

// Reset 清空所有弹窗和面板状态。
func (c *Coordinator) Reset() {
	c.challenge = nil
	c.review = nil
	c.voted = false
}

// snapshot 返回弹窗和面板状态的拷贝。
func (c *Coordinator) snapshot() (*domain.ChallengeState, *domain.ReviewState) {
	var ch *domain.ChallengeState
	if c.challenge != nil {
		cp := *c.challenge
		if cp.Challenge != nil {
			q := *cp.Challenge
			cp.Challenge = &q
		}
		ch = &cp
	}
	var rv *domain.ReviewState
	if c.review != nil {
		cp := *c.review
		rv = &cp
	}
	return ch, rv
}
