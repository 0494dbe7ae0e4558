package httpjudge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"geek-ludo/internal/domain"
	"geek-ludo/internal/repository"
)

const (
	questionPath = "/get_question"
	submitPath   = "/submit_code"
	// 单次响应体上限
	maxBodyBytes = 1 << 20
)

// Client 是 JudgeGateway 的 HTTP 实现
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient 创建 Client 实例。baseURL 形如 http://host:port，timeout 为单次请求超时。
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		panic("judge base URL cannot be empty")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// questionResponse 同时覆盖正常题目和 {"error": ...} 两种响应
type questionResponse struct {
	domain.Challenge
	Error string `json:"error"`
}

// FetchChallenge 实现 repository.JudgeGateway
func (c *Client) FetchChallenge(ctx context.Context) (*domain.Challenge, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+questionPath, nil)
	if err != nil {
		return nil, fmt.Errorf("judge: build question request: %w", err)
	}
	var out questionResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	if out.Error != "" {
		return nil, &repository.JudgeError{Message: out.Error}
	}
	q := out.Challenge
	logrus.WithField("challenge_id", q.ID).Debug("Fetched challenge")
	return &q, nil
}

// Submit 实现 repository.JudgeGateway
func (c *Client) Submit(ctx context.Context, sub domain.Submission) (*domain.JudgeResult, error) {
	body, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("judge: marshal submission: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+submitPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("judge: build submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	var res domain.JudgeResult
	if err := c.do(req, &res); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"challenge_id": sub.ChallengeID,
		"success":      res.Success,
		"kind":         res.Kind,
	}).Debug("Judge responded")
	return &res, nil
}

// do 发送请求并解析 JSON 响应。网络错误、非 2xx 状态码和无法解析的响应都包装为 ErrUnavailable。
func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("judge: %s %s: %v: %w", req.Method, req.URL.Path, err, repository.ErrUnavailable)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("judge: read %s response: %v: %w", req.URL.Path, err, repository.ErrUnavailable)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// 题库在出错时可能仍然返回 {"error": ...}
		var judgeErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &judgeErr) == nil && judgeErr.Error != "" {
			return &repository.JudgeError{Message: judgeErr.Error}
		}
		return fmt.Errorf("judge: %s returned status %d: %w", req.URL.Path, resp.StatusCode, repository.ErrUnavailable)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("judge: decode %s response: %v: %w", req.URL.Path, err, repository.ErrUnavailable)
	}
	return nil
}
