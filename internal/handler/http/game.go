package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"geek-ludo/internal/dto"
	"geek-ludo/internal/render"
	"geek-ludo/internal/service"
)

// GameHandler 把控制接口的请求转换为用户意图
type GameHandler struct {
	game     *service.GameService
	observer *render.Observer
}

// NewGameHandler 创建 GameHandler 实例
func NewGameHandler(game *service.GameService, observer *render.Observer) *GameHandler {
	if game == nil {
		panic("GameService cannot be nil for GameHandler")
	}
	if observer == nil {
		panic("Observer cannot be nil for GameHandler")
	}
	return &GameHandler{game: game, observer: observer}
}

// View 返回最近一次投影的视图
func (h *GameHandler) View(c *gin.Context) {
	respondJSON(c, http.StatusOK, h.observer.Latest())
}

// Join 处理大厅的加入请求
func (h *GameHandler) Join(c *gin.Context) {
	var req dto.JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.Join: Invalid input format")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}
	h.respond(c, h.game.Join(c.Request.Context(), req.Room, req.Name, req.Color))
}

func (h *GameHandler) Start(c *gin.Context) {
	h.respond(c, h.game.StartGame(c.Request.Context()))
}

func (h *GameHandler) OpenChallenge(c *gin.Context) {
	h.respond(c, h.game.OpenChallenge(c.Request.Context()))
}

func (h *GameHandler) Submit(c *gin.Context) {
	var req dto.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.Submit: Invalid input format")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}
	h.respond(c, h.game.Submit(c.Request.Context(), req.Code, req.Language))
}

func (h *GameHandler) Skip(c *gin.Context) {
	h.respond(c, h.game.Skip(c.Request.Context()))
}

func (h *GameHandler) Verdict(c *gin.Context) {
	var req dto.VerdictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.Verdict: Invalid input format")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}
	h.respond(c, h.game.CastVerdict(c.Request.Context(), req.Attempt()))
}

func (h *GameHandler) Scoring(c *gin.Context) {
	var req dto.ScoringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.Scoring: Invalid input format")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}
	h.respond(c, h.game.SetScoringMode(c.Request.Context(), req.Mode))
}

// Exit 由界面在玩家确认离开后调用
func (h *GameHandler) Exit(c *gin.Context) {
	h.respond(c, h.game.Exit(c.Request.Context()))
}

// Journal 返回当前房间的对局日志，?limit= 可选
func (h *GameHandler) Journal(c *gin.Context) {
	limit := 0
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			abortWithError(c, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}
	entries, err := h.game.Journal(c.Request.Context(), limit)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, gin.H{"entries": entries})
}

// respond 成功时返回最新视图，界面不必再单独拉取
func (h *GameHandler) respond(c *gin.Context, err error) {
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, h.observer.Latest())
}
