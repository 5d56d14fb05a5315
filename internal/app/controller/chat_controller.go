package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/ksaito/hatchobori-lunch-backend/internal/app/service"
	apperrors "github.com/ksaito/hatchobori-lunch-backend/internal/errors"
	"github.com/ksaito/hatchobori-lunch-backend/internal/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// 許可するオリジン
		allowedOrigins := map[string]bool{
			"https://hatchobori-lunch.jp": true,
			"http://localhost:3000":       true, // 開発環境
			"http://localhost:5173":       true, // 開発環境
		}
		return allowedOrigins[origin]
	},
}

type ChatController struct {
	aiService service.AIService
}

func NewChatController(aiService service.AIService) *ChatController {
	return &ChatController{
		aiService: aiService,
	}
}

type ChatRequest struct {
	Messages []service.ChatMessage `json:"messages" binding:"required"`
}

// chatHistoryLimit caps how many messages a websocket conversation keeps.
// Older turns are dropped so the prompt sent to the model stays bounded.
const chatHistoryLimit = 20

// Chat answers a lunch recommendation question in one shot
// POST /api/v1/chat
func (ctrl *ChatController) Chat(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid chat request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "入力内容が正しくありません")
		return
	}

	reply, err := ctrl.aiService.Recommend(req.Messages)
	if err != nil {
		ctrl.respondChatError(c, err)
		return
	}

	log.Info("Chat reply generated", map[string]interface{}{
		"messages": len(req.Messages),
	})

	c.JSON(http.StatusOK, gin.H{
		"reply": reply,
	})
}

// ChatWebSocket keeps a recommendation conversation over one connection.
// The client sends {"content": "..."} frames and receives
// {"role": "assistant", "content": "..."} replies. Only the most recent
// turns are kept and replayed to the model.
// GET /api/v1/chat/ws
func (ctrl *ChatController) ChatWebSocket(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "ログインが必要です")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket", err)
		return
	}
	defer conn.Close()

	log.Info("Chat WebSocket connection established", map[string]interface{}{
		"user_id": userID,
	})

	// 接続単位で会話履歴を保持する
	var history []service.ChatMessage

	for {
		var incoming service.ChatMessage
		if err := conn.ReadJSON(&incoming); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("Chat WebSocket closed unexpectedly", map[string]interface{}{
					"user_id": userID,
					"error":   err.Error(),
				})
			}
			return
		}
		incoming.Role = "user"
		history = append(history, incoming)
		if len(history) > chatHistoryLimit {
			history = history[len(history)-chatHistoryLimit:]
		}

		reply, err := ctrl.aiService.Recommend(history)
		if err != nil {
			log.Error("Failed to generate chat reply", err, map[string]interface{}{
				"user_id": userID,
			})
			_ = conn.WriteJSON(gin.H{
				"role":    "assistant",
				"error":   apperrors.ChatFailed,
				"content": "回答の生成に失敗しました。しばらくしてからもう一度お試しください",
			})
			continue
		}

		history = append(history, service.ChatMessage{Role: "assistant", Content: reply})
		if err := conn.WriteJSON(service.ChatMessage{Role: "assistant", Content: reply}); err != nil {
			log.Warn("Failed to write chat reply", map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			})
			return
		}
	}
}

func (ctrl *ChatController) respondChatError(c *gin.Context, err error) {
	log := middleware.GetLoggerFromContext(c)

	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		apperrors.RespondWithValidationError(c, validationErr.Fields)
	case errors.Is(err, service.ErrAINotConfigured):
		log.Warn("Chat requested but AI is not configured", nil)
		apperrors.RespondWithError(c, http.StatusServiceUnavailable, apperrors.ChatNotConfigured, "チャット機能は現在利用できません")
	default:
		log.Error("Chat failed", err, nil)
		apperrors.RespondWithError(c, http.StatusBadGateway, apperrors.ChatFailed, "回答の生成に失敗しました。しばらくしてからもう一度お試しください")
	}
}
