// internal/api/handlers.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Corphon/StoryboardMCP/internal/config"
	"github.com/Corphon/StoryboardMCP/internal/models"
	"github.com/Corphon/StoryboardMCP/internal/services"
	"github.com/Corphon/StoryboardMCP/internal/utils"
)

// Handler 处理API请求
type Handler struct {
	Storyboards      *services.StoryboardService // 分镜服务
	Characters       *services.CharacterService  // 角色档案
	Exports          *services.ExportService     // 导出服务
	Progress         *services.ProgressService   // 进度跟踪服务
	Config           *services.ConfigService     // 引擎配置
	Metrics          *utils.StoryboardMetrics    // 指标
	WebSocketHandler *WebSocketHandler           // WebSocket 处理器
	Response         *ResponseHelper             // 响应助手
}

// BatchRequest 批量生成请求
type BatchRequest struct {
	Screenplays []*models.Screenplay `json:"screenplays"`
}

// GenerationTask 异步生成任务
type GenerationTask struct {
	TaskID      string `json:"task_id"`
	ProgressURL string `json:"progress_url"`
	WebSocket   string `json:"websocket_url"`
}

// ========================================
// 分镜
// ========================================

// CreateStoryboard 从剧本生成分镜；async=true 时立即返回任务ID
func (h *Handler) CreateStoryboard(c *gin.Context) {
	var sp models.Screenplay
	if err := c.ShouldBindJSON(&sp); err != nil {
		h.Response.Error(c, http.StatusBadRequest, ErrorScreenplayInvalid, "invalid screenplay body", err.Error())
		return
	}

	if async, _ := strconv.ParseBool(c.Query("async")); async {
		taskID, err := h.Storyboards.StartGeneration(&sp)
		if err != nil {
			h.Response.HandleError(c, err, "")
			return
		}
		h.Response.Accepted(c, GenerationTask{
			TaskID:      taskID,
			ProgressURL: "/api/progress/" + taskID,
			WebSocket:   "/ws/storyboards/" + taskID,
		}, "generation started")
		return
	}

	result, err := h.Storyboards.Generate(c.Request.Context(), &sp, c.Query("task_id"))
	if err != nil {
		h.Response.HandleError(c, err, "")
		return
	}
	h.Response.Created(c, result, "storyboard generated")
}

// CreateStoryboardBatch 并发生成多个分镜
func (h *Handler) CreateStoryboardBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.Error(c, http.StatusBadRequest, ErrorScreenplayInvalid, "invalid batch body", err.Error())
		return
	}

	results, err := h.Storyboards.GenerateBatch(c.Request.Context(), req.Screenplays)
	if err != nil {
		h.Response.HandleError(c, err, "")
		return
	}
	h.Response.Created(c, results, fmt.Sprintf("%d storyboards generated", len(results)))
}

// ListStoryboards 列出已保存的分镜ID
func (h *Handler) ListStoryboards(c *gin.Context) {
	ids, err := h.Storyboards.List(c.Request.Context())
	if err != nil {
		h.Response.HandleError(c, err, "")
		return
	}
	h.Response.Success(c, gin.H{"storyboards": ids, "count": len(ids)})
}

// GetStoryboard 获取保存的分镜
func (h *Handler) GetStoryboard(c *gin.Context) {
	sb, err := h.Storyboards.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Response.HandleError(c, err, "storyboard")
		return
	}
	h.Response.Success(c, sb)
}

// DeleteStoryboard 删除分镜
func (h *Handler) DeleteStoryboard(c *gin.Context) {
	if err := h.Storyboards.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.Response.HandleError(c, err, "storyboard")
		return
	}
	h.Response.Success(c, nil, "storyboard deleted")
}

// GetQuality 重新校验分镜转场质量
func (h *Handler) GetQuality(c *gin.Context) {
	quality, err := h.Storyboards.Quality(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Response.HandleError(c, err, "storyboard")
		return
	}
	h.Response.Success(c, quality)
}

// GetFlow 分析转场流畅度
func (h *Handler) GetFlow(c *gin.Context) {
	flow, err := h.Storyboards.Flow(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Response.HandleError(c, err, "storyboard")
		return
	}
	h.Response.Success(c, flow)
}

// FormatStoryboard 转换为视频生成平台的请求载荷
func (h *Handler) FormatStoryboard(c *gin.Context) {
	payload, err := h.Storyboards.Format(c.Request.Context(), c.Param("id"), c.Query("platform"))
	if err != nil {
		h.Response.HandleError(c, err, "storyboard")
		return
	}
	h.Response.Success(c, payload)
}

// GetCompatibility 平台兼容性报告
func (h *Handler) GetCompatibility(c *gin.Context) {
	report, err := h.Storyboards.Compatibility(c.Request.Context(), c.Param("id"), c.Query("platform"))
	if err != nil {
		h.Response.HandleError(c, err, "storyboard")
		return
	}
	h.Response.Success(c, report)
}

// ExportStoryboard 导出为 json / yaml / markdown
func (h *Handler) ExportStoryboard(c *gin.Context) {
	format, err := services.NormalizeExportFormat(c.DefaultQuery("format", services.ExportJSON))
	if err != nil {
		h.Response.Error(c, http.StatusBadRequest, ErrorExportFormatInvalid, err.Error())
		return
	}

	result, err := h.Exports.ExportStoryboard(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		h.Response.HandleError(c, err, "storyboard")
		return
	}
	h.Response.ExportResponse(c, result)
}

// GetPlatforms 已注册的平台
func (h *Handler) GetPlatforms(c *gin.Context) {
	h.Response.Success(c, gin.H{
		"platforms": h.Storyboards.PlatformIDs(),
		"default":   h.Config.EngineConfig().DefaultPlatform,
	})
}

// ========================================
// 角色档案
// ========================================

// PutCharacter 注册或更新角色，路径中的ID优先
func (h *Handler) PutCharacter(c *gin.Context) {
	var profile models.CharacterProfile
	if err := c.ShouldBindJSON(&profile); err != nil {
		h.Response.BadRequest(c, "invalid character body", err.Error())
		return
	}
	profile.ID = c.Param("id")

	if err := h.Characters.SaveCharacter(c.Request.Context(), &profile); err != nil {
		h.Response.HandleError(c, err, "character")
		return
	}
	h.Response.Success(c, profile, "character saved")
}

// GetCharacter 获取角色档案
func (h *Handler) GetCharacter(c *gin.Context) {
	profile, err := h.Characters.GetCharacter(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Response.HandleError(c, err, "character")
		return
	}
	h.Response.Success(c, profile)
}

// ListCharacters 列出所有角色档案
func (h *Handler) ListCharacters(c *gin.Context) {
	profiles, err := h.Characters.ListCharacters(c.Request.Context())
	if err != nil {
		h.Response.HandleError(c, err, "")
		return
	}
	h.Response.Success(c, profiles)
}

// DeleteCharacter 删除角色档案
func (h *Handler) DeleteCharacter(c *gin.Context) {
	if err := h.Characters.DeleteCharacter(c.Request.Context(), c.Param("id")); err != nil {
		h.Response.HandleError(c, err, "character")
		return
	}
	h.Response.Success(c, nil, "character deleted")
}

// ========================================
// 进度
// ========================================

// GetProgress 返回任务当前状态
func (h *Handler) GetProgress(c *gin.Context) {
	tracker, exists := h.Progress.GetTracker(c.Param("taskID"))
	if !exists {
		h.Response.NotFound(c, "task")
		return
	}
	h.Response.Success(c, tracker.Snapshot())
}

// SubscribeProgress 通过 SSE 推送任务进度
func (h *Handler) SubscribeProgress(c *gin.Context) {
	taskID := c.Param("taskID")
	tracker, exists := h.Progress.GetTracker(taskID)
	if !exists {
		h.Response.NotFound(c, "task")
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	clientGone := c.Request.Context().Done()
	updateChan := tracker.Subscribe()
	defer tracker.Unsubscribe(updateChan)

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	fmt.Fprintf(c.Writer, "event: connected\ndata: {\"task_id\":%q}\n\n", taskID)
	c.Writer.Flush()

	for {
		select {
		case <-clientGone:
			return
		case update, ok := <-updateChan:
			if !ok {
				return
			}
			data, _ := json.Marshal(update)
			fmt.Fprintf(c.Writer, "event: progress\ndata: %s\n\n", data)
			c.Writer.Flush()

			if update.Finished() {
				return
			}
		case <-ticker.C:
			fmt.Fprintf(c.Writer, "event: heartbeat\ndata: {\"time\":%d}\n\n", time.Now().Unix())
			c.Writer.Flush()
		}
	}
}

// ProgressWebSocket 通过 WebSocket 推送任务进度
func (h *Handler) ProgressWebSocket(c *gin.Context) {
	h.WebSocketHandler.ProgressWebSocket(c)
}

// GetWebSocketStatus WebSocket 连接状态
func (h *Handler) GetWebSocketStatus(c *gin.Context) {
	status := h.WebSocketHandler.manager.GetStatus()
	status["ping_timeout_seconds"] = int(h.WebSocketHandler.manager.pingTimeout.Seconds())
	h.Response.Success(c, status)
}

// ========================================
// 配置与指标
// ========================================

// GetEngineConfig 当前引擎配置
func (h *Handler) GetEngineConfig(c *gin.Context) {
	h.Response.Success(c, h.Config.EngineConfig())
}

// UpdateEngineConfig 更新引擎配置
func (h *Handler) UpdateEngineConfig(c *gin.Context) {
	var engine config.EngineConfig
	if err := c.ShouldBindJSON(&engine); err != nil {
		h.Response.BadRequest(c, "invalid engine config body", err.Error())
		return
	}

	changedBy := c.GetHeader("X-Changed-By")
	if changedBy == "" {
		changedBy = c.ClientIP()
	}
	if err := h.Config.UpdateEngineConfig(engine, changedBy); err != nil {
		h.Response.HandleError(c, err, "")
		return
	}
	h.Response.Success(c, h.Config.EngineConfig(), "engine config updated")
}

// GetConfigHistory 引擎配置变更历史
func (h *Handler) GetConfigHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	h.Response.Success(c, h.Config.GetChangeHistory(limit))
}

// GetMetrics 指标快照
func (h *Handler) GetMetrics(c *gin.Context) {
	h.Response.Success(c, h.Metrics.Collector().GetMetrics())
}

// Health 健康检查
func (h *Handler) Health(c *gin.Context) {
	h.Response.Success(c, gin.H{
		"status":    "ok",
		"platforms": len(h.Storyboards.PlatformIDs()),
	})
}
