package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/world"
	"github.com/annel0/voxelworld/internal/world/block"
)

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// RenderRequest запрос первичной отрисовки
type RenderRequest struct {
	Position  *[3]float32 `json:"position" binding:"required"`
	Direction *[3]float32 `json:"direction" binding:"required"`
	Radius    int         `json:"radius" binding:"min=0,max=32"`
}

// PositionRequest новая позиция игрока
type PositionRequest struct {
	Position *[3]float32 `json:"position" binding:"required"`
}

// OrientationRequest новое направление взгляда
type OrientationRequest struct {
	Direction *[3]float32 `json:"direction" binding:"required"`
}

// PlaceRequest установка блока по имени из таблицы
type PlaceRequest struct {
	Block string `json:"block" binding:"required"`
}

// WorldStatsResponse статистика мира
type WorldStatsResponse struct {
	LoadedChunks int         `json:"loaded_chunks"`
	Actions      int         `json:"actions"`
	ActionChunks int         `json:"action_chunks"`
	LightGrids   int         `json:"light_grids"`
	Ticks        uint64      `json:"ticks"`
	Hovered      *[3]int     `json:"hovered,omitempty"`
	Mesh         interface{} `json:"mesh,omitempty"`
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, GenericResponse{
		Success: false,
		Message: message,
	})
}

// enqueue отправляет событие актору и отвечает 202
func (rs *RestServer) enqueue(c *gin.Context, event world.ClientEvent) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), rs.timeout)
	defer cancel()

	if err := rs.world.Send(ctx, event); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, GenericResponse{
			Success: false,
			Message: "Мир не принимает события",
		})
		return
	}

	c.JSON(http.StatusAccepted, GenericResponse{
		Success: true,
		Message: "Событие поставлено в очередь",
		Data:    gin.H{"event": event.GetType().String()},
	})
}

func (rs *RestServer) handleRender(c *gin.Context) {
	var req RenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Неверный формат запроса")
		return
	}
	if mgl32.Vec3(*req.Direction).Len() == 0 {
		badRequest(c, "Нулевое направление взгляда")
		return
	}
	rs.enqueue(c, world.InitialRenderRequested{
		Position:     mgl32.Vec3(*req.Position),
		Direction:    mgl32.Vec3(*req.Direction),
		RenderRadius: req.Radius,
	})
}

func (rs *RestServer) handlePosition(c *gin.Context) {
	var req PositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Неверный формат запроса")
		return
	}
	rs.enqueue(c, world.PlayerPositionChanged{Position: mgl32.Vec3(*req.Position)})
}

func (rs *RestServer) handleOrientation(c *gin.Context) {
	var req OrientationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Неверный формат запроса")
		return
	}
	if mgl32.Vec3(*req.Direction).Len() == 0 {
		badRequest(c, "Нулевое направление взгляда")
		return
	}
	rs.enqueue(c, world.PlayerOrientationChanged{Direction: mgl32.Vec3(*req.Direction)})
}

func (rs *RestServer) handlePlace(c *gin.Context) {
	var req PlaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Неверный формат запроса")
		return
	}
	id, err := block.ParseBlockID(req.Block)
	if err != nil || id.IsAir() {
		badRequest(c, "Неизвестный блок")
		return
	}
	rs.enqueue(c, world.BlockPlaced{Block: id})
}

func (rs *RestServer) handleDestroy(c *gin.Context) {
	rs.enqueue(c, world.BlockDestroyed{})
}

// handleWorldStats запрашивает статистику у актора
func (rs *RestServer) handleWorldStats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), rs.timeout)
	defer cancel()

	reply := make(chan world.Stats, 1)
	err := rs.world.Send(ctx, world.StatsRequested{Reply: reply})
	var stats world.Stats
	if err == nil {
		select {
		case stats = <-reply:
		case <-ctx.Done():
			err = ctx.Err()
		}
	}
	if err != nil {
		status := http.StatusServiceUnavailable
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		_ = c.Error(err)
		c.JSON(status, GenericResponse{
			Success: false,
			Message: "Мир не ответил",
		})
		return
	}

	resp := WorldStatsResponse{
		LoadedChunks: stats.LoadedChunks,
		Actions:      stats.Actions,
		ActionChunks: stats.ActionChunks,
		LightGrids:   stats.LightGrids,
		Ticks:        stats.Ticks,
		Hovered:      vecJSON(stats.Hovered),
	}
	if rs.mesh != nil {
		resp.Mesh = rs.mesh.Stats()
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Статистика получена",
		Data:    resp,
	})
}

func vecJSON(v *vec.Vec3) *[3]int {
	if v == nil {
		return nil
	}
	return &[3]int{v.X, v.Y, v.Z}
}

// handleServerInfo возвращает информацию о процессе
func (rs *RestServer) handleServerInfo(c *gin.Context) {
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Voxel World Server",
		Data:    rs.probe.read(),
	})
}

func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
