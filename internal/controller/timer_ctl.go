package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"countdown_timer_v1/internal/api/dto"
	"countdown_timer_v1/internal/middleware"
	"countdown_timer_v1/internal/service"
)

type TimerController struct {
	timerService *service.TimerService
}

func NewTimerController(timerService *service.TimerService) *TimerController {
	return &TimerController{timerService: timerService}
}

// ==========================================
// 1. 写操作
// ==========================================

// Create 创建倒计时
// @Summary 创建倒计时
// @Description 新建计时器默认 INACTIVE；ACTIVE 时同位置不能已有激活的计时器
// @Tags CountdownTimer
// @Accept json
// @Produce json
// @Param X-Shop-Domain header string false "店铺域名，也可用 ?shop="
// @Param request body dto.CreateTimerReq true "创建参数"
// @Success 201 {object} dto.TimerResp
// @Failure 400 {object} dto.ErrorResp "参数错误 / 重名 / 超出上限"
// @Failure 404 {object} dto.ErrorResp "店铺不存在"
// @Failure 409 {object} dto.ErrorResp "位置已被占用"
// @Router /api/v1/countdown-timer [post]
func (h *TimerController) Create(c *gin.Context) {
	var req dto.CreateTimerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	timer, err := h.timerService.Create(c.Request.Context(), middleware.GetShopDomain(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewTimerResp(timer))
}

// Edit 编辑倒计时
// @Summary 编辑倒计时（部分更新）
// @Description 未提供的字段保持原值；startAt/endAt 传 null 表示清空。校验针对合并后的记录
// @Tags CountdownTimer
// @Accept json
// @Produce json
// @Param X-Shop-Domain header string false "店铺域名"
// @Param id path int true "计时器 ID"
// @Param request body dto.EditTimerReq true "更新参数"
// @Success 200 {object} dto.TimerResp
// @Failure 400 {object} dto.ErrorResp
// @Failure 404 {object} dto.ErrorResp
// @Failure 409 {object} dto.ErrorResp
// @Router /api/v1/countdown-timer/{id} [put]
func (h *TimerController) Edit(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.EditTimerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	timer, err := h.timerService.Edit(c.Request.Context(), middleware.GetShopDomain(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewTimerResp(timer))
}

// Toggle 切换状态
// @Summary 切换 ACTIVE / INACTIVE
// @Tags CountdownTimer
// @Produce json
// @Param X-Shop-Domain header string false "店铺域名"
// @Param id path int true "计时器 ID"
// @Success 200 {object} dto.TimerResp
// @Failure 404 {object} dto.ErrorResp
// @Failure 409 {object} dto.ErrorResp "位置已被占用"
// @Router /api/v1/countdown-timer/{id} [patch]
func (h *TimerController) Toggle(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	timer, err := h.timerService.ToggleStatus(c.Request.Context(), middleware.GetShopDomain(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewTimerResp(timer))
}

// ForceActivate 强制激活
// @Summary 强制激活
// @Description 同一事务内停用同位置的其它计时器并激活目标
// @Tags CountdownTimer
// @Produce json
// @Param X-Shop-Domain header string false "店铺域名"
// @Param id path int true "计时器 ID"
// @Success 200 {object} dto.TimerResp
// @Failure 404 {object} dto.ErrorResp
// @Router /api/v1/countdown-timer/{id}/force-activate [post]
func (h *TimerController) ForceActivate(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	timer, err := h.timerService.ForceActivate(c.Request.Context(), middleware.GetShopDomain(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewTimerResp(timer))
}

// Delete 删除
// @Summary 删除倒计时
// @Tags CountdownTimer
// @Produce json
// @Param X-Shop-Domain header string false "店铺域名"
// @Param id path int true "计时器 ID"
// @Success 200 {object} dto.DeleteTimerResp
// @Failure 404 {object} dto.ErrorResp
// @Router /api/v1/countdown-timer/{id} [delete]
func (h *TimerController) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	resp, err := h.timerService.Delete(c.Request.Context(), middleware.GetShopDomain(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ==========================================
// 2. 读操作
// ==========================================

// List 列表
// @Summary 倒计时列表
// @Description 不带 page/size/orderBy 时返回全部（最近创建在前）；带任意一个时返回分页信封
// @Tags CountdownTimer
// @Produce json
// @Param X-Shop-Domain header string false "店铺域名"
// @Param page query int false "页码 (默认1)"
// @Param size query int false "每页数量 (默认10，范围 5-50)"
// @Param orderBy query string false "排序，如 status:asc,position:asc,updatedAt:desc"
// @Success 200 {object} dto.TimerPageResp "分页时"
// @Success 200 {array} dto.TimerResp "不分页时"
// @Failure 404 {object} dto.ErrorResp
// @Router /api/v1/countdown-timer [get]
func (h *TimerController) List(c *gin.Context) {
	page, hasPage := c.GetQuery("page")
	size, hasSize := c.GetQuery("size")
	orderBy, hasOrder := c.GetQuery("orderBy")

	if hasPage || hasSize || hasOrder {
		resp, err := h.timerService.ListPaginated(c.Request.Context(), middleware.GetShopDomain(c), dto.TimerListQuery{
			Page:    page,
			Size:    size,
			OrderBy: orderBy,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
		return
	}

	list, err := h.timerService.List(c.Request.Context(), middleware.GetShopDomain(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewTimerRespList(list))
}

// GetDetail 详情
// @Summary 倒计时详情
// @Tags CountdownTimer
// @Produce json
// @Param X-Shop-Domain header string false "店铺域名"
// @Param id path int true "计时器 ID"
// @Success 200 {object} dto.TimerResp
// @Failure 404 {object} dto.ErrorResp
// @Router /api/v1/countdown-timer/{id} [get]
func (h *TimerController) GetDetail(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	timer, err := h.timerService.GetByID(c.Request.Context(), middleware.GetShopDomain(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewTimerResp(timer))
}

// Counts 状态计数
// @Summary 按状态统计
// @Tags CountdownTimer
// @Produce json
// @Param X-Shop-Domain header string false "店铺域名"
// @Success 200 {object} dto.TimerCountsResp
// @Failure 404 {object} dto.ErrorResp
// @Router /api/v1/countdown-timer/total [get]
func (h *TimerController) Counts(c *gin.Context) {
	resp, err := h.timerService.Counts(c.Request.Context(), middleware.GetShopDomain(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
