package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"countdown_timer_v1/internal/api/dto"
	"countdown_timer_v1/internal/apperror"
)

// respondError 业务错误按错误码映射状态码，其它错误统一 500 且不外泄细节
func respondError(c *gin.Context, err error) {
	if appErr, ok := apperror.As(err); ok {
		if appErr.Cause != nil {
			zerolog.Ctx(c.Request.Context()).Warn().Err(appErr.Cause).Str("code", string(appErr.Code)).Msg(appErr.Message)
		}
		c.JSON(appErr.HTTPStatus(), dto.NewErrorResp(appErr))
		return
	}

	_ = c.Error(err)
	zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg("unhandled error")
	c.JSON(http.StatusInternalServerError, dto.ErrorResp{
		Code:    string(apperror.CodeInternal),
		Message: "Internal server error",
	})
}

// respondBindError 请求体校验失败
func respondBindError(c *gin.Context, err error) {
	respondError(c, apperror.New(apperror.CodeInvalidPayload, err.Error()))
}

// parseID 路径参数 :id，必须为正整数
func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, apperror.New(apperror.CodeInvalidID, "Invalid timer id: "+c.Param("id")))
		return 0, false
	}
	return id, true
}
