package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"liyu1981.xyz/iot-anchor-service/pkg/anchor"
	"liyu1981.xyz/iot-anchor-service/pkg/common"
)

type ErrorResponse struct {
	Kind       string `json:"kind"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	NodeStatus int    `json:"node_status,omitempty"`
	Size       int    `json:"size,omitempty"`
	Limit      int    `json:"limit,omitempty"`
}

// StatusOf maps an anchor error kind to its http status.
func StatusOf(err error) int {
	switch anchor.KindOf(err) {
	case anchor.KindInvalidInput, anchor.KindNoMatchingReadings:
		return http.StatusBadRequest
	case anchor.KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case anchor.KindNodeConnectionFailed:
		return http.StatusBadGateway
	case anchor.KindNotYetIncluded:
		return http.StatusConflict
	case anchor.KindNoMatchingRecord:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func errorResponseOf(err error) ErrorResponse {
	var e *anchor.Error
	if !errors.As(err, &e) {
		return ErrorResponse{
			Kind:    string(anchor.KindInternal),
			Code:    string(anchor.KindInternal),
			Message: "internal error",
		}
	}

	resp := ErrorResponse{
		Kind:       string(e.Kind),
		Code:       e.Code,
		Message:    e.Message,
		NodeStatus: e.NodeStatus,
		Size:       e.Size,
		Limit:      e.Limit,
	}
	if resp.Code == "" {
		resp.Code = string(e.Kind)
	}
	if e.Kind == anchor.KindInternal {
		// never leak store details
		resp.Message = "internal error"
	}
	return resp
}

func writeError(c *gin.Context, err error) {
	status := StatusOf(err)
	if status >= http.StatusInternalServerError {
		common.GetLogger().Named(common.LoggerNameRestfulServer).Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	c.JSON(status, gin.H{"error": errorResponseOf(err)})
}

func writeInvalid(c *gin.Context, message string, issues any) {
	body := gin.H{"error": ErrorResponse{
		Kind:    string(anchor.KindInvalidInput),
		Code:    string(anchor.KindInvalidInput),
		Message: message,
	}}
	if issues != nil {
		body["issues"] = issues
	}
	c.JSON(http.StatusBadRequest, body)
}

func writeRateLimited(c *gin.Context) {
	c.JSON(http.StatusTooManyRequests, gin.H{"error": ErrorResponse{
		Kind:    "RATE_LIMITED",
		Code:    "RATE_LIMITED",
		Message: "too many requests",
	}})
}
