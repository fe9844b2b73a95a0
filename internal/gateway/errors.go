package gateway

import (
	"net/http"

	"github.com/betbot/polyrelay/pkg/sdk/relayer"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

type errorResponse struct {
	Error          string `json:"error"`
	RequestID      string `json:"requestId,omitempty"`
	UpstreamStatus int    `json:"upstreamStatus,omitempty"`
	UpstreamBody   string `json:"upstreamBody,omitempty"`
	TransactionID  string `json:"transactionId,omitempty"`
	State          string `json:"state,omitempty"`
}

// statusFor maps the relayer error taxonomy to an HTTP status.
func statusFor(err error) int {
	var (
		apiErr    *relayer.APIError
		failedErr *relayer.TransactionFailedError
	)
	switch {
	case errors.As(err, &failedErr):
		return http.StatusConflict
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	case errors.Is(err, relayer.ErrConfig), errors.Is(err, relayer.ErrInvalidParameter):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error(), RequestID: c.GetString("request_id")}

	var (
		apiErr    *relayer.APIError
		failedErr *relayer.TransactionFailedError
	)
	if errors.As(err, &apiErr) {
		resp.UpstreamStatus = apiErr.StatusCode
		resp.UpstreamBody = apiErr.Body
	}
	if errors.As(err, &failedErr) {
		resp.TransactionID = failedErr.TransactionID
		resp.State = failedErr.State.String()
	}
	if status >= http.StatusInternalServerError {
		s.log.WithError(err).WithField("request_id", resp.RequestID).Error("request failed")
	}
	c.AbortWithStatusJSON(status, resp)
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: msg, RequestID: c.GetString("request_id")})
}
