package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// TriggerRefresh runs a reconciliation cycle synchronously. A cycle
// already in flight answers 409 rather than queueing a second one.
func (s *Server) TriggerRefresh(c *gin.Context) {
	summary, err := s.pipelineSvc.Refresh(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": summary})
}
