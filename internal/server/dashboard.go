package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetLineHealth(c *gin.Context) {
	resp, err := s.viewSvc.LineHealth()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetDefectTrends(c *gin.Context) {
	var query struct {
		Start string `form:"start"`
		End   string `form:"end"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	start, err := parseOptionalDate(query.Start)
	if err != nil {
		AbortWithError(c, newValidationError("start", "invalid_start", "invalid start date"))
		return
	}
	end, err := parseOptionalDate(query.End)
	if err != nil {
		AbortWithError(c, newValidationError("end", "invalid_end", "invalid end date"))
		return
	}

	resp, err := s.viewSvc.DefectTrends(start, end)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetIntegrityReport(c *gin.Context) {
	resp, err := s.viewSvc.IntegrityReport()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetSourceHealth(c *gin.Context) {
	resp, err := s.healthSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
