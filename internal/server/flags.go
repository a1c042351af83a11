package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	integritydomain "github.com/steelworks/opshub/internal/integrity/domain"
)

func (s *Server) ListFlags(c *gin.Context) {
	var query struct {
		LotCode  string `form:"lot_code"`
		FlagType string `form:"flag_type"`
		Severity string `form:"severity"`
		Resolved string `form:"resolved"`
		Limit    string `form:"limit"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	severity := integritydomain.Severity(strings.TrimSpace(query.Severity))
	if severity != "" && !severity.Valid() {
		AbortWithError(c, newValidationError("severity", "invalid_severity", "invalid severity"))
		return
	}
	resolved, err := parseOptionalBool(query.Resolved)
	if err != nil {
		AbortWithError(c, newValidationError("resolved", "invalid_resolved", "invalid resolved"))
		return
	}
	limit, err := parseOptionalInt(query.Limit)
	if err != nil {
		AbortWithError(c, newValidationError("limit", "invalid_limit", "invalid limit"))
		return
	}

	resp, err := s.flagSvc.List(c.Request.Context(), integritydomain.ListFilter{
		LotCode:  strings.TrimSpace(query.LotCode),
		FlagType: strings.TrimSpace(query.FlagType),
		Severity: severity,
		Resolved: resolved,
		Limit:    limit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetFlagSummary(c *gin.Context) {
	resp, err := s.flagSvc.Summary(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ResolveFlag(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	resp, err := s.flagSvc.Resolve(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
