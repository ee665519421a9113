package handler

import (
	"github.com/gin-gonic/gin"
	appreport "github.com/invoicedesk/backend/internal/application/report"
)

// DashboardQuery holds the query parameters of the dashboard endpoints
type DashboardQuery struct {
	Year *int `form:"year" binding:"omitempty,min=1900,max=3000"`
	Days int  `form:"days" binding:"omitempty,min=1,max=365"`
}

// DashboardHandler serves the financial dashboard
type DashboardHandler struct {
	BaseHandler
	dashboard appreport.DashboardProvider
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboard appreport.DashboardProvider) *DashboardHandler {
	return &DashboardHandler{
		dashboard: dashboard,
	}
}

// GetDashboard godoc
// @ID           getDashboard
// @Summary      Get dashboard data
// @Description  Cash flow, deadline compliance, client reliability and revenue structure over finalized invoices
// @Tags         dashboard
// @Produce      json
// @Param        year query int false "Restrict to invoices dated in this year"
// @Success      200 {object} APIResponse[report.DashboardData]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /dashboard [get]
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	var q DashboardQuery
	if !h.BindQuery(c, &q) {
		return
	}

	data, err := h.dashboard.GetDashboardData(c.Request.Context(), q.Year)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, data)
}

// GetDeadlines godoc
// @ID           getDashboardDeadlines
// @Summary      Get due-soon and overdue invoices
// @Description  Deadline compliance with a custom due-soon horizon; days defaults to the configured horizon
// @Tags         dashboard
// @Produce      json
// @Param        year query int false "Restrict to invoices dated in this year"
// @Param        days query int false "Due-soon horizon in days"
// @Success      200 {object} APIResponse[report.DeadlineData]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /dashboard/deadlines [get]
func (h *DashboardHandler) GetDeadlines(c *gin.Context) {
	var q DashboardQuery
	if !h.BindQuery(c, &q) {
		return
	}

	data, err := h.dashboard.GetDeadlineCompliance(c.Request.Context(), q.Year, q.Days)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, data)
}
