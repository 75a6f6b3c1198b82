package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/office562/campbaraisa-sub000/internal/audit/domain"
	invoicedomain "github.com/office562/campbaraisa-sub000/internal/invoice/domain"
	"github.com/shopspring/decimal"
)

type dashboardStats struct {
	Campers            int64           `json:"campers"`
	Invoices           int64           `json:"invoices"`
	InvoicesPending    int64           `json:"invoices_pending"`
	InvoicesPartial    int64           `json:"invoices_partial"`
	InvoicesPaid       int64           `json:"invoices_paid"`
	TotalInvoiced      decimal.Decimal `json:"total_invoiced"`
	TotalCollected     decimal.Decimal `json:"total_collected"`
	TotalOutstanding   decimal.Decimal `json:"total_outstanding"`
	PaymentsInFlight   int64           `json:"payments_in_flight"`
	RemindersScheduled int64           `json:"reminders_scheduled"`
}

// @Summary      Dashboard Stats
// @Description  Aggregate billing totals for the admin dashboard
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dashboardStats
// @Router       /dashboard/stats [get]
func (s *Server) GetDashboardStats(c *gin.Context) {
	ctx := c.Request.Context()
	var stats dashboardStats

	if err := s.db.WithContext(ctx).Table("campers").Count(&stats.Campers).Error; err != nil {
		AbortWithError(c, err)
		return
	}

	var rows []struct {
		Status     string          `gorm:"column:status"`
		Count      int64           `gorm:"column:count"`
		Amount     decimal.Decimal `gorm:"column:amount"`
		PaidAmount decimal.Decimal `gorm:"column:paid_amount"`
	}
	err := s.db.WithContext(ctx).Raw(
		`SELECT status, COUNT(*) AS count,
		        COALESCE(SUM(amount), 0) AS amount,
		        COALESCE(SUM(paid_amount), 0) AS paid_amount
		 FROM invoices GROUP BY status`,
	).Scan(&rows).Error
	if err != nil {
		AbortWithError(c, err)
		return
	}

	stats.TotalInvoiced = decimal.Zero
	stats.TotalCollected = decimal.Zero
	for _, row := range rows {
		stats.Invoices += row.Count
		stats.TotalInvoiced = stats.TotalInvoiced.Add(row.Amount)
		stats.TotalCollected = stats.TotalCollected.Add(row.PaidAmount)
		switch invoicedomain.InvoiceStatus(row.Status) {
		case invoicedomain.InvoiceStatusPending:
			stats.InvoicesPending = row.Count
		case invoicedomain.InvoiceStatusPartial:
			stats.InvoicesPartial = row.Count
		case invoicedomain.InvoiceStatusPaid:
			stats.InvoicesPaid = row.Count
		}
	}
	stats.TotalOutstanding = invoicedomain.BalanceFor(stats.TotalInvoiced, stats.TotalCollected)

	err = s.db.WithContext(ctx).Table("payments").
		Where("status = ?", "pending").
		Count(&stats.PaymentsInFlight).Error
	if err != nil {
		AbortWithError(c, err)
		return
	}

	err = s.db.WithContext(ctx).Table("invoices").
		Where("status <> ? AND next_reminder_date IS NOT NULL", invoicedomain.InvoiceStatusPaid).
		Count(&stats.RemindersScheduled).Error
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": stats})
}

// @Summary      List Activities
// @Description  List recent audit activity, newest first
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Param        action      query string false "Action"
// @Param        target_type query string false "Target Type"
// @Param        target_id   query string false "Target ID"
// @Param        start_at    query string false "Start At (RFC3339)"
// @Param        end_at      query string false "End At (RFC3339)"
// @Param        limit       query int    false "Limit"
// @Success      200  {object}  []auditdomain.AuditLog
// @Router       /activities [get]
func (s *Server) ListActivities(c *gin.Context) {
	var query struct {
		Action     string `form:"action"`
		TargetType string `form:"target_type"`
		TargetID   string `form:"target_id"`
		StartAt    string `form:"start_at"`
		EndAt      string `form:"end_at"`
		Limit      int    `form:"limit"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	filter := auditdomain.ListFilter{
		Action:     strings.TrimSpace(query.Action),
		TargetType: strings.TrimSpace(query.TargetType),
		TargetID:   strings.TrimSpace(query.TargetID),
		Limit:      query.Limit,
	}
	if query.StartAt != "" {
		t, err := time.Parse(time.RFC3339, query.StartAt)
		if err != nil {
			AbortWithError(c, newValidationError("start_at", "invalid_date", "start_at must be RFC3339"))
			return
		}
		filter.StartAt = &t
	}
	if query.EndAt != "" {
		t, err := time.Parse(time.RFC3339, query.EndAt)
		if err != nil {
			AbortWithError(c, newValidationError("end_at", "invalid_date", "end_at must be RFC3339"))
			return
		}
		filter.EndAt = &t
	}

	entries, err := s.auditSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entries})
}
