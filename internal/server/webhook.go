package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/office562/campbaraisa-sub000/internal/invoice/domain"
	paymentdomain "github.com/office562/campbaraisa-sub000/internal/payment/domain"
	"go.uber.org/zap"
)

// @Summary      Gateway Webhook
// @Description  Settle a card payment from a verified gateway notification
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /webhooks/gateway [post]
func (s *Server) GatewayWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.gateway.VerifySignature(body, c.Request.Header); err != nil {
		AbortWithError(c, err)
		return
	}
	confirmation, err := s.gateway.ParseConfirmation(body)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	_, err = s.paymentSvc.ConfirmCard(c.Request.Context(), confirmation.SessionID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "settled"})
	case errors.Is(err, paymentdomain.ErrPaymentAlreadySettled):
		// Replays are acknowledged so the gateway stops retrying.
		c.JSON(http.StatusOK, gin.H{"status": "already_settled"})
	case errors.Is(err, paymentdomain.ErrPaymentNotFound):
		// Unknown sessions are acknowledged too; the anomaly is recorded
		// for reconciliation and retrying cannot fix it.
		s.log.Warn("webhook for unknown session", zap.String("session_id", confirmation.SessionID))
		c.JSON(http.StatusOK, gin.H{"status": "unknown_session"})
	case errors.Is(err, invoicedomain.ErrInvoiceNotFound):
		// The invoice behind the session is gone. The anomaly is already
		// recorded; acknowledge so the gateway stops retrying.
		s.log.Warn("webhook for missing invoice", zap.String("session_id", confirmation.SessionID))
		c.JSON(http.StatusOK, gin.H{"status": "invoice_missing"})
	default:
		AbortWithError(c, err)
	}
}
