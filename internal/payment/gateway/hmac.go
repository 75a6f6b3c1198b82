package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/office562/campbaraisa-sub000/internal/config"
	"go.uber.org/zap"
)

// SignatureHeader carries the hex HMAC-SHA256 of the webhook body.
const SignatureHeader = "X-Gateway-Signature"

// HMACAdapter is a development gateway: checkout sessions are local ids and
// webhook notifications are authenticated with a shared-secret HMAC over the
// raw body. A hosted-provider adapter slots in behind the same interface.
type HMACAdapter struct {
	secret  []byte
	baseURL string
	log     *zap.Logger
}

func NewHMACAdapter(cfg config.Config, log *zap.Logger) Adapter {
	return &HMACAdapter{
		secret:  []byte(cfg.Gateway.WebhookSecret),
		baseURL: strings.TrimRight(cfg.Gateway.CheckoutBaseURL, "/"),
		log:     log.Named("payment.gateway"),
	}
}

func (a *HMACAdapter) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	sessionID := "cs_" + uuid.NewString()
	a.log.Info("checkout session created",
		zap.String("session_id", sessionID),
		zap.String("payment_id", req.PaymentID),
		zap.String("total", req.Total.String()),
	)
	return &Checkout{
		SessionID:   sessionID,
		CheckoutURL: a.baseURL + "/checkout/" + sessionID,
	}, nil
}

func (a *HMACAdapter) VerifySignature(payload []byte, headers http.Header) error {
	got := strings.TrimSpace(headers.Get(SignatureHeader))
	if got == "" {
		return ErrBadSignature
	}
	mac := hmac.New(sha256.New, a.secret)
	mac.Write(payload)
	want := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(want), []byte(strings.ToLower(got))) {
		return ErrBadSignature
	}
	return nil
}

func (a *HMACAdapter) ParseConfirmation(payload []byte) (*Confirmation, error) {
	var body struct {
		SessionID string `json:"session_id"`
		EventID   string `json:"event_id"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, ErrBadPayload
	}
	if strings.TrimSpace(body.SessionID) == "" {
		return nil, ErrBadPayload
	}
	if body.EventID == "" {
		body.EventID = body.SessionID
	}
	return &Confirmation{SessionID: body.SessionID, EventID: body.EventID}, nil
}

// Sign computes the signature a caller must set on SignatureHeader. Used by
// tests and local tooling.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
