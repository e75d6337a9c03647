package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/shopapi/internal/config"
	"github.com/jafarshop/shopapi/pkg/errors"
)

const payPath = "/pg/v1/pay"

const redirectModeRedirect = "REDIRECT"

const instrumentPayPage = "PAY_PAGE"

// Client talks to the hosted-payment gateway's pay API
type Client struct {
	cfg        config.GatewayConfig
	auth       *AuthProvider
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new payment gateway client
func NewClient(cfg config.GatewayConfig, auth *AuthProvider, logger *zap.Logger) *Client {
	return &Client{
		cfg:  cfg,
		auth: auth,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// InitiateParams carries one payment attempt's inputs
type InitiateParams struct {
	MerchantTransactionID string
	MerchantUserID        string
	// AmountPaise is the order total in the gateway's minor currency unit
	AmountPaise  int64
	RedirectURL  string
	CallbackURL  string
	MobileNumber string
}

type initiatePayload struct {
	MerchantID            string            `json:"merchantId"`
	MerchantTransactionID string            `json:"merchantTransactionId"`
	MerchantUserID        string            `json:"merchantUserId"`
	Amount                int64             `json:"amount"`
	RedirectURL           string            `json:"redirectUrl"`
	RedirectMode          string            `json:"redirectMode"`
	CallbackURL           string            `json:"callbackUrl"`
	MobileNumber          string            `json:"mobileNumber"`
	PaymentInstrument     paymentInstrument `json:"paymentInstrument"`
}

type paymentInstrument struct {
	Type string `json:"type"`
}

type initiateResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		InstrumentResponse struct {
			RedirectInfo struct {
				URL string `json:"url"`
			} `json:"redirectInfo"`
		} `json:"instrumentResponse"`
	} `json:"data"`
}

// Initiate sends a signed payment-initiation request and returns the
// hosted pay-page redirect URL
func (c *Client) Initiate(ctx context.Context, p InitiateParams) (string, error) {
	token, err := c.auth.GetAccessToken(ctx)
	if err != nil {
		return "", err
	}

	payload := initiatePayload{
		MerchantID:            c.cfg.MerchantID,
		MerchantTransactionID: p.MerchantTransactionID,
		MerchantUserID:        p.MerchantUserID,
		Amount:                p.AmountPaise,
		RedirectURL:           p.RedirectURL,
		RedirectMode:          redirectModeRedirect,
		CallbackURL:           p.CallbackURL,
		MobileNumber:          p.MobileNumber,
		PaymentInstrument:     paymentInstrument{Type: instrumentPayPage},
	}

	encoded, checksum, err := SignPayload(payload, payPath, c.cfg.SaltKey, c.cfg.SaltIndex)
	if err != nil {
		return "", err
	}

	reqBody, err := json.Marshal(map[string]string{"request": encoded})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := strings.TrimSuffix(c.cfg.PayBaseURL, "/") + payPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-VERIFY", checksum)
	req.Header.Set("X-MERCHANT-ID", c.cfg.MerchantID)
	req.Header.Set("Authorization", "O-Bearer "+token.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute initiate request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read initiate response: %w", err)
	}

	var initResp initiateResponse
	if err := json.Unmarshal(body, &initResp); err != nil {
		return "", &errors.ErrGateway{
			Message: fmt.Sprintf("unparseable response (status %d): %s", resp.StatusCode, string(body)),
		}
	}

	if !initResp.Success || resp.StatusCode != http.StatusOK {
		c.logger.Warn("Gateway rejected payment initiation",
			zap.String("code", initResp.Code),
			zap.String("message", initResp.Message),
			zap.Int("status", resp.StatusCode),
		)
		return "", &errors.ErrGateway{Code: initResp.Code, Message: initResp.Message}
	}

	redirectURL := initResp.Data.InstrumentResponse.RedirectInfo.URL
	if redirectURL == "" {
		return "", &errors.ErrGateway{
			Code:    initResp.Code,
			Message: "response is missing the redirect URL",
		}
	}

	return redirectURL, nil
}

// VerifyCallbackChecksum checks a callback's X-VERIFY header against
// its base64 body using this client's salt configuration
func (c *Client) VerifyCallbackChecksum(encodedBody, xVerify string) bool {
	return VerifyCallback(encodedBody, c.cfg.SaltKey, c.cfg.SaltIndex, xVerify)
}
