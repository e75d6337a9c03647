package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jafarshop/shopapi/internal/config"
	"github.com/jafarshop/shopapi/pkg/errors"
)

func newTestClient(t *testing.T, payHandler http.HandlerFunc) (*Client, func()) {
	t.Helper()

	authServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"access_token":"tok-abc","expires_at":%d}`, time.Now().Add(time.Hour).Unix())
	}))
	payServer := httptest.NewServer(payHandler)

	cfg := config.GatewayConfig{
		MerchantID:    "MERCHANT1",
		ClientID:      "client-1",
		ClientSecret:  "secret-1",
		ClientVersion: "1",
		SaltKey:       "salt-key",
		SaltIndex:     "1",
		AuthBaseURL:   authServer.URL,
		PayBaseURL:    payServer.URL,
	}

	auth := NewAuthProvider(cfg, nil, zap.NewNop())
	client := NewClient(cfg, auth, zap.NewNop())

	return client, func() {
		authServer.Close()
		payServer.Close()
	}
}

func testParams() InitiateParams {
	return InitiateParams{
		MerchantTransactionID: "TXN-abc123-1",
		MerchantUserID:        "user-1",
		AmountPaise:           90000,
		RedirectURL:           "https://shop.example.com/v1/payment/return?order_id=o1",
		CallbackURL:           "https://shop.example.com/v1/payment/callback",
		MobileNumber:          "9999999999",
	}
}

func TestInitiateSuccess(t *testing.T) {
	client, cleanup := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/pg/v1/pay", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "MERCHANT1", r.Header.Get("X-MERCHANT-ID"))
		assert.Equal(t, "O-Bearer tok-abc", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req struct {
			Request string `json:"request"`
		}
		require.NoError(t, json.Unmarshal(body, &req))

		// The checksum must match what the gateway itself would compute
		assert.Equal(t, Checksum(req.Request+"/pg/v1/pay", "salt-key", "1"), r.Header.Get("X-VERIFY"))

		raw, err := base64.StdEncoding.DecodeString(req.Request)
		require.NoError(t, err)
		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &payload))
		assert.Equal(t, "MERCHANT1", payload["merchantId"])
		assert.Equal(t, "TXN-abc123-1", payload["merchantTransactionId"])
		assert.Equal(t, float64(90000), payload["amount"])
		assert.Equal(t, "REDIRECT", payload["redirectMode"])
		assert.Equal(t, map[string]interface{}{"type": "PAY_PAGE"}, payload["paymentInstrument"])

		fmt.Fprint(w, `{
			"success": true,
			"code": "PAYMENT_INITIATED",
			"message": "initiated",
			"data": {"instrumentResponse": {"redirectInfo": {"url": "https://pay.example.com/redirect/xyz"}}}
		}`)
	})
	defer cleanup()

	url, err := client.Initiate(context.Background(), testParams())
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/redirect/xyz", url)
}

func TestInitiateGatewayRejection(t *testing.T) {
	client, cleanup := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"success": false, "code": "BAD_REQUEST", "message": "amount mismatch"}`)
	})
	defer cleanup()

	_, err := client.Initiate(context.Background(), testParams())
	var gwErr *errors.ErrGateway
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "BAD_REQUEST", gwErr.Code)
	assert.Equal(t, "amount mismatch", gwErr.Message)
}

func TestInitiateMissingRedirectURL(t *testing.T) {
	client, cleanup := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success": true, "code": "PAYMENT_INITIATED", "data": {}}`)
	})
	defer cleanup()

	_, err := client.Initiate(context.Background(), testParams())
	var gwErr *errors.ErrGateway
	require.ErrorAs(t, err, &gwErr)
}

func TestInitiateUnparseableResponse(t *testing.T) {
	client, cleanup := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>gateway down</html>`)
	})
	defer cleanup()

	_, err := client.Initiate(context.Background(), testParams())
	var gwErr *errors.ErrGateway
	require.ErrorAs(t, err, &gwErr)
}

func TestVerifyCallbackChecksum(t *testing.T) {
	client, cleanup := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	defer cleanup()

	body := base64.StdEncoding.EncodeToString([]byte(`{"code":"PAYMENT_SUCCESS"}`))
	assert.True(t, client.VerifyCallbackChecksum(body, Checksum(body, "salt-key", "1")))
	assert.False(t, client.VerifyCallbackChecksum(body, Checksum(body, "wrong", "1")))
}
