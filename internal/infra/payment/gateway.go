package payment

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"storefront/internal/usecase"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("layer", "payment").Logger()

// ゲートウェイのエラーレスポンス
type gatewayErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// 承認APIのレスポンス
type confirmResponse struct {
	PaymentKey string `json:"paymentKey"`
	OrderID    string `json:"orderId"`
	Status     string `json:"status"`
	ApprovedAt string `json:"approvedAt"`
	Method     string `json:"method"`
}

type GatewayError struct {
	HTTPStatus int
	Code       string
	Message    string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway error: status=%d code=%s message=%s", e.HTTPStatus, e.Code, e.Message)
}

// Client は決済ゲートウェイの承認APIを呼ぶ。
// ゲートウェイ障害の連鎖を防ぐためサーキットブレーカーを挟む。
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker[usecase.GatewayConfirmResult]
}

func NewClient(baseURL string, secretKey string) *Client {
	cb := gobreaker.NewCircuitBreaker[usecase.GatewayConfirmResult](gobreaker.Settings{
		Name:    "payment-gateway",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn().
				Str("name", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})

	return &Client{
		baseURL:   baseURL,
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		cb: cb,
	}
}

// Confirm は承認APIを1回呼ぶ。
func (c *Client) Confirm(ctx context.Context, in usecase.GatewayConfirmInput) (usecase.GatewayConfirmResult, error) {
	return c.cb.Execute(func() (usecase.GatewayConfirmResult, error) {
		return c.confirm(ctx, in)
	})
}

func (c *Client) confirm(ctx context.Context, in usecase.GatewayConfirmInput) (usecase.GatewayConfirmResult, error) {
	body, err := json.Marshal(map[string]interface{}{
		"paymentKey": in.PaymentKey,
		"orderId":    in.OrderID,
		"amount":     in.Amount,
	})
	if err != nil {
		return usecase.GatewayConfirmResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payments/confirm", bytes.NewReader(body))
	if err != nil {
		return usecase.GatewayConfirmResult{}, err
	}

	//シークレットキーをBasic認証で渡す（パスワードは空）
	auth := base64.StdEncoding.EncodeToString([]byte(c.secretKey + ":"))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return usecase.GatewayConfirmResult{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return usecase.GatewayConfirmResult{}, err
	}

	if resp.StatusCode != http.StatusOK {
		var ge gatewayErrorBody
		if err := json.Unmarshal(raw, &ge); err != nil {
			ge = gatewayErrorBody{Code: "UNKNOWN", Message: string(raw)}
		}
		logger.Error().
			Int("status", resp.StatusCode).
			Str("code", ge.Code).
			Str("order_id", in.OrderID).
			Msg("confirm failed")
		return usecase.GatewayConfirmResult{}, &GatewayError{
			HTTPStatus: resp.StatusCode,
			Code:       ge.Code,
			Message:    ge.Message,
		}
	}

	var cr confirmResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return usecase.GatewayConfirmResult{}, err
	}

	approvedAt, err := time.Parse(time.RFC3339, cr.ApprovedAt)
	if err != nil {
		approvedAt = time.Now()
	}

	return usecase.GatewayConfirmResult{
		PaymentKey: cr.PaymentKey,
		ApprovedAt: approvedAt,
		Method:     cr.Method,
	}, nil
}
