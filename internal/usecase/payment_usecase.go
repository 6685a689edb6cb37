package usecase

import (
	"context"
	"errors"
	"net/http"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// 外部決済ゲートウェイの承認API。
// 成功リダイレクトで受け取ったpaymentKeyをサーバ側で照合する。
type PaymentGateway interface {
	Confirm(ctx context.Context, in GatewayConfirmInput) (GatewayConfirmResult, error)
}

type GatewayConfirmInput struct {
	PaymentKey string
	OrderID    string
	Amount     int64
}

type GatewayConfirmResult struct {
	PaymentKey string
	ApprovedAt time.Time
	Method     string
}

// PaymentUsecase は決済検証を担当。
// 検証は注文1件につき最大1回しかゲートウェイへ届かない。
// ラッチはpaymentsレコードのREADY→IN_PROGRESS条件付き更新で実現する。
type PaymentUsecase struct {
	tx          repo.TransactionManager
	orderRepo   repo.OrderRepository
	paymentRepo repo.PaymentRepository
	gateway     PaymentGateway
	clock       Clock
	publisher   OrderEventPublisher
	cartCount   CartCountCache
}

func NewPaymentUsecase(
	tx repo.TransactionManager,
	orderRepo repo.OrderRepository,
	paymentRepo repo.PaymentRepository,
	gateway PaymentGateway,
	clock Clock,
	publisher OrderEventPublisher,
	cartCount CartCountCache,
) *PaymentUsecase {
	return &PaymentUsecase{
		tx:          tx,
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		gateway:     gateway,
		clock:       clock,
		publisher:   publisher,
		cartCount:   cartCount,
	}
}

type VerifyPaymentInput struct {
	OrderID    string `json:"orderId"`
	Amount     int64  `json:"amount"`
	PaymentKey string `json:"paymentKey"`
}

type VerifyPaymentOutput struct {
	OrderID    string `json:"orderId"`
	Status     string `json:"status"`
	Amount     int64  `json:"amount"`
	ApprovedAt string `json:"approvedAt,omitempty"`
}

// Verify は決済完了リダイレクトの内容を注文と突き合わせる。
// 同じ注文に対して再度呼ばれた場合は記録済みの結果を返すだけで、
// ゲートウェイには二度と問い合わせない。
func (u *PaymentUsecase) Verify(ctx context.Context, userID int64, in VerifyPaymentInput) (VerifyPaymentOutput, error) {
	if userID <= 0 {
		return VerifyPaymentOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.OrderID == "" || in.PaymentKey == "" {
		return VerifyPaymentOutput{}, NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := u.orderRepo.FindByID(ctx, in.OrderID)
	if errors.Is(err, repo.ErrNotFound) {
		return VerifyPaymentOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return VerifyPaymentOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	//他人の注文は「存在しない扱い」にする
	if order.UserID != userID {
		return VerifyPaymentOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	payment, err := u.paymentRepo.FindByOrderID(ctx, in.OrderID)
	if errors.Is(err, repo.ErrNotFound) {
		return VerifyPaymentOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return VerifyPaymentOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//金額はサーバ側の確定値と一致しなければならない
	if in.Amount != payment.Amount {
		return VerifyPaymentOutput{}, NewHTTPError(http.StatusBadRequest, "결제 금액이 일치하지 않습니다.")
	}

	switch payment.Status {
	case model.PaymentStatusDone:
		//検証済み。そのまま返す
		return toVerifyOutput(order.ID, payment), nil
	case model.PaymentStatusAborted:
		return VerifyPaymentOutput{}, NewHTTPError(http.StatusConflict, "이미 실패 처리된 결제입니다.")
	}

	//READY→IN_PROGRESS。進められなかったら誰かが検証中か検証済み
	acquired, err := u.paymentRepo.TransitionToInProgress(ctx, in.OrderID)
	if err != nil {
		return VerifyPaymentOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !acquired {
		latest, err := u.paymentRepo.FindByOrderID(ctx, in.OrderID)
		if err == nil && latest.Status == model.PaymentStatusDone {
			return toVerifyOutput(order.ID, latest), nil
		}
		return VerifyPaymentOutput{}, NewHTTPError(http.StatusConflict, "결제 검증이 진행 중입니다.")
	}

	result, err := u.gateway.Confirm(ctx, GatewayConfirmInput{
		PaymentKey: in.PaymentKey,
		OrderID:    in.OrderID,
		Amount:     in.Amount,
	})
	if err != nil {
		//READYへ戻してユーザーの再試行に委ねる（自動リトライはしない）
		if relErr := u.paymentRepo.ReleaseToReady(ctx, in.OrderID, "GATEWAY_ERROR", err.Error()); relErr != nil {
			logger.Error().Err(relErr).Str("order_id", in.OrderID).Msg("failed to release payment latch")
		}
		return VerifyPaymentOutput{}, NewHTTPError(http.StatusBadGateway, "결제 검증에 실패했습니다.")
	}

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.Payments().MarkDone(ctx, in.OrderID, result.PaymentKey, result.ApprovedAt); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if err := r.Orders().UpdateStatus(ctx, in.OrderID, model.OrderStatusPaid); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if err := r.OrderItems().UpdateStatusByOrderID(ctx, in.OrderID, model.OrderItemStatusPaid); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
	if err != nil {
		return VerifyPaymentOutput{}, err
	}

	//カートバッジは次回取得時にDBから読み直させる
	u.cartCount.Invalidate(ctx, userID)

	if err := u.publisher.Publish(ctx, OrderEvent{
		Type:    EventOrderPaid,
		OrderID: in.OrderID,
		UserID:  userID,
		Amount:  payment.Amount,
		At:      u.clock.Now(),
	}); err != nil {
		logger.Warn().Err(err).Str("order_id", in.OrderID).Msg("failed to publish order.paid")
	}

	approved := result.ApprovedAt
	return VerifyPaymentOutput{
		OrderID:    order.ID,
		Status:     string(model.PaymentStatusDone),
		Amount:     payment.Amount,
		ApprovedAt: approved.Format(time.RFC3339),
	}, nil
}

type ReportFailureInput struct {
	OrderID string `json:"orderId"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ReportFailure はプロバイダの失敗リダイレクトを記録する。
// 失敗コードがある以上、ゲートウェイの承認APIは一切呼ばない。
func (u *PaymentUsecase) ReportFailure(ctx context.Context, userID int64, in ReportFailureInput) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.OrderID == "" || in.Code == "" {
		return NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := u.orderRepo.FindByID(ctx, in.OrderID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if order.UserID != userID {
		return NewHTTPError(http.StatusNotFound, "not found")
	}

	payment, err := u.paymentRepo.FindByOrderID(ctx, in.OrderID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if payment.Status == model.PaymentStatusDone {
		return NewHTTPError(http.StatusConflict, "conflict")
	}

	if err := u.paymentRepo.MarkAborted(ctx, in.OrderID, in.Code, in.Message); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func toVerifyOutput(orderID string, p model.Payment) VerifyPaymentOutput {
	out := VerifyPaymentOutput{
		OrderID: orderID,
		Status:  string(p.Status),
		Amount:  p.Amount,
	}
	if p.ApprovedAt != nil {
		out.ApprovedAt = p.ApprovedAt.Format(time.RFC3339)
	}
	return out
}
