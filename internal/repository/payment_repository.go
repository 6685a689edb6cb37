package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
)

// 決済レコード。READY→IN_PROGRESS→DONE/ABORTED のラッチを
// 条件付きUPDATEで進めることで、検証の二重実行をDB側で塞ぐ。
type PaymentRepository interface {
	Create(ctx context.Context, p model.Payment) error
	FindByOrderID(ctx context.Context, orderID string) (model.Payment, error)

	//READYのときだけIN_PROGRESSへ進める。進めたらtrue
	TransitionToInProgress(ctx context.Context, orderID string) (bool, error)

	MarkDone(ctx context.Context, orderID string, paymentKey string, approvedAt time.Time) error
	MarkAborted(ctx context.Context, orderID string, failCode string, failMessage string) error

	//ゲートウェイ失敗時にREADYへ戻す（ユーザーが再試行できるように）
	ReleaseToReady(ctx context.Context, orderID string, failCode string, failMessage string) error
}
