package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newPaymentFixture() (
	*TxManagerMock,
	*OrderRepoMock,
	*OrderItemRepoMock,
	*PaymentRepoMock,
	*GatewayMock,
	*PublisherMock,
	*CountCacheMock,
	*usecase.PaymentUsecase,
) {
	tx := new(TxManagerMock)
	orders := new(OrderRepoMock)
	orderItems := new(OrderItemRepoMock)
	payments := new(PaymentRepoMock)
	gw := new(GatewayMock)
	pub := new(PublisherMock)
	cache := newCountCacheMock()

	tx.Repos = &TxReposMock{
		orders:     orders,
		orderItems: orderItems,
		payments:   payments,
	}

	uc := usecase.NewPaymentUsecase(
		tx, orders, payments, gw,
		&fixedClock{now: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)},
		pub, cache,
	)
	return tx, orders, orderItems, payments, gw, pub, cache, uc
}

func TestPaymentUsecase_Verify_ForeignOrder(t *testing.T) {
	_, orders, _, _, gw, _, _, uc := newPaymentFixture()

	orders.On("FindByID", mock.Anything, "ord-1").Return(model.Order{ID: "ord-1", UserID: 999}, nil)

	_, err := uc.Verify(context.Background(), 1, usecase.VerifyPaymentInput{
		OrderID: "ord-1", Amount: 13000, PaymentKey: "pk-1",
	})
	assertErrContains(t, err, "not found")
	gw.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything)
}

func TestPaymentUsecase_Verify_AmountMismatch(t *testing.T) {
	_, orders, _, payments, gw, _, _, uc := newPaymentFixture()

	orders.On("FindByID", mock.Anything, "ord-1").Return(model.Order{ID: "ord-1", UserID: 1}, nil)
	payments.On("FindByOrderID", mock.Anything, "ord-1").Return(model.Payment{
		OrderID: "ord-1", Amount: 13000, Status: model.PaymentStatusReady,
	}, nil)

	_, err := uc.Verify(context.Background(), 1, usecase.VerifyPaymentInput{
		OrderID: "ord-1", Amount: 9999, PaymentKey: "pk-1",
	})
	assertErrContains(t, err, "결제 금액이 일치하지 않습니다.")
	gw.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything)
}

func TestPaymentUsecase_Verify_Success(t *testing.T) {
	tx, orders, orderItems, payments, gw, pub, cache, uc := newPaymentFixture()

	approvedAt := time.Date(2026, 8, 1, 12, 0, 5, 0, time.UTC)

	orders.On("FindByID", mock.Anything, "ord-1").Return(model.Order{ID: "ord-1", UserID: 1}, nil)
	payments.On("FindByOrderID", mock.Anything, "ord-1").Return(model.Payment{
		OrderID: "ord-1", Amount: 13000, Status: model.PaymentStatusReady,
	}, nil)
	payments.On("TransitionToInProgress", mock.Anything, "ord-1").Return(true, nil)

	gw.On("Confirm", mock.Anything, usecase.GatewayConfirmInput{
		PaymentKey: "pk-1", OrderID: "ord-1", Amount: 13000,
	}).Return(usecase.GatewayConfirmResult{PaymentKey: "pk-1", ApprovedAt: approvedAt, Method: "CARD"}, nil)

	tx.On("WithinTx", mock.Anything).Return(nil)
	payments.On("MarkDone", mock.Anything, "ord-1", "pk-1", approvedAt).Return(nil)
	orders.On("UpdateStatus", mock.Anything, "ord-1", model.OrderStatusPaid).Return(nil)
	orderItems.On("UpdateStatusByOrderID", mock.Anything, "ord-1", model.OrderItemStatusPaid).Return(nil)

	pub.On("Publish", mock.Anything, mock.MatchedBy(func(ev usecase.OrderEvent) bool {
		return ev.Type == "order.paid" && ev.OrderID == "ord-1"
	})).Return(nil)

	out, err := uc.Verify(context.Background(), 1, usecase.VerifyPaymentInput{
		OrderID: "ord-1", Amount: 13000, PaymentKey: "pk-1",
	})
	assert.NoError(t, err)
	assert.Equal(t, "DONE", out.Status)
	assert.Equal(t, int64(13000), out.Amount)
	assert.Equal(t, []int64{1}, cache.invalidated)

	gw.AssertNumberOfCalls(t, "Confirm", 1)
	payments.AssertExpectations(t)
	orders.AssertExpectations(t)
	orderItems.AssertExpectations(t)
}

// 2回目の検証はDONEを返すだけ。ゲートウェイは呼ばれない
func TestPaymentUsecase_Verify_AlreadyDone_NoSecondConfirm(t *testing.T) {
	_, orders, _, payments, gw, _, _, uc := newPaymentFixture()

	approvedAt := time.Date(2026, 8, 1, 12, 0, 5, 0, time.UTC)

	orders.On("FindByID", mock.Anything, "ord-1").Return(model.Order{ID: "ord-1", UserID: 1}, nil)
	payments.On("FindByOrderID", mock.Anything, "ord-1").Return(model.Payment{
		OrderID: "ord-1", Amount: 13000, Status: model.PaymentStatusDone,
		PaymentKey: "pk-1", ApprovedAt: &approvedAt,
	}, nil)

	out, err := uc.Verify(context.Background(), 1, usecase.VerifyPaymentInput{
		OrderID: "ord-1", Amount: 13000, PaymentKey: "pk-1",
	})
	assert.NoError(t, err)
	assert.Equal(t, "DONE", out.Status)

	gw.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything)
	payments.AssertNotCalled(t, "TransitionToInProgress", mock.Anything, mock.Anything)
}

// ラッチが取れなかった（誰かが検証中）→409
func TestPaymentUsecase_Verify_LatchBusy(t *testing.T) {
	_, orders, _, payments, gw, _, _, uc := newPaymentFixture()

	orders.On("FindByID", mock.Anything, "ord-1").Return(model.Order{ID: "ord-1", UserID: 1}, nil)
	payments.On("FindByOrderID", mock.Anything, "ord-1").Return(model.Payment{
		OrderID: "ord-1", Amount: 13000, Status: model.PaymentStatusReady,
	}, nil).Twice()
	payments.On("TransitionToInProgress", mock.Anything, "ord-1").Return(false, nil)

	_, err := uc.Verify(context.Background(), 1, usecase.VerifyPaymentInput{
		OrderID: "ord-1", Amount: 13000, PaymentKey: "pk-1",
	})
	assertErrContains(t, err, "결제 검증이 진행 중입니다.")
	gw.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything)
}

// ゲートウェイ失敗はREADYへ戻して502
func TestPaymentUsecase_Verify_GatewayError_ReleasesLatch(t *testing.T) {
	_, orders, _, payments, gw, _, _, uc := newPaymentFixture()

	orders.On("FindByID", mock.Anything, "ord-1").Return(model.Order{ID: "ord-1", UserID: 1}, nil)
	payments.On("FindByOrderID", mock.Anything, "ord-1").Return(model.Payment{
		OrderID: "ord-1", Amount: 13000, Status: model.PaymentStatusReady,
	}, nil)
	payments.On("TransitionToInProgress", mock.Anything, "ord-1").Return(true, nil)

	gw.On("Confirm", mock.Anything, mock.Anything).Return(usecase.GatewayConfirmResult{}, errors.New("timeout"))
	payments.On("ReleaseToReady", mock.Anything, "ord-1", "GATEWAY_ERROR", mock.Anything).Return(nil)

	_, err := uc.Verify(context.Background(), 1, usecase.VerifyPaymentInput{
		OrderID: "ord-1", Amount: 13000, PaymentKey: "pk-1",
	})
	assertErrContains(t, err, "결제 검증에 실패했습니다.")
	payments.AssertExpectations(t)
}

// =====================
// ReportFailure tests
// =====================

func TestPaymentUsecase_ReportFailure_NeverCallsGateway(t *testing.T) {
	_, orders, _, payments, gw, _, _, uc := newPaymentFixture()

	orders.On("FindByID", mock.Anything, "ord-1").Return(model.Order{ID: "ord-1", UserID: 1}, nil)
	payments.On("FindByOrderID", mock.Anything, "ord-1").Return(model.Payment{
		OrderID: "ord-1", Amount: 13000, Status: model.PaymentStatusReady,
	}, nil)
	payments.On("MarkAborted", mock.Anything, "ord-1", "PAY_PROCESS_CANCELED", "사용자 취소").Return(nil)

	err := uc.ReportFailure(context.Background(), 1, usecase.ReportFailureInput{
		OrderID: "ord-1", Code: "PAY_PROCESS_CANCELED", Message: "사용자 취소",
	})
	assert.NoError(t, err)
	gw.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything)
	payments.AssertExpectations(t)
}

func TestPaymentUsecase_ReportFailure_AfterDone_Conflict(t *testing.T) {
	_, orders, _, payments, _, _, _, uc := newPaymentFixture()

	orders.On("FindByID", mock.Anything, "ord-1").Return(model.Order{ID: "ord-1", UserID: 1}, nil)
	payments.On("FindByOrderID", mock.Anything, "ord-1").Return(model.Payment{
		OrderID: "ord-1", Amount: 13000, Status: model.PaymentStatusDone,
	}, nil)

	err := uc.ReportFailure(context.Background(), 1, usecase.ReportFailureInput{
		OrderID: "ord-1", Code: "PAY_PROCESS_CANCELED",
	})
	assertErrContains(t, err, "conflict")
	payments.AssertNotCalled(t, "MarkAborted", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentUsecase_ReportFailure_NotFoundOrder(t *testing.T) {
	_, orders, _, _, _, _, _, uc := newPaymentFixture()

	orders.On("FindByID", mock.Anything, "ord-x").Return(model.Order{}, repo.ErrNotFound)

	err := uc.ReportFailure(context.Background(), 1, usecase.ReportFailureInput{
		OrderID: "ord-x", Code: "ERR",
	})
	assertErrContains(t, err, "not found")
}
