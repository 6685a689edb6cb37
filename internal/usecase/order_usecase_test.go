package usecase_test

import (
	"context"
	"testing"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newOrderFixture() (*TxManagerMock, *OrderRepoMock, *OrderItemRepoMock, *PublisherMock, *usecase.OrderUsecase) {
	tx := new(TxManagerMock)
	orders := new(OrderRepoMock)
	orderItems := new(OrderItemRepoMock)
	pub := new(PublisherMock)

	tx.Repos = &TxReposMock{orders: orders, orderItems: orderItems}

	uc := usecase.NewOrderUsecase(tx, pub, &fixedClock{now: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)})
	return tx, orders, orderItems, pub, uc
}

func TestOrderUsecase_ListMyOrders(t *testing.T) {
	tx, orders, orderItems, _, uc := newOrderFixture()

	tx.On("WithinTx", mock.Anything).Return(nil)
	orders.On("ListByUserID", mock.Anything, int64(1), 1, 50).Return([]model.Order{
		{ID: "ord-1", UserID: 1, Status: model.OrderStatusPaid, FinalAmount: 13000},
	}, int64(1), nil)
	orderItems.On("ListByOrderID", mock.Anything, "ord-1").Return([]model.OrderItem{
		{ID: 31, OrderID: "ord-1", ProductID: 10, Quantity: 2, Status: model.OrderItemStatusPaid},
	}, nil)

	outs, err := uc.ListMyOrders(context.Background(), 1)
	assert.NoError(t, err)
	assert.Len(t, outs, 1)
	assert.Equal(t, "ord-1", outs[0].OrderID)
	assert.Len(t, outs[0].Items, 1)
}

func TestOrderUsecase_GetMyOrderDetail_Foreign_NotFound(t *testing.T) {
	tx, orders, _, _, uc := newOrderFixture()

	tx.On("WithinTx", mock.Anything).Return(nil)
	orders.On("FindByID", mock.Anything, "ord-1").Return(model.Order{ID: "ord-1", UserID: 999}, nil)

	_, err := uc.GetMyOrderDetail(context.Background(), 1, "ord-1")
	assertErrContains(t, err, "not found")
}

func TestOrderUsecase_GetMyOrderDetail_Missing(t *testing.T) {
	tx, orders, _, _, uc := newOrderFixture()

	tx.On("WithinTx", mock.Anything).Return(nil)
	orders.On("FindByID", mock.Anything, "ord-x").Return(model.Order{}, repo.ErrNotFound)

	_, err := uc.GetMyOrderDetail(context.Background(), 1, "ord-x")
	assertErrContains(t, err, "not found")
}

// =====================
// RequestCancel
// =====================

func TestOrderUsecase_RequestCancel_EmptyReason(t *testing.T) {
	_, _, _, _, uc := newOrderFixture()

	err := uc.RequestCancel(context.Background(), 1, usecase.CancelRequestInput{OrderItemID: 31, CancelReason: "  "})
	assertErrContains(t, err, "취소 사유를 입력해주세요.")
}

func TestOrderUsecase_RequestCancel_Success_PublishesEvent(t *testing.T) {
	tx, orders, orderItems, pub, uc := newOrderFixture()

	tx.On("WithinTx", mock.Anything).Return(nil)
	orderItems.On("FindByID", mock.Anything, int64(31)).Return(model.OrderItem{
		ID: 31, OrderID: "ord-1", Status: model.OrderItemStatusPaid,
	}, nil)
	orders.On("FindByID", mock.Anything, "ord-1").Return(model.Order{ID: "ord-1", UserID: 1}, nil)
	orderItems.On("MarkCancelRequested", mock.Anything, int64(31), "단순 변심").Return(nil)

	pub.On("Publish", mock.Anything, mock.MatchedBy(func(ev usecase.OrderEvent) bool {
		return ev.Type == "order.cancel_requested" && ev.OrderID == "ord-1"
	})).Return(nil)

	err := uc.RequestCancel(context.Background(), 1, usecase.CancelRequestInput{OrderItemID: 31, CancelReason: "단순 변심"})
	assert.NoError(t, err)

	orderItems.AssertExpectations(t)
	pub.AssertExpectations(t)
}

// SHIPPED済みはキャンセル要求できない
func TestOrderUsecase_RequestCancel_ShippedItem_Conflict(t *testing.T) {
	tx, orders, orderItems, _, uc := newOrderFixture()

	tx.On("WithinTx", mock.Anything).Return(nil)
	orderItems.On("FindByID", mock.Anything, int64(31)).Return(model.OrderItem{
		ID: 31, OrderID: "ord-1", Status: model.OrderItemStatusShipped,
	}, nil)
	orders.On("FindByID", mock.Anything, "ord-1").Return(model.Order{ID: "ord-1", UserID: 1}, nil)

	err := uc.RequestCancel(context.Background(), 1, usecase.CancelRequestInput{OrderItemID: 31, CancelReason: "늦어요"})
	assertErrContains(t, err, "취소할 수 없는 상태입니다.")
	orderItems.AssertNotCalled(t, "MarkCancelRequested", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderUsecase_RequestCancel_ForeignItem_NotFound(t *testing.T) {
	tx, orders, orderItems, _, uc := newOrderFixture()

	tx.On("WithinTx", mock.Anything).Return(nil)
	orderItems.On("FindByID", mock.Anything, int64(31)).Return(model.OrderItem{
		ID: 31, OrderID: "ord-1", Status: model.OrderItemStatusPaid,
	}, nil)
	orders.On("FindByID", mock.Anything, "ord-1").Return(model.Order{ID: "ord-1", UserID: 999}, nil)

	err := uc.RequestCancel(context.Background(), 1, usecase.CancelRequestInput{OrderItemID: 31, CancelReason: "사유"})
	assertErrContains(t, err, "not found")
}

// =====================
// ConfirmItem
// =====================

func TestOrderUsecase_ConfirmItem_Success(t *testing.T) {
	tx, orders, orderItems, _, uc := newOrderFixture()

	tx.On("WithinTx", mock.Anything).Return(nil)
	orderItems.On("FindByID", mock.Anything, int64(31)).Return(model.OrderItem{
		ID: 31, OrderID: "ord-1", Status: model.OrderItemStatusShipped,
	}, nil)
	orders.On("FindByID", mock.Anything, "ord-1").Return(model.Order{ID: "ord-1", UserID: 1}, nil)
	orderItems.On("UpdateStatus", mock.Anything, int64(31), model.OrderItemStatusConfirmed).Return(nil)

	err := uc.ConfirmItem(context.Background(), 1, 31)
	assert.NoError(t, err)
	orderItems.AssertExpectations(t)
}

func TestOrderUsecase_ConfirmItem_NotShipped_Conflict(t *testing.T) {
	tx, orders, orderItems, _, uc := newOrderFixture()

	tx.On("WithinTx", mock.Anything).Return(nil)
	orderItems.On("FindByID", mock.Anything, int64(31)).Return(model.OrderItem{
		ID: 31, OrderID: "ord-1", Status: model.OrderItemStatusPaid,
	}, nil)
	orders.On("FindByID", mock.Anything, "ord-1").Return(model.Order{ID: "ord-1", UserID: 1}, nil)

	err := uc.ConfirmItem(context.Background(), 1, 31)
	assertErrContains(t, err, "구매 확정할 수 없는 상태입니다.")
	orderItems.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}
