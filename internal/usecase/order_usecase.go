package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// OrderUsecase は注文履歴側（/v1/users/me/orders）を担当。
// 注文の作成はCheckoutUsecase、決済はPaymentUsecase。
type OrderUsecase struct {
	tx        repo.TransactionManager
	publisher OrderEventPublisher
	clock     Clock
}

func NewOrderUsecase(tx repo.TransactionManager, publisher OrderEventPublisher, clock Clock) *OrderUsecase {
	return &OrderUsecase{tx: tx, publisher: publisher, clock: clock}
}

type OrderItemOutput struct {
	OrderItemID  int64  `json:"orderItemId"`
	ProductID    int64  `json:"productId"`
	ProductName  string `json:"productName"`
	ProductPrice int64  `json:"productPrice"`
	Quantity     int64  `json:"quantity"`
	SellerName   string `json:"sellerName"`
	Status       string `json:"orderItemStatus"`
	CancelReason string `json:"cancelReason,omitempty"`
}

type OrderOutput struct {
	OrderID     string            `json:"orderId"`
	OrderName   string            `json:"orderName"`
	Status      string            `json:"orderStatus"`
	TotalAmount int64             `json:"totalAmount"`
	ShippingFee int64             `json:"shippingFee"`
	FinalAmount int64             `json:"finalAmount"`
	CreatedAt   time.Time         `json:"createdAt"`
	Items       []OrderItemOutput `json:"orderItems"`
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64) ([]OrderOutput, error) {
	if userID <= 0 {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	//ページングはまず固定で取る
	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListByUserID(ctx, userID, 1, 50)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID string) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(orderID) == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		//他人の注文は「存在しない扱い」にする
		if o.UserID != userID {
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

type CancelRequestInput struct {
	OrderItemID  int64  `json:"orderItemId"`
	CancelReason string `json:"cancelReason"`
}

// RequestCancel は明細単位のキャンセル要求。
// ORDERED/PAIDの明細だけがCANCEL_PENDINGへ進める。
func (u *OrderUsecase) RequestCancel(ctx context.Context, userID int64, in CancelRequestInput) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.OrderItemID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	reason := strings.TrimSpace(in.CancelReason)
	if reason == "" {
		return NewHTTPError(http.StatusBadRequest, "취소 사유를 입력해주세요.")
	}

	var orderID string

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		item, err := r.OrderItems().FindByID(ctx, in.OrderItemID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		o, err := r.Orders().FindByID(ctx, item.OrderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.UserID != userID {
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		if item.Status != model.OrderItemStatusOrdered && item.Status != model.OrderItemStatusPaid {
			return NewHTTPError(http.StatusConflict, "취소할 수 없는 상태입니다.")
		}

		if err := r.OrderItems().MarkCancelRequested(ctx, in.OrderItemID, reason); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		orderID = o.ID
		return nil
	})
	if err != nil {
		return err
	}

	if err := u.publisher.Publish(ctx, OrderEvent{
		Type:    EventOrderCancelRequested,
		OrderID: orderID,
		UserID:  userID,
		At:      u.clock.Now(),
	}); err != nil {
		logger.Warn().Err(err).Str("order_id", orderID).Msg("failed to publish order.cancel_requested")
	}
	return nil
}

// ConfirmItem は受取確定。SHIPPEDの明細だけがCONFIRMEDへ進める。
func (u *OrderUsecase) ConfirmItem(ctx context.Context, userID int64, orderItemID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderItemID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		item, err := r.OrderItems().FindByID(ctx, orderItemID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		o, err := r.Orders().FindByID(ctx, item.OrderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.UserID != userID {
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		if item.Status != model.OrderItemStatusShipped {
			return NewHTTPError(http.StatusConflict, "구매 확정할 수 없는 상태입니다.")
		}

		if err := r.OrderItems().UpdateStatus(ctx, orderItemID, model.OrderItemStatusConfirmed); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			OrderItemID:  it.ID,
			ProductID:    it.ProductID,
			ProductName:  it.ProductNameSnapshot,
			ProductPrice: it.UnitPriceSnapshot,
			Quantity:     it.Quantity,
			SellerName:   it.SellerNameSnapshot,
			Status:       string(it.Status),
			CancelReason: it.CancelReason,
		})
	}

	return OrderOutput{
		OrderID:     o.ID,
		OrderName:   o.OrderName,
		Status:      string(o.Status),
		TotalAmount: o.TotalAmount,
		ShippingFee: o.ShippingFee,
		FinalAmount: o.FinalAmount,
		CreatedAt:   o.CreatedAt,
		Items:       outItems,
	}
}
