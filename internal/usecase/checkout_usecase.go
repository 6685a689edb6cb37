package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// 送料。3万ウォン以上で無料
const (
	shippingFee     int64 = 3000
	freeShippingMin int64 = 30000
)

// CheckoutUsecase は pre-check（金額スナップショット）と注文作成を担当。
// 金額計算の正はここだけ。クライアントが計算した合計は一切受け取らない。
type CheckoutUsecase struct {
	tx           repo.TransactionManager
	cartRepo     repo.CartRepository
	cartItemRepo repo.CartItemRepository
	productRepo  repo.ProductRepository
	idGen        IDGenerator
	clock        Clock
	publisher    OrderEventPublisher
	cartCount    CartCountCache
}

func NewCheckoutUsecase(
	tx repo.TransactionManager,
	cartRepo repo.CartRepository,
	cartItemRepo repo.CartItemRepository,
	productRepo repo.ProductRepository,
	idGen IDGenerator,
	clock Clock,
	publisher OrderEventPublisher,
	cartCount CartCountCache,
) *CheckoutUsecase {
	return &CheckoutUsecase{
		tx:           tx,
		cartRepo:     cartRepo,
		cartItemRepo: cartItemRepo,
		productRepo:  productRepo,
		idGen:        idGen,
		clock:        clock,
		publisher:    publisher,
		cartCount:    cartCount,
	}
}

type DirectOrderItem struct {
	ProductID int64 `json:"productId"`
	Quantity  int64 `json:"quantity"`
}

type PreCheckInput struct {
	CartItemIDs []int64
	DirectItem  *DirectOrderItem
}

type CheckoutItem struct {
	CartItemID   *int64 `json:"cartItemId,omitempty"`
	ProductID    int64  `json:"productId"`
	ProductName  string `json:"productName"`
	ProductPrice int64  `json:"productPrice"`
	Quantity     int64  `json:"quantity"`
	SellerID     int64  `json:"sellerId"`
	SellerName   string `json:"sellerName"`
}

type CheckoutInfo struct {
	TotalAmount int64          `json:"totalAmount"`
	ShippingFee int64          `json:"shippingFee"`
	FinalAmount int64          `json:"finalAmount"`
	Items       []CheckoutItem `json:"items"`
}

// PreCheck は結済前の金額スナップショットを返す（/v2/orders/pre-check）。
func (u *CheckoutUsecase) PreCheck(ctx context.Context, userID int64, in PreCheckInput) (CheckoutInfo, error) {
	if userID <= 0 {
		return CheckoutInfo{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if len(in.CartItemIDs) > 0 && in.DirectItem != nil {
		return CheckoutInfo{}, NewHTTPError(http.StatusBadRequest, "invalid checkout mode")
	}
	if len(in.CartItemIDs) == 0 && in.DirectItem == nil {
		return CheckoutInfo{}, NewHTTPError(http.StatusBadRequest, "invalid checkout mode")
	}

	return u.buildSnapshot(ctx, u.cartRepo, u.cartItemRepo, u.productRepo, userID, in)
}

// PreCheckLegacy はACTIVEカート全体を対象にする（/v1/orders/pre-check）。
func (u *CheckoutUsecase) PreCheckLegacy(ctx context.Context, userID int64) (CheckoutInfo, error) {
	if userID <= 0 {
		return CheckoutInfo{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	cart, err := u.cartRepo.FindActiveByUserID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return CheckoutInfo{}, NewHTTPError(http.StatusBadRequest, "cart empty")
	}
	if err != nil {
		return CheckoutInfo{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	items, err := u.cartItemRepo.ListByCartID(ctx, cart.ID)
	if err != nil {
		return CheckoutInfo{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if len(items) == 0 {
		return CheckoutInfo{}, NewHTTPError(http.StatusBadRequest, "cart empty")
	}

	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return u.buildSnapshot(ctx, u.cartRepo, u.cartItemRepo, u.productRepo, userID, PreCheckInput{CartItemIDs: ids})
}

type PlaceOrderInput struct {
	AddressID      int64
	CartItemIDs    []int64
	DirectItem     *DirectOrderItem
	IdempotencyKey string
}

type PlaceOrderOutput struct {
	OrderID     string `json:"orderId"`
	OrderName   string `json:"orderName"`
	Status      string `json:"status"`
	TotalAmount int64  `json:"totalAmount"`
	ShippingFee int64  `json:"shippingFee"`
	FinalAmount int64  `json:"finalAmount"`
}

// PlaceOrder は注文を作成する（POST /v1/orders）。
// 手順は厳密に直列：住所確認 → 金額スナップショット → 在庫減算 →
// 注文＋明細＋決済レコード作成 → カート明細の削除。
// スナップショットより前に注文が作られることはない。
func (u *CheckoutUsecase) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (PlaceOrderOutput, error) {
	if userID <= 0 {
		return PlaceOrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.AddressID <= 0 {
		//住所未選択のまま送信された
		return PlaceOrderOutput{}, NewHTTPError(http.StatusBadRequest, "배송지를 선택해주세요.")
	}
	if len(in.CartItemIDs) > 0 && in.DirectItem != nil {
		return PlaceOrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid checkout mode")
	}
	if len(in.CartItemIDs) == 0 && in.DirectItem == nil {
		return PlaceOrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid checkout mode")
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" || len(key) > 255 {
		return PlaceOrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid idempotency_key")
	}

	var out PlaceOrderOutput
	var created bool

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 同じキーなら同じ結果（二重クリック・再送対策）
		existing, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, key)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if found {
			out = toPlaceOrderOutput(existing)
			return nil
		}

		//住所の存在＋所有チェック
		addr, err := r.Addresses().FindByID(ctx, in.AddressID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if addr.UserID != userID {
			return NewHTTPError(http.StatusForbidden, "forbidden")
		}

		//金額スナップショット（pre-checkと同一の計算）
		info, err := u.buildSnapshot(ctx, r.Carts(), r.CartItems(), r.Products(), userID, PreCheckInput{
			CartItemIDs: in.CartItemIDs,
			DirectItem:  in.DirectItem,
		})
		if err != nil {
			return err
		}

		//在庫を確定時に再チェックして減らす
		for _, it := range info.Items {
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, it.ProductID, it.Quantity)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !ok {
				return NewHTTPError(http.StatusBadRequest, "out of stock")
			}
		}

		now := u.clock.Now()
		orderID := u.idGen.NewID()

		order := model.Order{
			ID:             orderID,
			UserID:         userID,
			AddressID:      in.AddressID,
			OrderName:      buildOrderName(info.Items),
			Status:         model.OrderStatusPending,
			TotalAmount:    info.TotalAmount,
			ShippingFee:    info.ShippingFee,
			FinalAmount:    info.FinalAmount,
			IdempotencyKey: key,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := r.Orders().Create(ctx, order); err != nil {
			//競合（同時に同じキーが入った等）はもう一度検索して同じ結果を返す
			ex2, found2, err2 := r.Orders().FindByIdempotencyKey(ctx, userID, key)
			if err2 == nil && found2 {
				out = toPlaceOrderOutput(ex2)
				return nil
			}
			return NewHTTPError(http.StatusConflict, "idempotency conflict")
		}

		orderItems := make([]model.OrderItem, 0, len(info.Items))
		for _, it := range info.Items {
			orderItems = append(orderItems, model.OrderItem{
				OrderID:             orderID,
				ProductID:           it.ProductID,
				ProductNameSnapshot: it.ProductName,
				UnitPriceSnapshot:   it.ProductPrice,
				Quantity:            it.Quantity,
				SellerID:            it.SellerID,
				SellerNameSnapshot:  it.SellerName,
				Status:              model.OrderItemStatusOrdered,
				CreatedAt:           now,
			})
		}
		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//決済レコードはREADYで発行。検証時のラッチはこのレコードが担う
		if err := r.Payments().Create(ctx, model.Payment{
			OrderID:   orderID,
			Amount:    info.FinalAmount,
			Status:    model.PaymentStatusReady,
			CreatedAt: now,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//CARTモードは対象明細をカートから外す
		if len(in.CartItemIDs) > 0 {
			cart, err := r.Carts().FindActiveByUserID(ctx, userID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if _, err := r.CartItems().DeleteByIDs(ctx, cart.ID, in.CartItemIDs); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		out = toPlaceOrderOutput(order)
		created = true
		return nil
	})

	if err != nil {
		return PlaceOrderOutput{}, err
	}

	if out.OrderID == "" {
		//ここに来たら注文IDが払い出せていない。決済には進ませない
		return PlaceOrderOutput{}, NewHTTPError(http.StatusInternalServerError, "주문 생성에 실패했습니다.")
	}

	if created {
		if len(in.CartItemIDs) > 0 {
			u.cartCount.Invalidate(ctx, userID)
		}
		if err := u.publisher.Publish(ctx, OrderEvent{
			Type:    EventOrderCreated,
			OrderID: out.OrderID,
			UserID:  userID,
			Amount:  out.FinalAmount,
			At:      u.clock.Now(),
		}); err != nil {
			logger.Warn().Err(err).Str("order_id", out.OrderID).Msg("failed to publish order.created")
		}
	}

	return out, nil
}

// pre-checkと注文作成で共有する金額計算。
func (u *CheckoutUsecase) buildSnapshot(
	ctx context.Context,
	cartRepo repo.CartRepository,
	cartItemRepo repo.CartItemRepository,
	productRepo repo.ProductRepository,
	userID int64,
	in PreCheckInput,
) (CheckoutInfo, error) {
	items := make([]CheckoutItem, 0, len(in.CartItemIDs)+1)
	var total int64 = 0

	if in.DirectItem != nil {
		d := *in.DirectItem
		if d.ProductID <= 0 || d.Quantity < 1 {
			return CheckoutInfo{}, NewHTTPError(http.StatusBadRequest, "invalid")
		}

		p, err := productRepo.FindByID(ctx, d.ProductID)
		if errors.Is(err, repo.ErrNotFound) {
			return CheckoutInfo{}, NewHTTPError(http.StatusBadRequest, "invalid")
		}
		if err != nil {
			return CheckoutInfo{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !isPurchasable(p) {
			return CheckoutInfo{}, NewHTTPError(http.StatusBadRequest, "invalid")
		}
		if d.Quantity > p.Stock {
			return CheckoutInfo{}, NewHTTPError(http.StatusBadRequest, "out of stock")
		}

		items = append(items, CheckoutItem{
			ProductID:    p.ID,
			ProductName:  p.Name,
			ProductPrice: p.Price,
			Quantity:     d.Quantity,
			SellerID:     p.SellerID,
			SellerName:   p.SellerName,
		})
		total = p.Price * d.Quantity
	} else {
		cart, err := cartRepo.FindActiveByUserID(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return CheckoutInfo{}, NewHTTPError(http.StatusBadRequest, "cart empty")
		}
		if err != nil {
			return CheckoutInfo{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}

		cartItems, err := cartItemRepo.ListByIDs(ctx, cart.ID, in.CartItemIDs)
		if err != nil {
			return CheckoutInfo{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		//指定idのどれかが自分のカートに無い場合は弾く
		if len(cartItems) != len(in.CartItemIDs) {
			return CheckoutInfo{}, NewHTTPError(http.StatusNotFound, "not found")
		}

		for _, ci := range cartItems {
			p, err := productRepo.FindByID(ctx, ci.ProductID)
			if errors.Is(err, repo.ErrNotFound) {
				return CheckoutInfo{}, NewHTTPError(http.StatusBadRequest, "invalid")
			}
			if err != nil {
				return CheckoutInfo{}, NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !isPurchasable(p) {
				return CheckoutInfo{}, NewHTTPError(http.StatusBadRequest, "invalid")
			}

			id := ci.ID
			items = append(items, CheckoutItem{
				CartItemID:   &id,
				ProductID:    p.ID,
				ProductName:  p.Name,
				ProductPrice: ci.UnitPriceSnapshot,
				Quantity:     ci.Quantity,
				SellerID:     p.SellerID,
				SellerName:   p.SellerName,
			})
			total += ci.UnitPriceSnapshot * ci.Quantity
		}
	}

	fee := shippingFee
	if total >= freeShippingMin {
		fee = 0
	}

	return CheckoutInfo{
		TotalAmount: total,
		ShippingFee: fee,
		FinalAmount: total + fee,
		Items:       items,
	}, nil
}

func isPurchasable(p model.Product) bool {
	return p.IsActive && p.Status == model.ProductStatusApproved
}

// 決済画面に出す注文名。2件以上は「先頭商品名 외 N건」
func buildOrderName(items []CheckoutItem) string {
	if len(items) == 0 {
		return ""
	}
	if len(items) == 1 {
		return items[0].ProductName
	}
	return fmt.Sprintf("%s 외 %d건", items[0].ProductName, len(items)-1)
}

func toPlaceOrderOutput(o model.Order) PlaceOrderOutput {
	return PlaceOrderOutput{
		OrderID:     o.ID,
		OrderName:   o.OrderName,
		Status:      string(o.Status),
		TotalAmount: o.TotalAmount,
		ShippingFee: o.ShippingFee,
		FinalAmount: o.FinalAmount,
	}
}
