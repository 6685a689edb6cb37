package usecase

import (
	"context"
	"errors"
	"net/http"

	repo "storefront/internal/repository"
)

// カートバッジ件数のキャッシュ。変更系は必ずInvalidateする。
// 件数を楽観更新で先回りすることはしない（次回取得でDBから読み直す）。
type CartCountCache interface {
	Get(ctx context.Context, userID int64) (int64, bool)
	Set(ctx context.Context, userID int64, count int64)
	Invalidate(ctx context.Context, userID int64)
}

// CartUsecase は /v1/cart/me の業務ロジック。
type CartUsecase struct {
	cartRepo     repo.CartRepository
	cartItemRepo repo.CartItemRepository
	productRepo  repo.ProductRepository
	countCache   CartCountCache
}

func NewCartUsecase(
	cartRepo repo.CartRepository,
	cartItemRepo repo.CartItemRepository,
	productRepo repo.ProductRepository,
	countCache CartCountCache,
) *CartUsecase {
	return &CartUsecase{
		cartRepo:     cartRepo,
		cartItemRepo: cartItemRepo,
		productRepo:  productRepo,
		countCache:   countCache,
	}
}

type CartItemResponse struct {
	CartItemID   int64  `json:"cartItemId"`
	ProductID    int64  `json:"productId"`
	ProductName  string `json:"productName"`
	ProductPrice int64  `json:"productPrice"`
	ImageURL     string `json:"imageUrl"`
	Quantity     int64  `json:"quantity"`
}

// 販売者単位のグループ。最後の明細が消えたグループは一覧から消える
type CartSellerGroup struct {
	SellerID   int64              `json:"sellerId"`
	SellerName string             `json:"sellerName"`
	Items      []CartItemResponse `json:"items"`
}

type CartResponse struct {
	Groups []CartSellerGroup `json:"groups"`
	Total  int64             `json:"total"`
}

type AddCartItemInput struct {
	ProductID int64
	Quantity  int64
}

type UpdateCartItemInput struct {
	Quantity int64
}

type CartCountResponse struct {
	Count int64 `json:"count"`
}

// GetCart はカートを販売者単位にまとめて返す（無ければACTIVEを作って空を返す）。
func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	cart, err := u.cartRepo.GetOrCreateActiveByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.buildCartResponse(ctx, cart.ID)
}

// GetCount はバッジ表示用の明細件数。キャッシュが温かければDBを見ない。
func (u *CartUsecase) GetCount(ctx context.Context, userID int64) (CartCountResponse, error) {
	if userID <= 0 {
		return CartCountResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	if n, ok := u.countCache.Get(ctx, userID); ok {
		return CartCountResponse{Count: n}, nil
	}

	n, err := u.cartRepo.CountItemsByUserID(ctx, userID)
	if err != nil {
		return CartCountResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.countCache.Set(ctx, userID, n)
	return CartCountResponse{Count: n}, nil
}

// AddItem はカートに追加（同一商品は数量加算）。
func (u *CartUsecase) AddItem(ctx context.Context, userID int64, in AddCartItemInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.ProductID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	cart, err := u.cartRepo.GetOrCreateActiveByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	p, err := u.productRepo.FindByID(ctx, in.ProductID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !isPurchasable(p) {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid")
	}

	//既存数量と合わせて在庫を超えないか
	items, err := u.cartItemRepo.ListByCartID(ctx, cart.ID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	var existingQty int64 = 0
	for _, it := range items {
		if it.ProductID == in.ProductID {
			existingQty = it.Quantity
			break
		}
	}
	if existingQty+in.Quantity > p.Stock {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "stock exceeded")
	}

	//unit_price_snapshotは「追加時点の価格」
	if err := u.cartItemRepo.UpsertByCartAndProduct(ctx, cart.ID, in.ProductID, in.Quantity, p.Price); err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.countCache.Invalidate(ctx, userID)
	return u.buildCartResponse(ctx, cart.ID)
}

// UpdateItem は数量変更（所有チェック＋在庫チェック）。
// 途中で失敗した場合、保存済みの数量は一切変わらない。
func (u *CartUsecase) UpdateItem(ctx context.Context, userID int64, cartItemID int64, in UpdateCartItemInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if cartItemID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	owned, err := u.cartItemRepo.IsOwnedByUser(ctx, cartItemID, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !owned {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	item, err := u.cartItemRepo.FindByID(ctx, cartItemID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	p, err := u.productRepo.FindByID(ctx, item.ProductID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !isPurchasable(p) {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid")
	}
	if in.Quantity > p.Stock {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "stock exceeded")
	}

	if err := u.cartItemRepo.UpdateQuantity(ctx, cartItemID, in.Quantity); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.countCache.Invalidate(ctx, userID)

	cart, err := u.cartRepo.FindActiveByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return u.buildCartResponse(ctx, cart.ID)
}

// DeleteItems は明細の一括削除。
func (u *CartUsecase) DeleteItems(ctx context.Context, userID int64, cartItemIDs []int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if len(cartItemIDs) == 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	cart, err := u.cartRepo.FindActiveByUserID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	deleted, err := u.cartItemRepo.DeleteByIDs(ctx, cart.ID, cartItemIDs)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if deleted == 0 {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	u.countCache.Invalidate(ctx, userID)
	return u.buildCartResponse(ctx, cart.ID)
}

// cartIDの明細を販売者単位にまとめる。
func (u *CartUsecase) buildCartResponse(ctx context.Context, cartID int64) (CartResponse, error) {
	items, err := u.cartItemRepo.ListByCartID(ctx, cartID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	groups := make([]CartSellerGroup, 0)
	index := map[int64]int{}
	var total int64 = 0

	for _, it := range items {
		p, err := u.productRepo.FindByID(ctx, it.ProductID)
		//削除済み・非公開の商品だけ一覧から外す。DB障害は件数を欠落させず失敗にする
		if errors.Is(err, repo.ErrNotFound) {
			continue
		}
		if err != nil {
			return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !p.IsActive {
			continue
		}

		resp := CartItemResponse{
			CartItemID:   it.ID,
			ProductID:    it.ProductID,
			ProductName:  p.Name,
			ProductPrice: it.UnitPriceSnapshot,
			ImageURL:     p.ImageURL,
			Quantity:     it.Quantity,
		}

		gi, ok := index[p.SellerID]
		if !ok {
			groups = append(groups, CartSellerGroup{
				SellerID:   p.SellerID,
				SellerName: p.SellerName,
				Items:      []CartItemResponse{},
			})
			gi = len(groups) - 1
			index[p.SellerID] = gi
		}
		groups[gi].Items = append(groups[gi].Items, resp)

		total += it.UnitPriceSnapshot * it.Quantity
	}

	return CartResponse{Groups: groups, Total: total}, nil
}
