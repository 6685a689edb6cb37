package usecase_test

import (
	"context"
	"testing"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newProductFixture() (*ProductRepoMock, *SellerRepoMock, *CategoryRepoMock, *usecase.ProductUsecase) {
	products := new(ProductRepoMock)
	sellers := new(SellerRepoMock)
	categories := new(CategoryRepoMock)
	uc := usecase.NewProductUsecase(products, sellers, categories)
	return products, sellers, categories, uc
}

func approvedSeller(id, userID int64) model.Seller {
	return model.Seller{
		ID:             id,
		UserID:         userID,
		Name:           "좋은가게",
		BusinessNumber: "123-45-67890",
		Status:         model.SellerStatusApproved,
	}
}

// =====================
// 公開商品
// =====================

func TestProductUsecase_ListPublicProducts_InvalidPaging(t *testing.T) {
	products, _, _, uc := newProductFixture()
	ctx := context.Background()

	_, err := uc.ListPublicProducts(ctx, usecase.ListProductsInput{Page: 0, Limit: 20})
	assertErrContains(t, err, "invalid page")

	_, err = uc.ListPublicProducts(ctx, usecase.ListProductsInput{Page: 1, Limit: 101})
	assertErrContains(t, err, "invalid limit")

	products.AssertNotCalled(t, "ListPublic", mock.Anything, mock.Anything)
}

func TestProductUsecase_ListPublicProducts_Success(t *testing.T) {
	products, _, _, uc := newProductFixture()
	ctx := context.Background()

	products.On("ListPublic", ctx, repo.ProductListQuery{Page: 1, Limit: 20, Q: "키보드"}).
		Return([]model.Product{
			approvedProduct(10, 45000, 5),
		}, int64(1), nil)

	out, err := uc.ListPublicProducts(ctx, usecase.ListProductsInput{Page: 1, Limit: 20, Q: "  키보드  "})

	assert.NoError(t, err)
	assert.Equal(t, int64(1), out.Total)
	assert.Len(t, out.Items, 1)
	assert.Equal(t, int64(10), out.Items[0].ProductID)
	assert.Equal(t, "좋은가게", out.Items[0].SellerName)
}

func TestProductUsecase_GetPublicProduct_HiddenIsNotFound(t *testing.T) {
	products, _, _, uc := newProductFixture()
	ctx := context.Background()

	p := approvedProduct(10, 45000, 5)
	p.IsActive = false
	products.On("FindByID", ctx, int64(10)).Return(p, nil)

	_, err := uc.GetPublicProduct(ctx, 10)

	assertErrContains(t, err, "not found")
}

// =====================
// カテゴリ
// =====================

func TestProductUsecase_ListCategories_Success(t *testing.T) {
	_, _, categories, uc := newProductFixture()
	ctx := context.Background()

	categories.On("ListAll", ctx).Return([]model.Category{
		{ID: 1, Name: "저염 장아찌/김치"},
		{ID: 2, Name: "무설탕 건강즙/음료"},
	}, nil)

	out, err := uc.ListCategories(ctx)
	assert.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Equal(t, int64(1), out[0].CategoryID)
	assert.Equal(t, "저염 장아찌/김치", out[0].Name)
}

// カテゴリ未登録でもnullではなく空配列を返す
func TestProductUsecase_ListCategories_Empty(t *testing.T) {
	_, _, categories, uc := newProductFixture()
	ctx := context.Background()

	categories.On("ListAll", ctx).Return([]model.Category{}, nil)

	out, err := uc.ListCategories(ctx)
	assert.NoError(t, err)
	assert.NotNil(t, out)
	assert.Len(t, out, 0)
}

// =====================
// 販売者商品
// =====================

func TestProductUsecase_CreateSellerProduct_NotApprovedSeller(t *testing.T) {
	products, sellers, _, uc := newProductFixture()
	ctx := context.Background()

	s := approvedSeller(7, 1)
	s.Status = model.SellerStatusPending
	sellers.On("FindByUserID", ctx, int64(1)).Return(s, nil)

	_, err := uc.CreateSellerProduct(ctx, 1, usecase.SellerProductInput{Name: "키보드", Price: 45000})

	assertErrContains(t, err, "승인되지 않은 판매자입니다.")
	products.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProductUsecase_CreateSellerProduct_NoSellerRecord_Forbidden(t *testing.T) {
	_, sellers, _, uc := newProductFixture()
	ctx := context.Background()

	sellers.On("FindByUserID", ctx, int64(1)).Return(model.Seller{}, repo.ErrNotFound)

	_, err := uc.CreateSellerProduct(ctx, 1, usecase.SellerProductInput{Name: "키보드", Price: 45000})

	assertErrContains(t, err, "forbidden")
}

func TestProductUsecase_CreateSellerProduct_StartsPendingInactive(t *testing.T) {
	products, sellers, _, uc := newProductFixture()
	ctx := context.Background()

	sellers.On("FindByUserID", ctx, int64(1)).Return(approvedSeller(7, 1), nil)
	products.On("Create", ctx, mock.MatchedBy(func(p model.Product) bool {
		return p.SellerID == int64(7) &&
			p.SellerName == "좋은가게" &&
			p.Name == "키보드" &&
			p.Status == model.ProductStatusPending &&
			!p.IsActive
	})).Return(model.Product{ID: 10, SellerID: 7, SellerName: "좋은가게", Name: "키보드", Price: 45000, Stock: 5, Status: model.ProductStatusPending}, nil)

	out, err := uc.CreateSellerProduct(ctx, 1, usecase.SellerProductInput{Name: " 키보드 ", Price: 45000, Stock: 5})

	assert.NoError(t, err)
	assert.Equal(t, int64(10), out.ProductID)
	products.AssertExpectations(t)
}

func TestProductUsecase_CreateSellerProduct_InvalidBody(t *testing.T) {
	products, sellers, _, uc := newProductFixture()
	ctx := context.Background()

	sellers.On("FindByUserID", ctx, int64(1)).Return(approvedSeller(7, 1), nil)

	_, err := uc.CreateSellerProduct(ctx, 1, usecase.SellerProductInput{Name: "키보드", Price: 0})

	assertErrContains(t, err, "invalid body")
	products.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProductUsecase_UpdateSellerProduct_ForeignProduct_Forbidden(t *testing.T) {
	products, sellers, _, uc := newProductFixture()
	ctx := context.Background()

	sellers.On("FindByUserID", ctx, int64(1)).Return(approvedSeller(7, 1), nil)
	other := approvedProduct(10, 45000, 5)
	other.SellerID = 99
	products.On("FindByID", ctx, int64(10)).Return(other, nil)

	_, err := uc.UpdateSellerProduct(ctx, 1, 10, usecase.SellerProductInput{Price: 50000})

	assertErrContains(t, err, "forbidden")
	products.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestProductUsecase_UpdateSellerProduct_PartialUpdate(t *testing.T) {
	products, sellers, _, uc := newProductFixture()
	ctx := context.Background()

	sellers.On("FindByUserID", ctx, int64(1)).Return(approvedSeller(7, 1), nil)
	products.On("FindByID", ctx, int64(10)).Return(approvedProduct(10, 45000, 5), nil)
	products.On("Update", ctx, mock.MatchedBy(func(p model.Product) bool {
		// 名前は維持され、価格と在庫だけ変わる
		return p.Name == "상품" && p.Price == int64(50000) && p.Stock == int64(3)
	})).Return(nil)

	out, err := uc.UpdateSellerProduct(ctx, 1, 10, usecase.SellerProductInput{Price: 50000, Stock: 3})

	assert.NoError(t, err)
	assert.Equal(t, int64(50000), out.Price)
	products.AssertExpectations(t)
}
