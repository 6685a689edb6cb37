package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type ProductUsecase struct {
	productRepo  repo.ProductRepository
	sellerRepo   repo.SellerRepository
	categoryRepo repo.CategoryRepository
}

func NewProductUsecase(productRepo repo.ProductRepository, sellerRepo repo.SellerRepository, categoryRepo repo.CategoryRepository) *ProductUsecase {
	return &ProductUsecase{productRepo: productRepo, sellerRepo: sellerRepo, categoryRepo: categoryRepo}
}

// GET /v1/products の入力
type ListProductsInput struct {
	Page     int
	Limit    int
	Q        string
	MinPrice *int64
	MaxPrice *int64
	Sort     string
}

type ProductDTO struct {
	ProductID   int64  `json:"productId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"imageUrl"`
	Price       int64  `json:"price"`
	Stock       int64  `json:"stock"`
	SellerID    int64  `json:"sellerId"`
	SellerName  string `json:"sellerName"`
}

type ProductListOutput struct {
	Items []ProductDTO `json:"items"`
	Total int64        `json:"total"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
}

func (u *ProductUsecase) ListPublicProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page <= 0 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit <= 0 || in.Limit > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	items, total, err := u.productRepo.ListPublic(ctx, repo.ProductListQuery{
		Page:     in.Page,
		Limit:    in.Limit,
		Q:        strings.TrimSpace(in.Q),
		MinPrice: in.MinPrice,
		MaxPrice: in.MaxPrice,
		Sort:     in.Sort,
	})
	if err != nil {
		return ProductListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	out := ProductListOutput{
		Items: make([]ProductDTO, 0, len(items)),
		Total: total,
		Page:  in.Page,
		Limit: in.Limit,
	}
	for i := range items {
		out.Items = append(out.Items, toProductDTO(&items[i]))
	}
	return out, nil
}

func (u *ProductUsecase) GetPublicProduct(ctx context.Context, productID int64) (ProductDTO, error) {
	if productID <= 0 {
		return ProductDTO{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return ProductDTO{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return ProductDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	//非公開は存在しない扱い
	if !isPurchasable(p) {
		return ProductDTO{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	return toProductDTO(&p), nil
}

type CategoryDTO struct {
	CategoryID int64  `json:"categoryId"`
	Name       string `json:"name"`
}

// GET /v1/categories
func (u *ProductUsecase) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	categories, err := u.categoryRepo.ListAll(ctx)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	out := make([]CategoryDTO, 0, len(categories))
	for _, c := range categories {
		out = append(out, CategoryDTO{CategoryID: c.ID, Name: c.Name})
	}
	return out, nil
}

type SellerProductInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	Price       int64  `json:"price"`
	Stock       int64  `json:"stock"`
}

// CreateSellerProduct は販売者の商品登録。審査待ち（PENDING）で作られる。
func (u *ProductUsecase) CreateSellerProduct(ctx context.Context, userID int64, in SellerProductInput) (ProductDTO, error) {
	seller, err := u.mustApprovedSeller(ctx, userID)
	if err != nil {
		return ProductDTO{}, err
	}

	if strings.TrimSpace(in.Name) == "" || in.Price <= 0 || in.Stock < 0 {
		return ProductDTO{}, NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	created, err := u.productRepo.Create(ctx, model.Product{
		SellerID:    seller.ID,
		SellerName:  seller.Name,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		ImageURL:    in.ImageURL,
		Price:       in.Price,
		Stock:       in.Stock,
		Status:      model.ProductStatusPending,
		IsActive:    false,
	})
	if err != nil {
		return ProductDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toProductDTO(&created), nil
}

// UpdateSellerProduct は自分の商品の更新。
func (u *ProductUsecase) UpdateSellerProduct(ctx context.Context, userID int64, productID int64, in SellerProductInput) (ProductDTO, error) {
	seller, err := u.mustApprovedSeller(ctx, userID)
	if err != nil {
		return ProductDTO{}, err
	}
	if productID <= 0 {
		return ProductDTO{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return ProductDTO{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return ProductDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if p.SellerID != seller.ID {
		return ProductDTO{}, NewHTTPError(http.StatusForbidden, "forbidden")
	}

	if strings.TrimSpace(in.Name) != "" {
		p.Name = strings.TrimSpace(in.Name)
	}
	if in.Description != "" {
		p.Description = in.Description
	}
	if in.ImageURL != "" {
		p.ImageURL = in.ImageURL
	}
	if in.Price > 0 {
		p.Price = in.Price
	}
	if in.Stock >= 0 {
		p.Stock = in.Stock
	}

	if err := u.productRepo.Update(ctx, p); err != nil {
		return ProductDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toProductDTO(&p), nil
}

func (u *ProductUsecase) mustApprovedSeller(ctx context.Context, userID int64) (model.Seller, error) {
	if userID <= 0 {
		return model.Seller{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	seller, err := u.sellerRepo.FindByUserID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Seller{}, NewHTTPError(http.StatusForbidden, "forbidden")
	}
	if err != nil {
		return model.Seller{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if seller.Status != model.SellerStatusApproved {
		return model.Seller{}, NewHTTPError(http.StatusForbidden, "승인되지 않은 판매자입니다.")
	}
	return seller, nil
}

func toProductDTO(p *model.Product) ProductDTO {
	return ProductDTO{
		ProductID:   p.ID,
		Name:        p.Name,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		Price:       p.Price,
		Stock:       p.Stock,
		SellerID:    p.SellerID,
		SellerName:  p.SellerName,
	}
}
