package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type SellerUsecase struct {
	sellerRepo repo.SellerRepository
}

func NewSellerUsecase(sellerRepo repo.SellerRepository) *SellerUsecase {
	return &SellerUsecase{sellerRepo: sellerRepo}
}

type ApplySellerInput struct {
	Name           string `json:"name"`
	BusinessNumber string `json:"businessNumber"`
}

// ApplySeller は販売者申請。審査待ち（PENDING）で登録される。
func (u *SellerUsecase) ApplySeller(ctx context.Context, userID int64, in ApplySellerInput) (SellerReviewDTO, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.BusinessNumber) == "" {
		return SellerReviewDTO{}, NewHTTPError(http.StatusBadRequest, "상호명과 사업자번호를 입력해주세요.")
	}

	if _, err := u.sellerRepo.FindByUserID(ctx, userID); err == nil {
		return SellerReviewDTO{}, NewHTTPError(http.StatusConflict, "이미 판매자 신청 이력이 있습니다.")
	} else if !errors.Is(err, repo.ErrNotFound) {
		return SellerReviewDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	created, err := u.sellerRepo.Create(ctx, model.Seller{
		UserID:         userID,
		Name:           strings.TrimSpace(in.Name),
		BusinessNumber: strings.TrimSpace(in.BusinessNumber),
		Status:         model.SellerStatusPending,
	})
	if err != nil {
		return SellerReviewDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return SellerReviewDTO{
		SellerID:       created.ID,
		UserID:         created.UserID,
		Name:           created.Name,
		BusinessNumber: created.BusinessNumber,
		Status:         string(created.Status),
	}, nil
}

// GetMySellerStatus は自分の申請状況の確認。
func (u *SellerUsecase) GetMySellerStatus(ctx context.Context, userID int64) (SellerReviewDTO, error) {
	seller, err := u.sellerRepo.FindByUserID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return SellerReviewDTO{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return SellerReviewDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return SellerReviewDTO{
		SellerID:       seller.ID,
		UserID:         seller.UserID,
		Name:           seller.Name,
		BusinessNumber: seller.BusinessNumber,
		Status:         string(seller.Status),
	}, nil
}
