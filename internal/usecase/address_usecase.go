package usecase

import (
	"context"
	"errors"
	"net/http"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type AddressDTO struct {
	AddressID int64  `json:"addressId"`
	Receiver  string `json:"receiver"`
	Phone     string `json:"phone"`
	Zipcode   string `json:"zipcode"`
	Addr1     string `json:"addr1"`
	Addr2     string `json:"addr2"`
	IsDefault bool   `json:"isDefault"`
	CreatedAt string `json:"createdAt"`
}

type AddressCreateInput struct {
	Receiver string `json:"receiver"`
	Phone    string `json:"phone"`
	Zipcode  string `json:"zipcode"`
	Addr1    string `json:"addr1"`
	Addr2    string `json:"addr2"`
}

type AddressUpdateInput = AddressCreateInput

type AddressUsecase struct {
	addresses repo.AddressRepository
	clock     Clock
}

func NewAddressUsecase(addresses repo.AddressRepository, clock Clock) *AddressUsecase {
	return &AddressUsecase{addresses: addresses, clock: clock}
}

func (u *AddressUsecase) List(ctx context.Context, userID int64) ([]AddressDTO, error) {
	if userID <= 0 {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	list, err := u.addresses.ListByUserID(ctx, userID)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	out := make([]AddressDTO, 0, len(list))
	for i := range list {
		out = append(out, toAddressDTO(&list[i]))
	}
	return out, nil
}

func (u *AddressUsecase) Create(ctx context.Context, userID int64, in AddressCreateInput) (AddressDTO, error) {
	if userID <= 0 {
		return AddressDTO{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	//入力チェック
	if in.Receiver == "" || in.Phone == "" || in.Zipcode == "" || in.Addr1 == "" {
		return AddressDTO{}, NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	now := u.clock.Now()

	//はじめての住所は自動でデフォルトにする
	isDefault := false
	if _, err := u.addresses.FindDefaultByUserID(ctx, userID); errors.Is(err, repo.ErrNotFound) {
		isDefault = true
	}

	created, err := u.addresses.Create(ctx, model.Address{
		UserID:    userID,
		Receiver:  in.Receiver,
		Phone:     in.Phone,
		Zipcode:   in.Zipcode,
		Addr1:     in.Addr1,
		Addr2:     in.Addr2,
		IsDefault: isDefault,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return AddressDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return toAddressDTO(&created), nil
}

func (u *AddressUsecase) Update(ctx context.Context, userID int64, addressID int64, in AddressUpdateInput) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if addressID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := u.mustOwn(ctx, userID, addressID); err != nil {
		return err
	}

	if err := u.addresses.Update(ctx, model.Address{
		ID:        addressID,
		UserID:    userID,
		Receiver:  in.Receiver,
		Phone:     in.Phone,
		Zipcode:   in.Zipcode,
		Addr1:     in.Addr1,
		Addr2:     in.Addr2,
		UpdatedAt: u.clock.Now(),
	}); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *AddressUsecase) Delete(ctx context.Context, userID int64, addressID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if addressID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := u.mustOwn(ctx, userID, addressID); err != nil {
		return err
	}

	if err := u.addresses.Delete(ctx, addressID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		//注文が参照中などで削除できない
		return NewHTTPError(http.StatusConflict, "conflict")
	}
	return nil
}

func (u *AddressUsecase) SetDefault(ctx context.Context, userID int64, addressID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if addressID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := u.mustOwn(ctx, userID, addressID); err != nil {
		return err
	}

	//user内でdefaultは1つ
	if err := u.addresses.SetDefault(ctx, userID, addressID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *AddressUsecase) mustOwn(ctx context.Context, userID, addressID int64) error {
	owned, err := u.addresses.IsOwnedByUser(ctx, addressID, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !owned {
		return NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return nil
}

func toAddressDTO(a *model.Address) AddressDTO {
	return AddressDTO{
		AddressID: a.ID,
		Receiver:  a.Receiver,
		Phone:     a.Phone,
		Zipcode:   a.Zipcode,
		Addr1:     a.Addr1,
		Addr2:     a.Addr2,
		IsDefault: a.IsDefault,
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
	}
}
