package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// UserUsecase は /v1/users/me の業務ロジック（プロフィール＋a11y設定）。
type UserUsecase struct {
	userRepo repo.UserRepository
	a11yRepo repo.A11yRepository
	rtRepo   repo.RefreshTokenRepository
	clock    Clock
}

func NewUserUsecase(
	userRepo repo.UserRepository,
	a11yRepo repo.A11yRepository,
	rtRepo repo.RefreshTokenRepository,
	clock Clock,
) *UserUsecase {
	return &UserUsecase{userRepo: userRepo, a11yRepo: a11yRepo, rtRepo: rtRepo, clock: clock}
}

func (u *UserUsecase) GetProfile(ctx context.Context, userID int64) (UserDTO, error) {
	if userID <= 0 {
		return UserDTO{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	user, err := u.userRepo.FindByID(ctx, userID)
	if err != nil {
		return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if user == nil || !user.IsActive {
		return UserDTO{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	return toUserDTO(user), nil
}

type UpdateProfileInput struct {
	Nickname *string `json:"nickname"`
	Phone    *string `json:"phone"`
}

func (u *UserUsecase) UpdateProfile(ctx context.Context, userID int64, in UpdateProfileInput) (UserDTO, error) {
	if userID <= 0 {
		return UserDTO{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	user, err := u.userRepo.FindByID(ctx, userID)
	if err != nil {
		return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if user == nil || !user.IsActive {
		return UserDTO{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	if in.Nickname != nil {
		nickname := strings.TrimSpace(*in.Nickname)
		if nickname == "" {
			return UserDTO{}, NewHTTPError(http.StatusBadRequest, "invalid nickname")
		}
		if nickname != user.Nickname {
			exists, err := u.userRepo.ExistsByNickname(ctx, nickname)
			if err != nil {
				return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if exists {
				return UserDTO{}, NewHTTPError(http.StatusConflict, "이미 사용 중인 닉네임입니다.")
			}
			user.Nickname = nickname
		}
	}

	if in.Phone != nil {
		phone := strings.TrimSpace(*in.Phone)
		if phone != "" && phone != user.Phone {
			exists, err := u.userRepo.ExistsByPhone(ctx, phone)
			if err != nil {
				return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if exists {
				return UserDTO{}, NewHTTPError(http.StatusConflict, "이미 사용 중인 전화번호입니다.")
			}
			user.Phone = phone
		}
	}

	user.UpdatedAt = u.clock.Now()
	if err := u.userRepo.Update(ctx, user); err != nil {
		return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return toUserDTO(user), nil
}

// Withdraw は退会。パスワード再確認のうえsoft delete、セッションは全破棄。
func (u *UserUsecase) Withdraw(ctx context.Context, userID int64, password string) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if password == "" {
		return NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := u.userRepo.FindByID(ctx, userID)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if user == nil || !user.IsActive {
		return NewHTTPError(http.StatusNotFound, "not found")
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return NewHTTPError(http.StatusForbidden, "비밀번호가 올바르지 않습니다.")
	}

	if err := u.userRepo.Deactivate(ctx, userID); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if err := u.rtRepo.DeleteAllByUserID(ctx, userID); err != nil {
		logger.Warn().Err(err).Int64("user_id", userID).Msg("failed to revoke sessions on withdraw")
	}
	if err := u.userRepo.IncrementTokenVersion(ctx, userID); err != nil {
		logger.Warn().Err(err).Int64("user_id", userID).Msg("failed to bump token version on withdraw")
	}
	return nil
}

type A11ySettingsDTO struct {
	FontScale         int  `json:"fontScale"`
	HighContrast      bool `json:"highContrast"`
	ReduceMotion      bool `json:"reduceMotion"`
	ScreenReaderHints bool `json:"screenReaderHints"`
}

// GetA11ySettings は保存済み設定を返す（未保存ならデフォルト）。
func (u *UserUsecase) GetA11ySettings(ctx context.Context, userID int64) (A11ySettingsDTO, error) {
	if userID <= 0 {
		return A11ySettingsDTO{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	s, err := u.a11yRepo.FindByUserID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return A11ySettingsDTO{FontScale: 100}, nil
	}
	if err != nil {
		return A11ySettingsDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return A11ySettingsDTO{
		FontScale:         s.FontScale,
		HighContrast:      s.HighContrast,
		ReduceMotion:      s.ReduceMotion,
		ScreenReaderHints: s.ScreenReaderHints,
	}, nil
}

// UpdateA11ySettings は設定の保存（PUT /v1/users/me/a11y）。
func (u *UserUsecase) UpdateA11ySettings(ctx context.Context, userID int64, in A11ySettingsDTO) (A11ySettingsDTO, error) {
	if userID <= 0 {
		return A11ySettingsDTO{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.FontScale < 50 || in.FontScale > 300 {
		return A11ySettingsDTO{}, NewHTTPError(http.StatusBadRequest, "invalid fontScale")
	}

	if err := u.a11yRepo.Upsert(ctx, model.A11ySettings{
		UserID:            userID,
		FontScale:         in.FontScale,
		HighContrast:      in.HighContrast,
		ReduceMotion:      in.ReduceMotion,
		ScreenReaderHints: in.ScreenReaderHints,
		UpdatedAt:         u.clock.Now(),
	}); err != nil {
		return A11ySettingsDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return in, nil
}
