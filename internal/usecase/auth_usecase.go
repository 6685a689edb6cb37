package usecase

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// accesstokenの有効期限
const accessTokenTTL = 15 * time.Minute

// refreshtokenの有効期限
const refreshTokenTTL = 14 * 24 * time.Hour

const bcryptCost = 12

// usecaseがValidatorInterfaceに依存する約束
type AuthValidator interface {
	ValidateJoin(ctx context.Context, email, password, nickname, phone string) error
	ValidateLogin(ctx context.Context, email, password string) error
}

// JWTの発行はmain側の実装に任せる
type TokenIssuer interface {
	Issue(userID int64, role model.Role, tokenVersion int, now time.Time) (string, time.Time, error)
}

type UserDTO struct {
	UserID   int64  `json:"userId"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

type JoinInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
	Phone    string `json:"phone"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginOutput struct {
	AccessToken  string  `json:"accessToken"`
	RefreshToken string  `json:"refreshToken"`
	ExpiresIn    int     `json:"expiresIn"`
	User         UserDTO `json:"user"`
}

type AuthUsecase struct {
	userRepo  repo.UserRepository
	rtRepo    repo.RefreshTokenRepository
	validator AuthValidator
	issuer    TokenIssuer
	idGen     IDGenerator
	clock     Clock
}

func NewAuthUsecase(
	userRepo repo.UserRepository,
	rtRepo repo.RefreshTokenRepository,
	validator AuthValidator,
	issuer TokenIssuer,
	idGen IDGenerator,
	clock Clock,
) *AuthUsecase {
	return &AuthUsecase{
		userRepo:  userRepo,
		rtRepo:    rtRepo,
		validator: validator,
		issuer:    issuer,
		idGen:     idGen,
		clock:     clock,
	}
}

// Join は会員登録（POST /v1/auth/join）。
func (u *AuthUsecase) Join(ctx context.Context, in JoinInput) (UserDTO, error) {
	if err := u.validator.ValidateJoin(ctx, in.Email, in.Password, in.Nickname, in.Phone); err != nil {
		return UserDTO{}, NewHTTPError(http.StatusBadRequest, err.Error())
	}

	for _, dup := range []struct {
		check func(context.Context, string) (bool, error)
		value string
		msg   string
	}{
		{u.userRepo.ExistsByEmail, in.Email, "이미 사용 중인 이메일입니다."},
		{u.userRepo.ExistsByNickname, in.Nickname, "이미 사용 중인 닉네임입니다."},
		{u.userRepo.ExistsByPhone, in.Phone, "이미 사용 중인 전화번호입니다."},
	} {
		exists, err := dup.check(ctx, dup.value)
		if err != nil {
			return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if exists {
			return UserDTO{}, NewHTTPError(http.StatusConflict, dup.msg)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	now := u.clock.Now()
	user := &model.User{
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: string(hash),
		Nickname:     strings.TrimSpace(in.Nickname),
		Phone:        strings.TrimSpace(in.Phone),
		Role:         model.RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.userRepo.Create(ctx, user); err != nil {
		return UserDTO{}, NewHTTPError(http.StatusConflict, "conflict")
	}

	return toUserDTO(user), nil
}

// Login はログイン。アクセストークン＋リフレッシュトークンを返す。
func (u *AuthUsecase) Login(ctx context.Context, in LoginInput) (LoginOutput, error) {
	if err := u.validator.ValidateLogin(ctx, in.Email, in.Password); err != nil {
		return LoginOutput{}, NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := u.userRepo.FindByEmail(ctx, strings.TrimSpace(in.Email))
	if err != nil {
		return LoginOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	//メール未登録とパスワード不一致は同じ401にする
	if user == nil || !user.IsActive {
		return LoginOutput{}, NewHTTPError(http.StatusUnauthorized, "이메일 또는 비밀번호가 올바르지 않습니다.")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)) != nil {
		return LoginOutput{}, NewHTTPError(http.StatusUnauthorized, "이메일 또는 비밀번호가 올바르지 않습니다.")
	}

	now := u.clock.Now()

	access, expiresAt, err := u.issuer.Issue(user.ID, user.Role, user.TokenVersion, now)
	if err != nil {
		return LoginOutput{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	refresh, err := u.issueRefreshToken(ctx, user.ID, now)
	if err != nil {
		return LoginOutput{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	last := now
	user.LastLoginAt = &last
	if err := u.userRepo.Update(ctx, user); err != nil {
		logger.Warn().Err(err).Int64("user_id", user.ID).Msg("failed to record last login")
	}

	return LoginOutput{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(expiresAt.Sub(now).Seconds()),
		User:         toUserDTO(user),
	}, nil
}

// Refresh はリフレッシュトークンの使い捨てローテーション。
// 使用済みトークンの再提示はセッション乗っ取りとみなして全失効。
func (u *AuthUsecase) Refresh(ctx context.Context, rawToken string) (LoginOutput, error) {
	raw := strings.TrimSpace(rawToken)
	if raw == "" {
		return LoginOutput{}, NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	stored, err := u.rtRepo.FindByTokenHash(ctx, hashToken(raw))
	if errors.Is(err, repo.ErrRefreshTokenNotFound) {
		return LoginOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err != nil {
		return LoginOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	now := u.clock.Now()

	if stored.RevokedAt != nil || now.After(stored.ExpiresAt) {
		return LoginOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if stored.UsedAt != nil {
		//再利用を検知。全トークン破棄
		if err := u.rtRepo.DeleteAllByUserID(ctx, stored.UserID); err != nil {
			logger.Error().Err(err).Int64("user_id", stored.UserID).Msg("failed to revoke sessions on token reuse")
		}
		return LoginOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	user, err := u.userRepo.FindByID(ctx, stored.UserID)
	if err != nil || user == nil || !user.IsActive {
		return LoginOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	if err := u.rtRepo.MarkUsed(ctx, stored.ID, now); err != nil {
		return LoginOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	access, expiresAt, err := u.issuer.Issue(user.ID, user.Role, user.TokenVersion, now)
	if err != nil {
		return LoginOutput{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	next, err := u.issueRefreshToken(ctx, user.ID, now)
	if err != nil {
		return LoginOutput{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return LoginOutput{
		AccessToken:  access,
		RefreshToken: next,
		ExpiresIn:    int(expiresAt.Sub(now).Seconds()),
		User:         toUserDTO(user),
	}, nil
}

// Logout はtoken_versionを上げて発行済みアクセストークンを失効させる。
func (u *AuthUsecase) Logout(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	if err := u.rtRepo.DeleteAllByUserID(ctx, userID); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if err := u.userRepo.IncrementTokenVersion(ctx, userID); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

type AvailabilityOutput struct {
	IsAvailable bool `json:"isAvailable"`
}

// CheckAvailability は会員登録フォームの重複チェック（GET /v1/auth/check/{field}）。
func (u *AuthUsecase) CheckAvailability(ctx context.Context, field string, value string) (AvailabilityOutput, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return AvailabilityOutput{}, NewHTTPError(http.StatusBadRequest, "invalid value")
	}

	var exists bool
	var err error

	switch field {
	case "email":
		exists, err = u.userRepo.ExistsByEmail(ctx, value)
	case "nickname":
		exists, err = u.userRepo.ExistsByNickname(ctx, value)
	case "phone":
		exists, err = u.userRepo.ExistsByPhone(ctx, value)
	default:
		return AvailabilityOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	if err != nil {
		return AvailabilityOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return AvailabilityOutput{IsAvailable: !exists}, nil
}

func (u *AuthUsecase) issueRefreshToken(ctx context.Context, userID int64, now time.Time) (string, error) {
	raw, err := randomToken()
	if err != nil {
		return "", err
	}

	if err := u.rtRepo.Create(ctx, &model.RefreshToken{
		ID:        u.idGen.NewID(),
		UserID:    userID,
		TokenHash: hashToken(raw),
		ExpiresAt: now.Add(refreshTokenTTL),
		CreatedAt: now,
	}); err != nil {
		return "", err
	}
	return raw, nil
}

// DBには平文を置かずsha256を保存する
func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func toUserDTO(u *model.User) UserDTO {
	return UserDTO{
		UserID:   u.ID,
		Email:    u.Email,
		Nickname: u.Nickname,
		Phone:    u.Phone,
		Role:     string(u.Role),
	}
}
