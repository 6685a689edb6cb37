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
	"golang.org/x/crypto/bcrypt"
)

func newAuthFixture() (
	*UserRepoMock,
	*RefreshTokenRepoMock,
	*ValidatorMock,
	*IssuerMock,
	*usecase.AuthUsecase,
	time.Time,
) {
	users := new(UserRepoMock)
	rts := new(RefreshTokenRepoMock)
	val := new(ValidatorMock)
	issuer := new(IssuerMock)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	uc := usecase.NewAuthUsecase(users, rts, val, issuer, &fixedIDGen{id: "rt-uuid-1"}, &fixedClock{now: now})
	return users, rts, val, issuer, uc, now
}

func activeUser(id int64, passwordHash string) *model.User {
	return &model.User{
		ID:           id,
		Email:        "user@example.com",
		PasswordHash: passwordHash,
		Nickname:     "홍길동",
		Phone:        "010-1234-5678",
		Role:         model.RoleUser,
		TokenVersion: 3,
		IsActive:     true,
	}
}

// =====================
// Join
// =====================

func TestAuthUsecase_Join_DuplicateEmail(t *testing.T) {
	users, _, val, _, uc, _ := newAuthFixture()
	ctx := context.Background()

	val.On("ValidateJoin", ctx, "user@example.com", "password123!", "홍길동", "010-1234-5678").Return(nil)
	users.On("ExistsByEmail", ctx, "user@example.com").Return(true, nil)

	_, err := uc.Join(ctx, usecase.JoinInput{
		Email:    "user@example.com",
		Password: "password123!",
		Nickname: "홍길동",
		Phone:    "010-1234-5678",
	})

	assertErrContains(t, err, "이미 사용 중인 이메일입니다.")
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthUsecase_Join_DuplicateNickname(t *testing.T) {
	users, _, val, _, uc, _ := newAuthFixture()
	ctx := context.Background()

	val.On("ValidateJoin", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	users.On("ExistsByEmail", ctx, "user@example.com").Return(false, nil)
	users.On("ExistsByNickname", ctx, "홍길동").Return(true, nil)

	_, err := uc.Join(ctx, usecase.JoinInput{
		Email:    "user@example.com",
		Password: "password123!",
		Nickname: "홍길동",
		Phone:    "010-1234-5678",
	})

	assertErrContains(t, err, "이미 사용 중인 닉네임입니다.")
}

func TestAuthUsecase_Join_DuplicatePhone(t *testing.T) {
	users, _, val, _, uc, _ := newAuthFixture()
	ctx := context.Background()

	val.On("ValidateJoin", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	users.On("ExistsByEmail", ctx, mock.Anything).Return(false, nil)
	users.On("ExistsByNickname", ctx, mock.Anything).Return(false, nil)
	users.On("ExistsByPhone", ctx, "010-1234-5678").Return(true, nil)

	_, err := uc.Join(ctx, usecase.JoinInput{
		Email:    "user@example.com",
		Password: "password123!",
		Nickname: "홍길동",
		Phone:    "010-1234-5678",
	})

	assertErrContains(t, err, "이미 사용 중인 전화번호입니다.")
}

func TestAuthUsecase_Join_ValidationError(t *testing.T) {
	users, _, val, _, uc, _ := newAuthFixture()
	ctx := context.Background()

	val.On("ValidateJoin", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(assert.AnError)

	_, err := uc.Join(ctx, usecase.JoinInput{Email: "bad"})

	assert.Error(t, err)
	users.AssertNotCalled(t, "ExistsByEmail", mock.Anything, mock.Anything)
}

func TestAuthUsecase_Join_Success(t *testing.T) {
	users, _, val, _, uc, _ := newAuthFixture()
	ctx := context.Background()

	val.On("ValidateJoin", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	users.On("ExistsByEmail", ctx, mock.Anything).Return(false, nil)
	users.On("ExistsByNickname", ctx, mock.Anything).Return(false, nil)
	users.On("ExistsByPhone", ctx, mock.Anything).Return(false, nil)
	users.On("Create", ctx, mock.MatchedBy(func(u *model.User) bool {
		// 平文パスワードを保存しないこと
		return u.Email == "user@example.com" &&
			u.Role == model.RoleUser &&
			u.IsActive &&
			u.PasswordHash != "" &&
			u.PasswordHash != "password123!"
	})).Return(nil)

	out, err := uc.Join(ctx, usecase.JoinInput{
		Email:    "user@example.com",
		Password: "password123!",
		Nickname: "홍길동",
		Phone:    "010-1234-5678",
	})

	assert.NoError(t, err)
	assert.Equal(t, "user@example.com", out.Email)
	assert.Equal(t, string(model.RoleUser), out.Role)
	users.AssertExpectations(t)
}

// =====================
// Login
// =====================

func TestAuthUsecase_Login_WrongPassword_SameMessageAsUnknownEmail(t *testing.T) {
	users, _, val, _, uc, _ := newAuthFixture()
	ctx := context.Background()

	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.MinCost)
	val.On("ValidateLogin", ctx, mock.Anything, mock.Anything).Return(nil)
	users.On("FindByEmail", ctx, "user@example.com").Return(activeUser(1, string(hash)), nil)

	_, err := uc.Login(ctx, usecase.LoginInput{Email: "user@example.com", Password: "wrong-password"})

	assertErrContains(t, err, "이메일 또는 비밀번호가 올바르지 않습니다.")
}

func TestAuthUsecase_Login_UnknownEmail(t *testing.T) {
	users, _, val, issuer, uc, _ := newAuthFixture()
	ctx := context.Background()

	val.On("ValidateLogin", ctx, mock.Anything, mock.Anything).Return(nil)
	users.On("FindByEmail", ctx, "nobody@example.com").Return(nil, nil)

	_, err := uc.Login(ctx, usecase.LoginInput{Email: "nobody@example.com", Password: "whatever1!"})

	assertErrContains(t, err, "이메일 또는 비밀번호가 올바르지 않습니다.")
	issuer.AssertNotCalled(t, "Issue", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthUsecase_Login_DeactivatedUser(t *testing.T) {
	users, _, val, _, uc, _ := newAuthFixture()
	ctx := context.Background()

	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.MinCost)
	u := activeUser(1, string(hash))
	u.IsActive = false

	val.On("ValidateLogin", ctx, mock.Anything, mock.Anything).Return(nil)
	users.On("FindByEmail", ctx, "user@example.com").Return(u, nil)

	_, err := uc.Login(ctx, usecase.LoginInput{Email: "user@example.com", Password: "correct-password"})

	assertErrContains(t, err, "이메일 또는 비밀번호가 올바르지 않습니다.")
}

func TestAuthUsecase_Login_Success(t *testing.T) {
	users, rts, val, issuer, uc, now := newAuthFixture()
	ctx := context.Background()

	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.MinCost)
	user := activeUser(1, string(hash))

	val.On("ValidateLogin", ctx, "user@example.com", "correct-password").Return(nil)
	users.On("FindByEmail", ctx, "user@example.com").Return(user, nil)
	issuer.On("Issue", int64(1), model.RoleUser, 3, now).
		Return("access-token", now.Add(15*time.Minute), nil)
	rts.On("Create", ctx, mock.MatchedBy(func(tok *model.RefreshToken) bool {
		// 平文は保存せずハッシュだけ置く
		return tok.ID == "rt-uuid-1" &&
			tok.UserID == int64(1) &&
			tok.TokenHash != "" &&
			tok.ExpiresAt.Equal(now.Add(14*24*time.Hour))
	})).Return(nil)
	users.On("Update", ctx, mock.MatchedBy(func(u *model.User) bool {
		return u.LastLoginAt != nil && u.LastLoginAt.Equal(now)
	})).Return(nil)

	out, err := uc.Login(ctx, usecase.LoginInput{Email: "user@example.com", Password: "correct-password"})

	assert.NoError(t, err)
	assert.Equal(t, "access-token", out.AccessToken)
	assert.NotEmpty(t, out.RefreshToken)
	assert.Equal(t, int(15*time.Minute/time.Second), out.ExpiresIn)
	assert.Equal(t, int64(1), out.User.UserID)
	rts.AssertExpectations(t)
}

// =====================
// Refresh
// =====================

func TestAuthUsecase_Refresh_EmptyToken(t *testing.T) {
	_, rts, _, _, uc, _ := newAuthFixture()

	_, err := uc.Refresh(context.Background(), "  ")

	assertErrContains(t, err, "invalid body")
	rts.AssertNotCalled(t, "FindByTokenHash", mock.Anything, mock.Anything)
}

func TestAuthUsecase_Refresh_UnknownToken(t *testing.T) {
	_, rts, _, _, uc, _ := newAuthFixture()
	ctx := context.Background()

	rts.On("FindByTokenHash", ctx, mock.AnythingOfType("string")).
		Return(nil, repo.ErrRefreshTokenNotFound)

	_, err := uc.Refresh(ctx, "unknown-token")

	assertErrContains(t, err, "unauthorized")
}

func TestAuthUsecase_Refresh_Expired(t *testing.T) {
	_, rts, _, _, uc, now := newAuthFixture()
	ctx := context.Background()

	rts.On("FindByTokenHash", ctx, mock.AnythingOfType("string")).Return(&model.RefreshToken{
		ID:        "rt-old",
		UserID:    1,
		ExpiresAt: now.Add(-time.Hour),
	}, nil)

	_, err := uc.Refresh(ctx, "expired-token")

	assertErrContains(t, err, "unauthorized")
	rts.AssertNotCalled(t, "MarkUsed", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthUsecase_Refresh_ReuseDetected_RevokesAllSessions(t *testing.T) {
	_, rts, _, issuer, uc, now := newAuthFixture()
	ctx := context.Background()

	used := now.Add(-time.Minute)
	rts.On("FindByTokenHash", ctx, mock.AnythingOfType("string")).Return(&model.RefreshToken{
		ID:        "rt-old",
		UserID:    1,
		ExpiresAt: now.Add(time.Hour),
		UsedAt:    &used,
	}, nil)
	rts.On("DeleteAllByUserID", ctx, int64(1)).Return(nil)

	_, err := uc.Refresh(ctx, "reused-token")

	assertErrContains(t, err, "unauthorized")
	rts.AssertCalled(t, "DeleteAllByUserID", ctx, int64(1))
	issuer.AssertNotCalled(t, "Issue", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthUsecase_Refresh_Success_RotatesToken(t *testing.T) {
	users, rts, _, issuer, uc, now := newAuthFixture()
	ctx := context.Background()

	rts.On("FindByTokenHash", ctx, mock.AnythingOfType("string")).Return(&model.RefreshToken{
		ID:        "rt-old",
		UserID:    1,
		ExpiresAt: now.Add(time.Hour),
	}, nil)
	users.On("FindByID", ctx, int64(1)).Return(activeUser(1, "hash"), nil)
	rts.On("MarkUsed", ctx, "rt-old", now).Return(nil)
	issuer.On("Issue", int64(1), model.RoleUser, 3, now).
		Return("access-token-2", now.Add(15*time.Minute), nil)
	rts.On("Create", ctx, mock.MatchedBy(func(tok *model.RefreshToken) bool {
		return tok.ID == "rt-uuid-1" && tok.UserID == int64(1)
	})).Return(nil)

	out, err := uc.Refresh(ctx, "valid-token")

	assert.NoError(t, err)
	assert.Equal(t, "access-token-2", out.AccessToken)
	assert.NotEmpty(t, out.RefreshToken)
	rts.AssertCalled(t, "MarkUsed", ctx, "rt-old", now)
}

// =====================
// Logout / CheckAvailability
// =====================

func TestAuthUsecase_Logout_BumpsTokenVersion(t *testing.T) {
	users, rts, _, _, uc, _ := newAuthFixture()
	ctx := context.Background()

	rts.On("DeleteAllByUserID", ctx, int64(1)).Return(nil)
	users.On("IncrementTokenVersion", ctx, int64(1)).Return(nil)

	err := uc.Logout(ctx, 1)

	assert.NoError(t, err)
	users.AssertCalled(t, "IncrementTokenVersion", ctx, int64(1))
}

func TestAuthUsecase_Logout_InvalidUser(t *testing.T) {
	_, rts, _, _, uc, _ := newAuthFixture()

	err := uc.Logout(context.Background(), 0)

	assertErrContains(t, err, "unauthorized")
	rts.AssertNotCalled(t, "DeleteAllByUserID", mock.Anything, mock.Anything)
}

func TestAuthUsecase_CheckAvailability(t *testing.T) {
	users, _, _, _, uc, _ := newAuthFixture()
	ctx := context.Background()

	users.On("ExistsByEmail", ctx, "free@example.com").Return(false, nil)
	users.On("ExistsByNickname", ctx, "사용중닉네임").Return(true, nil)

	out, err := uc.CheckAvailability(ctx, "email", "free@example.com")
	assert.NoError(t, err)
	assert.True(t, out.IsAvailable)

	out, err = uc.CheckAvailability(ctx, "nickname", "사용중닉네임")
	assert.NoError(t, err)
	assert.False(t, out.IsAvailable)

	_, err = uc.CheckAvailability(ctx, "birthday", "x")
	assertErrContains(t, err, "not found")

	_, err = uc.CheckAvailability(ctx, "email", "   ")
	assertErrContains(t, err, "invalid value")
}
