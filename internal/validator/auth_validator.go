package validator

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"storefront/internal/usecase"
)

var (
	// 入力が不正
	ErrInvalidEmail    = errors.New("올바른 이메일 형식이 아닙니다.")
	ErrInvalidPassword = errors.New("비밀번호는 8자 이상이어야 합니다.")
	ErrInvalidNickname = errors.New("닉네임은 2자 이상 20자 이하여야 합니다.")
	ErrInvalidPhone    = errors.New("올바른 휴대폰 번호 형식이 아닙니다.")
	ErrEmptyInput      = errors.New("이메일과 비밀번호를 입력해주세요.")
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	// 010-1234-5678 / 01012345678 のどちらも許容
	phoneRe = regexp.MustCompile(`^01[016789]-?\d{3,4}-?\d{4}$`)
)

type authValidator struct{}

// Usecaseは interface を依存注入
func NewAuthValidator() usecase.AuthValidator {
	return &authValidator{}
}

// 会員登録の入力を検証。重複チェックはusecase側で行う。
func (v *authValidator) ValidateJoin(ctx context.Context, email, password, nickname, phone string) error {
	email = strings.TrimSpace(email)
	nickname = strings.TrimSpace(nickname)
	phone = strings.TrimSpace(phone)

	if email == "" || password == "" {
		return ErrEmptyInput
	}
	if !emailRe.MatchString(email) {
		return ErrInvalidEmail
	}
	if len(password) < 8 {
		return ErrInvalidPassword
	}
	if n := utf8.RuneCountInString(nickname); n < 2 || n > 20 {
		return ErrInvalidNickname
	}
	if !phoneRe.MatchString(phone) {
		return ErrInvalidPhone
	}
	return nil
}

// ログインの入力を検証
func (v *authValidator) ValidateLogin(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)

	if email == "" || password == "" {
		return ErrEmptyInput
	}
	if !emailRe.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}
