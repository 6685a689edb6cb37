package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
)

// ユーザーが見つかりませんを統一
var ErrUserNotFound = errors.New("user not found")

type UserListQuery struct {
	Page  int
	Limit int
	Q     string
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	//会員登録時の重複チェック用
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByNickname(ctx context.Context, nickname string) (bool, error)
	ExistsByPhone(ctx context.Context, phone string) (bool, error)

	Update(ctx context.Context, user *model.User) error
	UpdateRole(ctx context.Context, userID int64, role model.Role) error

	//退会はsoft delete（is_activeをfalse）
	Deactivate(ctx context.Context, userID int64) error

	//トークンのバージョンを＋1（ログアウト・強制失効）
	IncrementTokenVersion(ctx context.Context, userID int64) error

	//管理者用の一覧
	List(ctx context.Context, q UserListQuery) ([]model.User, int64, error)
}
