package server

import (
	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/middleware"
	"storefront/internal/repository"

	"github.com/labstack/echo/v4"
)

// Handlers はルーティング対象のハンドラー一式。
type Handlers struct {
	Auth         *handler.AuthHandler
	Product      *handler.ProductHandler
	User         *handler.UserHandler
	Address      *handler.AddressHandler
	Cart         *handler.CartHandler
	Order        *handler.OrderHandler
	Payment      *handler.PaymentHandler
	Seller       *handler.SellerHandler
	AdminProduct *handler.AdminProductHandler
	AdminSeller  *handler.AdminSellerHandler
	AdminUser    *handler.AdminUserHandler
	AdminOrder   *handler.AdminOrderHandler
}

// RegisterRoutes は公開・認証必須・SELLER・ADMINの4系統にまとめて登録する。
func RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository, h Handlers) {
	//公開（商品閲覧・認証系）
	h.Product.RegisterRoutes(e)
	h.Auth.RegisterRoutes(e)

	//JWT必須 + token_version一致
	authed := e.Group(
		"/v1",
		middleware.AuthJWT(cfg),
		middleware.TokenVersionGuard(userRepo),
	)
	authedV2 := e.Group(
		"/v2",
		middleware.AuthJWT(cfg),
		middleware.TokenVersionGuard(userRepo),
	)

	h.Auth.RegisterProtectedRoutes(authed)
	h.User.RegisterRoutes(authed)
	h.Address.RegisterRoutes(authed)
	h.Cart.RegisterRoutes(authed)
	h.Order.RegisterRoutes(authed, authedV2)
	h.Payment.RegisterRoutes(authed)

	//SELLERロール限定（申請・自分の審査状況は認証のみで可）
	seller := e.Group(
		"/v1",
		middleware.AuthJWT(cfg),
		middleware.TokenVersionGuard(userRepo),
		middleware.SellerRoleGuard(),
	)
	h.Seller.RegisterRoutes(authed, seller)

	//ADMIN限定
	admin := e.Group(
		"/v1/admin",
		middleware.AuthJWT(cfg),
		middleware.TokenVersionGuard(userRepo),
		middleware.AdminRoleGuard(),
	)
	h.AdminProduct.RegisterRoutes(admin)
	h.AdminSeller.RegisterRoutes(admin)
	h.AdminUser.RegisterRoutes(admin)
	h.AdminOrder.RegisterRoutes(admin)
}
