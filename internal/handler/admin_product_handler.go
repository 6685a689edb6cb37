package handler

import (
	"net/http"
	"strconv"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// SuccessResponse は { message: string } の形に寄せます。
type SuccessResponse struct {
	Message string `json:"message"`
}

// /admin/products（商品審査）をまとめる
type AdminProductHandler struct {
	uc *usecase.AdminUsecase
}

// DI
func NewAdminProductHandler(uc *usecase.AdminUsecase) *AdminProductHandler {
	return &AdminProductHandler{uc: uc}
}

// adminグループに登録
func (h *AdminProductHandler) RegisterRoutes(admin *echo.Group) {
	admin.GET("/products", h.list)
	admin.POST("/products/:id/approve", h.approve)
	admin.POST("/products/:id/reject", h.reject)
}

func (h *AdminProductHandler) list(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	status := c.QueryParam("status")

	out, err := h.uc.ListAdminProducts(c.Request().Context(), status, page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminProductHandler) approve(c echo.Context) error {
	return h.review(c, true)
}

func (h *AdminProductHandler) reject(c echo.Context) error {
	return h.review(c, false)
}

func (h *AdminProductHandler) review(c echo.Context, approve bool) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	if err := h.uc.ReviewProduct(c.Request().Context(), adminID, productID, approve); err != nil {
		return writeError(c, err)
	}

	msg := "rejected"
	if approve {
		msg = "approved"
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: msg})
}

//middleware.AuthJWT が c.Set("user_id", int64) した値を取り出す

func getUserIDFromContext(c echo.Context) (int64, bool) {
	v := c.Get("user_id")
	if v == nil {
		return 0, false
	}

	id, ok := v.(int64)
	if !ok {
		return 0, false
	}

	return id, true
}
