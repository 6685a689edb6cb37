package handler

import (
	"net/http"
	"strconv"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 販売者審査のHTTP
type AdminSellerHandler struct {
	uc *usecase.AdminUsecase
}

func NewAdminSellerHandler(uc *usecase.AdminUsecase) *AdminSellerHandler {
	return &AdminSellerHandler{uc: uc}
}

// adminグループに登録
func (h *AdminSellerHandler) RegisterRoutes(admin *echo.Group) {
	admin.GET("/sellers", h.list)
	admin.POST("/sellers/:id/approve", h.approve)
	admin.POST("/sellers/:id/reject", h.reject)
}

func (h *AdminSellerHandler) list(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	status := c.QueryParam("status")

	out, err := h.uc.ListSellers(c.Request().Context(), status, page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminSellerHandler) approve(c echo.Context) error {
	return h.review(c, true)
}

func (h *AdminSellerHandler) reject(c echo.Context) error {
	return h.review(c, false)
}

func (h *AdminSellerHandler) review(c echo.Context, approve bool) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	sellerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	if err := h.uc.ReviewSeller(c.Request().Context(), adminID, sellerID, approve); err != nil {
		return writeError(c, err)
	}

	msg := "rejected"
	if approve {
		msg = "approved"
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: msg})
}
