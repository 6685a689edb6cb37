package handler

import (
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 注文作成・事前チェック・注文照会のHTTP
type OrderHandler struct {
	checkoutUC *usecase.CheckoutUsecase
	orderUC    *usecase.OrderUsecase
}

func NewOrderHandler(checkoutUC *usecase.CheckoutUsecase, orderUC *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{checkoutUC: checkoutUC, orderUC: orderUC}
}

type PreCheckRequest struct {
	CartItemIDs     []int64                  `json:"cartItemIds"`
	DirectOrderItem *usecase.DirectOrderItem `json:"directOrderItem"`
}

type OrderCreateRequest struct {
	AddressID       int64                    `json:"addressId"`
	CartItemIDs     []int64                  `json:"cartItemIds"`
	DirectOrderItem *usecase.DirectOrderItem `json:"directOrderItem"`
}

type CancelItemRequest struct {
	OrderItemID  int64  `json:"orderItemId"`
	CancelReason string `json:"cancelReason"`
}

type ConfirmItemRequest struct {
	OrderItemID int64 `json:"orderItemId"`
}

// 認証必須グループに登録
func (h *OrderHandler) RegisterRoutes(v1 *echo.Group, v2 *echo.Group) {
	v1.POST("/orders", h.create)
	v1.POST("/orders/pre-check", h.preCheckLegacy)
	v2.POST("/orders/pre-check", h.preCheck)

	v1.GET("/users/me/orders", h.listMine)
	v1.POST("/users/me/orders/cancel-request", h.cancelItem)
	v1.POST("/users/me/orders/items/confirm", h.confirmItem)
	v1.GET("/users/me/orders/:orderId", h.detailMine)
}

// 旧仕様の事前チェック。ACTIVEカート全量で計算する
func (h *OrderHandler) preCheckLegacy(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.checkoutUC.PreCheckLegacy(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

// 選択明細（または即時購入1件）で計算する事前チェック
func (h *OrderHandler) preCheck(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req PreCheckRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.checkoutUC.PreCheck(c.Request().Context(), userID, usecase.PreCheckInput{
		CartItemIDs: req.CartItemIDs,
		DirectItem:  req.DirectOrderItem,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) create(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req OrderCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	//二重送信防止キーはヘッダーから受け取る
	idemKey := c.Request().Header.Get("X-Idempotency-Key")

	out, err := h.checkoutUC.PlaceOrder(c.Request().Context(), userID, usecase.PlaceOrderInput{
		AddressID:      req.AddressID,
		CartItemIDs:    req.CartItemIDs,
		DirectItem:     req.DirectOrderItem,
		IdempotencyKey: idemKey,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, out)
}

func (h *OrderHandler) listMine(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.orderUC.ListMyOrders(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) detailMine(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	orderID := c.Param("orderId")
	if orderID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.orderUC.GetMyOrderDetail(c.Request().Context(), userID, orderID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) cancelItem(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req CancelItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if req.OrderItemID <= 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	if err := h.orderUC.RequestCancel(c.Request().Context(), userID, usecase.CancelRequestInput{
		OrderItemID:  req.OrderItemID,
		CancelReason: req.CancelReason,
	}); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "cancel requested"})
}

func (h *OrderHandler) confirmItem(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req ConfirmItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if req.OrderItemID <= 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	if err := h.orderUC.ConfirmItem(c.Request().Context(), userID, req.OrderItemID); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "confirmed"})
}
