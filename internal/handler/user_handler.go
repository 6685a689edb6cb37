package handler

import (
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /v1/users/me のHTTP
type UserHandler struct {
	uc *usecase.UserUsecase
}

func NewUserHandler(uc *usecase.UserUsecase) *UserHandler {
	return &UserHandler{uc: uc}
}

type UpdateProfileRequest struct {
	Nickname *string `json:"nickname"`
	Phone    *string `json:"phone"`
}

type WithdrawRequest struct {
	Password string `json:"password"`
}

type A11ySettingsRequest struct {
	FontScale         int  `json:"fontScale"`
	HighContrast      bool `json:"highContrast"`
	ReduceMotion      bool `json:"reduceMotion"`
	ScreenReaderHints bool `json:"screenReaderHints"`
}

// 認証必須グループに登録
func (h *UserHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/users/me", h.getMe)
	g.PATCH("/users/me", h.patchMe)
	g.DELETE("/users/me", h.withdraw)
	g.GET("/users/me/a11y", h.getA11y)
	g.PUT("/users/me/a11y", h.putA11y)
}

func (h *UserHandler) getMe(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.GetProfile(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *UserHandler) patchMe(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.UpdateProfile(c.Request().Context(), userID, usecase.UpdateProfileInput{
		Nickname: req.Nickname,
		Phone:    req.Phone,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// 退会。本人確認のためパスワード再入力を要求する
func (h *UserHandler) withdraw(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req WithdrawRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if err := h.uc.Withdraw(c.Request().Context(), userID, req.Password); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "withdrawn"})
}

func (h *UserHandler) getA11y(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.GetA11ySettings(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *UserHandler) putA11y(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req A11ySettingsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.UpdateA11ySettings(c.Request().Context(), userID, usecase.A11ySettingsDTO{
		FontScale:         req.FontScale,
		HighContrast:      req.HighContrast,
		ReduceMotion:      req.ReduceMotion,
		ScreenReaderHints: req.ScreenReaderHints,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
