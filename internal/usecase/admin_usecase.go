package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type AdminUsecase struct {
	tx          repo.TransactionManager
	userRepo    repo.UserRepository
	sellerRepo  repo.SellerRepository
	productRepo repo.ProductRepository
	orderRepo   repo.OrderRepository
	auditRepo   repo.AuditLogRepository
	clock       Clock
}

func NewAdminUsecase(
	tx repo.TransactionManager,
	userRepo repo.UserRepository,
	sellerRepo repo.SellerRepository,
	productRepo repo.ProductRepository,
	orderRepo repo.OrderRepository,
	auditRepo repo.AuditLogRepository,
	clock Clock,
) *AdminUsecase {
	return &AdminUsecase{
		tx:          tx,
		userRepo:    userRepo,
		sellerRepo:  sellerRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		auditRepo:   auditRepo,
		clock:       clock,
	}
}

type AdminUserDTO struct {
	UserID    int64  `json:"userId"`
	Email     string `json:"email"`
	Nickname  string `json:"nickname"`
	Role      string `json:"role"`
	IsActive  bool   `json:"isActive"`
	CreatedAt string `json:"createdAt"`
}

type AdminUserListOutput struct {
	Items []AdminUserDTO `json:"items"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

func (u *AdminUsecase) ListUsers(ctx context.Context, page, limit int, q string) (AdminUserListOutput, error) {
	page, limit = normalizePage(page, limit)

	users, total, err := u.userRepo.List(ctx, repo.UserListQuery{Page: page, Limit: limit, Q: q})
	if err != nil {
		return AdminUserListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	out := AdminUserListOutput{Items: make([]AdminUserDTO, 0, len(users)), Total: total, Page: page, Limit: limit}
	for i := range users {
		out.Items = append(out.Items, AdminUserDTO{
			UserID:    users[i].ID,
			Email:     users[i].Email,
			Nickname:  users[i].Nickname,
			Role:      string(users[i].Role),
			IsActive:  users[i].IsActive,
			CreatedAt: users[i].CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return out, nil
}

// UpdateUserRole はロール変更。既存トークンを失効させるためtoken versionも上げる。
func (u *AdminUsecase) UpdateUserRole(ctx context.Context, actorID int64, targetUserID int64, role string) error {
	newRole := model.Role(role)
	switch newRole {
	case model.RoleUser, model.RoleSeller, model.RoleAdmin:
	default:
		return NewHTTPError(http.StatusBadRequest, "invalid role")
	}
	if actorID == targetUserID {
		return NewHTTPError(http.StatusBadRequest, "자신의 권한은 변경할 수 없습니다.")
	}

	target, err := u.userRepo.FindByID(ctx, targetUserID)
	if errors.Is(err, repo.ErrUserNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if target.Role == newRole {
		return nil
	}

	before := target.Role
	if err := u.userRepo.UpdateRole(ctx, targetUserID, newRole); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if err := u.userRepo.IncrementTokenVersion(ctx, targetUserID); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.writeAudit(ctx, actorID, model.AuditActionUpdateUserRole, model.AuditResourceUser,
		fmt.Sprintf("%d", targetUserID),
		map[string]any{"role": before},
		map[string]any{"role": newRole},
	)
	return nil
}

type SellerReviewDTO struct {
	SellerID       int64  `json:"sellerId"`
	UserID         int64  `json:"userId"`
	Name           string `json:"name"`
	BusinessNumber string `json:"businessNumber"`
	Status         string `json:"status"`
}

type SellerListOutput struct {
	Items []SellerReviewDTO `json:"items"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

func (u *AdminUsecase) ListSellers(ctx context.Context, status string, page, limit int) (SellerListOutput, error) {
	page, limit = normalizePage(page, limit)

	sellers, total, err := u.sellerRepo.ListByStatus(ctx, status, page, limit)
	if err != nil {
		return SellerListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	out := SellerListOutput{Items: make([]SellerReviewDTO, 0, len(sellers)), Total: total, Page: page, Limit: limit}
	for i := range sellers {
		out.Items = append(out.Items, SellerReviewDTO{
			SellerID:       sellers[i].ID,
			UserID:         sellers[i].UserID,
			Name:           sellers[i].Name,
			BusinessNumber: sellers[i].BusinessNumber,
			Status:         string(sellers[i].Status),
		})
	}
	return out, nil
}

// ReviewSeller は販売者審査。承認時はユーザーのロールもSELLERへ。
func (u *AdminUsecase) ReviewSeller(ctx context.Context, actorID int64, sellerID int64, approve bool) error {
	seller, err := u.sellerRepo.FindByID(ctx, sellerID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if seller.Status != model.SellerStatusPending {
		return NewHTTPError(http.StatusConflict, "이미 심사가 완료된 판매자입니다.")
	}

	newStatus := model.SellerStatusRejected
	if approve {
		newStatus = model.SellerStatusApproved
	}
	if err := u.sellerRepo.UpdateStatus(ctx, sellerID, newStatus); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if approve {
		if err := u.userRepo.UpdateRole(ctx, seller.UserID, model.RoleSeller); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		//旧ロールのトークンを失効させ、再ログインでSELLERクレームを持たせる
		if err := u.userRepo.IncrementTokenVersion(ctx, seller.UserID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
	}

	u.writeAudit(ctx, actorID, model.AuditActionReviewSeller, model.AuditResourceSeller,
		fmt.Sprintf("%d", sellerID),
		map[string]any{"status": seller.Status},
		map[string]any{"status": newStatus},
	)
	return nil
}

// ReviewProduct は商品審査。承認で公開、却下で非公開のまま。
func (u *AdminUsecase) ReviewProduct(ctx context.Context, actorID int64, productID int64, approve bool) error {
	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if p.Status != model.ProductStatusPending {
		return NewHTTPError(http.StatusConflict, "이미 심사가 완료된 상품입니다.")
	}

	before := p.Status
	newStatus := model.ProductStatusRejected
	if approve {
		newStatus = model.ProductStatusApproved
	}
	if err := u.productRepo.UpdateStatus(ctx, productID, newStatus); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if approve {
		p.Status = newStatus
		p.IsActive = true
		if err := u.productRepo.Update(ctx, p); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
	}

	u.writeAudit(ctx, actorID, model.AuditActionReviewProduct, model.AuditResourceProduct,
		fmt.Sprintf("%d", productID),
		map[string]any{"status": before},
		map[string]any{"status": newStatus},
	)
	return nil
}

func (u *AdminUsecase) ListAdminProducts(ctx context.Context, status string, page, limit int) (ProductListOutput, error) {
	page, limit = normalizePage(page, limit)

	items, total, err := u.productRepo.ListAdmin(ctx, status, page, limit)
	if err != nil {
		return ProductListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	out := ProductListOutput{Items: make([]ProductDTO, 0, len(items)), Total: total, Page: page, Limit: limit}
	for i := range items {
		out.Items = append(out.Items, toProductDTO(&items[i]))
	}
	return out, nil
}

type AdminOrderListInput struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

type AdminOrderListOutput struct {
	Items []OrderOutput `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

func (u *AdminUsecase) ListOrders(ctx context.Context, in AdminOrderListInput) (AdminOrderListOutput, error) {
	in.Page, in.Limit = normalizePage(in.Page, in.Limit)

	orders, total, err := u.orderRepo.ListAdmin(ctx, repo.AdminOrderListFilter{
		Page:   in.Page,
		Limit:  in.Limit,
		Status: in.Status,
		UserID: in.UserID,
		From:   in.From,
		To:     in.To,
	})
	if err != nil {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	out := AdminOrderListOutput{Items: make([]OrderOutput, 0, len(orders)), Total: total, Page: in.Page, Limit: in.Limit}
	for i := range orders {
		out.Items = append(out.Items, toOrderOutput(orders[i], nil))
	}
	return out, nil
}

// 遷移できる注文ステータス。管理画面からの手動操作を想定。
var adminOrderTransitions = map[model.OrderStatus][]model.OrderStatus{
	model.OrderStatusPaid:     {model.OrderStatusAccepted, model.OrderStatusRejected},
	model.OrderStatusAccepted: {model.OrderStatusShipped},
	model.OrderStatusShipped:  {model.OrderStatusDelivered},
}

// UpdateOrderStatus は注文ステータスの更新。
// REJECTED・CANCELLEDへの遷移では在庫を戻し、明細もCANCELEDにする。
func (u *AdminUsecase) UpdateOrderStatus(ctx context.Context, actorID int64, orderID string, status string) error {
	newStatus := model.OrderStatus(status)
	switch newStatus {
	case model.OrderStatusAccepted, model.OrderStatusRejected,
		model.OrderStatusShipped, model.OrderStatusDelivered, model.OrderStatusCancelled:
	default:
		return NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var before model.OrderStatus
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		order, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return err
		}
		before = order.Status

		if newStatus == model.OrderStatusCancelled {
			// 取消承認はPaid/Accepted/CancelPending明細がある状態から
			if order.Status == model.OrderStatusShipped || order.Status == model.OrderStatusDelivered {
				return NewHTTPError(http.StatusConflict, "취소할 수 없는 상태입니다.")
			}
		} else if !containsStatus(adminOrderTransitions[order.Status], newStatus) {
			return NewHTTPError(http.StatusConflict, "변경할 수 없는 상태입니다.")
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, newStatus); err != nil {
			return err
		}

		switch newStatus {
		case model.OrderStatusShipped:
			if err := r.OrderItems().UpdateStatusByOrderID(ctx, orderID, model.OrderItemStatusShipped); err != nil {
				return err
			}
		case model.OrderStatusRejected, model.OrderStatusCancelled:
			items, err := r.OrderItems().ListByOrderID(ctx, orderID)
			if err != nil {
				return err
			}
			for i := range items {
				if items[i].Status == model.OrderItemStatusCanceled {
					continue
				}
				if err := r.Inventory().IncreaseStock(ctx, items[i].ProductID, items[i].Quantity); err != nil {
					return err
				}
			}
			if err := r.OrderItems().UpdateStatusByOrderID(ctx, orderID, model.OrderItemStatusCanceled); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if he, ok := AsHTTPError(err); ok {
			return he
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.writeAudit(ctx, actorID, model.AuditActionUpdateOrderStatus, model.AuditResourceOrder,
		orderID,
		map[string]any{"status": before},
		map[string]any{"status": newStatus},
	)
	return nil
}

type AuditLogDTO struct {
	ID           int64  `json:"id"`
	ActorUserID  int64  `json:"actorUserId"`
	Action       string `json:"action"`
	ResourceType string `json:"resourceType"`
	ResourceID   string `json:"resourceId"`
	BeforeJSON   string `json:"before"`
	AfterJSON    string `json:"after"`
	CreatedAt    string `json:"createdAt"`
}

func (u *AdminUsecase) ListAuditLogs(ctx context.Context, f repo.AuditLogFilter) ([]AuditLogDTO, error) {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	logs, err := u.auditRepo.List(ctx, f)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	out := make([]AuditLogDTO, 0, len(logs))
	for i := range logs {
		out = append(out, AuditLogDTO{
			ID:           logs[i].ID,
			ActorUserID:  logs[i].ActorUserID,
			Action:       string(logs[i].Action),
			ResourceType: string(logs[i].ResourceType),
			ResourceID:   logs[i].ResourceID,
			BeforeJSON:   logs[i].BeforeJSON,
			AfterJSON:    logs[i].AfterJSON,
			CreatedAt:    logs[i].CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return out, nil
}

// writeAudit は監査ログを記録する。失敗しても本処理は巻き戻さない。
func (u *AdminUsecase) writeAudit(ctx context.Context, actorID int64, action model.AuditAction, rt model.AuditResourceType, resourceID string, before, after map[string]any) {
	b, _ := json.Marshal(before)
	a, _ := json.Marshal(after)
	err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  actorID,
		Action:       action,
		ResourceType: rt,
		ResourceID:   resourceID,
		BeforeJSON:   string(b),
		AfterJSON:    string(a),
		CreatedAt:    u.clock.Now(),
	})
	if err != nil {
		logger.Error().Err(err).
			Str("action", string(action)).
			Str("resource_id", resourceID).
			Msg("failed to write audit log")
	}
}

func normalizePage(page, limit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return page, limit
}

func containsStatus(list []model.OrderStatus, s model.OrderStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
