package http

import (
	"context"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"copydesk/internal/delivery/http/dto"
	"copydesk/internal/domain"
	"copydesk/internal/middleware"
)

// MembershipUsecase moves traders between groups
type MembershipUsecase interface {
	State(ctx context.Context, userID string) (domain.MembershipState, error)
	History(ctx context.Context, userID string) ([]*domain.Membership, error)
	Join(ctx context.Context, userID, groupKey string, actor domain.Actor) (*domain.Membership, error)
	Leave(ctx context.Context, userID string, actor domain.Actor) error
	Switch(ctx context.Context, userID, newGroupKey string, actor domain.Actor) (*domain.Membership, error)
}

// MembershipHandler handles group membership requests
type MembershipHandler struct {
	memberships MembershipUsecase
}

// NewMembershipHandler creates a new MembershipHandler
func NewMembershipHandler(memberships MembershipUsecase) *MembershipHandler {
	return &MembershipHandler{memberships: memberships}
}

// Join adds a trader to a group
// POST /api/groups/join
func (h *MembershipHandler) Join(c echo.Context) error {
	req, ok, err := bindGroupRequest(c)
	if !ok {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	membership, err := h.memberships.Join(ctx, req.UserID, req.APIKey, middleware.GetActor(c))
	if err != nil {
		return AppErrorResponse(c, err)
	}

	return SuccessMessageResponse(c, "Joined group successfully", membership)
}

// Switch moves a trader to another group
// POST /api/groups/switch
func (h *MembershipHandler) Switch(c echo.Context) error {
	req, ok, err := bindGroupRequest(c)
	if !ok {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	membership, err := h.memberships.Switch(ctx, req.UserID, req.APIKey, middleware.GetActor(c))
	if err != nil {
		return AppErrorResponse(c, err)
	}

	return SuccessMessageResponse(c, "Switched group successfully", membership)
}

// Leave removes a trader from its group
// POST /api/groups/leave
func (h *MembershipHandler) Leave(c echo.Context) error {
	var req dto.LeaveGroupRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}
	if strings.TrimSpace(req.UserID) == "" {
		return BadRequestResponse(c, "user_id is required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.memberships.Leave(ctx, req.UserID, middleware.GetActor(c)); err != nil {
		return AppErrorResponse(c, err)
	}

	return SuccessMessageResponse(c, "Left group successfully", map[string]interface{}{
		"user_id": req.UserID,
	})
}

// GetMembership returns the trader's state and membership history
// GET /api/groups/membership/:user_id
func (h *MembershipHandler) GetMembership(c echo.Context) error {
	userID := c.Param("user_id")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	state, err := h.memberships.State(ctx, userID)
	if err != nil {
		return AppErrorResponse(c, err)
	}
	history, err := h.memberships.History(ctx, userID)
	if err != nil {
		return AppErrorResponse(c, err)
	}
	if history == nil {
		history = []*domain.Membership{}
	}

	return SuccessResponse(c, dto.MembershipOutput{State: state, History: history})
}

// bindGroupRequest returns ok=false together with the response already written
func bindGroupRequest(c echo.Context) (dto.GroupRequest, bool, error) {
	var req dto.GroupRequest
	if err := c.Bind(&req); err != nil {
		return req, false, BadRequestResponse(c, "Invalid request payload")
	}
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.APIKey) == "" {
		return req, false, BadRequestResponse(c, "user_id and api_key are required")
	}
	return req, true, nil
}
