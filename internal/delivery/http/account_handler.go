package http

import (
	"context"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"copydesk/internal/delivery/http/dto"
	"copydesk/internal/domain"
	"copydesk/internal/middleware"
	"copydesk/internal/usecase"
)

// ProvisioningUsecase registers slave accounts
type ProvisioningUsecase interface {
	AddSlave(ctx context.Context, input usecase.ProvisionSlaveInput, actor domain.Actor) (*usecase.ProvisionResult, error)
}

// AccountAdminUsecase manages master and slave accounts
type AccountAdminUsecase interface {
	CreateMaster(ctx context.Context, input usecase.CreateMasterInput, actor domain.Actor) (*domain.MasterAccount, error)
	ListMasters(ctx context.Context) ([]*domain.MasterAccount, error)
	SetMasterStatus(ctx context.Context, masterID string, active bool, actor domain.Actor) error
	ListSlaves(ctx context.Context, filter domain.SlaveFilter) ([]*domain.SlaveAccount, error)
	SetSlaveStatus(ctx context.Context, slaveID string, active bool, actor domain.Actor) error
	UpdateSlaveLogin(ctx context.Context, input usecase.UpdateLoginInput, actor domain.Actor) error
	DeleteSlave(ctx context.Context, slaveID string, actor domain.Actor) error
}

// AccountHandler handles master and slave account requests
type AccountHandler struct {
	provisioning ProvisioningUsecase
	accounts     AccountAdminUsecase
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(provisioning ProvisioningUsecase, accounts AccountAdminUsecase) *AccountHandler {
	return &AccountHandler{
		provisioning: provisioning,
		accounts:     accounts,
	}
}

// AddSlave provisions a slave account under a master
// POST /api/slave-add
func (h *AccountHandler) AddSlave(c echo.Context) error {
	var req dto.AddSlaveRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}
	if err := req.Validate(); err != nil {
		return BadRequestResponse(c, err.Error())
	}

	startDate, err := dto.ParseDate("start_date", req.StartDate)
	if err != nil {
		return BadRequestResponse(c, err.Error())
	}
	endDate, err := dto.ParseDate("end_date", req.EndDate)
	if err != nil {
		return BadRequestResponse(c, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	result, err := h.provisioning.AddSlave(ctx, usecase.ProvisionSlaveInput{
		Name:         req.Name,
		Email:        req.Email,
		MobileNumber: req.MobileNumber,
		Active:       req.Active(),
		StartDate:    startDate,
		EndDate:      endDate,
		MasterID:     req.MasterID,
		MasterEmail:  req.MasterEmail,
	}, middleware.GetActor(c))
	if err != nil {
		return AppErrorResponse(c, err)
	}

	return SuccessMessageResponse(c, result.Message, dto.AddSlaveResponse{
		SlaveID: result.SlaveID,
		MT5Path: result.ResourceHandle,
	})
}

// ListSlaves returns slaves, optionally filtered by master and status
// GET /api/all-slaves
func (h *AccountHandler) ListSlaves(c echo.Context) error {
	filter := domain.SlaveFilter{
		MasterID: strings.TrimSpace(c.QueryParam("master_id")),
	}
	switch status := strings.ToLower(strings.TrimSpace(c.QueryParam("status"))); status {
	case "":
	case "true", domain.AccountStatusActive:
		filter.Status = domain.AccountStatusActive
	case "false", domain.AccountStatusInactive:
		filter.Status = domain.AccountStatusInactive
	default:
		return BadRequestResponse(c, "status must be active or inactive")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	slaves, err := h.accounts.ListSlaves(ctx, filter)
	if err != nil {
		return AppErrorResponse(c, err)
	}

	return SuccessResponse(c, map[string]interface{}{
		"slaves": slaves,
		"count":  len(slaves),
	})
}

// SetSlaveStatus activates or deactivates a slave
// POST /api/slave-status
func (h *AccountHandler) SetSlaveStatus(c echo.Context) error {
	var req dto.StatusRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}
	if strings.TrimSpace(req.SlaveID) == "" {
		return BadRequestResponse(c, "slave_id is required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.accounts.SetSlaveStatus(ctx, req.SlaveID, req.Status, middleware.GetActor(c)); err != nil {
		return AppErrorResponse(c, err)
	}

	return SuccessMessageResponse(c, "Slave status updated successfully", map[string]interface{}{
		"slave_id": req.SlaveID,
		"status":   domain.StatusFromBool(req.Status),
	})
}

// UpdateSlaveLogin stores new trading platform credentials
// POST /api/slave-login
func (h *AccountHandler) UpdateSlaveLogin(c echo.Context) error {
	var req dto.SlaveLoginRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}
	if strings.TrimSpace(req.SlaveID) == "" {
		return BadRequestResponse(c, "slave_id is required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err := h.accounts.UpdateSlaveLogin(ctx, usecase.UpdateLoginInput{
		SlaveID:   req.SlaveID,
		AccountNo: req.MTAccountNo,
		Password:  req.MTPassword,
		Server:    req.MTServer,
	}, middleware.GetActor(c))
	if err != nil {
		return AppErrorResponse(c, err)
	}

	return SuccessMessageResponse(c, "Slave login updated successfully", map[string]interface{}{
		"slave_id": req.SlaveID,
	})
}

// DeleteSlave removes a slave
// DELETE /api/slave-delete
func (h *AccountHandler) DeleteSlave(c echo.Context) error {
	var req dto.DeleteSlaveRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}
	if strings.TrimSpace(req.SlaveID) == "" {
		return BadRequestResponse(c, "slave_id is required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.accounts.DeleteSlave(ctx, req.SlaveID, middleware.GetActor(c)); err != nil {
		return AppErrorResponse(c, err)
	}

	return SuccessMessageResponse(c, "Slave deleted successfully", map[string]interface{}{
		"slave_id": req.SlaveID,
	})
}

// AddMaster registers a master account
// POST /api/master-add
func (h *AccountHandler) AddMaster(c echo.Context) error {
	var req dto.AddMasterRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}
	if err := req.Validate(); err != nil {
		return BadRequestResponse(c, err.Error())
	}

	startDate, err := dto.ParseDate("start_date", req.StartDate)
	if err != nil {
		return BadRequestResponse(c, err.Error())
	}
	endDate, err := dto.ParseDate("end_date", req.EndDate)
	if err != nil {
		return BadRequestResponse(c, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	master, err := h.accounts.CreateMaster(ctx, usecase.CreateMasterInput{
		Name:          req.Name,
		Email:         req.Email,
		Password:      req.Password,
		MobileNumber:  req.MobileNumber,
		AllowedSlaves: req.NoOfSlave,
		Active:        req.Active(),
		StartDate:     startDate,
		EndDate:       endDate,
	}, middleware.GetActor(c))
	if err != nil {
		return AppErrorResponse(c, err)
	}

	return SuccessMessageResponse(c, "Master added successfully", master)
}

// ListMasters returns every master without credentials
// GET /api/all-masters
func (h *AccountHandler) ListMasters(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	masters, err := h.accounts.ListMasters(ctx)
	if err != nil {
		return AppErrorResponse(c, err)
	}

	return SuccessResponse(c, map[string]interface{}{
		"masters": masters,
		"count":   len(masters),
	})
}

// SetMasterStatus activates or deactivates a master
// POST /api/master-status
func (h *AccountHandler) SetMasterStatus(c echo.Context) error {
	var req dto.StatusRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}
	if strings.TrimSpace(req.MasterID) == "" {
		return BadRequestResponse(c, "master_id is required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.accounts.SetMasterStatus(ctx, req.MasterID, req.Status, middleware.GetActor(c)); err != nil {
		return AppErrorResponse(c, err)
	}

	return SuccessMessageResponse(c, "Master status updated successfully", map[string]interface{}{
		"master_id": req.MasterID,
		"status":    domain.StatusFromBool(req.Status),
	})
}
