package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/telehealth-backend/internal/dto"
	"github.com/ignatzorin/telehealth-backend/internal/http/handlers/common"
	"github.com/ignatzorin/telehealth-backend/internal/models"
	"github.com/ignatzorin/telehealth-backend/internal/pkg/apperror"
	"github.com/ignatzorin/telehealth-backend/internal/service"
)

// DisputeResolver - операции администратора над спорными приёмами.
type DisputeResolver interface {
	ResolveDispute(ctx context.Context, in service.ResolveDisputeInput) (*service.ResolveDisputeResult, error)
	GetAppointment(ctx context.Context, id uuid.UUID) (*service.AppointmentDetails, error)
	ListCases(ctx context.Context, statuses []string, limit, offset int) ([]models.Appointment, int, error)
	ListCasePayouts(ctx context.Context, appointmentID uuid.UUID) ([]models.Payment, error)
}

type AdminAppointmentHandler struct {
	svc DisputeResolver
}

func NewAdminAppointmentHandler(svc DisputeResolver) *AdminAppointmentHandler {
	return &AdminAppointmentHandler{svc: svc}
}

// Resolve POST /admin/appointments/:id/resolve
func (h *AdminAppointmentHandler) Resolve(c *gin.Context) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		_ = c.Error(apperror.ErrUnauthorized)
		return
	}

	appointmentID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		_ = c.Error(apperror.Wrap(err, apperror.ErrCodeValidation, "некорректный id приёма"))
		return
	}

	var req dto.ResolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperror.Wrap(err, apperror.ErrCodeValidation, "некорректное тело запроса: "+err.Error()))
		return
	}

	result, err := h.svc.ResolveDispute(c.Request.Context(), service.ResolveDisputeInput{
		AppointmentID: appointmentID,
		AdminID:       adminID,
		Decision:      req.Decision,
		AdminNote:     req.AdminNote,
		RefundAmount:  req.RefundAmount,
		FinalReason:   req.FinalReason,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondSuccess(c, http.StatusOK, "спор урегулирован", dto.NewResolutionResponse(result))
}

// List GET /admin/appointments
func (h *AdminAppointmentHandler) List(c *gin.Context) {
	limit, offset := common.GetPagination(c)
	statuses := c.QueryArray("status")

	appointments, total, err := h.svc.ListCases(c.Request.Context(), statuses, limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if appointments == nil {
		appointments = []models.Appointment{}
	}

	c.JSON(http.StatusOK, dto.PaginatedAppointmentsResponse{
		Data:       appointments,
		Pagination: dto.NewPagination(total, limit, offset, len(appointments)),
	})
}

// Get GET /admin/appointments/:id
func (h *AdminAppointmentHandler) Get(c *gin.Context) {
	appointmentID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		_ = c.Error(apperror.Wrap(err, apperror.ErrCodeValidation, "некорректный id приёма"))
		return
	}

	details, err := h.svc.GetAppointment(c.Request.Context(), appointmentID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.NewAppointmentDetailResponse(details))
}

// ListPayouts GET /admin/appointments/:id/payouts
func (h *AdminAppointmentHandler) ListPayouts(c *gin.Context) {
	appointmentID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		_ = c.Error(apperror.Wrap(err, apperror.ErrCodeValidation, "некорректный id приёма"))
		return
	}

	payouts, err := h.svc.ListCasePayouts(c.Request.Context(), appointmentID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if payouts == nil {
		payouts = []models.Payment{}
	}
	c.JSON(http.StatusOK, gin.H{"data": payouts})
}
