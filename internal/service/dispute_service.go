package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/telehealth-backend/internal/domain/settlement"
	"github.com/ignatzorin/telehealth-backend/internal/domain/valueobject"
	"github.com/ignatzorin/telehealth-backend/internal/logger"
	"github.com/ignatzorin/telehealth-backend/internal/models"
	"github.com/ignatzorin/telehealth-backend/internal/pkg/apperror"
	"github.com/ignatzorin/telehealth-backend/internal/repository"
	"github.com/ignatzorin/telehealth-backend/internal/repository/common"
	"github.com/ignatzorin/telehealth-backend/internal/validation"
)

// EventAppointmentResolved - событие для обеих сторон приёма после фиксации урегулирования.
const EventAppointmentResolved = "appointment_resolved"

const (
	defaultCasesLimit = 20
	maxCasesLimit     = 100
)

// TxRunner открывает транзакцию, в которой выполняется всё урегулирование.
type TxRunner interface {
	WithinTransaction(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

type AppointmentStore interface {
	LockForResolution(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*models.Appointment, error)
	SaveResolution(ctx context.Context, tx *sqlx.Tx, res models.AppointmentResolution) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Appointment, error)
	List(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, int, error)
}

type WalletLedger interface {
	UpdateBalance(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, delta decimal.Decimal) error
}

type SubscriptionCredits interface {
	RefundSession(ctx context.Context, tx *sqlx.Tx, subscriptionID uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.CustomerSubscription, error)
}

type PayoutRecorder interface {
	CreatePayout(ctx context.Context, tx *sqlx.Tx, payeeID uuid.UUID, amount decimal.Decimal, appointmentID uuid.UUID) (*models.Payment, error)
	ListPayoutsByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]models.Payment, error)
}

// WSNotifier интерфейс для отправки WebSocket уведомлений.
type WSNotifier interface {
	BroadcastToUser(userID uuid.UUID, event string, data interface{}) error
}

// ResolutionMetrics собирает метрики урегулирования.
type ResolutionMetrics interface {
	ObserveResolved(decision, funding string, customerRefund, providerPayout, platformRetained decimal.Decimal, elapsed time.Duration)
	ObserveFailed(decision, code string, elapsed time.Duration)
}

// DisputeService урегулирует спорные приёмы: блокирует приём, строит план по политике,
// проводит движения по кошелькам и подпискам и записывает аудит в одной транзакции.
type DisputeService struct {
	tx            TxRunner
	appointments  AppointmentStore
	wallets       WalletLedger
	subscriptions SubscriptionCredits
	payments      PayoutRecorder
	policy        *settlement.Policy
	hub           WSNotifier
	metrics       ResolutionMetrics
	now           func() time.Time
}

func NewDisputeService(
	tx TxRunner,
	appointments AppointmentStore,
	wallets WalletLedger,
	subscriptions SubscriptionCredits,
	payments PayoutRecorder,
	policy *settlement.Policy,
) *DisputeService {
	return &DisputeService{
		tx:            tx,
		appointments:  appointments,
		wallets:       wallets,
		subscriptions: subscriptions,
		payments:      payments,
		policy:        policy,
		now:           time.Now,
	}
}

// SetHub устанавливает WebSocket hub для отправки уведомлений.
func (s *DisputeService) SetHub(hub WSNotifier) {
	s.hub = hub
}

func (s *DisputeService) SetMetrics(m ResolutionMetrics) {
	s.metrics = m
}

// ResolveDisputeInput описывает решение администратора по приёму.
type ResolveDisputeInput struct {
	AppointmentID uuid.UUID
	AdminID       uuid.UUID
	Decision      string
	AdminNote     string
	RefundAmount  *decimal.Decimal
	FinalReason   *string
}

// ResolveDisputeResult - итог урегулирования.
type ResolveDisputeResult struct {
	AppointmentID     uuid.UUID
	FinalStatus       valueobject.AppointmentStatus
	Decision          valueobject.DisputeDecision
	TerminationReason *valueobject.TerminationReason
	CustomerRefund    decimal.Decimal
	ProviderPayout    decimal.Decimal
	PlatformRetained  decimal.Decimal
	SessionsRestored  int
	Payouts           []models.Payment
	ResolvedAt        time.Time
	ResolvedBy        uuid.UUID
}

type resolveCommand struct {
	kind   valueobject.DisputeDecision
	refund *decimal.Decimal
	note   string
	reason *valueobject.TerminationReason
}

// parseResolveInput проверяет форму запроса до открытия транзакции.
// Сумма частичного возврата проверяется позже, после статуса приёма.
func parseResolveInput(in ResolveDisputeInput) (*resolveCommand, error) {
	if in.AdminID == uuid.Nil {
		return nil, apperror.ErrUnauthorized
	}

	if err := validation.ValidateAdminNote(in.AdminNote); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	note := strings.TrimSpace(in.AdminNote)

	kind, err := valueobject.NewDisputeDecision(in.Decision)
	if err != nil {
		return nil, err
	}

	cmd := &resolveCommand{kind: kind, refund: in.RefundAmount, note: note}
	if in.FinalReason != nil && strings.TrimSpace(*in.FinalReason) != "" {
		reason, err := valueobject.NewDisputeReason(*in.FinalReason)
		if err != nil {
			return nil, err
		}
		cmd.reason = &reason
	}
	return cmd, nil
}

// ResolveDispute урегулирует спор по приёму. Любая ошибка откатывает транзакцию целиком,
// повторов нет: второй администратор ждёт блокировку и получает INVALID_STATE.
func (s *DisputeService) ResolveDispute(ctx context.Context, in ResolveDisputeInput) (*ResolveDisputeResult, error) {
	started := s.now()
	log := logger.Log.WithFields(logrus.Fields{
		"appointment_id": in.AppointmentID,
		"admin_id":       in.AdminID,
		"decision":       in.Decision,
	})

	cmd, err := parseResolveInput(in)
	if err != nil {
		s.observeFailure(in.Decision, err, started)
		log.WithError(err).Warn("Некорректный запрос на урегулирование спора")
		return nil, err
	}

	log.Info("Урегулирование спора по приёму")

	var (
		result      *ResolveDisputeResult
		appointment *models.Appointment
		plan        *settlement.Plan
	)
	err = s.tx.WithinTransaction(ctx, func(tx *sqlx.Tx) error {
		a, err := s.appointments.LockForResolution(ctx, tx, in.AppointmentID)
		if err != nil {
			return err
		}

		if a.IsResolved() {
			return apperror.Wrap(repository.ErrAppointmentAlreadyResolved, apperror.ErrCodeInvalidState, "приём уже урегулирован")
		}
		if !a.Status.IsResolvable() {
			return apperror.New(apperror.ErrCodeInvalidState,
				fmt.Sprintf("приём в статусе %s нельзя урегулировать", a.Status))
		}

		decision, err := settlement.NewDecision(cmd.kind, cmd.refund)
		if err != nil {
			return err
		}

		p, err := s.policy.Plan(settlement.Input{
			Funding:        a.Funding(),
			Decision:       decision,
			CurrentReason:  a.TerminationReason,
			ReasonOverride: cmd.reason,
		})
		if err != nil {
			return err
		}
		if !a.Status.CanTransitionTo(p.Status) {
			return apperror.New(apperror.ErrCodeInvalidState,
				fmt.Sprintf("переход %s -> %s не допускается", a.Status, p.Status))
		}

		if err := checkBeneficiaries(a, p); err != nil {
			return err
		}

		payouts, err := s.applyPlan(ctx, tx, a, p, log)
		if err != nil {
			return err
		}

		resolvedAt := s.now().UTC()
		if err := s.appointments.SaveResolution(ctx, tx, models.AppointmentResolution{
			AppointmentID:     a.ID,
			Status:            p.Status,
			TerminationReason: p.TerminationReason,
			AdminNote:         cmd.note,
			ResolvedAt:        resolvedAt,
			ResolvedBy:        in.AdminID,
		}); err != nil {
			return err
		}

		appointment, plan = a, p
		result = &ResolveDisputeResult{
			AppointmentID:     a.ID,
			FinalStatus:       p.Status,
			Decision:          p.Decision,
			TerminationReason: p.TerminationReason,
			CustomerRefund:    p.CustomerRefund,
			ProviderPayout:    p.ProviderPayout,
			PlatformRetained:  p.PlatformRetained,
			SessionsRestored:  p.SessionsRestored,
			Payouts:           payouts,
			ResolvedAt:        resolvedAt,
			ResolvedBy:        in.AdminID,
		}
		return nil
	})
	if err != nil {
		err = mapResolveError(err)
		s.observeFailure(in.Decision, err, started)
		if isRejection(err) {
			log.WithError(err).Warn("Урегулирование спора отклонено")
		} else {
			log.WithError(err).Error("Урегулирование спора отменено")
		}
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"final_status":      result.FinalStatus,
		"funding":           plan.Funding,
		"customer_refund":   result.CustomerRefund.String(),
		"provider_payout":   result.ProviderPayout.String(),
		"platform_retained": result.PlatformRetained.String(),
		"sessions_restored": result.SessionsRestored,
	}).Info("Спор по приёму урегулирован")

	if s.metrics != nil {
		s.metrics.ObserveResolved(string(plan.Decision), string(plan.Funding),
			plan.CustomerRefund, plan.ProviderPayout, plan.PlatformRetained, s.now().Sub(started))
	}
	s.notifyResolved(appointment, result)

	return result, nil
}

// checkBeneficiaries проверяет, что у каждой стороны, которой начисляются деньги, есть пользователь-владелец кошелька.
func checkBeneficiaries(a *models.Appointment, plan *settlement.Plan) error {
	for _, m := range plan.Movements {
		switch m.Kind {
		case settlement.MovementCustomerRefund:
			if a.CustomerUserID == nil {
				return apperror.New(apperror.ErrCodeMissingLinkedData, "у клиента приёма нет привязанного пользователя")
			}
		case settlement.MovementProviderPayout:
			if a.DermatologistUserID == nil {
				return apperror.New(apperror.ErrCodeMissingLinkedData, "у врача приёма нет привязанного пользователя")
			}
		}
	}
	return nil
}

func (s *DisputeService) applyPlan(ctx context.Context, tx *sqlx.Tx, a *models.Appointment, plan *settlement.Plan, log *logrus.Entry) ([]models.Payment, error) {
	payouts := make([]models.Payment, 0)

	for _, m := range plan.Movements {
		switch m.Kind {
		case settlement.MovementCustomerRefund:
			if err := s.wallets.UpdateBalance(ctx, tx, *a.CustomerUserID, m.Amount); err != nil {
				return nil, err
			}
			log.WithField("amount", m.Amount.String()).Info("Возврат клиенту на кошелёк")

		case settlement.MovementProviderPayout:
			if err := s.wallets.UpdateBalance(ctx, tx, *a.DermatologistUserID, m.Amount); err != nil {
				return nil, err
			}
			fields := logrus.Fields{"amount": m.Amount.String(), "fee_rate": s.policy.FeeRate().String()}
			if m.RequiresPaymentRecord() {
				payment, err := s.payments.CreatePayout(ctx, tx, *a.DermatologistUserID, m.Amount, a.ID)
				if err != nil {
					return nil, err
				}
				payouts = append(payouts, *payment)
				fields["payment_code"] = payment.PaymentCode
			}
			log.WithFields(fields).Info("Выплата врачу на кошелёк")

		case settlement.MovementSessionRestore:
			if err := s.subscriptions.RefundSession(ctx, tx, m.SubscriptionID); err != nil {
				return nil, err
			}
			log.WithField("subscription_id", m.SubscriptionID).Info("Сессия возвращена на подписку клиента")

		default:
			return nil, fmt.Errorf("dispute service: unknown movement %q", m.Kind)
		}
	}

	return payouts, nil
}

// mapResolveError переводит ошибки репозиториев и БД в доменные ошибки.
func mapResolveError(err error) error {
	if _, ok := apperror.As(err); ok {
		return err
	}

	switch {
	case errors.Is(err, repository.ErrAppointmentNotFound):
		return apperror.Wrap(err, apperror.ErrCodeNotFound, "приём не найден")
	case errors.Is(err, repository.ErrAppointmentAlreadyResolved):
		return apperror.Wrap(err, apperror.ErrCodeInvalidState, "приём уже урегулирован")
	case errors.Is(err, repository.ErrUserNotFound):
		return apperror.Wrap(err, apperror.ErrCodeMissingLinkedData, "пользователь-получатель средств не найден")
	case errors.Is(err, repository.ErrSubscriptionNotFound):
		return apperror.Wrap(err, apperror.ErrCodeNotFound, "подписка клиента не найдена")
	case errors.Is(err, repository.ErrInsufficientFunds):
		return apperror.Wrap(err, apperror.ErrCodeBadRequest, "недостаточно средств на балансе")
	case common.IsLockNotAvailable(err):
		return apperror.Wrap(err, apperror.ErrCodeConflict, "приём сейчас урегулирует другой администратор, повторите позже")
	default:
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось урегулировать спор")
	}
}

// isRejection - отказ по бизнес-правилам, а не сбой инфраструктуры.
func isRejection(err error) bool {
	return apperror.IsValidation(err) || apperror.IsInvalidState(err) ||
		apperror.IsNotFound(err) || apperror.IsMissingLinkedData(err)
}

func (s *DisputeService) observeFailure(decision string, err error, started time.Time) {
	if s.metrics == nil {
		return
	}
	code := string(apperror.ErrCodeInternal)
	if appErr, ok := apperror.As(err); ok {
		code = string(appErr.Code)
	}
	s.metrics.ObserveFailed(strings.ToUpper(strings.TrimSpace(decision)), code, s.now().Sub(started))
}

// notifyResolved рассылает событие сторонам приёма. Ошибки доставки не влияют на результат.
func (s *DisputeService) notifyResolved(a *models.Appointment, result *ResolveDisputeResult) {
	if s.hub == nil {
		return
	}

	payload := map[string]interface{}{
		"appointment_id":     result.AppointmentID,
		"status":             result.FinalStatus,
		"decision":           result.Decision,
		"termination_reason": result.TerminationReason,
		"resolved_at":        result.ResolvedAt,
	}

	for _, userID := range []*uuid.UUID{a.CustomerUserID, a.DermatologistUserID} {
		if userID == nil {
			continue
		}
		if err := s.hub.BroadcastToUser(*userID, EventAppointmentResolved, payload); err != nil {
			logger.Log.WithError(err).WithField("user_id", *userID).Warn("Не удалось отправить уведомление об урегулировании")
		}
	}
}

// AppointmentDetails - приём с источником оплаты для карточки администратора.
type AppointmentDetails struct {
	Appointment  *models.Appointment
	Funding      settlement.Funding
	Subscription *models.CustomerSubscription
}

func (s *DisputeService) GetAppointment(ctx context.Context, id uuid.UUID) (*AppointmentDetails, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, mapResolveError(err)
	}

	details := &AppointmentDetails{Appointment: a, Funding: a.Funding()}
	if details.Funding.Source == settlement.FundingSubscription {
		sub, err := s.subscriptions.GetByID(ctx, details.Funding.SubscriptionID)
		if err != nil && !errors.Is(err, repository.ErrSubscriptionNotFound) {
			return nil, mapResolveError(err)
		}
		details.Subscription = sub
	}
	return details, nil
}

// ListCases возвращает приёмы в указанных статусах, по умолчанию - ожидающие урегулирования.
func (s *DisputeService) ListCases(ctx context.Context, statuses []string, limit, offset int) ([]models.Appointment, int, error) {
	filter := models.AppointmentFilter{Limit: limit, Offset: offset}
	for _, raw := range statuses {
		status, err := valueobject.NewAppointmentStatus(raw)
		if err != nil {
			return nil, 0, err
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	if len(filter.Statuses) == 0 {
		filter.Statuses = valueobject.ResolvableStatuses
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultCasesLimit
	}
	if filter.Limit > maxCasesLimit {
		filter.Limit = maxCasesLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	appointments, total, err := s.appointments.List(ctx, filter)
	if err != nil {
		return nil, 0, mapResolveError(err)
	}
	return appointments, total, nil
}

// ListCasePayouts возвращает записи о выплатах, сделанных при урегулировании приёма.
func (s *DisputeService) ListCasePayouts(ctx context.Context, appointmentID uuid.UUID) ([]models.Payment, error) {
	if _, err := s.appointments.GetByID(ctx, appointmentID); err != nil {
		return nil, mapResolveError(err)
	}

	payouts, err := s.payments.ListPayoutsByAppointment(ctx, appointmentID)
	if err != nil {
		return nil, mapResolveError(err)
	}
	return payouts, nil
}
