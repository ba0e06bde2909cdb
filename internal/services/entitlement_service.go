package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"torres_backend/internal/appErrors"
	"torres_backend/internal/auth"
	"torres_backend/internal/logger"
	"torres_backend/internal/models"
	"torres_backend/internal/repositories"
	"torres_backend/internal/services/dto"
	"torres_backend/internal/validator"

	"gorm.io/gorm"
)

// EntitlementService manages users, their active plan and their credit balance.
// Every method works on the caller's session handle and never commits: the
// caller owns the transaction.
type EntitlementService interface {
	RegisterNewUser(ctx context.Context, db *gorm.DB, candidate *dto.UserCreate) (*models.User, error)
	SetCredits(ctx context.Context, db *gorm.DB, userID string, credits int, description string) (*models.User, error)
	GrantCredits(ctx context.Context, db *gorm.DB, userID string, amount int, description string) (*models.User, error)
	AssignPlan(ctx context.Context, db *gorm.DB, userID string, spec models.PlanSpec) (*models.UserPlan, error)
	ActivePlan(ctx context.Context, db *gorm.DB, userID string) (*models.UserPlan, error)
	ConsumeCredit(ctx context.Context, db *gorm.DB, userID string, record *dto.CalculationRecord) (*models.QueryHistory, error)
	PurchaseCredits(ctx context.Context, db *gorm.DB, userID string, purchase *dto.CreditPurchase) (*dto.PurchaseResult, error)
}

type entitlementService struct {
	userRepo    repositories.UserRepository
	planRepo    repositories.PlanRepository
	historyRepo repositories.HistoryRepository
	creditRepo  repositories.CreditTransactionRepository
	audit       AuditService
	validator   *validator.Validator
	now         func() time.Time
}

func NewEntitlementService(
	userRepo repositories.UserRepository,
	planRepo repositories.PlanRepository,
	historyRepo repositories.HistoryRepository,
	creditRepo repositories.CreditTransactionRepository,
	audit AuditService,
	v *validator.Validator,
) EntitlementService {
	return &entitlementService{
		userRepo:    userRepo,
		planRepo:    planRepo,
		historyRepo: historyRepo,
		creditRepo:  creditRepo,
		audit:       audit,
		validator:   v,
		now:         time.Now,
	}
}

// RegisterNewUser - регистрация пользователя с бесплатным планом и приветственными кредитами
func (s *entitlementService) RegisterNewUser(ctx context.Context, db *gorm.DB, candidate *dto.UserCreate) (*models.User, error) {
	if err := s.validate(candidate); err != nil {
		return nil, err
	}
	tx := db.WithContext(ctx)
	log := logger.FromContext(ctx).With("email", candidate.Email)

	hashed, err := auth.HashPassword(candidate.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, appErrors.ValidationError(map[string]string{"password": "Must be at most 72 bytes long"})
		}
		return nil, appErrors.InternalError(err)
	}

	user := &models.User{
		Email:          candidate.Email,
		HashedPassword: hashed,
		Credits:        models.WelcomeCredits,
		IsVerified:     true,
		IsActive:       true,
	}
	if candidate.ReferredByID != "" {
		if _, err := s.userRepo.FindByID(tx, candidate.ReferredByID); err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return nil, appErrors.ValidationError(map[string]string{"referred_by_id": "Unknown referrer"})
			}
			return nil, appErrors.DatabaseError(err)
		}
		referrerID := candidate.ReferredByID
		user.ReferredByID = &referrerID
	}
	if err := s.userRepo.Create(tx, user); err != nil {
		if errors.Is(err, repositories.ErrUserAlreadyExists) {
			return nil, appErrors.ErrEmailAlreadyExists
		}
		return nil, appErrors.DatabaseError(err)
	}

	if _, err := s.switchPlan(tx, user.ID, models.FreePlan()); err != nil {
		return nil, err
	}

	if err := s.creditRepo.Create(tx, &models.CreditTransaction{
		UserID:          user.ID,
		TransactionType: models.CreditTransactionBonus,
		Amount:          models.WelcomeCredits,
		BalanceBefore:   0,
		BalanceAfter:    models.WelcomeCredits,
		Description:     "Welcome bonus credits",
		ReferenceID:     "welcome_" + user.ID,
	}); err != nil {
		return nil, appErrors.DatabaseError(err)
	}

	if _, err := s.audit.LogAction(ctx, tx, dto.AuditEntry{
		UserID:       &user.ID,
		Action:       models.AuditActionRegister,
		ResourceType: "user",
		ResourceID:   user.ID,
		NewValues: map[string]interface{}{
			"email":   user.Email,
			"credits": user.Credits,
			"plan":    models.PlanTypeFree,
		},
	}); err != nil {
		return nil, appErrors.DatabaseError(err)
	}

	log.Info("User registered", "user_id", user.ID)
	return user, nil
}

// SetCredits выставляет баланс в точное значение (административное начисление).
func (s *entitlementService) SetCredits(ctx context.Context, db *gorm.DB, userID string, credits int, description string) (*models.User, error) {
	return s.changeBalance(ctx, db, userID, models.CreditTransactionGrant, description, func(current int) (int, error) {
		return credits, nil
	})
}

// GrantCredits добавляет кредиты к текущему балансу.
func (s *entitlementService) GrantCredits(ctx context.Context, db *gorm.DB, userID string, amount int, description string) (*models.User, error) {
	if amount <= 0 {
		return nil, appErrors.ValidationError(map[string]string{"amount": "Must be greater than 0"})
	}
	return s.changeBalance(ctx, db, userID, models.CreditTransactionGrant, description, func(current int) (int, error) {
		return current + amount, nil
	})
}

// AssignPlan делает план единственным активным планом пользователя.
func (s *entitlementService) AssignPlan(ctx context.Context, db *gorm.DB, userID string, spec models.PlanSpec) (*models.UserPlan, error) {
	planType, ok := models.ParsePlanType(string(spec.PlanType))
	if !ok {
		return nil, appErrors.ErrInvalidPlan.WithDetails(map[string]string{"plan_type": string(spec.PlanType)})
	}
	spec.PlanType = planType
	if err := s.validate(&spec); err != nil {
		return nil, err
	}
	tx := db.WithContext(ctx)

	if _, err := s.userRepo.FindByID(tx, userID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, appErrors.ErrUserNotFound
		}
		return nil, appErrors.DatabaseError(err)
	}

	var previous models.PlanType
	if current, err := s.planRepo.FindActiveByUserID(tx, userID); err == nil {
		previous = current.PlanType
	} else if !errors.Is(err, repositories.ErrPlanNotFound) {
		return nil, appErrors.DatabaseError(err)
	}

	plan, err := s.switchPlan(tx, userID, spec)
	if err != nil {
		return nil, err
	}

	var oldValues interface{}
	if previous != "" {
		oldValues = map[string]interface{}{"plan_type": previous}
	}
	if _, err := s.audit.LogAction(ctx, tx, dto.AuditEntry{
		UserID:       &userID,
		Action:       models.AuditActionPlanChange,
		ResourceType: "user_plan",
		ResourceID:   plan.ID,
		OldValues:    oldValues,
		NewValues: map[string]interface{}{
			"plan_type":                plan.PlanType,
			"credits_per_month":        plan.CreditsPerMonth,
			"max_calculations_per_day": plan.MaxCalculationsPerDay,
		},
	}); err != nil {
		return nil, appErrors.DatabaseError(err)
	}

	logger.FromContext(ctx).Info("Plan assigned",
		"user_id", userID,
		"from", previous,
		"to", plan.PlanType,
	)
	return plan, nil
}

func (s *entitlementService) ActivePlan(ctx context.Context, db *gorm.DB, userID string) (*models.UserPlan, error) {
	plan, err := s.planRepo.FindActiveByUserID(db.WithContext(ctx), userID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlanNotFound) {
			return nil, appErrors.ErrPlanNotFound
		}
		return nil, appErrors.DatabaseError(err)
	}
	return plan, nil
}

// ConsumeCredit списывает один кредит за расчет и сохраняет его в истории.
// Строка пользователя блокируется до конца транзакции вызывающего.
func (s *entitlementService) ConsumeCredit(ctx context.Context, db *gorm.DB, userID string, record *dto.CalculationRecord) (*models.QueryHistory, error) {
	if err := s.validate(record); err != nil {
		return nil, err
	}
	tx := db.WithContext(ctx)

	user, err := s.lockUser(tx, userID)
	if err != nil {
		return nil, err
	}
	if user.Credits <= 0 {
		return nil, appErrors.ErrInsufficientCredits
	}

	plan, err := s.ActivePlan(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	usedToday, err := s.historyRepo.CountByUserSince(tx, userID, startOfDay(s.now()))
	if err != nil {
		return nil, appErrors.DatabaseError(err)
	}
	if usedToday >= int64(plan.MaxCalculationsPerDay) {
		return nil, appErrors.ErrDailyLimitReached.WithDetails(map[string]interface{}{
			"limit": plan.MaxCalculationsPerDay,
			"used":  usedToday,
		})
	}

	entry := &models.QueryHistory{
		UserID:            userID,
		IcmsValue:         record.IcmsValue,
		Months:            record.Months,
		CalculatedValue:   record.CalculatedValue,
		CalculationTimeMs: record.CalculationTimeMs,
		IPAddress:         record.IPAddress,
		UserAgent:         record.UserAgent,
	}
	if err := s.historyRepo.Create(tx, entry); err != nil {
		return nil, appErrors.DatabaseError(err)
	}

	if err := s.applyBalance(tx, user, user.Credits-1, models.CreditTransactionUsage,
		"Calculation", "calc_"+entry.ID); err != nil {
		return nil, err
	}

	if _, err := s.audit.LogAction(ctx, tx, dto.AuditEntry{
		UserID:       &userID,
		Action:       models.AuditActionCalculation,
		ResourceType: "query_history",
		ResourceID:   entry.ID,
		IPAddress:    record.IPAddress,
		UserAgent:    record.UserAgent,
		NewValues: map[string]interface{}{
			"months":            entry.Months,
			"remaining_credits": user.Credits,
		},
	}); err != nil {
		return nil, appErrors.DatabaseError(err)
	}
	return entry, nil
}

// PurchaseCredits зачисляет оплаченный пакет кредитов. Платеж проводится один
// раз: повтор с тем же PaymentID ничего не меняет. Первая покупка приглашенного
// пользователя приносит бонус пригласившему, не более MaxReferralBonuses раз.
func (s *entitlementService) PurchaseCredits(ctx context.Context, db *gorm.DB, userID string, purchase *dto.CreditPurchase) (*dto.PurchaseResult, error) {
	if err := s.validate(purchase); err != nil {
		return nil, err
	}
	tx := db.WithContext(ctx)
	log := logger.FromContext(ctx).With("user_id", userID, "payment_id", purchase.PaymentID)

	user, err := s.lockUser(tx, userID)
	if err != nil {
		return nil, err
	}

	reference := "mp_" + purchase.PaymentID
	if _, err := s.creditRepo.FindByReference(tx, reference); err == nil {
		log.Warn("Payment already processed, skipping")
		return &dto.PurchaseResult{Balance: user.Credits, Duplicate: true}, nil
	} else if !errors.Is(err, repositories.ErrCreditTransactionNotFound) {
		return nil, appErrors.DatabaseError(err)
	}

	before := user.Credits
	if err := s.applyBalance(tx, user, before+purchase.Amount, models.CreditTransactionPurchase,
		fmt.Sprintf("Purchase of %d credits", purchase.Amount), reference); err != nil {
		return nil, err
	}

	if _, err := s.audit.LogAction(ctx, tx, dto.AuditEntry{
		UserID:       &userID,
		Action:       models.AuditActionCreditPurchase,
		ResourceType: "credit_transaction",
		ResourceID:   reference,
		OldValues:    map[string]interface{}{"credits": before},
		NewValues: map[string]interface{}{
			"credits":    user.Credits,
			"amount":     purchase.Amount,
			"payment_id": purchase.PaymentID,
		},
	}); err != nil {
		return nil, appErrors.DatabaseError(err)
	}

	result := &dto.PurchaseResult{Balance: user.Credits}
	if user.ReferredByID != nil {
		result.ReferrerID = *user.ReferredByID
		if result.ReferralGranted, err = s.grantReferralBonus(tx, user); err != nil {
			return nil, err
		}
	}

	log.Info("Credits purchased", "amount", purchase.Amount, "balance", user.Credits)
	return result, nil
}

// grantReferralBonus начисляет бонус пригласившему; false - если бонус уже
// выдан за этого пользователя или лимит пригласившего исчерпан.
func (s *entitlementService) grantReferralBonus(tx *gorm.DB, user *models.User) (bool, error) {
	reference := "referral_" + user.ID
	if _, err := s.creditRepo.FindByReference(tx, reference); err == nil {
		return false, nil
	} else if !errors.Is(err, repositories.ErrCreditTransactionNotFound) {
		return false, appErrors.DatabaseError(err)
	}

	referrer, err := s.userRepo.FindByIDForUpdate(tx, *user.ReferredByID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return false, nil
		}
		return false, appErrors.DatabaseError(err)
	}
	if referrer.ReferralCreditsEarned >= models.MaxReferralBonuses {
		return false, nil
	}

	if err := s.userRepo.IncrementReferralCredits(tx, referrer.ID); err != nil {
		return false, appErrors.DatabaseError(err)
	}
	if err := s.applyBalance(tx, referrer, referrer.Credits+models.ReferralBonusCredits, models.CreditTransactionReferral,
		"Referral bonus for user "+user.ID, reference); err != nil {
		return false, err
	}
	return true, nil
}

// switchPlan гасит активный план и вставляет новый; без аудита.
func (s *entitlementService) switchPlan(tx *gorm.DB, userID string, spec models.PlanSpec) (*models.UserPlan, error) {
	if _, err := s.planRepo.DeactivateActive(tx, userID); err != nil {
		return nil, appErrors.DatabaseError(err)
	}

	plan := &models.UserPlan{
		UserID:                userID,
		PlanType:              spec.PlanType,
		CreditsPerMonth:       spec.CreditsPerMonth,
		MaxCalculationsPerDay: spec.MaxCalculationsPerDay,
		ExpiresAt:             spec.ExpiresAt,
		IsActive:              true,
	}
	if err := s.planRepo.Create(tx, plan); err != nil {
		return nil, appErrors.DatabaseError(err)
	}
	return plan, nil
}

func (s *entitlementService) changeBalance(
	ctx context.Context,
	db *gorm.DB,
	userID string,
	kind models.CreditTransactionType,
	description string,
	next func(current int) (int, error),
) (*models.User, error) {
	tx := db.WithContext(ctx)

	user, err := s.lockUser(tx, userID)
	if err != nil {
		return nil, err
	}
	balance, err := next(user.Credits)
	if err != nil {
		return nil, err
	}
	if err := s.applyBalance(tx, user, balance, kind, description, ""); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("Credits changed",
		"user_id", userID,
		"type", kind,
		"balance", user.Credits,
	)
	return user, nil
}

// applyBalance пишет новый баланс и проводку; user обновляется на месте.
func (s *entitlementService) applyBalance(tx *gorm.DB, user *models.User, balance int, kind models.CreditTransactionType, description, reference string) error {
	before := user.Credits
	if err := s.userRepo.UpdateCredits(tx, user.ID, balance); err != nil {
		return appErrors.DatabaseError(err)
	}
	user.Credits = balance

	if err := s.creditRepo.Create(tx, &models.CreditTransaction{
		UserID:          user.ID,
		TransactionType: kind,
		Amount:          balance - before,
		BalanceBefore:   before,
		BalanceAfter:    balance,
		Description:     description,
		ReferenceID:     reference,
	}); err != nil {
		return appErrors.DatabaseError(err)
	}
	return nil
}

func (s *entitlementService) lockUser(tx *gorm.DB, userID string) (*models.User, error) {
	user, err := s.userRepo.FindByIDForUpdate(tx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, appErrors.ErrUserNotFound
		}
		return nil, appErrors.DatabaseError(err)
	}
	return user, nil
}

func (s *entitlementService) validate(i interface{}) error {
	if err := s.validator.Validate(i); err != nil {
		var vErr *validator.ValidationError
		if errors.As(err, &vErr) {
			return appErrors.ValidationError(vErr.Errors).WithError(err)
		}
		return appErrors.InternalError(fmt.Errorf("validation: %w", err))
	}
	return nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
