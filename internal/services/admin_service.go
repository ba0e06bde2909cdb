package services

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"time"

	"torres_backend/database"
	"torres_backend/internal/appErrors"
	"torres_backend/internal/auth"
	"torres_backend/internal/lock"
	"torres_backend/internal/logger"
	"torres_backend/internal/models"
	"torres_backend/internal/repositories"
	"torres_backend/internal/services/dto"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	// AdminLockKey serializes mutating admin operations across processes.
	AdminLockKey = "admin-ops"
	adminLockTTL = 10 * time.Minute

	// ResetConfirmation is the exact text the operator must supply to reset-db.
	ResetConfirmation = "CONFIRMO"

	// AuditRetention - записи аудита старше этого срока удаляются cleanup-logs
	AuditRetention = 365 * 24 * time.Hour
)

type sampleUser struct {
	email    string
	password string
}

var sampleUsers = []sampleUser{
	{"joao@exemplo.com", "senha123A"},
	{"maria@exemplo.com", "senha123B"},
	{"carlos@exemplo.com", "senha123C"},
}

// AdminService - привилегированные операции обслуживания.
// Каждая операция выполняется в одной транзакции: коммит в конце, откат при любой ошибке.
type AdminService interface {
	Migrate(ctx context.Context) error
	CreateAdmin(ctx context.Context, email, password string) (*dto.CreateAdminResult, error)
	ResetDB(ctx context.Context, confirmation string) error
	SeedData(ctx context.Context) (*dto.SeedResult, error)
	CleanupLogs(ctx context.Context) (*dto.CleanupResult, error)
	ExpirePlans(ctx context.Context) (*dto.ExpirePlansResult, error)
	Stats(ctx context.Context) (*dto.StatsReport, error)
	SeedSelic(ctx context.Context, r io.Reader) (*dto.SelicSeedResult, error)
	IssueToken(ctx context.Context, email string) (*dto.TokenResult, error)
}

type AdminOption func(*adminService)

// WithClock overrides the time source used for retention and daily counters.
func WithClock(now func() time.Time) AdminOption {
	return func(s *adminService) { s.now = now }
}

// WithRand overrides the random source used by SeedData.
func WithRand(r *rand.Rand) AdminOption {
	return func(s *adminService) { s.rnd = r }
}

func WithLocker(l lock.Locker) AdminOption {
	return func(s *adminService) { s.locker = l }
}

type adminService struct {
	db          *gorm.DB
	entitlement EntitlementService
	audit       AuditService
	repos       *repositories.RepositoryContainer
	tokens      *auth.TokenIssuer
	locker      lock.Locker
	now         func() time.Time
	rnd         *rand.Rand
}

func NewAdminService(
	db *gorm.DB,
	entitlement EntitlementService,
	audit AuditService,
	repos *repositories.RepositoryContainer,
	tokens *auth.TokenIssuer,
	opts ...AdminOption,
) AdminService {
	s := &adminService{
		db:          db,
		entitlement: entitlement,
		audit:       audit,
		repos:       repos,
		tokens:      tokens,
		locker:      lock.NoopLocker{},
		now:         time.Now,
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate создает недостающие таблицы и индексы, данные не трогает.
func (s *adminService) Migrate(ctx context.Context) error {
	return s.run(ctx, "migrate", true, func(tx *gorm.DB) error {
		if err := database.AutoMigrate(tx); err != nil {
			return appErrors.DatabaseError(err)
		}
		return nil
	})
}

// CreateAdmin регистрирует пользователя и выдает ему 1000 кредитов и план Enterprise.
// Существующий email - конфликт без изменений.
func (s *adminService) CreateAdmin(ctx context.Context, email, password string) (*dto.CreateAdminResult, error) {
	var result *dto.CreateAdminResult

	err := s.run(ctx, "create-admin", true, func(tx *gorm.DB) error {
		if _, err := s.repos.User.FindByEmail(tx, email); err == nil {
			return appErrors.ErrEmailAlreadyExists.WithDetails(map[string]string{"email": email})
		} else if !errors.Is(err, repositories.ErrUserNotFound) {
			return appErrors.DatabaseError(err)
		}

		user, err := s.entitlement.RegisterNewUser(ctx, tx, &dto.UserCreate{Email: email, Password: password})
		if err != nil {
			return err
		}
		if err := s.repos.User.MarkAdmin(tx, user.ID); err != nil {
			return appErrors.DatabaseError(err)
		}
		user, err = s.entitlement.SetCredits(ctx, tx, user.ID, models.AdminCredits, "Admin bootstrap grant")
		if err != nil {
			return err
		}
		plan, err := s.entitlement.AssignPlan(ctx, tx, user.ID, models.EnterpriseAdminPlan())
		if err != nil {
			return err
		}

		if _, err := s.audit.LogAction(ctx, tx, dto.AuditEntry{
			UserID:       &user.ID,
			Action:       models.AuditActionAdminCreate,
			ResourceType: "user",
			ResourceID:   user.ID,
			NewValues: map[string]interface{}{
				"email":    user.Email,
				"credits":  user.Credits,
				"plan":     plan.PlanType,
				"is_admin": true,
			},
		}); err != nil {
			return appErrors.DatabaseError(err)
		}

		result = &dto.CreateAdminResult{
			UserID:  user.ID,
			Email:   user.Email,
			Credits: user.Credits,
			Plan:    plan.PlanType,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ResetDB удаляет и пересоздает всю схему. Без точного текста подтверждения
// ничего не трогает.
func (s *adminService) ResetDB(ctx context.Context, confirmation string) error {
	if confirmation != ResetConfirmation {
		logger.Warn("Database reset declined")
		return appErrors.ErrConfirmationDeclined
	}

	return s.run(ctx, "reset-db", true, func(tx *gorm.DB) error {
		if err := database.ResetSchema(tx); err != nil {
			return appErrors.DatabaseError(err)
		}
		logger.Warn("Database schema dropped and recreated")
		return nil
	})
}

// SeedData создает пользователей-примеры с историей расчетов. Уже существующие
// пропускаются.
func (s *adminService) SeedData(ctx context.Context) (*dto.SeedResult, error) {
	result := &dto.SeedResult{}

	err := s.run(ctx, "seed-data", true, func(tx *gorm.DB) error {
		for _, sample := range sampleUsers {
			if _, err := s.repos.User.FindByEmail(tx, sample.email); err == nil {
				result.Skipped = append(result.Skipped, sample.email)
				continue
			} else if !errors.Is(err, repositories.ErrUserNotFound) {
				return appErrors.DatabaseError(err)
			}

			user, err := s.entitlement.RegisterNewUser(ctx, tx, &dto.UserCreate{
				Email:    sample.email,
				Password: sample.password,
			})
			if err != nil {
				return err
			}

			entries := s.sampleHistory(user.ID)
			if err := s.repos.History.CreateBatch(tx, entries); err != nil {
				return appErrors.DatabaseError(err)
			}
			result.Created = append(result.Created, dto.SeedUserResult{
				Email:          user.Email,
				HistoryCreated: len(entries),
			})
		}

		_, err := s.audit.LogAction(ctx, tx, dto.AuditEntry{
			Action:       models.AuditActionAdminSeed,
			ResourceType: "user",
			NewValues: map[string]interface{}{
				"created": len(result.Created),
				"skipped": result.Skipped,
			},
		})
		if err != nil {
			return appErrors.DatabaseError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// sampleHistory returns 3 to 8 synthetic calculations.
func (s *adminService) sampleHistory(userID string) []models.QueryHistory {
	n := 3 + s.rnd.Intn(6)
	entries := make([]models.QueryHistory, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, models.QueryHistory{
			UserID:            userID,
			IcmsValue:         s.randomAmount(100, 10000),
			Months:            1 + s.rnd.Intn(24),
			CalculatedValue:   s.randomAmount(50, 5000),
			CalculationTimeMs: 10 + s.rnd.Intn(191),
		})
	}
	return entries
}

func (s *adminService) randomAmount(lo, hi float64) decimal.Decimal {
	return decimal.NewFromFloat(lo + s.rnd.Float64()*(hi-lo)).Round(2)
}

// CleanupLogs удаляет записи аудита старше года.
func (s *adminService) CleanupLogs(ctx context.Context) (*dto.CleanupResult, error) {
	cutoff := s.now().Add(-AuditRetention)
	result := &dto.CleanupResult{Cutoff: cutoff}

	err := s.run(ctx, "cleanup-logs", true, func(tx *gorm.DB) error {
		start := time.Now()
		removed, err := s.repos.Audit.DeleteOlderThan(tx, cutoff)
		logger.DBLog("delete audit_logs", removed, time.Since(start), err)
		if err != nil {
			return appErrors.DatabaseError(err)
		}
		result.Removed = removed

		_, err = s.audit.LogAction(ctx, tx, dto.AuditEntry{
			Action:       models.AuditActionAdminCleanup,
			ResourceType: "audit_log",
			NewValues: map[string]interface{}{
				"removed": removed,
				"cutoff":  cutoff.Format(time.RFC3339),
			},
		})
		if err != nil {
			return appErrors.DatabaseError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ExpirePlans переводит пользователей с истекшим планом на бесплатный.
func (s *adminService) ExpirePlans(ctx context.Context) (*dto.ExpirePlansResult, error) {
	now := s.now()
	result := &dto.ExpirePlansResult{}

	err := s.run(ctx, "expire-plans", true, func(tx *gorm.DB) error {
		expired, err := s.repos.Plan.FindExpiredActive(tx, now)
		if err != nil {
			return appErrors.DatabaseError(err)
		}
		for _, plan := range expired {
			if _, err := s.entitlement.AssignPlan(ctx, tx, plan.UserID, models.FreePlan()); err != nil {
				return err
			}
			result.UserIDs = append(result.UserIDs, plan.UserID)
		}
		result.Expired = len(result.UserIDs)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Stats собирает сводку по пользователям, планам и расчетам.
func (s *adminService) Stats(ctx context.Context) (*dto.StatsReport, error) {
	now := s.now()
	report := &dto.StatsReport{GeneratedAt: now}

	err := s.run(ctx, "stats", false, func(tx *gorm.DB) error {
		var err error
		if report.TotalUsers, err = s.repos.User.CountAll(tx); err != nil {
			return appErrors.DatabaseError(err)
		}
		if report.TotalCalculations, err = s.repos.History.CountAll(tx); err != nil {
			return appErrors.DatabaseError(err)
		}
		if report.CalculationsToday, err = s.repos.History.CountSince(tx, startOfDay(now)); err != nil {
			return appErrors.DatabaseError(err)
		}
		if report.UsersWithActivePlan, err = s.repos.Plan.CountUsersWithActivePlan(tx); err != nil {
			return appErrors.DatabaseError(err)
		}
		if report.AvgCalculationTimeMs, err = s.repos.History.AverageCalculationTime(tx); err != nil {
			return appErrors.DatabaseError(err)
		}

		byPlan, err := s.repos.Plan.CountActiveUsersByPlanType(tx)
		if err != nil {
			return appErrors.DatabaseError(err)
		}
		report.UsersByPlan = planBreakdown(byPlan)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// planBreakdown lists every known tier in quota order, then any unknown ones.
func planBreakdown(counts map[models.PlanType]int64) []dto.PlanCount {
	breakdown := make([]dto.PlanCount, 0, len(counts))
	for _, pt := range models.PlanTypes {
		breakdown = append(breakdown, dto.PlanCount{Plan: pt, Users: counts[pt]})
	}

	var unknown []models.PlanType
	for pt := range counts {
		if !pt.IsValid() {
			unknown = append(unknown, pt)
		}
	}
	sort.Slice(unknown, func(i, j int) bool { return unknown[i] < unknown[j] })
	for _, pt := range unknown {
		breakdown = append(breakdown, dto.PlanCount{Plan: pt, Users: counts[pt]})
	}
	return breakdown
}

// SeedSelic загружает месячные ставки SELIC из выгрузки BCB.
// Первые две строки - заголовок; строки с неверным форматом пропускаются.
func (s *adminService) SeedSelic(ctx context.Context, r io.Reader) (*dto.SelicSeedResult, error) {
	rates, skipped, err := parseSelic(r)
	if err != nil {
		return nil, appErrors.ValidationError(map[string]string{"file": err.Error()}).WithError(err)
	}
	result := &dto.SelicSeedResult{Imported: len(rates), Skipped: skipped}
	if len(rates) == 0 {
		return result, nil
	}

	err = s.run(ctx, "seed-selic", true, func(tx *gorm.DB) error {
		if err := s.repos.Selic.Upsert(tx, rates); err != nil {
			return appErrors.DatabaseError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func parseSelic(r io.Reader) ([]models.SelicRate, int, error) {
	hundred := decimal.NewFromInt(100)
	scanner := bufio.NewScanner(r)

	var (
		rates   []models.SelicRate
		skipped int
		lineNo  int
	)
	for scanner.Scan() {
		lineNo++
		if lineNo <= 2 {
			continue
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		rate, ok := parseSelicLine(line, hundred)
		if !ok {
			logger.Warn("Skipping malformed SELIC line", "line", lineNo, "text", line)
			skipped++
			continue
		}
		rates = append(rates, rate)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read SELIC file: %w", err)
	}
	return rates, skipped, nil
}

// parseSelicLine reads "YYYY.MM ... rate" where rate is a percentage with a
// comma decimal separator.
func parseSelicLine(line string, hundred decimal.Decimal) (models.SelicRate, bool) {
	parts := strings.Fields(line)
	if len(parts) < 2 {
		return models.SelicRate{}, false
	}

	period := strings.Split(parts[0], ".")
	if len(period) != 2 {
		return models.SelicRate{}, false
	}
	year, err := strconv.Atoi(period[0])
	if err != nil {
		return models.SelicRate{}, false
	}
	month, err := strconv.Atoi(period[1])
	if err != nil || month < 1 || month > 12 {
		return models.SelicRate{}, false
	}

	pct, err := decimal.NewFromString(strings.ReplaceAll(parts[len(parts)-1], ",", "."))
	if err != nil {
		return models.SelicRate{}, false
	}
	return models.SelicRate{Year: year, Month: month, Rate: pct.Div(hundred)}, true
}

// IssueToken выпускает access token для существующего пользователя.
func (s *adminService) IssueToken(ctx context.Context, email string) (*dto.TokenResult, error) {
	if s.tokens == nil {
		return nil, appErrors.ConfigError(errors.New("token issuer is not configured"))
	}

	var result *dto.TokenResult
	err := s.run(ctx, "issue-token", false, func(tx *gorm.DB) error {
		user, err := s.repos.User.FindByEmail(tx, email)
		if err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return appErrors.ErrUserNotFound.WithDetails(map[string]string{"email": email})
			}
			return appErrors.DatabaseError(err)
		}

		token, expiresAt, err := s.tokens.Issue(user.ID, user.Email, user.IsAdmin)
		if err != nil {
			return appErrors.InternalError(err)
		}
		result = &dto.TokenResult{AccessToken: token, TokenType: "bearer", ExpiresAt: expiresAt}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// run выполняет fn в одной транзакции; exclusive операции берут admin-lock.
func (s *adminService) run(ctx context.Context, op string, exclusive bool, fn func(tx *gorm.DB) error) (err error) {
	start := time.Now()
	defer func() { logger.OpLog(op, time.Since(start), err) }()

	if exclusive {
		held, lerr := s.locker.Acquire(ctx, AdminLockKey, adminLockTTL)
		if lerr != nil {
			if errors.Is(lerr, lock.ErrLockNotAcquired) {
				return appErrors.ErrOperationInProgress
			}
			return appErrors.InternalError(fmt.Errorf("acquire admin lock: %w", lerr))
		}
		defer func() {
			if rerr := held.Release(context.WithoutCancel(ctx)); rerr != nil {
				logger.Warn("Failed to release admin lock", "operation", op, "error", rerr)
			}
		}()
	}

	if err = s.db.WithContext(ctx).Transaction(fn); err != nil {
		var appErr *appErrors.AppError
		if !errors.As(err, &appErr) {
			err = appErrors.DatabaseError(err)
		}
	}
	return err
}
