package services

import (
	"torres_backend/internal/auth"
	"torres_backend/internal/lock"
	"torres_backend/internal/repositories"
	"torres_backend/internal/validator"

	"gorm.io/gorm"
)

// ServiceContainer содержит все сервисы приложения.
type ServiceContainer struct {
	Repositories       *repositories.RepositoryContainer
	AuditService       AuditService
	EntitlementService EntitlementService
	AdminService       AdminService
}

// NewServiceContainer собирает сервисы поверх одного подключения к БД.
// tokens может быть nil: тогда issue-token возвращает ошибку конфигурации.
func NewServiceContainer(db *gorm.DB, tokens *auth.TokenIssuer, locker lock.Locker, opts ...AdminOption) *ServiceContainer {
	repos := repositories.NewRepositoryContainer()
	auditService := NewAuditService(repos.Audit)
	entitlementService := NewEntitlementService(
		repos.User,
		repos.Plan,
		repos.History,
		repos.CreditTransaction,
		auditService,
		validator.New(),
	)

	if locker != nil {
		opts = append([]AdminOption{WithLocker(locker)}, opts...)
	}
	adminService := NewAdminService(db, entitlementService, auditService, repos, tokens, opts...)

	return &ServiceContainer{
		Repositories:       repos,
		AuditService:       auditService,
		EntitlementService: entitlementService,
		AdminService:       adminService,
	}
}
