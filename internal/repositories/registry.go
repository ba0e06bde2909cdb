package repositories

// RepositoryContainer содержит все репозитории приложения.
type RepositoryContainer struct {
	User              UserRepository
	Plan              PlanRepository
	History           HistoryRepository
	Audit             AuditRepository
	CreditTransaction CreditTransactionRepository
	Selic             SelicRepository
}

func NewRepositoryContainer() *RepositoryContainer {
	return &RepositoryContainer{
		User:              NewUserRepository(),
		Plan:              NewPlanRepository(),
		History:           NewHistoryRepository(),
		Audit:             NewAuditRepository(),
		CreditTransaction: NewCreditTransactionRepository(),
		Selic:             NewSelicRepository(),
	}
}
