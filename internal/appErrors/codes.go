package appErrors

// Коды ошибок сгруппированные по доменам
const (
	// Валидация
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeInvalidPlan      ErrorCode = "INVALID_PLAN"

	// Ресурсы
	CodeUserNotFound ErrorCode = "USER_NOT_FOUND"
	CodePlanNotFound ErrorCode = "PLAN_NOT_FOUND"

	// Бизнес-логика
	CodeEmailAlreadyExists   ErrorCode = "EMAIL_ALREADY_EXISTS"
	CodeInsufficientCredits  ErrorCode = "INSUFFICIENT_CREDITS"
	CodeDailyLimitReached    ErrorCode = "DAILY_LIMIT_REACHED"
	CodeConfirmationDeclined ErrorCode = "CONFIRMATION_DECLINED"
	CodeOperationInProgress  ErrorCode = "OPERATION_IN_PROGRESS"

	// Системные ошибки
	CodeInternalError ErrorCode = "INTERNAL_ERROR"
	CodeDatabaseError ErrorCode = "DATABASE_ERROR"
	CodeConfigInvalid ErrorCode = "CONFIG_INVALID"
)
