package errors

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrorInfo はエラーコードとユーザー向けメッセージの組
type ErrorInfo struct {
	Code    string
	Message string
}

// Postgres SQLSTATE codes
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// ConstraintTarget identifies which column a unique-constraint violation
// implicates, derived from the driver error's constraint identifier.
type ConstraintTarget int

const (
	ConstraintUnknown ConstraintTarget = iota
	ConstraintCategoryName
	ConstraintCategorySlug
	ConstraintUserEmail
	ConstraintPrimaryKey
)

// UniqueViolationTarget inspects err and, when it is a unique-constraint
// violation, returns the implicated column. Works against Postgres
// (pgconn.PgError) and the sqlite test driver (message text).
func UniqueViolationTarget(err error) (ConstraintTarget, bool) {
	if err == nil {
		return ConstraintUnknown, false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != pgUniqueViolation {
			return ConstraintUnknown, false
		}
		return targetFromIdentifier(pgErr.ConstraintName), true
	}

	// sqlite: "UNIQUE constraint failed: categories.name"
	errLower := strings.ToLower(err.Error())
	if strings.Contains(errLower, "unique constraint") || strings.Contains(errLower, "duplicate key") {
		return targetFromIdentifier(errLower), true
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ConstraintUnknown, true
	}

	return ConstraintUnknown, false
}

func targetFromIdentifier(identifier string) ConstraintTarget {
	id := strings.ToLower(identifier)
	switch {
	case strings.Contains(id, "categories") && strings.Contains(id, "name"):
		return ConstraintCategoryName
	case strings.Contains(id, "categories") && strings.Contains(id, "slug"):
		return ConstraintCategorySlug
	case strings.Contains(id, "users") && strings.Contains(id, "email"):
		return ConstraintUserEmail
	case strings.Contains(id, "pkey") || strings.Contains(id, "primary key") ||
		strings.Contains(id, "favorites") || strings.Contains(id, "restaurant_categories"):
		return ConstraintPrimaryKey
	default:
		return ConstraintUnknown
	}
}

// IsForeignKeyViolation reports whether err is a foreign-key constraint
// violation from the storage layer.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgForeignKeyViolation
	}
	return strings.Contains(strings.ToLower(err.Error()), "foreign key constraint")
}

// ParseError converts a storage or runtime error into a user-facing error
// code and message. Sensitive details stay out of the message.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: InternalServerError, Message: "サーバーエラーが発生しました"}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Code: ResourceNotFound, Message: notFoundMessage(context)}
	}

	if target, ok := UniqueViolationTarget(err); ok {
		return duplicateInfo(target)
	}

	if IsForeignKeyViolation(err) {
		return ErrorInfo{
			Code:    ResourceConflict,
			Message: "関連するデータがあるため操作できません",
		}
	}

	errLower := strings.ToLower(err.Error())
	if strings.Contains(errLower, "connection refused") ||
		strings.Contains(errLower, "no such host") ||
		strings.Contains(errLower, "timeout") {
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "外部サービスへの接続に失敗しました。しばらくしてからもう一度お試しください",
		}
	}

	return ErrorInfo{Code: InternalServerError, Message: defaultMessage(context)}
}

func duplicateInfo(target ConstraintTarget) ErrorInfo {
	switch target {
	case ConstraintCategoryName:
		return ErrorInfo{Code: CategoryNameExists, Message: "このカテゴリー名は既に使用されています"}
	case ConstraintCategorySlug:
		return ErrorInfo{Code: CategorySlugExists, Message: "この識別名は既に使用されています"}
	case ConstraintUserEmail:
		return ErrorInfo{Code: AuthEmailAlreadyExists, Message: "このメールアドレスは既に使用されています"}
	case ConstraintPrimaryKey:
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "既に存在するデータです。もう一度お試しください"}
	default:
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "既に存在するデータです"}
	}
}

func notFoundMessage(context string) string {
	contextLower := strings.ToLower(context)
	switch {
	case strings.Contains(contextLower, "category"):
		return "カテゴリーが見つかりませんでした"
	case strings.Contains(contextLower, "restaurant"):
		return "レストランが見つかりませんでした"
	case strings.Contains(contextLower, "user"):
		return "ユーザーが見つかりませんでした"
	case strings.Contains(contextLower, "favorite"):
		return "お気に入りが見つかりませんでした"
	default:
		return "データが見つかりませんでした"
	}
}

// ParseAndRespond parses the error and writes the JSON error response.
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	errorInfo := ParseError(err, context)
	c.JSON(statusCode, ErrorResponse{
		Error:   errorInfo.Code,
		Message: errorInfo.Message,
	})
}

func defaultMessage(context string) string {
	contextLower := strings.ToLower(context)
	switch {
	case strings.Contains(contextLower, "create"):
		return "登録中にエラーが発生しました。しばらくしてからもう一度お試しください"
	case strings.Contains(contextLower, "update"):
		return "更新中にエラーが発生しました。しばらくしてからもう一度お試しください"
	case strings.Contains(contextLower, "delete"):
		return "削除中にエラーが発生しました。しばらくしてからもう一度お試しください"
	default:
		return "サーバーエラーが発生しました。しばらくしてからもう一度お試しください"
	}
}
