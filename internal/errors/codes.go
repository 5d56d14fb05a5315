package errors

// エラーコード定数
// 形式: CATEGORY_SPECIFIC_DETAIL
// フロントエンドはこのコードでメッセージをマッピングする

const (
	// ==================== 認証 (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"        // ログイン必須
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS" // メール/パスワード不一致
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"       // トークン期限切れ
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"       // 不正なトークン
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"        // メール重複

	// ==================== 認可 (AUTHZ_) ====================
	AuthzForbidden            = "AUTHZ_FORBIDDEN"             // 権限なし
	AuthzCompanyEmailRequired = "AUTHZ_COMPANY_EMAIL_REQUIRED" // 会社用メール未登録

	// ==================== 検証 (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID    = "VALIDATION_INVALID_ID"
	ValidationRequired     = "VALIDATION_REQUIRED"

	// ==================== リソース (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// ==================== カテゴリー (CATEGORY_) ====================
	CategoryNotFound   = "CATEGORY_NOT_FOUND"    // カテゴリーなし
	CategoryNameExists = "CATEGORY_NAME_EXISTS"  // 表示名重複
	CategorySlugExists = "CATEGORY_SLUG_EXISTS"  // 識別名重複
	CategoryDuplicate  = "CATEGORY_DUPLICATE"    // どちらか不明の重複
	CategoryInUse      = "CATEGORY_IN_USE"       // レストランが参照中

	// ==================== レストラン (RESTAURANT_) ====================
	RestaurantNotFound   = "RESTAURANT_NOT_FOUND"
	RestaurantNoCategory = "RESTAURANT_NO_CATEGORY" // カテゴリ未選択

	// ==================== お気に入り (FAVORITE_) ====================
	FavoriteNotFound = "FAVORITE_NOT_FOUND"

	// ==================== アップロード (UPLOAD_) ====================
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFailed          = "UPLOAD_FAILED"

	// ==================== チャット (CHAT_) ====================
	ChatNotConfigured = "CHAT_NOT_CONFIGURED" // AIキー未設定
	ChatFailed        = "CHAT_FAILED"

	// ==================== 抽出 (EXTRACT_) ====================
	ExtractFetchFailed = "EXTRACT_FETCH_FAILED" // 食べログページ取得失敗
	ExtractFailed      = "EXTRACT_FAILED"       // AI抽出失敗

	// ==================== 内部エラー (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
)
