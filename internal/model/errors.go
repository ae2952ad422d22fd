// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
// バリデーションエラーの場合はFieldに対象フィールド名を持つ。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, social, post, permission, system
	Action   string // ユーザー向け対処方法
	Field    string // バリデーション対象フィールド（該当する場合のみ）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation         = "VALIDATION_FAILED"
	ErrCodeEmailTaken         = "EMAIL_TAKEN"
	ErrCodeNicknameTaken      = "NICKNAME_TAKEN"
	ErrCodeAgeRestriction     = "AGE_RESTRICTION"
	ErrCodeContentTooLong     = "CONTENT_TOO_LONG"
	ErrCodeCommentTooLong     = "COMMENT_TOO_LONG"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodePostNotFound       = "POST_NOT_FOUND"
	ErrCodeDuplicateFollow    = "DUPLICATE_FOLLOW"
	ErrCodePermissionDenied   = "PERMISSION_DENIED"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeMediaDisabled      = "MEDIA_DISABLED"
	ErrCodeRateLimitExceeded  = "RATE_LIMIT_EXCEEDED"
)

// NewValidationError は汎用のバリデーションエラーを生成する。
// fieldには入力フィールド名、reasonには不正の理由を指定する。
func NewValidationError(field, reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("入力値が不正です: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認して再度お試しください。",
		Field:    field,
	}
}

// NewEmailTakenError はメールアドレス重複エラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailTaken,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "validation",
		Action:   "別のメールアドレスを使用するか、ログインしてください。",
		Field:    "email",
	}
}

// NewNicknameTakenError はニックネーム重複エラーを生成する。
func NewNicknameTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeNicknameTaken,
		Message:  "このニックネームは既に使用されています。",
		Category: "validation",
		Action:   "別のニックネームを指定してください。",
		Field:    "nickname",
	}
}

// NewAgeRestrictionError は年齢制限エラーを生成する。
// 生年月日から計算した年齢が5歳未満の場合に使用する。
func NewAgeRestrictionError() *APIError {
	return &APIError{
		Code:     ErrCodeAgeRestriction,
		Message:  "5歳以上でなければ登録できません。",
		Category: "validation",
		Action:   "生年月日を確認してください。",
		Field:    "date_of_birth",
	}
}

// NewContentTooLongError は投稿本文の文字数超過エラーを生成する。
func NewContentTooLongError(limit int) *APIError {
	return &APIError{
		Code:     ErrCodeContentTooLong,
		Message:  fmt.Sprintf("投稿本文は%d文字以内で入力してください。", limit),
		Category: "validation",
		Action:   "本文を短くして再度お試しください。",
		Field:    "content",
	}
}

// NewCommentTooLongError はコメント本文の文字数超過エラーを生成する。
func NewCommentTooLongError(limit int) *APIError {
	return &APIError{
		Code:     ErrCodeCommentTooLong,
		Message:  fmt.Sprintf("コメントは%d文字以内で入力してください。", limit),
		Category: "validation",
		Action:   "コメントを短くして再度お試しください。",
		Field:    "body",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "social",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewPostNotFoundError は投稿が見つからない場合のエラーを生成する。
// 投稿が存在しない場合と閲覧範囲外の場合を区別しない（存在の漏洩を防ぐ）。
func NewPostNotFoundError(postID string) *APIError {
	return &APIError{
		Code:     ErrCodePostNotFound,
		Message:  fmt.Sprintf("指定された投稿が見つかりません: %s", postID),
		Category: "post",
		Action:   "投稿IDを確認してください。",
	}
}

// NewDuplicateFollowError は既にフォロー済みの相手を再度フォローしようとした場合のエラーを生成する。
func NewDuplicateFollowError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateFollow,
		Message:  "このユーザーは既にフォローしています。",
		Category: "social",
		Action:   "フォロー一覧を確認してください。",
	}
}

// NewPermissionDeniedError は認証済みだが権限のない操作に対するエラーを生成する。
func NewPermissionDeniedError() *APIError {
	return &APIError{
		Code:     ErrCodePermissionDenied,
		Message:  "この操作を行う権限がありません。",
		Category: "permission",
		Action:   "自分が所有するリソースに対してのみ実行できます。",
	}
}

// NewUnauthorizedError は未認証リクエストに対するエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewInvalidCredentialsError は認証情報不一致エラーを生成する。
// メールアドレス不明とパスワード不一致を区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "認証情報を確認して再度お試しください。",
	}
}

// NewRateLimitExceededError はレート制限超過エラーを生成する。
func NewRateLimitExceededError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimitExceeded,
		Message:  "リクエスト数が制限を超えました。",
		Category: "system",
		Action:   "Retry-Afterヘッダーの秒数だけ待ってから再度お試しください。",
	}
}

// NewMediaDisabledError は画像ストレージが未設定の場合のエラーを生成する。
func NewMediaDisabledError() *APIError {
	return &APIError{
		Code:     ErrCodeMediaDisabled,
		Message:  "画像アップロードは現在利用できません。",
		Category: "system",
		Action:   "管理者にS3バケットの設定を確認してください。",
	}
}
