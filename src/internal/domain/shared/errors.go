package shared

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ===========================
// 錯誤分類（Error Kind）
// ===========================

// ErrorKind 錯誤大類
//
// 每個 bounded context 定義自己的 ErrorCode（細粒度、穩定），
// 但都歸屬於以下其中一種 Kind，供呼叫端決定呈現方式與是否可重試。
type ErrorKind string

const (
	KindNotFound    ErrorKind = "NOT_FOUND"
	KindDuplicate   ErrorKind = "DUPLICATE"
	KindAlreadyDone ErrorKind = "ALREADY_DONE" // ALREADY_PAID / ALREADY_CONFIRMED 等終態重複轉換
	KindLocked      ErrorKind = "LOCKED"
	KindValidation  ErrorKind = "VALIDATION"
	KindForbidden   ErrorKind = "FORBIDDEN"
	KindConflict    ErrorKind = "CONFLICT"
	KindInternal    ErrorKind = "INTERNAL"
)

// ErrorCode 穩定的錯誤代碼
type ErrorCode string

// ===========================
// DomainError 結構
// ===========================

// DomainError 領域錯誤
//
// 規則：
// 1. Code 穩定，可作為 API 錯誤碼
// 2. Kind 決定呈現方式（404、鎖定說明、一般錯誤）
// 3. WithContext 回傳新實例，預定義錯誤保持不可變
// 4. errors.Is 以 Code 比較
type DomainError struct {
	Code    ErrorCode
	Kind    ErrorKind
	Message string
	Context map[string]interface{}
}

// NewDomainError 建立預定義錯誤
func NewDomainError(code ErrorCode, kind ErrorKind, message string) *DomainError {
	return &DomainError{Code: code, Kind: kind, Message: message}
}

// Error 實現 error 接口
func (e *DomainError) Error() string {
	if len(e.Context) == 0 {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s (context: %s)", e.Code, e.Message, formatContext(e.Context))
}

// WithContext 添加上下文信息（返回新的錯誤實例，保持不可變性）
//
// 使用範例：
//
//	return ErrRegistrationLocked.WithContext("registration_id", id.String())
func (e *DomainError) WithContext(keyValues ...interface{}) error {
	if len(keyValues)%2 != 0 {
		panic("WithContext requires even number of arguments (key-value pairs)")
	}

	ctx := make(map[string]interface{}, len(e.Context)+len(keyValues)/2)
	for k, v := range e.Context {
		ctx[k] = v
	}
	for i := 0; i < len(keyValues); i += 2 {
		key, ok := keyValues[i].(string)
		if !ok {
			panic(fmt.Sprintf("context key must be string, got %T", keyValues[i]))
		}
		ctx[key] = keyValues[i+1]
	}

	return &DomainError{
		Code:    e.Code,
		Kind:    e.Kind,
		Message: e.Message,
		Context: ctx,
	}
}

// Is 實現 errors.Is 接口（用 Code 判斷）
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// formatContext 以固定順序輸出上下文（方便日誌比對）
func formatContext(ctx map[string]interface{}) string {
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, ctx[k]))
	}
	return strings.Join(parts, ", ")
}

// KindOf 取得錯誤的 Kind；非 DomainError 一律視為 INTERNAL
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// ===========================
// 對外呈現
// ===========================

// ErrorView 呼叫端（HTTP handler、CLI、批次腳本）用的錯誤呈現
type ErrorView struct {
	Kind       ErrorKind `json:"kind"`
	Code       string    `json:"code"`
	Message    string    `json:"message"`
	Retryable  bool      `json:"retryable"`
	HTTPStatus int       `json:"-"`
}

// Describe 將錯誤轉換為呈現用結構
//
// 規則：
// - LOCKED / ALREADY_DONE：說明性訊息，不可重試
// - NOT_FOUND：404
// - CONFLICT：並發衝突，可由使用者重新送出
// - 其他：一般錯誤，附帶底層訊息方便排查
func Describe(err error) ErrorView {
	if err == nil {
		return ErrorView{}
	}

	var de *DomainError
	if !errors.As(err, &de) {
		return ErrorView{
			Kind:       KindInternal,
			Code:       "INTERNAL_ERROR",
			Message:    err.Error(),
			Retryable:  false,
			HTTPStatus: http.StatusInternalServerError,
		}
	}

	view := ErrorView{
		Kind:    de.Kind,
		Code:    string(de.Code),
		Message: de.Message,
	}

	switch de.Kind {
	case KindNotFound:
		view.HTTPStatus = http.StatusNotFound
	case KindDuplicate:
		view.HTTPStatus = http.StatusConflict
	case KindAlreadyDone, KindLocked:
		view.HTTPStatus = http.StatusConflict
	case KindValidation:
		view.HTTPStatus = http.StatusBadRequest
	case KindForbidden:
		view.HTTPStatus = http.StatusForbidden
	case KindConflict:
		view.HTTPStatus = http.StatusConflict
		view.Retryable = true
	default:
		view.HTTPStatus = http.StatusInternalServerError
		view.Message = err.Error()
	}

	return view
}

// ===========================
// 共用錯誤
// ===========================

const (
	ErrCodeRepositoryError ErrorCode = "REPOSITORY_ERROR"
	ErrCodeStaleRecord     ErrorCode = "STALE_RECORD"
)

var (
	// ErrRepositoryError 倉儲操作失敗（資料庫錯誤）
	ErrRepositoryError = NewDomainError(ErrCodeRepositoryError, KindInternal, "倉儲操作失敗")

	// ErrStaleRecord 樂觀鎖版本不符
	//
	// 觸發條件：
	// - UPDATE ... WHERE id = ? AND version = ? 影響 0 筆
	// - 代表同一筆記錄在讀取後已被其他事務修改
	ErrStaleRecord = NewDomainError(ErrCodeStaleRecord, KindConflict, "記錄已被其他操作修改，請重新讀取")
)
