package common

import (
	"errors"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Error     string `json:"error"`             // 錯誤信息
	Code      string `json:"code"`              // 錯誤代碼
	Retryable bool   `json:"retryable"`         // 是否可重試
	Stage     string `json:"stage,omitempty"`   // 失敗的處理階段
	Details   string `json:"details,omitempty"` // 詳細信息（僅在開發模式顯示）
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code      string // 錯誤代碼
	Message   string // 錯誤信息
	Err       error  // 原始錯誤
	Status    int    // HTTP 狀態碼
	Retryable bool   // 重試同一請求是否可能成功
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap 回傳原始錯誤
func (e *CustomError) Unwrap() error {
	return e.Err
}

// Is 以錯誤代碼比對，讓 errors.Is(err, ErrNotFound) 可以穿透 Wrap
func (e *CustomError) Is(target error) bool {
	var t *CustomError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Wrap 以相同的代碼與狀態包裝原始錯誤
func (e *CustomError) Wrap(err error) *CustomError {
	c := *e
	c.Err = err
	return &c
}

// WithMessage 以相同的代碼與狀態替換錯誤信息
func (e *CustomError) WithMessage(message string) *CustomError {
	c := *e
	c.Message = message
	return &c
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

func newRetryable(code string, message string, status int) *CustomError {
	e := NewError(code, message, status, nil)
	e.Retryable = true
	return e
}

// AsCustomError 取出錯誤鏈中的 CustomError，找不到時視為內部錯誤
func AsCustomError(err error) *CustomError {
	if err == nil {
		return nil
	}
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ErrInvalidRequest.WithMessage(ve.message)
	}
	return ErrInternalError.Wrap(err)
}

// ValidationError 表示驗證錯誤
type ValidationError struct {
	message string
}

// Error 實現 error 介面
func (e *ValidationError) Error() string {
	return e.message
}

// NewValidationError 創建新的驗證錯誤
func NewValidationError(message string) error {
	return &ValidationError{
		message: message,
	}
}

// IsValidationError 檢查是否為驗證錯誤
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest  = "INVALID_REQUEST"   // 400
	ErrCodeNotFound        = "NOT_FOUND"         // 404
	ErrCodeRequestTimeout  = "REQUEST_TIMEOUT"   // 408
	ErrCodeDownloadFailed  = "DOWNLOAD_FAILED"   // 422
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS" // 429

	// 服務器錯誤 (5xx)
	ErrCodeInternalError       = "INTERNAL_ERROR"       // 500
	ErrCodeConfiguration       = "CONFIGURATION_ERROR"  // 500
	ErrCodeTranscriptionFailed = "TRANSCRIPTION_FAILED" // 500
	ErrCodeExtractionFailed    = "EXTRACTION_FAILED"    // 500
	ErrCodeStorageUnavailable  = "STORAGE_UNAVAILABLE"  // 503
	ErrCodeQueueFull           = "QUEUE_FULL"           // 503
)

// 預定義錯誤
var (
	// 客戶端錯誤
	ErrInvalidRequest  = NewError(ErrCodeInvalidRequest, "invalid request", http.StatusBadRequest, nil)
	ErrNotFound        = NewError(ErrCodeNotFound, "recipe not found", http.StatusNotFound, nil)
	ErrRequestTimeout  = newRetryable(ErrCodeRequestTimeout, "request timed out", http.StatusRequestTimeout)
	ErrDownloadFailed  = NewError(ErrCodeDownloadFailed, "failed to download video", http.StatusUnprocessableEntity, nil)
	ErrTooManyRequests = newRetryable(ErrCodeTooManyRequests, "too many requests", http.StatusTooManyRequests)

	// 服務器錯誤
	ErrInternalError       = NewError(ErrCodeInternalError, "internal server error", http.StatusInternalServerError, nil)
	ErrConfiguration       = NewError(ErrCodeConfiguration, "service is not configured", http.StatusInternalServerError, nil)
	ErrTranscriptionFailed = newRetryable(ErrCodeTranscriptionFailed, "failed to transcribe audio", http.StatusInternalServerError)
	ErrExtractionFailed    = newRetryable(ErrCodeExtractionFailed, "failed to extract recipe", http.StatusInternalServerError)
	ErrStorageUnavailable  = newRetryable(ErrCodeStorageUnavailable, "storage unavailable", http.StatusServiceUnavailable)
	ErrQueueFull           = newRetryable(ErrCodeQueueFull, "too many videos are being processed", http.StatusServiceUnavailable)
)
