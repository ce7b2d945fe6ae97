package common

import "github.com/google/uuid"

// GenerateUUID 產生請求 ID
func GenerateUUID() string {
	return uuid.NewString()
}

// Truncate 以 rune 截斷，超出 n 時加上省略號
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
