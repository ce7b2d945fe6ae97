package recipe

import (
	"net/url"
	"strings"
)

// NormalizeURL 只保留 scheme、host 與 path，作為快取鍵
// 無法解析的輸入直接截掉 '?' 與 '#' 之後的部分
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		if i := strings.IndexAny(raw, "?#"); i >= 0 {
			return raw[:i]
		}
		return raw
	}
	clean := url.URL{
		Scheme:  u.Scheme,
		Opaque:  u.Opaque,
		User:    u.User,
		Host:    u.Host,
		Path:    u.Path,
		RawPath: u.RawPath,
	}
	return clean.String()
}
