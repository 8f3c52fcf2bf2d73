package utils

import (
	"crypto/subtle"
	"strings"
)

const basicPrefix = "Basic "

// ExtractManageCode возвращает токен из заголовка "Authorization: Basic <token>"
// без изменений: без base64 и без разбора user:password. Для любого другого
// заголовка возвращает пустую строку.
func ExtractManageCode(header string) string {
	if !strings.HasPrefix(header, basicPrefix) {
		return ""
	}
	return header[len(basicPrefix):]
}

// ManageCodeMatches сравнивает коды за постоянное время. Пустой код не
// совпадает ни с чем.
func ManageCodeMatches(stored, supplied string) bool {
	if stored == "" || supplied == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) == 1
}
