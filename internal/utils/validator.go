package utils

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"

	apperrors "github.com/Kosench/qlink/internal/errors"
)

const MaxURLLength = 2048

// ValidateURL проверяет, что field содержит абсолютный http(s) URI.
func ValidateURL(field, rawURL string) error {
	if rawURL == "" {
		return apperrors.NewValidationError(field, "URL cannot be empty")
	}

	// Значение сохраняется как есть, поэтому ничего не чистим, а отклоняем
	if strings.TrimSpace(rawURL) != rawURL {
		return apperrors.NewValidationError(field, "URL must not have leading or trailing whitespace")
	}

	if strings.IndexFunc(rawURL, unicode.IsControl) >= 0 {
		return apperrors.NewValidationError(field, "URL must not contain control characters")
	}

	if len(rawURL) > MaxURLLength {
		return apperrors.NewValidationError(field, fmt.Sprintf("URL is too long (max %d characters)", MaxURLLength))
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return apperrors.NewValidationError(field, fmt.Sprintf("invalid URL format: %v", err))
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return apperrors.NewValidationError(field, "URL must start with http:// or https://")
	}

	if parsedURL.Host == "" {
		return apperrors.NewValidationError(field, "URL must contain a valid host")
	}

	return nil
}
