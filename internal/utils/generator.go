package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	DefaultCodeLength = 6
	alphabet          = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// GenerateCode генерирует код длины DefaultCodeLength
func GenerateCode() (string, error) {
	return GenerateCodeWithLength(DefaultCodeLength)
}

// GenerateCodeWithLength выбирает каждый символ независимо и равномерно из
// 62-символьного алфавита. Уникальность не проверяется.
func GenerateCodeWithLength(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("code length must be positive, got %d", length)
	}

	code := make([]byte, length)
	alphabetLen := big.NewInt(int64(len(alphabet)))

	for i := range code {
		randomIndex, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", err
		}
		code[i] = alphabet[randomIndex.Int64()]
	}

	return string(code), nil
}
