package utils

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// MaskEmail hides most of the local part of an email address for marketplace
// listings. Local parts of one or two characters keep only the first
// character; longer local parts keep the first two characters and, when the
// local part is longer than four characters, the last one.
func MaskEmail(email string) string {
	if email == "" {
		return ""
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return email
	}
	local := email[:at]
	domain := email[at+1:]
	if len(local) <= 2 {
		return fmt.Sprintf("%s***@%s", local[:1], domain)
	}
	visibleEnd := ""
	if len(local) > 4 {
		visibleEnd = local[len(local)-1:]
	}
	return fmt.Sprintf("%s***%s@%s", local[:2], visibleEnd, domain)
}
