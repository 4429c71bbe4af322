package auth

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/cookbook/internal/common"
)

// specialChars are the characters that satisfy the password rule.
const specialChars = `!@#$%^&*(),.?":{}|<>`

func HashPassword(password string, cost int) ([]byte, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return bcrypt.GenerateFromPassword([]byte(password), cost)
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash []byte, password string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

// ValidateUsername requires 3 to 8 ASCII letters.
func ValidateUsername(username string) error {
	if n := len(username); n < 3 || n > 8 {
		return fmt.Errorf("username must be 3-8 letters: %w", common.ErrorInvalidArgument)
	}
	for _, r := range username {
		if r > unicode.MaxASCII || !unicode.IsLetter(r) {
			return fmt.Errorf("username must contain letters only: %w", common.ErrorInvalidArgument)
		}
	}
	return nil
}

// ValidatePassword requires 5 to 10 characters with at least one digit and
// one special character.
func ValidatePassword(password string) error {
	if n := len([]rune(password)); n < 5 || n > 10 {
		return fmt.Errorf("password must be 5-10 characters: %w", common.ErrorInvalidArgument)
	}
	if !strings.ContainsFunc(password, unicode.IsDigit) {
		return fmt.Errorf("password needs a digit: %w", common.ErrorInvalidArgument)
	}
	if !strings.ContainsAny(password, specialChars) {
		return fmt.Errorf("password needs a special character: %w", common.ErrorInvalidArgument)
	}
	return nil
}
