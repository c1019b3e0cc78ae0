package account

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/ayush/fundraiser/backend/internal/models"
)

// hashCost is fixed; changing it only affects newly written hashes.
const hashCost = 10

// HashCredential returns a salted bcrypt hash of plain.
func HashCredential(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), hashCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// CheckCredential reports whether candidate matches the stored hash.
func CheckCredential(candidate, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil
}

// BeforeSave runs ahead of every write. A pending plaintext credential is
// hashed into Password and cleared; without one the stored hash is left as is.
func BeforeSave(a *models.Account) error {
	if a.Credential == "" {
		return nil
	}
	hashed, err := HashCredential(a.Credential)
	if err != nil {
		return err
	}
	a.Password = hashed
	a.Credential = ""
	return nil
}
