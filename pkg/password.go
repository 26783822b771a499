package pkg

import "golang.org/x/crypto/bcrypt"

// PasswordCost is the bcrypt work factor for newly hashed admin passwords.
const PasswordCost = 12

func HashPassword(p string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(p), PasswordCost)
	return string(b), err
}

func ComparePassword(hash, pw string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw))
}

// IsPasswordHash reports whether s parses as a bcrypt hash.
func IsPasswordHash(s string) bool {
	_, err := bcrypt.Cost([]byte(s))
	return err == nil
}
