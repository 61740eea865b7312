package utils

import "golang.org/x/crypto/bcrypt"

// PasswordCost is the bcrypt work factor for account and link passwords.
const PasswordCost = 10

// HashPwd hashes a password.
func HashPwd(pwd string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), PasswordCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPwd verifies a password against its hash.
func CheckPwd(pwd string, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pwd)) == nil
}
