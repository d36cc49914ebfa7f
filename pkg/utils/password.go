package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword bcrypt 加密，失败时返回空串（bcrypt 只在 cost 非法时报错）
func HashPassword(pw string) string {
	b, _ := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b)
}

// CheckPassword 恒定时间比较
func CheckPassword(pw, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(pw)) == nil
}
