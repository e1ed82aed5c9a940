package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/vnkhanh/topic-slides-backend/config"
	"github.com/vnkhanh/topic-slides-backend/models"
	"github.com/vnkhanh/topic-slides-backend/utils"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound = errors.New("không tìm thấy người dùng")
	ErrUserLocked   = errors.New("tài khoản đã bị tạm khóa")
)

// IsStaffRole: admin hoặc giảng viên
func IsStaffRole(role string) bool {
	return role == string(models.RoleAdmin) || role == string(models.RoleLecturer)
}

// CheckActiveUser kiểm tra user còn tồn tại và chưa bị khóa
func CheckActiveUser(db *gorm.DB, userID string) error {
	var user models.User
	if err := db.Select("id", "status").First(&user, "id = ?", userID).Error; err != nil {
		return ErrUserNotFound
	}
	if user.Status != nil && !*user.Status {
		return ErrUserLocked
	}
	return nil
}

// Lấy token từ "Authorization: Bearer <token>", hoặc X-Auth-Token (cho iOS)
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		authHeader = c.GetHeader("X-Auth-Token")
	}
	if authHeader == "" {
		return "", false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" && c.GetHeader("X-Auth-Token") == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Thiếu Authorization header"})
			c.Abort()
			return
		}

		tokenString, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header không hợp lệ"})
			c.Abort()
			return
		}

		claims, err := utils.VerifyToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token không hợp lệ hoặc hết hạn"})
			c.Abort()
			return
		}

		// Kiểm tra trạng thái user trong DB
		switch err := CheckActiveUser(GetDB(c, config.DB), claims.UserID); {
		case errors.Is(err, ErrUserLocked):
			c.JSON(http.StatusForbidden, gin.H{"error": "Tài khoản đã bị tạm khóa"})
			c.Abort()
			return
		case err != nil:
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Không tìm thấy người dùng"})
			c.Abort()
			return
		}

		// Lưu thông tin vào context để controller dùng
		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Next()
	}
}
