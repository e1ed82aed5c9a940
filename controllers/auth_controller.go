package controllers

import (
	"errors"
	"log"
	"net/http"
	"os"
	"strings"

	"cloud.google.com/go/auth/credentials/idtoken"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/vnkhanh/topic-slides-backend/models"
	"github.com/vnkhanh/topic-slides-backend/utils"
)

// accountInput dùng chung cho tự đăng ký và admin tạo giảng viên
type accountInput struct {
	FullName string `json:"full_name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type credentialsInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type googleTokenInput struct {
	IDToken string `json:"id_token" binding:"required"`
}

type passwordChangeInput struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

var errEmailTaken = errors.New("email đã được sử dụng")

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	return string(hashed), err
}

func userPayload(user models.User) gin.H {
	return gin.H{
		"id":        user.ID,
		"email":     user.Email,
		"full_name": user.FullName,
		"role":      user.Role,
	}
}

// bindOrReject trả 400 khi body không hợp lệ
func bindOrReject(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

// createAccount lưu user mới với vai trò role, errEmailTaken nếu email đã có
func createAccount(tx *gorm.DB, in accountInput, role models.UserRole) (models.User, error) {
	email := normalizeEmail(in.Email)

	var count int64
	if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return models.User{}, err
	}
	if count > 0 {
		return models.User{}, errEmailTaken
	}

	hashed, err := hashPassword(in.Password)
	if err != nil {
		return models.User{}, err
	}
	user := models.User{
		FullName: strings.TrimSpace(in.FullName),
		Email:    email,
		Password: hashed,
		Role:     role,
	}
	return user, tx.Create(&user).Error
}

func respondCreateAccountError(c *gin.Context, err error) {
	if errors.Is(err, errEmailTaken) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email đã được sử dụng"})
		return
	}
	log.Printf("Tạo tài khoản thất bại: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tạo tài khoản"})
}

// issueSession chặn tài khoản bị khóa, còn lại trả JWT cùng thông tin user
func issueSession(c *gin.Context, user models.User, message string) {
	if user.Status != nil && !*user.Status {
		c.JSON(http.StatusForbidden, gin.H{"error": "Tài khoản đã bị tạm khóa"})
		return
	}
	token, err := utils.GenerateToken(user.ID.String(), string(user.Role))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tạo token"})
		return
	}
	resp := gin.H{"token": token, "user": userPayload(user)}
	if message != "" {
		resp["message"] = message
	}
	c.JSON(http.StatusOK, resp)
}

// POST /auth/register — học viên tự đăng ký
func Register(c *gin.Context) {
	var in accountInput
	if !bindOrReject(c, &in) {
		return
	}
	user, err := createAccount(db(c), in, models.RoleUser)
	if err != nil {
		respondCreateAccountError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Đăng ký thành công", "user": userPayload(user)})
}

// POST /auth/login
func Login(c *gin.Context) {
	var in credentialsInput
	if !bindOrReject(c, &in) {
		return
	}

	// Sai email hay sai mật khẩu đều trả cùng một thông báo
	var user models.User
	err := db(c).Where("email = ?", normalizeEmail(in.Email)).First(&user).Error
	if err == nil {
		err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password))
	}
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Email hoặc mật khẩu không đúng"})
		return
	}
	issueSession(c, user, "Đăng nhập thành công")
}

// POST /auth/logingoogle — user mới được tạo với vai trò học viên, không có mật khẩu
func GoogleLogin(c *gin.Context) {
	var in googleTokenInput
	if !bindOrReject(c, &in) {
		return
	}

	payload, err := idtoken.Validate(c.Request.Context(), in.IDToken, os.Getenv("GOOGLE_CLIENT_ID"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token Google không hợp lệ"})
		return
	}
	email, _ := payload.Claims["email"].(string)
	if email = normalizeEmail(email); email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token Google không có email"})
		return
	}
	name, _ := payload.Claims["name"].(string)

	user := models.User{Email: email, FullName: name, Role: models.RoleUser}
	if err := db(c).Where("email = ?", email).FirstOrCreate(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tạo user Google"})
		return
	}
	issueSession(c, user, "")
}

// GET /auth/me
func Me(c *gin.Context) {
	var user models.User
	if err := db(c).First(&user, "id = ?", c.GetString("user_id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Người dùng không tồn tại"})
		return
	}
	c.JSON(http.StatusOK, userPayload(user))
}

// POST /admin/lecturers — chỉ admin; mật khẩu ban đầu được gửi qua email
func AdminCreateLecturer(c *gin.Context) {
	if c.GetString("role") != string(models.RoleAdmin) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Chỉ admin mới có quyền tạo giảng viên"})
		return
	}

	var in accountInput
	if !bindOrReject(c, &in) {
		return
	}
	lecturer, err := createAccount(db(c), in, models.RoleLecturer)
	if err != nil {
		respondCreateAccountError(c, err)
		return
	}

	go func(to, fullName, password string) {
		subject, body := utils.LecturerWelcomeEmail(fullName, to, password)
		if err := utils.SendEmail(to, subject, body); err != nil {
			log.Println("Lỗi gửi email:", err)
		}
	}(lecturer.Email, lecturer.FullName, in.Password)

	c.JSON(http.StatusCreated, gin.H{"message": "Tạo giảng viên thành công", "user": userPayload(lecturer)})
}

// PUT /auth/change-password
func ChangePassword(c *gin.Context) {
	var in passwordChangeInput
	if !bindOrReject(c, &in) {
		return
	}

	var user models.User
	if err := db(c).First(&user, "id = ?", c.GetString("user_id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Người dùng không tồn tại"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.OldPassword)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Mật khẩu cũ không đúng"})
		return
	}

	hashed, err := hashPassword(in.NewPassword)
	if err == nil {
		err = db(c).Model(&user).Update("password", hashed).Error
	}
	if err != nil {
		log.Printf("Đổi mật khẩu thất bại cho %s: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể cập nhật mật khẩu"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Đổi mật khẩu thành công"})
}
