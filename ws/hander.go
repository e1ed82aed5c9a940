package ws

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/vnkhanh/topic-slides-backend/config"
	"github.com/vnkhanh/topic-slides-backend/middleware"
	"github.com/vnkhanh/topic-slides-backend/utils"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // chỉ để phát triển, nên giới hạn ở production
	},
}

func connectedMessage(msg string) []byte {
	data, err := json.Marshal(gin.H{"type": "connected", "message": msg})
	if err != nil {
		log.Println("Lỗi JSON marshal:", err)
		return nil
	}
	return data
}

// Xác thực token truyền qua query (?token=), trình duyệt không gửi header khi mở WS.
// Chỉ admin/giảng viên còn hoạt động mới được nghe sự kiện chỉnh sửa.
func authorize(c *gin.Context) (string, bool) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Thiếu token"})
		return "", false
	}
	claims, err := utils.VerifyToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token không hợp lệ hoặc hết hạn"})
		return "", false
	}
	if !middleware.IsStaffRole(claims.Role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Bạn không có quyền truy cập tài nguyên này"})
		return "", false
	}
	switch err := middleware.CheckActiveUser(middleware.GetDB(c, config.DB), claims.UserID); {
	case errors.Is(err, middleware.ErrUserLocked):
		c.JSON(http.StatusForbidden, gin.H{"error": "Tài khoản đã bị tạm khóa"})
		return "", false
	case err != nil:
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Không tìm thấy người dùng"})
		return "", false
	}
	return claims.UserID, true
}

// Đọc cho đến khi client đóng kết nối
func drain(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// WebSocket theo topic: nhận sự kiện slides_changed
func HandleTopicWebSocket(c *gin.Context) {
	topicID := c.Param("id")
	userID, ok := authorize(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("WebSocket upgrade thất bại:", err)
		return
	}
	log.Printf("Topic WS connected: topicID=%s, userID=%s\n", topicID, userID)

	client := H.Register(topicID, conn)
	if msg := connectedMessage("Connected to topic " + topicID); msg != nil {
		client.Send <- msg
	}

	drain(conn)
	H.Unregister(topicID, conn)
	log.Printf("Topic WS disconnected: topicID=%s, userID=%s\n", topicID, userID)
}

// WebSocket cho global (trang danh sách topic)
func HandleGlobalWebSocket(c *gin.Context) {
	userID, ok := authorize(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("WebSocket upgrade thất bại:", err)
		return
	}
	log.Printf("Global WS connected: userID=%s\n", userID)

	client := H.RegisterGlobal(conn)
	if msg := connectedMessage("Connected to global WebSocket"); msg != nil {
		client.Send <- msg
	}

	drain(conn)
	H.UnregisterGlobal(conn)
	log.Printf("Global WS disconnected: userID=%s\n", userID)
}
