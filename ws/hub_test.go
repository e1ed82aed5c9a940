package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vnkhanh/topic-slides-backend/middleware"
	"github.com/vnkhanh/topic-slides-backend/models"
	"github.com/vnkhanh/topic-slides-backend/utils"
)

func setupUsers(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))
	return db
}

// tokenFor tạo user trong DB và trả về JWT của user đó
func tokenFor(t *testing.T, db *gorm.DB, role models.UserRole, active bool) string {
	t.Helper()
	user := models.User{
		FullName: "Test",
		Email:    uuid.NewString() + "@example.com",
		Password: "x",
		Role:     role,
		Status:   &active,
	}
	require.NoError(t, db.Create(&user).Error)
	token, err := utils.GenerateToken(user.ID.String(), string(role))
	require.NoError(t, err)
	return token
}

func newWSServer(t *testing.T, db *gorm.DB) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.DBMiddleware(db))
	r.GET("/ws/topics/:id", HandleTopicWebSocket)
	r.GET("/ws/status", HandleGlobalWebSocket)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestTopicWebSocket_ReceivesSlidesChanged(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	db := setupUsers(t)
	token := tokenFor(t, db, models.RoleLecturer, true)
	srv := newWSServer(t, db)

	conn := dial(t, srv, "/ws/topics/topic-1?token="+token)
	assert.Equal(t, "connected", readJSON(t, conn)["type"])

	other := dial(t, srv, "/ws/topics/topic-2?token="+token)
	readJSON(t, other)

	BroadcastSlidesChanged("topic-1", "reordered", "slide-9")
	msg := readJSON(t, conn)
	assert.Equal(t, "slides_changed", msg["type"])
	assert.Equal(t, "topic-1", msg["topic_id"])
	assert.Equal(t, "reordered", msg["action"])
	assert.Equal(t, "slide-9", msg["selected_slide_id"])

	// topic khác không nhận sự kiện
	require.NoError(t, other.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := other.ReadMessage()
	assert.Error(t, err)
}

func TestGlobalWebSocket_ReceivesTopicListChanged(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	db := setupUsers(t)
	token := tokenFor(t, db, models.RoleAdmin, true)
	srv := newWSServer(t, db)

	conn := dial(t, srv, "/ws/status?token="+token)
	readJSON(t, conn)

	BroadcastTopicListChanged()
	assert.Equal(t, "topic_list_changed", readJSON(t, conn)["type"])
}

func TestWebSocket_RequiresToken(t *testing.T) {
	srv := newWSServer(t, setupUsers(t))
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/status"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestWebSocket_RejectsNonStaffAndLockedUsers(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	db := setupUsers(t)
	srv := newWSServer(t, db)

	ghost, err := utils.GenerateToken(uuid.NewString(), "admin")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"student", tokenFor(t, db, models.RoleUser, true), 403},
		{"locked teacher", tokenFor(t, db, models.RoleLecturer, false), 403},
		{"deleted user", ghost, 401},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, path := range []string{"/ws/status", "/ws/topics/topic-1"} {
				url := "ws" + strings.TrimPrefix(srv.URL, "http") + path + "?token=" + tt.token
				_, resp, err := websocket.DefaultDialer.Dial(url, nil)
				require.Error(t, err)
				require.NotNil(t, resp)
				assert.Equal(t, tt.want, resp.StatusCode, path)
			}
		})
	}
}

func TestHubStats(t *testing.T) {
	h := NewHub()
	assert.Equal(t, map[string]int{"topics": 0, "topic_connections": 0, "global_connections": 0}, h.GetStats())

	// Unregister kết nối không tồn tại không panic
	h.Unregister("none", nil)
	h.UnregisterGlobal(nil)
}
