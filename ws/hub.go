package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

type Client struct {
	Conn *websocket.Conn
	Send chan []byte
}

type Hub struct {
	Clients       map[string]map[*websocket.Conn]*Client // Theo từng topicID
	GlobalClients map[*websocket.Conn]*Client            // Trang danh sách topic
	Mutex         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		Clients:       make(map[string]map[*websocket.Conn]*Client),
		GlobalClients: make(map[*websocket.Conn]*Client),
	}
}

var H = NewHub()

// Sự kiện gửi khi danh sách slide của topic thay đổi
type SlidesChangedEvent struct {
	Type            string `json:"type"`
	TopicID         string `json:"topic_id"`
	Action          string `json:"action"`
	SelectedSlideID string `json:"selected_slide_id,omitempty"`
}

// Register theo topicID
func (h *Hub) Register(topicID string, conn *websocket.Conn) *Client {
	h.Mutex.Lock()
	defer h.Mutex.Unlock()

	if _, ok := h.Clients[topicID]; !ok {
		h.Clients[topicID] = make(map[*websocket.Conn]*Client)
	}

	client := &Client{
		Conn: conn,
		Send: make(chan []byte, 256),
	}
	h.Clients[topicID][conn] = client

	go writePump(client)
	return client
}

// Register global cho trang danh sách
func (h *Hub) RegisterGlobal(conn *websocket.Conn) *Client {
	h.Mutex.Lock()
	defer h.Mutex.Unlock()

	client := &Client{
		Conn: conn,
		Send: make(chan []byte, 256),
	}
	h.GlobalClients[conn] = client

	go writePump(client)
	return client
}

// Broadcast theo topicID; client bị đầy buffer sẽ bị bỏ qua
func (h *Hub) Broadcast(topicID string, data []byte) {
	h.Mutex.RLock()
	defer h.Mutex.RUnlock()

	for _, client := range h.Clients[topicID] {
		select {
		case client.Send <- data:
		default:
		}
	}
}

func (h *Hub) BroadcastGlobal(data []byte) {
	h.Mutex.RLock()
	defer h.Mutex.RUnlock()

	for _, client := range h.GlobalClients {
		select {
		case client.Send <- data:
		default:
		}
	}
}

func (h *Hub) Unregister(topicID string, conn *websocket.Conn) {
	h.Mutex.Lock()
	defer h.Mutex.Unlock()

	if clients, ok := h.Clients[topicID]; ok {
		if client, ok := clients[conn]; ok {
			close(client.Send)
			delete(clients, conn)
		}
		if len(clients) == 0 {
			delete(h.Clients, topicID)
		}
	}
}

func (h *Hub) UnregisterGlobal(conn *websocket.Conn) {
	h.Mutex.Lock()
	defer h.Mutex.Unlock()

	if client, ok := h.GlobalClients[conn]; ok {
		close(client.Send)
		delete(h.GlobalClients, conn)
	}
}

// GetStats trả về số kết nối đang mở
func (h *Hub) GetStats() map[string]int {
	h.Mutex.RLock()
	defer h.Mutex.RUnlock()

	topicConns := 0
	for _, clients := range h.Clients {
		topicConns += len(clients)
	}
	return map[string]int{
		"topics":             len(h.Clients),
		"topic_connections":  topicConns,
		"global_connections": len(h.GlobalClients),
	}
}

// Gửi message cho đến khi Send bị đóng bởi Unregister
func writePump(client *Client) {
	defer func() {
		client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
		client.Conn.Close()
	}()
	for msg := range client.Send {
		if err := client.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
}

// BroadcastSlidesChanged báo cho các màn hình đang mở topic tải lại danh sách slide
func BroadcastSlidesChanged(topicID, action, selectedSlideID string) {
	data, err := json.Marshal(SlidesChangedEvent{
		Type:            "slides_changed",
		TopicID:         topicID,
		Action:          action,
		SelectedSlideID: selectedSlideID,
	})
	if err != nil {
		log.Println("JSON marshal error:", err)
		return
	}
	H.Broadcast(topicID, data)
}

// BroadcastTopicListChanged báo cho trang danh sách topic tải lại
func BroadcastTopicListChanged() {
	H.BroadcastGlobal([]byte(`{"type": "topic_list_changed"}`))
}
