package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/DevenGibbs/starter-restaurant-reservation/utils"
)

// Event types
const (
	EventReservationCreate = "reservation_create"
	EventReservationUpdate = "reservation_update"
	EventReservationStatus = "reservation_status"
	EventReservationDelete = "reservation_delete"
	EventTableCreate       = "table_create"
	EventTableSeat         = "table_seat"
	EventTableFinish       = "table_finish"
)

// writeWait bounds a single write to a dashboard so one stalled client
// cannot hold the hub lock.
var writeWait = 5 * time.Second

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// envelope is what travels over Redis; origin lets an instance skip its
// own messages when they come back from the channel.
type envelope struct {
	Origin string          `json:"origin"`
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data"`
}

// Hub holds the floor dashboards connected to this instance.
type Hub struct {
	id      string
	clients map[*websocket.Conn]string // conn -> role
	mutex   sync.Mutex

	listeners []func(event string)

	redis   *redis.Client
	channel string
}

func New() *Hub {
	return &Hub{
		id:      uuid.NewString(),
		clients: make(map[*websocket.Conn]string),
	}
}

func (h *Hub) Register(conn *websocket.Conn, role string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.clients[conn] = role
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
}

// OnEvent registers fn to run for every event this hub sees, whether it was
// broadcast locally or relayed from another instance.
func (h *Hub) OnEvent(fn func(event string)) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.listeners = append(h.listeners, fn)
}

func (h *Hub) notify(event string) {
	h.mutex.Lock()
	listeners := append([]func(string){}, h.listeners...)
	h.mutex.Unlock()

	for _, fn := range listeners {
		fn(event)
	}
}

func (h *Hub) Clients() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// Broadcast sends msg to local clients and, when a Redis bridge is set,
// to every other instance. A nil hub is a no-op.
func (h *Hub) Broadcast(msg Message) {
	if h == nil {
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Errorf("Error marshaling hub message: %v", err)
		return
	}
	h.notify(msg.Event)
	h.deliver(data)

	if h.redis != nil {
		h.publish(msg)
	}
}

func (h *Hub) publish(msg Message) {
	body, err := json.Marshal(msg.Data)
	if err != nil {
		return
	}
	payload, err := json.Marshal(envelope{Origin: h.id, Event: msg.Event, Data: body})
	if err != nil {
		utils.ErrorLogger.Errorf("Error marshaling hub envelope: %v", err)
		return
	}
	if err := h.redis.Publish(context.Background(), h.channel, payload).Err(); err != nil {
		utils.ErrorLogger.Errorf("Error publishing %s to redis: %v", msg.Event, err)
	}
}

func (h *Hub) deliver(data []byte) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for conn, role := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.InfoLogger.Warnf("Dropping %s client after failed write: %v", role, err)
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

// UseRedis bridges this hub to others sharing channel. Call it before the
// hub starts broadcasting; the subscription lives until ctx is done.
func (h *Hub) UseRedis(ctx context.Context, client *redis.Client, channel string) error {
	sub := client.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return err
	}

	h.redis = client
	h.channel = channel

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				h.relay(m.Payload)
			}
		}
	}()

	utils.InfoLogger.Printf("Hub %s bridged to redis channel %s", h.id, channel)
	return nil
}

func (h *Hub) relay(payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		utils.InfoLogger.Warnf("Ignoring malformed hub message: %v", err)
		return
	}
	if env.Origin == h.id {
		return
	}

	data, err := json.Marshal(struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}{env.Event, env.Data})
	if err != nil {
		return
	}
	h.notify(env.Event)
	h.deliver(data)
}
