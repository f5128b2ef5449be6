package service

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"net/http"
	"sync"
	"time"

	"stem_quest_backend/pkg/logger"
	"stem_quest_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	shardCount     = 32

	// 跨实例广播进度变更的频道
	progressionChannel = "progression_channel"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type SyncMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// ChangeEvent 只说"谁的哪张表变了"，不带增量数据，
// 收到后整体重新读取并下发快照，避免乱序合并
type ChangeEvent struct {
	UserID string `json:"userId"`
	Table  string `json:"table"`
}

type SessionClient struct {
	Hub     *SyncHub
	Conn    *websocket.Conn
	Send    chan []byte
	UserID  string
	Limiter *rate.Limiter
}

func (c *SessionClient) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		// 同步连接是单向的，上行帧只用于保活，读到即丢
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Error("WebSocket unexpected close", zap.Error(err), zap.String("userId", c.UserID))
			}
			break
		}
		if !c.Limiter.Allow() {
			continue
		}
	}
}

func (c *SessionClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// 积压的帧都是快照，合并发送只保留队列顺序
			if n := len(c.Send); n > 0 {
				for i := 0; i < n; i++ {
					w.Write(<-c.Send)
				}
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

type shard struct {
	// 同一用户可能开多个标签页，按用户聚合会话集合
	sessions map[string]map[*SessionClient]bool
	mu       sync.RWMutex
}

// SyncHub 订阅进度变更并把完整快照推给该用户的所有在线会话
type SyncHub struct {
	shards     [shardCount]*shard
	register   chan *SessionClient
	unregister chan *SessionClient
	Redis      *redis.Client
	Svc        *ProgressionService
	ctx        context.Context
	cancel     context.CancelFunc
}

func NewSyncHub(rdb *redis.Client, svc *ProgressionService) *SyncHub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &SyncHub{
		register:   make(chan *SessionClient),
		unregister: make(chan *SessionClient),
		Redis:      rdb,
		Svc:        svc,
		ctx:        ctx,
		cancel:     cancel,
	}
	for i := 0; i < shardCount; i++ {
		h.shards[i] = &shard{
			sessions: make(map[string]map[*SessionClient]bool),
		}
	}
	return h
}

func (h *SyncHub) getShard(userID string) *shard {
	f := fnv.New32a()
	f.Write([]byte(userID))
	return h.shards[f.Sum32()%shardCount]
}

func (h *SyncHub) Run() {
	pubsub := h.Redis.Subscribe(h.ctx, progressionChannel)
	go func() {
		ch := pubsub.Channel()
		for msg := range ch {
			var ev ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				logger.Log.Error("PubSub unmarshal error", zap.Error(err))
				continue
			}
			h.handleChange(ev)
		}
	}()

	for {
		select {
		case client := <-h.register:
			s := h.getShard(client.UserID)
			s.mu.Lock()
			if s.sessions[client.UserID] == nil {
				s.sessions[client.UserID] = make(map[*SessionClient]bool)
			}
			s.sessions[client.UserID][client] = true
			s.mu.Unlock()
			monitoring.SyncOnlineSessions.Inc()

		case client := <-h.unregister:
			s := h.getShard(client.UserID)
			s.mu.Lock()
			if set, ok := s.sessions[client.UserID]; ok {
				if set[client] {
					delete(set, client)
					close(client.Send)
					monitoring.SyncOnlineSessions.Dec()
				}
				if len(set) == 0 {
					delete(s.sessions, client.UserID)
				}
			}
			s.mu.Unlock()

		case <-h.ctx.Done():
			pubsub.Close()
			return
		}
	}
}

// handleChange 事件只是触发器：本实例有该用户的会话才重新读库
func (h *SyncHub) handleChange(ev ChangeEvent) {
	if !h.hasLocalSessions(ev.UserID) {
		return
	}

	snapshot, err := h.Svc.GetSnapshot(ev.UserID)
	if err != nil {
		logger.Log.Error("Sync refresh failed",
			zap.Error(err),
			zap.String("userId", ev.UserID),
			zap.String("table", ev.Table),
		)
		return
	}

	payload, err := json.Marshal(SyncMessage{Type: "SNAPSHOT", Data: snapshot})
	if err != nil {
		logger.Log.Error("Snapshot marshal error", zap.Error(err))
		return
	}

	h.pushToUser(ev.UserID, payload)
	monitoring.SyncRefreshCounter.Inc()
}

func (h *SyncHub) hasLocalSessions(userID string) bool {
	s := h.getShard(userID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions[userID]) > 0
}

func (h *SyncHub) pushToUser(userID string, payload []byte) {
	s := h.getShard(userID)
	s.mu.RLock()
	for client := range s.sessions[userID] {
		select {
		case client.Send <- payload:
		default:
		}
	}
	s.mu.RUnlock()
}

// PublishChange 通过 Redis 广播变更，所有实例（含本实例）经订阅路径处理
func (h *SyncHub) PublishChange(userID, table string) {
	payload, _ := json.Marshal(ChangeEvent{UserID: userID, Table: table})
	if err := h.Redis.Publish(h.ctx, progressionChannel, payload).Err(); err != nil {
		logger.Log.Error("Publish change failed", zap.Error(err), zap.String("userId", userID))
	}
}

// Stop 关闭所有会话连接并退出主循环
func (h *SyncHub) Stop() {
	logger.Log.Info("SyncHub stopping: closing connections...")

	closed := 0
	for i := 0; i < shardCount; i++ {
		s := h.shards[i]
		s.mu.Lock()
		for userID, set := range s.sessions {
			for client := range set {
				close(client.Send)
				closed++
			}
			delete(s.sessions, userID)
		}
		s.mu.Unlock()
	}

	h.cancel()
	monitoring.SyncOnlineSessions.Set(0)
	logger.Log.Info("SyncHub stopped", zap.Int("closedConnections", closed))
}

// ServeWs 升级连接并立即下发一份初始快照
func ServeWs(hub *SyncHub, w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Error("WebSocket upgrade failed", zap.Error(err), zap.String("userId", userID))
		return
	}
	client := &SessionClient{
		Hub:     hub,
		Conn:    conn,
		Send:    make(chan []byte, 256),
		UserID:  userID,
		Limiter: rate.NewLimiter(rate.Limit(30), 50),
	}
	client.Hub.register <- client

	go client.writePump()
	go client.readPump()

	if snapshot, err := hub.Svc.GetSnapshot(userID); err == nil {
		if payload, err := json.Marshal(SyncMessage{Type: "SNAPSHOT", Data: snapshot}); err == nil {
			select {
			case client.Send <- payload:
			default:
			}
		}
	}
}
