package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"heat_pump_calc/heatpump"
)

const sendBuffer = 64

// sweep is one running map build.
type sweep struct {
	cancel context.CancelFunc
}

// Hub serves one websocket connection: it keeps the sweep inputs sent with
// env and runs at most one sweep at a time.
type Hub struct {
	conn   *websocket.Conn
	oracle heatpump.PropertyOracle
	logger log.FieldLogger

	// response
	send chan Msg
	done chan struct{}

	mu      sync.Mutex
	request *SweepRequest
	running *sweep
}

func newHub(conn *websocket.Conn, oracle heatpump.PropertyOracle, logger log.FieldLogger) *Hub {
	return &Hub{
		conn:   conn,
		oracle: oracle,
		logger: logger,
		send:   make(chan Msg, sendBuffer),
		done:   make(chan struct{}),
	}
}

// run reads requests until the connection closes. It cancels any running
// sweep before returning.
func (h *Hub) run() {
	go h.handleResponse()
	defer func() {
		h.stop()
		close(h.done)
	}()

	for {
		var msg Msg
		if err := h.conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debugf("read: %v", err)
			}
			return
		}
		h.handleRequest(msg)
	}
}

// handleResponse is the only writer of the connection.
func (h *Hub) handleResponse() {
	for {
		select {
		case reply := <-h.send:
			if err := h.conn.WriteJSON(&reply); err != nil {
				h.logger.Debugf("write: %v", err)
			}
		case <-h.done:
			return
		}
	}
}

func (h *Hub) reply(typ, content string) {
	select {
	case h.send <- Msg{Type: typ, Content: content}:
	case <-h.done:
	}
}

func (h *Hub) replyJSON(typ string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		h.replyError(err)
		return
	}
	h.reply(typ, string(data))
}

func (h *Hub) replyError(err error) {
	h.reply(TypeError, err.Error())
}

func (h *Hub) handleRequest(msg Msg) {
	switch msg.Type {
	case TypeEnv:
		h.setEnv(msg.Content)
	case TypeStart:
		h.start()
	case TypeStop:
		h.stop()
		h.reply(TypeStopped, "stopped")
	default:
		h.replyError(fmt.Errorf("no such type: %q", msg.Type))
	}
}

func (h *Hub) setEnv(content string) {
	req := DefaultSweepRequest()
	if content != "" {
		if err := json.Unmarshal([]byte(content), &req); err != nil {
			h.replyError(fmt.Errorf("env: %w", err))
			return
		}
	}
	if _, _, err := req.build(h.oracle); err != nil {
		h.replyError(fmt.Errorf("env: %w", err))
		return
	}

	h.mu.Lock()
	h.request = &req
	h.mu.Unlock()
	h.reply(TypeEnvSet, "env is set")
}

func (h *Hub) start() {
	h.mu.Lock()
	if h.request == nil {
		h.mu.Unlock()
		h.replyError(errors.New("env is not set"))
		return
	}
	if h.running != nil {
		h.mu.Unlock()
		h.replyError(errors.New("a sweep is already running"))
		return
	}
	evaluator, grid, err := h.request.build(h.oracle)
	if err != nil {
		h.mu.Unlock()
		h.replyError(err)
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &sweep{cancel: cancel}
	h.running = s
	workers := h.request.Workers
	h.mu.Unlock()

	h.reply(TypeStarted, fmt.Sprintf("%d points", len(grid)))
	go h.runSweep(ctx, s, evaluator, grid, workers)
}

// stop cancels the running sweep, if any.
func (h *Hub) stop() {
	h.mu.Lock()
	s := h.running
	h.running = nil
	h.mu.Unlock()
	if s != nil {
		s.cancel()
	}
}

func (h *Hub) finish(s *sweep) {
	h.mu.Lock()
	if h.running == s {
		h.running = nil
	}
	h.mu.Unlock()
	s.cancel()
}

func (h *Hub) runSweep(ctx context.Context, s *sweep, evaluator *heatpump.Evaluator, grid []heatpump.OperatingPoint, workers int) {
	defer h.finish(s)

	// 進捗は 1% から 100% まで 1% ごとに送る
	var lastPercent int64
	b := &heatpump.MapBuilder{
		Evaluator: evaluator,
		Workers:   workers,
		Logger:    h.logger,
		Progress: func(done, total int) {
			percent := int64(done * 100 / total)
			for {
				last := atomic.LoadInt64(&lastPercent)
				if percent <= last {
					return
				}
				if atomic.CompareAndSwapInt64(&lastPercent, last, percent) {
					break
				}
			}
			if ctx.Err() == nil {
				h.replyJSON(TypeProgress, Progress{Done: done, Total: total})
			}
		},
	}

	set, err := b.Build(ctx, grid)
	if ctx.Err() != nil {
		// stop で中止された
		h.logger.Info("sweep stopped")
		return
	}
	if err != nil {
		h.replyError(err)
		return
	}
	h.logger.WithFields(log.Fields{
		"points":  len(set.Results),
		"skipped": len(set.Skipped),
	}).Info("sweep finished")
	h.replyJSON(TypeResult, newSweepResult(set))
}
