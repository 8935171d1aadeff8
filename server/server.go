// Package server exposes the map builder over a websocket so an interactive
// client can set the inputs, start a sweep, follow its progress and stop it.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"heat_pump_calc/heatpump"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	addr     string
	oracle   heatpump.PropertyOracle
	upgrader websocket.Upgrader
	logger   log.FieldLogger
}

func NewServer(addr string, oracle heatpump.PropertyOracle, upgrader websocket.Upgrader) *Server {
	return &Server{
		addr:     addr,
		oracle:   oracle,
		upgrader: upgrader,
		logger:   log.StandardLogger(),
	}
}

// WithLogger sets the logger used for connection and sweep events.
func (s *Server) WithLogger(logger log.FieldLogger) *Server {
	s.logger = logger
	return s
}

// serveWs handles websocket requests from the peer.
func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnf("upgrade: %v", err)
		return
	}
	defer conn.Close()

	logger := s.logger.WithField("remote", r.RemoteAddr)
	logger.Info("client connected")
	newHub(conn, s.oracle, logger).run()
	logger.Info("client disconnected")
}

// Handler returns the HTTP handler serving /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWs)
	return mux
}

// Serve listens on the configured address until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Infof("listening on %s", s.addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
