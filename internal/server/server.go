// Package server implements the TCP front-end described in spec §6: a
// listener that accepts connections and dispatches each one onto a worker
// pool, where requests are decoded, run against the storage engine, and
// answered using the length-prefixed wire protocol in internal/protocol.
package server

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/iamNilotpal/ignitedb/internal/engine"
	"github.com/iamNilotpal/ignitedb/internal/metrics"
	"github.com/iamNilotpal/ignitedb/internal/pool"
	"github.com/iamNilotpal/ignitedb/internal/protocol"
	"github.com/iamNilotpal/ignitedb/internal/sled"
	"go.uber.org/zap"
)

// Store is the subset of engine behavior the server needs to answer
// requests. Both internal/engine.Engine and internal/sled.Engine satisfy
// it, so the server is agnostic to which storage engine kind is active.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Server accepts TCP connections on one address and serves GET/SET/RM
// requests against a Store, dispatching each connection to pool so that a
// slow or stuck client cannot monopolize a single goroutine budget.
type Server struct {
	log      *zap.SugaredLogger
	store    Store
	pool     pool.Pool
	metrics  *metrics.Metrics
	listener net.Listener
	stopCh   chan struct{}
}

// Config supplies the collaborators a Server needs. Metrics may be nil, in
// which case request observations are skipped.
type Config struct {
	Logger  *zap.SugaredLogger
	Store   Store
	Pool    pool.Pool
	Metrics *metrics.Metrics
}

// New binds addr and returns a Server ready to Serve.
func New(addr string, config *Config) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	config.Logger.Infow("Server listening", "addr", addr)

	return &Server{
		log:      config.Logger,
		store:    config.Store,
		pool:     config.Pool,
		metrics:  config.Metrics,
		listener: listener,
		stopCh:   make(chan struct{}),
	}, nil
}

// Addr returns the address the listener is bound to.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Serve accepts connections until Stop is called. Each accepted connection
// is handed to the worker pool and this method does not block waiting for
// handlers to finish.
func (s *Server) Serve() error {
	for {
		select {
		case <-s.stopCh:
			s.log.Infow("Server stopping, no longer accepting connections")
			return nil
		default:
		}

		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stopCh:
				return nil
			default:
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			return err
		}

		connID := uuid.NewString()
		s.pool.Spawn(func() {
			s.handleConnection(connID, conn)
		})
	}
}

// Stop signals Serve to return and closes the listener, interrupting any
// in-progress Accept call.
func (s *Server) Stop() error {
	close(s.stopCh)
	s.pool.Close()
	return s.listener.Close()
}

func (s *Server) handleConnection(connID string, conn net.Conn) {
	defer conn.Close()
	if s.metrics != nil {
		s.metrics.ConnectionOpened()
		defer s.metrics.ConnectionClosed()
	}

	log := s.log.With("connID", connID, "remoteAddr", conn.RemoteAddr().String())
	log.Infow("Connection accepted")

	for {
		req, err := protocol.ReadRequest(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Debugw("Connection closed", "error", err)
			}
			return
		}

		start := time.Now()
		resp, ok := s.dispatch(req)
		if !ok {
			log.Warnw("Closing connection after non-KeyNotFound error", "op", req.Op)
			return
		}
		if s.metrics != nil {
			s.metrics.ObserveRequest(string(req.Op), string(resp.Status), time.Since(start).Seconds())
		}

		if err := protocol.WriteResponse(conn, resp); err != nil {
			log.Warnw("Failed to write response", "error", err)
			return
		}
	}
}

// dispatch runs req against the store. The wire protocol only carries
// ErrOk and ErrKeyNotFound (spec §6/§7); any other failure is reported via
// the returned false and the caller drops the connection instead of
// encoding it as a response.
func (s *Server) dispatch(req protocol.Request) (protocol.Response, bool) {
	ctx := context.Background()

	switch req.Op {
	case protocol.OpGet:
		value, err := s.store.Get(ctx, req.Key)
		if err != nil {
			return errorResponse(err)
		}
		return protocol.Response{Status: protocol.StatusOK, Value: value}, true

	case protocol.OpSet:
		if err := s.store.Set(ctx, req.Key, req.Value); err != nil {
			return errorResponse(err)
		}
		return protocol.Response{Status: protocol.StatusOK}, true

	case protocol.OpRm:
		if err := s.store.Remove(ctx, req.Key); err != nil {
			return errorResponse(err)
		}
		return protocol.Response{Status: protocol.StatusOK}, true

	default:
		return protocol.Response{}, false
	}
}

func errorResponse(err error) (protocol.Response, bool) {
	if errors.Is(err, engine.ErrKeyNotFound) || errors.Is(err, sled.ErrKeyNotFound) {
		return protocol.Response{Status: protocol.StatusKeyNotFound}, true
	}
	return protocol.Response{}, false
}
