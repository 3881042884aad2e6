package match

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/udisondev/tttserver/internal/engine"
	"github.com/udisondev/tttserver/internal/playerregistry"
	"github.com/udisondev/tttserver/internal/svcerr"
	"github.com/udisondev/tttserver/internal/wire"
)

// Server owns the listener, the Client Registry, and the Player
// Registry, and drives one service loop per accepted connection.
type Server struct {
	clients *ClientRegistry
	players *playerregistry.Registry

	// readTimeout bounds how long a frame may take to finish arriving
	// once it has started (wire.ReadFrame); it never bounds the idle
	// wait for the next frame, so a logged-in client sitting with
	// nothing to send is never disconnected for it.
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// NewServer returns a Server with a Client Registry bounded at
// registryCapacity.
func NewServer(registryCapacity int, readTimeout, writeTimeout time.Duration) *Server {
	return &Server{
		clients:      NewClientRegistry(registryCapacity),
		players:      playerregistry.New(),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

// Run listens on addr and serves until ctx is cancelled, at which point
// it half-closes every live session, waits for each service loop to
// exit, and returns nil.
func (srv *Server) Run(ctx context.Context, addr string) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return srv.Serve(ctx, ln)
}

// Serve accepts connections on an already-bound listener until ctx is
// cancelled. Split out from Run so tests can bind an ephemeral port
// themselves and learn its address before serving.
func (srv *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signalled, half-closing sessions")
		srv.clients.ShutdownAll()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				srv.clients.WaitForEmpty()
				slog.Info("shutdown complete")
				return nil
			default:
				return fmt.Errorf("accept: %w", err)
			}
		}
		go srv.serviceLoop(conn)
	}
}

// serviceLoop is the per-connection worker: registers the session,
// reads frames until EOF or a transport-level error, dispatching each
// to handleRequest, and on exit runs the logout cascade and
// unregisters.
func (srv *Server) serviceLoop(conn net.Conn) {
	s, err := srv.clients.Register(conn, srv.writeTimeout)
	if err != nil {
		slog.Warn("connection rejected", "remote", conn.RemoteAddr(), "error", err)
		_ = conn.Close()
		return
	}
	defer func() {
		s.Logout()
		srv.clients.Unregister(s)
		_ = conn.Close()
	}()

	for {
		hdr, payload, err := wire.ReadFrame(conn, srv.readTimeout)
		if err != nil {
			if !errors.Is(err, wire.EndOfStream) {
				slog.Debug("read error, closing session", "remote", conn.RemoteAddr(), "error", err)
			}
			return
		}

		if err := srv.handleRequest(s, hdr, payload); err != nil {
			logRequestError(hdr, err)
			if err := s.SendNack(); err != nil {
				slog.Debug("failed to send nack", "error", err)
				return
			}
			continue
		}
	}
}

// logRequestError logs a request failure at a severity matching its
// error kind.
func logRequestError(hdr wire.Header, err error) {
	var capErr *svcerr.CapacityError
	var transportErr *svcerr.TransportError
	switch {
	case errors.As(err, &transportErr):
		slog.Warn("request failed", "type", hdr.Type, "error", err)
	case errors.As(err, &capErr):
		slog.Warn("request failed", "type", hdr.Type, "error", err)
	default:
		slog.Debug("request failed", "type", hdr.Type, "error", err)
	}
}

// handleRequest dispatches one inbound frame, enforcing the
// login-gates-everything rule, and sends the single ACK this request
// owes its requester on success. A returned error means the caller
// should send a NACK instead; handleRequest never sends a NACK itself.
func (srv *Server) handleRequest(s *ClientSession, hdr wire.Header, payload []byte) error {
	if hdr.Type != wire.Login && !s.IsLoggedIn() {
		return &svcerr.ProtocolError{Reason: "not logged in"}
	}
	if hdr.Type == wire.Login && s.IsLoggedIn() {
		return &svcerr.ProtocolError{Reason: "already logged in"}
	}

	switch hdr.Type {
	case wire.Login:
		return srv.handleLogin(s, payload)
	case wire.Users:
		return srv.handleUsers(s)
	case wire.Invite:
		return srv.handleInvite(s, hdr, payload)
	case wire.Revoke:
		return srv.handleRevoke(s, hdr)
	case wire.Accept:
		return srv.handleAccept(s, hdr)
	case wire.Decline:
		return srv.handleDecline(s, hdr)
	case wire.Move:
		return srv.handleMove(s, hdr, payload)
	case wire.Resign:
		return srv.handleResign(s, hdr)
	default:
		return &svcerr.ProtocolError{Reason: fmt.Sprintf("unknown message type %d", hdr.Type)}
	}
}

func (srv *Server) handleLogin(s *ClientSession, payload []byte) error {
	name := string(payload)
	if name == "" {
		return &svcerr.ProtocolError{Reason: "empty username"}
	}
	p := srv.players.GetOrCreate(name)
	if err := srv.clients.Login(s, p); err != nil {
		return err
	}
	return s.SendAck(0, nil)
}

func (srv *Server) handleUsers(s *ClientSession) error {
	var buf []byte
	for _, p := range srv.clients.AllPlayers() {
		buf = append(buf, fmt.Sprintf("%s\t%g\n", p.Name(), p.Rating())...)
	}
	return s.SendAck(0, buf)
}

func (srv *Server) handleInvite(s *ClientSession, hdr wire.Header, payload []byte) error {
	name := string(payload)
	targetSession, ok := srv.clients.Lookup(name)
	if !ok {
		return &svcerr.LookupError{Kind: "player", Key: name}
	}

	var sourceRole, targetRole engine.Role
	switch hdr.Role {
	case 1:
		sourceRole, targetRole = engine.RoleSecond, engine.RoleFirst
	case 2:
		sourceRole, targetRole = engine.RoleFirst, engine.RoleSecond
	default:
		return &svcerr.ProtocolError{Reason: fmt.Sprintf("invalid invite role %d", hdr.Role)}
	}

	id, err := s.MakeInvitation(targetSession, sourceRole, targetRole)
	if err != nil {
		return err
	}
	return s.SendAck(uint8(id), nil)
}

func (srv *Server) handleRevoke(s *ClientSession, hdr wire.Header) error {
	if err := s.Revoke(int(hdr.ID)); err != nil {
		return err
	}
	return s.SendAck(hdr.ID, nil)
}

func (srv *Server) handleDecline(s *ClientSession, hdr wire.Header) error {
	if err := s.Decline(int(hdr.ID)); err != nil {
		return err
	}
	return s.SendAck(hdr.ID, nil)
}

func (srv *Server) handleAccept(s *ClientSession, hdr wire.Header) error {
	state, hasState, err := s.Accept(int(hdr.ID))
	if err != nil {
		return err
	}
	if hasState {
		return s.SendAck(hdr.ID, []byte(state))
	}
	return s.SendAck(hdr.ID, nil)
}

func (srv *Server) handleMove(s *ClientSession, hdr wire.Header, payload []byte) error {
	if err := s.MakeMove(int(hdr.ID), string(payload)); err != nil {
		return err
	}
	return s.SendAck(hdr.ID, nil)
}

func (srv *Server) handleResign(s *ClientSession, hdr wire.Header) error {
	if err := s.Resign(int(hdr.ID)); err != nil {
		return err
	}
	return s.SendAck(hdr.ID, nil)
}
