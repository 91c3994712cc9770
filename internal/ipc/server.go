package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"strings"
	"sync"

	"listingcast/internal/daemon"
	"listingcast/internal/logging"
	"listingcast/internal/pipeline"
	"listingcast/internal/services"
)

// ServiceName is the JSON-RPC service the daemon registers.
const ServiceName = "Listingcast"

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path. shutdown is
// called after a Stop request so the hosting process can exit; it may be nil.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, shutdown context.CancelFunc, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logging.NewComponentLogger(logger, "ipc"), ctx: ctx, shutdown: shutdown}
	if err := rpcServer.RegisterName(ServiceName, srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				if errors.Is(err, net.ErrClosed) {
					return
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file. Connections already
// accepted are served until their clients hang up.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "remove the socket file manually or rerun listingcast stop"))
	}
}

type service struct {
	daemon   *daemon.Daemon
	logger   *slog.Logger
	ctx      context.Context
	shutdown context.CancelFunc
}

func (s *service) Start(req StartRequest, resp *StartResponse) error {
	started, err := s.daemon.StartMonitoring(req.Source)
	if err != nil {
		resp.Message = err.Error()
		return nil
	}
	resp.Started = started
	if started {
		resp.Message = "monitoring started"
		s.logger.Info("monitoring started via IPC",
			logging.String(logging.FieldEventType, "monitor_start_requested"))
	} else {
		resp.Message = "monitoring already running"
	}
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.logger.Debug("daemon stop requested")
	s.daemon.StopMonitoring()
	s.daemon.Stop()
	resp.Stopped = true
	s.logger.Info("daemon stopped via IPC",
		logging.String(logging.FieldEventType, "daemon_stop"))
	if s.shutdown != nil {
		s.shutdown()
	}
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	*resp = convertStatus(s.daemon.Status(s.ctx))
	return nil
}

func (s *service) Run(req RunRequest, resp *RunResponse) error {
	if strings.TrimSpace(req.Address) == "" {
		return services.Wrap(services.ErrValidation, "ipc", "run", "address is required", nil)
	}
	s.logger.Info("manual run requested",
		logging.String(logging.FieldEventType, "manual_run"),
		logging.String(logging.FieldSubject, req.Address))
	resp.Result = s.daemon.RunOnce(s.ctx, pipeline.Job{
		Subject:    req.Address,
		Category:   req.Type,
		Annotation: req.Notice,
	})
	return nil
}

func (s *service) SetPublishMode(req PublishModeRequest, resp *PublishModeResponse) error {
	s.daemon.SetUnattended(req.Unattended)
	resp.Unattended = req.Unattended
	return nil
}

func (s *service) Approvals(_ ApprovalsRequest, resp *ApprovalsResponse) error {
	pending := s.daemon.Approvals()
	resp.Approvals = make([]Approval, 0, len(pending))
	for _, approval := range pending {
		resp.Approvals = append(resp.Approvals, convertApproval(approval))
	}
	return nil
}

func (s *service) Approve(req DecisionRequest, resp *DecisionResponse) error {
	return s.decide(req, resp, s.daemon.Approve, "approved")
}

func (s *service) Reject(req DecisionRequest, resp *DecisionResponse) error {
	return s.decide(req, resp, s.daemon.Reject, "rejected")
}

func (s *service) decide(req DecisionRequest, resp *DecisionResponse, fn func(int64) error, verb string) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid approval id %d", req.ID)
	}
	if err := fn(req.ID); err != nil {
		resp.Message = err.Error()
		return nil
	}
	resp.Delivered = true
	resp.Message = fmt.Sprintf("upload %d %s", req.ID, verb)
	return nil
}

func (s *service) History(req HistoryRequest, resp *HistoryResponse) error {
	runs, err := s.daemon.History(s.ctx, req.Limit)
	if err != nil {
		return err
	}
	resp.Runs = runs
	return nil
}

func (s *service) QueueList(req QueueListRequest, resp *QueueListResponse) error {
	items, err := s.daemon.ListQueue(s.ctx, req.Source)
	if err != nil {
		return err
	}
	resp.Items = make([]QueueItem, 0, len(items))
	for _, item := range items {
		resp.Items = append(resp.Items, convertQueueItem(item, s.daemon.Seen(item)))
	}
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	if err != nil {
		resp.Message = fmt.Sprintf("%s: %v", message, err)
		return nil
	}
	resp.Sent = sent
	resp.Message = message
	return nil
}
