package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func call[Req any, Resp any](c *Client, method string, req Req) (*Resp, error) {
	var resp Resp
	if err := c.client.Call(ServiceName+"."+method, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Start asks the daemon to start monitoring source, or queue.source_ref
// when source is empty.
func (c *Client) Start(source string) (*StartResponse, error) {
	return call[StartRequest, StartResponse](c, "Start", StartRequest{Source: source})
}

// Stop stops monitoring and shuts the daemon down.
func (c *Client) Stop() (*StopResponse, error) {
	return call[StopRequest, StopResponse](c, "Stop", StopRequest{})
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	return call[StatusRequest, StatusResponse](c, "Status", StatusRequest{})
}

// Run runs the pipeline once inside the daemon and waits for the result.
func (c *Client) Run(req RunRequest) (*RunResponse, error) {
	return call[RunRequest, RunResponse](c, "Run", req)
}

// SetPublishMode switches unattended publishing on or off.
func (c *Client) SetPublishMode(unattended bool) (*PublishModeResponse, error) {
	return call[PublishModeRequest, PublishModeResponse](c, "SetPublishMode", PublishModeRequest{Unattended: unattended})
}

// Approvals lists uploads waiting for a decision.
func (c *Client) Approvals() (*ApprovalsResponse, error) {
	return call[ApprovalsRequest, ApprovalsResponse](c, "Approvals", ApprovalsRequest{})
}

// Approve releases a parked upload.
func (c *Client) Approve(id int64) (*DecisionResponse, error) {
	return call[DecisionRequest, DecisionResponse](c, "Approve", DecisionRequest{ID: id})
}

// Reject cancels a parked upload.
func (c *Client) Reject(id int64) (*DecisionResponse, error) {
	return call[DecisionRequest, DecisionResponse](c, "Reject", DecisionRequest{ID: id})
}

// History returns up to limit recent runs.
func (c *Client) History(limit int) (*HistoryResponse, error) {
	return call[HistoryRequest, HistoryResponse](c, "History", HistoryRequest{Limit: limit})
}

// QueueList lists the rows of source, or queue.source_ref when empty.
func (c *Client) QueueList(source string) (*QueueListResponse, error) {
	return call[QueueListRequest, QueueListResponse](c, "QueueList", QueueListRequest{Source: source})
}

// TestNotification sends a test notification through the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	return call[TestNotificationRequest, TestNotificationResponse](c, "TestNotification", TestNotificationRequest{})
}
