package ipc

import (
	"time"

	"listingcast/internal/daemon"
	"listingcast/internal/history"
	"listingcast/internal/monitor"
	"listingcast/internal/pipeline"
	"listingcast/internal/publish"
	"listingcast/internal/workqueue"
)

// StartRequest starts the monitoring loop. An empty Source means
// queue.source_ref.
type StartRequest struct {
	Source string `json:"source"`
}

// StartResponse indicates whether monitoring was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest stops the monitoring loop and shuts the daemon down.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// DependencyStatus describes availability of an external binary.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// BackendChoice reports which backend serves a render capability.
type BackendChoice struct {
	Capability string `json:"capability"`
	Backend    string `json:"backend"`
	Detail     string `json:"detail,omitempty"`
}

// StatusResponse represents combined daemon and monitor status.
type StatusResponse struct {
	Running          bool               `json:"running"`
	PID              int                `json:"pid"`
	Monitor          monitor.Status     `json:"monitor"`
	Unattended       bool               `json:"unattended"`
	PublishBackend   string             `json:"publish_backend"`
	QueueStrategy    string             `json:"queue_strategy"`
	PendingApprovals int                `json:"pending_approvals"`
	RunTotal         int                `json:"run_total"`
	RunOutcomes      map[string]int     `json:"run_outcomes"`
	Backends         []BackendChoice    `json:"backends"`
	Dependencies     []DependencyStatus `json:"dependencies"`
	LockPath         string             `json:"lock_path"`
	HistoryPath      string             `json:"history_path"`
}

// RunRequest runs the pipeline once for a listing without a queue row.
type RunRequest struct {
	Address string `json:"address"`
	Type    string `json:"type"`
	Notice  string `json:"notice"`
}

// RunResponse carries the pipeline result.
type RunResponse struct {
	Result pipeline.Result `json:"result"`
}

// PublishModeRequest switches between unattended and confirmed publishing.
type PublishModeRequest struct {
	Unattended bool `json:"unattended"`
}

// PublishModeResponse echoes the active mode.
type PublishModeResponse struct {
	Unattended bool `json:"unattended"`
}

// ApprovalsRequest lists parked uploads.
type ApprovalsRequest struct{}

// Approval is a parked upload awaiting an operator decision.
type Approval struct {
	ID          int64     `json:"id"`
	Subject     string    `json:"subject"`
	Title       string    `json:"title"`
	VideoPath   string    `json:"video_path"`
	Backend     string    `json:"backend"`
	RequestedAt time.Time `json:"requested_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ApprovalsResponse contains parked uploads, oldest first.
type ApprovalsResponse struct {
	Approvals []Approval `json:"approvals"`
}

// DecisionRequest approves or rejects one parked upload.
type DecisionRequest struct {
	ID int64 `json:"id"`
}

// DecisionResponse reports whether the decision was delivered.
type DecisionResponse struct {
	Delivered bool   `json:"delivered"`
	Message   string `json:"message,omitempty"`
}

// HistoryRequest asks for the most recent runs.
type HistoryRequest struct {
	Limit int `json:"limit"`
}

// HistoryResponse contains runs, newest first.
type HistoryResponse struct {
	Runs []history.Run `json:"runs"`
}

// QueueListRequest lists the rows of a source. An empty Source means
// queue.source_ref.
type QueueListRequest struct {
	Source string `json:"source"`
}

// QueueItem is a queue row as shown by `queue list`.
type QueueItem struct {
	ID        int64  `json:"id"`
	Subject   string `json:"subject"`
	Category  string `json:"category"`
	Status    string `json:"status"`
	RawStatus string `json:"raw_status,omitempty"`
	Seen      bool   `json:"seen"`
}

// QueueListResponse contains queue rows in sheet order.
type QueueListResponse struct {
	Items []QueueItem `json:"items"`
}

// TestNotificationRequest triggers a test notification.
type TestNotificationRequest struct{}

// TestNotificationResponse reports whether the notification was sent.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

func convertStatus(status daemon.Status) StatusResponse {
	resp := StatusResponse{
		Running:          status.Running,
		PID:              status.PID,
		Monitor:          status.Monitor,
		Unattended:       status.Unattended,
		PublishBackend:   status.PublishBackend,
		QueueStrategy:    status.QueueStrategy,
		PendingApprovals: status.PendingApprovals,
		RunTotal:         status.History.Total,
		RunOutcomes:      status.History.Outcomes,
		LockPath:         status.LockFilePath,
		HistoryPath:      status.HistoryPath,
	}
	for _, choice := range status.Backends {
		resp.Backends = append(resp.Backends, BackendChoice{
			Capability: choice.Capability,
			Backend:    choice.Backend,
			Detail:     choice.Detail,
		})
	}
	for _, dep := range status.Dependencies {
		resp.Dependencies = append(resp.Dependencies, DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		})
	}
	return resp
}

func convertApproval(a publish.Approval) Approval {
	return Approval{
		ID:          a.ID,
		Subject:     a.Summary.Subject,
		Title:       a.Summary.Title,
		VideoPath:   a.Summary.VideoPath,
		Backend:     a.Summary.Backend,
		RequestedAt: a.RequestedAt,
		ExpiresAt:   a.ExpiresAt,
	}
}

func convertQueueItem(item workqueue.WorkItem, seen bool) QueueItem {
	return QueueItem{
		ID:        item.ID,
		Subject:   item.Subject,
		Category:  item.Category,
		Status:    string(item.Status),
		RawStatus: item.RawStatus,
		Seen:      seen,
	}
}
