package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"listingcast/internal/config"
	"listingcast/internal/deps"
	"listingcast/internal/history"
	"listingcast/internal/ipc"
	"listingcast/internal/preflight"
	"listingcast/internal/render"
)

// LaunchOptions controls daemon process launch behavior.
type LaunchOptions struct {
	ConfigPath string
	LogLevel   string
}

type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
	StartStateRequested      StartState = "start_requested"
)

// StartResult captures daemon start orchestration state.
type StartResult struct {
	State    StartState
	Launched bool
	Message  string
}

// ErrDaemonNotRunning indicates daemon IPC is unavailable.
var ErrDaemonNotRunning = errors.New("daemon not running")

// Launch starts a detached listingcast daemon process.
func Launch(executablePath string, opts LaunchOptions) error {
	if strings.TrimSpace(executablePath) == "" {
		return fmt.Errorf("resolve executable: executable path is empty")
	}

	args := []string{"daemon"}
	if cfg := strings.TrimSpace(opts.ConfigPath); cfg != "" {
		args = append(args, "--config", cfg)
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		args = append(args, "--log-level", level)
	}

	proc := exec.Command(executablePath, args...)
	proc.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

// WaitForClient waits for IPC socket availability and returns a connected client.
func WaitForClient(socketPath string, timeout time.Duration) (*ipc.Client, error) {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		client, err := ipc.Dial(socketPath)
		if err == nil {
			return client, nil
		}
		lastErr = err
		time.Sleep(200 * time.Millisecond)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("timeout waiting for daemon")
	}
	return nil, fmt.Errorf("daemon failed to start: %w", lastErr)
}

// EnsureStarted launches the daemon when its socket is absent, then asks it
// to start monitoring source (queue.source_ref when empty).
func EnsureStarted(socketPath, executablePath, source string, opts LaunchOptions, waitTimeout time.Duration) (StartResult, error) {
	client, err := ipc.Dial(socketPath)
	launched := false
	if err != nil {
		if launchErr := Launch(executablePath, opts); launchErr != nil {
			return StartResult{}, launchErr
		}
		client, err = WaitForClient(socketPath, waitTimeout)
		if err != nil {
			return StartResult{}, err
		}
		launched = true
	}
	defer client.Close()

	status, statusErr := client.Status()
	if statusErr == nil && status != nil && status.Monitor.Running {
		if strings.TrimSpace(source) == "" || source == status.Monitor.SourceRef {
			if launched {
				return StartResult{State: StartStateStarted, Launched: true, Message: status.Monitor.SourceRef}, nil
			}
			return StartResult{State: StartStateAlreadyRunning, Message: status.Monitor.SourceRef}, nil
		}
	}

	resp, err := client.Start(source)
	if err != nil {
		return StartResult{}, err
	}
	message := strings.TrimSpace(resp.Message)
	if resp.Started {
		return StartResult{State: StartStateStarted, Launched: launched, Message: message}, nil
	}
	if strings.EqualFold(message, "monitoring already running") {
		return StartResult{State: StartStateAlreadyRunning, Launched: launched, Message: message}, nil
	}
	if message == "" {
		message = "Start request sent"
	}
	return StartResult{State: StartStateRequested, Launched: launched, Message: message}, nil
}

// ProcessAlive reports whether a process with pid exists.
func ProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

// ReadPID returns the pid recorded in the daemon pid file, or 0.
func ReadPID(pidPath string) (int, error) {
	data, err := os.ReadFile(pidPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read daemon pid file %q: %w", pidPath, err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, nil
	}
	return pid, nil
}

// WaitForExit waits until pid is gone or timeout elapses.
func WaitForExit(pid int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !ProcessAlive(pid) {
			return true
		}
		time.Sleep(100 * time.Millisecond)
	}
	return !ProcessAlive(pid)
}

// StopResult captures daemon stop/termination outcome.
type StopResult struct {
	StopAcknowledged bool
	ForcedKill       bool
	PID              int
}

// StopAndTerminate asks the daemon to stop and waits for the process to exit.
// A process still alive after gracePeriod is sent SIGKILL and its pid, lock
// and socket files are removed.
func StopAndTerminate(cfg *config.Config, gracePeriod time.Duration) (StopResult, error) {
	if cfg == nil {
		return StopResult{}, errors.New("configuration not available")
	}
	socketPath := cfg.SocketPath()
	client, err := ipc.Dial(socketPath)
	if err != nil {
		if isDaemonUnavailable(err) {
			return StopResult{}, ErrDaemonNotRunning
		}
		return StopResult{}, err
	}
	pid := 0
	if status, statusErr := client.Status(); statusErr == nil && status != nil {
		pid = status.PID
	}
	resp, err := client.Stop()
	_ = client.Close()
	if err != nil {
		return StopResult{}, err
	}
	result := StopResult{PID: pid, StopAcknowledged: resp.Stopped}

	if pid == 0 {
		pid, _ = ReadPID(cfg.PIDPath())
		result.PID = pid
	}
	if pid == 0 || pid == os.Getpid() || WaitForExit(pid, gracePeriod) {
		return result, nil
	}

	if err := unix.Kill(pid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
		return result, fmt.Errorf("kill daemon process %d: %w", pid, err)
	}
	for _, path := range []string{cfg.PIDPath(), cfg.LockPath(), socketPath} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return result, fmt.Errorf("remove %q: %w", path, err)
		}
	}
	result.ForcedKill = true
	return result, nil
}

func isDaemonUnavailable(err error) bool {
	return os.IsNotExist(err) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, syscall.ENOENT) ||
		errors.Is(err, syscall.ECONNREFUSED)
}

// StatusLine is one labelled row of `listingcast status`.
type StatusLine struct {
	Label    string `json:"label"`
	Severity string `json:"severity"`
	Detail   string `json:"detail"`
}

// Snapshot combines daemon status with offline fallbacks and preflight checks.
type Snapshot struct {
	Status       ipc.StatusResponse `json:"status"`
	Reachable    bool               `json:"reachable"`
	SystemChecks []StatusLine       `json:"system_checks"`
	Preflight    []StatusLine       `json:"preflight"`
}

// BuildStatusSnapshot collects daemon status. When the daemon is not
// reachable, run totals come from the history database and dependencies and
// backends are probed locally.
func BuildStatusSnapshot(ctx context.Context, cfg *config.Config) (*Snapshot, error) {
	if cfg == nil {
		return nil, errors.New("configuration not available")
	}
	snapshot := &Snapshot{}

	client, err := ipc.Dial(cfg.SocketPath())
	if err == nil {
		defer client.Close()
		if resp, statusErr := client.Status(); statusErr == nil && resp != nil {
			snapshot.Status = *resp
			snapshot.Reachable = true
		}
	}

	if !snapshot.Reachable {
		snapshot.Status.Unattended = cfg.Publish.Unattended
		snapshot.Status.PublishBackend = cfg.Publish.Backend
		snapshot.Status.HistoryPath = cfg.HistoryPath()
		if _, statErr := os.Stat(cfg.HistoryPath()); statErr == nil {
			queryCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			if store, openErr := history.Open(cfg); openErr == nil {
				if stats, statsErr := store.Stats(queryCtx); statsErr == nil {
					snapshot.Status.RunTotal = stats.Total
					snapshot.Status.RunOutcomes = stats.Outcomes
				}
				_ = store.Close()
			}
		}
	}
	if len(snapshot.Status.Dependencies) == 0 {
		snapshot.Status.Dependencies = ResolveDependencies(cfg)
	}
	if len(snapshot.Status.Backends) == 0 {
		for _, choice := range render.NewRegistry(cfg.Render, nil).Describe() {
			snapshot.Status.Backends = append(snapshot.Status.Backends, ipc.BackendChoice{
				Capability: choice.Capability,
				Backend:    choice.Backend,
				Detail:     choice.Detail,
			})
		}
	}

	snapshot.SystemChecks = BuildSystemChecks(cfg, snapshot)
	for _, result := range preflight.RunAll(ctx, cfg) {
		severity := "ok"
		if !result.Passed {
			severity = "warn"
		}
		snapshot.Preflight = append(snapshot.Preflight, StatusLine{Label: result.Name, Severity: severity, Detail: result.Detail})
	}
	return snapshot, nil
}

// ResolveDependencies returns current binary availability for status output.
func ResolveDependencies(cfg *config.Config) []ipc.DependencyStatus {
	if cfg == nil {
		return nil
	}
	checks := deps.CheckBinaries(deps.RenderRequirements(cfg.Render))
	statuses := make([]ipc.DependencyStatus, 0, len(checks))
	for _, check := range checks {
		statuses = append(statuses, ipc.DependencyStatus{
			Name:        check.Name,
			Command:     check.Command,
			Description: check.Description,
			Optional:    check.Optional,
			Available:   check.Available,
			Detail:      check.Detail,
		})
	}
	return statuses
}

// BuildSystemChecks resolves status lines that combine runtime state and config.
func BuildSystemChecks(cfg *config.Config, snapshot *Snapshot) []StatusLine {
	status := snapshot.Status
	lines := make([]StatusLine, 0, 6)
	if !snapshot.Reachable || !status.Running {
		lines = append(lines, StatusLine{Label: "Daemon", Severity: "warn", Detail: "Not running (run `listingcast start`)"})
	} else {
		lines = append(lines, StatusLine{Label: "Daemon", Severity: "ok", Detail: fmt.Sprintf("Running (pid %d)", status.PID)})
		switch {
		case status.Monitor.Running && !status.Monitor.WorkerAlive:
			lines = append(lines, StatusLine{Label: "Monitor", Severity: "error", Detail: "Worker exited unexpectedly"})
		case status.Monitor.Running:
			lines = append(lines, StatusLine{Label: "Monitor", Severity: "ok", Detail: fmt.Sprintf("Watching %s (%d processed)", status.Monitor.SourceRef, status.Monitor.ProcessedCount)})
		default:
			lines = append(lines, StatusLine{Label: "Monitor", Severity: "info", Detail: "Stopped"})
		}
		if current := status.Monitor.Current; current != nil {
			lines = append(lines, StatusLine{Label: "Current", Severity: "info", Detail: fmt.Sprintf("Row %d %s: %s (%d%%)", current.ItemID, current.Subject, current.Message, current.Percent)})
		}
		if status.Monitor.LastError != "" {
			lines = append(lines, StatusLine{Label: "Last error", Severity: "warn", Detail: status.Monitor.LastError})
		}
	}

	mode := "Unattended"
	if !status.Unattended {
		mode = fmt.Sprintf("Confirmed (%d pending approvals)", status.PendingApprovals)
	}
	lines = append(lines, StatusLine{Label: "Publishing", Severity: "ok", Detail: fmt.Sprintf("%s via %s", mode, status.PublishBackend)})

	if strings.TrimSpace(cfg.Notifications.NtfyTopic) != "" || strings.TrimSpace(cfg.Notifications.SQSQueueURL) != "" {
		lines = append(lines, StatusLine{Label: "Notifications", Severity: "ok", Detail: "Configured"})
	} else {
		lines = append(lines, StatusLine{Label: "Notifications", Severity: "warn", Detail: "Not configured"})
	}
	return lines
}
