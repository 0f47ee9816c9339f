package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jaakkos/brainstorm/internal/domain"
)

// serverInfo is what a running server leaves in its pid file.
type serverInfo struct {
	PID  int
	Port int
}

func writePIDFile(path string, port int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create pid dir: %w", err)
	}
	return os.WriteFile(path, []byte(fmt.Sprintf("%d:%d", os.Getpid(), port)), 0o644)
}

func removePIDFile(path string) {
	_ = os.Remove(path)
}

func readPIDFile(path string) (serverInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return serverInfo{}, err
	}
	pidStr, portStr, ok := strings.Cut(strings.TrimSpace(string(data)), ":")
	if !ok {
		return serverInfo{}, errors.New("malformed pid file")
	}
	pid, err := strconv.Atoi(pidStr)
	if err != nil {
		return serverInfo{}, fmt.Errorf("pid: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return serverInfo{}, fmt.Errorf("port: %w", err)
	}
	return serverInfo{PID: pid, Port: port}, nil
}

func isPIDAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

// newStatusCmd prints one line: entry counts per collection and whether a server is up.
func newStatusCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show entry counts and whether a server is running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withRuntime(cmd, func(rt *runtime) error {
				var parts []string
				for _, col := range domain.Collections() {
					items, err := rt.svc.Refresh(cmd.Context(), col)
					if err != nil {
						return err
					}
					parts = append(parts, fmt.Sprintf("%s=%d", col, len(items)))
				}
				server := "stopped"
				if info, err := readPIDFile(c.pol.PIDFile()); err == nil && isPIDAlive(info.PID) {
					server = fmt.Sprintf("running(pid=%d,port=%d)", info.PID, info.Port)
				}
				parts = append(parts, "server="+server)
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(parts, " "))
				return nil
			})
		},
	}
}
