// Package docker runs solver trials inside containers so that sweeps can
// use a pinned solver image with CPU and memory limits instead of a local
// binary.
package docker

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/api/types/mount"
	"github.com/moby/moby/client"
)

type RunOpts struct {
	Image       string
	Command     []string
	DataDir     string
	StatsDir    string
	Timeout     time.Duration
	CPULimit    float64
	MemoryLimit int64
}

type RunResult struct {
	ExitCode int
	TimedOut bool
	Duration time.Duration
}

// RunSolver starts a container for a single trial and waits for it to
// finish. DataDir is mounted read-only at /data and StatsDir writable at
// /stats; the command is expected to use paths under those roots. A trial
// that outlives Timeout is killed and reported as timed out with exit
// code 124.
func RunSolver(ctx context.Context, opts *RunOpts) (*RunResult, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("creating docker client: %w", err)
	}
	defer cli.Close()

	mounts := []mount.Mount{
		{
			Type:     mount.TypeBind,
			Source:   opts.DataDir,
			Target:   "/data",
			ReadOnly: true,
		},
		{
			Type:   mount.TypeBind,
			Source: opts.StatsDir,
			Target: "/stats",
		},
	}

	initTrue := true
	hostCfg := &container.HostConfig{
		Mounts: mounts,
		Init:   &initTrue,
	}
	if opts.CPULimit > 0 {
		hostCfg.NanoCPUs = int64(opts.CPULimit * 1e9)
	}
	if opts.MemoryLimit > 0 {
		hostCfg.Memory = opts.MemoryLimit
	}

	containerCfg := &container.Config{
		Image:  opts.Image,
		Cmd:    opts.Command,
		Labels: map[string]string{"mapfbench": "true"},
	}

	createResp, err := cli.ContainerCreate(ctx, client.ContainerCreateOptions{
		Config:     containerCfg,
		HostConfig: hostCfg,
	})
	if err != nil {
		return nil, fmt.Errorf("creating container: %w", err)
	}
	containerID := createResp.ID
	defer func() {
		cli.ContainerRemove(context.Background(), containerID, client.ContainerRemoveOptions{Force: true})
	}()

	start := time.Now()
	if _, err := cli.ContainerStart(ctx, containerID, client.ContainerStartOptions{}); err != nil {
		return nil, fmt.Errorf("starting container: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	waitResult := cli.ContainerWait(timeoutCtx, containerID, client.ContainerWaitOptions{
		Condition: container.WaitConditionNotRunning,
	})
	for {
		select {
		case err := <-waitResult.Error:
			if err != nil {
				cli.ContainerKill(context.Background(), containerID, client.ContainerKillOptions{Signal: "SIGKILL"})
				return &RunResult{
					ExitCode: 124,
					TimedOut: true,
					Duration: time.Since(start),
				}, nil
			}
			// nil error means no error on this channel; wait for result
		case status := <-waitResult.Result:
			if status.StatusCode != 0 {
				dumpLogs(cli, containerID)
			}
			return &RunResult{
				ExitCode: int(status.StatusCode),
				TimedOut: false,
				Duration: time.Since(start),
			}, nil
		}
	}
}

// dumpLogs tails a failed container's output to stderr so a diverging
// solver build is diagnosable without rerunning by hand.
func dumpLogs(cli *client.Client, containerID string) {
	logReader, _ := cli.ContainerLogs(context.Background(), containerID, client.ContainerLogsOptions{ShowStdout: true, ShowStderr: true, Tail: "100"})
	if logReader == nil {
		return
	}
	logData, _ := io.ReadAll(logReader)
	logReader.Close()
	if len(logData) > 0 {
		fmt.Fprintf(os.Stderr, "Container logs:\n%s\n", string(logData))
	}
}
