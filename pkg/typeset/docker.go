package typeset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	workspaceTarget = "/workspace"
	inputFileName   = "input.html"
	outputFileName  = "output.pdf"
)

// DockerConfig groups docker typesetter configuration values.
type DockerConfig struct {
	Host          string
	Image         string
	Timeout       time.Duration
	MemoryLimitMB int64
	CPUShares     int64
	Logger        zerolog.Logger
}

// DockerTypesetter runs the typesetting image inside a network-isolated
// container. The container reads /workspace/input.html and writes
// /workspace/output.pdf.
type DockerTypesetter struct {
	client *client.Client
	cfg    DockerConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewDockerTypesetter constructs a Docker backed renderer.
func NewDockerTypesetter(cfg DockerConfig) (*DockerTypesetter, error) {
	if cfg.Image == "" {
		return nil, errors.New("typeset image is required")
	}

	opts := []client.Opt{client.WithAPIVersionNegotiation()}
	if cfg.Host != "" {
		opts = append(opts, client.WithHost(cfg.Host))
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}

	if cfg.MemoryLimitMB <= 0 {
		cfg.MemoryLimitMB = 256
	}
	if cfg.CPUShares <= 0 {
		cfg.CPUShares = 512
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &DockerTypesetter{
		client: cli,
		cfg:    cfg,
		tracer: otel.Tracer("github.com/moosefactory/registrar-api/pkg/typeset"),
		logger: logger.With().Str("component", "docker_typesetter").Logger(),
	}, nil
}

// Render executes the typesetting container against the supplied markup.
func (t *DockerTypesetter) Render(parent context.Context, doc Document) (Result, error) {
	ctx, span := t.tracer.Start(parent, "typeset.docker.render", trace.WithAttributes(
		attribute.String("typeset.image", t.cfg.Image),
	))
	defer span.End()

	timeout := t.cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	workspace, err := os.MkdirTemp("", "typeset-*")
	if err != nil {
		return Result{}, fmt.Errorf("create workspace: %w", err)
	}
	defer os.RemoveAll(workspace)

	if err := os.WriteFile(filepath.Join(workspace, inputFileName), []byte(doc.HTML), 0o600); err != nil {
		return Result{}, fmt.Errorf("write input markup: %w", err)
	}

	hostCfg := &container.HostConfig{
		AutoRemove:  false,
		NetworkMode: "none",
		Resources: container.Resources{
			Memory:    t.cfg.MemoryLimitMB * 1024 * 1024,
			CPUShares: t.cfg.CPUShares,
		},
		Mounts: []mount.Mount{{
			Type:   mount.TypeBind,
			Source: workspace,
			Target: workspaceTarget,
		}},
	}

	containerCfg := &container.Config{
		Image:      t.cfg.Image,
		Cmd:        []string{inputFileName, outputFileName},
		WorkingDir: workspaceTarget,
	}

	start := time.Now()

	resp, err := t.client.ContainerCreate(ctx, containerCfg, hostCfg, &network.NetworkingConfig{}, nil, "")
	if err != nil {
		renderFailures.WithLabelValues("docker").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, fmt.Errorf("container create: %w", err)
	}

	containerID := resp.ID
	defer func() {
		removeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := t.client.ContainerRemove(removeCtx, containerID, container.RemoveOptions{Force: true}); err != nil {
			t.logger.Error().Err(err).Str("container_id", containerID).Msg("failed to remove typeset container")
		}
	}()

	if err := t.client.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		renderFailures.WithLabelValues("docker").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, fmt.Errorf("container start: %w", err)
	}

	statusCh, errCh := t.client.ContainerWait(ctx, containerID, container.WaitConditionNextExit)

	exitCode := 0
	var waitErr error
	select {
	case err := <-errCh:
		waitErr = err
	case status := <-statusCh:
		exitCode = int(status.StatusCode)
	case <-ctx.Done():
		waitErr = ctx.Err()
	}

	duration := time.Since(start)
	renderDuration.WithLabelValues("docker").Observe(duration.Seconds())

	if waitErr != nil {
		if errors.Is(waitErr, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			renderTimeouts.WithLabelValues("docker").Inc()
			killCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := t.client.ContainerKill(killCtx, containerID, "KILL"); err != nil {
				t.logger.Error().Err(err).Str("container_id", containerID).Msg("failed to kill timed out typeset container")
			}
			span.RecordError(waitErr)
			span.SetStatus(codes.Error, "render timed out")
			return Result{Duration: duration}, fmt.Errorf("%w after %s", ErrRenderTimeout, timeout)
		}

		renderFailures.WithLabelValues("docker").Inc()
		span.RecordError(waitErr)
		span.SetStatus(codes.Error, waitErr.Error())
		return Result{Duration: duration}, fmt.Errorf("container wait: %w", waitErr)
	}

	if exitCode != 0 {
		renderFailures.WithLabelValues("docker").Inc()
		span.SetStatus(codes.Error, "typesetter exited non-zero")
		return Result{Duration: duration}, fmt.Errorf("%w: typesetter exit code %d", ErrRenderFailed, exitCode)
	}

	pdf, err := os.ReadFile(filepath.Join(workspace, outputFileName))
	if err != nil {
		renderFailures.WithLabelValues("docker").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "missing output document")
		return Result{Duration: duration}, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}

	span.SetAttributes(attribute.Int("typeset.pdf_bytes", len(pdf)))

	return Result{
		PDF:      pdf,
		FileName: sanitizeFileName(doc.Name),
		Duration: duration,
	}, nil
}

// Close shuts down the underlying docker client.
func (t *DockerTypesetter) Close() error {
	if t.client == nil {
		return nil
	}
	return t.client.Close()
}
