package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/atomloop/atomloop/internal/config"
	"github.com/atomloop/atomloop/internal/logging"
	"github.com/atomloop/atomloop/internal/ratelimit"
	"github.com/atomloop/atomloop/internal/session"
	"github.com/atomloop/atomloop/internal/store"
	"github.com/atomloop/atomloop/internal/study"
)

// Server wraps the MCP SDK server and exposes atomloop study tools.
type Server struct {
	server       *sdk.Server
	store        store.ReviewStore
	planner      *study.Planner
	session      *session.State
	root         string
	now          func() time.Time
	toolLimiters ratelimit.ToolLimiters
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Name    string // Server name (e.g., "atomloop")
	Version string // Server version
	Root    string // Project root directory
}

// NewServer opens the store under the root and builds an MCP server with
// all study tools registered.
func NewServer(cfg *ServerConfig) (*Server, error) {
	appCfg, err := config.Load(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	// Stdout carries the stdio transport, so operational logs go to stderr.
	slog.SetDefault(logging.NewLogger(appCfg.Logging.Level, os.Stderr))

	st, err := store.NewSQLiteStore(cfg.Root, appCfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	decisions := logging.NewDecisionLogger(filepath.Join(cfg.Root, ".atomloop"), appCfg.Logging.Level)
	planner, err := study.NewPlanner(st, appCfg, decisions)
	if err != nil {
		st.Close()
		return nil, err
	}

	now := time.Now
	stateDir := filepath.Join(cfg.Root, ".atomloop")
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		st.Close()
		return nil, fmt.Errorf("creating state directory: %w", err)
	}
	sess, err := session.LoadState(stateDir, now())
	if err != nil {
		st.Close()
		return nil, err
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			// Client initialized, ready to serve
		},
	})

	s := &Server{
		server:       mcpServer,
		store:        st,
		planner:      planner,
		session:      sess,
		root:         cfg.Root,
		now:          now,
		toolLimiters: ratelimit.NewToolLimiters(),
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Run starts the MCP server over stdio transport.
// This blocks until the client disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		cancel()
	}()

	err := s.server.Run(ctx, &sdk.StdioTransport{})

	// Session survives across server restarts.
	if saveErr := session.SaveState(s.session, filepath.Join(s.root, ".atomloop")); saveErr != nil && err == nil {
		err = saveErr
	}
	s.store.Close()

	return err
}

// Close closes the server and releases resources.
func (s *Server) Close() error {
	return s.store.Close()
}
