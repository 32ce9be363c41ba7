package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	holomcp "github.com/holodb/holo-mcp"
)

const version = "0.1.0"

func runServe() error {
	ctx := context.Background()

	serverConfig, err := loadServerConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	connString, err := buildConnString()
	if err != nil {
		return err
	}

	logger := setupLogger(serverConfig.Logging, serverConfig.Server.Transport)

	h, err := holomcp.New(ctx, connString, serverConfig.Config, logger)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	defer h.Close(ctx)

	logger.Info().Msg("testing database connection")
	if err := h.Ping(ctx); err != nil {
		logger.Error().Err(err).Msg("database connection test failed")
		return fmt.Errorf("database connection test failed: %w", err)
	}
	logger.Info().Msg("database connection test successful")

	hooks := &server.Hooks{}
	hooks.AddAfterInitialize(func(ctx context.Context, id any, req *mcp.InitializeRequest, result *mcp.InitializeResult) {
		logger.Info().
			Str("client_name", req.Params.ClientInfo.Name).
			Str("client_version", req.Params.ClientInfo.Version).
			Msg("AI agent connected (MCP initialize)")
	})

	mcpServer := server.NewMCPServer("holomcp", version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, true),
		server.WithHooks(hooks),
	)

	holomcp.RegisterMCPTools(mcpServer, h)
	holomcp.RegisterMCPResources(mcpServer, h)

	if serverConfig.Server.Transport == "http" {
		return serveHTTP(mcpServer, serverConfig.Server.Port, logger)
	}

	logger.Info().Msg("starting holomcp server on stdio")
	return server.ServeStdio(mcpServer)
}

func serveHTTP(mcpServer *server.MCPServer, port int, logger zerolog.Logger) error {
	if port <= 0 {
		panic("holomcp: server.port must be > 0 for http transport")
	}

	addr := fmt.Sprintf(":%d", port)
	mux := http.NewServeMux()
	httpSrv := &http.Server{Addr: addr, Handler: mux}

	streamableServer := server.NewStreamableHTTPServer(mcpServer,
		server.WithEndpointPath("/mcp"),
		server.WithStateLess(true),
		server.WithStreamableHTTPServer(httpSrv),
	)
	// Start() does not register the handler when a custom *http.Server is
	// provided, so mount it explicitly.
	mux.Handle("/mcp", streamableServer)

	logger.Info().Int("port", port).Msg("starting holomcp server on http")
	return streamableServer.Start(addr)
}

// loadServerConfig layers the optional TOML config file over defaults.
func loadServerConfig() (*holomcp.ServerConfig, error) {
	config := &holomcp.ServerConfig{Config: holomcp.DefaultConfig()}

	configPath := os.Getenv("HOLOMCP_CONFIG_PATH")
	if configPath == "" {
		return config, nil
	}
	if _, err := toml.DecodeFile(configPath, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}
	return config, nil
}

// buildConnString assembles the connection string from the HOLOGRES_*
// environment variables, read once at startup. The password is prompted
// interactively when absent and stdin is a terminal.
func buildConnString() (string, error) {
	host := envOr("HOLOGRES_HOST", "localhost")
	port := envOr("HOLOGRES_PORT", "5432")
	user := os.Getenv("HOLOGRES_USER")
	password := os.Getenv("HOLOGRES_PASSWORD")
	database := os.Getenv("HOLOGRES_DATABASE")

	if user == "" || database == "" {
		return "", fmt.Errorf("missing required database configuration: HOLOGRES_USER and HOLOGRES_DATABASE must be set")
	}
	if password == "" {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return "", fmt.Errorf("missing required database configuration: HOLOGRES_PASSWORD must be set")
		}
		password = promptPassword("Password: ")
	}

	parts := []string{
		"host=" + host,
		"port=" + port,
		"user=" + user,
		"password=" + password,
		"dbname=" + database,
		"application_name=holo-mcp-" + version,
	}
	return strings.Join(parts, " "), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func setupLogger(config holomcp.LoggingConfig, transport string) zerolog.Logger {
	level := zerolog.InfoLevel
	switch strings.ToLower(config.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	var output io.Writer = os.Stderr
	switch {
	case config.Output == "stdout" && transport == "http":
		output = os.Stdout
	case config.Output != "" && config.Output != "stderr" && config.Output != "stdout":
		f, err := os.OpenFile(config.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err == nil {
			output = f
		}
	}
	// stdio transport owns stdout for protocol frames; logs stay on stderr.

	if config.Format == "text" {
		output = zerolog.ConsoleWriter{Out: output}
	}

	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

func promptPassword(prompt string) string {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return ""
	}
	return string(password)
}
