package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"

	"github.com/fractionalquest/onboard/pkg/domain"
	"github.com/fractionalquest/onboard/pkg/onboarding"
	"github.com/fractionalquest/onboard/pkg/policy"
)

// Version is stamped into the MCP server identity by the mcp command.
var Version = "dev"

// SnapshotResponse is the unified structure every tool returns: a complete
// session snapshot plus the outcome of the call, mirroring the HTTP gateway.
type SnapshotResponse struct {
	OK      bool            `json:"ok"`
	Session *domain.Session `json:"session,omitempty" jsonschema_description:"The current onboarding session snapshot"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Server wraps the onboarding machine and exposes it as an MCP Server, so an
// LLM agent can drive the flow through tool calls.
type Server struct {
	machine   *onboarding.Machine
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance.
func NewServer(machine *onboarding.Machine, logger *slog.Logger) *Server {
	s := &Server{
		machine:   machine,
		mcpServer: server.NewMCPServer("onboard-mcp", Version),
		logger:    logger,
	}
	s.registerTools()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// confirmFieldArgs is the decoded argument set for the confirm_field tool.
type confirmFieldArgs struct {
	UserID   string `mapstructure:"user_id"`
	FieldKey string `mapstructure:"field_key"`
	RawValue string `mapstructure:"raw_value"`
}

func (s *Server) registerTools() {
	// TOOL: confirm_field
	confirmTool := mcp.NewTool("confirm_field",
		mcp.WithDescription("Record a confirmed profile field for a user. Accepts any of the six onboarding fields in any order; call only after the user has confirmed the value."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Stable user identifier")),
		mcp.WithString("field_key", mcp.Required(), mcp.Description("One of: trinity, employment_status, vertical, location, role_preference, experience_level")),
		mcp.WithString("raw_value", mcp.Required(), mcp.Description("The value as stated by the user")),
		mcp.WithOutputSchema[SnapshotResponse](),
	)
	s.mcpServer.AddTool(confirmTool, mcp.NewStructuredToolHandler(s.handleConfirmField))

	// TOOL: get_onboarding_status
	statusTool := mcp.NewTool("get_onboarding_status",
		mcp.WithDescription("Get the current onboarding step and completion status for a user."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Stable user identifier")),
		mcp.WithOutputSchema[SnapshotResponse](),
	)
	s.mcpServer.AddTool(statusTool, mcp.NewStructuredToolHandler(s.handleGetStatus))

	// TOOL: list_steps
	s.mcpServer.AddTool(mcp.NewTool("list_steps",
		mcp.WithDescription("List the fixed onboarding steps in order, with valid options for enumerated fields."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		type step struct {
			FieldKey string   `json:"field_key"`
			Options  []string `json:"options,omitempty"`
		}
		steps := make([]step, 0, domain.NumSteps)
		for _, key := range domain.Steps() {
			steps = append(steps, step{FieldKey: string(key), Options: policy.Options(key)})
		}
		jsonBytes, _ := json.Marshal(steps)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

// Handler methods for structured tools

func (s *Server) handleConfirmField(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SnapshotResponse, error) {
	var in confirmFieldArgs
	if err := mapstructure.Decode(args, &in); err != nil {
		return SnapshotResponse{}, fmt.Errorf("invalid arguments: %w", err)
	}

	sess, err := s.machine.AssertField(ctx, in.UserID, domain.FieldKey(in.FieldKey), in.RawValue)
	if err != nil {
		// Validation and unknown-field failures go back to the agent as data,
		// with the current snapshot, so it can re-prompt the user with the
		// reason instead of treating the call as a protocol fault.
		current, readErr := s.machine.GetSession(ctx, in.UserID)
		if readErr != nil {
			current = nil
		}
		return SnapshotResponse{OK: false, Session: current, Error: err.Error()}, nil
	}

	msg := fmt.Sprintf("Confirmed %s = %s.", in.FieldKey, sess.Fields[domain.FieldKey(in.FieldKey)].NormalizedValue)
	if sess.Completed {
		msg = sess.Summary
	}
	return SnapshotResponse{OK: true, Session: sess, Message: msg}, nil
}

func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SnapshotResponse, error) {
	userID, _ := args["user_id"].(string)
	if userID == "" {
		return SnapshotResponse{}, fmt.Errorf("user_id is required")
	}

	sess, err := s.machine.GetSession(ctx, userID)
	if err != nil {
		return SnapshotResponse{OK: false, Error: err.Error()}, nil
	}
	return SnapshotResponse{OK: true, Session: sess}, nil
}
