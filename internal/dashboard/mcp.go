package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"hive-dashboard/internal/chat"
	"hive-dashboard/internal/telemetry"
)

// NoParams is the input of the read-only tools.
type NoParams struct{}

// ChatSendParams is the input of hive_chat_send.
type ChatSendParams struct {
	Text string `json:"text" jsonschema:"the beekeeper's message"`
	Wait bool   `json:"wait,omitempty" jsonschema:"block until the assistant reply is in the transcript"`
}

// MCPTools exposes the feed and the chat session as MCP tools so agents can
// read the hive and talk to the assistant.
type MCPTools struct {
	feed    *telemetry.Feed
	session *chat.Session
}

func NewMCPTools(feed *telemetry.Feed, session *chat.Session) *MCPTools {
	return &MCPTools{feed: feed, session: session}
}

// NewMCPServer registers every hive tool on a fresh MCP server.
func NewMCPServer(tools *MCPTools, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "hive-dashboard",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "hive_latest",
		Description: "Returns the most recent hive reading (temperature, humidity, weight, activity) with card status",
	}, tools.Latest)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "hive_window",
		Description: "Returns the rolling window of hive readings, oldest first, with min/max/mean per metric",
	}, tools.Window)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "hive_chat_send",
		Description: "Sends a message to the hive assistant and returns the transcript. Rejected while a reply is pending",
	}, tools.ChatSend)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "hive_chat_transcript",
		Description: "Returns the chat transcript and whether a reply is pending",
	}, tools.ChatTranscript)

	return server
}

// NewMCPHandler serves server over SSE.
func NewMCPHandler(server *mcp.Server) http.Handler {
	return mcp.NewSSEHandler(func(*http.Request) *mcp.Server { return server })
}

func (t *MCPTools) Latest(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[NoParams]) (*mcp.CallToolResultFor[any], error) {
	latest := t.feed.Latest()
	return jsonResult(map[string]interface{}{
		"sample": latest,
		"status": telemetry.Assess(latest),
	})
}

func (t *MCPTools) Window(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[NoParams]) (*mcp.CallToolResultFor[any], error) {
	return jsonResult(windowPayload(t.feed.Window()))
}

func (t *MCPTools) ChatSend(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[ChatSendParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	if strings.TrimSpace(args.Text) == "" {
		return errorResult("text parameter is required"), nil
	}
	if !t.session.Send(args.Text) {
		return errorResult("a reply is still pending, try again later"), nil
	}

	if args.Wait {
		if err := t.session.WaitContext(ctx); err != nil {
			return nil, err
		}
	}

	messages, pending := t.session.State()
	return jsonResult(TranscriptPayload{Messages: messages, Pending: pending})
}

func (t *MCPTools) ChatTranscript(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[NoParams]) (*mcp.CallToolResultFor[any], error) {
	messages, pending := t.session.State()
	return jsonResult(TranscriptPayload{Messages: messages, Pending: pending})
}

func jsonResult(v interface{}) (*mcp.CallToolResultFor[any], error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}, nil
}

func errorResult(msg string) *mcp.CallToolResultFor[any] {
	return &mcp.CallToolResultFor[any]{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
	}
}
