// Package mcp exposes the feeds as MCP tools.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"subject-feed/src/contracts"
	"subject-feed/src/logger"
	"subject-feed/src/publish"
	"subject-feed/src/store"
	"subject-feed/src/subjects"
)

// Publisher publishes one message on behalf of a principal.
type Publisher interface {
	Publish(ctx context.Context, subject string, content string, principal contracts.Principal) (publish.Result, error)
}

// FeedResponse is the get_feed payload.
type FeedResponse struct {
	Subject  string   `json:"subject"`
	Total    int      `json:"total"`
	Messages []string `json:"messages"`
}

// SubjectsResponse is the list_subjects payload.
type SubjectsResponse struct {
	Subjects []SubjectInfo `json:"subjects"`
}

// SubjectInfo describes one subject and its current size.
type SubjectInfo struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Server is the MCP server for the subject feeds.
type Server struct {
	mcpServer *server.MCPServer
	feed      store.Feed
	publisher Publisher
	logger    logger.Logger
}

// NewServer creates a new MCP server. publisher may be nil, in which case
// publish_message is not registered.
func NewServer(feed store.Feed, publisher Publisher, log logger.Logger) *Server {
	if log == nil {
		log = logger.NewSilentLogger()
	}

	s := server.NewMCPServer(
		"subject-feed",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	srv := &Server{
		mcpServer: s,
		feed:      feed,
		publisher: publisher,
		logger:    log,
	}
	srv.registerTools()

	return srv
}

// registerTools registers all available tools.
func (s *Server) registerTools() {
	listTool := mcp.NewTool("list_subjects",
		mcp.WithDescription("List the feed subjects and how many messages each currently holds."),
	)

	feedTool := mcp.NewTool("get_feed",
		mcp.WithDescription("Return the rendered messages of one subject feed, oldest first. Each message is an HTML list item."),
		mcp.WithString("subject",
			mcp.Required(),
			mcp.Description("Subject name (sports, healthy, news, food, autos)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Return only the most recent N messages (default: all)"),
		),
	)

	s.mcpServer.AddTool(listTool, s.handleListSubjects)
	s.mcpServer.AddTool(feedTool, s.handleGetFeed)

	if s.publisher != nil {
		publishTool := mcp.NewTool("publish_message",
			mcp.WithDescription("Publish a message to a subject on behalf of a user."),
			mcp.WithString("subject",
				mcp.Required(),
				mcp.Description("Subject name (sports, healthy, news, food, autos)"),
			),
			mcp.WithString("message",
				mcp.Required(),
				mcp.Description("Message text, 1 to 500 characters"),
			),
			mcp.WithString("user_id",
				mcp.Required(),
				mcp.Description("Publishing user's id"),
			),
			mcp.WithString("username",
				mcp.Required(),
				mcp.Description("Publishing user's display name"),
			),
		)
		s.mcpServer.AddTool(publishTool, s.handlePublishMessage)
	}
}

// Run starts the MCP server on stdio.
func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

// jsonResult encodes v without escaping the HTML in rendered fragments.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(strings.TrimSuffix(buf.String(), "\n")), nil
}

func (s *Server) handleListSubjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resp := SubjectsResponse{}
	for _, name := range subjects.Names() {
		resp.Subjects = append(resp.Subjects, SubjectInfo{Name: name, Count: s.feed.Count(name)})
	}
	return jsonResult(resp)
}

func (s *Server) handleGetFeed(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	subject, err := subjects.Parse(request.GetString("subject", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	messages := s.feed.Read(subject.String())
	total := len(messages)
	if limit := request.GetInt("limit", 0); limit > 0 && limit < total {
		messages = messages[total-limit:]
	}

	return jsonResult(FeedResponse{
		Subject:  subject.String(),
		Total:    total,
		Messages: messages,
	})
}

func (s *Server) handlePublishMessage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	principal := contracts.Principal{
		UserID:   request.GetString("user_id", ""),
		Username: request.GetString("username", ""),
	}

	res, err := s.publisher.Publish(ctx, request.GetString("subject", ""), request.GetString("message", ""), principal)
	if err != nil {
		if !publish.IsValidation(err) {
			s.logger.Error("[MCP] publish_message failed: %v", err)
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}
