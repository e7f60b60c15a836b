package rag

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/themonkai/scripture-rag/config"
)

const Version = "1.0.0"

// NewServer builds the MCP server exposing the scripture Q&A engine and
// its knowledge base management tools.
func NewServer(serverName string, cfg *config.Config) (*server.MCPServer, *Client, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create rag client failed, err: %w", err)
	}

	mcpServer := server.NewMCPServer(
		serverName,
		Version,
		server.WithInstructions("Scripture Q&A engine: retrieval-grounded answers from Hindu scriptures with multi-turn sessions"),
	)

	// Q&A tools
	mcpServer.AddTool(
		mcp.NewToolWithRawSchema("chat", "Answer a question from the scripture corpus with citations, attaching the turn to a conversation session", GetChatSchema()),
		HandleChat(client),
	)
	mcpServer.AddTool(
		mcp.NewToolWithRawSchema("voice-chat", "Transcribe a voice recording and answer it like a text question", GetVoiceChatSchema()),
		HandleVoiceChat(client),
	)

	// Knowledge base management tools
	mcpServer.AddTool(
		mcp.NewToolWithRawSchema("create-chunks-from-text", "Split scripture text into chunks, embed them, and store them in the knowledge base", GetCreateChunksFromTextSchema()),
		HandleCreateChunksFromText(client),
	)
	mcpServer.AddTool(
		mcp.NewToolWithRawSchema("search-chunks", "Semantic search across stored scripture chunks without answer generation", GetSearchChunksSchema()),
		HandleSearchChunks(client),
	)
	mcpServer.AddTool(
		mcp.NewToolWithRawSchema("list-chunks", "List stored scripture chunks", GetListChunksSchema()),
		HandleListChunks(client),
	)
	mcpServer.AddTool(
		mcp.NewToolWithRawSchema("delete-chunk", "Remove one chunk from the knowledge base by id", GetDeleteChunkSchema()),
		HandleDeleteChunk(client),
	)
	mcpServer.AddTool(
		mcp.NewToolWithRawSchema("kb-stats", "Report how many chunks the knowledge base holds", GetStatsSchema()),
		HandleStats(client),
	)

	// Session tools
	mcpServer.AddTool(
		mcp.NewToolWithRawSchema("list-sessions", "List a user's conversation sessions, most recent first", GetListSessionsSchema()),
		HandleListSessions(client),
	)
	mcpServer.AddTool(
		mcp.NewToolWithRawSchema("get-session", "Fetch one conversation session with its full history", GetSessionSchema()),
		HandleGetSession(client),
	)
	mcpServer.AddTool(
		mcp.NewToolWithRawSchema("delete-session", "Delete one conversation session", GetDeleteSessionSchema()),
		HandleDeleteSession(client),
	)
	mcpServer.AddTool(
		mcp.NewToolWithRawSchema("search-sessions", "Search a user's sessions by title or past queries", GetSearchSessionsSchema()),
		HandleSearchSessions(client),
	)

	return mcpServer, client, nil
}
