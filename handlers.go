package rag

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/themonkai/scripture-rag/ingest"
)

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal result failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

func HandleChat(client *Client) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		userID, err := request.RequireString("user_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		query, err := request.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		resp, err := client.Query(ctx, QueryRequest{
			UserID:    userID,
			Query:     query,
			SessionID: request.GetString("session_id", ""),
			Mode:      request.GetString("mode", ""),
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("chat failed: %v", err)), nil
		}
		return jsonResult(resp)
	}
}

func HandleVoiceChat(client *Client) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		userID, err := request.RequireString("user_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		audioPath, err := request.RequireString("audio_path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		resp, err := client.VoiceQuery(ctx, VoiceQueryRequest{
			UserID:    userID,
			AudioPath: audioPath,
			SessionID: request.GetString("session_id", ""),
			Mode:      request.GetString("mode", ""),
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("voice chat failed: %v", err)), nil
		}
		return jsonResult(resp)
	}
}

func HandleCreateChunksFromText(client *Client) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := request.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		bookName, err := request.RequireString("book_name")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		ids, err := client.IngestText(ctx, ingest.Source{
			Text:     text,
			BookName: bookName,
			Chapter:  request.GetString("chapter", ""),
			Section:  request.GetString("section", ""),
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("ingest failed: %v", err)), nil
		}
		return jsonResult(map[string]interface{}{"chunk_ids": ids, "count": len(ids)})
	}
}

func HandleSearchChunks(client *Client) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		results, err := client.SearchChunks(ctx, query, request.GetInt("top_k", 0))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
		}
		return jsonResult(results)
	}
}

func HandleListChunks(client *Client) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		docs, err := client.ListChunks(ctx, request.GetInt("limit", 0))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list chunks failed: %v", err)), nil
		}
		return jsonResult(docs)
	}
}

func HandleDeleteChunk(client *Client) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := client.DeleteChunks(ctx, []string{id}); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("delete chunk failed: %v", err)), nil
		}
		return jsonResult(map[string]string{"deleted": id})
	}
}

func HandleStats(client *Client) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		stats, err := client.Stats(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("stats failed: %v", err)), nil
		}
		return jsonResult(stats)
	}
}

func HandleListSessions(client *Client) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		userID, err := request.RequireString("user_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		offset := request.GetInt("offset", 0)
		limit := request.GetInt("limit", 20)
		sessions, err := client.Sessions().ListRange(ctx, userID, offset, limit)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list sessions failed: %v", err)), nil
		}
		return jsonResult(sessions)
	}
}

func HandleGetSession(client *Client) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		userID, err := request.RequireString("user_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		sessionID, err := request.RequireString("session_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		sess, err := client.Sessions().Get(ctx, sessionID, userID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("get session failed: %v", err)), nil
		}
		return jsonResult(sess)
	}
}

func HandleDeleteSession(client *Client) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		userID, err := request.RequireString("user_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		sessionID, err := request.RequireString("session_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := client.Sessions().Delete(ctx, sessionID, userID); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("delete session failed: %v", err)), nil
		}
		return jsonResult(map[string]string{"deleted": sessionID})
	}
}

func HandleSearchSessions(client *Client) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		userID, err := request.RequireString("user_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		term, err := request.RequireString("term")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		sessions, err := client.Sessions().Search(ctx, userID, term)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search sessions failed: %v", err)), nil
		}
		return jsonResult(sessions)
	}
}
