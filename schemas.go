package rag

import "encoding/json"

func GetChatSchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"user_id": {"type": "string", "description": "Identifier of the user asking the question"},
			"query": {"type": "string", "description": "The question to answer from the scriptures"},
			"session_id": {"type": "string", "description": "Existing conversation session to continue; omit to start a new one"},
			"mode": {"type": "string", "enum": ["beginner", "expert"], "description": "Answer register; defaults to beginner"}
		},
		"required": ["user_id", "query"]
	}`)
}

func GetVoiceChatSchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"user_id": {"type": "string", "description": "Identifier of the user asking the question"},
			"audio_path": {"type": "string", "description": "Path to the recorded audio file; deleted after transcription"},
			"session_id": {"type": "string", "description": "Existing conversation session to continue; omit to start a new one"},
			"mode": {"type": "string", "enum": ["beginner", "expert"], "description": "Answer register; defaults to beginner"}
		},
		"required": ["user_id", "audio_path"]
	}`)
}

func GetCreateChunksFromTextSchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"text": {"type": "string", "description": "Scripture text to split, embed, and store"},
			"book_name": {"type": "string", "description": "Source book the text comes from"},
			"chapter": {"type": "string", "description": "Chapter identifier"},
			"section": {"type": "string", "description": "Section identifier"}
		},
		"required": ["text", "book_name"]
	}`)
}

func GetSearchChunksSchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string", "description": "Natural-language search query"},
			"top_k": {"type": "integer", "description": "Maximum number of chunks to return"}
		},
		"required": ["query"]
	}`)
}

func GetListChunksSchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"limit": {"type": "integer", "description": "Maximum number of chunks to list"}
		}
	}`)
}

func GetDeleteChunkSchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"id": {"type": "string", "description": "Chunk id to delete"}
		},
		"required": ["id"]
	}`)
}

func GetStatsSchema() json.RawMessage {
	return json.RawMessage(`{"type": "object", "properties": {}}`)
}

func GetListSessionsSchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"user_id": {"type": "string", "description": "Owner of the sessions"},
			"offset": {"type": "integer", "description": "Number of sessions to skip"},
			"limit": {"type": "integer", "description": "Maximum number of sessions to return"}
		},
		"required": ["user_id"]
	}`)
}

func GetSessionSchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"user_id": {"type": "string", "description": "Owner of the session"},
			"session_id": {"type": "string", "description": "Session to fetch"}
		},
		"required": ["user_id", "session_id"]
	}`)
}

func GetDeleteSessionSchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"user_id": {"type": "string", "description": "Owner of the session"},
			"session_id": {"type": "string", "description": "Session to delete"}
		},
		"required": ["user_id", "session_id"]
	}`)
}

func GetSearchSessionsSchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"user_id": {"type": "string", "description": "Owner of the sessions"},
			"term": {"type": "string", "description": "Text matched against titles and past queries"}
		},
		"required": ["user_id", "term"]
	}`)
}
