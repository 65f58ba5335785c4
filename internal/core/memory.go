package core

import "time"

// MemoryRecord is one completed user/assistant exchange.
type MemoryRecord struct {
	ID            int64     `json:"id"`
	SessionID     string    `json:"session_id"`
	Ordinal       int       `json:"ordinal"`
	UserText      string    `json:"user_text"`
	AssistantText string    `json:"assistant_text"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"created_at"`
}

type DocumentChunk struct {
	ID        int64     `json:"id"`
	Source    string    `json:"source"`
	Index     int       `json:"chunk_index"`
	StartWord int       `json:"start_word"`
	EndWord   int       `json:"end_word"`
	Text      string    `json:"text"`
	Tokens    int       `json:"tokens"`
	LoadedAt  time.Time `json:"loaded_at"`
}

// Hit is a ranked retrieval record. Label is the metadata shown next to it in prompts.
type Hit struct {
	ID       int64
	Content  string
	Label    string
	Distance float32
}

type DocumentInfo struct {
	Name     string    `json:"name"`
	Chunks   int       `json:"chunks"`
	LoadedAt time.Time `json:"loaded_at"`
}
