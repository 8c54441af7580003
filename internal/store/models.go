package store

// Entry is the durable record of one executed pipeline step. Entries
// are append-only: created by the orchestrator, never mutated or
// deleted afterwards.
type Entry struct {
	ID           int64  `json:"id"`
	ChatID       int64  `json:"chat_id"`
	UserID       int64  `json:"user_id"`
	Prompt       string `json:"prompt"`
	Tool         string `json:"tool"`
	Response     string `json:"response"`
	ResponseCode int    `json:"response_code"` // 200 on success, 500 on failure
	Timestamp    int64  `json:"timestamp"`     // epoch seconds
}
