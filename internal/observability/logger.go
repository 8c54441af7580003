package observability

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// EventType defines the category of the log event.
type EventType string

const (
	EventTypePlan        EventType = "plan"
	EventTypeStep        EventType = "step"
	EventTypeToolCall    EventType = "tool_call"
	EventTypeToolResult  EventType = "tool_result"
	EventTypeMemoryWrite EventType = "memory_write"
	EventTypeSession     EventType = "session"
	EventTypeHeartbeat   EventType = "heartbeat"
	EventTypeLLM         EventType = "llm"
)

// Event represents a structured log entry.
type Event struct {
	Type      EventType `json:"type"`
	ChatID    string    `json:"chat_id,omitempty"`
	RunID     string    `json:"run_id,omitempty"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Logger handles structured logging.
type Logger struct {
	llmLogPath string
	maxSize    int64
}

func NewLogger() *Logger {
	return &Logger{
		llmLogPath: filepath.Join("logs", "llm.jsonl"),
		maxSize:    10 * 1024 * 1024, // 10MB
	}
}

// Log emits a structured JSON event to stdout.
func (l *Logger) Log(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		fmt.Printf("{\"error\": \"failed to marshal event: %v\"}\n", err)
		return
	}
	fmt.Println(string(data))

	if evt.Type == EventTypeLLM {
		l.writeToFile(data)
	}
}

func (l *Logger) writeToFile(data []byte) {
	if err := os.MkdirAll(filepath.Dir(l.llmLogPath), 0755); err != nil {
		log.Printf("failed to create log directory: %v", err)
		return
	}

	// Check size before writing
	info, err := os.Stat(l.llmLogPath)
	if err == nil && info.Size() > l.maxSize {
		l.rotateLogs()
	}

	f, err := os.OpenFile(l.llmLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("failed to open log file: %v", err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		log.Printf("failed to write to log file: %v", err)
	}
}

func (l *Logger) rotateLogs() {
	// Simple rotation: keep one .old file
	oldPath := l.llmLogPath + ".old"
	_ = os.Remove(oldPath)
	_ = os.Rename(l.llmLogPath, oldPath)
}

// Helper methods for common events

func (l *Logger) LogPlan(chatID, runID string, steps int, errMsg string) {
	data := map[string]any{"steps": steps}
	if errMsg != "" {
		data["error"] = errMsg
	}
	l.Log(Event{
		Type:   EventTypePlan,
		ChatID: chatID,
		RunID:  runID,
		Data:   data,
	})
}

func (l *Logger) LogStep(chatID, runID string, index int, tool string) {
	l.Log(Event{
		Type:   EventTypeStep,
		ChatID: chatID,
		RunID:  runID,
		Data: map[string]any{
			"index": index,
			"tool":  tool,
		},
	})
}

func (l *Logger) LogToolCall(chatID, runID, tool string) {
	l.Log(Event{
		Type:   EventTypeToolCall,
		ChatID: chatID,
		RunID:  runID,
		Data:   map[string]string{"tool": tool},
	})
}

func (l *Logger) LogToolResult(chatID, runID, tool, errMsg string) {
	data := map[string]string{"tool": tool, "status": "ok"}
	if errMsg != "" {
		data["status"] = "error"
		data["error"] = errMsg
	}
	l.Log(Event{
		Type:   EventTypeToolResult,
		ChatID: chatID,
		RunID:  runID,
		Data:   data,
	})
}

func (l *Logger) LogMemoryWrite(chatID, runID, tool, errMsg string) {
	data := map[string]string{"tool": tool, "status": "ok"}
	if errMsg != "" {
		data["status"] = "error"
		data["error"] = errMsg
	}
	l.Log(Event{
		Type:   EventTypeMemoryWrite,
		ChatID: chatID,
		RunID:  runID,
		Data:   data,
	})
}

func (l *Logger) LogSession(chatID string, data any) {
	l.Log(Event{
		Type:   EventTypeSession,
		ChatID: chatID,
		Data:   data,
	})
}

func (l *Logger) LogHeartbeat() {
	l.Log(Event{
		Type: EventTypeHeartbeat,
		Data: map[string]string{"status": "alive"},
	})
}

func (l *Logger) LogLLM(chatID, runID string, prompt any, response string) {
	l.Log(Event{
		Type:   EventTypeLLM,
		ChatID: chatID,
		RunID:  runID,
		Data: map[string]any{
			"prompt":   prompt,
			"response": response,
		},
	})
}
