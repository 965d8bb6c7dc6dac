package types

import (
	"strconv"
	"strings"
	"time"
)

type AgentID string

const (
	AgentGeneral    AgentID = "general"
	AgentSales      AgentID = "sales"
	AgentPeptides   AgentID = "peptides"
	AgentNutrition  AgentID = "nutrition"
	AgentFitness    AgentID = "fitness"
	AgentBreathwork AgentID = "breathwork"
	AgentJournal    AgentID = "journal"
	AgentVision     AgentID = "vision"
	AgentMemory     AgentID = "memory"
	AgentSleep      AgentID = "sleep"
)

type ConversationTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LoggingIntent is one structured fact pulled out of an utterance. It feeds
// exactly one vault write and is then dropped.
type LoggingIntent struct {
	Type       string         `json:"type"`
	Data       map[string]any `json:"data"`
	Confirmed  bool           `json:"confirmed,omitempty"`
	DetectedAt time.Time      `json:"detected_at"`
}

func (li *LoggingIntent) String(key string) string {
	if li == nil || li.Data == nil {
		return ""
	}
	switch v := li.Data[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func (li *LoggingIntent) Float(key string) (float64, bool) {
	if li == nil || li.Data == nil {
		return 0, false
	}
	switch v := li.Data[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func (li *LoggingIntent) Int(key string) (int, bool) {
	if li == nil || li.Data == nil {
		return 0, false
	}
	switch v := li.Data[key].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
