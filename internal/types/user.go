package types

import (
	"encoding/json"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// User is owned by the account subsystem. Vault code only reads the
// credentials and reads/writes the folder-id cache columns.
type User struct {
	ID                string         `gorm:"primaryKey;column:id" json:"id"`
	Email             string         `gorm:"column:email;index" json:"email"`
	TimeZone          string         `gorm:"column:time_zone" json:"time_zone"`
	DriveRefreshToken string         `gorm:"column:drive_refresh_token" json:"-"`
	VaultEnabled      bool           `gorm:"column:vault_enabled;not null;default:false" json:"vault_enabled"`
	VaultRootID       string         `gorm:"column:vault_root_id" json:"vault_root_id,omitempty"`
	VaultFolders      datatypes.JSON `gorm:"column:vault_folders" json:"vault_folders,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

func (User) TableName() string {
	return "user"
}

// FolderMap decodes the cached Partition -> folder id map. A malformed column
// reads as empty so the next write re-provisions.
func (u *User) FolderMap() map[Partition]string {
	out := map[Partition]string{}
	if u == nil || len(u.VaultFolders) == 0 {
		return out
	}
	var raw map[string]string
	if err := json.Unmarshal(u.VaultFolders, &raw); err != nil {
		return out
	}
	for k, v := range raw {
		p := Partition(k)
		if p.Valid() && strings.TrimSpace(v) != "" {
			out[p] = v
		}
	}
	return out
}

func (u *User) SetFolderMap(m map[Partition]string) error {
	raw := make(map[string]string, len(m))
	for k, v := range m {
		raw[string(k)] = v
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	u.VaultFolders = datatypes.JSON(b)
	return nil
}

// Location resolves the user's IANA zone, falling back to UTC.
func (u *User) Location() *time.Location {
	if u == nil || strings.TrimSpace(u.TimeZone) == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(strings.TrimSpace(u.TimeZone))
	if err != nil {
		return time.UTC
	}
	return loc
}

// AgentTraining is operator-edited guidance appended to one agent's system
// prompt. Read-only from the conversational path.
type AgentTraining struct {
	AgentID   string    `gorm:"primaryKey;column:agent_id" json:"agent_id"`
	Content   string    `gorm:"column:content;type:text" json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AgentTraining) TableName() string {
	return "agent_training"
}
