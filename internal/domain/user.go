package domain

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// UserPreferences holds dashboard settings for a user.
type UserPreferences struct {
	UserID               string
	Theme                string
	Language             string
	NotificationsEnabled bool
	UpdatedAt            time.Time
}

// ScreenRecording is metadata about an uploaded screen capture.
type ScreenRecording struct {
	ID          string
	UserID      string
	Title       string
	StorageKey  string
	MIME        string
	Bytes       int64
	DurationSec int
	CreatedAt   time.Time
}

// ChatMessage is the subset of a chat message the backend mutates.
type ChatMessage struct {
	ID           string
	VideoURL     string
	ErrorMessage string
}

// RecordFields is a partial update; nil fields are left untouched and an
// empty ResultURL or ErrorMessage clears the stored value.
type RecordFields struct {
	Status       *string
	ResultURL    *string
	ErrorMessage *string
}

var allowedThemes = map[string]struct{}{
	"light":  {},
	"dark":   {},
	"system": {},
}

// Normalize applies defaults, canonicalises the language as a BCP 47 tag
// and validates the theme.
func (p *UserPreferences) Normalize() error {
	p.Theme = strings.ToLower(strings.TrimSpace(p.Theme))
	if p.Theme == "" {
		p.Theme = "system"
	}
	if _, ok := allowedThemes[p.Theme]; !ok {
		return fmt.Errorf("%w: unsupported theme %q", ErrInvalidInput, p.Theme)
	}
	lang := strings.TrimSpace(p.Language)
	if lang == "" {
		lang = "en"
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return fmt.Errorf("%w: invalid language %q", ErrInvalidInput, lang)
	}
	p.Language = tag.String()
	return nil
}
