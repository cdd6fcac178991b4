// Package model defines the core NPC memory data types.
package model

import "time"

// Role identifies who spoke a chat line.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one line of the recent conversation log.
type ChatMessage struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Category groups long-term memories.
type Category string

const (
	CategoryFact         Category = "fact"
	CategoryPreference   Category = "preference"
	CategoryEvent        Category = "event"
	CategoryPromise      Category = "promise"
	CategoryFeeling      Category = "feeling"
	CategoryRelationship Category = "relationship"
)

// Memory is a long-term fact an NPC remembers about the player.
type Memory struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	Category   Category  `json:"category"`
	Importance int       `json:"importance"`
	CreatedAt  time.Time `json:"created_at"`
	SourceDay  *int      `json:"source_day,omitempty"`
}

// Theme groups core memories.
type Theme string

const (
	ThemeBond      Theme = "bond"
	ThemeMilestone Theme = "milestone"
	ThemeTrust     Theme = "trust"
	ThemeConflict  Theme = "conflict"
	ThemeIdentity  Theme = "identity"
	ThemeShared    Theme = "shared"
)

// CoreMemory is a consolidated, relationship-defining memory.
type CoreMemory struct {
	ID               string    `json:"id"`
	Content          string    `json:"content"`
	Theme            Theme     `json:"theme"`
	CreatedAt        time.Time `json:"created_at"`
	ConsolidatedFrom []string  `json:"consolidated_from"`
}

// ValidRoles are the allowed chat roles.
var ValidRoles = map[Role]bool{
	RoleUser:      true,
	RoleAssistant: true,
}

// Categories lists every memory category in prompt order.
var Categories = []Category{
	CategoryRelationship,
	CategoryPromise,
	CategoryFact,
	CategoryPreference,
	CategoryEvent,
	CategoryFeeling,
}

// ValidCategories are the allowed memory categories.
var ValidCategories = map[Category]bool{
	CategoryFact:         true,
	CategoryPreference:   true,
	CategoryEvent:        true,
	CategoryPromise:      true,
	CategoryFeeling:      true,
	CategoryRelationship: true,
}

// ValidThemes are the allowed core memory themes.
var ValidThemes = map[Theme]bool{
	ThemeBond:      true,
	ThemeMilestone: true,
	ThemeTrust:     true,
	ThemeConflict:  true,
	ThemeIdentity:  true,
	ThemeShared:    true,
}

// DefaultImportance returns the importance assigned to extracted memories
// of the given category.
func DefaultImportance(c Category) int {
	switch c {
	case CategoryPromise:
		return 9
	case CategoryRelationship:
		return 8
	case CategoryFeeling:
		return 7
	case CategoryEvent:
		return 6
	case CategoryFact, CategoryPreference:
		return 5
	default:
		return 5
	}
}
