package api

import "time"

// Tier is a client account tier
type Tier string

// Tiers
const (
	TierBasic   Tier = "basic"
	TierPremium Tier = "premium"
)

// Client is a customer account
type Client struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	CompanyName string    `json:"company_name"`
	Tier        Tier      `json:"tier"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Config is a client's full widget configuration as seen through the
// authenticated dashboard API. The public widget only ever sees the
// WidgetConfig projection of it.
type Config struct {
	BotName         string   `json:"bot_name"`
	LogoURL         *string  `json:"logo_url"`
	PrimaryColor    string   `json:"primary_color"`
	SecondaryColor  string   `json:"secondary_color"`
	BackgroundColor string   `json:"background_color"`
	TextColor       string   `json:"text_color"`
	WelcomeMessage  string   `json:"welcome_message"`
	PlaceholderText string   `json:"placeholder_text"`
	SystemPrompt    string   `json:"system_prompt,omitempty"`
	Position        string   `json:"position"`
	AutoOpen        bool     `json:"auto_open"`
	ShowBranding    bool     `json:"show_branding"`
	AllowedDomains  []string `json:"allowed_domains"`
}

// ConfigUpdate is a partial Config. Nil fields are left unchanged.
type ConfigUpdate struct {
	BotName         *string   `json:"bot_name,omitempty"`
	LogoURL         *string   `json:"logo_url,omitempty"`
	PrimaryColor    *string   `json:"primary_color,omitempty"`
	SecondaryColor  *string   `json:"secondary_color,omitempty"`
	BackgroundColor *string   `json:"background_color,omitempty"`
	TextColor       *string   `json:"text_color,omitempty"`
	WelcomeMessage  *string   `json:"welcome_message,omitempty"`
	PlaceholderText *string   `json:"placeholder_text,omitempty"`
	SystemPrompt    *string   `json:"system_prompt,omitempty"`
	Position        *string   `json:"position,omitempty"`
	AutoOpen        *bool     `json:"auto_open,omitempty"`
	ShowBranding    *bool     `json:"show_branding,omitempty"`
	AllowedDomains  *[]string `json:"allowed_domains,omitempty"`
}

// WidgetView projects the dashboard Config onto the public widget shape
func (c *Config) WidgetView() *WidgetConfig {
	return &WidgetConfig{
		BotName: c.BotName,
		LogoURL: c.LogoURL,
		Colors: Colors{
			Primary:    c.PrimaryColor,
			Secondary:  c.SecondaryColor,
			Background: c.BackgroundColor,
			Text:       c.TextColor,
		},
		WelcomeMessage:  c.WelcomeMessage,
		PlaceholderText: c.PlaceholderText,
		Position:        c.Position,
		AutoOpen:        c.AutoOpen,
		ShowBranding:    c.ShowBranding,
	}
}

// DocumentStatus is a knowledge-base document's ingestion state
type DocumentStatus string

// DocumentStatuses
const (
	DocumentPending   DocumentStatus = "pending"
	DocumentProcessed DocumentStatus = "processed"
	DocumentFailed    DocumentStatus = "failed"
)

// Document is an uploaded knowledge-base document
type Document struct {
	ID           string         `json:"id"`
	Filename     string         `json:"filename"`
	FileType     string         `json:"file_type"`
	FileSize     int64          `json:"file_size"`
	Status       DocumentStatus `json:"status"`
	ChunkCount   int            `json:"chunk_count"`
	CreatedAt    time.Time      `json:"created_at"`
	ProcessedAt  *time.Time     `json:"processed_at"`
	ErrorMessage string         `json:"error_message,omitempty"`
}

// DocumentList is a page of documents
type DocumentList struct {
	Documents []*Document `json:"documents"`
	Total     int         `json:"total"`
}

// UsageDay is one day of usage counters
type UsageDay struct {
	Date          string `json:"date"`
	MessageCount  int    `json:"message_count"`
	TokenCount    int    `json:"token_count"`
	RAGQueryCount int    `json:"rag_query_count"`
}

// UsageSummary aggregates usage over a period
type UsageSummary struct {
	TotalMessages   int        `json:"total_messages"`
	TotalTokens     int        `json:"total_tokens"`
	TotalRAGQueries int        `json:"total_rag_queries"`
	DailyUsage      []UsageDay `json:"daily_usage"`
}

// EmbedSnippet is the copy-paste embed code for a client site
type EmbedSnippet struct {
	HTML      string `json:"html"`
	ScriptURL string `json:"script_url"`
	ClientID  string `json:"client_id"`
}
