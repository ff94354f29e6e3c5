// Package devserver is an in-memory stand-in for the hosted backend. It
// honors the wire contract the widget and dashboard clients consume —
// nothing more. Chat replies are canned, documents are never really
// ingested, and no state survives the process; the real chat, RAG, billing,
// and auth machinery live in the hosted product and are out of scope here.
package devserver

import (
	"crypto/subtle"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/snipdev/snip-widget/api"
)

// Tenant is one simulated customer account
type Tenant struct {
	Client     api.Client
	APIKey     string
	Config     api.Config
	TTSEnabled bool

	Documents []*api.Document
	Usage     map[string]*api.UsageDay // keyed by YYYY-MM-DD
}

// Store holds tenants behind a mutex. There is deliberately no persistence:
// the stand-in backend starts fresh every run, just like the widget session
// starts fresh every page load.
type Store struct {
	mu   sync.RWMutex
	byID map[string]*Tenant
}

// NewStore creates an empty tenant store
func NewStore() *Store {
	return &Store{byID: make(map[string]*Tenant)}
}

// DefaultConfig is the branding a fresh tenant starts with, mirroring the
// hosted product's defaults.
func DefaultConfig(companyName string) api.Config {
	return api.Config{
		BotName:         companyName + " Assistant",
		PrimaryColor:    "#3B82F6",
		SecondaryColor:  "#1E40AF",
		BackgroundColor: "#111827",
		TextColor:       "#F3F4F6",
		WelcomeMessage:  "Hi! How can I help you today?",
		PlaceholderText: "Type a message...",
		Position:        api.PositionBottomRight,
		AutoOpen:        false,
		ShowBranding:    true,
		AllowedDomains:  []string{},
	}
}

// AddTenant provisions a tenant with default branding
func (s *Store) AddTenant(email, companyName, apiKey string, tier api.Tier, ttsEnabled bool) *Tenant {
	t := &Tenant{
		Client: api.Client{
			ID:          uuid.NewString(),
			Email:       email,
			CompanyName: companyName,
			Tier:        tier,
			IsActive:    true,
			CreatedAt:   time.Now().UTC(),
		},
		APIKey:     apiKey,
		Config:     DefaultConfig(companyName),
		TTSEnabled: ttsEnabled,
		Usage:      make(map[string]*api.UsageDay),
	}

	s.mu.Lock()
	s.byID[t.Client.ID] = t
	s.mu.Unlock()

	return t
}

// ByID looks a tenant up by client id. Inactive tenants are not returned.
func (s *Store) ByID(id string) *Tenant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.byID[id]
	if !ok || !t.Client.IsActive {
		return nil
	}
	return t
}

// ByKey looks a tenant up by API key using constant-time comparison
func (s *Store) ByKey(key string) *Tenant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.byID {
		if subtle.ConstantTimeCompare([]byte(t.APIKey), []byte(key)) == 1 && t.Client.IsActive {
			return t
		}
	}
	return nil
}

// UpdateConfig applies a partial update to a tenant's config and returns the
// result.
func (s *Store) UpdateConfig(t *Tenant, update *api.ConfigUpdate) api.Config {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := &t.Config
	if update.BotName != nil {
		cfg.BotName = *update.BotName
	}
	if update.LogoURL != nil {
		cfg.LogoURL = update.LogoURL
	}
	if update.PrimaryColor != nil {
		cfg.PrimaryColor = *update.PrimaryColor
	}
	if update.SecondaryColor != nil {
		cfg.SecondaryColor = *update.SecondaryColor
	}
	if update.BackgroundColor != nil {
		cfg.BackgroundColor = *update.BackgroundColor
	}
	if update.TextColor != nil {
		cfg.TextColor = *update.TextColor
	}
	if update.WelcomeMessage != nil {
		cfg.WelcomeMessage = *update.WelcomeMessage
	}
	if update.PlaceholderText != nil {
		cfg.PlaceholderText = *update.PlaceholderText
	}
	if update.SystemPrompt != nil {
		cfg.SystemPrompt = *update.SystemPrompt
	}
	if update.Position != nil {
		cfg.Position = *update.Position
	}
	if update.AutoOpen != nil {
		cfg.AutoOpen = *update.AutoOpen
	}
	if update.ShowBranding != nil {
		cfg.ShowBranding = *update.ShowBranding
	}
	if update.AllowedDomains != nil {
		cfg.AllowedDomains = *update.AllowedDomains
	}

	return *cfg
}

// ConfigSnapshot returns a copy of the tenant's config
func (s *Store) ConfigSnapshot(t *Tenant) api.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return t.Config
}

// OriginAllowed checks a request Origin against the tenant's allow-list. An
// empty allow-list allows every origin.
func (s *Store) OriginAllowed(t *Tenant, origin string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(t.Config.AllowedDomains) == 0 || origin == "" {
		return true
	}
	for _, domain := range t.Config.AllowedDomains {
		if strings.Contains(origin, domain) {
			return true
		}
	}
	return false
}

// RecordChat bumps today's usage counters for one chat turn
func (s *Store) RecordChat(t *Tenant, tokens int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	day := time.Now().UTC().Format("2006-01-02")
	u, ok := t.Usage[day]
	if !ok {
		u = &api.UsageDay{Date: day}
		t.Usage[day] = u
	}
	u.MessageCount++
	u.TokenCount += tokens
}

// UsageSummary aggregates the last days days of usage, newest first
func (s *Store) UsageSummary(t *Tenant, days int) *api.UsageSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if days <= 0 {
		days = 30
	}

	summary := &api.UsageSummary{DailyUsage: []api.UsageDay{}}
	now := time.Now().UTC()
	for i := 0; i < days; i++ {
		day := now.AddDate(0, 0, -i).Format("2006-01-02")
		u, ok := t.Usage[day]
		if !ok {
			continue
		}
		summary.DailyUsage = append(summary.DailyUsage, *u)
		summary.TotalMessages += u.MessageCount
		summary.TotalTokens += u.TokenCount
		summary.TotalRAGQueries += u.RAGQueryCount
	}
	return summary
}

// AddDocument records an uploaded document as immediately processed
func (s *Store) AddDocument(t *Tenant, filename string, size int64) *api.Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	fileType := "txt"
	if i := strings.LastIndex(filename, "."); i >= 0 && i < len(filename)-1 {
		fileType = filename[i+1:]
	}

	doc := &api.Document{
		ID:          uuid.NewString(),
		Filename:    filename,
		FileType:    fileType,
		FileSize:    size,
		Status:      api.DocumentProcessed,
		ChunkCount:  int(size/1024) + 1,
		CreatedAt:   now,
		ProcessedAt: &now,
	}
	t.Documents = append(t.Documents, doc)
	return doc
}

// Documents lists a tenant's documents
func (s *Store) Documents(t *Tenant) *api.DocumentList {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]*api.Document, len(t.Documents))
	copy(docs, t.Documents)
	return &api.DocumentList{Documents: docs, Total: len(docs)}
}

// DeleteDocument removes a document by id, reporting whether it existed
func (s *Store) DeleteDocument(t *Tenant, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, doc := range t.Documents {
		if doc.ID == id {
			t.Documents = append(t.Documents[:i], t.Documents[i+1:]...)
			return true
		}
	}
	return false
}
