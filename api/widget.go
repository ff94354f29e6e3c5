package api

// Widget positions
const (
	PositionBottomRight = "bottom-right"
	PositionBottomLeft  = "bottom-left"
)

// Colors is the widget color palette
type Colors struct {
	Primary    string `json:"primary"`
	Secondary  string `json:"secondary"`
	Background string `json:"background"`
	Text       string `json:"text"`
}

// WidgetConfig is the public-safe configuration served to an embedded widget.
// Field names follow the widget wire format (camelCase).
type WidgetConfig struct {
	BotName         string  `json:"botName"`
	LogoURL         *string `json:"logoUrl"`
	Colors          Colors  `json:"colors"`
	WelcomeMessage  string  `json:"welcomeMessage"`
	PlaceholderText string  `json:"placeholderText"`
	Position        string  `json:"position"`
	AutoOpen        bool    `json:"autoOpen"`
	ShowBranding    bool    `json:"showBranding"`
	Width           int     `json:"width,omitempty"`
	Height          int     `json:"height,omitempty"`
	Theme           string  `json:"theme,omitempty"`
	CustomCSS       string  `json:"customCss,omitempty"`
}

// ChatRequest is a chat message sent by the widget
type ChatRequest struct {
	ClientID string `json:"client_id"`
	Message  string `json:"message"`
}

// ChatResponse is the backend's reply to a ChatRequest. AudioURL, when
// present, is a directly playable resource (usually a data: URL); absence
// means no pre-rendered audio is available.
type ChatResponse struct {
	Response string `json:"response"`
	AudioURL string `json:"audio_url,omitempty"`
}
