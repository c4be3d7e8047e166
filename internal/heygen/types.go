package heygen

// TaskType selects how the avatar treats submitted text.
type TaskType string

const (
	// TaskRepeat vocalizes the text verbatim.
	TaskRepeat TaskType = "repeat"
	// TaskChat lets the provider's own LLM answer. Unused by the gateway,
	// which brings its own completion backend, but part of the wire contract.
	TaskChat TaskType = "chat"
)

// TaskMode selects whether Speak waits for playback scheduling.
type TaskMode string

const (
	TaskSync  TaskMode = "sync"
	TaskAsync TaskMode = "async"
)

// Token is a one-time streaming credential for a client-side connection.
type Token struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expire_time"`
}

// NewSessionRequest describes the avatar/voice pairing for a new session.
type NewSessionRequest struct {
	AvatarName string
	VoiceID    string
	Quality    string
	VoiceRate  float64
	Emotion    string
}

// ICEServer mirrors the provider's STUN/TURN entries for v1 sessions.
type ICEServer struct {
	URLs       []string `json:"urls"`
	Username   string   `json:"username,omitempty"`
	Credential string   `json:"credential,omitempty"`
}

// SessionInfo is the provider's session-create response, normalized.
// v2 sessions carry LiveKit credentials (URL + AccessToken); v1 sessions
// carry a raw SDP offer plus ICE servers for manual negotiation.
type SessionInfo struct {
	SessionID        string      `json:"session_id"`
	URL              string      `json:"url"`
	AccessToken      string      `json:"access_token"`
	RealtimeEndpoint string      `json:"realtime_endpoint"`
	OfferSDP         string      `json:"-"`
	ICEServers       []ICEServer `json:"-"`
}

// ManagedTransport reports whether the provider manages the media transport
// itself (room credentials present) or hands us a raw offer to negotiate.
func (s SessionInfo) ManagedTransport() bool {
	return s.URL != "" && s.AccessToken != ""
}

// Avatar is one entry of the account's avatar inventory.
type Avatar struct {
	AvatarID     string `json:"avatar_id"`
	AvatarName   string `json:"avatar_name"`
	Gender       string `json:"gender"`
	PreviewImage string `json:"preview_image_url"`
	PreviewVideo string `json:"preview_video_url"`
	Premium      bool   `json:"premium"`
}
