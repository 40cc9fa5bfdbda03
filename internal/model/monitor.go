package model

// -----------------------------------------------------------------
// Monitor API Response Models
// -----------------------------------------------------------------

// MonitorResponse is the main response for the monitor API
type MonitorResponse struct {
	Status      string          `json:"status"` // "healthy", "idle"
	Connections ConnectionStats `json:"connections"`
	Rooms       RoomStats       `json:"rooms"`
	Typing      TypingStats     `json:"typing"`
	Clients     []ClientInfo    `json:"clients"`
}

// ConnectionStats holds connection-related statistics
type ConnectionStats struct {
	TotalConnected   int `json:"totalConnected"`
	TotalAvailable   int `json:"totalAvailable"`
	TotalUnavailable int `json:"totalUnavailable"`
}

// RoomStats holds room statistics
type RoomStats struct {
	TotalRooms  int        `json:"totalRooms"`
	RoomDetails []RoomInfo `json:"roomDetails"`
}

// RoomInfo contains information about a single room
type RoomInfo struct {
	RoomID       string   `json:"roomId"`
	TotalMembers int      `json:"totalMembers"`
	MemberIDs    []string `json:"memberIds"`
}

// TypingStats holds typing-indicator statistics
type TypingStats struct {
	ActiveIndicators int `json:"activeIndicators"`
}

// ClientInfo contains information about a connected client
type ClientInfo struct {
	ChannelID   string `json:"channelId"`
	UserID      string `json:"userId"`
	IsAvailable bool   `json:"isAvailable"`
	ConnectedAt string `json:"connectedAt"` // ISO timestamp
}
