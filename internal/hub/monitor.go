package hub

import (
	"time"

	"github.com/prithvirajx-max/Driftyy-sub001/internal/model"
)

// MonitorService provides methods to gather hub statistics
type MonitorService struct {
	hub *Hub
}

// NewMonitorService creates a new monitor service
func NewMonitorService(hub *Hub) *MonitorService {
	return &MonitorService{hub: hub}
}

// GetStats gathers and returns all hub statistics
func (ms *MonitorService) GetStats() model.MonitorResponse {
	connectionStats, clients := ms.getConnectionStats()
	roomStats := ms.getRoomStats()

	status := "healthy"
	if connectionStats.TotalConnected == 0 {
		status = "idle"
	}

	return model.MonitorResponse{
		Status:      status,
		Connections: connectionStats,
		Rooms:       roomStats,
		Typing: model.TypingStats{
			ActiveIndicators: ms.hub.typing.ActiveCount(),
		},
		Clients: clients,
	}
}

func (ms *MonitorService) getConnectionStats() (model.ConnectionStats, []model.ClientInfo) {
	snapshot := ms.hub.registry.Snapshot()

	stats := model.ConnectionStats{
		TotalConnected: len(snapshot),
	}

	clients := make([]model.ClientInfo, 0, len(snapshot))
	for _, c := range snapshot {
		available, _, _ := c.Availability()
		if available {
			stats.TotalAvailable++
		} else {
			stats.TotalUnavailable++
		}

		clients = append(clients, model.ClientInfo{
			ChannelID:   c.ID,
			UserID:      c.userID,
			IsAvailable: available,
			ConnectedAt: c.openedAt.Format(time.RFC3339),
		})
	}

	return stats, clients
}

func (ms *MonitorService) getRoomStats() model.RoomStats {
	ms.hub.roomsMu.RLock()
	defer ms.hub.roomsMu.RUnlock()

	stats := model.RoomStats{
		RoomDetails: make([]model.RoomInfo, 0, len(ms.hub.rooms)),
	}

	for roomID, room := range ms.hub.rooms {
		memberIDs := make([]string, 0, len(room))
		for _, c := range room {
			memberIDs = append(memberIDs, c.userID)
		}

		stats.RoomDetails = append(stats.RoomDetails, model.RoomInfo{
			RoomID:       roomID,
			TotalMembers: len(room),
			MemberIDs:    memberIDs,
		})
		stats.TotalRooms++
	}

	return stats
}
