package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteDelivery records the outcome of a single per-room announcement
// delivery.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - announcementID: Identifier of the announcement request
//   - roomID: The room this delivery targeted
//   - status: Final per-room status (delivered, skipped, blocked, failed)
//   - reason: Skip/block reason, empty for delivered
//   - durationMS: Wall time spent on this room in milliseconds
//
// Example:
//
//	client.WriteDelivery("ann-abc123", "kitchen", "delivered", "", 1840)
func (c *Client) WriteDelivery(announcementID, roomID, status, reason string, durationMS float64) {
	if !c.IsConnected() {
		return
	}

	fields := map[string]interface{}{
		"duration_ms": durationMS,
	}
	if reason != "" {
		fields["reason"] = reason
	}

	point := write.NewPoint(
		"announcement_delivery",
		map[string]string{
			"announcement_id": announcementID,
			"room_id":         roomID,
			"status":          status,
		},
		fields,
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteAnnouncement records a completed announcement request as a whole.
//
// Parameters:
//   - announcementID: Identifier of the announcement request
//   - roomsTargeted: Number of rooms the resolver selected
//   - roomsDelivered: Number of rooms that reached the delivered state
//   - durationMS: Total request wall time in milliseconds
func (c *Client) WriteAnnouncement(announcementID string, roomsTargeted, roomsDelivered int, durationMS float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"announcement",
		map[string]string{
			"announcement_id": announcementID,
		},
		map[string]interface{}{
			"rooms_targeted":  roomsTargeted,
			"rooms_delivered": roomsDelivered,
			"duration_ms":     durationMS,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}
