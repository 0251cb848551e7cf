package directory

import "time"

// VoiceSettings holds the per-person or group voice configuration used
// when composing and speaking an announcement.
//
// Empty string fields mean "use the service default" for that value.
type VoiceSettings struct {
	Language  string `json:"language,omitempty"`
	TTSEngine string `json:"tts_engine,omitempty"`
	TTSVoice  string `json:"tts_voice,omitempty"`
	AIAgent   string `json:"ai_agent,omitempty"`
	Enhance   bool   `json:"enhance"`
	Translate bool   `json:"translate"`
}

// Person represents a tracked household member.
//
// PresenceEntity is the host entity carrying the home/away signal
// (e.g. "person.alice"). TrackerEntity optionally carries the
// room-level location signal (e.g. "sensor.alice_room"); when empty the
// person is home/away only and never resolves to a room.
type Person struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	PresenceEntity string        `json:"presence_entity"`
	TrackerEntity  string        `json:"tracker_entity,omitempty"`
	Voice          VoiceSettings `json:"voice"`
	SortOrder      int           `json:"sort_order"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// Room represents an announceable space.
//
// MediaPlayer is the host media player entity for the room's speaker;
// rooms without one are silently skipped during dispatch.
// OccupancySensors lists binary sensors used for presence verification
// and occupancy-based targeting.
type Room struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	MediaPlayer      string    `json:"media_player,omitempty"`
	OccupancySensors []string  `json:"occupancy_sensors"`
	SortOrder        int       `json:"sort_order"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// HasSpeaker reports whether the room can play announcements.
func (r *Room) HasSpeaker() bool {
	return r.MediaPlayer != ""
}

// GroupSettings holds the voice configuration used when an announcement
// addresses more than one person (or nobody in particular).
//
// Addressee is the collective name substituted into personalisation
// tokens, e.g. "Everyone".
type GroupSettings struct {
	Addressee string        `json:"addressee"`
	Voice     VoiceSettings `json:"voice"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// DeepCopy returns an independent copy of the person.
func (p *Person) DeepCopy() *Person {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

// DeepCopy returns an independent copy of the room, including its
// sensor list.
func (r *Room) DeepCopy() *Room {
	if r == nil {
		return nil
	}
	cp := *r
	if r.OccupancySensors != nil {
		cp.OccupancySensors = make([]string, len(r.OccupancySensors))
		copy(cp.OccupancySensors, r.OccupancySensors)
	}
	return &cp
}
