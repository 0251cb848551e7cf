package announce

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roomcast/roomcast-core/internal/directory"
	"github.com/roomcast/roomcast-core/internal/gate"
	"github.com/roomcast/roomcast-core/internal/host"
	"github.com/roomcast/roomcast-core/internal/infrastructure/config"
)

// Broadcaster is the interface for pushing live events to WebSocket
// clients.
type Broadcaster interface {
	// Broadcast sends an event to all clients subscribed to the given channel.
	Broadcast(channel string, payload any)
}

// DeliveryRecorder records announcement outcomes for history queries.
type DeliveryRecorder interface {
	WriteDelivery(announcementID, roomID, status, reason string, durationMS float64)
	WriteAnnouncement(announcementID string, roomsTargeted, roomsDelivered int, durationMS float64)
}

// Dispatcher orchestrates announcement delivery: target resolution,
// gates, composition, chime, and the speech call, room by room.
//
// Thread Safety: Announce is safe for concurrent use; rooms within one
// request are processed sequentially.
type Dispatcher struct {
	cfg      config.AnnounceConfig
	registry *directory.Registry

	resolver   *Resolver
	aggregator *Aggregator
	targets    *TargetResolver
	gates      *Evaluator
	composer   *Composer

	caller host.CapabilityCaller
	events host.EventEmitter

	hub      Broadcaster
	recorder DeliveryRecorder

	logger Logger
}

// NewDispatcher assembles the announcement pipeline. Pass nil for
// logger to disable logging; the broadcaster and recorder are optional
// and attached via setters.
func NewDispatcher(cfg config.AnnounceConfig, registry *directory.Registry, states host.StateReader, caller host.CapabilityCaller, events host.EventEmitter, gates gate.Store, logger Logger) *Dispatcher {
	if logger == nil {
		logger = noopLogger{}
	}

	resolver := NewResolver(registry, states, logger)
	aggregator := NewAggregator(registry, resolver, states)

	return &Dispatcher{
		cfg:        cfg,
		registry:   registry,
		resolver:   resolver,
		aggregator: aggregator,
		targets:    NewTargetResolver(registry, resolver, aggregator, states, logger),
		gates:      NewEvaluator(gates),
		composer:   NewComposer(caller, cfg, logger),
		caller:     caller,
		events:     events,
		logger:     logger,
	}
}

// SetBroadcaster attaches a WebSocket hub for live event pushes.
func (d *Dispatcher) SetBroadcaster(hub Broadcaster) {
	d.hub = hub
}

// SetRecorder attaches a delivery history recorder.
func (d *Dispatcher) SetRecorder(recorder DeliveryRecorder) {
	d.recorder = recorder
}

// Announce delivers a message to its resolved rooms and returns after
// every room has been attempted.
//
// Unknown targets fail the whole request before any room is touched.
// Per-room failures are isolated: the joined error reports them, but
// the other rooms still run and the Result records every outcome.
func (d *Dispatcher) Announce(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, ErrEmptyMessage
	}

	useTracking := overrideFlag(req.RoomTracking, d.cfg.RoomTracking)
	usePresence := overrideFlag(req.PresenceVerification, d.cfg.PresenceVerification)

	targets, err := d.targets.Resolve(ctx, req, useTracking, usePresence)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		if strings.TrimSpace(req.TargetPerson) != "" {
			return nil, ErrNobodyHome
		}
		return nil, ErrNothingOccupied
	}

	start := time.Now()
	result := &Result{
		ID:        uuid.NewString(),
		StartedAt: start.UTC(),
	}

	d.logger.Info("announcement started",
		"id", result.ID,
		"rooms", len(targets),
		"target_person", req.TargetPerson,
		"target_area", req.TargetArea)

	var failures []error
	for _, target := range targets {
		roomResult, err := d.announceRoom(ctx, req, target, usePresence)
		result.Rooms = append(result.Rooms, roomResult)

		if err != nil {
			failures = append(failures, fmt.Errorf("room %s: %w", target.Room.Name, err))
		}
		if roomResult.Status == StatusDelivered {
			result.Delivered++
		}
		if d.recorder != nil {
			d.recorder.WriteDelivery(result.ID, target.Room.ID,
				string(roomResult.Status), roomResult.Reason, roomResult.DurationMS)
		}
	}

	result.Duration = time.Since(start).String()

	if d.recorder != nil {
		d.recorder.WriteAnnouncement(result.ID, len(targets), result.Delivered,
			float64(time.Since(start).Milliseconds()))
	}
	if d.hub != nil {
		d.hub.Broadcast("announcement.completed", result)
	}

	d.logger.Info("announcement completed",
		"id", result.ID,
		"rooms", len(targets),
		"delivered", result.Delivered,
		"duration", result.Duration)

	return result, errors.Join(failures...)
}

// announceRoom runs the delivery sequence for one room.
func (d *Dispatcher) announceRoom(ctx context.Context, req Request, target ResolvedTarget, usePresence bool) (RoomResult, error) {
	start := time.Now()
	room := target.Room
	result := RoomResult{
		RoomID:   room.ID,
		RoomName: room.Name,
		Status:   StatusPending,
	}
	defer func() {
		result.DurationMS = float64(time.Since(start).Milliseconds())
	}()

	if !room.HasSpeaker() {
		d.logger.Debug("room has no speaker, skipping", "room", room.Name)
		result.Status = StatusSkipped
		result.Reason = ReasonNoSpeaker
		return result, nil
	}

	if d.gates.RoomBlocked(room.ID) {
		d.logger.Info("room disabled, blocking announcement", "room", room.Name)
		result.Status = StatusBlocked
		result.Reason = ReasonRoomDisabled
		d.emitBlocked(room.Name, ReasonRoomDisabled, "")
		return result, nil
	}

	// A muted targeted person drops out; the room only blocks when
	// nobody targeted there remains audible.
	people := target.People
	if len(people) > 0 {
		var allowed []directory.Person
		for _, person := range people {
			if d.gates.PersonBlocked(person.ID) {
				d.logger.Info("person muted, dropping from delivery",
					"person", person.Name, "room", room.Name)
				continue
			}
			allowed = append(allowed, person)
		}
		if len(allowed) == 0 {
			result.Status = StatusBlocked
			result.Reason = ReasonPersonDisabled
			d.emitBlocked(room.Name, ReasonPersonDisabled, joinNames(people))
			return result, nil
		}
		people = allowed
	}

	occupants := d.aggregator.PeopleInRoom(ctx, room.ID, usePresence)
	group := d.registry.GroupSettings(ctx)

	text, settings := d.composer.Compose(ctx, req.Message, people, occupants, group, req.Enhance, req.Translate)
	result.Message = text
	result.People = joinNames(people)

	if overrideFlag(req.PreAnnounce, d.cfg.PreAnnounce.Enabled) && d.cfg.PreAnnounce.URL != "" {
		d.playChime(ctx, room.MediaPlayer)
	}

	if err := d.speak(ctx, room.MediaPlayer, text, settings); err != nil {
		d.logger.Error("speech delivery failed", "room", room.Name, "error", err)
		result.Status = StatusFailed
		result.Reason = ReasonTTSFailed
		return result, fmt.Errorf("%w: %v", ErrTTSFailed, err)
	}

	result.Status = StatusDelivered
	d.logger.Info("announced", "room", room.Name, "message", text)

	payload := map[string]any{
		"room":          room.Name,
		"message":       text,
		"target_person": joinNames(people),
	}
	d.events.Emit("announcement_sent", payload)
	if d.hub != nil {
		d.hub.Broadcast("announcement.sent", payload)
	}
	return result, nil
}

// playChime plays the pre-announce sound and holds for the settle
// delay so the chime finishes before speech starts. Best effort: a
// failed chime never stops the announcement.
func (d *Dispatcher) playChime(ctx context.Context, mediaPlayer string) {
	callCtx, cancel := withTimeout(ctx, d.cfg.ChimeTimeout())
	defer cancel()

	_, err := d.caller.Call(callCtx, "media_player", "play_media", map[string]any{
		"entity_id":          mediaPlayer,
		"media_content_id":   d.cfg.PreAnnounce.URL,
		"media_content_type": "music",
		"announce":           true,
	}, true)
	if err != nil {
		d.logger.Warn("pre-announce chime failed", "player", mediaPlayer, "error", err)
		return
	}

	if delay := d.cfg.PreAnnounceDelay(); delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
		}
	}
}

// speak issues the text-to-speech call for a room.
func (d *Dispatcher) speak(ctx context.Context, mediaPlayer, text string, settings directory.VoiceSettings) error {
	engine := settings.TTSEngine
	if engine == "" {
		engine = d.cfg.DefaultTTSEngine
	}
	if engine == "" {
		d.logger.Warn("no tts engine configured, delivery may fail", "player", mediaPlayer)
	}

	payload := map[string]any{
		"entity_id":              engine,
		"media_player_entity_id": mediaPlayer,
		"message":                text,
		"cache":                  true,
	}
	if settings.TTSVoice != "" {
		payload["options"] = map[string]any{"voice": settings.TTSVoice}
	}

	callCtx, cancel := withTimeout(ctx, d.cfg.TTSTimeout())
	defer cancel()

	_, err := d.caller.Call(callCtx, "tts", "speak", payload, true)
	return err
}

// emitBlocked fires the blocked event on the bus and the hub.
func (d *Dispatcher) emitBlocked(roomName, reason, person string) {
	payload := map[string]any{
		"room":   roomName,
		"reason": reason,
	}
	if person != "" {
		payload["target_person"] = person
	}
	d.events.Emit("announcement_blocked", payload)
	if d.hub != nil {
		d.hub.Broadcast("announcement.blocked", payload)
	}
}

// joinNames renders a person list for events and results.
func joinNames(people []directory.Person) string {
	if len(people) == 0 {
		return ""
	}
	names := make([]string, len(people))
	for i, p := range people {
		names[i] = p.Name
	}
	return strings.Join(names, ", ")
}

// withTimeout bounds a capability call when a timeout is configured.
// Zero preserves the block-until-answered behaviour.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return ctx, func() {}
}
