// Package host is Roomcast's contract with the hosting home-automation
// platform.
//
// The announcement pipeline never talks to speakers, TTS engines, or AI
// agents directly. It reads entity state through StateReader, invokes
// platform capabilities (tts.speak, media_player.play_media,
// conversation.process) through CapabilityCaller, and publishes
// lifecycle events through EventEmitter.
//
// Bridge implements all three over the MQTT bus: the host mirrors
// entity states onto retained roomcast/state/{entity} topics, accepts
// capability calls on roomcast/call/{domain}/{action}, and answers
// blocking calls on roomcast/response/{request_id}.
package host
