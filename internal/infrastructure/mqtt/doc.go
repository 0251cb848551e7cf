// Package mqtt provides MQTT connectivity for Roomcast Core.
//
// This package wraps the Eclipse Paho MQTT client with:
//   - Connection management with auto-reconnect
//   - Last Will and Testament (LWT) for offline detection
//   - Subscription tracking and restoration on reconnect
//   - Panic recovery in message handlers
//   - Consistent topic naming via the Topics builder
//
// # Topic Hierarchy
//
// Roomcast talks to the host home-automation platform over a small set
// of topics:
//
//	roomcast/state/{entity}         retained entity states from the host
//	roomcast/call/{domain}/{action} capability invocations (tts, media_player, conversation)
//	roomcast/response/{request_id}  results for blocking capability calls
//	roomcast/event/{name}           announcement lifecycle events
//	roomcast/announce               announcement requests from host automations
//	roomcast/system/status          online/offline status (retained, LWT)
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	topics := mqtt.Topics{}
//	client.Subscribe(topics.AllStates(), 1, func(topic string, payload []byte) error {
//	    // handle state update
//	    return nil
//	})
package mqtt
