// Package mqtt wraps paho.mqtt.golang for the hub's broker connection.
//
// The hub is an MQTT listener first: it subscribes to the configured home
// topic prefix and republishes traffic to in-process subscribers (the
// WebSocket event stream). It also announces its own lifecycle on the
// system status topic with a retained message and an LWT so dashboards
// can tell a crash from a clean shutdown.
//
// # Features
//
//   - Auto-reconnect with exponential backoff
//   - Subscriptions restored automatically after reconnect
//   - Last Will and Testament for offline detection
//   - Panic recovery around message handlers
//
// The broker is optional: when it is unreachable at startup the rest of
// the hub keeps serving and the client keeps retrying in the background.
package mqtt
