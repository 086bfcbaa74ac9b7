// Package wire defines the JSON wire format of the event-sourcing protocol.
//
// Every transport message carries a JSON payload whose "type" field selects
// one of four schemas:
//
// Client → server:
//
//	{ "type": "command",   "id": <uuid>, "target": <string>, "name": <string>, "payload": <any> }
//	{ "type": "subscribe", "streamId": <string> }
//
// Server → client:
//
//	{ "type": "command_result", "commandId": <uuid>, "success": true,
//	  "position": { "streamId": <string>, "eventNumber": <int> } }
//	{ "type": "command_result", "commandId": <uuid>, "success": false, "error": <string> }
//	{ "type": "event", "streamId": <string>, "position": {...},
//	  "eventType": <string>, "data": <any>, "timestamp": <ISO-8601 UTC> }
//
// Decoders validate structural invariants (non-empty identifiers, a position
// on success results, an error string on failure results). A message that
// fails decoding or validation is dropped by both protocol readers; malformed
// input never terminates a reader.
package wire
