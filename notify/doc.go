// Package notify pushes job progress to connected clients.
//
// Events are routed by session id. A Gateway keeps no history: an event
// published while a session has no subscribers is dropped. Clients that
// reconnect call CatchUp, or pass a job id to ServeWebsocket, to read the
// persisted job state instead.
package notify
