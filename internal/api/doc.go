// Package api exposes the arcana services over HTTP. Handlers translate
// requests into service calls and map service errors onto status codes and
// sanitized messages; they hold no game rules of their own.
package api
