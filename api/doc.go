// Package api exposes the download manager over HTTP: queue inspection, lifecycle
// commands and a server-sent event stream of download and waiting-queue updates.
package api
