// Package downloader drives a single episode download through its lifecycle.
//
// A Downloader wraps a Transfer strategy with a fixed skeleton:
//   - StartDownload marks the item STARTED, persists and broadcasts it, then runs the transfer
//   - PauseDownload, StopDownload and FailDownload raise the cancellation flag the transfer polls
//   - FinishDownload strips the temporary marker from the working file and stamps the item
//
// Transfer failures never escape the Downloader: they become a status transition,
// a log entry and a notification on TopicDownload.
package downloader
