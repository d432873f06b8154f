// Package checkpoint persists the per-username resume marker between runs.
//
// A checkpoint records the id and date of the newest fully processed post
// plus the time of the last update. Subsequent runs stop enumerating the
// timeline as soon as they reach that position, so only new posts are
// fetched and downloaded.
//
// Checkpoints are stored one JSON file per username in platform-specific
// data directories:
//   - Linux: ~/.local/share/xdl/checkpoints/
//   - macOS: ~/Library/Application Support/xdl/checkpoints/
//   - Windows: %APPDATA%/xdl/checkpoints/
//
// Writes are atomic (temp file + rename). A missing or corrupt checkpoint
// is treated as absent rather than fatal. Concurrent runs against the same
// username are not coordinated; that is a caller responsibility.
package checkpoint
