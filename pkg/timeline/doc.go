// Package timeline enumerates an x.com user's posts through the extraction
// backend, a local gateway that owns the scraping machinery and exposes
// user lookup and cursor-paged timelines as JSON.
//
// Enumeration is lazy: the Source hands out a PostIterator whose Next call
// pulls one post at a time, fetching the following page only when the
// current one is drained. Posts arrive newest-first, which is what lets
// checkpoint-based resume stop paging as soon as a previously seen post
// shows up.
package timeline
