package logger

// LogDownload logs the outcome of a single media item download
func LogDownload(username, postID, mediaType string, success bool, err error) {
	fields := map[string]interface{}{
		"username":   username,
		"post_id":    postID,
		"media_type": mediaType,
		"success":    success,
	}

	logger := GetLogger().WithFields(fields)

	if err != nil {
		logger.WithError(err).Error("Download failed")
	} else if success {
		logger.Info("Download completed")
	} else {
		logger.Warn("Download skipped")
	}
}

// LogSkip logs a non-error skip of a media item with its reason
func LogSkip(username, postID, reason string) {
	GetLogger().InfoWithFields("Skipping media item", map[string]interface{}{
		"username": username,
		"post_id":  postID,
		"reason":   reason,
	})
}

// LogPageFetch logs a timeline page fetch
func LogPageFetch(username string, page, posts int, cursor string) {
	GetLogger().DebugWithFields("Timeline page fetched", map[string]interface{}{
		"username": username,
		"page":     page,
		"posts":    posts,
		"cursor":   cursor,
	})
}
