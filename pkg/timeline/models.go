package timeline

import (
	"fmt"
	"time"
)

// MediaType identifies the kind of a media item
type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

// MediaItem is a single downloadable file attached to a post
type MediaItem struct {
	URL      string    `json:"url"`
	Type     MediaType `json:"type"`
	SizeHint int64     `json:"size,omitempty"` // bytes, 0 when the backend doesn't know
	Index    int       `json:"index"`
}

// Post is one timeline entry as produced by the extraction backend.
// Posts are immutable once emitted; ids are platform-assigned snowflakes,
// so numeric order tracks recency.
type Post struct {
	ID        string      `json:"id"`
	Date      time.Time   `json:"date"`
	Media     []MediaItem `json:"media"`
	IsRetweet bool        `json:"is_retweet"`
	IsReply   bool        `json:"is_reply"`
}

// Kind selects which feed view of a user's posts to enumerate
type Kind string

const (
	// KindMedia is the media-only timeline; retweets and replies are
	// excluded, matching what users see on the profile's Media tab.
	KindMedia Kind = "media"
	// KindTweets includes retweets
	KindTweets Kind = "tweets"
	// KindWithReplies includes retweets and replies
	KindWithReplies Kind = "with_replies"
)

// ParseKind validates a timeline kind string
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindMedia, KindTweets, KindWithReplies:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("invalid timeline type %q (choose media, tweets or with_replies)", s)
	}
}

// UserInfo is the backend's description of a user, fetched before the
// timeline is enumerated
type UserInfo struct {
	ID            string `json:"id"`
	ScreenName    string `json:"screen_name"`
	Name          string `json:"name"`
	Withheld      bool   `json:"withheld"`
	Protected     bool   `json:"protected"`
	StatusesCount int    `json:"statuses_count"`
}

// Page is one cursor-delimited slice of a user's timeline, newest-first
type Page struct {
	Posts   []Post `json:"posts"`
	Cursor  string `json:"cursor"`
	HasMore bool   `json:"has_more"`
}
