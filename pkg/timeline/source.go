package timeline

import (
	"context"
	"io"
	"net/http"

	"xdl/pkg/errors"
	"xdl/pkg/logger"
	"xdl/pkg/ratelimit"
)

// Source enumerates a user's posts newest-first, fetching timeline pages
// lazily as the consumer pulls. A page is only requested once the previous
// page's posts have all been handed out, so downstream stages that stop
// early (limit hit, checkpoint reached) never trigger fetches they don't
// need.
type Source struct {
	client  *Client
	limiter ratelimit.Limiter // nil disables pacing
	logger  logger.Logger
}

// NewSource creates a post source backed by the given client
func NewSource(client *Client, limiter ratelimit.Limiter, log logger.Logger) *Source {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Source{
		client:  client,
		limiter: limiter,
		logger:  log,
	}
}

// Posts validates the username, resolves the user and returns an iterator
// over their timeline. No timeline page is fetched until the first Next call.
func (s *Source) Posts(ctx context.Context, username string, kind Kind) (*PostIterator, error) {
	username = SanitizeUsername(username)
	if !IsValidUsername(username) {
		return nil, errors.New(errors.ErrorTypeUnknown, 0, "invalid username: %s", username)
	}

	user, err := s.client.ResolveUser(ctx, username)
	if err != nil {
		return nil, err
	}

	s.logger.InfoWithFields("resolved user", map[string]interface{}{
		"username": user.ScreenName,
		"user_id":  user.ID,
		"posts":    user.StatusesCount,
	})

	return &PostIterator{
		source:   s,
		ctx:      ctx,
		username: username,
		kind:     kind,
		user:     user,
		hasMore:  true,
	}, nil
}

// PostIterator yields posts one at a time, newest-first. It is not safe for
// concurrent use; the fetch loop is the only consumer.
type PostIterator struct {
	source   *Source
	ctx      context.Context
	username string
	kind     Kind
	user     *UserInfo

	buf     []Post
	cursor  string
	hasMore bool
	pages   int
}

// User returns the resolved account the iterator walks
func (it *PostIterator) User() *UserInfo {
	return it.user
}

// Pages returns how many timeline pages have been fetched so far
func (it *PostIterator) Pages() int {
	return it.pages
}

// Next returns the next post. It returns io.EOF once the timeline is
// exhausted and any backend error as-is; after a non-EOF error the iterator
// is not resumable.
func (it *PostIterator) Next() (*Post, error) {
	for {
		if len(it.buf) > 0 {
			post := it.buf[0]
			it.buf = it.buf[1:]

			if it.skip(&post) {
				continue
			}
			return &post, nil
		}

		if !it.hasMore {
			return nil, io.EOF
		}

		if err := it.fetchPage(); err != nil {
			return nil, err
		}
	}
}

// skip filters out entries the requested timeline kind doesn't cover. The
// backend already scopes the media timeline, but protects against gateways
// that return the raw feed for every kind.
func (it *PostIterator) skip(post *Post) bool {
	switch it.kind {
	case KindMedia:
		if post.IsRetweet || post.IsReply {
			return true
		}
	case KindTweets:
		if post.IsReply {
			return true
		}
	}
	return len(post.Media) == 0
}

func (it *PostIterator) fetchPage() error {
	if it.source.limiter != nil {
		it.source.limiter.Wait()
	}
	if err := it.ctx.Err(); err != nil {
		return err
	}

	page, err := it.source.client.TimelinePage(it.ctx, it.username, it.kind, it.cursor)
	if err != nil {
		return err
	}
	it.pages++
	logger.LogPageFetch(it.username, it.pages, len(page.Posts), page.Cursor)

	// A page with no posts and no cursor ends the timeline even if the
	// backend forgot to clear has_more.
	it.buf = page.Posts
	it.cursor = page.Cursor
	it.hasMore = page.HasMore && page.Cursor != ""

	if len(page.Posts) == 0 && page.Cursor == "" {
		it.hasMore = false
	}

	return nil
}

// IsProtectedErr reports whether err indicates the account is protected and
// the current credentials cannot see its posts.
func IsProtectedErr(err error) bool {
	if e, ok := err.(*errors.Error); ok {
		return e.Type == errors.ErrorTypeAuth && e.Code == http.StatusForbidden
	}
	return false
}
