package agora

import (
	"context"
	"strconv"
	"time"

	"github.com/jhchabran/agora/metrics"
)

// An Author is who a comment is attributed to.
type Author struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// A Comment is a single entry of a thread. Threads are append-only, comments are never
// edited nor deleted.
type Comment struct {
	ID        int64  `json:"id"`
	Content   string `json:"content"`
	Author    Author `json:"author"`
	Timestamp int64  `json:"timestamp"`
	// ParentID is nil for top-level comments.
	ParentID *int64 `json:"parentId,omitempty"`
}

// NewComment returns a comment created now. parentID may be nil.
func NewComment(id int64, content string, author Author, parentID *int64) *Comment {
	return &Comment{
		ID:        id,
		Content:   content,
		Author:    author,
		Timestamp: unixMilli(NowFunc()),
		ParentID:  parentID,
	}
}

// CreatedAt returns when the comment was posted.
func (c *Comment) CreatedAt() time.Time {
	return fromUnixMilli(c.Timestamp)
}

// IsRoot reports whether the comment is a top-level one.
func (c *Comment) IsRoot() bool {
	return c.ParentID == nil
}

func threadKey(threadID int64, ct ContentType) string {
	return commentsKey + string(ct) + "_" + strconv.FormatInt(threadID, 10) + "_comments"
}

// AddComment appends a comment from the current user to the thread of a piece of content
// and returns its id. Ids are derived from the clock and strictly increase within a thread.
//
// parentID is stored as is: callers must make sure it refers to a comment of the same thread.
func (s *Store) AddComment(ctx context.Context, threadID int64, ct ContentType, content string, parentID *int64) (int64, error) {
	if !ct.Threaded() {
		return 0, unsupported("comments", ct)
	}

	key := threadKey(threadID, ct)
	comments, err := s.loadThread(ctx, key)
	if err != nil {
		return 0, err
	}

	id := unixMilli(NowFunc())
	if n := len(comments); n > 0 && comments[n-1].ID >= id {
		id = comments[n-1].ID + 1
	}

	if parentID != nil {
		p := *parentID
		parentID = &p
	}

	comments = append(comments, NewComment(id, content, s.author, parentID))
	if err := writeJSON(ctx, s, key, comments); err != nil {
		return 0, err
	}
	metrics.InteractionsTotal.WithLabelValues("comment", string(ct)).Inc()

	return id, nil
}

// Comments returns the thread of a piece of content, in the order comments were added.
func (s *Store) Comments(ctx context.Context, threadID int64, ct ContentType) []*Comment {
	if !ct.Threaded() {
		return []*Comment{}
	}

	key := threadKey(threadID, ct)
	comments, err := s.loadThread(ctx, key)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Failed to read interaction state, using default")
		return []*Comment{}
	}
	return comments
}

func (s *Store) loadThread(ctx context.Context, key string) ([]*Comment, error) {
	comments, err := loadJSON[[]*Comment](ctx, s, key, nil)
	if err != nil {
		return nil, err
	}

	// json decodes a null entry into a nil pointer, drop them.
	kept := make([]*Comment, 0, len(comments))
	for _, c := range comments {
		if c != nil {
			kept = append(kept, c)
		}
	}
	return kept, nil
}
