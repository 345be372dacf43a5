package agora

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrInvalidContentType is returned when parsing an unknown content type name.
	ErrInvalidContentType = errors.New("invalid content type")

	// ErrUnsupportedContentType is returned when a table does not accept a content type,
	// for example voting on a blog post.
	ErrUnsupportedContentType = errors.New("unsupported content type")
)

// A ContentType scopes the records of every interaction table.
type ContentType string

const (
	QuestionType ContentType = "question"
	AnswerType   ContentType = "answer"
	BlogType     ContentType = "blog"
	NewsType     ContentType = "news"
	CommentType  ContentType = "comment"
)

// Content types accepted by each table.
var (
	votableTypes     = []ContentType{QuestionType, AnswerType}
	favoritableTypes = []ContentType{QuestionType, BlogType, NewsType}
	moderatedTypes   = []ContentType{QuestionType, AnswerType, CommentType}
	threadTypes      = []ContentType{QuestionType, AnswerType, BlogType, NewsType}
)

// ParseContentType returns the ContentType named by s.
func ParseContentType(s string) (ContentType, error) {
	switch ct := ContentType(s); ct {
	case QuestionType, AnswerType, BlogType, NewsType, CommentType:
		return ct, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidContentType, s)
}

func (ct ContentType) String() string { return string(ct) }

func (ct ContentType) in(allowed []ContentType) bool {
	for _, a := range allowed {
		if ct == a {
			return true
		}
	}
	return false
}

// Votable reports whether content of this type can be voted on.
func (ct ContentType) Votable() bool { return ct.in(votableTypes) }

// Favoritable reports whether content of this type can be added to favorites.
func (ct ContentType) Favoritable() bool { return ct.in(favoritableTypes) }

// Moderated reports whether content of this type can be hidden or reported.
func (ct ContentType) Moderated() bool { return ct.in(moderatedTypes) }

// Threaded reports whether content of this type carries a comment thread.
func (ct ContentType) Threaded() bool { return ct.in(threadTypes) }

// recordKey is the key of a record inside a table, "{type}_{id}".
func recordKey(ct ContentType, id int64) string {
	return string(ct) + "_" + strconv.FormatInt(id, 10)
}

func unsupported(table string, ct ContentType) error {
	return fmt.Errorf("%s: %w: %q", table, ErrUnsupportedContentType, ct)
}
