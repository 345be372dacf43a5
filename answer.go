package agora

import (
	"context"
	"strconv"

	"github.com/jhchabran/agora/metrics"
)

func acceptedAnswerKey(questionID int64) string {
	return "question_" + strconv.FormatInt(questionID, 10) + "_accepted_answer"
}

// ToggleAcceptedAnswer marks an answer as the accepted answer of a question, replacing
// whichever answer was accepted before. If the answer was already accepted, it clears the
// acceptance instead. It returns true if the answer is now accepted.
//
// Nothing checks that the answer belongs to the question.
func (s *Store) ToggleAcceptedAnswer(ctx context.Context, questionID int64, answerID int64) (bool, error) {
	key := acceptedAnswerKey(questionID)
	current, err := loadJSON[*int64](ctx, s, key, nil)
	if err != nil {
		return false, err
	}

	var next *int64
	if current == nil || *current != answerID {
		next = &answerID
	}

	if err := writeJSON(ctx, s, key, next); err != nil {
		return current != nil && *current == answerID, err
	}
	metrics.InteractionsTotal.WithLabelValues("accept", string(AnswerType)).Inc()

	return next != nil, nil
}

// IsAnswerAccepted reports whether answerID is the accepted answer of the question.
func (s *Store) IsAnswerAccepted(ctx context.Context, questionID int64, answerID int64) bool {
	accepted, ok := s.AcceptedAnswer(ctx, questionID)
	return ok && accepted == answerID
}

// AcceptedAnswer returns the accepted answer of a question. ok is false if none is.
func (s *Store) AcceptedAnswer(ctx context.Context, questionID int64) (answerID int64, ok bool) {
	current := readJSON[*int64](ctx, s, acceptedAnswerKey(questionID), nil)
	if current == nil {
		return 0, false
	}
	return *current, true
}
