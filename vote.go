package agora

import (
	"context"
	"errors"
	"fmt"

	"github.com/jhchabran/agora/metrics"
)

// ErrInvalidVote is returned when casting a vote that is neither Up nor Down.
var ErrInvalidVote = errors.New("invalid vote direction")

// A VoteDirection is the vote a client holds on a piece of content.
type VoteDirection int

const (
	Down   VoteDirection = -1
	NoVote VoteDirection = 0
	Up     VoteDirection = 1
)

// voteEntry is how a vote is persisted in the votes table.
type voteEntry struct {
	Type ContentType   `json:"type"`
	Vote VoteDirection `json:"vote"`
}

// CastVote records a vote in the given direction and returns the adjusted vote count,
// given the count currently displayed.
//
// Casting the vote already held retracts it. Casting the opposite vote switches it,
// undoing the previous one along the way.
func (s *Store) CastVote(ctx context.Context, id int64, ct ContentType, dir VoteDirection, currentCount int) (int, error) {
	if !ct.Votable() {
		return currentCount, unsupported("votes", ct)
	}
	if dir != Up && dir != Down {
		return currentCount, fmt.Errorf("%w: %d", ErrInvalidVote, dir)
	}

	votes, err := loadTable[voteEntry](ctx, s, votesKey)
	if err != nil {
		return currentCount, err
	}
	key := recordKey(ct, id)
	prior := votes[key].Vote

	var count int
	if prior == dir {
		votes[key] = voteEntry{Type: ct, Vote: NoVote}
		count = currentCount - int(dir)
	} else {
		votes[key] = voteEntry{Type: ct, Vote: dir}
		count = currentCount - int(prior) + int(dir)
	}

	if err := writeJSON(ctx, s, votesKey, votes); err != nil {
		return currentCount, err
	}
	metrics.InteractionsTotal.WithLabelValues("vote", string(ct)).Inc()

	return count, nil
}

// Vote returns the vote held on a piece of content, NoVote if there is none.
func (s *Store) Vote(ctx context.Context, id int64, ct ContentType) VoteDirection {
	if !ct.Votable() {
		return NoVote
	}

	votes := readTable[voteEntry](ctx, s, votesKey)
	return votes[recordKey(ct, id)].Vote
}
