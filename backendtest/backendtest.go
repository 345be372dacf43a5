// Package backendtest checks that an agora.Backend behaves the way the store expects.
package backendtest

import (
	"context"
	"sort"
	"strings"

	qt "github.com/frankban/quicktest"
	"github.com/jhchabran/agora"
	"github.com/rs/zerolog"
)

// Run runs the backend test suite against the backend returned by newBackend, which is
// called once per subtest and must return an empty backend.
func Run(c *qt.C, newBackend func(c *qt.C) agora.ListableBackend) {
	ctx := context.Background()

	c.Run("missing keys", func(c *qt.C) {
		b := newBackend(c)

		v, ok, err := b.Get(ctx, "nope")
		c.Assert(err, qt.IsNil)
		c.Assert(ok, qt.IsFalse)
		c.Assert(v, qt.Equals, "")
	})

	c.Run("set then get", func(c *qt.C) {
		b := newBackend(c)

		c.Assert(b.Set(ctx, "content_platform_votes", `{"question_1":{"type":"question","vote":1}}`), qt.IsNil)
		v, ok, err := b.Get(ctx, "content_platform_votes")
		c.Assert(err, qt.IsNil)
		c.Assert(ok, qt.IsTrue)
		c.Assert(v, qt.Equals, `{"question_1":{"type":"question","vote":1}}`)
	})

	c.Run("set replaces", func(c *qt.C) {
		b := newBackend(c)

		c.Assert(b.Set(ctx, "k", "a"), qt.IsNil)
		c.Assert(b.Set(ctx, "k", "b"), qt.IsNil)
		v, _, err := b.Get(ctx, "k")
		c.Assert(err, qt.IsNil)
		c.Assert(v, qt.Equals, "b")
	})

	c.Run("empty values are stored", func(c *qt.C) {
		b := newBackend(c)

		c.Assert(b.Set(ctx, "k", ""), qt.IsNil)
		_, ok, err := b.Get(ctx, "k")
		c.Assert(err, qt.IsNil)
		c.Assert(ok, qt.IsTrue)
	})

	c.Run("keys by prefix", func(c *qt.C) {
		b := newBackend(c)

		for _, k := range []string{"client:a:votes", "client:a:hidden", "client:b:votes", "other"} {
			c.Assert(b.Set(ctx, k, "{}"), qt.IsNil)
		}

		keys, err := b.Keys(ctx, "client:a:")
		c.Assert(err, qt.IsNil)
		sort.Strings(keys)
		c.Assert(keys, qt.DeepEquals, []string{"client:a:hidden", "client:a:votes"})

		keys, err = b.Keys(ctx, "")
		c.Assert(err, qt.IsNil)
		c.Assert(keys, qt.HasLen, 4)

		keys, err = b.Keys(ctx, "missing:")
		c.Assert(err, qt.IsNil)
		c.Assert(keys, qt.HasLen, 0)
	})

	c.Run("drives a store", func(c *qt.C) {
		b := newBackend(c)
		s := agora.NewStore(agora.Namespace(b, agora.ClientNamespace("c1")), zerolog.Nop())

		id, err := s.AddComment(ctx, 5, agora.QuestionType, "hi", nil)
		c.Assert(err, qt.IsNil)
		_, err = s.AddComment(ctx, 5, agora.QuestionType, "hello", &id)
		c.Assert(err, qt.IsNil)
		_, err = s.ToggleFavorite(ctx, 5, agora.QuestionType)
		c.Assert(err, qt.IsNil)

		tree := agora.NewCommentTree(s.Comments(ctx, 5, agora.QuestionType))
		c.Assert(tree.Count(), qt.Equals, 2)
		c.Assert(s.IsFavorited(ctx, 5, agora.QuestionType), qt.IsTrue)

		keys, err := b.Keys(ctx, agora.ClientNamespace("c1"))
		c.Assert(err, qt.IsNil)
		for _, k := range keys {
			c.Assert(strings.HasPrefix(k, "client:c1:content_platform_"), qt.IsTrue, qt.Commentf(k))
		}
		c.Assert(keys, qt.HasLen, 2)
	})
}
