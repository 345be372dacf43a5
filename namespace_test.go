package agora

import (
	"context"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/jhchabran/agora/memstore"
)

// getSetBackend hides the KeyLister implementation of the backend it wraps.
type getSetBackend struct {
	Backend
}

func TestNamespace(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	c.Run("keys are prefixed", func(c *qt.C) {
		mem := memstore.New()
		ns := Namespace(mem, "client:a:")

		c.Assert(ns.Set(ctx, "votes", "{}"), qt.IsNil)

		v, ok, err := mem.Get(ctx, "client:a:votes")
		c.Assert(err, qt.IsNil)
		c.Assert(ok, qt.IsTrue)
		c.Assert(v, qt.Equals, "{}")

		v, ok, err = ns.Get(ctx, "votes")
		c.Assert(err, qt.IsNil)
		c.Assert(ok, qt.IsTrue)
		c.Assert(v, qt.Equals, "{}")

		_, ok, err = Namespace(mem, "client:b:").Get(ctx, "votes")
		c.Assert(err, qt.IsNil)
		c.Assert(ok, qt.IsFalse)
	})

	c.Run("empty prefix", func(c *qt.C) {
		mem := memstore.New()
		c.Assert(Namespace(mem, ""), qt.Equals, Backend(mem))
	})

	c.Run("keys are listed without the prefix", func(c *qt.C) {
		mem := memstore.New()
		c.Assert(mem.Set(ctx, "client:a:votes", "{}"), qt.IsNil)
		c.Assert(mem.Set(ctx, "client:a:hidden", "{}"), qt.IsNil)
		c.Assert(mem.Set(ctx, "client:b:votes", "{}"), qt.IsNil)

		keys, err := Namespace(mem, "client:a:").(KeyLister).Keys(ctx, "")
		c.Assert(err, qt.IsNil)
		c.Assert(keys, qt.DeepEquals, []string{"hidden", "votes"})
	})

	c.Run("listing keys needs a lister", func(c *qt.C) {
		ns := Namespace(getSetBackend{memstore.New()}, "client:a:")

		_, err := ns.(KeyLister).Keys(ctx, "")
		c.Assert(err, qt.ErrorMatches, "backend .* can't list keys")
	})
}
