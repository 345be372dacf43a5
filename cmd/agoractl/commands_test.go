package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/jhchabran/agora"
	"github.com/jhchabran/agora/memstore"
	"github.com/rs/zerolog"
)

type testCLI struct {
	c       *qt.C
	backend *memstore.MemStore
	out     bytes.Buffer
}

func newTestCLI(c *qt.C) *testCLI {
	return &testCLI{c: c, backend: memstore.New()}
}

// run executes agoractl with args, returning its output.
func (tc *testCLI) run(args ...string) (string, error) {
	tc.out.Reset()
	d := &deps{
		out:    &tc.out,
		logger: zerolog.Nop(),
		author: agora.Author{ID: 7, Name: "haddock"},
		open: func() (agora.ListableBackend, func() error, error) {
			return tc.backend, func() error { return nil }, nil
		},
	}

	err := newApp(d).Run(context.Background(), append([]string{"agoractl"}, args...))
	return tc.out.String(), err
}

func (tc *testCLI) mustRun(args ...string) string {
	out, err := tc.run(args...)
	tc.c.Assert(err, qt.IsNil)
	return out
}

func TestCommands(t *testing.T) {
	c := qt.New(t)

	c.Run("client is required", func(c *qt.C) {
		tc := newTestCLI(c)
		_, err := tc.run("favorite", "blog", "1")
		c.Assert(err, qt.Equals, ErrClientRequired)
	})

	c.Run("comments as a tree", func(c *qt.C) {
		tc := newTestCLI(c)
		root := strings.TrimSpace(tc.mustRun("--client", "abc", "comment", "question", "1", "first"))
		tc.mustRun("--client", "abc", "comment", "--parent", root, "question", "1", "a reply")

		out := tc.mustRun("--client", "abc", "comments", "question", "1")
		lines := strings.Split(strings.TrimSpace(out), "\n")
		c.Assert(lines, qt.HasLen, 3)
		c.Assert(lines[0], qt.Equals, "#"+root+" haddock: first")
		c.Assert(strings.HasPrefix(lines[1], "  #"), qt.IsTrue)
		c.Assert(strings.HasSuffix(lines[1], "haddock: a reply"), qt.IsTrue)
		c.Assert(lines[2], qt.Equals, "2 comments")
	})

	c.Run("state is scoped to the client", func(c *qt.C) {
		tc := newTestCLI(c)
		tc.mustRun("--client", "abc", "comment", "blog", "3", "hello")

		out := tc.mustRun("--client", "xyz", "comments", "blog", "3")
		c.Assert(out, qt.Equals, "0 comments\n")
	})

	c.Run("vote toggles", func(c *qt.C) {
		tc := newTestCLI(c)
		c.Assert(tc.mustRun("--client", "abc", "vote", "--count", "10", "answer", "2", "up"), qt.Equals, "vote=1 count=11\n")
		c.Assert(tc.mustRun("--client", "abc", "vote", "--count", "11", "answer", "2", "down"), qt.Equals, "vote=-1 count=9\n")
		c.Assert(tc.mustRun("--client", "abc", "vote", "--count", "9", "answer", "2", "down"), qt.Equals, "vote=0 count=10\n")

		_, err := tc.run("--client", "abc", "vote", "answer", "2", "sideways")
		c.Assert(err, qt.ErrorIs, agora.ErrInvalidVote)
	})

	c.Run("unsupported content type", func(c *qt.C) {
		tc := newTestCLI(c)
		_, err := tc.run("--client", "abc", "vote", "blog", "2", "up")
		c.Assert(err, qt.ErrorIs, agora.ErrUnsupportedContentType)

		_, err = tc.run("--client", "abc", "favorite", "podcast", "2")
		c.Assert(err, qt.ErrorIs, agora.ErrInvalidContentType)
	})

	c.Run("favorite and hide toggle", func(c *qt.C) {
		tc := newTestCLI(c)
		c.Assert(tc.mustRun("--client", "abc", "favorite", "news", "4"), qt.Equals, "favorited=true\n")
		c.Assert(tc.mustRun("--client", "abc", "favorite", "news", "4"), qt.Equals, "favorited=false\n")
		c.Assert(tc.mustRun("--client", "abc", "hide", "comment", "4"), qt.Equals, "hidden=true\n")
	})

	c.Run("report is one shot", func(c *qt.C) {
		tc := newTestCLI(c)
		c.Assert(tc.mustRun("--client", "abc", "report", "answer", "5", "spam"), qt.Equals, "reported\n")

		out := tc.mustRun("--client", "abc", "report", "answer", "5", "rude")
		c.Assert(out, qt.Matches, `already reported on .*: spam\n`)
	})

	c.Run("accept toggles", func(c *qt.C) {
		tc := newTestCLI(c)
		c.Assert(tc.mustRun("--client", "abc", "accept", "1", "2"), qt.Equals, "accepted=true\n")
		c.Assert(tc.mustRun("--client", "abc", "accept", "1", "3"), qt.Equals, "accepted=true\n")
		c.Assert(tc.mustRun("--client", "abc", "accept", "1", "3"), qt.Equals, "accepted=false\n")
	})

	c.Run("keys lists the client tables", func(c *qt.C) {
		tc := newTestCLI(c)
		tc.mustRun("--client", "abc", "favorite", "news", "4")
		tc.mustRun("--client", "abc", "accept", "1", "2")
		tc.mustRun("--client", "xyz", "hide", "comment", "4")

		out := tc.mustRun("--client", "abc", "keys")
		c.Assert(out, qt.Equals, "content_platform_favorites\nquestion_1_accepted_answer\n")
	})

	c.Run("wrong arguments", func(c *qt.C) {
		tc := newTestCLI(c)
		_, err := tc.run("--client", "abc", "favorite", "news")
		c.Assert(err, qt.Equals, ErrUsage)
	})
}
