package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/jhchabran/agora"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
)

var (
	// ErrClientRequired is returned when no client id is given.
	ErrClientRequired = errors.New("--client is required")
	// ErrUsage is returned when a command gets the wrong arguments.
	ErrUsage = errors.New("wrong number of arguments")
)

// deps holds what every command needs.
type deps struct {
	out    io.Writer
	logger zerolog.Logger
	author agora.Author
	open   func() (agora.ListableBackend, func() error, error)
}

// withStore opens the backend and hands a Store scoped to the client given by --client
// to fn, releasing the backend afterwards.
func (d *deps) withStore(fn func(ctx context.Context, c *cli.Command, s *agora.Store) error) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		clientID := c.String("client")
		if clientID == "" {
			return ErrClientRequired
		}

		backend, closeBackend, err := d.open()
		if err != nil {
			return fmt.Errorf("failed to open backend: %w", err)
		}
		defer closeBackend()

		logger := d.logger.With().Str("client_id", clientID).Logger()
		s := agora.NewStore(agora.Namespace(backend, agora.ClientNamespace(clientID)), logger)
		s.SetCurrentUser(d.author)

		return fn(ctx, c, s)
	}
}

// contentArgs parses the leading "TYPE ID" arguments of a command.
func contentArgs(c *cli.Command, n int) (agora.ContentType, int64, error) {
	if c.Args().Len() != n {
		return "", 0, ErrUsage
	}

	ct, err := agora.ParseContentType(c.Args().Get(0))
	if err != nil {
		return "", 0, err
	}

	id, err := strconv.ParseInt(c.Args().Get(1), 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid id %q: %w", c.Args().Get(1), err)
	}

	return ct, id, nil
}

func newApp(d *deps) *cli.Command {
	return &cli.Command{
		Name:  "agoractl",
		Usage: "Inspect and edit the interaction state of a client",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "client",
				Usage: "Id of the client whose state is read or written",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "comments",
				Usage:     "Print the comment thread of a piece of content",
				ArgsUsage: "TYPE ID",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "flat",
						Usage: "Print comments in storage order instead of as a tree",
					},
				},
				Action: d.withStore(d.handleComments),
			},
			{
				Name:      "comment",
				Usage:     "Add a comment to the thread of a piece of content",
				ArgsUsage: "TYPE ID CONTENT",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "parent",
						Usage: "Id of the comment being replied to",
					},
				},
				Action: d.withStore(d.handleComment),
			},
			{
				Name:      "vote",
				Usage:     "Vote on a question or an answer, casting the same vote again retracts it",
				ArgsUsage: "TYPE ID up|down",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "count",
						Usage: "Vote count currently displayed",
					},
				},
				Action: d.withStore(d.handleVote),
			},
			{
				Name:      "favorite",
				Usage:     "Toggle a piece of content in favorites",
				ArgsUsage: "TYPE ID",
				Action:    d.withStore(d.handleFavorite),
			},
			{
				Name:      "hide",
				Usage:     "Toggle a piece of content hidden",
				ArgsUsage: "TYPE ID",
				Action:    d.withStore(d.handleHide),
			},
			{
				Name:      "report",
				Usage:     "Report a piece of content, only the first report is kept",
				ArgsUsage: "TYPE ID REASON",
				Action:    d.withStore(d.handleReport),
			},
			{
				Name:      "accept",
				Usage:     "Toggle the accepted answer of a question",
				ArgsUsage: "QUESTION_ID ANSWER_ID",
				Action:    d.withStore(d.handleAccept),
			},
			{
				Name:   "keys",
				Usage:  "List the keys holding the state of the client",
				Action: d.handleKeys,
			},
		},
	}
}

func (d *deps) handleComments(ctx context.Context, c *cli.Command, s *agora.Store) error {
	ct, id, err := contentArgs(c, 2)
	if err != nil {
		return err
	}

	comments := s.Comments(ctx, id, ct)
	if c.Bool("flat") {
		for _, cm := range comments {
			parent := "-"
			if cm.ParentID != nil {
				parent = strconv.FormatInt(*cm.ParentID, 10)
			}
			fmt.Fprintf(d.out, "%d\t%s\t%s\t%s\n", cm.ID, parent, cm.Author.Name, cm.Content)
		}
		return nil
	}

	tree := agora.NewCommentTree(comments)
	tree.SetHidden(func(id int64) bool { return s.IsHidden(ctx, id, agora.CommentType) })
	tree.Walk(func(n *agora.CommentNode) {
		content := n.Comment.Content
		if n.Hidden {
			content = "[hidden]"
		}
		fmt.Fprintf(d.out, "%s#%d %s: %s\n", strings.Repeat("  ", n.Depth), n.Comment.ID, n.Comment.Author.Name, content)
	})
	fmt.Fprintf(d.out, "%d comments\n", tree.Count())

	return nil
}

func (d *deps) handleComment(ctx context.Context, c *cli.Command, s *agora.Store) error {
	ct, id, err := contentArgs(c, 3)
	if err != nil {
		return err
	}

	content := strings.TrimSpace(c.Args().Get(2))
	if content == "" {
		return fmt.Errorf("empty comment")
	}

	var parentID *int64
	if c.IsSet("parent") {
		p := c.Int("parent")
		parentID = &p
	}

	commentID, err := s.AddComment(ctx, id, ct, content, parentID)
	if err != nil {
		return err
	}

	fmt.Fprintf(d.out, "%d\n", commentID)
	return nil
}

func (d *deps) handleVote(ctx context.Context, c *cli.Command, s *agora.Store) error {
	ct, id, err := contentArgs(c, 3)
	if err != nil {
		return err
	}

	var dir agora.VoteDirection
	switch c.Args().Get(2) {
	case "up":
		dir = agora.Up
	case "down":
		dir = agora.Down
	default:
		return fmt.Errorf("%w: %q", agora.ErrInvalidVote, c.Args().Get(2))
	}

	count, err := s.CastVote(ctx, id, ct, dir, int(c.Int("count")))
	if err != nil {
		return err
	}

	fmt.Fprintf(d.out, "vote=%d count=%d\n", s.Vote(ctx, id, ct), count)
	return nil
}

func (d *deps) handleFavorite(ctx context.Context, c *cli.Command, s *agora.Store) error {
	ct, id, err := contentArgs(c, 2)
	if err != nil {
		return err
	}

	favorited, err := s.ToggleFavorite(ctx, id, ct)
	if err != nil {
		return err
	}

	fmt.Fprintf(d.out, "favorited=%t\n", favorited)
	return nil
}

func (d *deps) handleHide(ctx context.Context, c *cli.Command, s *agora.Store) error {
	ct, id, err := contentArgs(c, 2)
	if err != nil {
		return err
	}

	hidden, err := s.ToggleHidden(ctx, id, ct)
	if err != nil {
		return err
	}

	fmt.Fprintf(d.out, "hidden=%t\n", hidden)
	return nil
}

func (d *deps) handleReport(ctx context.Context, c *cli.Command, s *agora.Store) error {
	ct, id, err := contentArgs(c, 3)
	if err != nil {
		return err
	}

	accepted, err := s.Report(ctx, id, ct, c.Args().Get(2))
	if err != nil {
		return err
	}

	if !accepted {
		r, _ := s.ReportFor(ctx, id, ct)
		fmt.Fprintf(d.out, "already reported on %s: %s\n", r.ReportedAt().Format("2006-01-02 15:04"), r.Reason)
		return nil
	}

	fmt.Fprintln(d.out, "reported")
	return nil
}

func (d *deps) handleAccept(ctx context.Context, c *cli.Command, s *agora.Store) error {
	if c.Args().Len() != 2 {
		return ErrUsage
	}

	questionID, err := strconv.ParseInt(c.Args().Get(0), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid question id %q: %w", c.Args().Get(0), err)
	}
	answerID, err := strconv.ParseInt(c.Args().Get(1), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid answer id %q: %w", c.Args().Get(1), err)
	}

	accepted, err := s.ToggleAcceptedAnswer(ctx, questionID, answerID)
	if err != nil {
		return err
	}

	fmt.Fprintf(d.out, "accepted=%t\n", accepted)
	return nil
}

func (d *deps) handleKeys(ctx context.Context, c *cli.Command) error {
	clientID := c.String("client")
	if clientID == "" {
		return ErrClientRequired
	}

	backend, closeBackend, err := d.open()
	if err != nil {
		return fmt.Errorf("failed to open backend: %w", err)
	}
	defer closeBackend()

	keys, err := backend.Keys(ctx, agora.ClientNamespace(clientID))
	if err != nil {
		return err
	}

	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintln(d.out, strings.TrimPrefix(k, agora.ClientNamespace(clientID)))
	}
	return nil
}
