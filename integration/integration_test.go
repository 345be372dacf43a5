package integration

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	qt "github.com/frankban/quicktest"
	"github.com/jhchabran/agora"
)

type commentJSON struct {
	ID       int64  `json:"id"`
	Content  string `json:"content"`
	ParentID *int64 `json:"parentId"`
	Author   struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"author"`
	Hidden   bool           `json:"hidden"`
	Children []*commentJSON `json:"children"`
}

type commentsResponse struct {
	Comments []*commentJSON `json:"comments"`
	Count    int            `json:"count"`
	Total    int            `json:"total"`
}

func addComment(tc *testContext, client *http.Client, path string, content string, parentID *int64) int64 {
	var res struct {
		ID int64 `json:"id"`
	}
	body := map[string]interface{}{"content": content}
	if parentID != nil {
		body["parent_id"] = *parentID
	}
	status := tc.postJSON(client, path, body, &res)
	tc.c.Assert(status, qt.Equals, http.StatusCreated)
	return res.ID
}

func TestThreadPage(t *testing.T) {
	c := qt.New(t)

	c.Run("OK empty thread", func(c *qt.C) {
		tc := newTestContext(c)
		tc.prepareServer()

		resp, err := http.Get(tc.url("/threads/question/1"))
		c.Assert(err, qt.IsNil)
		defer resp.Body.Close()
		c.Assert(resp.StatusCode, qt.Equals, 200)

		doc, err := goquery.NewDocumentFromReader(resp.Body)
		c.Assert(err, qt.IsNil)
		c.Assert(doc.Find("title").Text(), qt.Equals, "Agora")
		c.Assert(doc.Find("h4.thread-count").Text(), qt.Equals, "0 comments")
		c.Assert(doc.Find("p.thread-empty").Length(), qt.Equals, 1)
		c.Assert(doc.Find("form.comment-form").AttrOr("action", ""), qt.Equals, "/api/threads/question/1/comments")
	})

	c.Run("OK nested comments", func(c *qt.C) {
		tc := newTestContext(c)
		tc.prepareServer()
		client := tc.newHTTPClient()

		path := "/api/threads/blog/3/comments"
		root := addComment(tc, client, path, "*first*", nil)
		reply := addComment(tc, client, path, "a reply", &root)
		nested := addComment(tc, client, path, "a nested reply", &reply)
		addComment(tc, client, path, "second", nil)

		resp, err := client.Get(tc.url("/threads/blog/3"))
		c.Assert(err, qt.IsNil)
		defer resp.Body.Close()
		c.Assert(resp.StatusCode, qt.Equals, 200)

		doc, err := goquery.NewDocumentFromReader(resp.Body)
		c.Assert(err, qt.IsNil)

		c.Assert(doc.Find("h4.thread-count").Text(), qt.Equals, "2 comments")
		c.Assert(doc.Find("div.comment").Length(), qt.Equals, 4)
		c.Assert(doc.Find("div.comments > div.comment").Length(), qt.Equals, 2)

		first := doc.Find("#comment-" + strconv.FormatInt(root, 10))
		c.Assert(first.ChildrenFiltered(".comment-body").Find("em").Text(), qt.Equals, "first")
		c.Assert(first.ChildrenFiltered(".comment-meta").Find(".comment-author").Text(), qt.Equals, "tintin")
		c.Assert(first.ChildrenFiltered(".comment-meta").Find(".comment-date").Text(), qt.Equals, "just now")

		form := first.ChildrenFiltered("form.reply-form")
		c.Assert(form.AttrOr("action", ""), qt.Equals, path)
		c.Assert(form.Find("input[name=parent_id]").AttrOr("value", ""), qt.Equals, strconv.FormatInt(root, 10))
		c.Assert(doc.Find("form.reply-form").Length(), qt.Equals, 4)

		n := first.Find(".comment-replies #comment-" + strconv.FormatInt(nested, 10))
		c.Assert(n.Length(), qt.Equals, 1)
		c.Assert(n.AttrOr("data-depth", ""), qt.Equals, "2")
	})

	c.Run("OK hidden comments are collapsed", func(c *qt.C) {
		tc := newTestContext(c)
		tc.prepareServer()
		client := tc.newHTTPClient()

		path := "/api/threads/news/4/comments"
		root := addComment(tc, client, path, "rude words", nil)
		reply := addComment(tc, client, path, "a reply", &root)

		var hidden struct {
			Hidden bool `json:"hidden"`
		}
		status := tc.postJSON(client, "/api/hidden/comment/"+strconv.FormatInt(root, 10), nil, &hidden)
		c.Assert(status, qt.Equals, 200)
		c.Assert(hidden.Hidden, qt.IsTrue)

		resp, err := client.Get(tc.url("/threads/news/4"))
		c.Assert(err, qt.IsNil)
		defer resp.Body.Close()

		doc, err := goquery.NewDocumentFromReader(resp.Body)
		c.Assert(err, qt.IsNil)

		first := doc.Find("#comment-" + strconv.FormatInt(root, 10))
		c.Assert(first.HasClass("comment-hidden"), qt.IsTrue)
		c.Assert(first.ChildrenFiltered(".comment-placeholder").Text(), qt.Equals, "This comment is hidden")
		c.Assert(first.ChildrenFiltered(".comment-body").Length(), qt.Equals, 0)
		c.Assert(first.ChildrenFiltered("form.reply-form").Length(), qt.Equals, 0)
		c.Assert(strings.Contains(first.Text(), "rude words"), qt.IsFalse)

		second := first.Find("#comment-" + strconv.FormatInt(reply, 10))
		c.Assert(second.HasClass("comment-hidden"), qt.IsFalse)
		c.Assert(strings.TrimSpace(second.Find(".comment-body").Text()), qt.Equals, "a reply")
	})

	c.Run("NOK unsupported content", func(c *qt.C) {
		tc := newTestContext(c)
		tc.prepareServer()

		for _, path := range []string{"/threads/comment/1", "/threads/podcast/1"} {
			resp, err := http.Get(tc.url(path))
			c.Assert(err, qt.IsNil)
			resp.Body.Close()
			c.Assert(resp.StatusCode, qt.Equals, 404, qt.Commentf(path))
		}
	})

	c.Run("NOK invalid id", func(c *qt.C) {
		tc := newTestContext(c)
		tc.prepareServer()

		resp, err := http.Get(tc.url("/threads/question/abc"))
		c.Assert(err, qt.IsNil)
		resp.Body.Close()
		c.Assert(resp.StatusCode, qt.Equals, 400)
	})
}

func TestCommentsAPI(t *testing.T) {
	c := qt.New(t)

	c.Run("OK flat and tree listings", func(c *qt.C) {
		tc := newTestContext(c)
		tc.prepareServer()
		client := tc.newHTTPClient()

		path := "/api/threads/question/5/comments"
		root := addComment(tc, client, path, "hi", nil)
		reply := addComment(tc, client, path, "hello", &root)

		var flat commentsResponse
		c.Assert(tc.getJSON(client, path, &flat), qt.Equals, 200)
		c.Assert(flat.Comments, qt.HasLen, 2)
		c.Assert(flat.Comments[0].ID, qt.Equals, root)
		c.Assert(flat.Comments[0].Content, qt.Equals, "hi")
		c.Assert(flat.Comments[0].ParentID, qt.IsNil)
		c.Assert(flat.Comments[0].Author.Name, qt.Equals, "tintin")
		c.Assert(*flat.Comments[1].ParentID, qt.Equals, root)

		var tree commentsResponse
		c.Assert(tc.getJSON(client, path+"?tree=1", &tree), qt.Equals, 200)
		c.Assert(tree.Count, qt.Equals, 1)
		c.Assert(tree.Total, qt.Equals, 2)
		c.Assert(tree.Comments, qt.HasLen, 1)
		c.Assert(tree.Comments[0].Children, qt.HasLen, 1)
		c.Assert(tree.Comments[0].Children[0].ID, qt.Equals, reply)
	})

	c.Run("OK empty thread", func(c *qt.C) {
		tc := newTestContext(c)
		tc.prepareServer()
		client := tc.newHTTPClient()

		var flat commentsResponse
		c.Assert(tc.getJSON(client, "/api/threads/answer/1/comments", &flat), qt.Equals, 200)
		c.Assert(flat.Comments, qt.HasLen, 0)
		c.Assert(flat.Comments, qt.IsNotNil)
	})

	c.Run("NOK blank content", func(c *qt.C) {
		tc := newTestContext(c)
		tc.prepareServer()
		client := tc.newHTTPClient()

		status := tc.postJSON(client, "/api/threads/question/5/comments", map[string]string{"content": "  "}, nil)
		c.Assert(status, qt.Equals, http.StatusUnprocessableEntity)
	})

	c.Run("NOK malformed body", func(c *qt.C) {
		tc := newTestContext(c)
		tc.prepareServer()
		client := tc.newHTTPClient()

		resp, err := client.Post(tc.url("/api/threads/question/5/comments"), "application/json", strings.NewReader("{"))
		c.Assert(err, qt.IsNil)
		resp.Body.Close()
		c.Assert(resp.StatusCode, qt.Equals, http.StatusBadRequest)
	})

	c.Run("NOK comments on comments", func(c *qt.C) {
		tc := newTestContext(c)
		tc.prepareServer()
		client := tc.newHTTPClient()

		status := tc.postJSON(client, "/api/threads/comment/5/comments", map[string]string{"content": "hi"}, nil)
		c.Assert(status, qt.Equals, http.StatusNotFound)
	})
}

func TestVotesAPI(t *testing.T) {
	c := qt.New(t)

	type voteResponse struct {
		Vote  agora.VoteDirection `json:"vote"`
		Count int                 `json:"count"`
	}

	c.Run("OK vote, switch and retract", func(c *qt.C) {
		tc := newTestContext(c)
		tc.prepareServer()
		client := tc.newHTTPClient()
		path := "/api/votes/answer/7"

		var res voteResponse
		c.Assert(tc.postJSON(client, path, map[string]int{"direction": 1, "count": 10}, &res), qt.Equals, 200)
		c.Assert(res, qt.Equals, voteResponse{Vote: agora.Up, Count: 11})

		c.Assert(tc.getJSON(client, path, &res), qt.Equals, 200)
		c.Assert(res.Vote, qt.Equals, agora.Up)

		c.Assert(tc.postJSON(client, path, map[string]int{"direction": -1, "count": 11}, &res), qt.Equals, 200)
		c.Assert(res, qt.Equals, voteResponse{Vote: agora.Down, Count: 9})

		c.Assert(tc.postJSON(client, path, map[string]int{"direction": -1, "count": 9}, &res), qt.Equals, 200)
		c.Assert(res, qt.Equals, voteResponse{Vote: agora.NoVote, Count: 10})
	})

	c.Run("NOK invalid direction", func(c *qt.C) {
		tc := newTestContext(c)
		tc.prepareServer()
		client := tc.newHTTPClient()

		status := tc.postJSON(client, "/api/votes/question/1", map[string]int{"direction": 0, "count": 10}, nil)
		c.Assert(status, qt.Equals, http.StatusUnprocessableEntity)
	})

	c.Run("NOK not votable", func(c *qt.C) {
		tc := newTestContext(c)
		tc.prepareServer()
		client := tc.newHTTPClient()

		c.Assert(tc.postJSON(client, "/api/votes/blog/1", map[string]int{"direction": 1}, nil), qt.Equals, http.StatusNotFound)
		c.Assert(tc.getJSON(client, "/api/votes/blog/1", nil), qt.Equals, http.StatusNotFound)
		c.Assert(tc.getJSON(client, "/api/votes/podcast/1", nil), qt.Equals, http.StatusNotFound)
	})

	c.Run("NOK method not allowed", func(c *qt.C) {
		tc := newTestContext(c)
		tc.prepareServer()

		req, err := http.NewRequest(http.MethodDelete, tc.url("/api/votes/question/1"), nil)
		c.Assert(err, qt.IsNil)
		resp, err := http.DefaultClient.Do(req)
		c.Assert(err, qt.IsNil)
		resp.Body.Close()
		c.Assert(resp.StatusCode, qt.Equals, http.StatusMethodNotAllowed)
	})
}

func TestFavoritesAndHiddenAPI(t *testing.T) {
	c := qt.New(t)

	c.Run("OK toggle favorites", func(c *qt.C) {
		tc := newTestContext(c)
		tc.prepareServer()
		client := tc.newHTTPClient()

		var res struct {
			Favorited bool `json:"favorited"`
		}
		c.Assert(tc.postJSON(client, "/api/favorites/news/2", nil, &res), qt.Equals, 200)
		c.Assert(res.Favorited, qt.IsTrue)
		c.Assert(tc.getJSON(client, "/api/favorites/news/2", &res), qt.Equals, 200)
		c.Assert(res.Favorited, qt.IsTrue)

		c.Assert(tc.postJSON(client, "/api/favorites/news/2", nil, &res), qt.Equals, 200)
		c.Assert(res.Favorited, qt.IsFalse)
	})

	c.Run("OK toggle hidden", func(c *qt.C) {
		tc := newTestContext(c)
		tc.prepareServer()
		client := tc.newHTTPClient()

		var res struct {
			Hidden bool `json:"hidden"`
		}
		c.Assert(tc.postJSON(client, "/api/hidden/answer/2", nil, &res), qt.Equals, 200)
		c.Assert(res.Hidden, qt.IsTrue)
		c.Assert(tc.getJSON(client, "/api/hidden/answer/2", &res), qt.Equals, 200)
		c.Assert(res.Hidden, qt.IsTrue)
	})

	c.Run("NOK unsupported types", func(c *qt.C) {
		tc := newTestContext(c)
		tc.prepareServer()
		client := tc.newHTTPClient()

		c.Assert(tc.postJSON(client, "/api/favorites/answer/2", nil, nil), qt.Equals, http.StatusNotFound)
		c.Assert(tc.getJSON(client, "/api/hidden/blog/2", nil), qt.Equals, http.StatusNotFound)
	})

	c.Run("OK clients don't share state", func(c *qt.C) {
		tc := newTestContext(c)
		tc.prepareServer()
		alice := tc.newHTTPClient()
		bob := tc.newHTTPClient()

		var res struct {
			Favorited bool `json:"favorited"`
		}
		c.Assert(tc.postJSON(alice, "/api/favorites/question/1", nil, &res), qt.Equals, 200)
		c.Assert(res.Favorited, qt.IsTrue)

		c.Assert(tc.getJSON(bob, "/api/favorites/question/1", &res), qt.Equals, 200)
		c.Assert(res.Favorited, qt.IsFalse)

		c.Assert(tc.getJSON(alice, "/api/favorites/question/1", &res), qt.Equals, 200)
		c.Assert(res.Favorited, qt.IsTrue)
	})
}

func TestReportsAPI(t *testing.T) {
	c := qt.New(t)

	type reportResponse struct {
		Accepted bool `json:"accepted"`
	}

	c.Run("OK first report only", func(c *qt.C) {
		tc := newTestContext(c)
		tc.prepareServer()
		client := tc.newHTTPClient()

		var res reportResponse
		c.Assert(tc.postJSON(client, "/api/reports/comment/3", map[string]string{"reason": "spam"}, &res), qt.Equals, 200)
		c.Assert(res.Accepted, qt.IsTrue)

		c.Assert(tc.postJSON(client, "/api/reports/comment/3", map[string]string{"reason": "rude"}, &res), qt.Equals, 200)
		c.Assert(res.Accepted, qt.IsFalse)

		var reported struct {
			Reported bool `json:"reported"`
		}
		c.Assert(tc.getJSON(client, "/api/reports/comment/3", &reported), qt.Equals, 200)
		c.Assert(reported.Reported, qt.IsTrue)

		reports := tc.reported()
		c.Assert(reports, qt.HasLen, 1)
		c.Assert(reports[0].ContentID, qt.Equals, int64(3))
		c.Assert(reports[0].ContentType, qt.Equals, agora.CommentType)
		c.Assert(reports[0].Reason, qt.Equals, "spam")
		c.Assert(reports[0].ClientID, qt.Not(qt.Equals), "")
	})

	c.Run("NOK blank reason", func(c *qt.C) {
		tc := newTestContext(c)
		tc.prepareServer()
		client := tc.newHTTPClient()

		status := tc.postJSON(client, "/api/reports/question/3", map[string]string{"reason": ""}, nil)
		c.Assert(status, qt.Equals, http.StatusUnprocessableEntity)
		c.Assert(tc.reported(), qt.HasLen, 0)
	})

	c.Run("NOK not moderated", func(c *qt.C) {
		tc := newTestContext(c)
		tc.prepareServer()
		client := tc.newHTTPClient()

		status := tc.postJSON(client, "/api/reports/news/3", map[string]string{"reason": "spam"}, nil)
		c.Assert(status, qt.Equals, http.StatusNotFound)
	})
}

func TestAcceptedAnswersAPI(t *testing.T) {
	c := qt.New(t)

	type acceptedResponse struct {
		Accepted bool `json:"accepted"`
	}

	tc := newTestContext(c)
	tc.prepareServer()
	client := tc.newHTTPClient()

	var res acceptedResponse
	c.Assert(tc.postJSON(client, "/api/questions/10/answers/42/accepted", nil, &res), qt.Equals, 200)
	c.Assert(res.Accepted, qt.IsTrue)

	c.Assert(tc.postJSON(client, "/api/questions/10/answers/99/accepted", nil, &res), qt.Equals, 200)
	c.Assert(res.Accepted, qt.IsTrue)

	c.Assert(tc.getJSON(client, "/api/questions/10/answers/42/accepted", &res), qt.Equals, 200)
	c.Assert(res.Accepted, qt.IsFalse)

	c.Assert(tc.postJSON(client, "/api/questions/10/answers/99/accepted", nil, &res), qt.Equals, 200)
	c.Assert(res.Accepted, qt.IsFalse)

	c.Assert(tc.getJSON(client, "/api/questions/10/answers/abc/accepted", nil), qt.Equals, http.StatusBadRequest)
}

func TestOperationalEndpoints(t *testing.T) {
	c := qt.New(t)

	tc := newTestContext(c)
	tc.prepareServer()

	resp, err := http.Get(tc.url("/healthz"))
	c.Assert(err, qt.IsNil)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	c.Assert(err, qt.IsNil)
	c.Assert(resp.StatusCode, qt.Equals, 200)
	c.Assert(string(body), qt.Equals, "ok\n")

	// generate some traffic to be measured.
	client := tc.newHTTPClient()
	c.Assert(tc.getJSON(client, "/api/votes/question/1", nil), qt.Equals, 200)

	resp, err = http.Get(tc.url("/metrics"))
	c.Assert(err, qt.IsNil)
	body, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	c.Assert(err, qt.IsNil)
	c.Assert(resp.StatusCode, qt.Equals, 200)
	c.Assert(strings.Contains(string(body), "agora_http_requests_total"), qt.IsTrue)
}
