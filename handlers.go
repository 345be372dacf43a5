package agora

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"
)

// maxBodySize bounds the JSON payloads accepted by the API.
const maxBodySize = 64 << 10

// contentParams extracts the content type and id from the route parameters.
func contentParams(params httprouter.Params) (ContentType, int64, error) {
	ct, err := ParseContentType(params.ByName("type"))
	if err != nil {
		return "", 0, Maybe404(err)
	}

	id, err := parseID(params.ByName("id"))
	if err != nil {
		return "", 0, err
	}

	return ct, id, nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, BadRequest(fmt.Errorf("invalid id %q: %w", raw, err))
	}
	return id, nil
}

// decodeBody decodes the JSON body of a request into v.
func decodeBody(req *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(req.Body, maxBodySize))
	if err := dec.Decode(v); err != nil {
		return BadRequest(fmt.Errorf("invalid body: %w", err))
	}
	return nil
}

func (s *Server) respondJSON(res http.ResponseWriter, status int, v interface{}) {
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(status)
	if err := json.NewEncoder(res).Encode(v); err != nil {
		s.Logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// mutationError maps a store error to its HTTP response.
func mutationError(err error) error {
	if errors.Is(err, ErrUnsupportedContentType) {
		return Maybe404(err)
	}
	if errors.Is(err, ErrInvalidVote) {
		return UnprocessableEntityWithError(err, "direction")
	}
	return err
}

// HandleHealth handles liveness probes.
func (s *Server) HandleHealth() httprouter.Handle {
	return func(res http.ResponseWriter, req *http.Request, _ httprouter.Params) {
		res.Header().Set("Content-Type", "text/plain")
		io.WriteString(res, "ok\n")
	}
}

// HandleThread handles requests to render the comment thread of a piece of content,
// with the comments hidden by the client collapsed.
func (s *Server) HandleThread(tmpl *template.Template) httprouter.Handle {
	return func(res http.ResponseWriter, req *http.Request, params httprouter.Params) {
		ct, id, err := contentParams(params)
		if err != nil {
			s.respondError(res, req, err)
			return
		}
		if !ct.Threaded() {
			s.respondError(res, req, NotFound(unsupported("comments", ct)))
			return
		}

		store := ctxStore(req.Context())
		tree := NewCommentTree(store.Comments(req.Context(), id, ct))
		tree.SetHidden(func(commentID int64) bool {
			return store.IsHidden(req.Context(), commentID, CommentType)
		})

		res.Header().Set("Content-Type", "text/html")
		err = tmpl.ExecuteTemplate(res, "thread.html", map[string]interface{}{
			"ContentType": ct,
			"ContentID":   id,
			"Comments":    NewCommentPresentersTree(tree),
			"TopLevel":    tree.Len(),
			"Total":       tree.Count(),
			"CurrentUser": store.CurrentUser(),
		})
		if err != nil {
			s.Logger.Error().Err(err).Msg("Failed to render template")
			http.Error(res, "Failed to render template", http.StatusInternalServerError)
			return
		}
	}
}

// commentTreeJSON is the JSON shape of a tree node.
type commentTreeJSON struct {
	*Comment
	Hidden   bool               `json:"hidden"`
	Children []*commentTreeJSON `json:"children"`
}

func newCommentTreeJSON(nodes []*CommentNode) []*commentTreeJSON {
	out := make([]*commentTreeJSON, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, &commentTreeJSON{
			Comment:  n.Comment,
			Hidden:   n.Hidden,
			Children: newCommentTreeJSON(n.Children),
		})
	}
	return out
}

// HandleListComments handles requests listing the comments of a thread, either as the flat
// list they're stored as or as a tree when the tree query parameter is set.
func (s *Server) HandleListComments() httprouter.Handle {
	return func(res http.ResponseWriter, req *http.Request, params httprouter.Params) {
		ct, id, err := contentParams(params)
		if err != nil {
			s.respondError(res, req, err)
			return
		}
		if !ct.Threaded() {
			s.respondError(res, req, NotFound(unsupported("comments", ct)))
			return
		}

		store := ctxStore(req.Context())
		comments := store.Comments(req.Context(), id, ct)

		if v := req.URL.Query().Get("tree"); v == "" || v == "0" || v == "false" {
			s.respondJSON(res, http.StatusOK, map[string]interface{}{"comments": comments})
			return
		}

		tree := NewCommentTree(comments)
		tree.SetHidden(func(commentID int64) bool {
			return store.IsHidden(req.Context(), commentID, CommentType)
		})
		s.respondJSON(res, http.StatusOK, map[string]interface{}{
			"comments": newCommentTreeJSON(tree),
			"count":    tree.Len(),
			"total":    tree.Count(),
		})
	}
}

// HandleAddComment handles requests adding a comment, or a reply if parent_id is given.
func (s *Server) HandleAddComment() httprouter.Handle {
	return func(res http.ResponseWriter, req *http.Request, params httprouter.Params) {
		ct, id, err := contentParams(params)
		if err != nil {
			s.respondError(res, req, err)
			return
		}

		var body struct {
			Content  string `json:"content"`
			ParentID *int64 `json:"parent_id"`
		}
		if err := decodeBody(req, &body); err != nil {
			s.respondError(res, req, err)
			return
		}

		content := strings.TrimSpace(body.Content)
		if content == "" {
			s.respondError(res, req, UnprocessableEntity("content"))
			return
		}

		commentID, err := ctxStore(req.Context()).AddComment(req.Context(), id, ct, content, body.ParentID)
		if err != nil {
			s.respondError(res, req, mutationError(err))
			return
		}

		s.respondJSON(res, http.StatusCreated, map[string]interface{}{"id": commentID})
	}
}

// HandleGetVote handles requests for the vote the client holds on a piece of content.
func (s *Server) HandleGetVote() httprouter.Handle {
	return func(res http.ResponseWriter, req *http.Request, params httprouter.Params) {
		ct, id, err := contentParams(params)
		if err != nil {
			s.respondError(res, req, err)
			return
		}
		if !ct.Votable() {
			s.respondError(res, req, NotFound(unsupported("votes", ct)))
			return
		}

		vote := ctxStore(req.Context()).Vote(req.Context(), id, ct)
		s.respondJSON(res, http.StatusOK, map[string]interface{}{"vote": vote})
	}
}

// HandleCastVote handles requests to vote on a piece of content. The client sends the count
// it displays and gets the adjusted one back.
func (s *Server) HandleCastVote() httprouter.Handle {
	return func(res http.ResponseWriter, req *http.Request, params httprouter.Params) {
		ct, id, err := contentParams(params)
		if err != nil {
			s.respondError(res, req, err)
			return
		}

		var body struct {
			Direction VoteDirection `json:"direction"`
			Count     int           `json:"count"`
		}
		if err := decodeBody(req, &body); err != nil {
			s.respondError(res, req, err)
			return
		}

		store := ctxStore(req.Context())
		count, err := store.CastVote(req.Context(), id, ct, body.Direction, body.Count)
		if err != nil {
			s.respondError(res, req, mutationError(err))
			return
		}

		s.respondJSON(res, http.StatusOK, map[string]interface{}{
			"vote":  store.Vote(req.Context(), id, ct),
			"count": count,
		})
	}
}

// HandleGetFavorite handles requests checking whether a piece of content is favorited.
func (s *Server) HandleGetFavorite() httprouter.Handle {
	return func(res http.ResponseWriter, req *http.Request, params httprouter.Params) {
		ct, id, err := contentParams(params)
		if err != nil {
			s.respondError(res, req, err)
			return
		}
		if !ct.Favoritable() {
			s.respondError(res, req, NotFound(unsupported("favorites", ct)))
			return
		}

		favorited := ctxStore(req.Context()).IsFavorited(req.Context(), id, ct)
		s.respondJSON(res, http.StatusOK, map[string]interface{}{"favorited": favorited})
	}
}

// HandleToggleFavorite handles requests adding or removing a piece of content from favorites.
func (s *Server) HandleToggleFavorite() httprouter.Handle {
	return func(res http.ResponseWriter, req *http.Request, params httprouter.Params) {
		ct, id, err := contentParams(params)
		if err != nil {
			s.respondError(res, req, err)
			return
		}

		favorited, err := ctxStore(req.Context()).ToggleFavorite(req.Context(), id, ct)
		if err != nil {
			s.respondError(res, req, mutationError(err))
			return
		}

		s.respondJSON(res, http.StatusOK, map[string]interface{}{"favorited": favorited})
	}
}

// HandleGetHidden handles requests checking whether a piece of content is hidden.
func (s *Server) HandleGetHidden() httprouter.Handle {
	return func(res http.ResponseWriter, req *http.Request, params httprouter.Params) {
		ct, id, err := contentParams(params)
		if err != nil {
			s.respondError(res, req, err)
			return
		}
		if !ct.Moderated() {
			s.respondError(res, req, NotFound(unsupported("hidden", ct)))
			return
		}

		hidden := ctxStore(req.Context()).IsHidden(req.Context(), id, ct)
		s.respondJSON(res, http.StatusOK, map[string]interface{}{"hidden": hidden})
	}
}

// HandleToggleHidden handles requests hiding or showing a piece of content.
func (s *Server) HandleToggleHidden() httprouter.Handle {
	return func(res http.ResponseWriter, req *http.Request, params httprouter.Params) {
		ct, id, err := contentParams(params)
		if err != nil {
			s.respondError(res, req, err)
			return
		}

		hidden, err := ctxStore(req.Context()).ToggleHidden(req.Context(), id, ct)
		if err != nil {
			s.respondError(res, req, mutationError(err))
			return
		}

		s.respondJSON(res, http.StatusOK, map[string]interface{}{"hidden": hidden})
	}
}

// HandleGetReport handles requests checking whether a piece of content was reported.
func (s *Server) HandleGetReport() httprouter.Handle {
	return func(res http.ResponseWriter, req *http.Request, params httprouter.Params) {
		ct, id, err := contentParams(params)
		if err != nil {
			s.respondError(res, req, err)
			return
		}
		if !ct.Moderated() {
			s.respondError(res, req, NotFound(unsupported("reported", ct)))
			return
		}

		reported := ctxStore(req.Context()).IsReported(req.Context(), id, ct)
		s.respondJSON(res, http.StatusOK, map[string]interface{}{"reported": reported})
	}
}

// HandleReport handles requests reporting a piece of content. Reporting content that was
// already reported is not an error, the response tells the report wasn't accepted.
func (s *Server) HandleReport() httprouter.Handle {
	return func(res http.ResponseWriter, req *http.Request, params httprouter.Params) {
		ct, id, err := contentParams(params)
		if err != nil {
			s.respondError(res, req, err)
			return
		}

		var body struct {
			Reason string `json:"reason"`
		}
		if err := decodeBody(req, &body); err != nil {
			s.respondError(res, req, err)
			return
		}

		reason := strings.TrimSpace(body.Reason)
		if reason == "" {
			s.respondError(res, req, UnprocessableEntity("reason"))
			return
		}

		accepted, err := ctxStore(req.Context()).Report(req.Context(), id, ct, reason)
		if err != nil {
			s.respondError(res, req, mutationError(err))
			return
		}

		if accepted {
			s.runReportHooks(req.Context(), &ReportEvent{
				ClientID:    ctxClientID(req.Context()),
				ContentID:   id,
				ContentType: ct,
				Reason:      reason,
				ReportedAt:  NowFunc(),
			})
		}

		s.respondJSON(res, http.StatusOK, map[string]interface{}{"accepted": accepted})
	}
}

func answerParams(params httprouter.Params) (int64, int64, error) {
	questionID, err := parseID(params.ByName("id"))
	if err != nil {
		return 0, 0, err
	}

	answerID, err := parseID(params.ByName("answer_id"))
	if err != nil {
		return 0, 0, err
	}

	return questionID, answerID, nil
}

// HandleGetAccepted handles requests checking whether an answer is the accepted one.
func (s *Server) HandleGetAccepted() httprouter.Handle {
	return func(res http.ResponseWriter, req *http.Request, params httprouter.Params) {
		questionID, answerID, err := answerParams(params)
		if err != nil {
			s.respondError(res, req, err)
			return
		}

		accepted := ctxStore(req.Context()).IsAnswerAccepted(req.Context(), questionID, answerID)
		s.respondJSON(res, http.StatusOK, map[string]interface{}{"accepted": accepted})
	}
}

// HandleToggleAccepted handles requests accepting an answer, or clearing the acceptance if
// it was already accepted.
func (s *Server) HandleToggleAccepted() httprouter.Handle {
	return func(res http.ResponseWriter, req *http.Request, params httprouter.Params) {
		questionID, answerID, err := answerParams(params)
		if err != nil {
			s.respondError(res, req, err)
			return
		}

		accepted, err := ctxStore(req.Context()).ToggleAcceptedAnswer(req.Context(), questionID, answerID)
		if err != nil {
			s.respondError(res, req, err)
			return
		}

		s.respondJSON(res, http.StatusOK, map[string]interface{}{"accepted": accepted})
	}
}
