package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _validate = validator.New()

// Handler is our HTTP handler. It parses and validates admin requests and
// offloads work to the controller.
type Handler struct {
	ctrl *Controller
}

// NewHandler creates a new handler.
func NewHandler(ctrl *Controller) *Handler {
	return &Handler{ctrl: ctrl}
}

// NewMux registers a handler's routes on a new mux.
func NewMux(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/{kind}", func(r chi.Router) {
		r.Get("/", h.getForest)
		r.Get("/roots", h.getRoots)
		r.Post("/", h.create)
		r.Post("/import", h.importTree)
		r.Post("/lineage", h.updateLineages)
		r.Post("/linearize", h.linearize)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getNode)
			r.Get("/children", h.getChildren)
			r.Get("/subtree", h.getSubtree)
			r.Post("/move", h.move)
			r.Post("/sort", h.sort)
		})
	})

	return r
}

type createRequest struct {
	Name     string `json:"name" validate:"required,max=256"`
	ParentID int64  `json:"parentId" validate:"gte=0"`
}

// moveRequest moves a node under ParentID. A null or missing parent makes
// the node a root.
type moveRequest struct {
	ParentID *int64 `json:"parentId" validate:"omitempty,gt=0"`
}

type sortRequest struct {
	MoveUp *bool `json:"moveUp" validate:"required"`
}

type changedResponse struct {
	Changed bool `json:"changed"`
}

type importResponse struct {
	Created int `json:"created"`
}

// getForest handles GET /{kind}.
func (h *Handler) getForest(w http.ResponseWriter, r *http.Request) {
	kind, err := ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		h.error(w, err)
		return
	}
	out, err := h.ctrl.Forest(r.Context(), kind)
	if err != nil {
		h.error(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// getRoots handles GET /{kind}/roots.
func (h *Handler) getRoots(w http.ResponseWriter, r *http.Request) {
	kind, err := ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		h.error(w, err)
		return
	}
	out, err := h.ctrl.Children(r.Context(), kind, 0)
	if err != nil {
		h.error(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// create handles POST /{kind}.
func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	kind, err := ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		h.error(w, err)
		return
	}
	var req createRequest
	if err := decode(r, &req); err != nil {
		h.error(w, err)
		return
	}

	n, err := h.ctrl.Create(r.Context(), kind, req.Name, req.ParentID)
	if err != nil {
		h.error(w, err)
		return
	}
	h.encode(w, http.StatusCreated, n)
}

// importTree handles POST /{kind}/import?parent={id}. The body is a list of
// nested nodes.
func (h *Handler) importTree(w http.ResponseWriter, r *http.Request) {
	kind, err := ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		h.error(w, err)
		return
	}

	var parentID int64
	if p := r.URL.Query().Get("parent"); p != "" {
		if parentID, err = parseID(p); err != nil {
			h.error(w, err)
			return
		}
	}

	trees, err := ReadImport(r.Body)
	if err != nil {
		h.error(w, err)
		return
	}

	created, err := h.ctrl.Import(r.Context(), kind, parentID, trees)
	if err != nil {
		h.error(w, err)
		return
	}
	h.encode(w, http.StatusCreated, importResponse{Created: created})
}

// updateLineages handles POST /{kind}/lineage.
func (h *Handler) updateLineages(w http.ResponseWriter, r *http.Request) {
	kind, err := ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		h.error(w, err)
		return
	}
	changed, err := h.ctrl.UpdateLineages(r.Context(), kind)
	if err != nil {
		h.error(w, err)
		return
	}
	h.encode(w, http.StatusOK, changedResponse{Changed: changed})
}

// linearize handles POST /{kind}/linearize?key={gateKey}.
func (h *Handler) linearize(w http.ResponseWriter, r *http.Request) {
	kind, err := ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		h.error(w, err)
		return
	}
	changed, err := h.ctrl.RecomputeTreeSortOrder(r.Context(), kind, r.URL.Query().Get("key"))
	if err != nil {
		h.error(w, err)
		return
	}
	h.encode(w, http.StatusOK, changedResponse{Changed: changed})
}

// getNode handles GET /{kind}/{id}.
func (h *Handler) getNode(w http.ResponseWriter, r *http.Request) {
	kind, id, err := kindAndID(r)
	if err != nil {
		h.error(w, err)
		return
	}
	out, err := h.ctrl.Get(r.Context(), kind, id)
	if err != nil {
		h.error(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// getChildren handles GET /{kind}/{id}/children.
func (h *Handler) getChildren(w http.ResponseWriter, r *http.Request) {
	kind, id, err := kindAndID(r)
	if err != nil {
		h.error(w, err)
		return
	}
	out, err := h.ctrl.Children(r.Context(), kind, id)
	if err != nil {
		h.error(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// getSubtree handles GET /{kind}/{id}/subtree.
func (h *Handler) getSubtree(w http.ResponseWriter, r *http.Request) {
	kind, id, err := kindAndID(r)
	if err != nil {
		h.error(w, err)
		return
	}
	out, err := h.ctrl.Subtree(r.Context(), kind, id)
	if err != nil {
		h.error(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// move handles POST /{kind}/{id}/move.
func (h *Handler) move(w http.ResponseWriter, r *http.Request) {
	kind, id, err := kindAndID(r)
	if err != nil {
		h.error(w, err)
		return
	}
	var req moveRequest
	if err := decode(r, &req); err != nil {
		h.error(w, err)
		return
	}

	var parentID int64
	if req.ParentID != nil {
		parentID = *req.ParentID
	}
	changed, err := h.ctrl.MoveEntity(r.Context(), kind, id, parentID)
	if err != nil {
		h.error(w, err)
		return
	}
	h.encode(w, http.StatusOK, changedResponse{Changed: changed})
}

// sort handles POST /{kind}/{id}/sort.
func (h *Handler) sort(w http.ResponseWriter, r *http.Request) {
	kind, id, err := kindAndID(r)
	if err != nil {
		h.error(w, err)
		return
	}
	var req sortRequest
	if err := decode(r, &req); err != nil {
		h.error(w, err)
		return
	}

	changed, err := h.ctrl.ChangeSortOrder(r.Context(), kind, id, *req.MoveUp)
	if err != nil {
		h.error(w, err)
		return
	}
	h.encode(w, http.StatusOK, changedResponse{Changed: changed})
}

// error writes an error message. The status code defaults to 500 unless the
// error wraps a statusErr.
func (*Handler) error(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var s statusErr
	if errors.As(err, &s) {
		status = s.Status()
	}
	http.Error(w, err.Error(), status)
}

// encode serializes v as the response.
func (h *Handler) encode(w http.ResponseWriter, status int, v any) {
	buf := _buffers.Get()
	defer buf.Free()
	if err := json.NewEncoder(buf).Encode(v); err != nil {
		h.error(w, err)
		return
	}
	writeJSON(w, status, buf.Bytes())
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache") // Trees change under admins' feet.
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// decode reads and validates a JSON request body.
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Join(fmt.Errorf("decoding request: %w", err), errBadRequest)
	}
	if err := _validate.Struct(v); err != nil {
		return errors.Join(err, errBadRequest)
	}
	return nil
}

func kindAndID(r *http.Request) (Kind, int64, error) {
	kind, err := ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		return "", 0, err
	}
	id, err := parseID(chi.URLParam(r, "id"))
	return kind, id, err
}

// parseID parses a positive node ID.
func parseID(s string) (int64, error) {
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.Join(err, errBadRequest)
	}
	if i <= 0 {
		return i, errors.Join(fmt.Errorf("expected %d to be positive", i), errBadRequest)
	}
	return i, nil
}
