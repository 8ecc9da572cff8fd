package note

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/orchestrix/apiresponder/pkg/apiresponse"
	"github.com/orchestrix/apiresponder/pkg/apperror"
	"github.com/orchestrix/apiresponder/pkg/httputil"
)

// Handler handles note HTTP requests
type Handler struct {
	repo      Repository
	responses *apiresponse.Factory
	errors    *apperror.Handler
	now       func() time.Time

	defaultLimit int
	maxLimit     int
}

// NewHandler creates a new note handler
func NewHandler(repo Repository, responses *apiresponse.Factory, errs *apperror.Handler, defaultLimit, maxLimit int) *Handler {
	return &Handler{
		repo:         repo,
		responses:    responses,
		errors:       errs,
		now:          time.Now,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// Routes registers note routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	return r
}

// listResponse is the body of GET /notes
type listResponse struct {
	Data       []*Note              `json:"data"`
	Pagination apiresponse.PageInfo `json:"pagination"`
}

// dataResponse wraps a single note
type dataResponse struct {
	Data *Note `json:"data"`
}

// List returns one page of notes
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	res := h.responses.For(w, r)
	p := httputil.ParsePagination(r, h.defaultLimit, h.maxLimit)

	page, err := h.repo.List(r.Context(), p.Page, p.Limit)
	if err != nil {
		h.fail(res, r, errors.Wrap(err, "list notes"))
		return
	}

	headers := http.Header{}
	headers.Set("X-Total-Count", strconv.FormatInt(page.Total(), 10))
	_ = res.Respond(listResponse{Data: page.Items, Pagination: res.PageInfo(page)}, headers)
}

// Get returns a single note
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	res := h.responses.For(w, r)

	id, ok := h.parseID(res, r)
	if !ok {
		return
	}

	n, err := h.repo.Get(r.Context(), id)
	if err != nil {
		h.fail(res, r, err)
		return
	}

	_ = res.Respond(dataResponse{Data: n}, nil)
}

// Create validates the body against the full rule set and stores a new note
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	res := h.responses.For(w, r)

	input, err := httputil.Input(r)
	if err != nil {
		_ = res.RespondUnprocessableEntity(httputil.ErrInvalidBody.Error())
		return
	}

	if result := res.ValidateAgainstRules(input, Rules); result.Fails() {
		_ = res.RespondValidationFailed("")
		return
	}

	n := New(input, h.now())
	if err := h.repo.Create(r.Context(), n); err != nil {
		h.fail(res, r, err)
		return
	}

	w.Header().Set("Location", "/api/v1/notes/"+n.ID.String())
	_ = res.RespondCreated("")
}

// Update applies a partial update, validating only the fields sent
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	res := h.responses.For(w, r)

	id, ok := h.parseID(res, r)
	if !ok {
		return
	}

	input, err := httputil.Input(r)
	if err != nil {
		_ = res.RespondUnprocessableEntity(httputil.ErrInvalidBody.Error())
		return
	}

	if result := res.ValidateAgainstReducedRules(input, Rules); result.Fails() {
		_ = res.RespondValidationFailed("")
		return
	}

	n, err := h.repo.Get(r.Context(), id)
	if err != nil {
		h.fail(res, r, err)
		return
	}

	n.Apply(input, h.now())
	if err := h.repo.Update(r.Context(), n); err != nil {
		h.fail(res, r, err)
		return
	}

	_ = res.RespondUpdated("")
}

// Delete removes a note
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	res := h.responses.For(w, r)

	id, ok := h.parseID(res, r)
	if !ok {
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		h.fail(res, r, err)
		return
	}

	_ = res.RespondDeleted("")
}

func (h *Handler) parseID(res *apiresponse.Responder, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		_ = res.RespondUnprocessableEntity("invalid note id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) fail(res *apiresponse.Responder, r *http.Request, err error) {
	if errors.Is(err, ErrNotFound) {
		err = apperror.NotFound("note")
	}
	h.errors.Render(res, r, err)
}
