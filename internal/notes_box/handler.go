package notes_box

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/2beens/householdnotes/internal/notes"
	"github.com/2beens/householdnotes/internal/telemetry/metrics"
	"github.com/2beens/householdnotes/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const maxTitleLength = 255

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=notes_box_test

type notesRepo interface {
	Add(ctx context.Context, author notes.Author, title string, body *string) (*notes.Note, error)
	Get(ctx context.Context, id int) (*notes.Note, error)
	Update(ctx context.Context, id int, patch notes.UpdateNotePayload) (*notes.Note, error)
	Delete(ctx context.Context, id int) error
	List(ctx context.Context, filter notes.Filter) ([]notes.Note, error)
}

type Handler struct {
	repo    notesRepo
	metrics *metrics.Manager
}

func NewHandler(
	repo notesRepo,
	metrics *metrics.Manager,
) *Handler {
	return &Handler{
		repo:    repo,
		metrics: metrics,
	}
}

func (handler *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/health", handler.HandleHealth).Methods("GET").Name("health")

	notesRouter := r.PathPrefix("/api/v1/notes").Subrouter()
	notesRouter.HandleFunc("/", handler.HandleList).Methods("GET").Name("list-notes")
	notesRouter.HandleFunc("/", handler.HandleAdd).Methods("POST").Name("new-note")
	// same collection without the trailing slash
	notesRouter.HandleFunc("", handler.HandleList).Methods("GET")
	notesRouter.HandleFunc("", handler.HandleAdd).Methods("POST")
	notesRouter.HandleFunc("/{id}", handler.HandleGet).Methods("GET").Name("get-note")
	notesRouter.HandleFunc("/{id}", handler.HandleUpdate).Methods("PATCH").Name("update-note")
	notesRouter.HandleFunc("/{id}", handler.HandleDelete).Methods("DELETE").Name("remove-note")
}

func (handler *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteResponse(w, pkg.ContentTypeJSON, `{"status":"ok"}`)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	filter := notes.FilterAll
	if authorParam := r.URL.Query().Get("author"); authorParam != "" {
		author, err := notes.ParseAuthor(authorParam)
		if err != nil {
			writeValidationError(w, []string{"query", "author"}, "Input should be 'Ben' or 'Wife'")
			return
		}
		filter = notes.FilterFor(author)
	}

	list, err := handler.repo.List(r.Context(), filter)
	if err != nil {
		log.Errorf("list notes error: %s", err)
		writeError(w, http.StatusInternalServerError, "failed to get notes")
		return
	}

	if len(list) == 0 {
		list = []notes.Note{}
	}

	pkg.WriteJSONResponse(w, http.StatusOK, notes.NotesListResponse{
		Items: list,
		Total: len(list),
	})
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := noteIdFromPath(w, r)
	if !ok {
		return
	}

	note, err := handler.repo.Get(r.Context(), id)
	if err != nil {
		handler.writeRepoError(w, "get", id, err)
		return
	}

	pkg.WriteJSONResponse(w, http.StatusOK, note)
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var payload notes.CreateNotePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeValidationError(w, []string{"body"}, fmt.Sprintf("JSON decode error: %s", err))
		return
	}

	if !payload.Author.Valid() {
		writeValidationError(w, []string{"body", "author"}, "Input should be 'Ben' or 'Wife'")
		return
	}
	if msg := checkTitleLength(payload.Title); msg != "" {
		writeValidationError(w, []string{"body", "title"}, msg)
		return
	}

	addedNote, err := handler.repo.Add(r.Context(), payload.Author, payload.Title, payload.Body)
	if err != nil {
		log.Errorf("failed to add new note [%s] [%s]: %s", payload.Author, payload.Title, err)
		writeError(w, http.StatusInternalServerError, "failed to add new note")
		return
	}

	if handler.metrics != nil {
		handler.metrics.CounterNotes.Inc()
	}

	log.Debugf("new note added: [%s] [%s]: %d", addedNote.Author, addedNote.Title, addedNote.Id)
	pkg.WriteJSONResponse(w, http.StatusCreated, addedNote)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := noteIdFromPath(w, r)
	if !ok {
		return
	}

	var patch notes.UpdateNotePayload
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeValidationError(w, []string{"body"}, fmt.Sprintf("JSON decode error: %s", err))
		return
	}

	if patch.Title != nil {
		if msg := checkTitleLength(*patch.Title); msg != "" {
			writeValidationError(w, []string{"body", "title"}, msg)
			return
		}
		if strings.TrimSpace(*patch.Title) == "" {
			writeValidationError(w, []string{"body", "title"}, "Value error, title cannot be blank")
			return
		}
	}

	updatedNote, err := handler.repo.Update(r.Context(), id, patch)
	if err != nil {
		handler.writeRepoError(w, "update", id, err)
		return
	}

	log.Debugf("note updated: [%s] [%s]: %d", updatedNote.Title, updatedNote.UpdatedAt, updatedNote.Id)
	pkg.WriteJSONResponse(w, http.StatusOK, updatedNote)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := noteIdFromPath(w, r)
	if !ok {
		return
	}

	if err := handler.repo.Delete(r.Context(), id); err != nil {
		handler.writeRepoError(w, "delete", id, err)
		return
	}

	log.Debugf("note deleted: %d", id)
	w.WriteHeader(http.StatusNoContent)
}

func (handler *Handler) writeRepoError(w http.ResponseWriter, op string, id int, err error) {
	if errors.Is(err, ErrNoteNotFound) {
		writeError(w, http.StatusNotFound, "Note not found")
		return
	}
	log.Errorf("failed to %s note %d: %s", op, id, err)
	writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to %s note", op))
}

func noteIdFromPath(w http.ResponseWriter, r *http.Request) (int, bool) {
	idStr := mux.Vars(r)["id"]
	id, err := strconv.Atoi(idStr)
	if err != nil {
		writeValidationError(w, []string{"path", "note_id"}, "Input should be a valid integer")
		return 0, false
	}
	return id, true
}

func checkTitleLength(title string) string {
	switch length := utf8.RuneCountInString(title); {
	case length < 1:
		return "String should have at least 1 character"
	case length > maxTitleLength:
		return fmt.Sprintf("String should have at most %d characters", maxTitleLength)
	default:
		return ""
	}
}

type validationIssue struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

func writeValidationError(w http.ResponseWriter, loc []string, msg string) {
	pkg.WriteJSONResponse(w, http.StatusUnprocessableEntity, map[string]any{
		"detail": []validationIssue{{
			Loc:  loc,
			Msg:  msg,
			Type: "value_error",
		}},
	})
}

func writeError(w http.ResponseWriter, status int, detail string) {
	pkg.WriteJSONResponse(w, status, map[string]string{"detail": detail})
}
