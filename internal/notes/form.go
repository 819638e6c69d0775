package notes

import (
	"errors"
	"strings"
)

var ErrTitleRequired = errors.New("Title is required")

// Form holds what the user typed for a note, before it is sent anywhere.
type Form struct {
	Title string
	Body  string
}

func (f Form) Trimmed() Form {
	return Form{
		Title: strings.TrimSpace(f.Title),
		Body:  strings.TrimSpace(f.Body),
	}
}

func (f Form) Validate() error {
	return ValidateTitle(f.Title)
}

func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return ErrTitleRequired
	}
	return nil
}

// CreatePayload validates the form and builds the create request for author.
// An empty body is sent as absent.
func (f Form) CreatePayload(author Author) (CreateNotePayload, error) {
	if err := f.Validate(); err != nil {
		return CreateNotePayload{}, err
	}
	t := f.Trimmed()
	payload := CreateNotePayload{
		Author: author,
		Title:  t.Title,
	}
	if t.Body != "" {
		payload.Body = StringPtr(t.Body)
	}
	return payload, nil
}

// UpdatePayload validates the form and builds a full edit: title always,
// body only when non-empty.
func (f Form) UpdatePayload() (UpdateNotePayload, error) {
	if err := f.Validate(); err != nil {
		return UpdateNotePayload{}, err
	}
	t := f.Trimmed()
	payload := UpdateNotePayload{
		Title: StringPtr(t.Title),
	}
	if t.Body != "" {
		payload.Body = StringPtr(t.Body)
	}
	return payload, nil
}

// FormFromNote prefills the edit form with the note's current values.
func FormFromNote(n Note) Form {
	f := Form{Title: n.Title}
	if n.Body != nil {
		f.Body = *n.Body
	}
	return f
}
