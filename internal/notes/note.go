package notes

type Note struct {
	Id        int       `json:"id"`
	Author    Author    `json:"author"`
	Title     string    `json:"title"`
	Body      *string   `json:"body"`
	CreatedAt Timestamp `json:"created_at"`
	UpdatedAt Timestamp `json:"updated_at"`
}

// HasBody reports whether the note carries a non-empty body.
// A nil body and an empty one are different on the wire, but both render as "no body".
func (n Note) HasBody() bool {
	return n.Body != nil && *n.Body != ""
}

type NotesListResponse struct {
	Items []Note `json:"items"`
	Total int    `json:"total"`
}

type CreateNotePayload struct {
	Author Author  `json:"author"`
	Title  string  `json:"title"`
	Body   *string `json:"body,omitempty"`
}

// UpdateNotePayload is a partial update, nil fields are left untouched by the backend.
type UpdateNotePayload struct {
	Title *string `json:"title,omitempty"`
	Body  *string `json:"body,omitempty"`
}

func (p UpdateNotePayload) IsEmpty() bool {
	return p.Title == nil && p.Body == nil
}

func StringPtr(s string) *string {
	return &s
}
