package model

import "time"

type Question struct {
	ID        string    `json:"id" db:"id"`
	SessionID string    `json:"session_id" db:"session_id"`
	Question  string    `json:"question" db:"question"`
	Answer    string    `json:"answer" db:"answer"`
	Note      string    `json:"note" db:"note"`
	IsPinned  bool      `json:"is_pinned" db:"is_pinned"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type AddQuestionsReq struct {
	SessionID string          `json:"session_id" binding:"required"`
	Questions []GeneratedPair `json:"questions" binding:"required"`
}

type UpdateNoteReq struct {
	Note string `json:"note"`
}

type AppendRes struct {
	Appended int `json:"appended"`
}
