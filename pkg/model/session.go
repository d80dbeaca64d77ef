package model

import "time"

// Session is an interview-preparation context owned by one user.
type Session struct {
	ID            string      `json:"id" db:"id"`
	UserID        string      `json:"user_id" db:"user_id"`
	Role          string      `json:"role" db:"role"`
	Experience    string      `json:"experience" db:"experience"`
	TopicsToFocus string      `json:"topics_to_focus" db:"topics_to_focus"`
	Description   string      `json:"description" db:"description"`
	Questions     []*Question `json:"questions"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}

type CreateSessionReq struct {
	Role              string          `json:"role" binding:"required"`
	Experience        string          `json:"experience" binding:"required"`
	TopicsToFocus     string          `json:"topics_to_focus" binding:"required"`
	Description       string          `json:"description"`
	Questions         []GeneratedPair `json:"questions"`
	NumberOfQuestions int             `json:"number_of_questions"`
}

type SessionListRes struct {
	Sessions []*Session `json:"sessions"`
	Count    int        `json:"count"`
}

type DeleteSessionRes struct {
	DeletedQuestionCount int64 `json:"deleted_question_count"`
}

type LoadMoreReq struct {
	NumberOfQuestions int `json:"number_of_questions" binding:"required,min=1"`
}
