package model

// GeneratedPair is one question/answer pair produced by the model. It is
// never persisted on its own.
type GeneratedPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Explanation is a concept explanation produced by the model.
type Explanation struct {
	Title       string `json:"title"`
	Explanation string `json:"explanation"`
}

type GenerateQuestionsReq struct {
	Role              string `json:"role" binding:"required"`
	Experience        string `json:"experience" binding:"required"`
	TopicsToFocus     string `json:"topics_to_focus" binding:"required"`
	NumberOfQuestions int    `json:"number_of_questions" binding:"required"`
}

type GenerateQuestionsRes struct {
	Questions []GeneratedPair `json:"questions"`
	Count     int             `json:"count"`
}

type GenerateExplanationReq struct {
	Question string `json:"question" binding:"required"`
}
