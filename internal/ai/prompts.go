package ai

import "fmt"

const questionAnswerTemplate = `You are an AI trained to generate technical interview questions and answers.

Task:
- Role: %s
- Candidate Experience: %s
- Focus Topics: %s
- Write exactly %d interview questions.
- For each question, write a detailed but beginner-friendly answer.
- If the answer needs a code example, add a small code block inside the answer.
- Keep formatting clean and readable.

Return ONLY a valid JSON array. No explanation, no markdown, no backticks:
[
  {
    "question": "Question here?",
    "answer": "Answer here."
  }
]
`

const conceptExplainTemplate = `You are an AI trained to explain interview concepts in depth.

Task:
- Explain the following interview question and the concept behind it as if teaching a beginner developer.
- Question: "%s"
- After the explanation, give a short and clear title that summarizes the concept.
- If the explanation includes a code example, add a small code block.
- Keep formatting clean and readable.

Return ONLY a valid JSON object. No explanation outside the object, no markdown, no backticks:
{
  "title": "Short title here",
  "explanation": "Explanation here."
}
`

func questionAnswerPrompt(role, experience, topicsToFocus string, count int) string {
	return fmt.Sprintf(questionAnswerTemplate, role, experience, topicsToFocus, count)
}

func conceptExplainPrompt(question string) string {
	return fmt.Sprintf(conceptExplainTemplate, question)
}
