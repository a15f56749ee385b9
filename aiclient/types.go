package aiclient

import (
	"encoding/json"
	"strings"
)

// Question is one generated question as the model service returns it.
type Question struct {
	Type    string   `json:"type"`
	Content string   `json:"content"`
	Answer  string   `json:"suggested_answer"`
	Choices []string `json:"choices"`
}

// UnmarshalJSON accepts both the service's field names and the prompt-level
// ones (question, answer, options).
func (q *Question) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type            string   `json:"type"`
		Content         string   `json:"content"`
		Question        string   `json:"question"`
		SuggestedAnswer string   `json:"suggested_answer"`
		Answer          string   `json:"answer"`
		Choices         []string `json:"choices"`
		Options         []string `json:"options"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	q.Type = raw.Type
	q.Content = firstNonEmpty(raw.Content, raw.Question)
	q.Answer = firstNonEmpty(raw.SuggestedAnswer, raw.Answer)
	q.Choices = raw.Choices
	if len(q.Choices) == 0 {
		q.Choices = raw.Options
	}
	return nil
}

// Response is the decoded body of POST /ask_ai_model.
type Response struct {
	Filename  string
	Questions []Question
}

type groupedQuestions struct {
	MultipleChoice []Question `json:"multiple_choice"`
	TrueFalse      []Question `json:"true_false"`
}

// UnmarshalJSON handles the grouped form
// {"questions":{"multiple_choice":[...],"true_false":[...]}} and the flat form
// {"questions":[{"type":...}]}.
func (r *Response) UnmarshalJSON(data []byte) error {
	var raw struct {
		Filename  string          `json:"filename"`
		FileName  string          `json:"file_name"`
		Questions json.RawMessage `json:"questions"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Filename = firstNonEmpty(raw.Filename, raw.FileName)
	r.Questions = nil

	body := strings.TrimSpace(string(raw.Questions))
	switch {
	case body == "" || body == "null":
		return nil
	case strings.HasPrefix(body, "["):
		return json.Unmarshal(raw.Questions, &r.Questions)
	}

	var grouped groupedQuestions
	if err := json.Unmarshal(raw.Questions, &grouped); err != nil {
		return err
	}
	for _, q := range grouped.MultipleChoice {
		if q.Type == "" {
			q.Type = "MCQ"
		}
		r.Questions = append(r.Questions, q)
	}
	for _, q := range grouped.TrueFalse {
		if q.Type == "" {
			q.Type = "TF"
		}
		r.Questions = append(r.Questions, q)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
