package quizgen

import "fmt"

func systemPrompt(count int) string {
	return fmt.Sprintf(`You write short comprehension quizzes for kids who just watched a maker/STEM video.
Write exactly %d multiple-choice questions. Each question has exactly 4 answer options and exactly one correct option.
Use only facts a viewer could learn from the video described. Keep wording simple and friendly.
correctIndex is the zero-based position of the correct option.`, count)
}

func userPrompt(title, description string) string {
	return fmt.Sprintf("Video title: %s\nVideo description: %s", title, description)
}

func quizSchema(count int) map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"questions"},
		"properties": map[string]any{
			"questions": map[string]any{
				"type":     "array",
				"minItems": count,
				"maxItems": count,
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []string{"prompt", "options", "correctIndex"},
					"properties": map[string]any{
						"prompt": map[string]any{"type": "string"},
						"options": map[string]any{
							"type":     "array",
							"minItems": 4,
							"maxItems": 4,
							"items":    map[string]any{"type": "string"},
						},
						"correctIndex": map[string]any{
							"type":    "integer",
							"minimum": 0,
							"maximum": 3,
						},
					},
				},
			},
		},
	}
}
