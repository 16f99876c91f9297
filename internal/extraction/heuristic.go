package extraction

import (
	"regexp"
	"strings"

	"github.com/debanirmalya/hirebuddy/internal/models"
)

var (
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`)
	phonePattern = regexp.MustCompile(`[\+]?[(]?[0-9]{1,3}[)]?[-\s\.]?[(]?[0-9]{1,4}[)]?[-\s\.]?[0-9]{1,4}[-\s\.]?[0-9]{1,9}`)
)

// SkillVocabulary is scanned in order; matches keep this order.
var SkillVocabulary = []string{
	"Python", "Java", "JavaScript", "React", "Node.js", "AWS", "Docker",
	"Kubernetes", "SQL", "MongoDB", "Git", "Machine Learning", "AI",
	"Flask", "Django", "Spring", "Angular", "Vue", "TypeScript",
}

// Heuristic extracts email, phone and skills with fixed patterns. Only
// non-empty fields are returned.
func Heuristic(text string) map[string]any {
	out := map[string]any{}

	if m := emailPattern.FindString(text); m != "" {
		out[models.FieldEmail] = m
	}
	if m := strings.TrimSpace(phonePattern.FindString(text)); m != "" {
		out[models.FieldPhone] = m
	}

	lower := strings.ToLower(text)
	var skills []string
	for _, s := range SkillVocabulary {
		if strings.Contains(lower, strings.ToLower(s)) {
			skills = append(skills, s)
		}
	}
	if len(skills) > 0 {
		out[models.FieldSkills] = skills
	}
	return out
}
