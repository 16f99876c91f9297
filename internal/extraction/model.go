package extraction

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/debanirmalya/hirebuddy/internal/models"
)

var errNoJSON = errors.New("no JSON object in model response")

const promptTemplate = `You are a resume parser. Extract the following information as a JSON object.
For each field, include a confidence score (0 to 1) indicating how sure you are.

Resume Text:
{{TEXT}}

Fields:
- name
- email
- phone
- current_company
- designation
- skills (array)
- experience_years (number)
- education
- location

Output format (strict JSON only, no extra text):
{
  "fields": {
    "name": {"value": "John Doe", "confidence": 0.95},
    "email": {"value": "john@example.com", "confidence": 0.98},
    "phone": {"value": "+123456789", "confidence": 0.85},
    "current_company": {"value": "Tech Corp", "confidence": 0.88},
    "designation": {"value": "Software Engineer", "confidence": 0.9},
    "skills": {"value": ["Python", "AWS"], "confidence": 0.92},
    "experience_years": {"value": 5, "confidence": 0.9},
    "education": {"value": "B.Tech Computer Science", "confidence": 0.93},
    "location": {"value": "Bangalore", "confidence": 0.87}
  }
}`

func buildPrompt(text string, limit int) string {
	return strings.Replace(promptTemplate, "{{TEXT}}", truncateRunes(text, limit), 1)
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}

// firstJSONObject decodes the first well-formed JSON object embedded in s.
func firstJSONObject(s string) (map[string]any, error) {
	for i := strings.IndexByte(s, '{'); i >= 0; {
		dec := json.NewDecoder(strings.NewReader(s[i:]))
		dec.UseNumber()
		var obj map[string]any
		if err := dec.Decode(&obj); err == nil {
			return obj, nil
		}
		next := strings.IndexByte(s[i+1:], '{')
		if next < 0 {
			break
		}
		i += next + 1
	}
	return nil, errNoJSON
}

// parseModelFields reads {"fields": {k: {"value": v, "confidence": c}}}.
// A bare top-level field map and bare values without a confidence are
// accepted too. Unknown keys are dropped.
func parseModelFields(raw string) (map[string]any, map[string]float64, error) {
	obj, err := firstJSONObject(raw)
	if err != nil {
		return nil, nil, err
	}

	src := obj
	if f, ok := obj["fields"].(map[string]any); ok {
		src = f
	}

	fields := map[string]any{}
	conf := map[string]float64{}
	for _, k := range models.ResumeFields() {
		entry, ok := src[k]
		if !ok {
			continue
		}
		pair, isPair := entry.(map[string]any)
		if !isPair {
			fields[k] = entry
			continue
		}
		if _, hasValue := pair["value"]; !hasValue {
			fields[k] = entry
			continue
		}
		fields[k] = pair["value"]
		if c, ok := toConfidence(pair["confidence"]); ok {
			conf[k] = c
		}
	}
	return fields, conf, nil
}

func toConfidence(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case json.Number:
		x, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = x
	case float64:
		f = t
	default:
		return 0, false
	}
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	return f, true
}

// isEmpty treats nil, blank strings and empty lists or objects as missing.
func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}
