package messaging

import (
	"strings"

	"github.com/debanirmalya/hirebuddy/internal/models"
)

const requestTemplate = `Dear {{NAME}},

Thank you for your interest in joining our organization. As part of our verification process, we kindly request you to submit the following identity documents:

1. PAN Card (Permanent Account Number)
2. Aadhaar Card

These documents are required for identity verification and maintaining accurate HR records. Please ensure the documents are clear and legible.

Submission Instructions:
- Accepted formats: PDF, JPG, or PNG
- Maximum file size: 5MB per document
- Please submit both documents at your earliest convenience

You can upload the documents through our portal or reply to this message with the attachments.

If you have any questions or concerns, please feel free to reach out to us.

Best regards,
HR Team`

const followupTemplate = `Dear {{NAME}},

We noticed that we haven't received your {{DOCS}} yet. This is a gentle reminder to submit these documents at your earliest convenience to complete your verification process.

If you're experiencing any difficulties with the submission or have any questions, please don't hesitate to contact us. We're here to help!

Thank you for your cooperation.

Best regards,
HR Team`

const requestPrompt = `You are an HR assistant generating a personalised, short, professional and polite message.

Task: Write ONLY the document request message body.
Do NOT include any headings, labels, or introductions such as "Here is the message" or "Status: sent".
Output only the clean message body, no markdown, no bullet points, and no metadata.

Use this candidate info:
- Name: {{NAME}}
- Email: {{EMAIL}}
- Phone: {{PHONE}}
- Current Role: {{DESIGNATION}}
- Company: {{COMPANY}}

Requirements:
1. Address the candidate by name (e.g., "Dear {{NAME}},").
2. Politely request PAN card and Aadhaar card for identity verification for HR records.
3. Ask them to send these documents to {{SENDER_EMAIL}}.
4. Mention accepted formats: PDF, JPG, PNG.
5. Keep it concise (5-6 short lines total).
6. End with "Best regards," and "{{SENDER_NAME}}".
7. DO NOT use the candidate's email address as a destination or in a mailto link.
8. DO NOT include any additional commentary or labels.

Return ONLY the clean message text (no code block, no quotes, no explanations).`

const followupPrompt = `Generate a polite follow-up message to request missing documents from a candidate.

Candidate Name: {{NAME}}
Missing Documents: {{DOCS}}

The message should:
1. Be friendly and non-pushy
2. Remind them of the missing documents
3. Offer assistance if they're facing issues
4. Keep it brief (2-3 paragraphs)

Generate ONLY the message content.`

func render(tmpl string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// RequestTemplate is the fixed document request sent when generation fails.
func RequestTemplate(r Recipient) string {
	return render(requestTemplate, map[string]string{"NAME": r.displayName()})
}

// FollowupTemplate is the fixed reminder sent when generation fails.
func FollowupTemplate(r Recipient, missing []models.DocumentType) string {
	return render(followupTemplate, map[string]string{
		"NAME": r.displayName(),
		"DOCS": missingList(missing),
	})
}

// missingList joins the documents with " and " and upper-cases the result.
func missingList(missing []models.DocumentType) string {
	names := make([]string, len(missing))
	for i, d := range missing {
		names[i] = string(d)
	}
	return strings.ToUpper(strings.Join(names, " and "))
}
