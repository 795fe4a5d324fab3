package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"whatsapp-crm/internal/policy"
)

// CategoryScore is one advisory line in the quality breakdown.
type CategoryScore struct {
	Category   string `json:"category"`
	Points     int    `json:"points"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// QualityScore is the composite result: base 100 plus the category points,
// clamped to [0,100], with a human rating band.
type QualityScore struct {
	Score     int             `json:"score"`
	Breakdown []CategoryScore `json:"breakdown"`
	Rating    string          `json:"rating"`
}

const (
	spamMatchPenalty      = -10
	spamPenaltyFloor      = -30
	sensitiveMatchPenalty = -20
	sensitivePenaltyFloor = -40
)

func calculateQualityScore(tpl *Template, scanner *policy.Scanner) QualityScore {
	if tpl == nil {
		tpl = &Template{}
	}

	breakdown := []CategoryScore{
		scoreBodyLength(tpl),
		scoreCompleteness(tpl),
		scorePlaceholderUsage(tpl),
		scorePolicyCompliance(tpl, scanner),
	}

	score := 100
	for _, c := range breakdown {
		score += c.Points
	}
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	return QualityScore{Score: score, Breakdown: breakdown, Rating: ratingFor(score)}
}

func scoreBodyLength(tpl *Template) CategoryScore {
	c := CategoryScore{Category: "Body Length"}
	length := utf8.RuneCountInString(tpl.Components.BodyText())

	switch {
	case length < 50:
		c.Points = -10
		c.Message = fmt.Sprintf("Body text is too short (%d characters)", length)
		c.Suggestion = "Add more context so recipients understand the message"
	case length <= 500:
		c.Points = 5
		c.Message = fmt.Sprintf("Body length is optimal (%d characters)", length)
	case length <= 800:
		c.Points = 0
		c.Message = fmt.Sprintf("Body length is acceptable (%d characters)", length)
	case length <= 1000:
		c.Points = -10
		c.Message = fmt.Sprintf("Body text is quite long (%d characters)", length)
		c.Suggestion = "Consider trimming the body below 800 characters"
	default:
		c.Points = -15
		c.Message = fmt.Sprintf("Body text is excessively long (%d characters)", length)
		c.Suggestion = "Split the content or move detail to a linked page"
	}
	return c
}

func scoreCompleteness(tpl *Template) CategoryScore {
	c := CategoryScore{Category: "Component Completeness"}

	var missing []string
	if tpl.Components.Footer != nil && tpl.Components.Footer.Text != "" {
		c.Points += 5
	} else {
		missing = append(missing, "footer")
	}
	if tpl.Description != "" {
		c.Points += 5
	} else {
		missing = append(missing, "description")
	}
	if tpl.Components.HasHeader() {
		c.Points += 3
	} else {
		missing = append(missing, "header")
	}

	if len(missing) == 0 {
		c.Message = "All recommended components are present"
	} else {
		c.Message = fmt.Sprintf("Missing recommended components: %s", strings.Join(missing, ", "))
		c.Suggestion = "Templates with a header, footer and description tend to perform better"
	}
	return c
}

func scorePlaceholderUsage(tpl *Template) CategoryScore {
	c := CategoryScore{Category: "Placeholder Usage"}
	count := len(ExtractPlaceholders(tpl.Components.BodyText()))

	switch {
	case count == 0:
		c.Message = "Body uses no placeholders"
	case count <= 3:
		c.Message = fmt.Sprintf("Placeholder count is in the optimal range (%d)", count)
	case count <= 5:
		c.Points = -5
		c.Message = fmt.Sprintf("Body has many placeholders (%d)", count)
	default:
		c.Points = -10
		c.Message = fmt.Sprintf("Body has excessive placeholders (%d)", count)
		c.Suggestion = "Reduce the number of placeholders to keep the message readable"
	}
	return c
}

func scorePolicyCompliance(tpl *Template, scanner *policy.Scanner) CategoryScore {
	c := CategoryScore{Category: "Policy Compliance"}
	if scanner == nil {
		c.Message = "No spam indicators detected"
		return c
	}

	spam, sensitive := 0, 0
	scan := func(text string) {
		for _, m := range scanner.Scan(text) {
			if m.List == policy.ListSensitiveData {
				sensitive++
			} else {
				spam++
			}
		}
	}

	if h := tpl.Components.Header; h != nil && h.Type == HeaderText {
		scan(h.Text)
	}
	scan(tpl.Components.BodyText())
	scan(tpl.Components.FooterText())
	for _, b := range tpl.Components.Buttons {
		scan(b.Text)
	}

	if spam == 0 && sensitive == 0 {
		c.Message = "No spam indicators detected"
		return c
	}

	spamPoints := spam * spamMatchPenalty
	if spamPoints < spamPenaltyFloor {
		spamPoints = spamPenaltyFloor
	}
	sensitivePoints := sensitive * sensitiveMatchPenalty
	if sensitivePoints < sensitivePenaltyFloor {
		sensitivePoints = sensitivePenaltyFloor
	}

	c.Points = spamPoints + sensitivePoints
	c.Message = fmt.Sprintf("Policy scan flagged %d spam and %d sensitive-data matches", spam, sensitive)
	c.Suggestion = "Remove the flagged phrases before submitting for approval"
	return c
}

func ratingFor(score int) string {
	switch {
	case score >= 90:
		return "Excellent"
	case score >= 75:
		return "Good"
	case score >= 60:
		return "Fair"
	case score >= 40:
		return "Poor"
	default:
		return "Very Poor"
	}
}
