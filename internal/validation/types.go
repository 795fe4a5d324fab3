package validation

// Template categories accepted by the messaging platform.
const (
	CategoryUtility        = "UTILITY"
	CategoryMarketing      = "MARKETING"
	CategoryAuthentication = "AUTHENTICATION"
	CategoryTransactional  = "TRANSACTIONAL"
)

// Header types.
const (
	HeaderNone     = "NONE"
	HeaderText     = "TEXT"
	HeaderImage    = "IMAGE"
	HeaderVideo    = "VIDEO"
	HeaderDocument = "DOCUMENT"
	HeaderLocation = "LOCATION"
)

// Button types. QUICK_REPLY forms one class; URL and PHONE_NUMBER together
// form the call-to-action class. A template must not mix the two classes.
const (
	ButtonQuickReply  = "QUICK_REPLY"
	ButtonURL         = "URL"
	ButtonPhoneNumber = "PHONE_NUMBER"
)

// Template is a message-template document as submitted for validation.
// Field names line up with the dotted paths reported in ValidationError.
type Template struct {
	Name         string            `json:"name"`
	Category     string            `json:"category"`
	Language     string            `json:"language"`
	Description  string            `json:"description,omitempty"`
	Components   Components        `json:"components"`
	SampleValues map[string]string `json:"sampleValues,omitempty"`
}

// Components groups the template parts. Body is required; everything else
// is optional.
type Components struct {
	Header  *Header  `json:"header,omitempty"`
	Body    *Body    `json:"body,omitempty"`
	Footer  *Footer  `json:"footer,omitempty"`
	Buttons []Button `json:"buttons,omitempty"`
}

type Header struct {
	Type        string `json:"type"`
	Text        string `json:"text,omitempty"`
	MediaHandle string `json:"mediaHandle,omitempty"`
}

type Body struct {
	Text         string        `json:"text"`
	Placeholders []Placeholder `json:"placeholders,omitempty"`
}

type Placeholder struct {
	Index   int    `json:"index"`
	Example string `json:"example,omitempty"`
}

type Footer struct {
	Text string `json:"text"`
}

type Button struct {
	Type        string `json:"type"`
	Text        string `json:"text"`
	URL         string `json:"url,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

// HasHeader reports whether the template carries a real header component.
func (c *Components) HasHeader() bool {
	return c.Header != nil && c.Header.Type != "" && c.Header.Type != HeaderNone
}

// BodyText returns the body text, or "" when the body is absent.
func (c *Components) BodyText() string {
	if c.Body == nil {
		return ""
	}
	return c.Body.Text
}

// FooterText returns the footer text, or "" when the footer is absent.
func (c *Components) FooterText() string {
	if c.Footer == nil {
		return ""
	}
	return c.Footer.Text
}
