package whatsapp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"whatsapp-crm/internal/config"
	"whatsapp-crm/internal/validation"

	"github.com/sirupsen/logrus"
)

type Client struct {
	Config  *config.Config
	BaseURL string
	http    *http.Client
	log     *logrus.Entry
}

func NewClient(cfg *config.Config, log *logrus.Entry) *Client {
	return &Client{
		Config:  cfg,
		BaseURL: cfg.GraphBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}
}

// --- Message Structures ---

type GenericMessage struct {
	MessagingProduct string          `json:"messaging_product"`
	To               string          `json:"to"`
	Type             string          `json:"type"`
	RecipientType    string          `json:"recipient_type,omitempty"`
	Text             *TextObj        `json:"text,omitempty"`
	Image            *MediaObj       `json:"image,omitempty"`
	Video            *MediaObj       `json:"video,omitempty"`
	Document         *MediaObj       `json:"document,omitempty"`
	Location         *LocationObj    `json:"location,omitempty"`
	Template         *TemplateObj    `json:"template,omitempty"`
	Interactive      *InteractiveObj `json:"interactive,omitempty"`
}

type TextObj struct {
	Body       string `json:"body"`
	PreviewUrl bool   `json:"preview_url,omitempty"`
}

type MediaObj struct {
	ID       string `json:"id,omitempty"`
	Link     string `json:"link,omitempty"`
	Caption  string `json:"caption,omitempty"`
	Filename string `json:"filename,omitempty"` // For documents
}

type LocationObj struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	Name      string  `json:"name,omitempty"`
	Address   string  `json:"address,omitempty"`
}

type TemplateObj struct {
	Name       string         `json:"name"`
	Language   LanguageObj    `json:"language"`
	Components []ComponentObj `json:"components,omitempty"`
}

type LanguageObj struct {
	Code string `json:"code"`
}

type ComponentObj struct {
	Type       string         `json:"type"`
	SubType    string         `json:"sub_type,omitempty"`
	Parameters []ParameterObj `json:"parameters"`
	Index      string         `json:"index,omitempty"` // For buttons
}

type ParameterObj struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	Image    *MediaObj `json:"image,omitempty"`
	Video    *MediaObj `json:"video,omitempty"`
	Document *MediaObj `json:"document,omitempty"`
}

type InteractiveObj struct {
	Type   string     `json:"type"`
	Header *HeaderObj `json:"header,omitempty"`
	Body   BodyObj    `json:"body"`
	Footer *FooterObj `json:"footer,omitempty"`
	Action ActionObj  `json:"action"`
}

type HeaderObj struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type BodyObj struct {
	Text string `json:"text"`
}

type FooterObj struct {
	Text string `json:"text"`
}

type ActionObj struct {
	Buttons []ButtonObj `json:"buttons,omitempty"`
}

type ButtonObj struct {
	Type  string   `json:"type"`
	Reply ReplyObj `json:"reply"`
}

type ReplyObj struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// --- Helper Functions ---

func (c *Client) sendRequest(method, url string, body interface{}, headers map[string]string) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+c.Config.WhatsAppToken)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if req.Header.Get("Content-Type") == "" && body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return respBody, fmt.Errorf("API error: %s - %s", resp.Status, string(respBody))
	}

	return respBody, nil
}

// --- Messaging Methods ---

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// SendRawMessage posts a message payload and returns the provider message id.
func (c *Client) SendRawMessage(msg GenericMessage) (string, error) {
	url := fmt.Sprintf("%s/%s/messages", c.BaseURL, c.Config.PhoneNumberID)
	respBody, err := c.sendRequest("POST", url, msg, nil)
	if err != nil {
		return "", err
	}

	var resp sendResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", err
	}
	if len(resp.Messages) == 0 {
		return "", fmt.Errorf("no message id in response: %s", string(respBody))
	}

	c.log.WithFields(logrus.Fields{
		"to":   msg.To,
		"type": msg.Type,
		"id":   resp.Messages[0].ID,
	}).Debug("Message sent")

	return resp.Messages[0].ID, nil
}

func (c *Client) SendTextMessage(to, body string) (string, error) {
	msg := GenericMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text: &TextObj{
			Body: body,
		},
	}
	return c.SendRawMessage(msg)
}

func (c *Client) SendTemplateMessage(to, templateName, languageCode string, components []ComponentObj) (string, error) {
	msg := GenericMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "template",
		Template: &TemplateObj{
			Name: templateName,
			Language: LanguageObj{
				Code: languageCode,
			},
			Components: components,
		},
	}
	return c.SendRawMessage(msg)
}

func (c *Client) SendImageMessage(to, imageURL, caption string) (string, error) {
	msg := GenericMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "image",
		Image: &MediaObj{
			Link:    imageURL,
			Caption: caption,
		},
	}
	return c.SendRawMessage(msg)
}

// SendButtonsMessage sends an interactive message with up to three quick
// reply buttons.
func (c *Client) SendButtonsMessage(to, body string, buttons []ReplyObj) (string, error) {
	objs := make([]ButtonObj, 0, len(buttons))
	for _, b := range buttons {
		objs = append(objs, ButtonObj{Type: "reply", Reply: b})
	}
	msg := GenericMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "interactive",
		Interactive: &InteractiveObj{
			Type:   "button",
			Body:   BodyObj{Text: body},
			Action: ActionObj{Buttons: objs},
		},
	}
	return c.SendRawMessage(msg)
}

// --- Media Methods ---

type MediaResponse struct {
	ID string `json:"id"`
}

func (c *Client) UploadMedia(fileData []byte, mimeType, filename string) (*MediaResponse, error) {
	url := fmt.Sprintf("%s/%s/media", c.BaseURL, c.Config.PhoneNumberID)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	part.Write(fileData)

	writer.WriteField("messaging_product", "whatsapp")
	writer.WriteField("type", mimeType)
	writer.Close()

	req, err := http.NewRequest("POST", url, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+c.Config.WhatsAppToken)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("upload failed: %s - %s", resp.Status, string(respBody))
	}

	var mediaResp MediaResponse
	if err := json.Unmarshal(respBody, &mediaResp); err != nil {
		return nil, err
	}

	return &mediaResp, nil
}

func (c *Client) RetrieveMediaURL(mediaID string) (string, error) {
	url := fmt.Sprintf("%s/%s", c.BaseURL, mediaID)
	resp, err := c.sendRequest("GET", url, nil, nil)
	if err != nil {
		return "", err
	}

	var obj struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(resp, &obj); err != nil {
		return "", err
	}
	return obj.URL, nil
}

func (c *Client) DeleteMedia(mediaID string) error {
	url := fmt.Sprintf("%s/%s", c.BaseURL, mediaID)
	_, err := c.sendRequest("DELETE", url, nil, nil)
	return err
}

// --- Template Management Methods ---

// RemoteTemplate is the provider's view of a submitted template.
type RemoteTemplate struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Language string `json:"language"`
	Status   string `json:"status"`
	Category string `json:"category"`
}

// SubmitResult is returned when a template is submitted for approval.
type SubmitResult struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Category string `json:"category"`
}

type templateSubmission struct {
	Name       string                `json:"name"`
	Language   string                `json:"language"`
	Category   string                `json:"category"`
	Components []submissionComponent `json:"components"`
}

type submissionComponent struct {
	Type    string             `json:"type"`
	Format  string             `json:"format,omitempty"`
	Text    string             `json:"text,omitempty"`
	Buttons []submissionButton `json:"buttons,omitempty"`
	Example *submissionExample `json:"example,omitempty"`
}

type submissionButton struct {
	Type        string `json:"type"`
	Text        string `json:"text"`
	URL         string `json:"url,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

type submissionExample struct {
	HeaderText   []string   `json:"header_text,omitempty"`
	HeaderHandle []string   `json:"header_handle,omitempty"`
	BodyText     [][]string `json:"body_text,omitempty"`
}

// SubmitTemplate converts an already validated template document into the
// management API payload and submits it for approval.
func (c *Client) SubmitTemplate(doc *validation.Template) (*SubmitResult, error) {
	sub := templateSubmission{
		Name:       doc.Name,
		Language:   doc.Language,
		Category:   doc.Category,
		Components: translateComponents(doc),
	}

	url := fmt.Sprintf("%s/%s/message_templates", c.BaseURL, c.Config.WhatsAppBusinessAccountID)
	respBody, err := c.sendRequest("POST", url, sub, nil)
	if err != nil {
		return nil, err
	}

	var result SubmitResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func translateComponents(doc *validation.Template) []submissionComponent {
	var comps []submissionComponent

	if h := doc.Components.Header; h != nil && h.Type != "" && h.Type != validation.HeaderNone {
		comp := submissionComponent{Type: "HEADER", Format: h.Type}
		if h.Type == validation.HeaderText {
			comp.Text = h.Text
		} else if h.MediaHandle != "" {
			comp.Example = &submissionExample{HeaderHandle: []string{h.MediaHandle}}
		}
		comps = append(comps, comp)
	}

	if b := doc.Components.Body; b != nil {
		comp := submissionComponent{Type: "BODY", Text: b.Text}
		if samples := orderedSamples(doc); len(samples) > 0 {
			comp.Example = &submissionExample{BodyText: [][]string{samples}}
		}
		comps = append(comps, comp)
	}

	if f := doc.Components.Footer; f != nil && f.Text != "" {
		comps = append(comps, submissionComponent{Type: "FOOTER", Text: f.Text})
	}

	if len(doc.Components.Buttons) > 0 {
		comp := submissionComponent{Type: "BUTTONS"}
		for _, b := range doc.Components.Buttons {
			comp.Buttons = append(comp.Buttons, submissionButton{
				Type:        b.Type,
				Text:        b.Text,
				URL:         b.URL,
				PhoneNumber: b.PhoneNumber,
			})
		}
		comps = append(comps, comp)
	}

	return comps
}

// orderedSamples returns sample values for body placeholders 1..k, stopping
// at the first missing index so the example stays positional.
func orderedSamples(doc *validation.Template) []string {
	var samples []string
	for i := 1; ; i++ {
		v, ok := doc.SampleValues[strconv.Itoa(i)]
		if !ok {
			break
		}
		samples = append(samples, v)
	}
	return samples
}

func (c *Client) ListTemplates() ([]RemoteTemplate, error) {
	url := fmt.Sprintf("%s/%s/message_templates", c.BaseURL, c.Config.WhatsAppBusinessAccountID)
	respBody, err := c.sendRequest("GET", url, nil, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Data []RemoteTemplate `json:"data"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, err
	}
	return result.Data, nil
}

func (c *Client) DeleteTemplate(templateName string) error {
	u := fmt.Sprintf("%s/%s/message_templates?name=%s",
		c.BaseURL, c.Config.WhatsAppBusinessAccountID, url.QueryEscape(templateName))
	_, err := c.sendRequest("DELETE", u, nil, nil)
	return err
}
