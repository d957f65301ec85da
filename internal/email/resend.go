// Package email sends transactional mail through the Resend API. Delivery is
// best-effort everywhere it is used: callers log failures and move on, since
// the entitlement or certificate record is the source of truth.
package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

const resendEndpoint = "https://api.resend.com/emails"

type Client struct {
	apiKey     string
	fromEmail  string
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func NewClient(apiKey, fromEmail, baseURL string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		fromEmail:  fromEmail,
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the API key is set.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type resendEmail struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text"`
}

// SendWelcome sends the first-purchase email with generated login credentials.
func (c *Client) SendWelcome(toEmail, courseLabel, password string) error {
	subject := "Welcome to Bridgewell — your course is ready"
	text := fmt.Sprintf(
		"Your %s is ready.\n\nSign in at %s/login\nEmail: %s\nTemporary password: %s\n\nPlease change your password after signing in.",
		courseLabel, c.baseURL, toEmail, password,
	)
	html := fmt.Sprintf(
		`<p>Your %s is ready.</p><p>Sign in at <a href="%s/login">%s/login</a></p><p>Email: %s<br>Temporary password: <strong>%s</strong></p><p>Please change your password after signing in.</p>`,
		courseLabel, c.baseURL, c.baseURL, toEmail, password,
	)
	return c.send(toEmail, subject, html, text)
}

// SendCourseAdded notifies an existing account of an additional purchase. No
// credentials are included.
func (c *Client) SendCourseAdded(toEmail, courseLabel string) error {
	subject := "Your new course is ready"
	text := fmt.Sprintf("Your %s has been added to your account.\n\nSign in at %s/login to get started.", courseLabel, c.baseURL)
	html := fmt.Sprintf(
		`<p>Your %s has been added to your account.</p><p>Sign in at <a href="%s/login">%s/login</a> to get started.</p>`,
		courseLabel, c.baseURL, c.baseURL,
	)
	return c.send(toEmail, subject, html, text)
}

// SendCertificateNotice informs the attorney on file that their client
// completed the course, with a public verification link.
func (c *Client) SendCertificateNotice(attorneyEmail, participantName, courseLabel, certificateNumber, verificationCode string) error {
	verifyURL := fmt.Sprintf("%s/verify/%s", c.baseURL, verificationCode)
	subject := fmt.Sprintf("Certificate of completion for %s", participantName)
	text := fmt.Sprintf(
		"%s has completed the %s.\n\nCertificate number: %s\nVerify at: %s",
		participantName, courseLabel, certificateNumber, verifyURL,
	)
	html := fmt.Sprintf(
		`<p>%s has completed the %s.</p><p>Certificate number: %s</p><p><a href="%s">Verify this certificate</a></p>`,
		participantName, courseLabel, certificateNumber, verifyURL,
	)
	return c.send(attorneyEmail, subject, html, text)
}

func (c *Client) send(toEmail, subject, html, text string) error {
	if !c.Configured() {
		return fmt.Errorf("email client not configured: missing API key")
	}

	payload := resendEmail{
		From:    c.fromEmail,
		To:      []string{toEmail},
		Subject: subject,
		HTML:    html,
		Text:    text,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequest("POST", resendEndpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("resend API error: status %d", resp.StatusCode)
	}

	return nil
}
