package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"
)

type Client struct {
	senderAddress  string
	noReplyAddress string
	siteName       string
	client         *http.Client
	apiKey         string
	baseURL        string
}

type Address struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type EmailMessage struct {
	Sender      Address   `json:"sender"`
	To          []Address `json:"to"`
	Subject     string    `json:"subject"`
	ReplyTo     Address   `json:"replyTo,omitempty"`
	TextContent string    `json:"textContent,omitempty"`
	HtmlContent string    `json:"htmlContent,omitempty"`
}

func NewClient(apiKey, senderAddress, noReplyAddress, siteName string) Client {
	return Client{
		client:         &http.Client{Timeout: 10 * time.Second},
		apiKey:         apiKey,
		senderAddress:  senderAddress,
		siteName:       siteName,
		noReplyAddress: noReplyAddress,
		baseURL:        "https://api.sendinblue.com"}
}

func (e Client) SupportSenderAddress() string {
	return e.senderAddress
}

func (e Client) NoReplySenderAddress() string {
	return e.noReplyAddress
}

func (e Client) SendHTMLEmail(ctx context.Context, from, to, replyTo Address, subject, text string) error {
	msg := EmailMessage{
		Sender:      from,
		ReplyTo:     replyTo,
		Subject:     subject,
		To:          []Address{to},
		HtmlContent: text,
	}
	reqData, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/v3/smtp/email", bytes.NewReader(reqData))
	if err != nil {
		return err
	}
	req.Header.Add("api-key", e.apiKey)
	req.Header.Add("content-type", "application/json")
	res, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= http.StatusBadRequest {
		errBody, err := io.ReadAll(res.Body)
		if err != nil {
			errBody = []byte(`unable to read body`)
		}
		return fmt.Errorf("got status code %d when sending email: err %s", res.StatusCode, string(errBody))
	}
	return nil
}

var confirmationTmpl = template.Must(template.New("confirmation").Parse(
	`<p>Hi {{.Name}},</p>
<p>Please click on the link below to confirm your registration on {{.SiteName}}:</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>
<p>The link is valid for 3 days.</p>`))

// SendConfirmation emails the account activation link.
func (e Client) SendConfirmation(ctx context.Context, to Address, link string) error {
	var body bytes.Buffer
	err := confirmationTmpl.Execute(&body, map[string]string{
		"Name":     to.Name,
		"SiteName": e.siteName,
		"Link":     link,
	})
	if err != nil {
		return err
	}
	return e.SendHTMLEmail(
		ctx,
		Address{Name: e.siteName, Email: e.noReplyAddress},
		to,
		Address{Name: e.siteName, Email: e.senderAddress},
		fmt.Sprintf("Activate your %s account", e.siteName),
		body.String(),
	)
}
