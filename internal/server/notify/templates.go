package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"strings"
)

var (
	verificationTmpl = template.Must(template.New("verify").Parse(`<h2>Welcome to Bookkeeper, {{.Name}}!</h2>
<p>Please confirm your email address to activate your account.</p>
<p><a href="{{.Link}}">Verify my email</a></p>
<p>The link is valid for {{.Validity}}. If you did not sign up, ignore this message.</p>
`))

	resetTmpl = template.Must(template.New("reset").Parse(`<h3>Password reset requested</h3>
<p>Hello {{.Name}}, we received a request to reset the password for your account.</p>
<p><a href="{{.Link}}">Choose a new password</a></p>
<p>The link is valid for {{.Validity}}. If you did not request this change, you can ignore this email.</p>
`))

	resetDoneTmpl = template.Must(template.New("reset-done").Parse(`<h3>Your password was changed</h3>
<p>Hello {{.Name}}, the password for your account has just been changed and all sessions were signed out.</p>
<p>If this was not you, reset your password immediately.</p>
`))
)

// Email is a rendered message.
type Email struct {
	Subject string
	Body    string
}

// Templates renders the account emails. Links point at BaseURL.
type Templates struct {
	BaseURL  string
	Validity string
}

func NewTemplates(baseURL, validity string) *Templates {
	return &Templates{BaseURL: strings.TrimRight(baseURL, "/"), Validity: validity}
}

func (t *Templates) link(path, token string) string {
	return t.BaseURL + path + "?token=" + url.QueryEscape(token)
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

func (t *Templates) Verification(name, token string) (Email, error) {
	body, err := render(verificationTmpl, map[string]string{
		"Name": name, "Link": t.link("/api/auth/verify-email", token), "Validity": t.Validity,
	})
	return Email{Subject: "Confirm your email address", Body: body}, err
}

func (t *Templates) PasswordReset(name, token string) (Email, error) {
	body, err := render(resetTmpl, map[string]string{
		"Name": name, "Link": t.link("/reset-password", token), "Validity": t.Validity,
	})
	return Email{Subject: "Password reset request", Body: body}, err
}

func (t *Templates) PasswordChanged(name string) (Email, error) {
	body, err := render(resetDoneTmpl, map[string]string{"Name": name})
	return Email{Subject: "Your password was changed", Body: body}, err
}
