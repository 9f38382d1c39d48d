package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

var verificationTmpl = template.Must(template.New("verification").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.AppName}} verification code</title>
<style>
body { font-family: Arial, sans-serif; margin: 0; padding: 0; background-color: #f5f5f5; }
.container { max-width: 600px; margin: 0 auto; padding: 20px; }
.header { background: linear-gradient(135deg, #FF9800, #FF5722); color: white; padding: 30px; text-align: center; border-radius: 10px 10px 0 0; }
.content { background-color: white; padding: 30px; border-radius: 0 0 10px 10px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); }
.code { font-size: 32px; font-weight: bold; letter-spacing: 5px; text-align: center; margin: 20px 0; color: #FF5722; }
.footer { text-align: center; margin-top: 20px; color: #757575; font-size: 12px; }
</style>
</head>
<body>
<div class="container">
  <div class="header"><h1>{{.AppName}}</h1></div>
  <div class="content">
    <h2>Hello, {{.Handle}}!</h2>
    <p>Thanks for signing up for {{.AppName}}. Enter this code in the app to finish registration:</p>
    <div class="code">{{.Code}}</div>
    <p>The code is valid for {{.Validity}}.</p>
    <p>If you did not sign up for {{.AppName}}, ignore this email.</p>
  </div>
  <div class="footer"><p>&copy; {{.Year}} {{.AppName}}</p></div>
</div>
</body>
</html>
`))

type verificationData struct {
	AppName  string
	Handle   string
	Code     string
	Validity string
	Year     int
}

func renderVerification(appName, handle, code string, ttl time.Duration, now time.Time) (string, error) {
	var buf bytes.Buffer
	err := verificationTmpl.Execute(&buf, verificationData{
		AppName:  appName,
		Handle:   handle,
		Code:     code,
		Validity: humanDuration(ttl),
		Year:     now.Year(),
	})
	if err != nil {
		return "", fmt.Errorf("render verification email: %w", err)
	}
	return buf.String(), nil
}

func humanDuration(d time.Duration) string {
	switch {
	case d == time.Hour:
		return "1 hour"
	case d%time.Hour == 0:
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	case d%time.Minute == 0:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	default:
		return d.String()
	}
}
