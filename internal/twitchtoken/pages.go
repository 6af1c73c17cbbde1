package twitchtoken

import (
	"html/template"
	"io"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Title}}</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            display: flex;
            justify-content: center;
            align-items: center;
            height: 100vh;
            margin: 0;
            background: linear-gradient(135deg, {{.From}} 0%, {{.To}} 100%);
        }
        .container {
            background: white;
            padding: 40px;
            border-radius: 10px;
            box-shadow: 0 4px 6px rgba(0, 0, 0, 0.1);
            text-align: center;
            max-width: 400px;
        }
        h1 { color: {{.Accent}}; margin-bottom: 20px; }
        p { color: #6b7280; margin-bottom: 10px; }
        .detail { background: #f3f4f6; padding: 10px; border-radius: 5px; font-size: 14px; margin-top: 20px; }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{.Heading}}</h1>
        <p>{{.Message}}</p>
        {{if .Detail}}<div class="detail">{{.Detail}}</div>{{end}}
    </div>
    {{if .AutoClose}}<script>setTimeout(() => window.close(), 3000);</script>{{end}}
</body>
</html>
`))

type page struct {
	Title, Heading, Message, Detail string
	From, To, Accent                template.CSS
	AutoClose                       bool
}

// WriteSuccessPage renders the page shown after a completed OAuth flow.
func WriteSuccessPage(w io.Writer) error {
	return pageTemplate.Execute(w, page{
		Title:     "Conectado",
		Heading:   "✅ ¡Conectado!",
		Message:   "La ruleta ya escucha los canjes de puntos del canal. Puedes cerrar esta ventana.",
		From:      "#0ea5e9",
		To:        "#9333ea",
		Accent:    "#10b981",
		AutoClose: true,
	})
}

// WriteErrorPage renders an OAuth error. detail is escaped.
func WriteErrorPage(w io.Writer, detail string) error {
	return pageTemplate.Execute(w, page{
		Title:   "Error de autenticación",
		Heading: "❌ Error de autenticación",
		Message: "Twitch rechazó la autorización.",
		Detail:  detail,
		From:    "#ef4444",
		To:      "#dc2626",
		Accent:  "#ef4444",
	})
}
