// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package mail

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
)

//go:embed templates/*.html templates/*.txt
var templateFS embed.FS

// Templates renders named email bodies. Every name has a .html and a .txt variant.
type Templates struct {
	html *htmltemplate.Template
	text *texttemplate.Template
}

// LoadTemplates parses the embedded templates.
func LoadTemplates() (*Templates, error) {
	html, err := htmltemplate.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("mail: parse html templates: %w", err)
	}

	text, err := texttemplate.ParseFS(templateFS, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf("mail: parse text templates: %w", err)
	}

	return &Templates{html: html, text: text}, nil
}

/*
Render builds a [Message] from the named template pair.

Parameters:
  - name: template base name, e.g. "reset_password"
  - to: recipient address
  - subject: subject line
  - data: template data

Returns:
  - Message: rendered email
  - error: unknown template or execution failure
*/
func (templates *Templates) Render(name, to, subject string, data any) (Message, error) {
	var html, text bytes.Buffer

	if err := templates.html.ExecuteTemplate(&html, name+".html", data); err != nil {
		return Message{}, fmt.Errorf("mail: render %s.html: %w", name, err)
	}
	if err := templates.text.ExecuteTemplate(&text, name+".txt", data); err != nil {
		return Message{}, fmt.Errorf("mail: render %s.txt: %w", name, err)
	}

	return Message{To: to, Subject: subject, HTML: html.String(), Text: text.String()}, nil
}
