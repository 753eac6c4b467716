package display

import (
	"html/template"
	"io"
)

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="{{.Refresh}}">
<title>{{.Title}}</title>
</head>
<body>
<h1>{{.Title}}</h1>
{{- range $b := .Blocks}}
<section class="song" id="song-{{$b.Index}}">
  <h2>{{$b.Heading}}</h2>
  <p class="file">{{$b.FileName}}</p>
  <p class="genre">{{$b.Genre}}</p>
  {{- if $b.Tempo}}
  <p class="tempo">{{$b.Tempo}}</p>
  {{- end}}
  {{- range $g := $b.Groups}}
  <div class="group {{$g.Category}}">
    <span class="label">{{$g.Label}}</span>
    {{- range $btn := $g.Buttons}}
    <form method="post" action="/press">
      <input type="hidden" name="control" value="{{$btn.ID}}">
      <input type="hidden" name="songHash" value="{{$btn.Intent.SongHash}}">
      <input type="hidden" name="voteType" value="{{$btn.Intent.Category}}">
      <input type="hidden" name="voteValue" value="{{$btn.Value}}">
      <button type="submit"{{if not (call $.Enabled $btn.ID)}} disabled class="dimmed"{{end}}>{{$btn.Value}}</button>
    </form>
    {{- end}}
  </div>
  {{- end}}
</section>
{{- end}}
</body>
</html>
`

// PageData is what the viewer page renders.
type PageData struct {
	Title   string
	Refresh int
	Blocks  []Block
	// Enabled reports whether the control with the given id accepts presses.
	Enabled func(id string) bool
}

type Page struct {
	tmpl *template.Template
}

func NewPage() *Page {
	return &Page{tmpl: template.Must(template.New("page").Parse(pageTemplate))}
}

func (p *Page) Render(w io.Writer, data PageData) error {
	if data.Enabled == nil {
		data.Enabled = func(string) bool { return true }
	}
	if data.Refresh <= 0 {
		data.Refresh = 2
	}
	return p.tmpl.Execute(w, data)
}
