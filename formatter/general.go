package formatter

const errorTemplate = `{{header .Kind .MaxLineNumWidth .Filename .Line .Column}}
{{- if .HasSnippet}}
{{snippet .SnippetLine .Line .MaxLineNumWidth .Padding}}
{{caret .Padding .SnippetLine .Column}}
{{- end}}
{{message .Padding .Message}}
{{- if .Note}}
{{note .Padding .Note}}
{{- end}}
`
