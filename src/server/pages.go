package server

import (
	"strings"

	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"

	"subject-feed/src/subjects"
)

const feedCSS = `
body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Oxygen, Ubuntu, Cantarell, sans-serif;
    max-width: 800px;
    margin: 0 auto;
    padding: 20px;
    background: #f5f5f5;
}
h2 {
    color: #333;
    border-bottom: 2px solid #007bff;
    padding-bottom: 10px;
}
ul {
    list-style: none;
    padding: 0;
    background: white;
    border-radius: 8px;
    box-shadow: 0 2px 4px rgba(0,0,0,0.1);
}
li {
    padding: 12px 15px;
    border-bottom: 1px solid #eee;
    line-height: 1.6;
}
li:last-child {
    border-bottom: none;
}
b {
    color: #007bff;
    font-weight: 600;
}
.message-count {
    color: #666;
    font-size: 0.9em;
    margin-top: 10px;
}
`

const subjectsCSS = `
body {
    font-family: sans-serif;
    max-width: 600px;
    margin: 50px auto;
}
ul { list-style-type: none; padding: 0; }
li { padding: 10px; margin: 5px 0; background: #f0f0f0; border-radius: 4px; }
a { text-decoration: none; color: #007bff; }
a:hover { text-decoration: underline; }
`

// FeedPage renders the page for one subject. Fragments are already escaped
// by the renderer and are inserted verbatim.
func FeedPage(subject subjects.Subject, fragments []string) g.Node {
	title := subject.Title() + " Feed"

	return h.Doctype(
		h.HTML(h.Lang("en"),
			h.Head(
				h.Meta(h.Charset("UTF-8")),
				h.Meta(h.Name("viewport"), h.Content("width=device-width, initial-scale=1.0")),
				h.TitleEl(g.Text(title)),
				h.StyleEl(g.Raw(feedCSS)),
			),
			h.Body(
				h.H2(g.Text(title)),
				feedList(fragments),
				h.Div(h.Class("message-count"), g.Textf("Total messages: %d", len(fragments))),
			),
		),
	)
}

func feedList(fragments []string) g.Node {
	if len(fragments) == 0 {
		return h.P(g.Text("No messages yet for this subject."))
	}
	return g.Raw("<ul>\n" + strings.Join(fragments, "\n") + "\n</ul>")
}

// SubjectsPage lists every subject with a link to its feed.
func SubjectsPage(all []subjects.Subject) g.Node {
	return h.Doctype(
		h.HTML(h.Lang("en"),
			h.Head(
				h.Meta(h.Charset("UTF-8")),
				h.TitleEl(g.Text("Available Subjects")),
				h.StyleEl(g.Raw(subjectsCSS)),
			),
			h.Body(
				h.H2(g.Text("Available Feed Subjects")),
				h.Ul(
					g.Map(all, func(s subjects.Subject) g.Node {
						return h.Li(h.A(h.Href("/api/subjects/"+s.String()), g.Text(s.String())))
					}),
				),
			),
		),
	)
}
