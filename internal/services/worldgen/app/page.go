package server

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/a-h/templ"
	"golang.org/x/text/message"

	"github.com/emberfall/worldforge/internal/platform/i18n"
)

// indexPage is the single-page shell. The world-building surface is
// driven entirely over the websocket; the shell only bootstraps it.
func indexPage(printer *message.Printer, lang string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		title := printer.Sprintf("worldgen.title")
		tagline := printer.Sprintf("worldgen.tagline")
		connecting := printer.Sprintf("worldgen.connecting")
		send := printer.Sprintf("worldgen.send")
		finalize := printer.Sprintf("worldgen.finalize")
		assisted := printer.Sprintf("worldgen.mode.assisted")
		manual := printer.Sprintf("worldgen.mode.manual")

		_, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="%s">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<link rel="stylesheet" href="/assets/worldgen.css">
</head>
<body>
<main id="worldgen-root" data-ws-path="/ws">
<h1>%s</h1>
<p>%s</p>
<ul data-role="steps"></ul>
<div data-role="log"></div>
<div data-role="streaming"></div>
<p data-role="status">%s</p>
<textarea data-role="input" rows="3"></textarea>
<button data-role="send" type="button">%s</button>
<select data-role="mode">
<option value="assisted">%s</option>
<option value="manual">%s</option>
</select>
<button data-role="finalize" type="button" disabled>%s</button>
</main>
<script src="/assets/worldgen.js" defer></script>
</body>
</html>
`,
			templ.EscapeString(lang),
			templ.EscapeString(title),
			templ.EscapeString(title),
			templ.EscapeString(tagline),
			templ.EscapeString(connecting),
			templ.EscapeString(send),
			templ.EscapeString(assisted),
			templ.EscapeString(manual),
			templ.EscapeString(finalize),
		)
		return err
	})
}

func handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tag, persist := i18n.ResolveTag(r)
	if persist {
		http.SetCookie(w, &http.Cookie{
			Name:     i18n.LangCookieName,
			Value:    tag.String(),
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexPage(i18n.Printer(tag), tag.String()).Render(r.Context(), w); err != nil {
		log.Printf("worldgen: render index failed: %v", err)
	}
}
