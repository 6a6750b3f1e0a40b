package server

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/dojobyexample/docnav/internal/navigation"
	"github.com/dojobyexample/docnav/internal/sidebar"
)

// indexView lists every route of the current config.
type indexView struct {
	Source string
	Routes []routeLink
	Error  string
}

type routeLink struct {
	Path  string
	Label string
	Href  string
}

// routeView shows the sidebar bound to one route.
type routeView struct {
	Path  string
	Label string
	Tree  navigation.Tree
	Error string
}

const reloadScript = `<script>
(function () {
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  function connect() {
    var ws = new WebSocket(proto + location.host + "/ws");
    ws.onmessage = function (event) {
      var msg = JSON.parse(event.data);
      if (msg.type === "reload") { location.reload(); }
      if (msg.type === "error") {
        var banner = document.getElementById("docnav-error");
        if (banner) { banner.textContent = msg.message; banner.hidden = false; }
      }
    };
    ws.onclose = function () { setTimeout(connect, 1000); };
  }
  connect();
})();
</script>`

const styles = `<style>
body { font-family: system-ui, -apple-system, sans-serif; margin: 0; padding: 24px; background: #f7f7f8; color: #1f2328; }
main { max-width: 960px; margin: 0 auto; background: #fff; padding: 24px; border-radius: 8px; box-shadow: 0 2px 10px rgba(0,0,0,0.08); }
h1 { font-size: 1.4rem; border-bottom: 2px solid #4b6bfb; padding-bottom: 8px; }
table { border-collapse: collapse; width: 100%; }
td, th { text-align: left; padding: 6px 8px; border-bottom: 1px solid #eee; }
nav.sidebar ul { list-style: none; padding-left: 16px; }
nav.sidebar summary { cursor: pointer; font-weight: 600; }
#docnav-error { background: #fdecea; color: #b42318; padding: 8px 12px; border-radius: 6px; white-space: pre-wrap; }
</style>`

// markup builds HTML for the preview pages. Text and attribute values always
// go through templ's escaping and hrefs through templ.URL; only the constant
// page chrome is written with trusted.
type markup struct {
	b strings.Builder
}

type htmlAttr struct {
	name  string
	value string
	bare  bool
}

func attrValue(name, value string) htmlAttr {
	return htmlAttr{name: name, value: value}
}

func attrFlag(name string) htmlAttr {
	return htmlAttr{name: name, bare: true}
}

func attrHref(link string) htmlAttr {
	return htmlAttr{name: "href", value: string(templ.URL(link))}
}

func (m *markup) open(tag string, attrs ...htmlAttr) *markup {
	m.b.WriteByte('<')
	m.b.WriteString(tag)
	for _, a := range attrs {
		m.b.WriteByte(' ')
		m.b.WriteString(a.name)
		if a.bare {
			continue
		}
		m.b.WriteString(`="`)
		m.b.WriteString(templ.EscapeString(a.value))
		m.b.WriteByte('"')
	}
	m.b.WriteByte('>')
	return m
}

func (m *markup) close(tag string) *markup {
	m.b.WriteString("</")
	m.b.WriteString(tag)
	m.b.WriteByte('>')
	return m
}

func (m *markup) text(s string) *markup {
	m.b.WriteString(templ.EscapeString(s))
	return m
}

// element writes a whole element with escaped content.
func (m *markup) element(tag, content string, attrs ...htmlAttr) *markup {
	return m.open(tag, attrs...).text(content).close(tag)
}

func (m *markup) link(href, label string) *markup {
	return m.element("a", label, attrHref(href))
}

func (m *markup) nl() *markup {
	m.b.WriteByte('\n')
	return m
}

// trusted writes s unescaped. It only takes the constants of this file.
func (m *markup) trusted(s string) *markup {
	m.b.WriteString(s)
	return m
}

func (m *markup) flush(w io.Writer) error {
	_, err := io.WriteString(w, m.b.String())
	m.b.Reset()
	return err
}

// layout wraps body in the preview page shell.
func layout(title, errMsg string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		m := &markup{}
		m.trusted("<!DOCTYPE html>").nl()
		m.open("html", attrValue("lang", "en")).nl()
		m.open("head").nl()
		m.open("meta", attrValue("charset", "utf-8")).nl()
		m.element("title", title+" · docnav").nl()
		m.trusted(styles).nl()
		m.close("head").nl()
		m.open("body").nl()
		m.open("main").nl()
		m.element("h1", title).nl()
		if errMsg != "" {
			m.element("pre", errMsg, attrValue("id", "docnav-error")).nl()
		} else {
			m.element("pre", "", attrValue("id", "docnav-error"), attrFlag("hidden")).nl()
		}
		if err := m.flush(w); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		m.close("main").nl()
		m.trusted(reloadScript).nl()
		m.close("body").nl()
		m.close("html").nl()
		return m.flush(w)
	})
}

func indexPage(v indexView) templ.Component {
	body := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		m := &markup{}
		m.open("p").text("Source: ").element("code", v.Source).close("p").nl()
		m.open("table").nl()
		m.open("thead").open("tr").element("th", "Route").element("th", "Section").close("tr").close("thead").nl()
		m.open("tbody").nl()
		for _, r := range v.Routes {
			m.open("tr").open("td").link(r.Href, r.Path).close("td").element("td", r.Label).close("tr").nl()
		}
		m.close("tbody").nl()
		m.close("table").nl()
		m.open("p").link("/sidebar.json", "sidebar.json").text(" · ").link("/pages.json", "pages.json").close("p").nl()
		return m.flush(w)
	})
	return layout("Sidebar routes", v.Error, body)
}

func routePage(v routeView) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		m := &markup{}
		m.open("p").link("/", "All routes").text(" · ").element("code", v.Path).close("p").nl()
		if err := m.flush(w); err != nil {
			return err
		}
		return sidebarTree(v.Tree).Render(ctx, w)
	})
	title := v.Path
	if v.Label != "" {
		title = v.Label + " (" + v.Path + ")"
	}
	return layout(title, v.Error, body)
}

// sidebarTree renders a tree the way Vocs shows it: collapsed sections are
// closed <details>, open sections and sections without a flag are open.
func sidebarTree(tree navigation.Tree) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		m := &markup{}
		m.open("nav", attrValue("class", "sidebar")).nl()
		writeNodes(m, tree)
		m.close("nav").nl()
		return m.flush(w)
	})
}

func writeNodes(m *markup, nodes []navigation.Node) {
	m.open("ul").nl()
	for _, n := range nodes {
		m.open("li")
		switch n := n.(type) {
		case navigation.Leaf:
			writeLabel(m, n.Text, n.Link)
		case *navigation.Branch:
			state := "open"
			if n.Collapsed != nil {
				state = strconv.FormatBool(*n.Collapsed)
			}
			attrs := []htmlAttr{attrValue("data-collapsed", state)}
			if !n.IsCollapsed() {
				attrs = append(attrs, attrFlag("open"))
			}
			m.open("details", attrs...).open("summary")
			writeLabel(m, n.Text, n.Link)
			m.close("summary").nl()
			writeNodes(m, n.Items)
			m.close("details")
		}
		m.close("li").nl()
	}
	m.close("ul").nl()
}

func writeLabel(m *markup, text, link string) {
	if link == "" {
		m.text(text)
		return
	}
	m.link(link, text)
}

// routeLinks lists the routes of cfg in key order.
func routeLinks(cfg sidebar.Config, plan *sidebar.Plan) []routeLink {
	labels := make(map[string]string)
	if plan != nil {
		for _, r := range plan.Routes {
			labels[r.Path()] = r.Label
		}
	}
	links := make([]routeLink, 0, len(cfg))
	for _, key := range cfg.Keys() {
		links = append(links, routeLink{Path: key, Label: labels[key], Href: routeHref(key)})
	}
	return links
}

func routeHref(key string) string {
	return "/route" + key
}
