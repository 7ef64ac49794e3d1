package render

import (
	"bytes"
	"html/template"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	serrors "git.home.luguber.info/inful/simplistis/internal/errors"
	"git.home.luguber.info/inful/simplistis/internal/site"
)

// RenderNode renders one node and writes it under outputDir, returning the
// written path. On failure nothing is written.
func (r *Renderer) RenderNode(node *site.PageNode, outputDir string) (string, error) {
	body, err := node.Content.ToHTML()
	if err != nil {
		return "", serrors.TemplateFailed(node.Route, err)
	}

	tpl, err := template.New(node.Route).Funcs(r.funcs()).Parse(node.TemplateBody)
	if err != nil {
		return "", serrors.TemplateFailed(node.Route, err).WithContext("template", node.TemplatePath)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, r.pageData(node, body)); err != nil {
		return "", serrors.TemplateFailed(node.Route, err).WithContext("template", node.TemplatePath)
	}

	path, err := OutputPath(outputDir, node)
	if err != nil {
		return "", serrors.OutputFailed(outputDir, err).WithContext("route", node.Route)
	}
	if err := writeAtomic(path, buf.Bytes()); err != nil {
		return "", serrors.OutputFailed(path, err).WithContext("route", node.Route)
	}
	return path, nil
}

// pageData is the template context of a node.
func (r *Renderer) pageData(node *site.PageNode, body string) map[string]any {
	u := node.Content
	md := u.Metadata()
	data := summaryOf(node)
	data["content"] = template.HTML(body) // #nosec G203 -- produced by the markdown converter
	data["params"] = md.Params
	data["fingerprint"] = u.Fingerprint()
	data["is_section"] = node.IsSectionRoot

	children := make([]map[string]any, 0, len(node.Children))
	for _, c := range node.Children {
		children = append(children, summaryOf(c))
	}
	data["children"] = children
	data["site"] = map[string]any{
		"title":    r.opts.Site.Title,
		"base_url": r.opts.Site.BaseURL,
	}
	data["build"] = map[string]any{
		"id":   r.opts.Build.ID,
		"time": r.opts.Build.Time,
	}
	return data
}

func summaryOf(node *site.PageNode) map[string]any {
	md := node.Content.Metadata()
	var author any
	if md.Author != nil {
		author = *md.Author
	}
	return map[string]any{
		"title":      md.Title,
		"slug":       md.Slug,
		"route":      node.Route,
		"author":     author,
		"tags":       md.Tags,
		"updated_at": md.UpdatedAt,
		"summary":    node.Content.Summary(),
	}
}

func (r *Renderer) funcs() template.FuncMap {
	base := strings.TrimSuffix(r.opts.Site.BaseURL, "/")
	url := func(route string) string {
		if !strings.HasPrefix(route, "/") {
			route = "/" + route
		}
		return base + route
	}
	return template.FuncMap{
		// cases.Caser is stateful, so every call gets its own.
		"title": func(s string) string { return cases.Title(language.Und).String(s) },
		"join":  func(sep string, items []string) string { return strings.Join(items, sep) },
		"date":  func(layout string, t time.Time) string { return t.Format(layout) },
		"url":   url,
	}
}
