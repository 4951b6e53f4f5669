package pypi

import (
	"bytes"
	"encoding/json"
	"mime"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Page is a project page of a simple repository.
type Page struct {
	Project string `json:"project"`
	URL     string `json:"url"`
	Links   []Link `json:"links"`
}

// Link is one file listed on a project page. URL is absolute and keeps any
// "#sha256=" fragment the index provided.
type Link struct {
	Filename       string `json:"filename"`
	URL            string `json:"url"`
	RequiresPython string `json:"requires_python,omitempty"`
	Yanked         bool   `json:"yanked,omitempty"`
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && (mt == "application/vnd.pypi.simple.v1+json" || mt == "application/json")
}

// parseHTML extracts the anchors of an HTML project page. Relative hrefs
// resolve against pageURL or a <base href> in the document.
func parseHTML(body []byte, pageURL string) ([]Link, error) {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}

	var links []Link
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Base:
				if href, ok := attr(n, "href"); ok {
					if u, err := base.Parse(href); err == nil {
						base = u
					}
				}
			case atom.A:
				if l, ok := anchorLink(n, base); ok {
					links = append(links, l)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return links, nil
}

func anchorLink(n *html.Node, base *url.URL) (Link, bool) {
	href, ok := attr(n, "href")
	if !ok || strings.TrimSpace(href) == "" {
		return Link{}, false
	}
	u, err := base.Parse(strings.TrimSpace(href))
	if err != nil {
		return Link{}, false
	}
	l := Link{URL: u.String(), Filename: strings.TrimSpace(text(n))}
	if l.Filename == "" {
		l.Filename = fileOf(u)
	}
	l.RequiresPython, _ = attr(n, "data-requires-python")
	_, l.Yanked = attr(n, "data-yanked")
	return l, true
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func text(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func fileOf(u *url.URL) string {
	name := path.Base(u.Path)
	if name == "." || name == "/" {
		return ""
	}
	return name
}

type jsonPage struct {
	Name  string     `json:"name"`
	Files []jsonFile `json:"files"`
}

type jsonFile struct {
	Filename       string            `json:"filename"`
	URL            string            `json:"url"`
	Hashes         map[string]string `json:"hashes"`
	RequiresPython string            `json:"requires-python"`
	Yanked         json.RawMessage   `json:"yanked"`
}

// parseJSON decodes a JSON project page. Yanked may be a bool or a reason
// string; a file is yanked unless the field is absent or false.
func parseJSON(body []byte, pageURL string) ([]Link, error) {
	var p jsonPage
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, err
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}

	links := make([]Link, 0, len(p.Files))
	for _, f := range p.Files {
		u, err := base.Parse(f.URL)
		if err != nil {
			continue
		}
		if sum := f.Hashes["sha256"]; sum != "" && u.Fragment == "" {
			u.Fragment = "sha256=" + sum
		}
		y := strings.TrimSpace(string(f.Yanked))
		links = append(links, Link{
			Filename:       f.Filename,
			URL:            u.String(),
			RequiresPython: f.RequiresPython,
			Yanked:         y != "" && y != "false" && y != "null",
		})
	}
	return links, nil
}
