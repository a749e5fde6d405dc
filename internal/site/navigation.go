// Package site serves the header shell shared by every page: the brand and
// the navigation links.
package site

// Brand is the header wordmark split into its two colored halves.
type Brand struct {
	Primary string `json:"primary"`
	Accent  string `json:"accent"`
}

// Link is one header navigation entry.
type Link struct {
	Label       string `json:"label"`
	Href        string `json:"href"`
	Implemented bool   `json:"implemented"`
}

// Navigation is the header content.
type Navigation struct {
	Brand Brand  `json:"brand"`
	Links []Link `json:"links"`
}

var defaultLinks = []Link{
	{Label: "Home", Href: "/", Implemented: true},
	{Label: "Get Started", Href: "/get-started", Implemented: true},
	{Label: "Matches", Href: "/matches", Implemented: true},
	{Label: "How it Works", Href: "/how-it-works"},
	{Label: "About", Href: "/about"},
	{Label: "Login", Href: "/login"},
}

// DefaultNavigation returns the header links in display order.
func DefaultNavigation() Navigation {
	links := make([]Link, len(defaultLinks))
	copy(links, defaultLinks)
	return Navigation{
		Brand: Brand{Primary: "TRIAL", Accent: "BRIDGE"},
		Links: links,
	}
}

// Lookup returns the link for href.
func (n Navigation) Lookup(href string) (Link, bool) {
	for _, link := range n.Links {
		if link.Href == href {
			return link, true
		}
	}
	return Link{}, false
}
