package retrieval

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category is a kind of retrievable document.
type Category string

const (
	Vitals     Category = "vitals"
	Alerts     Category = "alerts"
	Status     Category = "status"
	Wellness   Category = "wellness"
	History    Category = "history"
	Live       Category = "live"
	DeviceInfo Category = "device"
)

// Categories lists every category in the order search results are emitted.
var Categories = []Category{Vitals, Alerts, Status, Wellness, History, Live, DeviceInfo}

// keywords trigger a category when any appears as a substring of the lowercased query.
// DeviceInfo has none: it is only produced as the search fallback or by fetch.
var keywords = map[Category][]string{
	Vitals:   {"vitals", "heart", "oxygen", "temperature", "current", "now"},
	Alerts:   {"alert", "warning", "critical", "alarm", "problem"},
	Status:   {"device", "status", "battery", "connection", "base station"},
	Wellness: {"wellness", "summary", "overview", "health", "report"},
	History:  {"history", "historical", "trends", "past", "data"},
	Live:     {"live", "feed", "camera", "video", "streaming", "real-time"},
}

var urlSuffix = map[Category]string{
	Alerts:   "/alerts",
	Status:   "/status",
	Wellness: "/wellness",
	History:  "/history",
	Live:     "/live",
}

// ParseCategory accepts the exact lowercase category name.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// URL is the citation link for this category on a device.
func (c Category) URL(serial string) string {
	return BaseURL + "/device/" + serial + urlSuffix[c]
}

// MatchCategories returns, in catalogue order, every category with a keyword in the query.
func MatchCategories(query string) []Category {
	q := cases.Lower(language.Und).String(query)

	var matched []Category
	for _, c := range Categories {
		for _, kw := range keywords[c] {
			if strings.Contains(q, kw) {
				matched = append(matched, c)
				break
			}
		}
	}
	return matched
}
