package discord

import (
	"fmt"
	"strings"
)

// majorParams are the path parameters Discord scopes rate limits by.
var majorParams = map[string]bool{
	"channel_id": true,
	"guild_id":   true,
	"webhook_id": true,
}

// Route is one REST endpoint call: the path template identifies the rate
// limit route, Major holds the value of its major parameter if any.
type Route struct {
	Method   string
	Template string
	Path     string
	Major    string
}

// NewRoute fills the {param} placeholders of template with params, in order.
// String params are inserted as is and must already be path-escaped.
func NewRoute(method, template string, params ...any) Route {
	r := Route{Method: method, Template: template}

	var b strings.Builder
	rest := template
	for _, p := range params {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			break
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			break
		}
		name := rest[open+1 : open+end]
		value := fmt.Sprint(p)

		b.WriteString(rest[:open])
		b.WriteString(value)
		rest = rest[open+end+1:]

		if r.Major == "" && majorParams[name] {
			r.Major = value
		}
	}
	b.WriteString(rest)
	r.Path = b.String()
	return r
}

// Key identifies the route for bucket discovery.
func (r Route) Key() string {
	return r.Method + " " + r.Template
}

// String returns the route key.
func (r Route) String() string {
	return r.Key()
}
