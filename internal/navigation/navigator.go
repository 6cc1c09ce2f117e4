// Package navigation tracks the client's current location and records
// where it was sent next: in-app routes or full external redirects.
package navigation

import (
	"net/url"
	"strings"
	"sync"

	"github.com/angelmondragon/storefront/pkg/pubsub"
)

// Target is a navigation request. External targets leave the client.
type Target struct {
	URL      string
	External bool
}

// Navigator holds the current location and publishes every navigation.
type Navigator struct {
	mu       sync.RWMutex
	location string
	targets  *pubsub.Subject[Target]
}

func New(initial string) *Navigator {
	if initial == "" {
		initial = "/"
	}
	return &Navigator{
		location: initial,
		targets:  pubsub.NewSubject(Target{URL: initial}),
	}
}

// Location returns the current in-app path including any query.
func (n *Navigator) Location() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.location
}

// Path returns the current location without its query string.
func (n *Navigator) Path() string {
	loc := n.Location()
	if i := strings.IndexAny(loc, "?#"); i >= 0 {
		return loc[:i]
	}
	return loc
}

// Navigate moves to an in-app route, optionally with query parameters.
func (n *Navigator) Navigate(route string, query url.Values) {
	target := route
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	n.mu.Lock()
	n.location = target
	n.mu.Unlock()
	n.targets.Publish(Target{URL: target})
}

// Redirect hands control to an external URL. The in-app location is left
// untouched.
func (n *Navigator) Redirect(externalURL string) {
	n.targets.Publish(Target{URL: externalURL, External: true})
}

// Last returns the most recent navigation target.
func (n *Navigator) Last() Target {
	return n.targets.Value()
}

// Subscribe registers fn for every navigation, starting with the current one.
func (n *Navigator) Subscribe(fn func(Target)) func() {
	return n.targets.Subscribe(fn)
}
