package app

import (
	"sync"

	"github.com/ninjabase8085/pushapp/internal/inapp"
)

// Page is one screen of the demo. It is the SDK's render surface while it
// is in the foreground.
type Page struct {
	name   string
	blurb  string
	action string
	bridge *Bridge
	inbox  *inbox
}

func (p *Page) Name() string { return p.name }

// Dispatch hands fn to the Bubble Tea loop. It is called from SDK
// goroutines that must not block, so fn is dropped when the loop is behind.
func (p *Page) Dispatch(fn func()) {
	p.bridge.TrySend(dispatchMsg(fn))
}

// Render queues content for the model to pick up after the dispatched
// function returns.
func (p *Page) Render(c inapp.Content) error {
	p.inbox.push(c)
	return nil
}

type inbox struct {
	mu    sync.Mutex
	items []inapp.Content
}

func (b *inbox) push(c inapp.Content) {
	b.mu.Lock()
	b.items = append(b.items, c)
	b.mu.Unlock()
}

func (b *inbox) drain() []inapp.Content {
	b.mu.Lock()
	defer b.mu.Unlock()
	items := b.items
	b.items = nil
	return items
}

func newPages(bridge *Bridge, box *inbox) []*Page {
	return []*Page{
		{name: "Home", blurb: "Welcome back. Fresh deals are waiting.", action: "banner_tapped", bridge: bridge, inbox: box},
		{name: "Catalog", blurb: "Browse the spring collection.", action: "product_viewed", bridge: bridge, inbox: box},
		{name: "Cart", blurb: "Your cart is ready for checkout.", action: "checkout_started", bridge: bridge, inbox: box},
	}
}
