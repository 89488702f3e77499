package stats

import (
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	consul "github.com/hashicorp/consul/api"
)

type cacheEntry struct {
	address    string
	expiration time.Time
}

type discoveryRequest struct {
	serviceName string
	reply       chan<- string
}

// DiscoveryCache resolves service addresses through consul and caches them
// for a TTL. It runs as a small actor so callers from any goroutine get a
// consistent view without locks.
type DiscoveryCache struct {
	entries   map[string]cacheEntry
	ttl       time.Duration
	client    *consul.Client
	requestCh chan discoveryRequest
}

// NewDiscoveryCache starts the cache actor. A nil consul client is allowed
// and makes every lookup miss, which callers treat as "use the configured
// fallback address".
func NewDiscoveryCache(client *consul.Client, ttl time.Duration) *DiscoveryCache {
	dc := &DiscoveryCache{
		entries:   make(map[string]cacheEntry),
		ttl:       ttl,
		client:    client,
		requestCh: make(chan discoveryRequest),
	}
	go dc.run()
	return dc
}

func (dc *DiscoveryCache) run() {
	for req := range dc.requestCh {
		entry, found := dc.entries[req.serviceName]
		if found && time.Now().Before(entry.expiration) {
			req.reply <- entry.address
			continue
		}

		address := dc.lookup(req.serviceName)
		if address != "" {
			dc.entries[req.serviceName] = cacheEntry{
				address:    address,
				expiration: time.Now().Add(dc.ttl),
			}
		}
		req.reply <- address
	}
}

// Discover returns a healthy address for serviceName, or "" when consul is
// unavailable or knows no healthy instance.
func (dc *DiscoveryCache) Discover(serviceName string) string {
	reply := make(chan string)
	dc.requestCh <- discoveryRequest{serviceName: serviceName, reply: reply}
	return <-reply
}

func (dc *DiscoveryCache) lookup(serviceName string) string {
	if dc.client == nil {
		return ""
	}
	services, _, err := dc.client.Health().Service(serviceName, "", true, nil)
	if err != nil || len(services) == 0 {
		log.Printf("[Discovery] no healthy instance of %q: %v", serviceName, err)
		return ""
	}
	s := services[rand.IntN(len(services))]
	addr := s.Service.Address
	if addr == "" {
		addr = s.Node.Address
	}
	return fmt.Sprintf("%s:%d", addr, s.Service.Port)
}
