// ABOUTME: mDNS service discovery for the Resonate Protocol
// ABOUTME: Browses for servers advertising _resonate._tcp and resolves them to ws:// URLs
package discovery

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hashicorp/mdns"
)

// serviceType is the mDNS service type Resonate servers advertise.
const serviceType = "_resonate._tcp"

// Config holds discovery configuration.
type Config struct {
	// Timeout bounds one browse pass. Defaults to 3s if zero.
	Timeout int // seconds
}

// ServerInfo describes a discovered server, resolved to a dialable address.
type ServerInfo struct {
	Name string
	Host string
	Port int
}

// URL returns the ws://host:port/resonate URL of this server.
func (s *ServerInfo) URL() string {
	return fmt.Sprintf("ws://%s:%d/resonate", s.Host, s.Port)
}

// Manager browses for Resonate servers on the local network. It is a thin
// wrapper over github.com/hashicorp/mdns: this module treats discovery as
// an external collaborator, not a component with its own protocol logic.
type Manager struct {
	config  Config
	ctx     context.Context
	cancel  context.CancelFunc
	servers chan *ServerInfo
}

// NewManager creates a discovery manager.
func NewManager(config Config) *Manager {
	if config.Timeout == 0 {
		config.Timeout = 3
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		config:  config,
		ctx:     ctx,
		cancel:  cancel,
		servers: make(chan *ServerInfo, 10),
	}
}

// Browse starts a background loop issuing repeated mDNS queries for
// _resonate._tcp and pushing resolved servers onto Servers().
func (m *Manager) Browse() {
	go m.browseLoop()
}

func (m *Manager) browseLoop() {
	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		entries := make(chan *mdns.ServiceEntry, 10)

		go func() {
			for entry := range entries {
				server := &ServerInfo{
					Name: entry.Name,
					Host: entry.AddrV4.String(),
					Port: entry.Port,
				}

				log.Printf("discovery: found server %s at %s:%d", server.Name, server.Host, server.Port)

				select {
				case m.servers <- server:
				case <-m.ctx.Done():
					return
				}
			}
		}()

		params := &mdns.QueryParam{
			Service: serviceType,
			Domain:  "local",
			Timeout: time.Duration(m.config.Timeout) * time.Second,
			Entries: entries,
		}

		if err := mdns.Query(params); err != nil {
			log.Printf("discovery: query failed: %v", err)
		}
		close(entries)
	}
}

// Servers returns the channel of discovered servers.
func (m *Manager) Servers() <-chan *ServerInfo {
	return m.servers
}

// Stop stops the discovery manager.
func (m *Manager) Stop() {
	m.cancel()
}
