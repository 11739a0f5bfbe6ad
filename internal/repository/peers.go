package repository

import (
	drepo "StockGate/internal/domain/repository"
)

// StaticPeers is a configuration-backed peer registry. Peers are fixed at
// startup; there is no discovery.
type StaticPeers struct {
	endpoints map[string]string
}

// NewStaticPeers builds a registry from agent id to endpoint URL.
func NewStaticPeers(endpoints map[string]string) drepo.PeerRegistry {
	if endpoints == nil {
		endpoints = map[string]string{}
	}
	return &StaticPeers{endpoints: endpoints}
}

func (p *StaticPeers) Lookup(agentID string) (string, bool) {
	ep, ok := p.endpoints[agentID]
	return ep, ok
}
