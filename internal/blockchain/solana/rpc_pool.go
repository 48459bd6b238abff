// internal/blockchain/solana/rpc_pool.go
package solana

import (
	"context"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
)

type RPCPool struct {
	clients []*rpc.Client
	mutex   sync.Mutex
	index   int
}

func NewRPCPool(rpcList []string) *RPCPool {
	var clients []*rpc.Client
	for _, url := range rpcList {
		clients = append(clients, rpc.New(url))
	}

	return &RPCPool{
		clients: clients,
		index:   0,
	}
}

// GetClient returns the next client in round-robin order.
func (p *RPCPool) GetClient() *rpc.Client {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	client := p.clients[p.index]
	p.index = (p.index + 1) % len(p.clients)
	return client
}

// CheckClientHealth probes a single endpoint with a short deadline.
func (p *RPCPool) CheckClientHealth(ctx context.Context, client *rpc.Client) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	return err == nil
}

// HealthyCount probes every pooled endpoint and reports how many respond.
func (p *RPCPool) HealthyCount(ctx context.Context) int {
	healthy := 0
	for _, client := range p.clients {
		if p.CheckClientHealth(ctx, client) {
			healthy++
		}
	}
	return healthy
}
