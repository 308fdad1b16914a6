package auth

import (
	"context"
	"sync"
	"time"

	"gamepanel/internal/constants"
	"gamepanel/internal/logger"
	"gamepanel/internal/metrics"
)

// BrokerConfig configures a ticket Broker. Zero values select the defaults.
type BrokerConfig struct {
	TTL            time.Duration
	MaxOutstanding int
	SweepInterval  time.Duration
}

type ticketEntry struct {
	username  string
	issuedAt  time.Time
	expiresAt time.Time
}

// Broker issues single-use tickets for the streaming channel handshake.
// Tickets live only in this process, keyed by the BLAKE3 hash of their id;
// the map is touched nowhere but under mu.
type Broker struct {
	mu      sync.Mutex
	tickets map[string]ticketEntry

	ttl            time.Duration
	maxOutstanding int
	sweepInterval  time.Duration
	now            func() time.Time

	logger  *logger.Logger
	metrics *metrics.Metrics

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewBroker creates a broker. Call Start to run the background sweeper.
func NewBroker(cfg BrokerConfig, log *logger.Logger, m *metrics.Metrics) *Broker {
	if cfg.TTL <= 0 {
		cfg.TTL = constants.TicketTTL
	}
	if cfg.MaxOutstanding <= 0 {
		cfg.MaxOutstanding = constants.TicketMaxOutstanding
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = constants.TicketSweepInterval
	}
	return &Broker{
		tickets:        make(map[string]ticketEntry),
		ttl:            cfg.TTL,
		maxOutstanding: cfg.MaxOutstanding,
		sweepInterval:  cfg.SweepInterval,
		now:            time.Now,
		logger:         log,
		metrics:        m,
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}
}

// TTL returns the lifetime of issued tickets.
func (b *Broker) TTL() time.Duration {
	return b.ttl
}

// Issue creates a ticket bound to username. The caller must already have
// authenticated the user and checked the streaming permission.
func (b *Broker) Issue(username string) (*Ticket, error) {
	id, err := RandomHex(constants.TicketRandomBytes)
	if err != nil {
		return nil, err
	}
	key := HashTicketID(id)
	now := b.now()
	entry := ticketEntry{
		username:  username,
		issuedAt:  now,
		expiresAt: now.Add(b.ttl),
	}

	b.mu.Lock()
	if len(b.tickets) >= b.maxOutstanding {
		b.sweepLocked(now)
	}
	if len(b.tickets) >= b.maxOutstanding {
		b.mu.Unlock()
		b.logger.Warn("Auth: ticket capacity reached (%d outstanding)", b.maxOutstanding)
		return nil, ErrTicketCapacity
	}
	b.tickets[key] = entry
	outstanding := len(b.tickets)
	b.mu.Unlock()

	b.metrics.TicketIssued(outstanding)
	b.logger.Debug("Auth: ticket %s... issued to %q", LogPrefix(id), username)

	return &Ticket{
		ID:        id,
		Username:  username,
		IssuedAt:  entry.issuedAt,
		ExpiresAt: entry.expiresAt,
	}, nil
}

// Redeem consumes a ticket and returns its username. Lookup and removal
// happen in one critical section, so of any number of concurrent redeemers
// exactly one succeeds. Absent, expired and already used tickets all yield
// ErrInvalidTicket.
func (b *Broker) Redeem(id string) (string, error) {
	if id == "" {
		b.metrics.TicketRedeemed(false, b.Outstanding())
		return "", ErrInvalidTicket
	}
	key := HashTicketID(id)
	now := b.now()

	b.mu.Lock()
	entry, ok := b.tickets[key]
	if ok {
		delete(b.tickets, key)
	}
	outstanding := len(b.tickets)
	b.mu.Unlock()

	if !ok {
		b.logger.Debug("Auth: ticket %s... unknown or already used", LogPrefix(id))
		b.metrics.TicketRedeemed(false, outstanding)
		return "", ErrInvalidTicket
	}
	if !now.Before(entry.expiresAt) {
		b.logger.Debug("Auth: ticket %s... expired", LogPrefix(id))
		b.metrics.TicketRedeemed(false, outstanding)
		return "", ErrInvalidTicket
	}

	b.metrics.TicketRedeemed(true, outstanding)
	return entry.username, nil
}

// Outstanding returns the number of tickets currently held, expired or not.
func (b *Broker) Outstanding() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.tickets)
}

// Sweep removes expired tickets and returns how many were dropped.
func (b *Broker) Sweep() int {
	b.mu.Lock()
	removed := b.sweepLocked(b.now())
	outstanding := len(b.tickets)
	b.mu.Unlock()

	if removed > 0 {
		b.logger.Debug("Auth: swept %d expired ticket(s)", removed)
	}
	b.metrics.TicketsSwept(outstanding)
	return removed
}

func (b *Broker) sweepLocked(now time.Time) int {
	removed := 0
	for key, entry := range b.tickets {
		if !now.Before(entry.expiresAt) {
			delete(b.tickets, key)
			removed++
		}
	}
	return removed
}

// Start runs the periodic sweeper until ctx is done or Stop is called.
func (b *Broker) Start(ctx context.Context) {
	go func() {
		defer close(b.done)
		ticker := time.NewTicker(b.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-b.stop:
				return
			case <-ticker.C:
				b.Sweep()
			}
		}
	}()
}

// Stop halts the sweeper started by Start and waits for it to exit.
// It must only be called after Start.
func (b *Broker) Stop() {
	b.stopOnce.Do(func() { close(b.stop) })
	<-b.done
}
