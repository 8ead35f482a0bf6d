package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fragisir/automatic-resturent-system/utils"
)

const (
	DefaultCheckInterval = 10 * time.Second
	DefaultThreshold     = 30 * time.Second
)

// Renewer keeps a customer session alive by refreshing its token shortly
// before it expires.
type Renewer struct {
	Client        *Client
	TableNumber   int
	SessionID     string
	CheckInterval time.Duration
	Threshold     time.Duration

	// OnRenew is called with every new token.
	OnRenew func(token string, expiresAt time.Time)
	// OnLost is called once when the server refuses the session; the caller
	// should scan the table again.
	OnLost func(err error)

	Now func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func NewRenewer(c *Client, tableNumber int, sessionID, token string, expiresAt time.Time) *Renewer {
	return &Renewer{
		Client:        c,
		TableNumber:   tableNumber,
		SessionID:     sessionID,
		CheckInterval: DefaultCheckInterval,
		Threshold:     DefaultThreshold,
		Now:           time.Now,
		token:         token,
		expiresAt:     expiresAt,
	}
}

// Token returns the most recent token and its expiry.
func (r *Renewer) Token() (string, time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.token, r.expiresAt
}

// Run checks every CheckInterval until ctx is done or the session is lost.
func (r *Renewer) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			lost, err := r.check(ctx)
			if lost {
				if r.OnLost != nil {
					r.OnLost(err)
				}
				return err
			}
		}
	}
}

// check refreshes when the token is within Threshold of expiry, including
// when it has already expired. It reports whether the session is gone.
func (r *Renewer) check(ctx context.Context) (bool, error) {
	_, expiresAt := r.Token()
	if expiresAt.Sub(r.Now()) > r.Threshold {
		return false, nil
	}

	grant, err := r.Client.RefreshToken(ctx, r.TableNumber, r.SessionID)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.SessionLost() {
			return true, err
		}
		utils.ErrorLogger.WithFields(logrus.Fields{
			"table":   r.TableNumber,
			"session": r.SessionID,
		}).Warnf("Token refresh failed, retrying: %v", err)
		return false, err
	}

	r.mu.Lock()
	r.token = grant.Token
	r.expiresAt = grant.ExpiresAt
	r.mu.Unlock()

	if r.OnRenew != nil {
		r.OnRenew(grant.Token, grant.ExpiresAt)
	}
	return false, nil
}
