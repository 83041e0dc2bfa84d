package provider

import (
	"context"
	"time"
)

// DataSourceMode says whether the client talks to the provider or the synthetic generator
type DataSourceMode int32

const (
	ModeLive     DataSourceMode = iota // Upstream provider
	ModeDegraded                       // Synthetic data after quota exhaustion
)

func (m DataSourceMode) String() string {
	if m == ModeDegraded {
		return "degraded"
	}
	return "live"
}

// Durable fallback flag
const (
	ModeFlagKey = "oddsapi:data_source_mode"
	ModeFlagTTL = 30 * 24 * time.Hour
)

// Mode returns the current data source mode
func (c *Client) Mode() DataSourceMode {
	return DataSourceMode(c.mode.Load())
}

// LoadMode restores the durable fallback flag left by an earlier run
func (c *Client) LoadMode(ctx context.Context) error {
	if c.flags == nil {
		return nil
	}

	data, found, err := c.flags.Get(ctx, ModeFlagKey)
	if err != nil {
		return err
	}
	if found && string(data) == ModeDegraded.String() {
		if c.mode.CompareAndSwap(int32(ModeLive), int32(ModeDegraded)) {
			c.logger.Warn().Msg("durable fallback flag set, serving synthetic data")
		}
	}
	return nil
}

// degrade performs the one-way Live -> Degraded transition. Only the caller
// that wins the transition logs and persists the flag.
func (c *Client) degrade(ctx context.Context, cause error) {
	if !c.mode.CompareAndSwap(int32(ModeLive), int32(ModeDegraded)) {
		return
	}

	c.logger.Warn().Err(cause).Msg("odds api quota exhausted, switching to synthetic data")

	if c.flags == nil {
		return
	}
	if err := c.flags.Set(ctx, ModeFlagKey, []byte(ModeDegraded.String()), ModeFlagTTL); err != nil {
		c.logger.Warn().Err(err).Msg("failed to persist fallback flag")
	}
}

// ResetMode moves the client back to Live and clears the durable flag
func (c *Client) ResetMode(ctx context.Context) error {
	if c.apiKey == "" {
		c.logger.Warn().Msg("reset ignored: no api key configured")
		return ErrNoAPIKey
	}

	c.mode.Store(int32(ModeLive))
	c.logger.Info().Msg("data source reset to live")

	if c.flags == nil {
		return nil
	}
	return c.flags.Delete(ctx, ModeFlagKey)
}
