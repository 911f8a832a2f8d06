package sim

import (
	"context"
	"time"

	"hydra-sim/internal/logging"
)

// Run ticks the session on its interval until ctx is done or, when maxTicks
// is positive, after maxTicks ticks.
func (s *Session) Run(ctx context.Context, maxTicks int) {
	log := logging.FromContext(ctx)
	st := s.Station()
	log.Info("starting session",
		"station", st.Name,
		"climate", st.Climate().Zone,
		"tick_interval", s.tickInterval,
		"max_ticks", maxTicks,
	)
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	n := 0
	for {
		select {
		case <-ticker.C:
			res := s.Tick(ctx)
			n++
			if len(res.Events) > 0 {
				log.Debug("anomalies detected", "tick", res.Row.Tick, "count", len(res.Events))
			}
			if maxTicks > 0 && n >= maxTicks {
				log.Info("tick budget reached", "ticks", n)
				return
			}
		case <-ctx.Done():
			log.Info("stopping session", "ticks", n)
			return
		}
	}
}
