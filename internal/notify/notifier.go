// Package notify delivers opportunity alerts to one or more webhook channels.
// Alerts are filtered by tier so operators only see signals worth acting on.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/arbiterlabs/surescan/internal/domain"
)

// Sender is one notification channel.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a short identifier for the sender (e.g. "slack").
	Name() string
}

// tierRank orders tiers for the minimum-tier filter.
func tierRank(t domain.Tier) int {
	switch t {
	case domain.TierFire:
		return 2
	case domain.TierLightning:
		return 1
	default:
		return 0
	}
}

func tierEmoji(t domain.Tier) string {
	switch t {
	case domain.TierFire:
		return "🔥"
	case domain.TierLightning:
		return "⚡"
	default:
		return "ℹ️"
	}
}

// Notifier dispatches opportunity alerts to all registered senders. A single
// sender failure does not prevent delivery to the rest.
type Notifier struct {
	senders []Sender
	minTier domain.Tier
	logger  *slog.Logger
}

// NewNotifier creates a Notifier. Opportunities below minTier are dropped
// silently; an empty minTier delivers everything.
func NewNotifier(senders []Sender, minTier domain.Tier, logger *slog.Logger) *Notifier {
	if minTier == "" {
		minTier = domain.TierInfo
	}
	return &Notifier{
		senders: senders,
		minTier: minTier,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// AlertOpportunity formats and delivers one (opportunity, decision) pair.
// Implements the pipeline alert sink.
func (n *Notifier) AlertOpportunity(ctx context.Context, opp domain.Opportunity, dec domain.Decision) error {
	if tierRank(opp.Tier) < tierRank(n.minTier) {
		n.logger.Debug("alert below tier threshold",
			slog.String("fingerprint", opp.Fingerprint),
			slog.String("tier", string(opp.Tier)),
		)
		return nil
	}
	return n.dispatch(ctx, formatTitle(opp), formatBody(opp, dec))
}

// dispatch sends to every sender, collecting failures into one error.
func (n *Notifier) dispatch(ctx context.Context, title, message string) error {
	if len(n.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.Error("sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
			continue
		}
		n.logger.Debug("notification sent",
			slog.String("sender", s.Name()),
			slog.String("title", title),
		)
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}

func formatTitle(opp domain.Opportunity) string {
	live := ""
	if opp.IsLive {
		live = " LIVE"
	}
	return fmt.Sprintf("%s %s arb%s: %s %s (+%.2f%%)",
		tierEmoji(opp.Tier), strings.ToUpper(string(opp.Tier)), live,
		opp.EventID, opp.Market, opp.ProfitPct,
	)
}

func formatBody(opp domain.Opportunity, dec domain.Decision) string {
	var b strings.Builder
	for _, leg := range opp.Legs {
		fmt.Fprintf(&b, "%s @ %.2f on %s: stake %s, pays %s\n",
			leg.Selection, leg.Price, leg.Venue,
			domain.FormatUSD(leg.Stake), domain.FormatUSD(leg.Payout),
		)
	}
	fmt.Fprintf(&b, "Guaranteed profit: %s on %s total\n",
		domain.FormatUSD(opp.GuaranteedProfit), domain.FormatUSD(opp.TotalStake),
	)
	fmt.Fprintf(&b, "Decision: %s", strings.ToUpper(string(dec.Action)))
	if dec.StakeModifier > 0 && dec.StakeModifier < 1 {
		fmt.Fprintf(&b, " (stake x%.1f)", dec.StakeModifier)
	}
	if dec.DelaySeconds > 0 {
		fmt.Fprintf(&b, " after %ds", dec.DelaySeconds)
	}
	if dec.Rationale != "" {
		fmt.Fprintf(&b, "\n%s", dec.Rationale)
	}
	return b.String()
}
