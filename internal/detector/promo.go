package detector

import (
	"fmt"
	"time"

	"github.com/arbiterlabs/surescan/internal/domain"
)

// ConvertPromo sizes the hedge for a promotional offer so that the realized
// profit is identical whichever side wins. It shares the payout-equalization
// idea with AllocateStakes: the hedge stake is chosen so the hedge payout
// equals the promo payout.
//
// Free bets that do not return the stake pay out (price - 1) per unit;
// free bets with stake return and profit boosts pay out the full price.
// A free bet has no cost basis; a boosted bet is real capital at risk.
func ConvertPromo(req domain.PromoRequest) (domain.PromoResult, error) {
	if err := req.Validate(); err != nil {
		return domain.PromoResult{}, err
	}

	payoutFactor := req.Price - 1
	if req.Type == domain.PromoProfitBoost || req.ReturnsStake {
		payoutFactor = req.Price
	}

	promoPayout := req.Amount * payoutFactor
	hedgeStake := promoPayout / req.HedgePrice

	costBasis := req.Amount
	if req.Type == domain.PromoFreeBet {
		costBasis = 0
	}

	profit := promoPayout - hedgeStake - costBasis
	rate := profit / req.Amount

	// The boost percentage is informational: it feeds the effective odds
	// shown to the operator but not the sizing above.
	effective := req.Price
	if req.Type == domain.PromoProfitBoost && req.BoostPct > 0 {
		effective = 1 + (req.Price-1)*(1+req.BoostPct/100)
	}

	return domain.PromoResult{
		Type:             req.Type,
		Amount:           req.Amount,
		PromoPayout:      domain.Round2(promoPayout),
		HedgeStake:       domain.Round2(hedgeStake),
		GuaranteedProfit: domain.Round2(profit),
		ConversionRate:   domain.Round4(rate),
		EffectiveOdds:    domain.Round4(effective),
		Rationale: fmt.Sprintf("hedge %s at %.2f to lock %s either way (%.1f%% conversion)",
			domain.FormatUSD(hedgeStake), req.HedgePrice, domain.FormatUSD(profit), rate*100),
		ConvertedAt: time.Now().UTC(),
	}, nil
}
