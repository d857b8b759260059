package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"options-backtester/internal/metrics"
	"options-backtester/internal/models"
	"options-backtester/internal/pricing"
)

func newPriceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Value a single option contract",
		Long:  "Price a European option and report its Greeks for what-if analysis.",
		Example: `  optbt price --type put --spot 100 --strike 95 --dte 45 --vol 0.25
  optbt price --type call --spot 430 --strike 450 --dte 30 --vol 0.18 --rate 0.05`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			typeStr, _ := cmd.Flags().GetString("type")
			spot, _ := cmd.Flags().GetFloat64("spot")
			strike, _ := cmd.Flags().GetFloat64("strike")
			dte, _ := cmd.Flags().GetFloat64("dte")
			vol, _ := cmd.Flags().GetFloat64("vol")
			rate, _ := cmd.Flags().GetFloat64("rate")

			optType, err := parseType(typeStr)
			if err != nil {
				return err
			}
			if spot <= 0 || strike <= 0 {
				return fmt.Errorf("spot and strike must be positive")
			}

			price := pricing.Price(optType, spot, strike, dte, vol, rate)
			leg := models.OptionLeg{
				Type:         optType,
				Side:         models.Long,
				Strike:       strike,
				Quantity:     1,
				DaysToExpiry: dte,
			}
			greeks := pricing.LegGreeks(leg, spot, vol, rate)

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"price":  price,
					"greeks": greeks,
				})
			}

			output.Printf("Price:  %.4f\n", price)
			output.Printf("Delta:  %+.4f\n", greeks.Delta)
			output.Printf("Gamma:  %+.4f\n", greeks.Gamma)
			output.Printf("Theta:  %+.4f/day\n", greeks.Theta)
			output.Printf("Vega:   %+.4f\n", greeks.Vega)
			output.Printf("Rho:    %+.4f\n", greeks.Rho)
			return nil
		},
	}

	cmd.Flags().String("type", "call", "Option type (call or put)")
	cmd.Flags().Float64("spot", 0, "Underlying price")
	cmd.Flags().Float64("strike", 0, "Strike price")
	cmd.Flags().Float64("dte", 30, "Days to expiration")
	cmd.Flags().Float64("vol", 0.2, "Implied volatility (decimal)")
	cmd.Flags().Float64("rate", app.Config.Backtest.RiskFreeRate, "Risk-free rate (decimal)")
	return cmd
}

func newMetricsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Compute strategy risk metrics",
		Long: `Compute max profit, max loss, breakevens and net premium for a set of
option legs. Each --leg is type:side:strike:quantity:premium.`,
		Example: `  optbt metrics --spot 100 --leg call:long:100:1:3.50
  optbt metrics --spot 100 --leg call:long:95:1:6.00 --leg call:short:105:1:2.00`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			spot, _ := cmd.Flags().GetFloat64("spot")
			legSpecs, _ := cmd.Flags().GetStringArray("leg")
			if spot <= 0 {
				return fmt.Errorf("spot must be positive")
			}
			if len(legSpecs) == 0 {
				return fmt.Errorf("at least one --leg is required")
			}

			legs := make([]models.OptionLeg, 0, len(legSpecs))
			for _, spec := range legSpecs {
				leg, err := parseLeg(spec)
				if err != nil {
					return err
				}
				legs = append(legs, leg)
			}

			m := metrics.Compute(legs, spot)

			if output.IsJSON() {
				return output.JSON(m)
			}

			output.Printf("Max Profit: %s\n", formatExtremum(m.MaxProfit))
			output.Printf("Max Loss:   %s\n", formatExtremum(m.MaxLoss))
			output.Printf("Breakevens: %s\n", formatBreakevens(m.Breakevens))
			output.Printf("Net Premium: %.2f", m.NetPremium)
			if m.NetPremium >= 0 {
				output.Println(" (credit)")
			} else {
				output.Println(" (debit)")
			}
			return nil
		},
	}

	cmd.Flags().Float64("spot", 0, "Underlying price")
	cmd.Flags().StringArray("leg", nil, "Leg spec type:side:strike:quantity:premium (repeatable)")
	return cmd
}

func parseType(s string) (models.OptionType, error) {
	switch strings.ToLower(s) {
	case "call", "c":
		return models.Call, nil
	case "put", "p":
		return models.Put, nil
	default:
		return "", fmt.Errorf("unknown option type %q", s)
	}
}

func parseLeg(spec string) (models.OptionLeg, error) {
	parts := strings.Split(spec, ":")
	if len(parts) != 5 {
		return models.OptionLeg{}, fmt.Errorf("leg %q: want type:side:strike:quantity:premium", spec)
	}

	optType, err := parseType(parts[0])
	if err != nil {
		return models.OptionLeg{}, fmt.Errorf("leg %q: %w", spec, err)
	}

	var side models.Side
	switch strings.ToLower(parts[1]) {
	case "long", "buy":
		side = models.Long
	case "short", "sell":
		side = models.Short
	default:
		return models.OptionLeg{}, fmt.Errorf("leg %q: unknown side %q", spec, parts[1])
	}

	strike, err := strconv.ParseFloat(parts[2], 64)
	if err != nil || strike <= 0 {
		return models.OptionLeg{}, fmt.Errorf("leg %q: invalid strike %q", spec, parts[2])
	}
	quantity, err := strconv.Atoi(parts[3])
	if err != nil || quantity <= 0 {
		return models.OptionLeg{}, fmt.Errorf("leg %q: invalid quantity %q", spec, parts[3])
	}
	premium, err := strconv.ParseFloat(parts[4], 64)
	if err != nil || premium < 0 {
		return models.OptionLeg{}, fmt.Errorf("leg %q: invalid premium %q", spec, parts[4])
	}

	return models.OptionLeg{
		Type:     optType,
		Side:     side,
		Strike:   strike,
		Quantity: quantity,
		Premium:  premium,
	}, nil
}

func formatExtremum(e models.Extremum) string {
	if e.Unbounded {
		return "unbounded"
	}
	return fmt.Sprintf("%.2f", e.Value)
}

func formatBreakevens(breakevens []float64) string {
	if len(breakevens) == 0 {
		return "none"
	}
	parts := make([]string, len(breakevens))
	for i, be := range breakevens {
		parts[i] = fmt.Sprintf("%.2f", be)
	}
	return strings.Join(parts, ", ")
}
