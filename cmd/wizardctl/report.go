package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"

	"stockwizard/internal/domain"
	"stockwizard/internal/view"
)

type reportCmd struct {
	email string
	sort  string
	raw   bool
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "print a user's wealth overview" }
func (*reportCmd) Usage() string {
	return `wizardctl report -user <email> [-sort value-desc] [-raw]

  Prints the portfolio metrics and the asset table.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.email, "user", "", "email of the account")
	f.StringVar(&c.sort, "sort", "value-desc", "asset order: <name|value|profit>-<asc|desc>")
	f.BoolVar(&c.raw, "raw", false, "print markdown without terminal styling")
}

func (c *reportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	order, err := domain.ParseSortOrder(c.sort)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	e, err := openEnv(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer e.Close()

	u, err := e.user(ctx, c.email)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	assets, err := e.portfolio.List(ctx, u.UID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	now := time.Now()
	md := reportMarkdown(u, view.Portfolio(assets, order, u.Preferences.Currency, now), now)
	if c.raw {
		fmt.Print(md)
		return subcommands.ExitSuccess
	}
	printMarkdown(md)
	return subcommands.ExitSuccess
}

func printMarkdown(md string) {
	out, err := glamour.Render(md, "dark")
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}

// reportMarkdown renders a portfolio view as a markdown document
func reportMarkdown(u *domain.UserProfile, v view.PortfolioView, now time.Time) string {
	var b strings.Builder

	name := u.DisplayName
	if name == "" {
		name = u.Email
	}
	fmt.Fprintf(&b, "# Wealth overview: %s\n\n", name)
	fmt.Fprintf(&b, "_Generated %s_\n\n", now.Format("2006-01-02 15:04"))

	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Total value | %s |\n", v.Display.TotalValue)
	fmt.Fprintf(&b, "| Total cost | %s |\n", v.Display.TotalCost)
	fmt.Fprintf(&b, "| Total gains | %s (%s) |\n", v.Display.TotalGains, v.Display.TotalPercentage)
	fmt.Fprintf(&b, "| Average return | %s |\n", v.Display.AvgReturn)
	fmt.Fprintf(&b, "| Assets | %d |\n", v.Metrics.AssetCount)
	fmt.Fprintf(&b, "| Risk level | %s |\n", v.Metrics.RiskLevel)
	if v.Metrics.BestPerformer != nil {
		fmt.Fprintf(&b, "| Best performer | %s |\n", *v.Metrics.BestPerformer)
	}
	if v.HoldingPeriod != "" {
		fmt.Fprintf(&b, "| Avg holding period | %s |\n", v.HoldingPeriod)
	}
	b.WriteString("\n")

	if v.Empty {
		b.WriteString("No assets yet.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "## Assets (%s)\n\n", v.Sort)
	b.WriteString("| Name | Symbol | Quantity | Value | Profit | Allocation | Purchased |\n")
	b.WriteString("|---|---|---:|---:|---:|---:|---|\n")
	for _, r := range v.Rows {
		fmt.Fprintf(&b, "| %s | %s | %g | %s | %s (%s) | %.1f%% | %s |\n",
			r.Name, r.Symbol, r.Quantity, r.Display.Value,
			r.Display.Profit, r.Display.ProfitPercent, r.Allocation, r.Display.PurchaseDate)
	}
	return b.String()
}
