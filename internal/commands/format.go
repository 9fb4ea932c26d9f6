package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tbrandt/grouppot/internal/db"
	"github.com/tbrandt/grouppot/internal/settle"
)

func formatStatus(session *db.Session, players []db.Player) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\n", session.Name)
	if len(players) == 0 {
		b.WriteString("No players yet.")
		return b.String()
	}

	var pot, entered float64
	missing := 0
	for _, p := range players {
		var total float64
		for _, amount := range p.BuyIns {
			total += amount
		}
		pot += total
		if p.EndAmount != nil {
			entered += *p.EndAmount
			fmt.Fprintf(&b, "%s: in %.2f (%d buy-ins), end %.2f\n", p.Name, total, len(p.BuyIns), *p.EndAmount)
		} else {
			missing++
			fmt.Fprintf(&b, "%s: in %.2f (%d buy-ins), end not recorded\n", p.Name, total, len(p.BuyIns))
		}
	}
	fmt.Fprintf(&b, "Pot: %.2f, entered: %.2f", pot, entered)
	if missing > 0 {
		fmt.Fprintf(&b, " (%d end amounts missing)", missing)
	}
	return b.String()
}

func formatSettlement(result *settle.Result) string {
	names := make([]string, 0, len(result.Balances))
	for name := range result.Balances {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Balances:\n")
	for _, name := range names {
		fmt.Fprintf(&b, "%s: %+.2f\n", name, result.Balances[name])
	}
	if len(result.Transfers) == 0 {
		b.WriteString("No transfers needed.\n")
	} else {
		b.WriteString("Transfers:\n")
		for _, t := range result.Transfers {
			fmt.Fprintf(&b, "%s pays %s %.2f\n", t.From, t.To, t.Amount)
		}
	}
	fmt.Fprintf(&b, "Accountant collects %.2f in fees.", result.FeeTotal)
	return b.String()
}
