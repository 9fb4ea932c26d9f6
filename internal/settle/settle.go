// Package settle computes final per-player balances and the pairwise
// transfers that reconcile a finished poker session. It is a pure
// computation over an immutable snapshot: no I/O, no shared state, safe to
// call from any goroutine.
package settle

import (
	"math"
	"sort"
)

// DefaultFeePerPlayer is the flat GroupPot fee each player owes the
// designated accountant.
const DefaultFeePerPlayer = 5

// HostPolicy controls how a shared catering cost is split.
type HostPolicy string

const (
	HostPaysEqualShare HostPolicy = "equal_share"
	HostDoesNotPay     HostPolicy = "host_exempt"
	HostAlreadyPaid    HostPolicy = "already_paid"
)

// ParseHostPolicy maps a stored policy code to its typed value.
func ParseHostPolicy(s string) (HostPolicy, bool) {
	switch p := HostPolicy(s); p {
	case HostPaysEqualShare, HostDoesNotPay, HostAlreadyPaid:
		return p, true
	}
	return "", false
}

type Player struct {
	ID        string
	Name      string
	BuyIns    []float64
	EndAmount *float64
}

// TotalBuyIn is always derived from the buy-in list, never stored
// separately.
func (p Player) TotalBuyIn() float64 {
	var sum float64
	for _, b := range p.BuyIns {
		sum += b
	}
	return sum
}

// Snapshot is a read-only view of a session at settlement time. Host and
// accountant are session-level player IDs resolved against Players at read
// time; a HostID that matches no player means no designated host.
type Snapshot struct {
	Players        []Player
	CateringAmount float64
	HostPolicy     HostPolicy
	HostID         string
	AccountantID   string
	FeePerPlayer   float64
}

type Transfer struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

type Result struct {
	Balances  map[string]float64 `json:"balances"`
	Transfers []Transfer         `json:"transfers"`
	FeeTotal  float64            `json:"fee_total"`
}

// Compute validates the snapshot, derives adjusted balances and matches
// creditors against debtors greedily. Validation failures come back as
// *ValidationError; the first failing check wins and nothing is computed.
//
// The per-player fee is subtracted from every balance but credited to
// nobody: the aggregate shows up only in Result.FeeTotal, so a debtor can
// end the matching loop with residual debt and no transfer destination.
// The accountant collects the fee outside the transfer graph.
func Compute(s Snapshot) (*Result, error) {
	if s.AccountantID == "" {
		return nil, &ValidationError{Kind: ErrMissingAccountant}
	}
	if len(s.Players) == 0 {
		return nil, &ValidationError{Kind: ErrNoPlayers}
	}
	var missing []string
	for _, p := range s.Players {
		if p.EndAmount == nil {
			missing = append(missing, p.Name)
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Kind: ErrIncompleteEndAmounts, MissingPlayers: missing}
	}

	var totalPot, totalEntered float64
	for _, p := range s.Players {
		totalPot += p.TotalBuyIn()
		totalEntered += *p.EndAmount
	}
	if math.Abs(totalPot-totalEntered) > 0.01 {
		return nil, &ValidationError{
			Kind:         ErrPotMismatch,
			TotalPot:     round2(totalPot),
			TotalEntered: round2(totalEntered),
			Difference:   round2(math.Abs(totalPot - totalEntered)),
		}
	}

	balances := make(map[string]float64, len(s.Players))
	for _, p := range s.Players {
		balances[p.Name] = round2(*p.EndAmount - p.TotalBuyIn())
	}

	var hostName string
	hasHost := false
	if s.HostID != "" {
		for _, p := range s.Players {
			if p.ID == s.HostID {
				hostName = p.Name
				hasHost = true
				break
			}
		}
	}

	if s.CateringAmount > 0 {
		switch s.HostPolicy {
		case HostPaysEqualShare:
			share := s.CateringAmount / float64(len(s.Players))
			for _, p := range s.Players {
				balances[p.Name] = round2(balances[p.Name] - share)
			}
			if hasHost {
				balances[hostName] = round2(balances[hostName] + s.CateringAmount)
			}
		case HostDoesNotPay:
			// No designated host means nobody to credit, so the per-player
			// charge is skipped as well.
			if hasHost {
				if nonHost := len(s.Players) - 1; nonHost > 0 {
					share := s.CateringAmount / float64(nonHost)
					for _, p := range s.Players {
						if p.ID == s.HostID {
							continue
						}
						balances[p.Name] = round2(balances[p.Name] - share)
					}
				}
				balances[hostName] = round2(balances[hostName] + s.CateringAmount)
			}
		case HostAlreadyPaid:
			var nonHost []string
			for _, p := range s.Players {
				if hasHost && p.ID == s.HostID {
					continue
				}
				nonHost = append(nonHost, p.Name)
			}
			// Host settled the caterer externally, so no credit here.
			if len(nonHost) > 0 {
				share := s.CateringAmount / float64(len(nonHost))
				for _, name := range nonHost {
					balances[name] = round2(balances[name] - share)
				}
			}
		}
	}

	for _, p := range s.Players {
		balances[p.Name] = round2(balances[p.Name] - s.FeePerPlayer)
	}

	type party struct {
		name   string
		amount float64
	}
	var creditors, debtors []party
	for _, p := range s.Players {
		switch b := balances[p.Name]; {
		case b > 0:
			creditors = append(creditors, party{p.Name, b})
		case b < 0:
			debtors = append(debtors, party{p.Name, b})
		}
	}
	// Stable sorts keep snapshot player order on ties so output is
	// deterministic.
	sort.SliceStable(creditors, func(i, j int) bool { return creditors[i].amount > creditors[j].amount })
	sort.SliceStable(debtors, func(i, j int) bool { return debtors[i].amount < debtors[j].amount })

	transfers := []Transfer{}
	i, j := 0, 0
	for i < len(creditors) && j < len(debtors) {
		c := creditors[i]
		d := debtors[j]
		amount := round2(math.Min(c.amount, -d.amount))
		if amount >= 0.01 {
			transfers = append(transfers, Transfer{From: d.name, To: c.name, Amount: amount})
		}
		c.amount = round2(c.amount - amount)
		d.amount = round2(d.amount + amount)
		// Anything below a cent counts as settled; insisting on exact zero
		// would let floating-point residue block termination.
		if c.amount < 0.01 {
			i++
		} else {
			creditors[i] = c
		}
		if -d.amount < 0.01 {
			j++
		} else {
			debtors[j] = d
		}
	}

	return &Result{
		Balances:  balances,
		Transfers: transfers,
		FeeTotal:  float64(len(s.Players)) * s.FeePerPlayer,
	}, nil
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
