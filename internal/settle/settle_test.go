package settle

import (
	"math"
	"reflect"
	"testing"
)

func amount(v float64) *float64 {
	return &v
}

func twoPlayerSnapshot() Snapshot {
	return Snapshot{
		Players: []Player{
			{ID: "p1", Name: "Alice", BuyIns: []float64{100}, EndAmount: amount(150)},
			{ID: "p2", Name: "Bob", BuyIns: []float64{100}, EndAmount: amount(50)},
		},
		AccountantID: "p1",
		FeePerPlayer: DefaultFeePerPlayer,
	}
}

func TestComputeValidationOrder(t *testing.T) {
	tests := []struct {
		name     string
		snapshot Snapshot
		wantKind ErrorKind
	}{
		{
			name:     "no accountant wins over no players",
			snapshot: Snapshot{},
			wantKind: ErrMissingAccountant,
		},
		{
			name:     "no players",
			snapshot: Snapshot{AccountantID: "p1"},
			wantKind: ErrNoPlayers,
		},
		{
			name: "missing end amount",
			snapshot: Snapshot{
				AccountantID: "p1",
				Players: []Player{
					{ID: "p1", Name: "Alice", BuyIns: []float64{100}, EndAmount: amount(100)},
					{ID: "p2", Name: "Bob", BuyIns: []float64{100}},
				},
			},
			wantKind: ErrIncompleteEndAmounts,
		},
		{
			name: "pot mismatch",
			snapshot: Snapshot{
				AccountantID: "p1",
				Players: []Player{
					{ID: "p1", Name: "Alice", BuyIns: []float64{100}, EndAmount: amount(100)},
					{ID: "p2", Name: "Bob", BuyIns: []float64{100}, EndAmount: amount(90)},
				},
			},
			wantKind: ErrPotMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Compute(tt.snapshot)
			if res != nil {
				t.Errorf("expected no result, got %+v", res)
			}
			verr, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("expected *ValidationError, got %T (%v)", err, err)
			}
			if verr.Kind != tt.wantKind {
				t.Errorf("expected kind %q, got %q", tt.wantKind, verr.Kind)
			}
		})
	}
}

func TestComputeIncompleteEndAmountsNamesPlayers(t *testing.T) {
	s := Snapshot{
		AccountantID: "p1",
		Players: []Player{
			{ID: "p1", Name: "Alice", BuyIns: []float64{100}, EndAmount: amount(100)},
			{ID: "p2", Name: "Bob", BuyIns: []float64{50}},
			{ID: "p3", Name: "Carol", BuyIns: []float64{50}},
		},
	}

	_, err := Compute(s)
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	want := []string{"Bob", "Carol"}
	if !reflect.DeepEqual(verr.MissingPlayers, want) {
		t.Errorf("expected missing players %v, got %v", want, verr.MissingPlayers)
	}
}

func TestComputePotMismatchDetails(t *testing.T) {
	// Buy-ins sum to 200, end amounts to 190.
	s := Snapshot{
		AccountantID: "p1",
		Players: []Player{
			{ID: "p1", Name: "Alice", BuyIns: []float64{100}, EndAmount: amount(120)},
			{ID: "p2", Name: "Bob", BuyIns: []float64{100}, EndAmount: amount(70)},
		},
	}

	_, err := Compute(s)
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if verr.Kind != ErrPotMismatch {
		t.Fatalf("expected pot mismatch, got %q", verr.Kind)
	}
	if verr.TotalPot != 200 || verr.TotalEntered != 190 || verr.Difference != 10 {
		t.Errorf("expected pot=200 entered=190 diff=10, got pot=%v entered=%v diff=%v",
			verr.TotalPot, verr.TotalEntered, verr.Difference)
	}
}

// The per-player fee is deducted from every balance but credited to nobody,
// so the biggest loser can be left with residual debt and no transfer
// destination. The fee only surfaces in FeeTotal.
func TestComputeFeeLeavesResidualDebt(t *testing.T) {
	res, err := Compute(twoPlayerSnapshot())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantBalances := map[string]float64{"Alice": 45, "Bob": -55}
	if !reflect.DeepEqual(res.Balances, wantBalances) {
		t.Errorf("expected balances %v, got %v", wantBalances, res.Balances)
	}
	wantTransfers := []Transfer{{From: "Bob", To: "Alice", Amount: 45}}
	if !reflect.DeepEqual(res.Transfers, wantTransfers) {
		t.Errorf("expected transfers %v, got %v", wantTransfers, res.Transfers)
	}
	if res.FeeTotal != 10 {
		t.Errorf("expected fee total 10, got %v", res.FeeTotal)
	}

	// Bob's remaining 10 is exactly the unmatched fee debt.
	var paid float64
	for _, tr := range res.Transfers {
		if tr.From == "Bob" {
			paid += tr.Amount
		}
	}
	if got := res.Balances["Bob"] + paid; math.Abs(got+10) > 0.01 {
		t.Errorf("expected Bob to be left owing 10, got %v", -got)
	}
}

func cateringSnapshot(policy HostPolicy, hostID string, fee float64) Snapshot {
	return Snapshot{
		Players: []Player{
			{ID: "p1", Name: "Alice", BuyIns: []float64{100}, EndAmount: amount(150)},
			{ID: "p2", Name: "Bob", BuyIns: []float64{100}, EndAmount: amount(100)},
			{ID: "p3", Name: "Carol", BuyIns: []float64{100}, EndAmount: amount(50)},
		},
		CateringAmount: 30,
		HostPolicy:     policy,
		HostID:         hostID,
		AccountantID:   "p1",
		FeePerPlayer:   fee,
	}
}

func TestComputeCatering(t *testing.T) {
	tests := []struct {
		name          string
		snapshot      Snapshot
		wantBalances  map[string]float64
		wantTransfers []Transfer
	}{
		{
			// Every player is charged 10, host gets the full 30 back.
			name:         "host pays equal share",
			snapshot:     cateringSnapshot(HostPaysEqualShare, "p1", 0),
			wantBalances: map[string]float64{"Alice": 70, "Bob": -10, "Carol": -60},
			wantTransfers: []Transfer{
				{From: "Carol", To: "Alice", Amount: 60},
				{From: "Bob", To: "Alice", Amount: 10},
			},
		},
		{
			// Non-hosts split the 30, host is reimbursed in full.
			name:         "host exempt",
			snapshot:     cateringSnapshot(HostDoesNotPay, "p1", 0),
			wantBalances: map[string]float64{"Alice": 80, "Bob": -15, "Carol": -65},
			wantTransfers: []Transfer{
				{From: "Carol", To: "Alice", Amount: 65},
				{From: "Bob", To: "Alice", Amount: 15},
			},
		},
		{
			// Host settled the caterer outside the session: charge the
			// non-hosts, credit nobody.
			name:         "host already paid",
			snapshot:     cateringSnapshot(HostAlreadyPaid, "p1", 0),
			wantBalances: map[string]float64{"Alice": 50, "Bob": -15, "Carol": -65},
			wantTransfers: []Transfer{
				{From: "Carol", To: "Alice", Amount: 50},
			},
		},
		{
			// Host-exempt split with no designated host: nobody to credit,
			// so the charge is skipped too.
			name:         "host exempt without host",
			snapshot:     cateringSnapshot(HostDoesNotPay, "", 0),
			wantBalances: map[string]float64{"Alice": 50, "Bob": 0, "Carol": -50},
			wantTransfers: []Transfer{
				{From: "Carol", To: "Alice", Amount: 50},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Compute(tt.snapshot)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(res.Balances, tt.wantBalances) {
				t.Errorf("expected balances %v, got %v", tt.wantBalances, res.Balances)
			}
			if !reflect.DeepEqual(res.Transfers, tt.wantTransfers) {
				t.Errorf("expected transfers %v, got %v", tt.wantTransfers, res.Transfers)
			}
		})
	}
}

func TestComputeCateringBeforeFee(t *testing.T) {
	// Same table as the equal-share case, with the 5/player fee on top.
	res, err := Compute(cateringSnapshot(HostPaysEqualShare, "p1", DefaultFeePerPlayer))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]float64{"Alice": 65, "Bob": -15, "Carol": -65}
	if !reflect.DeepEqual(res.Balances, want) {
		t.Errorf("expected balances %v, got %v", want, res.Balances)
	}
	if res.FeeTotal != 15 {
		t.Errorf("expected fee total 15, got %v", res.FeeTotal)
	}
}

func TestComputeZeroSum(t *testing.T) {
	// With no fee, every catering policy that credits what it charges keeps
	// the balances zero-sum.
	snapshots := map[string]Snapshot{
		"plain":        {Players: twoPlayerSnapshot().Players, AccountantID: "p1"},
		"equal share":  cateringSnapshot(HostPaysEqualShare, "p1", 0),
		"host exempt":  cateringSnapshot(HostDoesNotPay, "p2", 0),
		"no host":      cateringSnapshot(HostDoesNotPay, "", 0),
		"uneven split": cateringSnapshot(HostPaysEqualShare, "p2", 0),
	}

	for name, s := range snapshots {
		t.Run(name, func(t *testing.T) {
			res, err := Compute(s)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var sum float64
			for _, b := range res.Balances {
				sum += b
			}
			if math.Abs(sum) > 0.01 {
				t.Errorf("expected balances to sum to 0, got %v", sum)
			}
		})
	}
}

func TestComputeSettlementCompleteness(t *testing.T) {
	// With no fee the transfer list must pay out every creditor and drain
	// every debtor exactly.
	s := cateringSnapshot(HostDoesNotPay, "p2", 0)
	res, err := Compute(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	received := make(map[string]float64)
	sent := make(map[string]float64)
	for _, tr := range res.Transfers {
		if tr.From == tr.To {
			t.Errorf("self transfer: %+v", tr)
		}
		if tr.Amount < 0.01 {
			t.Errorf("transfer below a cent: %+v", tr)
		}
		received[tr.To] += tr.Amount
		sent[tr.From] += tr.Amount
	}
	for name, balance := range res.Balances {
		switch {
		case balance > 0:
			if math.Abs(received[name]-balance) > 0.01 {
				t.Errorf("creditor %s has balance %v but receives %v", name, balance, received[name])
			}
		case balance < 0:
			if math.Abs(sent[name]+balance) > 0.01 {
				t.Errorf("debtor %s has balance %v but sends %v", name, balance, sent[name])
			}
		}
	}
}

func TestComputeIdempotent(t *testing.T) {
	s := cateringSnapshot(HostPaysEqualShare, "p1", DefaultFeePerPlayer)

	first, err := Compute(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Compute(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical results, got %+v and %+v", first, second)
	}
}

func TestComputeDoesNotMutateSnapshot(t *testing.T) {
	s := cateringSnapshot(HostPaysEqualShare, "p1", DefaultFeePerPlayer)
	end := *s.Players[0].EndAmount
	buyIns := append([]float64(nil), s.Players[0].BuyIns...)

	if _, err := Compute(s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if *s.Players[0].EndAmount != end {
		t.Errorf("end amount mutated: %v", *s.Players[0].EndAmount)
	}
	if !reflect.DeepEqual(s.Players[0].BuyIns, buyIns) {
		t.Errorf("buy-ins mutated: %v", s.Players[0].BuyIns)
	}
	if s.Players[0].Name != "Alice" || s.Players[1].Name != "Bob" {
		t.Errorf("player order mutated: %v, %v", s.Players[0].Name, s.Players[1].Name)
	}
}

func TestComputeRoundsCentResidue(t *testing.T) {
	// 100 split three ways leaves repeating decimals; the matcher must
	// still terminate and stay within a cent.
	s := Snapshot{
		Players: []Player{
			{ID: "p1", Name: "Alice", BuyIns: []float64{100}, EndAmount: amount(200)},
			{ID: "p2", Name: "Bob", BuyIns: []float64{100}, EndAmount: amount(50)},
			{ID: "p3", Name: "Carol", BuyIns: []float64{100}, EndAmount: amount(50)},
		},
		CateringAmount: 100,
		HostPolicy:     HostPaysEqualShare,
		HostID:         "p1",
		AccountantID:   "p1",
	}

	res, err := Compute(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var sum float64
	for _, b := range res.Balances {
		sum += b
	}
	if math.Abs(sum) > 0.01 {
		t.Errorf("expected near-zero balance sum, got %v", sum)
	}
	for _, tr := range res.Transfers {
		if tr.Amount != round2(tr.Amount) {
			t.Errorf("transfer amount not rounded to cents: %v", tr.Amount)
		}
	}
}

func TestTotalBuyIn(t *testing.T) {
	p := Player{BuyIns: []float64{50, 100, 25.5}}
	if got := p.TotalBuyIn(); got != 175.5 {
		t.Errorf("expected 175.5, got %v", got)
	}
	if got := (Player{}).TotalBuyIn(); got != 0 {
		t.Errorf("expected 0 for no buy-ins, got %v", got)
	}
}

func TestParseHostPolicy(t *testing.T) {
	tests := []struct {
		in     string
		want   HostPolicy
		wantOk bool
	}{
		{"equal_share", HostPaysEqualShare, true},
		{"host_exempt", HostDoesNotPay, true},
		{"already_paid", HostAlreadyPaid, true},
		{"", "", false},
		{"splitwise", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseHostPolicy(tt.in)
		if got != tt.want || ok != tt.wantOk {
			t.Errorf("ParseHostPolicy(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOk)
		}
	}
}
