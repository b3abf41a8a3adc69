package hardware

import (
	"testing"

	"olfactometer-go/pkg/errors"
)

func iptr(v int) *int { return &v }

func TestResolveSingleManifold(t *testing.T) {
	m, err := Resolve(RawPins{
		AvailableValvePins: []int{2, 3, 4},
		BalancePin:         iptr(5),
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if !m.Single {
		t.Error("expected single-manifold topology")
	}
	if len(m.AvailablePins) != 3 {
		t.Errorf("expected 3 available pins, got %v", m.AvailablePins)
	}
	for _, p := range []int{2, 3, 4} {
		if m.PinsToBalances[p] != 5 {
			t.Errorf("pin %d should balance against 5, got %d", p, m.PinsToBalances[p])
		}
	}
}

func TestResolveSingleManifoldNoBalance(t *testing.T) {
	m, err := Resolve(RawPins{AvailableValvePins: []int{2, 3}})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(m.PinsToBalances) != 0 {
		t.Errorf("expected empty balance map, got %v", m.PinsToBalances)
	}
}

func TestResolveTwoManifolds(t *testing.T) {
	m, err := Resolve(RawPins{
		AvailableGroup1ValvePins: []int{10, 11},
		AvailableGroup2ValvePins: []int{20, 21},
		Group1BalancePin:         iptr(7),
		Group2BalancePin:         iptr(8),
		CO2Pin:                   iptr(5),
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if m.Single {
		t.Error("expected two-manifold topology")
	}
	want := []int{10, 11, 20, 21}
	if len(m.AvailablePins) != len(want) {
		t.Fatalf("expected combined pool %v, got %v", want, m.AvailablePins)
	}
	for i, p := range want {
		if m.AvailablePins[i] != p {
			t.Errorf("combined pool[%d] = %d, want %d", i, m.AvailablePins[i], p)
		}
	}
	if m.PinsToBalances[10] != 7 || m.PinsToBalances[21] != 8 {
		t.Errorf("unexpected balance map: %v", m.PinsToBalances)
	}
	if m.CO2Pin == nil || *m.CO2Pin != 5 {
		t.Errorf("co2 pin not carried through: %v", m.CO2Pin)
	}
}

func TestResolveMixedKeysRejected(t *testing.T) {
	_, err := Resolve(RawPins{
		AvailableValvePins:       []int{2},
		AvailableGroup1ValvePins: []int{10},
	})
	if !errors.HasCode(err, errors.ErrUnsupportedManifold) {
		t.Fatalf("expected UNSUPPORTED_MANIFOLD, got %v", err)
	}
}

func TestResolveMissingKeys(t *testing.T) {
	if _, err := Resolve(RawPins{}); !errors.HasCode(err, errors.ErrConfigMissing) {
		t.Fatalf("expected CONFIG_MISSING for empty raw pins, got %v", err)
	}

	_, err := Resolve(RawPins{
		AvailableGroup1ValvePins: []int{10},
		AvailableGroup2ValvePins: []int{20},
		Group1BalancePin:         iptr(7),
	})
	if !errors.HasCode(err, errors.ErrConfigMissing) {
		t.Fatalf("expected CONFIG_MISSING for absent group2_balance_pin, got %v", err)
	}
}

func TestResolvePinConflicts(t *testing.T) {
	cases := []struct {
		name string
		raw  RawPins
	}{
		{
			name: "duplicate within pool",
			raw:  RawPins{AvailableValvePins: []int{2, 2, 3}},
		},
		{
			name: "balance inside pool",
			raw:  RawPins{AvailableValvePins: []int{2, 3}, BalancePin: iptr(3)},
		},
		{
			name: "co2 pin inside pool",
			raw:  RawPins{AvailableValvePins: []int{2, 3}, CO2Pin: iptr(2)},
		},
		{
			name: "shared balance across groups",
			raw: RawPins{
				AvailableGroup1ValvePins: []int{10},
				AvailableGroup2ValvePins: []int{20},
				Group1BalancePin:         iptr(7),
				Group2BalancePin:         iptr(7),
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Resolve(tc.raw); !errors.HasCode(err, errors.ErrPinConflict) {
				t.Fatalf("expected PIN_CONFLICT, got %v", err)
			}
		})
	}
}

func TestResolveNegativePin(t *testing.T) {
	_, err := Resolve(RawPins{AvailableValvePins: []int{2, -1}})
	if !errors.HasCode(err, errors.ErrConfigValue) {
		t.Fatalf("expected CONFIG_VALUE, got %v", err)
	}
}
