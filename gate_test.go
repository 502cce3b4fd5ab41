package folio

import (
	"reflect"
	"strings"
	"testing"
)

func scores(symbol, side, quantity, price float64) *ExtractionConfidence {
	return &ExtractionConfidence{Fields: map[string]float64{
		"symbol": symbol, "side": side, "quantity": quantity, "price": price,
	}}
}

func TestGate_Admit(t *testing.T) {
	var gate GatePolicy // zero policy uses the defaults

	testCases := []struct {
		name         string
		conf         *ExtractionConfidence
		wantAccepted bool
		wantReason   string // substring of one of the reasons
	}{
		{
			name:         "all fields confident",
			conf:         scores(0.99, 0.98, 0.95, 0.97),
			wantAccepted: true,
		},
		{
			name:         "exactly at both thresholds",
			conf:         scores(0.90, 0.90, 0.90, 0.90),
			wantAccepted: true,
		},
		{
			name:       "one field below the field threshold",
			conf:       scores(0.99, 0.99, 0.80, 0.99),
			wantReason: "quantity",
		},
		{
			name:       "all fields pass but the mean fails",
			conf:       scores(0.86, 0.86, 0.86, 0.99),
			wantReason: "mean confidence",
		},
		{
			name:       "missing score defers regardless of the others",
			conf:       &ExtractionConfidence{Fields: map[string]float64{"symbol": 0.99, "side": 0.99, "quantity": 0.99}},
			wantReason: "price: no confidence score",
		},
		{
			name:       "no confidence payload at all",
			conf:       nil,
			wantReason: "no confidence scores",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			adm := gate.Admit(tc.conf)
			if adm.Accepted != tc.wantAccepted {
				t.Fatalf("Admit() accepted = %v, reasons %v", adm.Accepted, adm.Reasons)
			}
			if tc.wantAccepted {
				return
			}
			found := false
			for _, reason := range adm.Reasons {
				if strings.Contains(reason, tc.wantReason) {
					found = true
				}
			}
			if !found {
				t.Errorf("Admit() reasons = %v, want one containing %q", adm.Reasons, tc.wantReason)
			}
		})
	}
}

func TestGate_Deterministic(t *testing.T) {
	var gate GatePolicy
	conf := scores(0.80, 0.99, 0.70, 0.99)

	first := gate.Admit(conf)
	for i := 0; i < 10; i++ {
		if got := gate.Admit(conf); !reflect.DeepEqual(got, first) {
			t.Fatalf("Admit() = %v, want %v", got, first)
		}
	}
}

func TestGate_CustomThresholds(t *testing.T) {
	gate := GatePolicy{FieldThreshold: 0.5, MeanThreshold: 0.6}
	if adm := gate.Admit(scores(0.6, 0.6, 0.6, 0.6)); !adm.Accepted {
		t.Errorf("Admit() with relaxed thresholds deferred: %v", adm.Reasons)
	}
	if adm := gate.Admit(scores(0.4, 0.9, 0.9, 0.9)); adm.Accepted {
		t.Error("Admit() accepted a field below the custom threshold")
	}
}
