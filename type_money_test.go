package folio

import "testing"

func TestMoney_WeakCurrency(t *testing.T) {
	// The "" currency is weak: zero values combine with any currency.
	var zero Money
	sum := zero.Add(USD(10))
	if sum.Currency() != "USD" || !sum.Equal(USD(10)) {
		t.Errorf("zero.Add($10) = %s %s", sum, sum.Currency())
	}

	defer func() {
		if recover() == nil {
			t.Error("adding USD to EUR did not panic")
		}
	}()
	USD(1).Add(M(1, "EUR"))
}

func TestMoney_SignedString(t *testing.T) {
	testCases := []struct {
		in   Money
		want string
	}{
		{USD(76), "+$76.00"},
		{USD(-300), "-$300.00"},
		{USD(0), "-"},
	}
	for _, tc := range testCases {
		if got := tc.in.SignedString(); got != tc.want {
			t.Errorf("SignedString(%s) = %q, want %q", tc.in.Decimal(), got, tc.want)
		}
	}
}

func TestParseMoney_Exact(t *testing.T) {
	m, err := ParseMoney("64000.50", "USD")
	if err != nil {
		t.Fatal(err)
	}
	if m.Decimal().String() != "64000.5" {
		t.Errorf("Decimal() = %s", m.Decimal())
	}
	if _, err := ParseMoney("12,5", "USD"); err == nil {
		t.Error("ParseMoney(12,5) = nil, want error")
	}
}
