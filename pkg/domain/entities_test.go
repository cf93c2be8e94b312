package domain

import "testing"

func TestItemTotal(t *testing.T) {
	item := Item{Price: 12.5, Quantity: 3}
	if got, want := item.Total(), 37.5; got != want {
		t.Fatalf("total = %v, want %v", got, want)
	}
}

func TestSessionTaxed(t *testing.T) {
	cases := []struct {
		name    string
		session Session
		amount  float64
		want    float64
	}{
		{"no adjustments", Session{}, 100, 100},
		{"tax and service", Session{Tax: 14, Service: 10}, 100, 125.4},
		{"discount only", Session{Discount: 25}, 80, 60},
		{"all three", Session{Tax: 10, Service: 5, Discount: 10}, 200, 211},
		{"rounds to cents", Session{Tax: 14}, 9.99, 11.39},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.session.Taxed(tc.amount); got != tc.want {
				t.Fatalf("taxed(%v) = %v, want %v", tc.amount, got, tc.want)
			}
		})
	}
}
