package models

import "testing"

func TestRewardSeeds(t *testing.T) {
	tests := []struct {
		name        string
		amount      int64
		basisPoints int64
		want        int64
	}{
		{"one percent", 10000, 100, 100},
		{"two percent", 10000, 200, 200},
		{"floors partial seeds", 999, 100, 9},
		{"below one seed", 10, 100, 0},
		{"zero amount", 0, 100, 0},
		{"negative amount", -500, 100, 0},
		{"zero rate", 10000, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RewardSeeds(tt.amount, tt.basisPoints); got != tt.want {
				t.Errorf("RewardSeeds(%d, %d) = %d, want %d", tt.amount, tt.basisPoints, got, tt.want)
			}
		})
	}
}

func TestMerchantCategoryValid(t *testing.T) {
	for _, cat := range AllMerchantCategories {
		if !cat.Valid() {
			t.Errorf("category %s should be valid", cat)
		}
	}
	if MerchantCategory("PET_GROOMING").Valid() {
		t.Error("unknown category reported valid")
	}
}

func TestDefaultRewardRatesIsACopy(t *testing.T) {
	a := DefaultRewardRates()
	a[CategoryEcoFood] = 9999
	b := DefaultRewardRates()
	if b[CategoryEcoFood] == 9999 {
		t.Error("DefaultRewardRates shares state between calls")
	}
}
