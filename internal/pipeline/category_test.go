package pipeline

import (
	"encoding/json"
	"testing"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		name    string
		want    Category
		wantErr bool
	}{
		{"life", Life, false},
		{"head", Head, false},
		{"heart", Heart, false},
		{"fate", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseCategory(tt.name)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseCategory(%q): expected error", tt.name)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseCategory(%q): %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseCategory(%q): got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCategoryStringRoundTrip(t *testing.T) {
	for _, category := range Categories() {
		parsed, err := ParseCategory(category.String())
		if err != nil {
			t.Fatalf("ParseCategory(%q): %v", category.String(), err)
		}
		if parsed != category {
			t.Errorf("round trip: got %v, want %v", parsed, category)
		}
	}
}

func TestCategoryJSON(t *testing.T) {
	encoded, err := json.Marshal(Heart)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(encoded) != `"heart"` {
		t.Errorf("Marshal: got %s, want \"heart\"", encoded)
	}

	var decoded Category
	if err := json.Unmarshal([]byte(`"head"`), &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded != Head {
		t.Errorf("Unmarshal: got %v, want Head", decoded)
	}

	if err := json.Unmarshal([]byte(`"fate"`), &decoded); err == nil {
		t.Error("Unmarshal of unknown category should fail")
	}

	keyed, err := json.Marshal(map[Category]int{Life: 1, Heart: 3})
	if err != nil {
		t.Fatalf("Marshal map: %v", err)
	}
	if string(keyed) != `{"heart":3,"life":1}` {
		t.Errorf("Marshal map: got %s", keyed)
	}
}

func TestCategoryColorsDistinct(t *testing.T) {
	seen := map[[3]uint8]Category{}
	for _, category := range Categories() {
		c := category.Color()
		key := [3]uint8{c.R, c.G, c.B}
		if prev, ok := seen[key]; ok {
			t.Errorf("%v and %v share display color %v", prev, category, key)
		}
		seen[key] = category
	}
}

func TestZonePoliciesCoverAllCategories(t *testing.T) {
	for _, category := range Categories() {
		policy, ok := zonePolicies[category]
		if !ok {
			t.Fatalf("no zone policy for %v", category)
		}
		if policy.vertices == nil {
			t.Errorf("%v: missing vertices rule", category)
		}
		if policy.closeDivisor == nil {
			t.Errorf("%v: missing close divisor rule", category)
		}
	}

	opts := DefaultOptions()
	if got := zonePolicies[Heart].closeDivisor(opts); got != opts.CloseDivisorWide {
		t.Errorf("heart close divisor: got %d, want %d", got, opts.CloseDivisorWide)
	}
	if got := zonePolicies[Life].closeDivisor(opts); got != opts.CloseDivisorTight {
		t.Errorf("life close divisor: got %d, want %d", got, opts.CloseDivisorTight)
	}
}

func TestOddAtLeast(t *testing.T) {
	tests := []struct {
		size, floor, want int
	}{
		{14, 11, 15}, // even scales up to odd
		{15, 11, 15}, // odd stays
		{3, 11, 11},  // below floor
		{0, 5, 5},
		{120, 3, 121},
	}

	for _, tt := range tests {
		if got := oddAtLeast(tt.size, tt.floor); got != tt.want {
			t.Errorf("oddAtLeast(%d, %d): got %d, want %d", tt.size, tt.floor, got, tt.want)
		}
	}
}
