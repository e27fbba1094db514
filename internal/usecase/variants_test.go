package usecase

import (
	"reflect"
	"testing"
)

func TestNameVariants(t *testing.T) {
	tests := []struct {
		name   string
		phrase string
		want   []string
	}{
		{"ies plural", "berries", []string{"berry", "berri", "berres"}},
		{"ies chilies", "chilies", []string{"chily", "chili", "chiles"}},
		{"es plural", "potatoes", []string{"potato", "potatoe"}},
		{"es guards olive", "olives", []string{"oliv", "olive"}},
		{"plain s plural", "onions", []string{"onion"}},
		{"consonant y", "cherry", []string{"cherries", "cherrys"}},
		{"ends in o", "tomato", []string{"tomatoes", "tomatos"}},
		{"ends in i", "chili", []string{"chilies", "chilis"}},
		{"plain singular", "garlic", []string{"garlics"}},
		{"multi-word last word plural", "red onions", []string{"red onion"}},
		{"multi-word es", "cherry tomatoes", []string{"cherry tomato", "cherry tomatoe"}},
		{"case and spacing", "  Red   ONIONS ", []string{"red onion"}},
		{"empty", "   ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nameVariants(tt.phrase)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("nameVariants(%q) = %v, want %v", tt.phrase, got, tt.want)
			}
		})
	}
}

func TestAliasVariants(t *testing.T) {
	tests := []struct {
		phrase string
		want   []string
	}{
		{"scallion", []string{"scallions"}},
		{"scallions", []string{"scallionss", "scallion"}},
		{"green onions", []string{"green onionss", "green onion"}},
		{"green onion", []string{"green onions"}},
	}

	for _, tt := range tests {
		t.Run(tt.phrase, func(t *testing.T) {
			got := aliasVariants(tt.phrase)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("aliasVariants(%q) = %v, want %v", tt.phrase, got, tt.want)
			}
		})
	}
}

func TestNameVariantsNeverContainPhrase(t *testing.T) {
	for _, phrase := range []string{"s", "es", "ies", "peas", "red onions", "kiwi"} {
		for _, v := range nameVariants(phrase) {
			if v == phrase {
				t.Errorf("nameVariants(%q) contains the phrase itself", phrase)
			}
			if v == "" {
				t.Errorf("nameVariants(%q) contains an empty variant", phrase)
			}
		}
	}
}
