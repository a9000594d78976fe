package models

import (
	"reflect"
	"testing"
)

func TestStringArrayScan(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  StringArray
	}{
		{"nil", nil, StringArray{}},
		{"empty", "", StringArray{}},
		{"sql null literal", "null", StringArray{}},
		{"json array", `["import","vip"]`, StringArray{"import", "vip"}},
		{"json array bytes", []byte(`["import"]`), StringArray{"import"}},
		{"legacy bare json string", `"import"`, StringArray{"import"}},
		{"legacy raw string", "import", StringArray{"import"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a StringArray
			if err := a.Scan(tt.value); err != nil {
				t.Fatalf("Scan(%v): %v", tt.value, err)
			}
			if !reflect.DeepEqual(a, tt.want) {
				t.Errorf("Scan(%v) = %v, want %v", tt.value, a, tt.want)
			}
		})
	}
}

func TestStringArrayValue(t *testing.T) {
	var nilArr StringArray
	v, err := nilArr.Value()
	if err != nil || v != "[]" {
		t.Errorf("nil Value() = %v, %v, want \"[]\"", v, err)
	}

	v, err = StringArray{"import"}.Value()
	if err != nil || v != `["import"]` {
		t.Errorf("Value() = %v, %v", v, err)
	}
}

func TestStringArrayContains(t *testing.T) {
	a := StringArray{"import", "vip"}
	if !a.Contains("import") || a.Contains("autre") {
		t.Error("Contains gave the wrong answer")
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		sub  SubscriberModel
		want string
	}{
		{"full name", SubscriberModel{FirstName: "Anne", LastName: "Aubert", Email: "a@x.fr"}, "Anne Aubert"},
		{"first only", SubscriberModel{FirstName: "Anne", Email: "a@x.fr"}, "Anne"},
		{"last only", SubscriberModel{LastName: "Aubert", Email: "a@x.fr"}, "Aubert"},
		{"email fallback", SubscriberModel{Email: "a@x.fr"}, "a@x.fr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sub.DisplayName(); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSubscriberStatusValid(t *testing.T) {
	for _, s := range []SubscriberStatus{SubscriberActive, SubscriberUnsubscribed, SubscriberBounced} {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	if SubscriberStatus("bidon").Valid() {
		t.Error("unknown status should be invalid")
	}
}
