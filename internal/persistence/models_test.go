package persistence

import "testing"

func TestSessionFilter_Matches(t *testing.T) {
	session := Session{ID: "s1", OwnerUserID: "op-a"}

	cases := []struct {
		name   string
		filter SessionFilter
		want   bool
	}{
		{"owner matches", SessionFilter{OwnerUserID: "op-a"}, true},
		{"other owner", SessionFilter{OwnerUserID: "op-b"}, false},
		{"empty owner matches nothing", SessionFilter{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.filter.Matches(session); got != tc.want {
				t.Errorf("Matches = %v, want %v", got, tc.want)
			}
		})
	}
}
