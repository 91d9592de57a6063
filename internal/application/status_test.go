package application

import "testing"

var allActions = []Action{ActionShortList, ActionContact, ActionArchive}

func TestToggleFromPending(t *testing.T) {
	tests := []struct {
		action     Action
		wantStatus Status
		wantNotice string
	}{
		{ActionShortList, StatusShortListed, "Application short listed"},
		{ActionContact, StatusContacted, "Application moved to contacted list"},
		{ActionArchive, StatusArchived, "Application archived"},
	}
	for _, tt := range tests {
		got, notice := Toggle(StatusPending, tt.action)
		if got != tt.wantStatus {
			t.Errorf("Toggle(Pending, %d) status = %s, want %s", tt.action, got, tt.wantStatus)
		}
		if notice != tt.wantNotice {
			t.Errorf("Toggle(Pending, %d) notice = %q, want %q", tt.action, notice, tt.wantNotice)
		}
	}
}

func TestToggleTwiceReturnsToPending(t *testing.T) {
	for _, a := range allActions {
		once, _ := Toggle(StatusPending, a)
		twice, notice := Toggle(once, a)
		if twice != StatusPending {
			t.Errorf("action %d applied twice = %s, want Pending", a, twice)
		}
		if notice != "" {
			t.Errorf("action %d undo produced notice %q", a, notice)
		}
	}
}

func TestToggleDifferentActionResetsToPending(t *testing.T) {
	for _, first := range allActions {
		for _, second := range allActions {
			if first == second {
				continue
			}
			current, _ := Toggle(StatusPending, first)
			got, _ := Toggle(current, second)
			if got != StatusPending {
				t.Errorf("from %s action %d = %s, want Pending", current, second, got)
			}
		}
	}
}

func TestStatusValid(t *testing.T) {
	for s := StatusPending; s <= StatusArchived; s++ {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if Status(4).Valid() || Status(-1).Valid() {
		t.Error("out of range status reported valid")
	}
	if Status(9).String() != "Status(9)" {
		t.Errorf("unexpected string %q", Status(9).String())
	}
}
