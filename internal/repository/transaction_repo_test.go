package repository

import "testing"

func TestStatusUpdateLeavesInputUntouched(t *testing.T) {
	in := map[string]interface{}{"fail_reason": "insufficient balance"}

	set := statusUpdate("Failed", in)

	if set["status"] != "Failed" || set["fail_reason"] != "insufficient balance" {
		t.Errorf("column set = %v", set)
	}
	if _, ok := in["status"]; ok {
		t.Error("caller's map gained a status key")
	}
	if len(in) != 1 {
		t.Errorf("caller's map mutated: %v", in)
	}
}

func TestStatusUpdateNilInput(t *testing.T) {
	set := statusUpdate("Processing", nil)
	if len(set) != 1 || set["status"] != "Processing" {
		t.Errorf("column set = %v", set)
	}
}
