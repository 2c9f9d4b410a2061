//go:build !integration

package model

import "testing"

func TestKnownAction(t *testing.T) {
	for _, data := range []string{MenuCallback(), CoursesCallback(), CourseCallback("x"), ApproveCallback(1, "x")} {
		cb, err := ParseCallback(data)
		if err != nil {
			t.Fatalf("%q: expected no error, got %v", data, err)
		}
		if !KnownAction(cb.Action) {
			t.Errorf("expected %q to be known", cb.Action)
		}
	}
	for _, a := range []string{"", "Menu", "x9f3k2", "approve:1"} {
		if KnownAction(a) {
			t.Errorf("expected %q to be unknown", a)
		}
	}
}
