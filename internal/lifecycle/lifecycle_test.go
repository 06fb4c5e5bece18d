package lifecycle

import "testing"

func TestApply(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		ev      Event
		to      Status
		changed bool
		notify  bool
		enroll  bool
	}{
		{"created defaults to new", "", Created(""), New, true, false, false},
		{"created keeps explicit status", "", Created("qualified"), Qualified, true, false, false},
		{"interested qualifies new", New, VoiceCall("interested"), Qualified, true, true, false},
		{"interested qualifies contacted", Contacted, VoiceCall(" Interested "), Qualified, true, true, false},
		{"interested keeps qualified", Qualified, VoiceCall("interested"), Qualified, false, false, false},
		{"interested never demotes enrolled", Enrolled, VoiceCall("interested"), Enrolled, false, false, false},
		{"other intent contacts", New, VoiceCall("callback_later"), Contacted, true, false, false},
		{"empty intent contacts", Qualified, VoiceCall(""), Contacted, true, false, false},
		{"opt out intent", Qualified, VoiceCall("do_not_call"), OptOut, true, false, false},
		{"enrollment forces enrolled", Qualified, EnrollmentCreated(), Enrolled, true, true, false},
		{"enrollment from new", New, EnrollmentCreated(), Enrolled, true, true, false},
		{"enrollment when already enrolled", Enrolled, EnrollmentCreated(), Enrolled, false, false, false},
		{"payment on qualified enrolls", Qualified, PaymentConfirmed(), Enrolled, true, true, true},
		{"payment on contacted is ignored", Contacted, PaymentConfirmed(), Contacted, false, false, false},
		{"opt out from anywhere", Enrolled, OptOutRequested(), OptOut, true, false, false},
		{"force never notifies", New, ForceStatus("enrolled"), Enrolled, true, false, false},
		{"force accepts tolerated values", New, ForceStatus("hot_lead"), HotLead, true, false, false},
		{"force with empty status is a no-op", Contacted, ForceStatus(""), Contacted, false, false, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Apply(tc.from, tc.ev)
			if got.To != tc.to || got.Changed != tc.changed || got.Notify != tc.notify || got.CreateEnrollment != tc.enroll {
				t.Fatalf("Apply(%q, %+v) = %+v", tc.from, tc.ev, got)
			}
			if got.From != tc.from || got.Event != tc.ev.Kind {
				t.Fatalf("transition metadata: %+v", got)
			}
		})
	}
}

func TestForceIsMarked(t *testing.T) {
	if tr := Apply(New, ForceStatus("qualified")); !tr.Forced {
		t.Fatalf("expected forced transition")
	}
	if tr := Apply(New, VoiceCall("interested")); tr.Forced {
		t.Fatalf("automatic transition marked forced")
	}
}

func TestCanonical(t *testing.T) {
	for _, s := range []Status{New, Contacted, Qualified, Enrolled, OptOut} {
		if !s.Canonical() {
			t.Fatalf("%q should be canonical", s)
		}
	}
	for _, s := range []Status{HotLead, ReturningCustomer, "whatever"} {
		if s.Canonical() {
			t.Fatalf("%q should not be canonical", s)
		}
	}
}
