package normalization

import "testing"

func TestSnakeCase(t *testing.T) {
	cases := map[string]string{
		"firstName":        "first_name",
		"first_name":       "first_name",
		"FirstName":        "first_name",
		"phoneNumber":      "phone_number",
		"callID":           "call_id",
		"conversation-id":  "conversation_id",
		"licenseGoal":      "license_goal",
		"HTTPStatus":       "http_status",
		"payment status":   "payment_status",
		"":                 "",
		"already_snake_ok": "already_snake_ok",
	}
	for in, want := range cases {
		if got := SnakeCase(in); got != want {
			t.Errorf("SnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"(555) 123-4567":  "+15551234567",
		"555.123.4567":    "+15551234567",
		"1-555-123-4567":  "+15551234567",
		"+1 555 123 4567": "+15551234567",
		"+44 20 7946 0958": "+442079460958",
		"abc":             "",
		"":                "",
	}
	for in, want := range cases {
		if got := NormalizePhone(in); got != want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", in, got, want)
		}
	}
	if got := PhoneDigits("(555) 123-4567"); got != "15551234567" {
		t.Fatalf("PhoneDigits: got %q", got)
	}
}

func TestSplitName(t *testing.T) {
	first, last := SplitName("  Jane   Q  Doe ")
	if first != "Jane" || last != "Q Doe" {
		t.Fatalf("SplitName: got %q %q", first, last)
	}
	first, last = SplitName("Cher")
	if first != "Cher" || last != "" {
		t.Fatalf("SplitName single: got %q %q", first, last)
	}
}

func TestNewPayloadAcceptsBothCasings(t *testing.T) {
	camel := NewPayload(map[string]any{"firstName": "Ana", "phoneNumber": "5551234567", "licenseGoal": "2-40"})
	snake := NewPayload(map[string]any{"first_name": "Ana", "phone_number": "5551234567", "license_goal": "2-40"})
	for _, p := range []Payload{camel, snake} {
		if p.Str("first_name") != "Ana" {
			t.Fatalf("first_name: %+v", p)
		}
		if p.Str("phone", "phone_number") != "5551234567" {
			t.Fatalf("phone: %+v", p)
		}
		if p.Str("license_goal") != "2-40" {
			t.Fatalf("license_goal: %+v", p)
		}
	}
}

func TestNewPayloadLiftsVoiceAgentSections(t *testing.T) {
	p := NewPayload(map[string]any{
		"type": "post_call_transcription",
		"data": map[string]any{
			"conversation_id": "conv_1",
			"analysis": map[string]any{
				"transcript_summary": "Wants the 2-15 course",
				"data_collection_results": map[string]any{
					"intent":      map[string]any{"value": "interested", "rationale": "said yes"},
					"urgencyLevel": map[string]any{"value": "high"},
				},
			},
			"metadata": map[string]any{
				"call_duration_secs": 42.0,
				"phone_call":         map[string]any{"external_number": "+15550001111"},
			},
		},
	})
	if got := p.Str("conversation_id"); got != "conv_1" {
		t.Fatalf("conversation_id: %q", got)
	}
	if got := p.Str("intent"); got != "interested" {
		t.Fatalf("intent: %q", got)
	}
	if got := p.Str("urgency_level"); got != "high" {
		t.Fatalf("urgency_level: %q", got)
	}
	if got := p.Str("call_summary"); got != "Wants the 2-15 course" {
		t.Fatalf("call_summary: %q", got)
	}
	if got := p.Str("phone"); got != "+15550001111" {
		t.Fatalf("phone: %q", got)
	}
	if d, ok := p.Int("duration"); !ok || d != 42 {
		t.Fatalf("duration: %d %v", d, ok)
	}
}

func TestPayloadTopLevelWins(t *testing.T) {
	p := NewPayload(map[string]any{
		"phone": "5550002222",
		"data":  map[string]any{"phone": "5559999999"},
	})
	if got := p.Str("phone"); got != "5550002222" {
		t.Fatalf("phone: %q", got)
	}
}

func TestPayloadFloat(t *testing.T) {
	p := Payload{"amount": "$1,250.50", "n": 3.0, "bad": "x"}
	if f, ok := p.Float("amount"); !ok || f != 1250.5 {
		t.Fatalf("amount: %v %v", f, ok)
	}
	if _, ok := p.Float("bad"); ok {
		t.Fatalf("bad should not parse")
	}
	if f, ok := p.Float("missing", "n"); !ok || f != 3 {
		t.Fatalf("alias: %v %v", f, ok)
	}
}
