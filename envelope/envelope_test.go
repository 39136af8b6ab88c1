package envelope

import (
	"strings"
	"testing"
)

func TestValidateRejectsEmptyIKey(t *testing.T) {
	e := NewEnvelope("", RequestData{Name: "GET /x"})
	if err := Validate(e); err == nil {
		t.Errorf("expected error for empty iKey")
	}
}

func TestValidateDefaultsResponseCode(t *testing.T) {
	e := NewEnvelope("ikey", RequestData{Name: "GET /x"})
	if err := Validate(e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req := e.Data.(RequestData)
	if req.ResponseCode != "200" {
		t.Errorf("ResponseCode = %q, want 200", req.ResponseCode)
	}
}

func TestValidateClampsSampleRate(t *testing.T) {
	e := NewEnvelope("ikey", RequestData{})
	e.SampleRate = 0
	if err := Validate(e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.SampleRate != 100.0 {
		t.Errorf("SampleRate = %v, want 100.0", e.SampleRate)
	}
}

func TestValidateTruncatesName(t *testing.T) {
	e := NewEnvelope("ikey", RequestData{Name: strings.Repeat("x", 2000)})
	if err := Validate(e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req := e.Data.(RequestData)
	if len([]rune(req.Name)) > 1024 {
		t.Errorf("Name length %d exceeds 1024", len([]rune(req.Name)))
	}
}

func TestValidateRejectsEmptyMessage(t *testing.T) {
	e := NewEnvelope("ikey", MessageData{Message: ""})
	if err := Validate(e); err == nil {
		t.Errorf("expected error for empty message")
	}
}

func TestValidateRejectsExceptionWithNoDetails(t *testing.T) {
	e := NewEnvelope("ikey", ExceptionData{})
	if err := Validate(e); err == nil {
		t.Errorf("expected error for exception with no details")
	}
}

func TestSetOperationParentIDIgnoresEmpty(t *testing.T) {
	e := NewEnvelope("ikey", RequestData{})
	e.SetOperationParentID("")
	if _, ok := e.Tags["ai.operation.parentId"]; ok {
		t.Errorf("empty parent id should not be set as a tag")
	}
}

func TestKindStrings(t *testing.T) {
	cases := map[Kind]string{
		KindRequest:           "Request",
		KindRemoteDependency:  "RemoteDependency",
		KindMessage:           "Message",
		KindException:         "Exception",
		KindEvent:             "Event",
		Kind(99):              "Unknown",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}
