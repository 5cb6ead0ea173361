package bind

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perr "reaper/internal/platform/errors"
)

type payload struct {
	UID    string `json:"uid" validate:"required,account_uid"`
	Reason string `json:"reason" validate:"required,oneof=a b"`
	Days   int    `json:"days" validate:"min=0,max=365"`
}

func req(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func TestParseJSONValid(t *testing.T) {
	got, err := ParseJSON[payload](req(`{"uid":"0123456789abcdef0123456789abcdef","reason":"a","days":30}`))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if got.Days != 30 || got.Reason != "a" {
		t.Fatalf("got %+v", got)
	}
}

func TestParseJSONErrors(t *testing.T) {
	cases := map[string]struct {
		body string
		code perr.ErrorCode
	}{
		"empty":    {"  ", perr.ErrorCodeJSON},
		"syntax":   {`{"uid":`, perr.ErrorCodeJSON},
		"unknown":  {`{"uid":"0123456789abcdef0123456789abcdef","reason":"a","x":1}`, perr.ErrorCodeJSON},
		"trailing": {`{"uid":"0123456789abcdef0123456789abcdef","reason":"a"} {}`, perr.ErrorCodeJSON},
		"bad uid":  {`{"uid":"NOT-HEX","reason":"a"}`, perr.ErrorCodeValidation},
		"max":      {`{"uid":"0123456789abcdef0123456789abcdef","reason":"b","days":400}`, perr.ErrorCodeValidation},
	}
	for name, c := range cases {
		_, err := ParseJSON[payload](req(c.body))
		if !perr.IsCode(err, c.code) {
			t.Fatalf("%s: code = %v (%v), want %v", name, perr.CodeOf(err), err, c.code)
		}
	}
}

func TestValidationMessagesUseJSONNames(t *testing.T) {
	_, err := ParseJSON[payload](req(`{"uid":"abc","reason":"a"}`))
	e, ok := perr.As(err)
	if !ok {
		t.Fatalf("err = %v, want *perr.Error", err)
	}
	if e.Field() != "uid" || !strings.Contains(err.Error(), "32 character") {
		t.Fatalf("err = %v field=%q", err, e.Field())
	}

	_, err = ParseJSON[payload](req(`{"uid":"0123456789abcdef0123456789abcdef","reason":"a","days":-1}`))
	if !strings.Contains(err.Error(), "days must be at least 0") {
		t.Fatalf("min message = %v", err)
	}
}

func TestAllowEmptyBody(t *testing.T) {
	got, err := ParseJSON[payload](req(""), JSONOptions{AllowEmptyBody: true})
	if err != nil || got != (payload{}) {
		t.Fatalf("empty allowed = %+v, %v", got, err)
	}
}

func TestStruct(t *testing.T) {
	if err := Struct(payload{UID: "0123456789abcdef0123456789abcdef", Reason: "b"}); err != nil {
		t.Fatalf("Struct: %v", err)
	}
	if err := Struct(payload{}); !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("Struct(empty) = %v", err)
	}
}
