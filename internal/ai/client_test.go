package ai

import (
	"errors"
	"testing"

	"jobboard/internal/errcode"
)

func TestStripCodeFence(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare json", `{"name":"Jo"}`, `{"name":"Jo"}`},
		{"json fence", "```json\n{\"name\":\"Jo\"}\n```", `{"name":"Jo"}`},
		{"plain fence", "```\n{\"name\":\"Jo\"}\n```", `{"name":"Jo"}`},
		{"surrounding whitespace", "  \n```json\n{}\n```  ", "{}"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StripCodeFence(tc.in); got != tc.want {
				t.Errorf("StripCodeFence(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestDecodeStructuredCV(t *testing.T) {
	raw := "```json\n{\"name\":\"Jordan\",\"email\":\"jordan@example.com\",\"skills\":[\"go\",\"postgres\"]}\n```"

	cv, err := DecodeStructuredCV(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cv.Name != "Jordan" {
		t.Errorf("name = %q, want Jordan", cv.Name)
	}
	if len(cv.Skills) != 2 || cv.Skills[0] != "go" {
		t.Errorf("skills = %v", cv.Skills)
	}
}

func TestDecodeStructuredCVRejectsInvalidJSON(t *testing.T) {
	_, err := DecodeStructuredCV("I could not parse this resume, sorry!")
	if !errors.Is(err, errcode.ErrUpstream) {
		t.Fatalf("err = %v, want ErrUpstream", err)
	}
}

func TestDecodeStructuredCVRejectsEmptyShape(t *testing.T) {
	_, err := DecodeStructuredCV(`{"languages":["en"]}`)
	if !errors.Is(err, errcode.ErrUpstream) {
		t.Fatalf("err = %v, want ErrUpstream", err)
	}
}
