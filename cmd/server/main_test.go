package main

import (
	"reflect"
	"testing"
)

func TestEnvFileArg(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{nil, ".env"},
		{[]string{"-use-memory"}, ".env"},
		{[]string{"-env-file", "prod.env"}, "prod.env"},
		{[]string{"--env-file=staging.env", "-use-memory"}, "staging.env"},
		{[]string{"-env-file"}, ".env"},
	}
	for _, tt := range tests {
		if got := envFileArg(tt.args, ".env"); got != tt.want {
			t.Errorf("envFileArg(%v) = %q, want %q", tt.args, got, tt.want)
		}
	}
}

func TestSplitList(t *testing.T) {
	if got := splitList(" a, ,b ,"); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("splitList = %v", got)
	}
	if got := splitList(""); got != nil {
		t.Errorf("splitList(\"\") = %v, want nil", got)
	}
}
