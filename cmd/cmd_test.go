package cmd

import (
	"os"
	"testing"
)

func TestParseServeAddr(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{name: "default from config", args: []string{"faqbot", "serve"}, want: ":8080"},
		{name: "positional", args: []string{"faqbot", "serve", ":9090"}, want: ":9090"},
		{name: "flag", args: []string{"faqbot", "serve", "--addr", "127.0.0.1:9090"}, want: "127.0.0.1:9090"},
		{name: "single dash flag", args: []string{"faqbot", "serve", "-addr", ":9091"}, want: ":9091"},
		{name: "invalid positional", args: []string{"faqbot", "serve", "not-an-addr"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			origArgs := os.Args
			defer func() { os.Args = origArgs }()
			os.Args = tt.args

			got, err := parseServeAddr(":8080")
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseServeAddr() = %q, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseServeAddr() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("parseServeAddr() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExecute_UnknownCommand(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()
	os.Args = []string{"faqbot", "frobnicate"}

	if err := Execute(); err == nil {
		t.Fatal("Execute() = nil, want error for unknown command")
	}
}
