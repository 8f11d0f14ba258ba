package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunCreateThenValidate(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer

	if err := run(context.Background(), options{cmd: "create", dir: dir, name: "receipt queue"}, &out); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.Contains(out.String(), "_receipt_queue.sql") {
		t.Fatalf("unexpected output %q", out.String())
	}
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one migration in %s, got %v (%v)", dir, entries, err)
	}

	out.Reset()
	if err := run(context.Background(), options{cmd: "validate", dir: dir}, &out); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestRunUsageErrors(t *testing.T) {
	cases := []options{
		{cmd: "create", dir: t.TempDir()},
		{cmd: "version"},
		{cmd: "teleport"},
	}
	for _, opts := range cases {
		err := run(context.Background(), opts, &bytes.Buffer{})
		if !errors.Is(err, errUsage) {
			t.Fatalf("%+v: expected usage error, got %v", opts, err)
		}
	}
}

func TestRunValidateRejectsBadDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "oops.sql"), []byte("select 1;"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := run(context.Background(), options{cmd: "validate", dir: dir}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected validation failure")
	}
}
