package logger

import (
	"strings"
	"testing"
)

func TestRedactorMasksSecretsAndHashesPrincipals(t *testing.T) {
	r := &redactor{enabled: true, salt: "s"}
	out := r.kvs([]interface{}{
		"access_token", "abc",
		"user_id", "2b1c",
		"course_id", "c-1",
	})
	if len(out) != 6 {
		t.Fatalf("len: want=6 got=%d", len(out))
	}
	if out[1] != "[REDACTED]" {
		t.Fatalf("token: want=[REDACTED] got=%v", out[1])
	}
	hashed, _ := out[3].(string)
	if !strings.HasPrefix(hashed, "hash:") || len(hashed) != len("hash:")+12 {
		t.Fatalf("user_id: want hash:<12 hex> got=%q", hashed)
	}
	if out[5] != "c-1" {
		t.Fatalf("course_id: want=c-1 got=%v", out[5])
	}
}

func TestRedactorDisabledPassesThrough(t *testing.T) {
	r := &redactor{enabled: false}
	in := []interface{}{"password", "hunter2"}
	out := r.kvs(in)
	if out[1] != "hunter2" {
		t.Fatalf("want passthrough got=%v", out[1])
	}
}

func TestRedactorOddKeyValueCount(t *testing.T) {
	r := &redactor{enabled: true}
	out := r.kvs([]interface{}{"a", 1, "dangling"})
	if len(out) != 3 || out[2] != "dangling" {
		t.Fatalf("unexpected output: %v", out)
	}
}

func TestRedactorNestedMapAndJWTValues(t *testing.T) {
	r := &redactor{enabled: true}
	jwtLike := "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxMjM0NTY3ODkwIn0.sig"
	out := r.kvs([]interface{}{
		"claims", map[string]interface{}{"secret": "x", "plain": "y"},
		"header", jwtLike,
	})
	nested, ok := out[1].(map[string]interface{})
	if !ok {
		t.Fatalf("nested: want map got=%T", out[1])
	}
	if nested["secret"] != "[REDACTED]" || nested["plain"] != "y" {
		t.Fatalf("nested redaction mismatch: %v", nested)
	}
	if out[3] != "[REDACTED]" {
		t.Fatalf("jwt value: want=[REDACTED] got=%v", out[3])
	}
}

func TestNopLoggerDoesNotPanic(t *testing.T) {
	log := Nop()
	log.With("service", "x").Info("hello", "user_id", "u")
	log.Sync()
}
