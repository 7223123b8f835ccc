package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoggerErrorIncludesContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf})

	ctx := context.Background()
	ctx = log.WithRequestID(ctx, "req-123")
	ctx = log.WithOrderID(ctx, "ord-1")
	ctx = log.WithWithdrawalID(ctx, "wd-9")

	log.Error(ctx, "boom", errors.New("boom"))

	for _, field := range []string{`"request_id":"req-123"`, `"order_id":"ord-1"`, `"withdrawal_id":"wd-9"`, `"stack"`} {
		if !strings.Contains(buf.String(), field) {
			t.Fatalf("expected %s in entry=%s", field, buf.String())
		}
	}
}

func TestLoggerWarnStackToggle(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf, WarnStack: true})
	log.Warn(context.Background(), "warny")
	if !strings.Contains(buf.String(), `"stack"`) {
		t.Fatalf("expected stack when warn stack enabled")
	}

	buf.Reset()
	quiet := New(Options{ServiceName: "test", Output: buf})
	quiet.Warn(context.Background(), "warny")
	if strings.Contains(buf.String(), `"stack"`) {
		t.Fatalf("expected no stack when warn stack disabled")
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: zerolog.WarnLevel, Output: buf})
	log.Info(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered, got %s", buf.String())
	}
}

func TestParseLevelDefaults(t *testing.T) {
	if lvl := ParseLevel(""); lvl != zerolog.InfoLevel {
		t.Fatalf("expected default info level, got %v", lvl)
	}
	if lvl := ParseLevel("invalid"); lvl != zerolog.InfoLevel {
		t.Fatalf("invalid level should fallback to info, got %v", lvl)
	}
	if lvl := ParseLevel(" DEBUG "); lvl != zerolog.DebugLevel {
		t.Fatalf("expected debug, got %v", lvl)
	}
}

func TestConsoleFormatIsNotJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Output: buf, Format: "Console"})
	log.Info(context.Background(), "hello")
	if strings.HasPrefix(buf.String(), "{") {
		t.Fatalf("expected console output, got %s", buf.String())
	}
}

func TestWithPhoneMasksDigits(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Output: buf})
	ctx := log.WithPhone(context.Background(), "pay_phone", "0712345678")
	log.Info(ctx, "order created")
	if !strings.Contains(buf.String(), `"pay_phone":"*******678"`) {
		t.Fatalf("expected masked phone, got %s", buf.String())
	}
	if strings.Contains(buf.String(), "0712345678") {
		t.Fatalf("raw phone leaked: %s", buf.String())
	}
}

func TestMaskPhoneShortValues(t *testing.T) {
	if got := MaskPhone("12"); got != "**" {
		t.Fatalf("expected fully masked, got %q", got)
	}
}

func TestNopDiscards(t *testing.T) {
	Nop().Error(context.Background(), "ignored", errors.New("x"))
}
