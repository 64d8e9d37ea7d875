package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNewFanoutHandlerCollapses(t *testing.T) {
	if _, ok := newFanoutHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler for all nil handlers")
	}
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := newFanoutHandler(nil, inner, nil); h != inner {
		t.Fatal("expected single non-nil handler to be returned unwrapped")
	}
}

func TestFanoutHandlerRespectsEachLevel(t *testing.T) {
	var info, debug bytes.Buffer
	h := newFanoutHandler(
		slog.NewJSONHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected fanout enabled for debug")
	}
	logger := slog.New(h)
	logger.Debug("frame sampled")
	logger.Info("render complete")

	if strings.Contains(info.String(), "frame sampled") {
		t.Fatal("info handler should not receive debug records")
	}
	for _, want := range []string{"frame sampled", "render complete"} {
		if !strings.Contains(debug.String(), want) {
			t.Fatalf("debug handler missing %q: %s", want, debug.String())
		}
	}
}

func TestTeeLoggerCarriesAttrsToAllHandlers(t *testing.T) {
	var first, second bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&first, nil))
	logger := TeeLogger(base, slog.NewJSONHandler(&second, nil)).With(String(FieldItemID, "7"))
	logger.WithGroup("render").Info("saved", String("path", "/tmp/x.exr"))

	for name, buf := range map[string]*bytes.Buffer{"first": &first, "second": &second} {
		out := buf.String()
		if !strings.Contains(out, `"item_id":"7"`) || !strings.Contains(out, `"render":{"path":"/tmp/x.exr"}`) {
			t.Fatalf("%s handler output missing attrs: %s", name, out)
		}
	}
}

func TestTeeLoggerNilBase(t *testing.T) {
	var buf bytes.Buffer
	TeeLogger(nil, slog.NewJSONHandler(&buf, nil)).Info("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Fatalf("expected output from tee handler, got %q", buf.String())
	}
}
