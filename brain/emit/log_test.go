package emit

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLogEmitter_TextMode(t *testing.T) {
	t.Run("basic event", func(t *testing.T) {
		var buf bytes.Buffer
		emitter := NewLogEmitter(&buf, false)

		emitter.Emit(Event{
			RunID: "run-001",
			Step:  1,
			Stage: "process",
			Msg:   "stage_start",
		})

		out := buf.String()
		if !strings.HasPrefix(out, "[stage_start]") {
			t.Errorf("expected output to start with [stage_start], got %q", out)
		}
		if !strings.Contains(out, "runID=run-001") {
			t.Errorf("expected runID in output, got %q", out)
		}
		if !strings.Contains(out, "stage=process") {
			t.Errorf("expected stage in output, got %q", out)
		}
	})

	t.Run("event with meta", func(t *testing.T) {
		var buf bytes.Buffer
		emitter := NewLogEmitter(&buf, false)

		emitter.Emit(Event{
			RunID: "run-001",
			Step:  2,
			Stage: "analyze",
			Msg:   "stage_end",
			Meta:  map[string]interface{}{"cycles": 42},
		})

		out := buf.String()
		if !strings.Contains(out, "meta=") {
			t.Errorf("expected meta in output, got %q", out)
		}
		if !strings.Contains(out, "42") {
			t.Errorf("expected cycle count in output, got %q", out)
		}
	})
}

func TestLogEmitter_JSONMode(t *testing.T) {
	var buf bytes.Buffer
	emitter := NewLogEmitter(&buf, true)

	emitter.Emit(Event{
		RunID: "run-001",
		Step:  3,
		Stage: "visualize",
		Msg:   "figure_written",
		Meta:  map[string]interface{}{"file": "brain_network.svg"},
	})

	var decoded struct {
		RunID string                 `json:"runID"`
		Step  int                    `json:"step"`
		Stage string                 `json:"stage"`
		Msg   string                 `json:"msg"`
		Meta  map[string]interface{} `json:"meta"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v (got %q)", err, buf.String())
	}

	if decoded.RunID != "run-001" {
		t.Errorf("expected runID run-001, got %q", decoded.RunID)
	}
	if decoded.Stage != "visualize" {
		t.Errorf("expected stage visualize, got %q", decoded.Stage)
	}
	if decoded.Meta["file"] != "brain_network.svg" {
		t.Errorf("expected file meta, got %v", decoded.Meta)
	}
}

func TestLogEmitter_NilWriterDefaultsToStdout(t *testing.T) {
	emitter := NewLogEmitter(nil, false)
	if emitter.writer == nil {
		t.Fatal("expected non-nil writer")
	}
}
