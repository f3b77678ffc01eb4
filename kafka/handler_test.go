package kafka

import (
	"context"
	"errors"
	"testing"
)

type fakeRunner struct {
	calls  int
	bucket string
	prefix string
	err    error
}

func (f *fakeRunner) RunBatch(ctx context.Context, bucket, prefix string) error {
	f.calls++
	f.bucket = bucket
	f.prefix = prefix
	return f.err
}

func TestBatchEventHandlerRunsBatch(t *testing.T) {
	runner := &fakeRunner{}
	handler := &BatchEventHandler{Runner: runner}

	mark, err := handler.HandleMessage(context.Background(),
		[]byte(`{"batchId":"b-1","bucket":"donations","prefix":"incoming/2026-08-14","uploaded":12}`))
	if err != nil || !mark {
		t.Fatalf("mark=%v err=%v", mark, err)
	}
	if runner.calls != 1 || runner.bucket != "donations" || runner.prefix != "incoming/2026-08-14" {
		t.Errorf("runner = %+v", runner)
	}
}

func TestBatchEventHandlerSkipsMalformed(t *testing.T) {
	runner := &fakeRunner{}
	handler := &BatchEventHandler{Runner: runner}

	mark, err := handler.HandleMessage(context.Background(), []byte(`not json`))
	if err != nil || !mark {
		t.Errorf("malformed event should be marked and skipped: mark=%v err=%v", mark, err)
	}

	mark, err = handler.HandleMessage(context.Background(), []byte(`{"batchId":"b-2"}`))
	if err != nil || !mark {
		t.Errorf("incomplete event should be marked and skipped: mark=%v err=%v", mark, err)
	}
	if runner.calls != 0 {
		t.Errorf("runner invoked %d times", runner.calls)
	}
}

func TestBatchEventHandlerLeavesFailedRunUnmarked(t *testing.T) {
	runner := &fakeRunner{err: errors.New("directory unavailable")}
	handler := &BatchEventHandler{Runner: runner}

	mark, err := handler.HandleMessage(context.Background(),
		[]byte(`{"batchId":"b-3","bucket":"donations","prefix":"incoming/x"}`))
	if mark || err == nil {
		t.Errorf("failed run should leave message unmarked: mark=%v err=%v", mark, err)
	}
}
