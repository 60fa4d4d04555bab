package batch

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-kratos/qaeval/dataset"
	"github.com/go-kratos/qaeval/flow"
)

func writeData(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func echoFlow() flow.Flow {
	return flow.Func{
		FlowName: "echo",
		Handler: func(ctx context.Context, inputs flow.Inputs) (flow.Outputs, error) {
			q, _ := inputs["question"].(string)
			return flow.Outputs{"answer": strings.ToUpper(q), "context": "ctx:" + q, "extra": 1}, nil
		},
	}
}

var qaMapping = ColumnMapping{
	"question":     "${data.question}",
	"chat_history": []any{},
}

func TestColumnMappingApply(t *testing.T) {
	inputs, err := qaMapping.Apply(dataset.Row{"question": "q", "ignored": true})
	require.NoError(t, err)
	assert.Equal(t, flow.Inputs{"question": "q", "chat_history": []any{}}, inputs)

	_, err = qaMapping.Apply(dataset.Row{"other": "x"})
	assert.ErrorIs(t, err, ErrMissingColumn)

	inputs, err = ColumnMapping(nil).Apply(dataset.Row{"question": "q"})
	require.NoError(t, err)
	assert.Equal(t, flow.Inputs{"question": "q"}, inputs)

	inputs, err = ColumnMapping{"mode": "literal"}.Apply(dataset.Row{})
	require.NoError(t, err)
	assert.Equal(t, "literal", inputs["mode"])
}

func TestSubmit(t *testing.T) {
	data := writeData(t, `{"question":"a"}`, `{"question":"b"}`, `{"question":"c"}`)
	var progress bytes.Buffer

	run, err := Submit(context.Background(), echoFlow(), data, qaMapping,
		WithConcurrency(2), WithProgress(&progress), WithName("test-run"))
	require.NoError(t, err)

	assert.Equal(t, "test-run", run.Name)
	assert.Equal(t, "echo", run.Flow)
	require.Len(t, run.Lines, 3)
	assert.Equal(t, 0, run.Failed())
	for i, want := range []string{"A", "B", "C"} {
		assert.Equal(t, i, run.Lines[i].Index)
		assert.Equal(t, want, run.Lines[i].Outputs["answer"])
	}
	assert.NotEmpty(t, progress.String())
}

func TestSubmitRecordsFailedLines(t *testing.T) {
	data := writeData(t, `{"question":"ok"}`, `{"question":"bad"}`)
	boom := errors.New("boom")
	f := flow.Func{
		FlowName: "flaky",
		Handler: func(ctx context.Context, inputs flow.Inputs) (flow.Outputs, error) {
			if inputs["question"] == "bad" {
				return nil, boom
			}
			return flow.Outputs{"answer": "fine", "context": ""}, nil
		},
	}
	run, err := Submit(context.Background(), f, data, qaMapping)
	require.NoError(t, err)
	assert.Equal(t, 1, run.Failed())
	assert.Equal(t, StatusFailed, run.Lines[1].Status)
	assert.ErrorIs(t, run.Lines[1].Err, boom)
}

func TestSubmitEmptyData(t *testing.T) {
	data := writeData(t, "")
	_, err := Submit(context.Background(), echoFlow(), data, qaMapping)
	assert.ErrorIs(t, err, ErrEmptyData)
}

func TestSubmitMissingData(t *testing.T) {
	_, err := Submit(context.Background(), echoFlow(), filepath.Join(t.TempDir(), "none.jsonl"), qaMapping)
	assert.True(t, dataset.IsNotExist(err))
}

func TestSubmitCanceled(t *testing.T) {
	data := writeData(t, `{"question":"a"}`, `{"question":"b"}`)
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	f := flow.Func{
		FlowName: "cancel",
		Handler: func(ctx context.Context, inputs flow.Inputs) (flow.Outputs, error) {
			calls.Add(1)
			cancel()
			return nil, ctx.Err()
		},
	}
	_, err := Submit(ctx, f, data, qaMapping, WithConcurrency(1))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDetailsSelect(t *testing.T) {
	data := writeData(t, `{"question":"a"}`, `{"question":"b"}`)
	run, err := Submit(context.Background(), echoFlow(), data, qaMapping)
	require.NoError(t, err)

	details := run.Details()
	assert.Equal(t, []string{
		"inputs.chat_history", "inputs.question",
		"outputs.answer", "outputs.context", "outputs.extra",
	}, details.Columns())

	rows, err := details.Select(
		Column{Name: "inputs.question", Rename: "question"},
		Column{Name: "inputs.chat_history", Rename: "chat_history"},
		Column{Name: "outputs.answer", Rename: "answer"},
		Column{Name: "outputs.context", Rename: "context"},
	)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, dataset.Row{
		"question":     "a",
		"chat_history": []any{},
		"answer":       "A",
		"context":      "ctx:a",
	}, rows[0])

	_, err = details.Select(Column{Name: "outputs.missing", Rename: "missing"})
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestDetailsSelectFailedLine(t *testing.T) {
	details := Details{{Index: 0, Status: StatusFailed, Err: errors.New("boom")}}
	_, err := details.Select(Column{Name: "inputs.question", Rename: "question"})
	assert.ErrorIs(t, err, ErrLineFailed)
}

func TestDetailsPreview(t *testing.T) {
	details := Details{
		{Index: 0, Inputs: flow.Inputs{"question": "What is 2+2?"}, Outputs: flow.Outputs{"answer": strings.Repeat("x", 100)}},
		{Index: 1, Inputs: flow.Inputs{"question": "second"}},
		{Index: 2, Inputs: flow.Inputs{"question": "third"}},
	}
	out := details.Preview(2)
	assert.Contains(t, out, "inputs.question")
	assert.Contains(t, out, "outputs.answer")
	assert.Contains(t, out, "What is 2+2?")
	assert.Contains(t, out, "NaN")
	assert.Contains(t, out, "...")
	assert.NotContains(t, out, "third")
}
