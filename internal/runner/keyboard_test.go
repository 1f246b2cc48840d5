package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msageha/deskflow/internal/input"
	"github.com/msageha/deskflow/internal/model"
)

func TestKeyboardRunner_PostsDownUpPerShortcut(t *testing.T) {
	p := &fakePoster{}
	src := input.NewSource(p)
	r := NewKeyboardRunner(src, time.Millisecond)

	cmd := model.KeyboardCommand{KeyboardShortcuts: []model.KeyShortcut{
		{Key: "c", Modifiers: []model.ModifierKey{model.ModifierCommand}},
		{Key: "tab"},
	}}
	require.NoError(t, r.Run(context.Background(), cmd))

	require.Len(t, p.events, 4)
	wantKeys := []string{"c", "c", "tab", "tab"}
	wantTypes := []input.EventType{input.KeyDown, input.KeyUp, input.KeyDown, input.KeyUp}
	for i, ev := range p.events {
		assert.Equal(t, wantKeys[i], ev.Key)
		assert.Equal(t, wantTypes[i], ev.Type)
		assert.Equal(t, src.ID(), ev.SourceID)
	}
	assert.Equal(t, cmd.KeyboardShortcuts, src.LastShortcuts())
}

func TestKeyboardRunner_Replay(t *testing.T) {
	p := &fakePoster{}
	src := input.NewSource(p)
	r := NewKeyboardRunner(src, 0)

	require.NoError(t, r.Replay(context.Background()))
	assert.Empty(t, p.events, "nothing to replay yet")

	require.NoError(t, r.Run(context.Background(), model.KeyboardCommand{
		KeyboardShortcuts: []model.KeyShortcut{{Key: "z", Modifiers: []model.ModifierKey{model.ModifierCommand}}},
	}))
	require.NoError(t, r.Replay(context.Background()))
	require.Len(t, p.events, 4)
	assert.Equal(t, "z", p.events[2].Key)
	assert.Equal(t, input.KeyDown, p.events[2].Type)
}

func TestTypeRunner_Typing(t *testing.T) {
	p := &fakePoster{}
	r := NewTypeRunner(input.NewSource(p), &fakePasteboard{}, 0, 0)

	require.NoError(t, r.Run(context.Background(), model.TypeCommand{Input: "héllo", Mode: model.TypeModeTyping}))
	assert.Equal(t, []string{"h", "é", "l", "l", "o"}, p.typed)
	assert.Empty(t, p.events)
}

func TestTypeRunner_InstantRestoresClipboard(t *testing.T) {
	p := &fakePoster{}
	pb := &fakePasteboard{content: "previous"}
	r := NewTypeRunner(input.NewSource(p), pb, 0, time.Millisecond)

	require.NoError(t, r.Run(context.Background(), model.TypeCommand{Input: "pasted", Mode: model.TypeModeInstant}))

	assert.Equal(t, []string{"pasted", "previous"}, pb.writes)
	require.Len(t, p.events, 2)
	assert.Equal(t, "v", p.events[0].Key)
	assert.Equal(t, []model.ModifierKey{model.ModifierCommand}, p.events[0].Modifiers)
	assert.Empty(t, p.typed)
}

func TestTypeRunner_InstantRestoresOnCancel(t *testing.T) {
	pb := &fakePasteboard{content: "keep me"}
	r := NewTypeRunner(input.NewSource(&fakePoster{}), pb, 0, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)
	err := r.Run(ctx, model.TypeCommand{Input: "x", Mode: model.TypeModeInstant})

	assert.ErrorIs(t, err, context.Canceled)
	content, _ := pb.ReadAll()
	assert.Equal(t, "keep me", content)
}

func TestTypeRunner_InstantLeavesUnreadableClipboard(t *testing.T) {
	pb := &fakePasteboard{readErr: errors.New("pasteboard holds an image")}
	r := NewTypeRunner(input.NewSource(&fakePoster{}), pb, 0, time.Millisecond)

	require.NoError(t, r.Run(context.Background(), model.TypeCommand{Input: "pasted", Mode: model.TypeModeInstant}))
	assert.Equal(t, []string{"pasted"}, pb.writes, "no empty-string restore")
}

func TestTypeRunner_InstantWithoutPasteboardTypes(t *testing.T) {
	p := &fakePoster{}
	r := NewTypeRunner(input.NewSource(p), nil, 0, 0)

	require.NoError(t, r.Run(context.Background(), model.TypeCommand{Input: "ab", Mode: model.TypeModeInstant}))
	assert.Equal(t, []string{"a", "b"}, p.typed)
}

func TestSleepCtx(t *testing.T) {
	assert.NoError(t, SleepCtx(context.Background(), time.Millisecond))
	assert.NoError(t, SleepCtx(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, SleepCtx(ctx, time.Hour), context.Canceled)
	assert.ErrorIs(t, SleepCtx(ctx, 0), context.Canceled)
}
