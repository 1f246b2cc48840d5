package runner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msageha/deskflow/internal/model"
)

func TestShortcutRunner(t *testing.T) {
	inv := &fakeShortcuts{installed: []string{"Resize Image", "Morning"}}
	r := NewShortcutRunner(inv)

	cmd := model.ShortcutCommand{MetaData: model.MetaData{ID: "s"}, ShortcutIdentifier: "Morning"}
	require.NoError(t, r.Run(context.Background(), cmd))
	assert.Equal(t, []string{"Morning"}, inv.invoked)

	cmd.ShortcutIdentifier = "Evening"
	err := r.Run(context.Background(), cmd)
	var re *ResolutionError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "shortcut", re.Target)
	assert.Equal(t, "Evening", re.Name)
	assert.Len(t, inv.invoked, 1)
}
