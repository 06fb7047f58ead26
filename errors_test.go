package rxlaunch

import (
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorf_Kind(t *testing.T) {
	err := Errorf(ResourceNotFound, "prepare", "Unable to find a %s test at %s", ExternalSystem, "/x/y.exe")
	require.Error(t, err)
	assert.Equal(t, ResourceNotFound, KindOf(err))
	assert.True(t, IsKind(err, ResourceNotFound))
	assert.False(t, IsKind(err, ParseFailure))
	assert.Equal(t, "prepare: Unable to find a Ranorex test at /x/y.exe", err.Error())
}

func TestWrap_PreservesCause(t *testing.T) {
	err := Wrap(ParseFailure, "parse", fs.ErrNotExist, "opening artifact")
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.True(t, IsKind(fmt.Errorf("outer: %w", err), ParseFailure))
}

func TestWrap_Nil(t *testing.T) {
	assert.NoError(t, Wrap(ProcessFailure, "run", nil, "starting"))
}

func TestStackTrace_IncludesFrames(t *testing.T) {
	err := Errorf(ProcessFailure, "run", "boom")
	trace := StackTrace(err)
	assert.True(t, strings.HasPrefix(trace, "run: boom"), trace)
	assert.Contains(t, trace, "TestStackTrace_IncludesFrames")
}

func TestKindOf_Unclassified(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(fmt.Errorf("plain")))
	assert.False(t, IsKind(nil, ParseFailure))
}

func TestIdentity(t *testing.T) {
	d := Identity()
	assert.Equal(t, "RanorexEngine", d.Token)
	assert.Equal(t, Version, d.Version)
	assert.Equal(t, "Ranorex Automation Engine", d.Name)
}
